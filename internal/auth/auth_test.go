package auth

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestJWT_RoundTrip(t *testing.T) {
	tok, err := SignJWT("u1", RoleAgent, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, RoleAgent, claims.Role)

	_, err = ParseJWT(tok, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Expired(t *testing.T) {
	tok, err := SignJWT("u1", RoleCustomer, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(tok, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRepo_UpsertAndAuthenticate(t *testing.T) {
	db, err := gorm.Open(gormsqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	repo := NewRepo(db)
	ctx := context.Background()

	u, err := repo.Upsert(ctx, "Ana", " Ana@Example.com ", "pw1", RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)

	again, err := repo.Upsert(ctx, "Ana B", "ana@example.com", "pw2", RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	_, err = repo.Authenticate(ctx, "ana@example.com", "pw1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	got, err := repo.Authenticate(ctx, "ANA@example.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", got.Name)

	_, err = repo.Authenticate(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
