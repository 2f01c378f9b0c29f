package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate_SQLite(t *testing.T) {
	gdb, err := Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, table := range []string{"users", "user_interactions", "chatbot_logs", "tickets", "orders", "order_items", "shipping_details", "products"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.Error(t, err)
}
