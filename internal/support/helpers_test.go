package support

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/sse"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(Models()...), "automigrate")
	return db
}

type fakeProvider struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	last    []assistant.Turn
}

func (p *fakeProvider) Complete(ctx context.Context, turns []assistant.Turn, opts assistant.Options) (assistant.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = append([]assistant.Turn(nil), turns...)
	if p.err != nil {
		return assistant.Result{}, p.err
	}
	return assistant.Result{Content: p.content, Source: assistant.FieldAnswer}, nil
}

// fakeStreamer serves body as an SSE stream.
type fakeStreamer struct {
	fakeProvider
	body      string
	streamErr error
}

func (p *fakeStreamer) Stream(ctx context.Context, turns []assistant.Turn, opts assistant.Options) (sse.ByteSource, error) {
	p.mu.Lock()
	p.calls++
	p.last = append([]assistant.Turn(nil), turns...)
	p.mu.Unlock()
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return sse.NewReaderSource(io.NopCloser(strings.NewReader(p.body)), 8), nil
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, Entry) error { return errors.New("audit down") }

type failingInteractions struct{}

func (failingInteractions) FindByUserAndFingerprint(context.Context, string, string) ([]Interaction, error) {
	return nil, errors.New("db down")
}
func (failingInteractions) Insert(context.Context, *Interaction) error { return errors.New("db down") }
func (failingInteractions) Update(context.Context, string, InteractionPatch) error {
	return errors.New("db down")
}
