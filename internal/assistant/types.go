package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/1kken/SideKickCX/internal/sse"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one entry of the conversation sent to a completion service.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	Model  string
	Stream bool
}

// Result is the canonical shape every provider response is decoded into.
type Result struct {
	Content string
	Source  Field
}

// Provider produces a single, complete reply for a turn sequence.
type Provider interface {
	Complete(ctx context.Context, turns []Turn, opts Options) (Result, error)
}

// StreamProvider is an optional interface. The returned source yields the raw
// `data: ` framed body and must be decoded with the sse package.
type StreamProvider interface {
	Stream(ctx context.Context, turns []Turn, opts Options) (sse.ByteSource, error)
}

var ErrInvalidTurn = errors.New("invalid conversation turn")

// ValidateTurns enforces the closed role set and non-empty user/assistant content.
func ValidateTurns(turns []Turn) error {
	if len(turns) == 0 {
		return fmt.Errorf("%w: no turns", ErrInvalidTurn)
	}
	for i, t := range turns {
		if !t.Role.Valid() {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidTurn, i, t.Role)
		}
		if t.Role != RoleSystem && strings.TrimSpace(t.Content) == "" {
			return fmt.Errorf("%w: turn %d (%s) is empty", ErrInvalidTurn, i, t.Role)
		}
	}
	return nil
}

// StatusError is returned when a completion service answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}
