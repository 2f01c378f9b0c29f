package support

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ContextBundle is account data attached to a repeated question. Never persisted.
type ContextBundle struct {
	Products  []Product    `json:"products"`
	Orders    []Order      `json:"orders"`
	PriorLogs []ChatbotLog `json:"previousInteractions"`
}

type Limits struct {
	Products int
	Orders   int
	Logs     int
}

func DefaultLimits() Limits {
	return Limits{Products: 5, Orders: 3, Logs: 5}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.Products <= 0 {
		l.Products = d.Products
	}
	if l.Orders <= 0 {
		l.Orders = d.Orders
	}
	if l.Logs <= 0 {
		l.Logs = d.Logs
	}
	return l
}

type Assembler struct {
	store  DomainStore
	limits Limits
}

func NewAssembler(store DomainStore, limits Limits) *Assembler {
	return &Assembler{store: store, limits: limits.withDefaults()}
}

// Assemble runs the three reads concurrently. A failed read leaves its list
// empty and never fails the bundle.
func (a *Assembler) Assemble(ctx context.Context, userID string) ContextBundle {
	var (
		b ContextBundle
		g errgroup.Group
	)

	g.Go(func() error {
		ps, err := a.store.Products(ctx, a.limits.Products)
		if err != nil {
			slog.Warn("context products read failed", "user_id", userID, "error", err)
			return nil
		}
		b.Products = capSlice(ps, a.limits.Products)
		return nil
	})
	g.Go(func() error {
		orders, err := a.store.OrdersByUser(ctx, userID, a.limits.Orders)
		if err != nil {
			slog.Warn("context orders read failed", "user_id", userID, "error", err)
			return nil
		}
		b.Orders = capSlice(orders, a.limits.Orders)
		return nil
	})
	g.Go(func() error {
		ls, err := a.store.RecentLogs(ctx, userID, a.limits.Logs)
		if err != nil {
			slog.Warn("context logs read failed", "user_id", userID, "error", err)
			return nil
		}
		b.PriorLogs = capSlice(ls, a.limits.Logs)
		return nil
	})
	_ = g.Wait()

	if b.Products == nil {
		b.Products = []Product{}
	}
	if b.Orders == nil {
		b.Orders = []Order{}
	}
	if b.PriorLogs == nil {
		b.PriorLogs = []ChatbotLog{}
	}
	return b
}

func capSlice[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// SystemPrompt renders the bundle as the system turn prepended to the conversation.
func SystemPrompt(rep Repetition, b ContextBundle) string {
	raw, err := json.Marshal(b)
	if err != nil {
		raw = []byte("{}")
	}
	return fmt.Sprintf("The user has asked this or a similar question %d times. Here's context from their account: %s",
		rep.Count, raw)
}
