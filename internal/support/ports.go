package support

import (
	"context"
	"time"
)

// InteractionStore persists repetition records.
type InteractionStore interface {
	// FindByUserAndFingerprint returns candidate records of userID whose question
	// contains fingerprint, newest first. Callers verify with a Matcher.
	FindByUserAndFingerprint(ctx context.Context, userID, fingerprint string) ([]Interaction, error)
	Insert(ctx context.Context, rec *Interaction) error
	Update(ctx context.Context, id string, patch InteractionPatch) error
}

type InteractionPatch struct {
	RepetitionCount int
	LastAsked       time.Time
}

// DomainStore serves read-only account data used to enrich repeated questions.
type DomainStore interface {
	Products(ctx context.Context, limit int) ([]Product, error)
	OrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error)
	RecentLogs(ctx context.Context, userID string, limit int) ([]ChatbotLog, error)
}

// Entry is one audit log row.
type Entry struct {
	UserID    string    `json:"user_id"`
	TicketID  *string   `json:"ticket_id,omitempty"`
	Question  string    `json:"question"`
	Response  *string   `json:"response"`
	HandledBy HandledBy `json:"handled_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Entry) Log() ChatbotLog {
	return ChatbotLog{
		UserID:    e.UserID,
		TicketID:  e.TicketID,
		Question:  e.Question,
		Response:  e.Response,
		HandledBy: e.HandledBy,
		CreatedAt: e.CreatedAt,
	}
}

type AuditLog interface {
	Append(ctx context.Context, e Entry) error
}

type TicketStore interface {
	CreateTicket(ctx context.Context, t *Ticket) error
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	ListTickets(ctx context.Context, status TicketStatus, limit int) ([]Ticket, error)
	UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) error
}

// Stores groups the persistence dependencies of a Service.
type Stores struct {
	Interactions InteractionStore
	Domain       DomainStore
	Audit        AuditLog
	Tickets      TicketStore
}
