package support

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/1kken/SideKickCX/internal/common"
)

const (
	ticketCreatedMessage = "Ticket created successfully. An agent will respond soon."
	defaultAgentQuestion = "Customer inquiry"
)

// CreateTicket opens a ticket for userID, prioritized by its message.
func (s *Service) CreateTicket(ctx context.Context, userID, subject, message string) (*Ticket, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if strings.TrimSpace(subject) == "" {
		subject = truncateRunes(message, summaryLength)
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, err
	}
	t := &Ticket{
		ID:       id,
		UserID:   userID,
		Subject:  subject,
		Message:  message,
		Status:   TicketOpen,
		Priority: Classify(message),
	}
	if err := s.stores.Tickets.CreateTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	confirmation := ticketCreatedMessage
	s.audit(ctx, Entry{
		UserID:    userID,
		TicketID:  &t.ID,
		Question:  message,
		Response:  &confirmation,
		HandledBy: HandledByChatbot,
		CreatedAt: time.Now(),
	})
	return t, nil
}

// RecordAgentResponse stores an agent's answer to a ticket. Unlike chatbot
// audit rows, a failure here is returned.
func (s *Service) RecordAgentResponse(ctx context.Context, ticketID, question, answer string) (*ChatbotLog, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyMessage
	}
	t, err := s.stores.Tickets.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		question = defaultAgentQuestion
	}

	e := Entry{
		UserID:    t.UserID,
		TicketID:  &t.ID,
		Question:  question,
		Response:  &answer,
		HandledBy: HandledByAgent,
		CreatedAt: time.Now(),
	}
	if err := s.stores.Audit.Append(ctx, e); err != nil {
		return nil, fmt.Errorf("record agent response: %w", err)
	}
	log := e.Log()
	return &log, nil
}

func (s *Service) ListTickets(ctx context.Context, status TicketStatus, limit int) ([]Ticket, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.stores.Tickets.ListTickets(ctx, status, limit)
}

func (s *Service) UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) (*Ticket, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.stores.Tickets.UpdateTicketStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.stores.Tickets.GetTicket(ctx, id)
}

// ConversationLog returns the newest exchanges of a customer.
func (s *Service) ConversationLog(ctx context.Context, userID string, limit int) ([]ChatbotLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUserID
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.stores.Domain.RecentLogs(ctx, userID, limit)
}
