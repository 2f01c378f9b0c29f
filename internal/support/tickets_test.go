package support

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateTicket(t *testing.T) {
	svc, db := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	tk, err := svc.CreateTicket(ctx, "u1", "Payment", "my payment failed twice")
	require.NoError(t, err)
	assert.Len(t, tk.ID, 26)
	assert.Equal(t, TicketOpen, tk.Status)
	assert.Equal(t, PriorityHigh, tk.Priority)

	var logs []ChatbotLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, ticketCreatedMessage, *logs[0].Response)
	assert.Equal(t, tk.ID, *logs[0].TicketID)

	_, err = svc.CreateTicket(ctx, "u1", "", " ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestCreateTicket_PriorityFromMessageOnly(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})

	tk, err := svc.CreateTicket(context.Background(), "u1", "Urgent: app crash", "how to export my invoices")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, tk.Priority)
	assert.Equal(t, "Urgent: app crash", tk.Subject)
}

func TestRecordAgentResponse(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	tk, err := svc.CreateTicket(ctx, "u1", "", "where can I find my invoice")
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, tk.Priority)

	l, err := svc.RecordAgentResponse(ctx, tk.ID, "", "It is in your account page.")
	require.NoError(t, err)
	assert.Equal(t, HandledByAgent, l.HandledBy)
	assert.Equal(t, defaultAgentQuestion, l.Question)
	assert.Equal(t, "u1", l.UserID)

	logs, err := svc.ConversationLog(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = svc.RecordAgentResponse(ctx, "missing", "", "x")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecordAgentResponse_AuditFailureReturned(t *testing.T) {
	db := openTestDB(t)
	repo := NewRepo(db)
	stores := repo.Stores()
	stores.Audit = failingAudit{}
	svc := NewService(stores, &fakeProvider{}, Config{})
	ctx := context.Background()

	tk, err := svc.CreateTicket(ctx, "u1", "s", "m")
	require.NoError(t, err)

	_, err = svc.RecordAgentResponse(ctx, tk.ID, "q", "a")
	assert.Error(t, err)
}

func TestTicketStatus(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	a, err := svc.CreateTicket(ctx, "u1", "a", "first")
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, "u2", "b", "second")
	require.NoError(t, err)

	updated, err := svc.UpdateTicketStatus(ctx, a.ID, TicketClosed)
	require.NoError(t, err)
	assert.Equal(t, TicketClosed, updated.Status)

	closed, err := svc.ListTickets(ctx, TicketClosed, 0)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, a.ID, closed[0].ID)

	all, err := svc.ListTickets(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListTickets(ctx, "bogus", 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateTicketStatus(ctx, a.ID, "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateTicketStatus(ctx, "nope", TicketOpen)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
