package support

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repo is the gorm-backed implementation of every store port.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Stores wires the repo into every port. Audit may be swapped for a queue.
func (r *Repo) Stores() Stores {
	return Stores{Interactions: r, Domain: r, Audit: r, Tickets: r}
}

// FindByUserAndFingerprint is a coarse LIKE filter over the lowercased
// question; the fingerprint is not escaped, so % and _ inside it act as
// wildcards.
func (r *Repo) FindByUserAndFingerprint(ctx context.Context, userID, fingerprint string) ([]Interaction, error) {
	var recs []Interaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_key LIKE ?", userID, "%"+strings.ToLower(fingerprint)+"%").
		Order("last_asked DESC").
		Limit(10).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) Insert(ctx context.Context, rec *Interaction) error {
	rec.QuestionKey = strings.ToLower(rec.QuestionText)
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *Repo) Update(ctx context.Context, id string, patch InteractionPatch) error {
	res := r.db.WithContext(ctx).Model(&Interaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"repetition_count": patch.RepetitionCount,
			"last_asked":       patch.LastAsked,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) Products(ctx context.Context, limit int) ([]Product, error) {
	var ps []Product
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

// OrdersByUser returns the newest orders with their items and shipping rows.
func (r *Repo) OrdersByUser(ctx context.Context, userID string, limit int) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Shipping").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// RecentLogs returns logs in DESC order (newest -> oldest).
func (r *Repo) RecentLogs(ctx context.Context, userID string, limit int) ([]ChatbotLog, error) {
	var logs []ChatbotLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *Repo) Append(ctx context.Context, e Entry) error {
	l := e.Log()
	return r.db.WithContext(ctx).Create(&l).Error
}

func (r *Repo) CreateTicket(ctx context.Context, t *Ticket) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	var t Ticket
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) ListTickets(ctx context.Context, status TicketStatus, limit int) ([]Ticket, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var ts []Ticket
	if err := q.Find(&ts).Error; err != nil {
		return nil, err
	}
	return ts, nil
}

func (r *Repo) UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) error {
	res := r.db.WithContext(ctx).Model(&Ticket{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// mysql reports zero rows when the status did not change
		_, err := r.GetTicket(ctx, id)
		return err
	}
	return nil
}
