package support

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repetition reports how many times a user has asked a question.
type Repetition struct {
	Count int
	High  bool
}

// HighRepetitionThreshold is exclusive: a count above it is high.
const HighRepetitionThreshold = 2

const summaryLength = 50

type Tracker struct {
	store   InteractionStore
	matcher Matcher
	now     func() time.Time
}

func NewTracker(store InteractionStore, matcher Matcher) *Tracker {
	if matcher == nil {
		matcher = PrefixMatcher{Length: DefaultFingerprintLength}
	}
	return &Tracker{store: store, matcher: matcher, now: time.Now}
}

// Track bumps the count of a matching record or inserts a new one. Store
// failures never propagate; they degrade to a first-time question.
//
// The lookup and the write are separate calls, so two concurrent requests for
// the same question may both read count N and both write N+1.
func (t *Tracker) Track(ctx context.Context, userID, question string) Repetition {
	fp := t.matcher.Fingerprint(question)
	now := t.now()

	candidates, err := t.store.FindByUserAndFingerprint(ctx, userID, fp)
	if err != nil {
		slog.Warn("repetition lookup failed", "user_id", userID, "error", err)
		return Repetition{Count: 1}
	}

	for _, c := range candidates {
		if !t.matcher.Similar(fp, c.QuestionText) {
			continue
		}
		count := c.RepetitionCount + 1
		if err := t.store.Update(ctx, c.ID, InteractionPatch{RepetitionCount: count, LastAsked: now}); err != nil {
			slog.Warn("repetition update failed", "user_id", userID, "interaction_id", c.ID, "error", err)
			return Repetition{Count: 1}
		}
		return Repetition{Count: count, High: count > HighRepetitionThreshold}
	}

	rec := &Interaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		QuestionText:    question,
		RepetitionCount: 1,
		LastAsked:       now,
		Summary:         truncateRunes(question, summaryLength),
		CreatedAt:       now,
	}
	if err := t.store.Insert(ctx, rec); err != nil {
		slog.Warn("repetition insert failed", "user_id", userID, "error", err)
	}
	return Repetition{Count: 1}
}
