package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1kken/SideKickCX/internal/assistant"
	"github.com/1kken/SideKickCX/internal/observability"
	"github.com/1kken/SideKickCX/internal/sse"
)

type Config struct {
	Model   string
	Limits  Limits
	Matcher Matcher
	Metrics *observability.Metrics
}

type Service struct {
	stores    Stores
	provider  assistant.Provider
	tracker   *Tracker
	assembler *Assembler
	model     string
	metrics   *observability.Metrics
}

func NewService(stores Stores, provider assistant.Provider, cfg Config) *Service {
	return &Service{
		stores:    stores,
		provider:  provider,
		tracker:   NewTracker(stores.Interactions, cfg.Matcher),
		assembler: NewAssembler(stores.Domain, cfg.Limits),
		model:     cfg.Model,
		metrics:   cfg.Metrics,
	}
}

type Request struct {
	UserID   string
	Message  string
	TicketID string
	// History holds earlier turns of the same conversation, oldest first.
	History []assistant.Turn
}

type Reply struct {
	Response        string
	Priority        Priority
	RepetitionCount int
	HighRepetition  bool
	SuggestTicket   bool
	TicketID        string
	Summary         string
	// Handoff is set when the message belongs to a ticket and was routed to an
	// agent; Response is empty in that case.
	Handoff bool
}

func (r Request) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingUserID
	}
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	// system turns come only from the assembler, and only first
	for i, t := range r.History {
		if t.Role != assistant.RoleUser && t.Role != assistant.RoleAssistant {
			return fmt.Errorf("%w: history turn %d has role %q", assistant.ErrInvalidTurn, i, t.Role)
		}
	}
	return nil
}

// prepared is the state of a request after classification and enrichment.
type prepared struct {
	priority Priority
	rep      Repetition
	turns    []assistant.Turn
}

func (s *Service) prepare(ctx context.Context, req Request) (prepared, error) {
	p := prepared{
		priority: Classify(req.Message),
		rep:      s.tracker.Track(ctx, req.UserID, req.Message),
	}

	turns := make([]assistant.Turn, 0, len(req.History)+2)
	if p.rep.High {
		s.metrics.ObserveRepeated()
		bundle := s.assembler.Assemble(ctx, req.UserID)
		turns = append(turns, assistant.Turn{Role: assistant.RoleSystem, Content: SystemPrompt(p.rep, bundle)})
	}
	turns = append(turns, req.History...)
	turns = append(turns, assistant.Turn{Role: assistant.RoleUser, Content: req.Message})

	if err := assistant.ValidateTurns(turns); err != nil {
		return prepared{}, err
	}
	p.turns = turns
	return p, nil
}

// handoff records a ticketed message for an agent and skips the assistant.
func (s *Service) handoff(ctx context.Context, req Request) (*Reply, error) {
	ticketID := req.TicketID
	err := s.stores.Audit.Append(ctx, Entry{
		UserID:    req.UserID,
		TicketID:  &ticketID,
		Question:  req.Message,
		HandledBy: HandledByAgent,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("record ticket message: %w", err)
	}
	return &Reply{
		Priority: PriorityMedium,
		TicketID: ticketID,
		Summary:  Summarize(req.Message, ""),
		Handoff:  true,
	}, nil
}

func (s *Service) finish(ctx context.Context, req Request, p prepared, content string, suggest bool) *Reply {
	s.audit(ctx, Entry{
		UserID:    req.UserID,
		Question:  req.Message,
		Response:  &content,
		HandledBy: HandledByChatbot,
		CreatedAt: time.Now(),
	})
	return &Reply{
		Response:        content,
		Priority:        p.priority,
		RepetitionCount: p.rep.Count,
		HighRepetition:  p.rep.High,
		SuggestTicket:   suggest,
		Summary:         Summarize(req.Message, content),
	}
}

// audit writes best-effort; a failure never affects the reply.
func (s *Service) audit(ctx context.Context, e Entry) {
	if err := s.stores.Audit.Append(ctx, e); err != nil {
		s.metrics.ObserveAuditFailure()
		slog.Warn("audit log append failed", "user_id", e.UserID, "handled_by", e.HandledBy, "error", err)
	}
}

// Reply answers a customer message with a single completion call.
func (s *Service) Reply(ctx context.Context, req Request) (*Reply, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.TicketID != "" {
		return s.handoff(ctx, req)
	}

	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.provider.Complete(ctx, p.turns, assistant.Options{Model: s.model})
	s.metrics.ObserveCompletion("complete", time.Since(start), err)
	if err != nil {
		slog.Error("completion failed", "user_id", req.UserID, "priority", p.priority, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	s.metrics.ObserveChat(string(p.priority), "complete")

	content, suggest := Augment(p.priority, p.rep.Count, orFallback(res.Content))
	return s.finish(ctx, req, p, content, suggest), nil
}

type sinkError struct{ err error }

func (e *sinkError) Error() string { return e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

// ReplyStream answers like Reply but hands text to onDelta as it arrives. The
// augmentation note, when any, is delivered as the final delta. Providers
// without streaming support are called once and their answer sent as one delta.
// An error from onDelta stops the stream and is returned unchanged.
func (s *Service) ReplyStream(ctx context.Context, req Request, onDelta func(string) error) (*Reply, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.TicketID != "" {
		return s.handoff(ctx, req)
	}

	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.stream(ctx, p.turns, onDelta)
	s.metrics.ObserveCompletion("stream", time.Since(start), err)
	if err != nil {
		var se *sinkError
		if errors.As(err, &se) {
			return nil, se.err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Error("completion stream failed", "user_id", req.UserID, "priority", p.priority, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	s.metrics.ObserveChat(string(p.priority), "stream")

	if strings.TrimSpace(text) == "" {
		text = EmptyResponseFallback
		if err := onDelta(text); err != nil {
			return nil, err
		}
	}

	suffix, suggest := augmentSuffix(p.priority, p.rep.Count)
	if suffix != "" {
		if err := onDelta(suffix); err != nil {
			return nil, err
		}
	}
	return s.finish(ctx, req, p, text+suffix, suggest), nil
}

func (s *Service) stream(ctx context.Context, turns []assistant.Turn, onDelta func(string) error) (string, error) {
	opts := assistant.Options{Model: s.model, Stream: true}

	sp, ok := s.provider.(assistant.StreamProvider)
	if !ok {
		res, err := s.provider.Complete(ctx, turns, opts)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(res.Content) == "" {
			return "", nil
		}
		if err := onDelta(res.Content); err != nil {
			return "", &sinkError{err}
		}
		return res.Content, nil
	}

	src, err := sp.Stream(ctx, turns, opts)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	dec := sse.Decoder{OnParseError: func(string, error) { s.metrics.ObserveParseError() }}
	_, err = dec.Decode(ctx, src, func(ev sse.Event) error {
		delta := assistant.DeltaText(ev.Data)
		if delta == "" {
			return nil
		}
		b.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return &sinkError{err}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
