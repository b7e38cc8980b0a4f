// Package chat is the hot path: it drives the conversation a candidate
// actually experiences. Each turn is stored in the recency buffer, gated
// for extraction worthiness, and answered from recent history by the
// reply oracle. Extraction itself never happens here; qualifying turns
// are handed to the dispatch queue and analyzed out of band.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quietgrove/dossier/pkg/dispatch"
	"github.com/quietgrove/dossier/pkg/extract"
	"github.com/quietgrove/dossier/pkg/oracle"
	"github.com/quietgrove/dossier/pkg/recency"
)

// DefaultSystemPrompt frames the reply oracle as an interviewer when no
// prompt is configured.
const DefaultSystemPrompt = "You are a friendly interviewer having a natural conversation with a candidate. " +
	"Ask open-ended questions about their experiences, decisions, and ways of working. " +
	"Keep replies short and conversational. Never mention that you are assessing them."

// Turn is one exchange returned to API clients.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the outcome of one handled turn.
type Result struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Queued    bool   `json:"queued"`
}

// Service coordinates the hot path for one deployment.
type Service struct {
	store  recency.Store
	queue  dispatch.Queue
	reply  oracle.CallFunc
	logger *slog.Logger
	prompt string
}

// Option configures a Service.
type Option func(*Service)

// WithSystemPrompt overrides the reply oracle's system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

// NewService creates the hot-path service.
func NewService(store recency.Store, queue dispatch.Queue, reply oracle.CallFunc, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		queue:  queue,
		reply:  reply,
		logger: logger,
		prompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HandleTurn processes one candidate message: store it, queue it for
// extraction when substantial, and produce a reply from recent history.
// Store failures are fatal to the request; a failed enqueue only costs
// extraction coverage for this turn and is logged, not surfaced.
func (s *Service) HandleTurn(ctx context.Context, sessionID, message string) (*Result, error) {
	if err := s.store.Append(ctx, sessionID, recency.RoleUser, message); err != nil {
		return nil, fmt.Errorf("storing user turn: %w", err)
	}

	queued := false
	if extract.ShouldExtract(message) {
		task := dispatch.NewTask(sessionID, message)
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.logger.Warn("enqueue failed, turn will not be analyzed",
				"session", sessionID,
				"task", task.ID,
				"error", err,
			)
		} else {
			queued = true
		}
	}

	history, err := s.store.Read(ctx, sessionID, recency.MaxTurns)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	messages := make([]oracle.Message, 0, len(history)+1)
	messages = append(messages, oracle.Message{Role: "system", Content: s.prompt})
	for _, turn := range history {
		messages = append(messages, oracle.Message{Role: turn.Role, Content: turn.Content})
	}

	reply, err := s.reply(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	if err := s.store.Append(ctx, sessionID, recency.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("storing assistant turn: %w", err)
	}

	return &Result{
		SessionID: sessionID,
		Reply:     reply,
		Queued:    queued,
	}, nil
}

// History returns the session's buffered turns, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	turns, err := s.store.Read(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = Turn{Role: t.Role, Content: t.Content}
	}

	return out, nil
}

// SessionInfo reports the buffer state for a session.
func (s *Service) SessionInfo(ctx context.Context, sessionID string) (recency.Info, error) {
	return s.store.Info(ctx, sessionID)
}

// ClearSession drops the session's buffer and reports whether it existed.
// The knowledge graph is untouched; profiling evidence outlives the
// conversation window.
func (s *Service) ClearSession(ctx context.Context, sessionID string) (bool, error) {
	return s.store.Clear(ctx, sessionID)
}
