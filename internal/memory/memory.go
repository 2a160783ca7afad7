// Package memory keeps per-user conversation context and personas so that
// chat requests pick up where earlier ones left off. State lives in the
// cache backend, so it survives restarts when Redis is configured and
// degrades to process-local history otherwise.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nocturne-ai/aria/internal/store/cache"
	"github.com/nocturne-ai/aria/pkg/api"
)

const (
	// DefaultPersona is used for users who never set one.
	DefaultPersona = "a helpful assistant"

	// maxStored caps the history kept per user.
	maxStored = 50

	// maxRecalled is how many of the most recent exchanges are folded
	// into the system message.
	maxRecalled = 5

	historyTTL = 30 * 24 * time.Hour
)

// Exchange is one remembered user/assistant round trip.
type Exchange struct {
	UserMessage string    `json:"user_message"`
	Assistant   string    `json:"assistant_response"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
}

// Service personalizes chat requests and records completed exchanges.
type Service struct {
	cache  cache.CacheService
	logger *zap.Logger
}

func NewService(c cache.CacheService, logger *zap.Logger) *Service {
	return &Service{cache: c, logger: logger}
}

func historyKey(userID string) string { return "memory:history:" + userID }
func personaKey(userID string) string { return "memory:persona:" + userID }

// Personalize returns a copy of messages with a system prompt carrying the
// user's persona and their most recent exchanges. Messages are returned
// unchanged when userID is empty.
func (s *Service) Personalize(ctx context.Context, userID string, messages []api.ChatMessage) []api.ChatMessage {
	if userID == "" {
		return messages
	}

	persona := s.Persona(ctx, userID)
	recent := s.recall(ctx, userID)

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", persona)
	if len(recent) > 0 {
		b.WriteString("\n\nRecent conversation context:\n")
		for _, ex := range recent {
			if ex.UserMessage != "" {
				fmt.Fprintf(&b, "User: %s\n", ex.UserMessage)
			}
			if ex.Assistant != "" {
				fmt.Fprintf(&b, "Assistant: %s\n", ex.Assistant)
			}
		}
	}

	out := make([]api.ChatMessage, 0, len(messages)+1)

	// Fold the context into an existing leading system message rather
	// than sending two of them.
	if len(messages) > 0 && messages[0].Role == "system" {
		out = append(out, api.ChatMessage{
			Role:    "system",
			Content: b.String() + "\n\n" + messages[0].Content,
		})
		out = append(out, messages[1:]...)
		return out
	}

	out = append(out, api.ChatMessage{Role: "system", Content: b.String()})
	out = append(out, messages...)
	return out
}

// Remember appends one completed exchange to the user's history, keeping
// only the most recent entries. Failures are logged, never returned: memory
// is an enhancement, not a dependency.
//
// The read-append-write below is not atomic. Concurrent chats for the same
// user race and the last write wins, which can drop an exchange. History is
// best-effort recall, not a ledger, so a lost entry is tolerated.
func (s *Service) Remember(ctx context.Context, userID string, messages []api.ChatMessage, assistant, provider, model string) {
	if userID == "" {
		return
	}

	var userMsg string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			userMsg = messages[i].Content
			break
		}
	}

	history := s.history(ctx, userID)
	history = append(history, Exchange{
		UserMessage: userMsg,
		Assistant:   assistant,
		Provider:    provider,
		Model:       model,
		Timestamp:   time.Now().UTC(),
	})
	if len(history) > maxStored {
		history = history[len(history)-maxStored:]
	}

	if err := s.cache.Set(ctx, historyKey(userID), history, historyTTL); err != nil {
		s.logger.Warn("Failed to store user memory",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// Persona returns the user's persona, or the default when none is set.
func (s *Service) Persona(ctx context.Context, userID string) string {
	var persona string
	if err := s.cache.Get(ctx, personaKey(userID), &persona); err != nil || persona == "" {
		return DefaultPersona
	}
	return persona
}

// SetPersona stores the persona used to open every chat for this user.
func (s *Service) SetPersona(ctx context.Context, userID, persona string) error {
	if err := s.cache.Set(ctx, personaKey(userID), persona, 0); err != nil {
		return fmt.Errorf("set persona: %w", err)
	}
	s.logger.Info("Set user persona",
		zap.String("user_id", userID),
		zap.String("persona", persona),
	)
	return nil
}

// Forget drops a user's history and persona.
func (s *Service) Forget(ctx context.Context, userID string) error {
	if err := s.cache.Delete(ctx, historyKey(userID)); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if err := s.cache.Delete(ctx, personaKey(userID)); err != nil {
		return fmt.Errorf("delete persona: %w", err)
	}
	return nil
}

func (s *Service) history(ctx context.Context, userID string) []Exchange {
	var history []Exchange
	if err := s.cache.Get(ctx, historyKey(userID), &history); err != nil {
		if err != cache.ErrMiss {
			s.logger.Warn("Failed to load user memory",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		return nil
	}
	return history
}

func (s *Service) recall(ctx context.Context, userID string) []Exchange {
	history := s.history(ctx, userID)
	if len(history) > maxRecalled {
		history = history[len(history)-maxRecalled:]
	}
	return history
}
