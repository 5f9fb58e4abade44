package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/logger"
)

// Session keeps a running conversation with one ChatAPI.
type Session struct {
	ID string

	api     ChatAPI
	log     *logger.Logger
	mu      sync.Mutex
	history []llm.Message
}

// NewSession starts a conversation. A non-empty system prompt opens the
// history as the provider's assistant message.
func NewSession(api ChatAPI, system string) *Session {
	s := &Session{
		ID:  uuid.NewString(),
		api: api,
		log: logger.GetGlobalLogger().WithComponent("session"),
	}
	if system != "" {
		s.history = append(s.history, api.AssistantMessage(system))
	}
	return s
}

// Ask sends prompt with the history so far and records the first reply.
// On failure the history is left unchanged.
func (s *Session) Ask(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", apperrors.MissingField("prompt")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = logger.ContextWithSessionID(ctx, s.ID)
	conversation := append(append([]llm.Message(nil), s.history...), s.api.UserMessage(prompt))

	replies, err := s.api.SendMessage(ctx, conversation, 1)
	if err != nil {
		return "", err
	}
	if len(replies) == 0 {
		return "", apperrors.MalformedResponse(s.api.Name(), 1)
	}

	reply := replies[0]
	s.history = append(conversation, llm.Message{Role: llm.RoleAssistant, Content: reply})
	s.log.WithContext(ctx).Debug("session turn", logger.Fields("turns", len(s.history)))
	return reply, nil
}

// History returns a copy of the conversation.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}
