package history

import (
	"context"

	"document-qa-be/internal/constant"
	"document-qa-be/internal/pkg/crypto"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/llm"

	"github.com/google/uuid"
)

// Loader fetches recent conversation turns for prompt context.
type Loader struct {
	cipher *crypto.MessageCipher
	limit  int
}

func NewLoader(cipher *crypto.MessageCipher, limit int) *Loader {
	if limit <= 0 {
		limit = 6
	}
	return &Loader{
		cipher: cipher,
		limit:  limit,
	}
}

// Load returns the most recent turns in chronological order. Stored
// content is decrypted when possible; messages written before encryption
// was enabled pass through as-is.
func (l *Loader) Load(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{Limit: l.limit},
	)
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]

		role := "user"
		if msg.Role == constant.ChatMessageRoleAssistant {
			role = "assistant"
		}

		out = append(out, llm.Message{
			Role:    role,
			Content: l.cipher.Open(msg.Content).Text,
		})
	}

	return out, nil
}
