package title

import (
	"context"
	"strings"
	"time"

	"document-qa-be/internal/pkg/crypto"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/events"
	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/nats"

	"github.com/google/uuid"
)

// Generator produces a short session title from the opening query.
// Generation runs in the background so the answer response never waits
// on a second model call.
type Generator struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.LLMProvider
	cipher     *crypto.MessageCipher
	publisher  *nats.Publisher
	log        logger.ILogger
}

func NewGenerator(uowFactory unitofwork.RepositoryFactory, provider llm.LLMProvider, cipher *crypto.MessageCipher, publisher *nats.Publisher, log logger.ILogger) *Generator {
	return &Generator{
		uowFactory: uowFactory,
		provider:   provider,
		cipher:     cipher,
		publisher:  publisher,
		log:        log,
	}
}

// GenerateAsync kicks off title generation for a session. It detaches
// from the request context so a finished request does not cancel it.
func (g *Generator) GenerateAsync(sessionId uuid.UUID, ownerId uuid.UUID, query string) {
	if g == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := g.generate(ctx, sessionId, ownerId, query); err != nil {
			g.log.Warn("title", "title generation failed", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      err.Error(),
			})
		}
	}()
}

func (g *Generator) generate(ctx context.Context, sessionId uuid.UUID, ownerId uuid.UUID, query string) error {
	title := g.draft(ctx, query)

	sealed, err := g.cipher.Seal(title)
	if err != nil {
		return err
	}

	uow := g.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedBy{OwnerID: ownerId},
	)
	if err != nil {
		uow.Rollback()
		return err
	}
	if session == nil {
		uow.Rollback()
		return nil
	}

	session.Title = sealed
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := g.publisher.Publish(ctx, events.New(events.TypeSessionTitleUpdated, map[string]interface{}{
		"session_id": sessionId.String(),
		"owner_id":   ownerId.String(),
		"title":      title,
	})); err != nil {
		g.log.Warn("title", "publish title event failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	return nil
}

// draft asks the model for a short label, falling back to a truncated
// query when the model is unavailable.
func (g *Generator) draft(ctx context.Context, query string) string {
	prompt := "Write a title of at most six words for a conversation that starts with the question below. " +
		"Reply with the title only, no quotes.\n\nQuestion: " + query
	result, err := g.provider.Generate(ctx, prompt, llm.WithTemperature(0.3), llm.WithMaxTokens(20))
	if err == nil {
		if title := sanitize(result.Text); title != "" {
			return title
		}
	}

	return fallbackTitle(query)
}

func sanitize(raw string) string {
	title := strings.TrimSpace(raw)
	title = strings.Trim(title, `"'`)
	title = strings.ReplaceAll(title, "\n", " ")
	if len(title) > 80 {
		title = title[:80]
	}
	return strings.TrimSpace(title)
}

func fallbackTitle(query string) string {
	words := strings.Fields(query)
	if len(words) > 8 {
		words = words[:8]
	}
	title := strings.Join(words, " ")
	if title == "" {
		return "Unnamed session"
	}
	return title
}
