package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"document-qa-be/internal/constant"
	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/crypto"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/memory"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/rag/citation"
	"document-qa-be/pkg/rag/confidence"
	"document-qa-be/pkg/rag/history"
	"document-qa-be/pkg/rag/prompt"
	"document-qa-be/pkg/rag/retrieval"
	"document-qa-be/pkg/rag/strategy"
	"document-qa-be/pkg/rag/title"
	"document-qa-be/pkg/store"

	"github.com/google/uuid"
)

type IRagService interface {
	Answer(ctx context.Context, ownerId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error)
	GetAllSessions(ctx context.Context, ownerId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetSessionHistory(ctx context.Context, ownerId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetSessionHistoryResponse, error)
	DeleteSession(ctx context.Context, ownerId uuid.UUID, sessionId uuid.UUID) error
}

type ragService struct {
	uowFactory     unitofwork.RepositoryFactory
	retriever      *retrieval.Retriever
	llmProvider    llm.LLMProvider
	citationEngine *citation.Engine
	scorer         *confidence.Scorer
	historyLoader  *history.Loader
	titleGenerator *title.Generator
	stateRepo      *memory.SessionStateRepository
	cipher         *crypto.MessageCipher
	topK           int
	log            logger.ILogger
}

func NewRagService(
	uowFactory unitofwork.RepositoryFactory,
	retriever *retrieval.Retriever,
	llmProvider llm.LLMProvider,
	historyLoader *history.Loader,
	titleGenerator *title.Generator,
	stateRepo *memory.SessionStateRepository,
	cipher *crypto.MessageCipher,
	topK int,
	log logger.ILogger,
) IRagService {
	if topK <= 0 {
		topK = 6
	}
	return &ragService{
		uowFactory:     uowFactory,
		retriever:      retriever,
		llmProvider:    llmProvider,
		citationEngine: citation.NewEngine(),
		scorer:         confidence.NewScorer(),
		historyLoader:  historyLoader,
		titleGenerator: titleGenerator,
		stateRepo:      stateRepo,
		cipher:         cipher,
		topK:           topK,
		log:            log,
	}
}

func (s *ragService) Answer(ctx context.Context, ownerId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, isNewSession, err := s.resolveSession(ctx, uow, ownerId, req.SessionId)
	if err != nil {
		return nil, err
	}

	profile, documentId := s.resolveScope(session.Id, ownerId, req)

	if documentId != nil {
		document, err := uow.DocumentRepository().FindOne(ctx,
			specification.ByID{ID: *documentId},
			specification.OwnedBy{OwnerID: ownerId},
		)
		if err != nil {
			return nil, err
		}
		if document == nil {
			// Same answer whether the document belongs to someone else or
			// does not exist at all.
			return nil, fmt.Errorf("document not found")
		}
	}

	var turns []llm.Message
	if !isNewSession {
		turns, err = s.historyLoader.Load(ctx, uow, session.Id)
		if err != nil {
			return nil, err
		}
	}

	retrievalStart := time.Now()
	chunks, err := s.retriever.Retrieve(ctx, uow.DocumentChunkRepository(), retrieval.Params{
		OwnerId:         ownerId,
		Query:           req.Query,
		DocumentId:      documentId,
		Collection:      DefaultCollection,
		TopK:            s.topK,
		UseQueryRewrite: profile.UseQueryRewrite,
	})
	if err != nil {
		// A broken index or embedder degrades to the "no documents"
		// refusal path, it never fails the request.
		s.log.Warn("rag", "retrieval failed, answering without documents", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		chunks = nil
	}
	retrievalMs := time.Since(retrievalStart).Milliseconds()

	s.log.Info("rag", "Retrieval complete", map[string]interface{}{
		"session_id":   session.Id.String(),
		"mode":         profile.Key,
		"chunks":       len(chunks),
		"retrieval_ms": retrievalMs,
	})

	var (
		answer       string
		usage        llm.TokenUsage
		generationMs int64
		validation   citation.Validation
		score        confidence.Score
	)

	if len(chunks) == 0 {
		// Nothing to ground an answer in, refuse without a model call
		answer = prompt.RefusalAnswer
		score = confidence.Score{Value: 0, Category: confidence.CategoryLow}
	} else {
		builder := prompt.NewContextBuilder(profile, req.Query, chunks, turns)

		generationStart := time.Now()
		result, err := s.llmProvider.Generate(ctx, builder.Build(), llm.WithTemperature(profile.Temperature))
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		generationMs = time.Since(generationStart).Milliseconds()
		usage = result.Usage

		aliases := citation.NewAliasMap(chunks)
		outcome := s.citationEngine.Process(result.Text, aliases, profile)
		answer = outcome.Answer
		validation = outcome.Validation

		answer = s.postprocess(answer, profile, outcome.Refusal)

		score = s.scorer.Calculate(confidence.Inputs{
			Query:            req.Query,
			Answer:           answer,
			Chunks:           chunks,
			CitationCoverage: validation.Coverage,
		})

		s.log.Info("rag", "Answer scored", map[string]interface{}{
			"session_id": session.Id.String(),
			"accepted":   outcome.Accepted,
			"citations":  validation.Total,
			"coverage":   validation.Coverage,
			"confidence": score.Value,
		})
	}

	if err := s.persistTurn(ctx, uow, session, req.Query, answer, chunks); err != nil {
		return nil, err
	}

	if isNewSession {
		s.titleGenerator.GenerateAsync(session.Id, ownerId, req.Query)
	}

	similarity := 0.0
	if len(chunks) > 0 {
		similarity = chunks[0].Score
	}

	return &dto.AnswerResponse{
		Answer:    answer,
		Retrieved: chunks,
		Metrics: dto.AnswerMetricsDTO{
			RetrievalTimeMs:  retrievalMs,
			GenerationTimeMs: generationMs,
			TokenUsage: dto.TokenUsageDTO{
				Input:  usage.Input,
				Output: usage.Output,
				Total:  usage.Total,
			},
			SimilarityScore:    similarity,
			ConfidenceScore:    score.Value,
			ConfidenceCategory: score.Category,
			CitationValidation: dto.CitationValidationDTO{
				Valid:            validation.Valid,
				Total:            validation.Total,
				Coverage:         validation.Coverage,
				InvalidCitations: validation.InvalidCitations,
			},
		},
		SessionId:    session.Id,
		SessionTitle: s.cipher.Open(session.Title).Text,
	}, nil
}

// resolveSession loads an owned session or creates a fresh one.
func (s *ragService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, ownerId uuid.UUID, sessionId *uuid.UUID) (*entity.ChatSession, bool, error) {
	if sessionId != nil {
		session, err := uow.ChatSessionRepository().FindOne(ctx,
			specification.ByID{ID: *sessionId},
			specification.OwnedBy{OwnerID: ownerId},
		)
		if err != nil {
			return nil, false, err
		}
		if session == nil {
			return nil, false, fmt.Errorf("session not found")
		}
		return session, false, nil
	}

	session := entity.ChatSession{
		Id:        uuid.New(),
		OwnerId:   ownerId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

// resolveScope works out the effective mode and document scope for this
// turn. The first turn of a session pins both; later turns inherit them
// unless the request overrides explicitly.
func (s *ragService) resolveScope(sessionId uuid.UUID, ownerId uuid.UUID, req *dto.AnswerRequest) (strategy.Profile, *uuid.UUID) {
	mode := req.Mode
	documentId := req.DocumentId

	state, found := s.stateRepo.Get(sessionId.String())
	if found {
		if mode == "" {
			mode = state.Mode
		}
		if documentId == nil && state.DocumentID != "" {
			if parsed, err := uuid.Parse(state.DocumentID); err == nil {
				documentId = &parsed
			}
		}
	}

	profile := strategy.Resolve(mode)

	newState := &store.SessionState{
		ID:        sessionId.String(),
		OwnerID:   ownerId.String(),
		Mode:      profile.Key,
		LastQuery: req.Query,
	}
	if documentId != nil {
		newState.DocumentID = documentId.String()
	}
	s.stateRepo.Save(newState)

	return profile, documentId
}

// postprocess applies the profile's display rules to an accepted answer.
func (s *ragService) postprocess(answer string, profile strategy.Profile, refusal bool) string {
	if refusal {
		return answer
	}
	if profile.NormalizeSourceTags {
		answer = citation.NormalizeSourceTags(answer)
	}
	if profile.Disclaimer != "" && !strings.Contains(answer, profile.Disclaimer) {
		answer = answer + "\n\n" + profile.Disclaimer
	}
	return answer
}

// persistTurn writes the user query and assistant answer in one
// transaction, with the retrieved chunks snapshotted on the answer.
func (s *ragService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.ChatSession, query, answer string, chunks []store.RetrievedChunk) error {
	sealedQuery, err := s.cipher.Seal(query)
	if err != nil {
		return err
	}
	sealedAnswer, err := s.cipher.Seal(answer)
	if err != nil {
		return err
	}

	retrievedJson, err := json.Marshal(chunks)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}

	userMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleUser,
		Content:       sealedQuery,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userMessage); err != nil {
		uow.Rollback()
		return err
	}

	assistantMessage := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       sealedAnswer,
		RetrievedDocs: retrievedJson,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantMessage); err != nil {
		uow.Rollback()
		return err
	}

	now := time.Now()
	session.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		uow.Rollback()
		return err
	}

	return uow.Commit()
}

func (s *ragService) GetAllSessions(ctx context.Context, ownerId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedBy{OwnerID: ownerId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetAllSessionsResponse, len(sessions))
	for i, session := range sessions {
		out[i] = &dto.GetAllSessionsResponse{
			Id:        session.Id,
			Title:     s.cipher.Open(session.Title).Text,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return out, nil
}

func (s *ragService) GetSessionHistory(ctx context.Context, ownerId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetSessionHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedBy{OwnerID: ownerId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetSessionHistoryResponse, len(messages))
	for i, msg := range messages {
		var retrieved []store.RetrievedChunk
		if len(msg.RetrievedDocs) > 0 {
			if err := json.Unmarshal(msg.RetrievedDocs, &retrieved); err != nil {
				s.log.Warn("rag", "corrupt retrieved docs snapshot", map[string]interface{}{
					"message_id": msg.Id.String(),
				})
			}
		}
		out[i] = &dto.GetSessionHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   s.cipher.Open(msg.Content).Text,
			Retrieved: retrieved,
			CreatedAt: msg.CreatedAt,
		}
	}
	return out, nil
}

func (s *ragService) DeleteSession(ctx context.Context, ownerId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedBy{OwnerID: ownerId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.stateRepo.Delete(sessionId.String())
	return nil
}
