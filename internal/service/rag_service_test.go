package service

import (
	"context"
	"errors"
	"testing"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/crypto"
	"document-qa-be/internal/repository/contract"
	"document-qa-be/internal/repository/memory"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/llm"
	"document-qa-be/pkg/rag/confidence"
	"document-qa-be/pkg/rag/history"
	"document-qa-be/pkg/rag/prompt"
	"document-qa-be/pkg/rag/retrieval"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory doubles ---

type fakeDocumentRepo struct {
	findOneResult *entity.Document
}

func (f *fakeDocumentRepo) Create(ctx context.Context, d *entity.Document) error { return nil }
func (f *fakeDocumentRepo) Update(ctx context.Context, d *entity.Document) error { return nil }
func (f *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (f *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return f.findOneResult, nil
}
func (f *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeChunkRepo struct {
	results []*contract.ScoredDocumentChunk
	err     error
}

func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	return nil
}
func (f *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, ownerId uuid.UUID, documentId *uuid.UUID, collection string) ([]*contract.ScoredDocumentChunk, error) {
	return f.results, f.err
}

type fakeSessionRepo struct {
	findOneResult *entity.ChatSession
	created       []*entity.ChatSession
	updated       []*entity.ChatSession
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	f.created = append(f.created, s)
	return nil
}
func (f *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	f.updated = append(f.updated, s)
	return nil
}
func (f *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	return f.findOneResult, nil
}
func (f *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	created []*entity.ChatMessage
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	f.created = append(f.created, m)
	return nil
}
func (f *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return nil, nil
}
func (f *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return nil
}

type fakeUow struct {
	documents *fakeDocumentRepo
	chunks    *fakeChunkRepo
	sessions  *fakeSessionRepo
	messages  *fakeMessageRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }
func (f *fakeUow) DocumentRepository() contract.DocumentRepository {
	return f.documents
}
func (f *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return f.chunks
}
func (f *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return f.sessions
}
func (f *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return f.messages
}

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type stubEmbedder struct{}

func (stubEmbedder) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}
func (stubEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

type stubLLM struct {
	reply string
	usage llm.TokenUsage
	err   error
	calls int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Result, error) {
	return s.Generate(ctx, "", opts...)
}
func (s *stubLLM) Generate(ctx context.Context, p string, opts ...llm.Option) (*llm.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Result{Text: s.reply, Usage: s.usage}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func newTestService(uow *fakeUow, provider llm.LLMProvider) IRagService {
	cipher, _ := crypto.NewMessageCipher("")
	retriever := retrieval.NewRetriever(stubEmbedder{}, nil)
	loader := history.NewLoader(cipher, 6)
	return NewRagService(
		&fakeFactory{uow: uow},
		retriever,
		provider,
		loader,
		nil, // no background title generation in tests
		memory.NewSessionStateRepository(),
		cipher,
		6,
		nopLogger{},
	)
}

func chunkResult(id uuid.UUID, content string, similarity float64) *contract.ScoredDocumentChunk {
	return &contract.ScoredDocumentChunk{
		Chunk: &entity.DocumentChunk{
			Id:         id,
			DocumentId: uuid.New(),
			OwnerId:    uuid.New(),
			Content:    content,
		},
		Similarity: similarity,
	}
}

// --- tests ---

func TestAnswer_NoChunksRefusesWithoutGeneration(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	provider := &stubLLM{reply: "should never be used"}
	svc := newTestService(uow, provider)

	res, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, prompt.RefusalAnswer, res.Answer)
	assert.Equal(t, 0.0, res.Metrics.ConfidenceScore)
	assert.Equal(t, confidence.CategoryLow, res.Metrics.ConfidenceCategory)
	assert.Equal(t, 0, res.Metrics.CitationValidation.Total)
	assert.Equal(t, 0, provider.calls, "no model call on empty retrieval")

	// both turns still recorded
	require.Len(t, uow.messages.created, 2)
	assert.Equal(t, "anything", uow.messages.created[0].Content)
	assert.Equal(t, prompt.RefusalAnswer, uow.messages.created[1].Content)
}

func TestAnswer_HappyPathResolvesCitations(t *testing.T) {
	chunkId := uuid.New()
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{results: []*contract.ScoredDocumentChunk{chunkResult(chunkId, "The fee is 100.", 0.9)}},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	provider := &stubLLM{
		reply: "The fee is 100 [DOC 0].",
		usage: llm.TokenUsage{Input: 50, Output: 10, Total: 60},
	}
	svc := newTestService(uow, provider)

	res, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{Query: "what is the fee"})
	require.NoError(t, err)

	assert.Contains(t, res.Answer, "[DOC "+chunkId.String()+"]")
	assert.Equal(t, 1, res.Metrics.CitationValidation.Valid)
	assert.Equal(t, 1, res.Metrics.CitationValidation.Total)
	assert.Equal(t, 1.0, res.Metrics.CitationValidation.Coverage)
	assert.Empty(t, res.Metrics.CitationValidation.InvalidCitations)
	assert.Equal(t, 60, res.Metrics.TokenUsage.Total)
	assert.Equal(t, 0.9, res.Metrics.SimilarityScore)
	require.Len(t, res.Retrieved, 1)
	assert.Equal(t, chunkId.String(), res.Retrieved[0].ID)
}

func TestAnswer_UnsupportedAnswerReplacedWithRefusal(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{results: []*contract.ScoredDocumentChunk{chunkResult(uuid.New(), "content", 0.8)}},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	provider := &stubLLM{reply: "A confident claim with a bogus tag [DOC 4]."}
	svc := newTestService(uow, provider)

	res, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, prompt.RefusalAnswer, res.Answer)
	assert.Equal(t, 0.0, res.Metrics.CitationValidation.Coverage)
	assert.Equal(t, []string{"4"}, res.Metrics.CitationValidation.InvalidCitations)
}

func TestAnswer_UnknownSessionRejected(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{},
		sessions:  &fakeSessionRepo{findOneResult: nil},
		messages:  &fakeMessageRepo{},
	}
	svc := newTestService(uow, &stubLLM{})

	sessionId := uuid.New()
	_, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{
		Query:     "q",
		SessionId: &sessionId,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestAnswer_ForeignDocumentRejected(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{findOneResult: nil},
		chunks:    &fakeChunkRepo{},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	svc := newTestService(uow, &stubLLM{})

	docId := uuid.New()
	_, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{
		Query:      "q",
		DocumentId: &docId,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
}

func TestAnswer_GenerationFailureSurfaced(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{results: []*contract.ScoredDocumentChunk{chunkResult(uuid.New(), "content", 0.8)}},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	svc := newTestService(uow, &stubLLM{err: errors.New("model unavailable")})

	_, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{Query: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed")
	assert.Empty(t, uow.messages.created, "failed turns are not persisted")
}

func TestAnswer_NewSessionCreated(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	svc := newTestService(uow, &stubLLM{})
	owner := uuid.New()

	res, err := svc.Answer(context.Background(), owner, &dto.AnswerRequest{Query: "q"})
	require.NoError(t, err)

	require.Len(t, uow.sessions.created, 1)
	assert.Equal(t, owner, uow.sessions.created[0].OwnerId)
	assert.Equal(t, uow.sessions.created[0].Id, res.SessionId)
}

func TestAnswer_ModeSticksAcrossTurns(t *testing.T) {
	session := &entity.ChatSession{Id: uuid.New(), OwnerId: uuid.New(), Title: "t"}
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{results: []*contract.ScoredDocumentChunk{chunkResult(uuid.New(), "content", 0.8)}},
		sessions:  &fakeSessionRepo{findOneResult: session},
		messages:  &fakeMessageRepo{},
	}
	// medical mode appends its disclaimer, which we can observe
	provider := &stubLLM{reply: "The dosage is listed [DOC 0]."}
	svc := newTestService(uow, provider)

	first, err := svc.Answer(context.Background(), session.OwnerId, &dto.AnswerRequest{
		Query:     "first",
		SessionId: &session.Id,
		Mode:      "medical",
	})
	require.NoError(t, err)
	assert.Contains(t, first.Answer, "not medical advice")

	// second turn omits the mode, stickiness keeps it medical
	second, err := svc.Answer(context.Background(), session.OwnerId, &dto.AnswerRequest{
		Query:     "second",
		SessionId: &session.Id,
	})
	require.NoError(t, err)
	assert.Contains(t, second.Answer, "not medical advice")
}

func TestAnswer_RetrievalFailureDegradesToRefusal(t *testing.T) {
	uow := &fakeUow{
		documents: &fakeDocumentRepo{},
		chunks:    &fakeChunkRepo{err: errors.New("index unreachable")},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
	}
	provider := &stubLLM{reply: "should never be used"}
	svc := newTestService(uow, provider)

	res, err := svc.Answer(context.Background(), uuid.New(), &dto.AnswerRequest{Query: "anything"})
	require.NoError(t, err, "a broken index never fails the request")

	assert.Equal(t, prompt.RefusalAnswer, res.Answer)
	assert.Equal(t, 0.0, res.Metrics.ConfidenceScore)
	assert.Equal(t, 0, provider.calls)
	assert.Empty(t, res.Retrieved)
}
