package service

import (
	"context"
	"encoding/json"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/embedding"
	"document-qa-be/pkg/events"
	pktNats "document-qa-be/pkg/nats"
	"document-qa-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunking geometry. Overlap keeps sentence fragments readable across
// chunk boundaries.
const (
	chunkSize    = 1500
	chunkOverlap = 200
)

type IIndexingService interface {
	Consume(ctx context.Context) error
}

type indexingService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	eventPublisher    *pktNats.Publisher
	log               logger.ILogger
}

func NewIndexingService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IIndexingService {
	return &indexingService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		log:               log,
	}
}

func (s *indexingService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexingService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IndexDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.log.Error("indexing", "invalid queue payload", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages never become valid, do not retry
		return
	}

	s.log.Info("indexing", "indexing document", map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"filename":    payload.Filename,
	})

	if err := s.index(ctx, payload); err != nil {
		s.log.Error("indexing", "indexing failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		s.markFailed(ctx, payload.DocumentId)
		msg.Ack() // status records the failure, retrying the same input would fail again
		return
	}

	msg.Ack()
}

func (s *indexingService) index(ctx context.Context, payload dto.IndexDocumentMessage) error {
	pieces := utils.SplitText(payload.Content, chunkSize, chunkOverlap)

	vectors, err := s.embeddingProvider.GenerateBatch(ctx, pieces, embedding.TaskRetrievalDocument)
	if err != nil {
		return err
	}

	chunks := make([]*entity.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &entity.DocumentChunk{
			Id:             uuid.New(),
			DocumentId:     payload.DocumentId,
			OwnerId:        payload.OwnerId,
			Collection:     payload.Collection,
			Filename:       payload.Filename,
			ChunkIndex:     i,
			Content:        piece,
			EmbeddingValue: vectors[i],
		}
	}

	// Replace chunks and flip status in one transaction so a search never
	// sees a half indexed document.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, payload.DocumentId); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunks); err != nil {
		uow.Rollback()
		return err
	}

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		uow.Rollback()
		return err
	}
	if document == nil {
		// Deleted while queued, drop the work
		uow.Rollback()
		return nil
	}
	document.Status = entity.DocumentStatusIndexed
	document.ChunkCount = len(chunks)
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		uow.Rollback()
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.eventPublisher.Publish(ctx, events.New(events.TypeDocumentIndexed, map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"owner_id":    payload.OwnerId.String(),
		"chunk_count": len(chunks),
	})); err != nil {
		s.log.Warn("indexing", "publish indexed event failed", map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
	}

	return nil
}

func (s *indexingService) markFailed(ctx context.Context, documentId uuid.UUID) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: documentId})
	if err != nil || document == nil {
		return
	}
	document.Status = entity.DocumentStatusFailed
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		s.log.Warn("indexing", "could not mark document failed", map[string]interface{}{
			"document_id": documentId.String(),
			"error":       err.Error(),
		})
	}
}
