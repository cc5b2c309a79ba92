package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"document-qa-be/internal/dto"
	"document-qa-be/internal/entity"
	"document-qa-be/internal/pkg/logger"
	"document-qa-be/internal/repository/specification"
	"document-qa-be/internal/repository/unitofwork"
	"document-qa-be/pkg/events"

	"github.com/google/uuid"
)

const DefaultCollection = "default"

// EventPublisher is the slice of the NATS publisher the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IDocumentService interface {
	Ingest(ctx context.Context, ownerId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Show(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.GetDocumentResponse, error)
	List(ctx context.Context, ownerId uuid.UUID) ([]*dto.GetDocumentResponse, error)
	Delete(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   EventPublisher
	log              logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		log:              log,
	}
}

func (s *documentService) Ingest(ctx context.Context, ownerId uuid.UUID, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	collection := req.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:         uuid.New(),
		OwnerId:    ownerId,
		Filename:   req.Filename,
		Collection: collection,
		Status:     entity.DocumentStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgPayload := dto.IndexDocumentMessage{
		DocumentId: document.Id,
		OwnerId:    ownerId,
		Collection: collection,
		Filename:   req.Filename,
		Content:    req.Content,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	return &dto.IngestDocumentResponse{
		Id:     document.Id,
		Status: document.Status,
	}, nil
}

func (s *documentService) Show(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) (*dto.GetDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: ownerId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("document not found")
	}
	return toDocumentResponse(document), nil
}

func (s *documentService) List(ctx context.Context, ownerId uuid.UUID) ([]*dto.GetDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.OwnedBy{OwnerID: ownerId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.GetDocumentResponse, len(documents))
	for i, d := range documents {
		out[i] = toDocumentResponse(d)
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, ownerId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.OwnedBy{OwnerID: ownerId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := uow.DocumentChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		uow.Rollback()
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		err := s.eventPublisher.Publish(ctx, events.New(events.TypeDocumentDeleted, map[string]interface{}{
			"document_id": id.String(),
			"owner_id":    ownerId.String(),
		}))
		if err != nil {
			s.log.Warn("document", "publish delete event failed", map[string]interface{}{
				"document_id": id.String(),
				"error":       err.Error(),
			})
		}
	}

	return nil
}

func toDocumentResponse(d *entity.Document) *dto.GetDocumentResponse {
	return &dto.GetDocumentResponse{
		Id:         d.Id,
		Filename:   d.Filename,
		Collection: d.Collection,
		Status:     d.Status,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
