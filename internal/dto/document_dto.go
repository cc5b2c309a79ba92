package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	Filename   string `json:"filename" validate:"required"`
	Content    string `json:"content" validate:"required"`
	Collection string `json:"collection,omitempty"`
}

type IngestDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// IndexDocumentMessage is the queue payload for the indexing worker.
// Content rides along so the worker has no read dependency on the
// ingestion transaction.
type IndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
	OwnerId    uuid.UUID `json:"owner_id"`
	Collection string    `json:"collection"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
}

type GetDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Filename   string     `json:"filename"`
	Collection string     `json:"collection"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
