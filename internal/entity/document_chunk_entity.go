package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded slice of a document. OwnerId and
// Collection are denormalized onto the chunk so vector search can
// filter without joining.
type DocumentChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	OwnerId        uuid.UUID
	Collection     string
	Filename       string
	ChunkIndex     int
	Content        string
	EmbeddingValue []float32
	CreatedAt      time.Time
}
