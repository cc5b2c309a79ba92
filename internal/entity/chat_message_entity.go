package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Content       string
	RetrievedDocs []byte // JSON snapshot of retrieved chunks, assistant turns only
	CreatedAt     time.Time
}
