package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id        uuid.UUID
	OwnerId   uuid.UUID
	Title     string // encrypted at rest when a cipher key is configured
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}
