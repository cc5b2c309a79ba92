package dto

import (
	"time"

	"document-qa-be/pkg/store"

	"github.com/google/uuid"
)

type AnswerRequest struct {
	Query      string     `json:"query" validate:"required"`
	DocumentId *uuid.UUID `json:"document_id,omitempty"`
	Mode       string     `json:"mode,omitempty"`
	SessionId  *uuid.UUID `json:"session_id,omitempty"`
}

type CitationValidationDTO struct {
	Valid            int      `json:"valid"`
	Total            int      `json:"total"`
	Coverage         float64  `json:"coverage"`
	InvalidCitations []string `json:"invalid_citations"`
}

type TokenUsageDTO struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

type AnswerMetricsDTO struct {
	RetrievalTimeMs    int64                 `json:"retrieval_time_ms"`
	GenerationTimeMs   int64                 `json:"generation_time_ms"`
	TokenUsage         TokenUsageDTO         `json:"token_usage"`
	SimilarityScore    float64               `json:"similarity_score"`
	ConfidenceScore    float64               `json:"confidence_score"`
	ConfidenceCategory string                `json:"confidence_category"`
	CitationValidation CitationValidationDTO `json:"citation_validation"`
}

type AnswerResponse struct {
	Answer       string                 `json:"answer"`
	Retrieved    []store.RetrievedChunk `json:"retrieved"`
	Metrics      AnswerMetricsDTO       `json:"metrics"`
	SessionId    uuid.UUID              `json:"session_id"`
	SessionTitle string                 `json:"session_title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetSessionHistoryResponse struct {
	Id        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Retrieved []store.RetrievedChunk `json:"retrieved,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
