package store

// ChunkMetadata carries the provenance of a retrieved chunk. It is what
// gets persisted alongside an assistant message and echoed back to clients.
type ChunkMetadata struct {
	OwnerID    string `json:"owner_id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename"`
}

// RetrievedChunk is a unit of retrieved context. Score is cosine similarity
// in [0, 1], higher is closer.
type RetrievedChunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SessionState is the volatile per-session state kept in memory. It sticks
// the answering mode and document scope of the first query so follow-ups
// stay consistent even when the client omits them.
type SessionState struct {
	ID         string `json:"id"` // ChatSessionID
	OwnerID    string `json:"owner_id"`
	Mode       string `json:"mode"`
	DocumentID string `json:"document_id"` // empty when the session is collection scoped
	LastQuery  string `json:"last_query"`
}
