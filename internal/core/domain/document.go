package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID             string                 `json:"id"`
	Filename       string                 `json:"filename"`
	MimeType       string                 `json:"mime_type"`
	StoragePath    string                 `json:"storage_path"`
	Classification DocumentClassification `json:"classification"`
	Status         DocumentStatus         `json:"status"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// AnalyzedChunk is one post-split chunk together with its content analysis,
// ready for embedding and indexing.
type AnalyzedChunk struct {
	Index    int           `json:"index"`
	Text     string        `json:"text"`
	Analysis ChunkAnalysis `json:"analysis"`
}
