package ports

import (
	"context"
	"io"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.DocumentClassification) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// DocumentClassifier classifies a whole document from its text and filename.
// Implementations must degrade to the all-unknown default record instead of
// failing on degenerate input.
type DocumentClassifier interface {
	Classify(ctx context.Context, text, filename string) (domain.DocumentClassification, error)
}

// ContentAnalyzer tags one post-split chunk with content-type signals.
// Pure and synchronous; safe to call concurrently.
type ContentAnalyzer interface {
	Analyze(text string) domain.ChunkAnalysis
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorStore indexes analyzed chunks with their classification metadata and
// performs semantic search over them.
type VectorStore interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.AnalyzedChunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
}

// AnswerGenerator creates the final user-facing answer. The query
// classification is passed through so the prompt can adapt tone and structure
// to the inferred intent.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, query domain.QueryClassification, chunks []domain.RetrievedChunk) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}
