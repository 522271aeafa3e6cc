package usecase

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	docs            map[string]*domain.Document
	createErr       error
	statuses        []domain.DocumentStatus
	lastError       string
	classifications map[string]domain.DocumentClassification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:            map[string]*domain.Document{},
		classifications: map[string]domain.DocumentClassification{},
	}
}

func (r *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.statuses = append(r.statuses, status)
	r.lastError = errMessage
	if doc, ok := r.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (r *fakeRepo) SaveClassification(_ context.Context, id string, cls domain.DocumentClassification) error {
	r.classifications[id] = cls
	return nil
}

type fakeStorage struct {
	saved map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.saved[key] = b
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.saved[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (q *fakeQueue) PublishDocumentIngested(_ context.Context, documentID string) error {
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) Extract(context.Context, *domain.Document) (string, error) {
	return e.text, e.err
}

type fakeDocClassifier struct {
	result domain.DocumentClassification
}

func (c *fakeDocClassifier) Classify(context.Context, string, string) (domain.DocumentClassification, error) {
	return c.result, nil
}

// fakeAnalyzer labels chunks containing "step" as tactical, everything else
// general, so pipeline tests can assert per-chunk analysis without a registry.
type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(text string) domain.ChunkAnalysis {
	analysis := domain.DefaultChunkAnalysis()
	if strings.Contains(strings.ToLower(text), "step") {
		analysis.PrimaryType = "tactical"
		analysis.ContentTypes = []string{"tactical"}
		analysis.Scores.Tactical = 0.6
	}
	return analysis
}

type fakeChunker struct {
	chunks []string
}

func (c *fakeChunker) Split(string) []string { return c.chunks }

type fakeEmbedder struct {
	queryVector []float32
	err         error
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{float32(i), 1.0}
	}
	return vectors, nil
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.queryVector, nil
}

type fakeVectorStore struct {
	indexed     []domain.AnalyzedChunk
	indexedDoc  *domain.Document
	results     []domain.RetrievedChunk
	searchLimit int
	searchErr   error
}

func (v *fakeVectorStore) IndexChunks(_ context.Context, doc *domain.Document, chunks []domain.AnalyzedChunk, _ [][]float32) error {
	v.indexedDoc = doc
	v.indexed = chunks
	return nil
}

func (v *fakeVectorStore) Search(_ context.Context, _ []float32, limit int, _ domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	v.searchLimit = limit
	if v.searchErr != nil {
		return nil, v.searchErr
	}
	return v.results, nil
}

type fakeGenerator struct {
	answer    string
	lastQuery domain.QueryClassification
	gotChunks []domain.RetrievedChunk
	err       error
}

func (g *fakeGenerator) GenerateAnswer(_ context.Context, _ string, query domain.QueryClassification, chunks []domain.RetrievedChunk) (string, error) {
	g.lastQuery = query
	g.gotChunks = chunks
	return g.answer, g.err
}

func (g *fakeGenerator) GenerateFromPrompt(context.Context, string) (string, error) {
	return g.answer, g.err
}
