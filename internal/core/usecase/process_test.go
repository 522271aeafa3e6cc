package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

func newProcessFixture(t *testing.T, extractor *fakeExtractor, chunker *fakeChunker) (*ProcessDocumentUseCase, *fakeRepo, *fakeVectorStore) {
	t.Helper()

	repo := newFakeRepo()
	repo.docs["doc-1"] = &domain.Document{
		ID:        "doc-1",
		Filename:  "live_qa_pricing.txt",
		Status:    domain.StatusUploaded,
		CreatedAt: time.Now().UTC(),
	}
	store := &fakeVectorStore{}
	uc := NewProcessDocumentUseCase(
		repo,
		extractor,
		&fakeDocClassifier{result: domain.DocumentClassification{
			SourceType:               "live_qa",
			TeachingContext:          "situational_advice",
			ConfidenceLevel:          "suggested_approach",
			AuthorityScore:           0.6,
			ClassificationConfidence: 0.6,
			ContentQuality:           map[string]float64{"tactical_density": 0.4},
		}},
		fakeAnalyzer{},
		chunker,
		&fakeEmbedder{},
		store,
		testLogger(),
	)
	return uc, repo, store
}

func TestProcessByIDHappyPath(t *testing.T) {
	extractor := &fakeExtractor{text: "step 1 charge more. general advice follows."}
	chunker := &fakeChunker{chunks: []string{"step 1 charge more.", "general advice follows."}}
	uc, repo, store := newProcessFixture(t, extractor, chunker)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID: %v", err)
	}

	wantStatuses := []domain.DocumentStatus{domain.StatusProcessing, domain.StatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != wantStatuses[0] || repo.statuses[1] != wantStatuses[1] {
		t.Fatalf("statuses = %v, want %v", repo.statuses, wantStatuses)
	}

	cls, ok := repo.classifications["doc-1"]
	if !ok {
		t.Fatalf("classification not persisted")
	}
	if cls.SourceType != "live_qa" {
		t.Fatalf("source type = %q", cls.SourceType)
	}

	if len(store.indexed) != 2 {
		t.Fatalf("indexed %d chunks, want 2", len(store.indexed))
	}
	if store.indexed[0].Index != 0 || store.indexed[1].Index != 1 {
		t.Fatalf("chunk indexes out of order: %+v", store.indexed)
	}
	if store.indexed[0].Analysis.PrimaryType != "tactical" {
		t.Fatalf("first chunk analysis = %q, want tactical", store.indexed[0].Analysis.PrimaryType)
	}
	if store.indexed[1].Analysis.PrimaryType != domain.GeneralContentType {
		t.Fatalf("second chunk analysis = %q, want general", store.indexed[1].Analysis.PrimaryType)
	}
	if store.indexedDoc == nil || store.indexedDoc.Classification.SourceType != "live_qa" {
		t.Fatalf("indexed document must carry the fresh classification")
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("corrupt pdf")}
	uc, repo, _ := newProcessFixture(t, extractor, &fakeChunker{})

	if err := uc.ProcessByID(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected extraction error")
	}

	if len(repo.statuses) != 2 || repo.statuses[1] != domain.StatusFailed {
		t.Fatalf("statuses = %v, want failure recorded", repo.statuses)
	}
	if repo.lastError == "" {
		t.Fatalf("failure message must be persisted")
	}
}

func TestProcessByIDRejectsEmptyText(t *testing.T) {
	extractor := &fakeExtractor{text: "   \n\t  "}
	uc, repo, _ := newProcessFixture(t, extractor, &fakeChunker{})

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if repo.statuses[len(repo.statuses)-1] != domain.StatusFailed {
		t.Fatalf("document must end up failed")
	}
}

func TestProcessByIDUnknownDocument(t *testing.T) {
	uc, _, _ := newProcessFixture(t, &fakeExtractor{text: "text"}, &fakeChunker{chunks: []string{"text"}})

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
