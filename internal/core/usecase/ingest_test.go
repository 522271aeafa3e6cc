package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

func TestUploadCreatesAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(repo, storage, queue)

	doc, err := uc.Upload(context.Background(), "Live Q&A pricing.pdf", "application/pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.ID == "" {
		t.Fatalf("document must get an id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("status = %q, want uploaded", doc.Status)
	}
	if doc.Classification.SourceType != domain.UnknownCategory {
		t.Fatalf("fresh document must carry the default classification, got %q", doc.Classification.SourceType)
	}
	if doc.Classification.ClassificationConfidence != 0.1 {
		t.Fatalf("default confidence = %v, want 0.1", doc.Classification.ClassificationConfidence)
	}

	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Fatalf("payload not stored under %q", doc.StoragePath)
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("ingestion event not published: %v", queue.published)
	}
}

func TestUploadSanitizesStorageKey(t *testing.T) {
	repo := newFakeRepo()
	storage := newFakeStorage()
	uc := NewIngestDocumentUseCase(repo, storage, &fakeQueue{})

	doc, err := uc.Upload(context.Background(), "../wk 3/Q&A call #2.pdf", "application/pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if strings.ContainsAny(doc.StoragePath, "/&# ") {
		t.Fatalf("storage key not sanitized: %q", doc.StoragePath)
	}
}

func TestUploadPublishFailure(t *testing.T) {
	repo := newFakeRepo()
	uc := NewIngestDocumentUseCase(repo, newFakeStorage(), &fakeQueue{err: errors.New("nats gone")})

	if _, err := uc.Upload(context.Background(), "doc.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("expected publish error")
	}
}
