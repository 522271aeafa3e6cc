package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/expert-coach-assistant/internal/config"
	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

type ingestFake struct {
	err error
}

func (f ingestFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &domain.Document{
		ID:             "doc-1",
		Filename:       filename,
		MimeType:       mimeType,
		StoragePath:    "doc-1_file.txt",
		Status:         domain.StatusUploaded,
		Classification: domain.DefaultDocumentClassification(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

type queryFake struct {
	err        error
	lastLimit  int
	lastFilter domain.SearchFilter
}

func (f *queryFake) Answer(_ context.Context, _ string, limit int, filter domain.SearchFilter) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastLimit = limit
	f.lastFilter = filter
	return &domain.Answer{
		Text:  "charge more",
		Query: domain.QueryClassification{Intent: "foundational", Topics: []string{"pricing"}},
		Sources: []domain.RetrievedChunk{
			{DocumentID: "doc-1", Text: "source text", Score: 1.2},
		},
	}, nil
}

type docsFake struct {
	err error
}

func (f docsFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{
		ID:       "doc-1",
		Filename: "a.txt",
		Status:   domain.StatusReady,
		Classification: domain.DocumentClassification{
			SourceType: "live_qa",
		},
	}, nil
}

func newTestHandler(cfg config.Config) http.Handler {
	return NewRouter(cfg, ingestFake{}, &queryFake{}, docsFake{}).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	handler := newTestHandler(config.Config{RAGTopK: 5})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestUploadDocumentSuccess(t *testing.T) {
	handler := newTestHandler(config.Config{RAGTopK: 5})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "live_qa_pricing.txt")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}

	var docResp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&docResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if docResp["id"] != "doc-1" {
		t.Fatalf("unexpected response: %+v", docResp)
	}
	cls, ok := docResp["classification"].(map[string]any)
	if !ok || cls["source_type"] != "unknown" {
		t.Fatalf("fresh upload must expose the default classification: %+v", docResp)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	handler := newTestHandler(config.Config{RAGTopK: 5})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestQueryRagReturnsAnswerWithIntent(t *testing.T) {
	query := &queryFake{}
	handler := NewRouter(config.Config{RAGTopK: 5}, ingestFake{}, query, docsFake{}).Handler()

	payload, _ := json.Marshal(map[string]any{
		"question":    "how do i price my program",
		"source_type": "live_qa",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if query.lastLimit != 5 {
		t.Fatalf("limit = %d, want RAGTopK default 5", query.lastLimit)
	}
	if query.lastFilter.SourceType != "live_qa" {
		t.Fatalf("filter = %+v", query.lastFilter)
	}

	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	queryInfo, ok := resp["query"].(map[string]any)
	if !ok || queryInfo["intent"] != "foundational" {
		t.Fatalf("response must expose the query classification: %+v", resp)
	}
	if resp["text"] != "charge more" {
		t.Fatalf("text = %v", resp["text"])
	}
}

func TestQueryRagMapsDomainInvalidInputTo400(t *testing.T) {
	handler := NewRouter(
		config.Config{RAGTopK: 5},
		ingestFake{},
		&queryFake{err: domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("bad query"))},
		docsFake{},
	).Handler()

	payload, _ := json.Marshal(map[string]any{"question": "test"})
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	handler := NewRouter(
		config.Config{RAGTopK: 5},
		ingestFake{},
		&queryFake{},
		docsFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=missing"))},
	).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}
