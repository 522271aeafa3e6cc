package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// evidenceLimit caps how many supporting-evidence lines travel into the point
// payload; the full list stays in Postgres.
const evidenceLimit = 5

const listSeparator = ", "

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// IndexChunks upserts one point per analyzed chunk. The document-level
// classification is copied onto every chunk payload so search results carry
// their ranking metadata without a second lookup.
func (c *Client) IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.AnalyzedChunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: chunkPayload(doc, chunk),
		})
	}

	reqBody := map[string]any{"points": points}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal upsert body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant upsert status: %s", resp.Status)
	}
	return nil
}

// chunkPayload flattens classification and analysis into scalar payload keys.
// Lists are comma-joined; this is the storage boundary only, Search parses
// them back into slices.
func chunkPayload(doc *domain.Document, chunk domain.AnalyzedChunk) map[string]any {
	cls := doc.Classification
	payload := map[string]any{
		"doc_id":      doc.ID,
		"filename":    doc.Filename,
		"chunk_index": chunk.Index,
		"text":        chunk.Text,

		"source_type":               cls.SourceType,
		"teaching_context":          cls.TeachingContext,
		"confidence_level":          cls.ConfidenceLevel,
		"authority_score":           cls.AuthorityScore,
		"classification_confidence": cls.ClassificationConfidence,

		"primary_type":      chunk.Analysis.PrimaryType,
		"content_types":     strings.Join(chunk.Analysis.ContentTypes, listSeparator),
		"frameworks":        strings.Join(chunk.Analysis.Frameworks, listSeparator),
		"signature_phrases": strings.Join(chunk.Analysis.SignaturePhrases, listSeparator),

		"score_contrarian": chunk.Analysis.Scores.Contrarian,
		"score_tactical":   chunk.Analysis.Scores.Tactical,
		"score_framework":  chunk.Analysis.Scores.Framework,
		"score_case_study": chunk.Analysis.Scores.CaseStudy,
		"score_mindset":    chunk.Analysis.Scores.Mindset,
		"score_testing":    chunk.Analysis.Scores.Testing,
		"score_numbers":    chunk.Analysis.Scores.Numbers,
		"score_story":      chunk.Analysis.Scores.Story,
	}

	for dim, density := range cls.ContentQuality {
		payload["quality_"+dim] = density
	}

	evidence := cls.SupportingEvidence
	if len(evidence) > evidenceLimit {
		evidence = evidence[:evidenceLimit]
	}
	if len(evidence) > 0 {
		payload["evidence"] = strings.Join(evidence, "; ")
	}
	return payload
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter.SourceType != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "source_type",
					"match": map[string]any{
						"value": filter.SourceType,
					},
				},
			},
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, chunkFromPayload(r.Payload, r.Score))
	}
	return out, nil
}

// categoryFromPayload restores a categorical classification field. Points
// written without the field come back as unknown, never empty, so downstream
// reranking sees the same fallback label the classifier emits.
func categoryFromPayload(payload map[string]any, key string) string {
	if v := getStringPayload(payload, key); v != "" {
		return v
	}
	return domain.UnknownCategory
}

func primaryTypeFromPayload(payload map[string]any) string {
	if v := getStringPayload(payload, "primary_type"); v != "" {
		return v
	}
	return domain.GeneralContentType
}

func chunkFromPayload(payload map[string]any, score float64) domain.RetrievedChunk {
	quality := map[string]float64{}
	for key := range payload {
		dim, ok := strings.CutPrefix(key, "quality_")
		if !ok {
			continue
		}
		quality[dim] = getFloatPayload(payload, key)
	}

	return domain.RetrievedChunk{
		DocumentID: getStringPayload(payload, "doc_id"),
		Filename:   getStringPayload(payload, "filename"),
		ChunkIndex: int(getFloatPayload(payload, "chunk_index")),
		Text:       getStringPayload(payload, "text"),
		Score:      score,
		Classification: domain.DocumentClassification{
			SourceType:               categoryFromPayload(payload, "source_type"),
			TeachingContext:          categoryFromPayload(payload, "teaching_context"),
			ConfidenceLevel:          categoryFromPayload(payload, "confidence_level"),
			AuthorityScore:           getFloatPayload(payload, "authority_score"),
			ClassificationConfidence: getFloatPayload(payload, "classification_confidence"),
			ContentQuality:           quality,
		},
		Analysis: domain.ChunkAnalysis{
			PrimaryType:      primaryTypeFromPayload(payload),
			ContentTypes:     splitList(getStringPayload(payload, "content_types")),
			Frameworks:       splitList(getStringPayload(payload, "frameworks")),
			SignaturePhrases: splitList(getStringPayload(payload, "signature_phrases")),
			Scores: domain.ContentScores{
				Contrarian: getFloatPayload(payload, "score_contrarian"),
				Tactical:   getFloatPayload(payload, "score_tactical"),
				Framework:  getFloatPayload(payload, "score_framework"),
				CaseStudy:  getFloatPayload(payload, "score_case_study"),
				Mindset:    getFloatPayload(payload, "score_mindset"),
				Testing:    getFloatPayload(payload, "score_testing"),
				Numbers:    getFloatPayload(payload, "score_numbers"),
				Story:      getFloatPayload(payload, "score_story"),
			},
		},
	}
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getFloatPayload(payload map[string]any, key string) float64 {
	switch v := payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
