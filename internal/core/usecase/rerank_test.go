package usecase

import (
	"math"
	"testing"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

func testPriorities() domain.IntentPriorities {
	return domain.IntentPriorities{
		"foundational": {
			"structured_lesson": 1.0,
			"live_qa":           0.4,
		},
		"specific_problems": {
			"live_qa":           1.0,
			"structured_lesson": 0.6,
		},
	}
}

func newTestReranker() *Reranker {
	return NewReranker(testPriorities(), testQueryRules().Topics, domain.DefaultScoringWeights())
}

func chunkWith(cls domain.DocumentClassification, analysis domain.ChunkAnalysis) domain.RetrievedChunk {
	return domain.RetrievedChunk{Classification: cls, Analysis: analysis}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScorePrimaryTypeBonus(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational"}

	general := chunkWith(domain.DefaultDocumentClassification(), domain.DefaultChunkAnalysis())
	typed := general
	typed.Analysis.PrimaryType = "tactical"

	diff := r.Score(typed, query) - r.Score(general, query)
	if !almostEqual(diff, 0.3) {
		t.Fatalf("primary type bonus = %v, want 0.3", diff)
	}
}

func TestScoreIntentPriorities(t *testing.T) {
	r := newTestReranker()

	lesson := chunkWith(domain.DocumentClassification{SourceType: "structured_lesson"}, domain.DefaultChunkAnalysis())
	qa := chunkWith(domain.DocumentClassification{SourceType: "live_qa"}, domain.DefaultChunkAnalysis())

	foundational := domain.QueryClassification{Intent: "foundational"}
	problems := domain.QueryClassification{Intent: "specific_problems"}

	if r.Score(lesson, foundational) <= r.Score(qa, foundational) {
		t.Fatalf("foundational should prefer structured_lesson over live_qa")
	}
	if r.Score(qa, problems) <= r.Score(lesson, problems) {
		t.Fatalf("specific_problems should prefer live_qa over structured_lesson")
	}
}

func TestScoreUnknownIntentIsNeutral(t *testing.T) {
	r := newTestReranker()

	chunk := chunkWith(domain.DocumentClassification{SourceType: "structured_lesson"}, domain.DefaultChunkAnalysis())
	score := r.Score(chunk, domain.QueryClassification{Intent: "nonsense"})

	// Neutral 0.5 across the three categorical lookups.
	want := 0.5*0.4 + 0.5*0.3 + 0.5*0.2
	if !almostEqual(score, want) {
		t.Fatalf("neutral score = %v, want %v", score, want)
	}
}

func TestScoreFrameworkTopicBonus(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational", Topics: []string{"offers"}}

	plain := chunkWith(domain.DefaultDocumentClassification(), domain.DefaultChunkAnalysis())
	withFramework := plain
	withFramework.Analysis.Frameworks = []string{"winning_offer"}
	withFramework.Analysis.Scores.Framework = 0.4

	diff := r.Score(withFramework, query) - r.Score(plain, query)
	// Framework bonus 0.5 plus framework score 0.4 * 0.15.
	if !almostEqual(diff, 0.5+0.4*0.15) {
		t.Fatalf("framework topic diff = %v, want %v", diff, 0.5+0.4*0.15)
	}
}

func TestScoreDensityTopicGate(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational", Topics: []string{"testing"}}

	base := domain.DefaultDocumentClassification()

	low := base
	low.ContentQuality = map[string]float64{"tactical_density": 0.3}
	high := base
	high.ContentQuality = map[string]float64{"tactical_density": 0.8}

	lowChunk := chunkWith(low, domain.DefaultChunkAnalysis())
	highChunk := chunkWith(high, domain.DefaultChunkAnalysis())
	bareChunk := chunkWith(base, domain.DefaultChunkAnalysis())

	// At the minimum the gate stays closed.
	if !almostEqual(r.Score(lowChunk, query), r.Score(bareChunk, query)) {
		t.Fatalf("density at the minimum must earn no bonus")
	}
	diff := r.Score(highChunk, query) - r.Score(bareChunk, query)
	if !almostEqual(diff, 0.8*0.3) {
		t.Fatalf("density bonus = %v, want %v", diff, 0.8*0.3)
	}
}

func TestScoreSignaturePhraseCap(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational"}

	base := chunkWith(domain.DefaultDocumentClassification(), domain.DefaultChunkAnalysis())

	two := base
	two.Analysis.SignaturePhrases = []string{"a", "b"}
	many := base
	many.Analysis.SignaturePhrases = []string{"a", "b", "c", "d", "e", "f"}

	if diff := r.Score(two, query) - r.Score(base, query); !almostEqual(diff, 0.2) {
		t.Fatalf("two phrases bonus = %v, want 0.2", diff)
	}
	if diff := r.Score(many, query) - r.Score(base, query); !almostEqual(diff, 0.3) {
		t.Fatalf("phrase bonus must cap at 0.3, got %v", diff)
	}
}

func TestRerankOrdersAndTruncates(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational"}

	chunks := []domain.RetrievedChunk{
		{DocumentID: "low", Classification: domain.DocumentClassification{SourceType: "live_qa"}},
		{DocumentID: "high", Classification: domain.DocumentClassification{SourceType: "structured_lesson"}},
		{DocumentID: "mid", Classification: domain.DefaultDocumentClassification()},
	}

	got := r.Rerank(chunks, query, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].DocumentID != "high" {
		t.Fatalf("top chunk = %s, want high", got[0].DocumentID)
	}
	if got[0].Score < got[1].Score {
		t.Fatalf("scores not descending: %v < %v", got[0].Score, got[1].Score)
	}
}

func TestRerankStableForEqualScores(t *testing.T) {
	r := newTestReranker()
	query := domain.QueryClassification{Intent: "foundational"}

	chunks := []domain.RetrievedChunk{
		{DocumentID: "first"},
		{DocumentID: "second"},
		{DocumentID: "third"},
	}

	got := r.Rerank(chunks, query, 0)
	for i, want := range []string{"first", "second", "third"} {
		if got[i].DocumentID != want {
			t.Fatalf("position %d = %s, want %s", i, got[i].DocumentID, want)
		}
	}
}
