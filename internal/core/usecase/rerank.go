package usecase

import (
	"sort"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// Reranker rescores retrieved chunks with an additive relevance model built
// from the chunk's content analysis, the document-level classification and the
// intent-to-category priority table. Vector similarity only decides the
// candidate set; the final order is entirely metadata driven.
type Reranker struct {
	priorities domain.IntentPriorities
	topics     map[string]domain.TopicRule
	weights    domain.ScoringWeights
}

func NewReranker(
	priorities domain.IntentPriorities,
	topicRules []domain.TopicRule,
	weights domain.ScoringWeights,
) *Reranker {
	topics := make(map[string]domain.TopicRule, len(topicRules))
	for _, t := range topicRules {
		topics[t.Name] = t
	}
	return &Reranker{priorities: priorities, topics: topics, weights: weights}
}

// Rerank sorts chunks by descending relevance score and truncates to limit.
// The sort is stable, so equally scored chunks keep their retrieval order. The
// input slice is rescored in place.
func (r *Reranker) Rerank(
	chunks []domain.RetrievedChunk,
	query domain.QueryClassification,
	limit int,
) []domain.RetrievedChunk {
	for i := range chunks {
		chunks[i].Score = r.Score(chunks[i], query)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks
}

// Score computes the additive relevance score of one chunk for one query.
func (r *Reranker) Score(chunk domain.RetrievedChunk, query domain.QueryClassification) float64 {
	w := r.weights
	score := 0.0

	if chunk.Analysis.PrimaryType != domain.GeneralContentType &&
		chunk.Analysis.PrimaryType != "" {
		score += w.PrimaryTypeBonus
	}

	priorities := r.priorities[query.Intent]
	score += r.priority(priorities, chunk.Classification.SourceType) * w.SourceTypeWeight
	score += r.priority(priorities, chunk.Classification.TeachingContext) * w.TeachingContext
	score += r.priority(priorities, chunk.Classification.ConfidenceLevel) * w.ConfidenceLevel

	score += chunk.Classification.AuthorityScore * w.Authority
	score += chunk.Classification.ClassificationConfidence * w.Classification

	for _, topicName := range query.Topics {
		topic, ok := r.topics[topicName]
		if !ok {
			continue
		}
		if topic.Framework != "" && chunk.Analysis.HasFramework(topic.Framework) {
			score += w.FrameworkMatchBonus
		}
		if topic.Density != "" {
			density := chunk.Classification.QualityDensity(topic.Density)
			if density > topic.MinDensity {
				score += density * topic.Boost
			}
		}
	}

	score += chunk.Analysis.Scores.Contrarian * w.ContrarianScore
	score += chunk.Analysis.Scores.Tactical * w.TacticalScore
	score += chunk.Analysis.Scores.Framework * w.FrameworkScore
	score += chunk.Analysis.Scores.CaseStudy * w.CaseStudyScore

	sigBonus := float64(len(chunk.Analysis.SignaturePhrases)) * w.SignaturePhraseUnit
	if sigBonus > w.SignaturePhraseLimit {
		sigBonus = w.SignaturePhraseLimit
	}
	score += sigBonus

	return score
}

// priority reads one category priority for the active intent; unknown intents
// and unlisted categories score neutral.
func (r *Reranker) priority(priorities map[string]float64, category string) float64 {
	if priorities == nil {
		return r.weights.NeutralPriority
	}
	p, ok := priorities[category]
	if !ok {
		return r.weights.NeutralPriority
	}
	return p
}
