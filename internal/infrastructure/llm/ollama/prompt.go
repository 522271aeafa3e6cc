package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// intentInstructions shape the answer to match what the user was actually
// asking for, as inferred by the query classifier.
var intentInstructions = map[string]string{
	"foundational":      "Teach the underlying framework first, then the practical application. Build from fundamentals.",
	"specific_problems": "Diagnose the situation and give direct, actionable advice for this specific problem. No generic theory.",
	"examples":          "Lead with concrete examples, stories and real numbers from the context. Let the cases carry the answer.",
	"systematic":        "Give the complete step-by-step process, in order, with nothing skipped.",
}

func buildAnswerPrompt(question string, query domain.QueryClassification, chunks []domain.RetrievedChunk) string {
	instruction, ok := intentInstructions[query.Intent]
	if !ok {
		instruction = intentInstructions["foundational"]
	}

	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] file=%s source=%s type=%s authority=%.2f\n%s\n\n",
			idx+1,
			chunk.Filename,
			chunk.Classification.SourceType,
			chunk.Analysis.PrimaryType,
			chunk.Classification.AuthorityScore,
			chunk.Text,
		))
	}

	topics := "none"
	if len(query.Topics) > 0 {
		topics = strings.Join(query.Topics, ", ")
	}

	return fmt.Sprintf(`You answer questions in the voice of the expert whose material is quoted below.
Answer only from the context. If the context is insufficient, say so directly.
%s

Query intent: %s
Query topics: %s

Question:
%s

Context:
%s`, instruction, query.Intent, topics, question, contextBuilder.String())
}
