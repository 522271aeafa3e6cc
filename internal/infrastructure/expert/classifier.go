package expert

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// filenameFragmentWeight is the fixed partial score a filename keyword hit
// contributes to a source-type category, independent of content pattern
// weights. It biases short-signal filenames ("Q&A_session.pdf") correctly even
// when the body text is generic.
const filenameFragmentWeight = 0.3

var wordFragmentRe = regexp.MustCompile(`[a-z0-9]+`)

// Classifier assigns a whole document to the configured source-type,
// teaching-context and confidence-level categories, and computes the
// continuous authority and quality-density signals. Pure and stateless beyond
// the read-only registry; safe to run concurrently across documents.
type Classifier struct {
	registry *Registry
	matcher  PatternMatcher
}

func NewClassifier(registry *Registry, matcher PatternMatcher) *Classifier {
	return &Classifier{registry: registry, matcher: matcher}
}

// Classify never fails: malformed patterns are skipped and degenerate input
// yields the all-unknown default record.
func (c *Classifier) Classify(_ context.Context, text, filename string) (domain.DocumentClassification, error) {
	content := strings.ToLower(text)

	sourceType, sourceEvidence := c.classifyDimension(
		DimensionSourceType, content, c.filenameScores(filename))
	teachingContext, contextEvidence := c.classifyDimension(
		DimensionTeachingContext, content, dimensionScores{})
	confidenceLevel, confidenceEvidence := c.classifyDimension(
		DimensionConfidenceLevel, content, dimensionScores{})

	authorityScore, authorityEvidence := c.authorityScore(content)

	// Only actual pattern matches count toward confidence; "nothing matched"
	// placeholders do not.
	matchEvidence := 0
	matchEvidence += len(sourceEvidence.matches)
	matchEvidence += len(contextEvidence.matches)
	matchEvidence += len(confidenceEvidence.matches)
	matchEvidence += len(authorityEvidence.matches)

	all := make([]string, 0, matchEvidence+4)
	all = append(all, sourceEvidence.all()...)
	all = append(all, contextEvidence.all()...)
	all = append(all, confidenceEvidence.all()...)
	all = append(all, authorityEvidence.all()...)

	return domain.DocumentClassification{
		SourceType:               sourceType,
		TeachingContext:          teachingContext,
		ConfidenceLevel:          confidenceLevel,
		AuthorityScore:           authorityScore,
		ClassificationConfidence: confidenceFromEvidence(matchEvidence),
		ContentQuality:           c.qualityDensities(content),
		SupportingEvidence:       all,
	}, nil
}

type dimensionScores map[string]float64

type evidenceList struct {
	matches []string
	notes   []string
}

func (e evidenceList) all() []string {
	out := make([]string, 0, len(e.matches)+len(e.notes))
	out = append(out, e.matches...)
	return append(out, e.notes...)
}

// classifyDimension scores every category of one dimension against the
// lowercased content (seeded with any filename contributions) and picks the
// highest scorer. Equal scores resolve to the first category in config order.
func (c *Classifier) classifyDimension(
	dimension, content string,
	seed dimensionScores,
) (string, evidenceList) {
	scores := dimensionScores{}
	for k, v := range seed {
		scores[k] = v
	}

	var evidence evidenceList
	categories := c.registry.Patterns(dimension)

	for _, category := range categories {
		for _, p := range category.Patterns {
			count := c.matcher.Count(p.Pattern, content)
			if count == 0 {
				continue
			}
			scores[category.Name] += float64(count) * p.Weight
			evidence.matches = append(evidence.matches, fmt.Sprintf(
				"found %d matches for %s pattern: %s", count, category.Name, p.Pattern))
		}
	}

	best := domain.UnknownCategory
	bestScore := 0.0
	for _, category := range categories {
		if s := scores[category.Name]; s > bestScore {
			best = category.Name
			bestScore = s
		}
	}

	if bestScore == 0 {
		evidence.notes = append(evidence.notes,
			fmt.Sprintf("no clear %s patterns found", dimension))
		return domain.UnknownCategory, evidence
	}
	return best, evidence
}

// filenameScores seeds source-type scores from bare-word fragments of each
// configured pattern found in the lowercased filename. One hit per category.
func (c *Classifier) filenameScores(filename string) dimensionScores {
	scores := dimensionScores{}
	name := strings.ToLower(filename)
	if name == "" {
		return scores
	}

	for _, category := range c.registry.Patterns(DimensionSourceType) {
		for _, p := range category.Patterns {
			if !fragmentInFilename(p.Pattern, name) {
				continue
			}
			scores[category.Name] += filenameFragmentWeight
			break
		}
	}
	return scores
}

func fragmentInFilename(pattern, filename string) bool {
	for _, fragment := range wordFragmentRe.FindAllString(strings.ToLower(pattern), -1) {
		if strings.Contains(filename, fragment) {
			return true
		}
	}
	return false
}

// authorityScore sweeps the three authority tiers and averages the tier
// weights over all matches. No matches means neutral 0.5: nothing in the text
// says how assertively claims are stated.
func (c *Classifier) authorityScore(content string) (float64, evidenceList) {
	var evidence evidenceList
	counts := map[string]int{}

	for _, tier := range []string{AuthorityHigh, AuthorityMedium, AuthorityLow} {
		for _, p := range c.registry.AuthorityTier(tier) {
			count := c.matcher.Count(p.Pattern, content)
			if count == 0 {
				continue
			}
			counts[tier] += count
			evidence.matches = append(evidence.matches, fmt.Sprintf(
				"%s authority: %d matches for %s", tier, count, p.Pattern))
		}
	}

	total := counts[AuthorityHigh] + counts[AuthorityMedium] + counts[AuthorityLow]
	if total == 0 {
		evidence.notes = append(evidence.notes,
			"no authority indicators found, defaulting to medium authority")
		return 0.5, evidence
	}

	score := (float64(counts[AuthorityHigh])*1.0 +
		float64(counts[AuthorityMedium])*0.6 +
		float64(counts[AuthorityLow])*0.2) / float64(total)
	return score, evidence
}

// qualityDensities computes, per quality dimension, total matches normalized
// by word count as a percentage, scaled by 10 and clipped to 1.0. The score
// saturates once matches exceed roughly 1% of words, so a handful of hits in
// a short document already reads as high density.
func (c *Classifier) qualityDensities(content string) map[string]float64 {
	densities := map[string]float64{}
	wordCount := len(strings.Fields(content))

	for _, category := range c.registry.Patterns(DimensionContentQuality) {
		if wordCount == 0 {
			densities[category.Name] = 0.0
			continue
		}
		count := 0
		for _, p := range category.Patterns {
			count += c.matcher.Count(p.Pattern, content)
		}
		density := float64(count) / float64(wordCount) * 100
		score := density * 10
		if score > 1.0 {
			score = 1.0
		}
		densities[category.Name] = score
	}
	return densities
}

// confidenceFromEvidence buckets total match evidence into the fixed
// confidence steps. Crude but cheap, and monotone by construction.
func confidenceFromEvidence(total int) float64 {
	switch {
	case total == 0:
		return 0.1
	case total < 5:
		return 0.3
	case total < 10:
		return 0.6
	case total < 20:
		return 0.8
	default:
		return 0.9
	}
}
