package domain

// UnknownCategory is the fallback label for every classification dimension
// when no configured pattern matched.
const UnknownCategory = "unknown"

// GeneralContentType is the chunk-level fallback when no content signal is
// strong enough to name a primary type.
const GeneralContentType = "general"

// DocumentClassification is the whole-document classification record produced
// once at ingestion and broadcast onto every chunk derived from the document.
type DocumentClassification struct {
	SourceType               string             `json:"source_type"`
	TeachingContext          string             `json:"teaching_context"`
	ConfidenceLevel          string             `json:"confidence_level"`
	AuthorityScore           float64            `json:"authority_score"`
	ClassificationConfidence float64            `json:"classification_confidence"`
	ContentQuality           map[string]float64 `json:"content_quality"`
	SupportingEvidence       []string           `json:"supporting_evidence,omitempty"`
}

// DefaultDocumentClassification returns the record used when nothing matched:
// every dimension "unknown", neutral authority, lowest confidence.
func DefaultDocumentClassification() DocumentClassification {
	return DocumentClassification{
		SourceType:               UnknownCategory,
		TeachingContext:          UnknownCategory,
		ConfidenceLevel:          UnknownCategory,
		AuthorityScore:           0.5,
		ClassificationConfidence: 0.1,
		ContentQuality:           map[string]float64{},
	}
}

// QualityDensity reads one content-quality density, 0.0 when absent.
func (c DocumentClassification) QualityDensity(dimension string) float64 {
	if c.ContentQuality == nil {
		return 0.0
	}
	return c.ContentQuality[dimension]
}

// ContentScores holds the fixed per-category accumulators of the chunk-level
// content analysis. Values are unbounded additive sums; typical weights keep
// them under ~3.0.
type ContentScores struct {
	Contrarian float64 `json:"contrarian"`
	Tactical   float64 `json:"tactical"`
	Framework  float64 `json:"framework"`
	CaseStudy  float64 `json:"case_study"`
	Mindset    float64 `json:"mindset"`
	Testing    float64 `json:"testing"`
	Numbers    float64 `json:"numbers"`
	Story      float64 `json:"story"`
}

// Add accumulates weight into the named category. Unknown names are dropped,
// matching how unconfigured content types behave elsewhere.
func (s *ContentScores) Add(contentType string, weight float64) {
	switch contentType {
	case "contrarian":
		s.Contrarian += weight
	case "tactical":
		s.Tactical += weight
	case "framework":
		s.Framework += weight
	case "case_study":
		s.CaseStudy += weight
	case "mindset":
		s.Mindset += weight
	case "testing":
		s.Testing += weight
	case "numbers":
		s.Numbers += weight
	case "story":
		s.Story += weight
	}
}

// Max returns the highest-scoring category and its score. Iteration order is
// fixed so equal scores resolve deterministically.
func (s ContentScores) Max() (string, float64) {
	best := "framework"
	bestScore := s.Framework
	for _, c := range []struct {
		name  string
		score float64
	}{
		{"tactical", s.Tactical},
		{"contrarian", s.Contrarian},
		{"case_study", s.CaseStudy},
		{"mindset", s.Mindset},
		{"testing", s.Testing},
		{"numbers", s.Numbers},
		{"story", s.Story},
	} {
		if c.score > bestScore {
			best = c.name
			bestScore = c.score
		}
	}
	return best, bestScore
}

// ChunkAnalysis is the per-chunk content record produced by the content
// analyzer after splitting, finer grained than DocumentClassification.
type ChunkAnalysis struct {
	PrimaryType      string        `json:"primary_type"`
	ContentTypes     []string      `json:"content_types,omitempty"`
	Frameworks       []string      `json:"frameworks,omitempty"`
	SignaturePhrases []string      `json:"signature_phrases,omitempty"`
	Scores           ContentScores `json:"scores"`
}

// DefaultChunkAnalysis is the analysis of a chunk with no recognizable signal.
func DefaultChunkAnalysis() ChunkAnalysis {
	return ChunkAnalysis{PrimaryType: GeneralContentType}
}

// HasFramework reports whether the chunk registered the named framework.
func (a ChunkAnalysis) HasFramework(name string) bool {
	for _, f := range a.Frameworks {
		if f == name {
			return true
		}
	}
	return false
}

// QueryClassification is computed per query and never persisted.
type QueryClassification struct {
	Intent string   `json:"intent"`
	Topics []string `json:"topics,omitempty"`
}

// IntentRule is one first-match intent bucket: the first rule with any phrase
// contained in the lowercased query wins.
type IntentRule struct {
	Name    string
	Phrases []string
}

// TopicRule is one multi-label topic category. A topic may carry a framework
// binding (exact framework match bonus at rerank time) or a density binding
// (density-proportional bonus), both optional.
type TopicRule struct {
	Name       string
	Keywords   []string
	Framework  string
	Density    string
	Boost      float64
	MinDensity float64
}

// QueryRules bundles the intent and topic rulesets consumed by the query
// classifier. DefaultIntent is used when no intent rule matches.
type QueryRules struct {
	Intents       []IntentRule
	Topics        []TopicRule
	DefaultIntent string
}

// IntentPriorities maps intent -> category label -> priority weight. Lookup
// misses default to a neutral 0.5 in the scorer.
type IntentPriorities map[string]map[string]float64

// ScoringWeights are the hand-tuned additive relevance weights. They are
// configuration, not constants, so they can be recalibrated without a code
// change.
type ScoringWeights struct {
	PrimaryTypeBonus     float64 `yaml:"primary_type_bonus"`
	SourceTypeWeight     float64 `yaml:"source_type_weight"`
	TeachingContext      float64 `yaml:"teaching_context_weight"`
	ConfidenceLevel      float64 `yaml:"confidence_level_weight"`
	Authority            float64 `yaml:"authority_weight"`
	Classification       float64 `yaml:"classification_confidence_weight"`
	NeutralPriority      float64 `yaml:"neutral_priority"`
	FrameworkMatchBonus  float64 `yaml:"framework_match_bonus"`
	ContrarianScore      float64 `yaml:"contrarian_score_weight"`
	TacticalScore        float64 `yaml:"tactical_score_weight"`
	FrameworkScore       float64 `yaml:"framework_score_weight"`
	CaseStudyScore       float64 `yaml:"case_study_score_weight"`
	SignaturePhraseUnit  float64 `yaml:"signature_phrase_unit"`
	SignaturePhraseLimit float64 `yaml:"signature_phrase_limit"`
}

// DefaultScoringWeights mirrors the tuning the ranking formulas were
// calibrated with.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		PrimaryTypeBonus:     0.3,
		SourceTypeWeight:     0.4,
		TeachingContext:      0.3,
		ConfidenceLevel:      0.2,
		Authority:            0.3,
		Classification:       0.1,
		NeutralPriority:      0.5,
		FrameworkMatchBonus:  0.5,
		ContrarianScore:      0.15,
		TacticalScore:        0.15,
		FrameworkScore:       0.15,
		CaseStudyScore:       0.1,
		SignaturePhraseUnit:  0.1,
		SignaturePhraseLimit: 0.3,
	}
}
