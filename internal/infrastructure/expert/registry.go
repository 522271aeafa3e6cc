package expert

import (
	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// Classification dimensions exposed by the registry.
const (
	DimensionSourceType      = "source_type"
	DimensionTeachingContext = "teaching_context"
	DimensionConfidenceLevel = "confidence_level"
	DimensionContentQuality  = "content_quality"
)

// Authority tiers for the continuous authority score. These are independent of
// the categorical confidence-level dimension: the tiers measure how assertively
// something is stated, the dimension what kind of claim it is.
const (
	AuthorityHigh   = "high"
	AuthorityMedium = "medium"
	AuthorityLow    = "low"
)

// Registry holds the immutable, fully-normalized pattern configuration.
// Built once at startup, read-only afterwards, safe for concurrent readers.
type Registry struct {
	dimensions     map[string][]Category
	authorityTiers map[string][]WeightedPattern

	signatures []Signature
	frameworks []Framework
	contrarian []string

	rules      domain.QueryRules
	priorities domain.IntentPriorities
	weights    domain.ScoringWeights
}

// NewRegistry normalizes a parsed config: every dimension gains an "unknown"
// fallback category, confidence-level categories are folded into authority
// tiers, and missing query rules / priorities / weights fall back to the
// built-in defaults.
func NewRegistry(cfg *Config) *Registry {
	r := &Registry{
		dimensions: map[string][]Category{
			DimensionSourceType:      withUnknown(cfg.DocumentTypes.Categories),
			DimensionTeachingContext: withUnknown(cfg.TeachingContexts.Categories),
			DimensionConfidenceLevel: withUnknown(cfg.AuthorityLevels.Categories),
			DimensionContentQuality:  cfg.ContentQuality.Categories,
		},
		authorityTiers: buildAuthorityTiers(cfg.AuthorityLevels.Categories),
		signatures:     cfg.SignaturePhrases,
		frameworks:     cfg.Frameworks.Items,
		contrarian:     cfg.ContrarianIndicators,
		rules:          buildQueryRules(cfg),
		priorities:     cfg.RetrievalPriorities,
		weights:        domain.DefaultScoringWeights(),
	}

	if len(r.priorities) == 0 {
		r.priorities = DefaultRetrievalPriorities()
	}
	if cfg.Scoring != nil {
		r.weights = mergeWeights(r.weights, *cfg.Scoring)
	}
	return r
}

// Patterns returns the ordered categories of one dimension, or an empty slice
// for an unconfigured dimension.
func (r *Registry) Patterns(dimension string) []Category {
	return r.dimensions[dimension]
}

// AuthorityTier returns the patterns of one authority tier (high/medium/low).
func (r *Registry) AuthorityTier(tier string) []WeightedPattern {
	return r.authorityTiers[tier]
}

func (r *Registry) Signatures() []Signature        { return r.signatures }
func (r *Registry) Frameworks() []Framework        { return r.frameworks }
func (r *Registry) ContrarianIndicators() []string { return r.contrarian }
func (r *Registry) QueryRules() domain.QueryRules  { return r.rules }
func (r *Registry) Weights() domain.ScoringWeights { return r.weights }
func (r *Registry) Priorities() domain.IntentPriorities {
	return r.priorities
}

func withUnknown(categories []Category) []Category {
	for _, c := range categories {
		if c.Name == domain.UnknownCategory {
			return categories
		}
	}
	out := make([]Category, 0, len(categories)+1)
	out = append(out, categories...)
	return append(out, Category{Name: domain.UnknownCategory})
}

// buildAuthorityTiers maps confidence-level categories onto authority tiers.
// An explicit `authority:` key wins; otherwise well-known category names are
// mapped, and anything unrecognized counts as medium.
func buildAuthorityTiers(categories []Category) map[string][]WeightedPattern {
	tiers := map[string][]WeightedPattern{
		AuthorityHigh:   nil,
		AuthorityMedium: nil,
		AuthorityLow:    nil,
	}
	for _, c := range categories {
		tier := c.Authority
		if tier == "" {
			tier = tierForCategoryName(c.Name)
		}
		if _, ok := tiers[tier]; !ok {
			tier = AuthorityMedium
		}
		tiers[tier] = append(tiers[tier], c.Patterns...)
	}
	return tiers
}

func tierForCategoryName(name string) string {
	switch name {
	case "high_authority", "definitive_framework":
		return AuthorityHigh
	case "low_authority", "off_the_cuff", "exploratory":
		return AuthorityLow
	default:
		return AuthorityMedium
	}
}

func buildQueryRules(cfg *Config) domain.QueryRules {
	rules := domain.QueryRules{DefaultIntent: "foundational"}

	for _, ic := range cfg.QueryIntents {
		if ic.Name == "" || len(ic.Phrases) == 0 {
			continue
		}
		rules.Intents = append(rules.Intents, domain.IntentRule{
			Name:    ic.Name,
			Phrases: ic.Phrases,
		})
	}
	if len(rules.Intents) == 0 {
		rules.Intents = DefaultIntentRules()
	}

	rules.Topics = cfg.QueryTopics.Items
	if len(rules.Topics) == 0 {
		rules.Topics = DefaultTopicRules()
	}
	return rules
}

func mergeWeights(base, override domain.ScoringWeights) domain.ScoringWeights {
	merge := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	merge(&base.PrimaryTypeBonus, override.PrimaryTypeBonus)
	merge(&base.SourceTypeWeight, override.SourceTypeWeight)
	merge(&base.TeachingContext, override.TeachingContext)
	merge(&base.ConfidenceLevel, override.ConfidenceLevel)
	merge(&base.Authority, override.Authority)
	merge(&base.Classification, override.Classification)
	merge(&base.NeutralPriority, override.NeutralPriority)
	merge(&base.FrameworkMatchBonus, override.FrameworkMatchBonus)
	merge(&base.ContrarianScore, override.ContrarianScore)
	merge(&base.TacticalScore, override.TacticalScore)
	merge(&base.FrameworkScore, override.FrameworkScore)
	merge(&base.CaseStudyScore, override.CaseStudyScore)
	merge(&base.SignaturePhraseUnit, override.SignaturePhraseUnit)
	merge(&base.SignaturePhraseLimit, override.SignaturePhraseLimit)
	return base
}

// DefaultIntentRules is the built-in intent ruleset, used when the config
// declares none. Order matters: the first rule with a phrase hit wins.
func DefaultIntentRules() []domain.IntentRule {
	return []domain.IntentRule{
		{
			Name: "foundational",
			Phrases: []string{
				"how do i", "what is the", "explain", "framework for", "system for",
				"process for", "steps to", "guide to", "introduction to", "basics of",
			},
		},
		{
			Name: "specific_problems",
			Phrases: []string{
				"problem", "issue", "stuck", "struggling", "not working", "failing",
				"what should i do", "help with", "fix", "solve", "troubleshoot",
			},
		},
		{
			Name: "examples",
			Phrases: []string{
				"example", "case study", "show me", "real world", "success story",
				"student story", "how did", "what happened", "results",
			},
		},
		{
			Name: "systematic",
			Phrases: []string{
				"systematic", "methodology", "complete", "comprehensive", "step by step",
				"exact process", "blueprint", "template", "checklist",
			},
		},
	}
}

// DefaultTopicRules is the built-in multi-label topic ruleset.
func DefaultTopicRules() []domain.TopicRule {
	return []domain.TopicRule{
		{
			Name:      "first_sale",
			Keywords:  []string{"authentic selling", "sales call", "first client", "first sale", "closing", "objection handling", "sales process"},
			Framework: "authentic_selling",
		},
		{
			Name:      "customer_research",
			Keywords:  []string{"customer research", "mind reading", "customer interviews", "customer needs", "dream outcome", "biggest challenge"},
			Framework: "customer_research",
		},
		{
			Name:     "pricing",
			Keywords: []string{"pricing", "rates", "charge", "money", "value", "investment"},
		},
		{
			Name:      "offers",
			Keywords:  []string{"offer", "irresistible", "positioning", "guarantee", "bonuses"},
			Framework: "winning_offer",
		},
		{
			Name:     "frameworks",
			Keywords: []string{"framework", "system", "process", "step by step", "methodology"},
			Density:  "framework_density",
			Boost:    0.5,
		},
		{
			Name:     "contrarian",
			Keywords: []string{"wrong", "myth", "conventional wisdom", "different", "opposite"},
			Density:  "contrarian_density",
			Boost:    0.5,
		},
		{
			Name:       "testing",
			Keywords:   []string{"test", "validate", "experiment", "try", "iterate"},
			Density:    "tactical_density",
			Boost:      0.3,
			MinDensity: 0.3,
		},
	}
}

// DefaultRetrievalPriorities is the built-in intent-to-category priority table.
func DefaultRetrievalPriorities() domain.IntentPriorities {
	return domain.IntentPriorities{
		"foundational": {
			"structured_lesson":      1.0,
			"systematic_instruction": 1.0,
			"definitive_framework":   1.0,
			"live_qa":                0.4,
			"situational_advice":     0.3,
			"off_the_cuff":           0.2,
		},
		"specific_problems": {
			"live_qa":                1.0,
			"situational_advice":     1.0,
			"troubleshooting":        1.0,
			"structured_lesson":      0.6,
			"systematic_instruction": 0.5,
			"definitive_framework":   0.7,
		},
		"examples": {
			"student_teardown":    1.0,
			"case_study":          1.0,
			"example_application": 1.0,
			"behind_scenes":       0.8,
			"business_makeover":   0.8,
			"structured_lesson":   0.4,
		},
		"systematic": {
			"structured_lesson":      1.0,
			"systematic_instruction": 1.0,
			"definitive_framework":   1.0,
			"suggested_approach":     0.8,
			"live_qa":                0.3,
			"off_the_cuff":           0.2,
		},
	}
}
