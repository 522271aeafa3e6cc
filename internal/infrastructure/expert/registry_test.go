package expert

import (
	"testing"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(mustParseConfig(t))
}

func TestRegistryAppendsUnknownFallback(t *testing.T) {
	r := testRegistry(t)

	categories := r.Patterns(DimensionSourceType)
	last := categories[len(categories)-1]
	if last.Name != domain.UnknownCategory {
		t.Fatalf("last category = %q, want unknown fallback", last.Name)
	}

	// Content quality is not a categorical dimension and gets no fallback.
	for _, c := range r.Patterns(DimensionContentQuality) {
		if c.Name == domain.UnknownCategory {
			t.Fatalf("content quality must not gain an unknown category")
		}
	}
}

func TestRegistryAuthorityTiers(t *testing.T) {
	r := testRegistry(t)

	if got := len(r.AuthorityTier(AuthorityHigh)); got != 3 {
		t.Fatalf("high tier has %d patterns, want 3", got)
	}
	if got := len(r.AuthorityTier(AuthorityLow)); got != 2 {
		t.Fatalf("low tier has %d patterns, want 2", got)
	}
	// suggested_approach has no explicit tier and no well-known name mapping
	// to high or low, so it lands in medium.
	if got := len(r.AuthorityTier(AuthorityMedium)); got != 2 {
		t.Fatalf("medium tier has %d patterns, want 2", got)
	}
}

func TestRegistryQueryRulesFromConfig(t *testing.T) {
	r := testRegistry(t)

	rules := r.QueryRules()
	if len(rules.Intents) != 2 || rules.Intents[0].Name != "foundational" {
		t.Fatalf("intents = %+v", rules.Intents)
	}
	if rules.DefaultIntent != "foundational" {
		t.Fatalf("default intent = %q", rules.DefaultIntent)
	}
	if len(rules.Topics) != 3 {
		t.Fatalf("topics = %+v", rules.Topics)
	}
}

func TestRegistryDefaultsWhenSectionsMissing(t *testing.T) {
	cfg, err := ParseConfig([]byte("expert_profile:\n  name: minimal\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	r := NewRegistry(cfg)

	if len(r.QueryRules().Intents) == 0 {
		t.Fatalf("missing intents must fall back to defaults")
	}
	if len(r.QueryRules().Topics) == 0 {
		t.Fatalf("missing topics must fall back to defaults")
	}
	if len(r.Priorities()) == 0 {
		t.Fatalf("missing priorities must fall back to defaults")
	}
	if r.Weights() != domain.DefaultScoringWeights() {
		t.Fatalf("weights = %+v, want defaults", r.Weights())
	}
}

func TestRegistryScoringOverride(t *testing.T) {
	cfg, err := ParseConfig([]byte("scoring:\n  primary_type_bonus: 0.6\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	r := NewRegistry(cfg)

	w := r.Weights()
	if w.PrimaryTypeBonus != 0.6 {
		t.Fatalf("PrimaryTypeBonus = %v, want override 0.6", w.PrimaryTypeBonus)
	}
	if w.SourceTypeWeight != 0.4 {
		t.Fatalf("untouched weights must keep defaults, got %v", w.SourceTypeWeight)
	}
}
