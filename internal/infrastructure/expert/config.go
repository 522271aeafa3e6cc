package expert

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

const defaultPatternWeight = 0.1

// WeightedPattern is one configured text pattern with its score weight.
// In YAML it may be a plain string (default weight) or a mapping with
// explicit pattern/weight keys.
type WeightedPattern struct {
	Pattern string  `yaml:"pattern"`
	Weight  float64 `yaml:"weight"`
}

func (p *WeightedPattern) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Pattern = node.Value
		p.Weight = defaultPatternWeight
		return nil
	}

	type raw WeightedPattern
	var out raw
	if err := node.Decode(&out); err != nil {
		return err
	}
	*p = WeightedPattern(out)
	if p.Weight <= 0 {
		p.Weight = defaultPatternWeight
	}
	return nil
}

// Category is one label inside a classification dimension with its weighted
// patterns. Authority is only meaningful for the confidence-level dimension,
// where it maps the category onto an authority tier.
type Category struct {
	Name      string
	Patterns  []WeightedPattern
	Authority string
}

type categoryConfig struct {
	Patterns  []WeightedPattern `yaml:"patterns"`
	Authority string            `yaml:"authority"`
}

// Dimension is an ordered list of categories. YAML mapping order is preserved
// so that equal classification scores resolve to the first declared category.
type Dimension struct {
	Categories []Category
}

func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping for classification dimension, got %s", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var cc categoryConfig
		if err := node.Content[i+1].Decode(&cc); err != nil {
			return err
		}
		d.Categories = append(d.Categories, Category{
			Name:      name,
			Patterns:  cc.Patterns,
			Authority: cc.Authority,
		})
	}
	return nil
}

// Signature is one configured signature phrase.
type Signature struct {
	Phrase      string  `yaml:"phrase"`
	ContentType string  `yaml:"content_type"`
	Weight      float64 `yaml:"weight"`
}

// Framework is one named framework with its keyword vocabulary. A chunk only
// registers the framework when at least two keywords co-occur.
type Framework struct {
	Name     string
	Keywords []string
}

type frameworkConfig struct {
	Keywords []string `yaml:"keywords"`
}

// Frameworks preserves config declaration order.
type Frameworks struct {
	Items []Framework
}

func (f *Frameworks) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping for frameworks, got %s", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var fc frameworkConfig
		if err := node.Content[i+1].Decode(&fc); err != nil {
			return err
		}
		f.Items = append(f.Items, Framework{Name: name, Keywords: fc.Keywords})
	}
	return nil
}

type intentConfig struct {
	Name    string   `yaml:"name"`
	Phrases []string `yaml:"phrases"`
}

type topicConfig struct {
	Keywords   []string `yaml:"keywords"`
	Framework  string   `yaml:"framework"`
	Density    string   `yaml:"density"`
	Boost      float64  `yaml:"boost"`
	MinDensity float64  `yaml:"min_density"`
}

type topicRules struct {
	Items []domain.TopicRule
}

func (t *topicRules) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping for query topics, got %s", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var tc topicConfig
		if err := node.Content[i+1].Decode(&tc); err != nil {
			return err
		}
		boost := tc.Boost
		if boost <= 0 {
			boost = 0.5
		}
		t.Items = append(t.Items, domain.TopicRule{
			Name:       name,
			Keywords:   tc.Keywords,
			Framework:  tc.Framework,
			Density:    tc.Density,
			Boost:      boost,
			MinDensity: tc.MinDensity,
		})
	}
	return nil
}

// Config is the expert configuration file: every pattern, keyword and weight
// that drives classification and reranking. Loaded once at startup; a missing
// or unparseable file is the single hard failure of the classification stack.
type Config struct {
	Profile struct {
		Name string `yaml:"name"`
	} `yaml:"expert_profile"`

	DocumentTypes    Dimension `yaml:"document_types"`
	TeachingContexts Dimension `yaml:"teaching_contexts"`
	AuthorityLevels  Dimension `yaml:"authority_levels"`
	ContentQuality   Dimension `yaml:"content_quality"`

	SignaturePhrases     []Signature `yaml:"signature_phrases"`
	Frameworks           Frameworks  `yaml:"frameworks"`
	ContrarianIndicators []string    `yaml:"contrarian_indicators"`

	QueryIntents []intentConfig `yaml:"query_intents"`
	QueryTopics  topicRules     `yaml:"query_topics"`

	RetrievalPriorities domain.IntentPriorities `yaml:"retrieval_priorities"`
	Scoring             *domain.ScoringWeights  `yaml:"scoring"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expert config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse expert config: %w", err)
	}
	return &cfg, nil
}
