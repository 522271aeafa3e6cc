package expert

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

// Structural heuristics are owned by the analyzer, not the config: they detect
// text shape (step lists, narrative openings, currency figures), not expert
// vocabulary.
var (
	stepSequenceRes = []*regexp.Regexp{
		regexp.MustCompile(`step \d+`),
		regexp.MustCompile(`\d+\.`),
		regexp.MustCompile(`first,`),
		regexp.MustCompile(`second,`),
		regexp.MustCompile(`third,`),
	}
	narrativeOpeningRes = []*regexp.Regexp{
		regexp.MustCompile(`let me tell you`),
		regexp.MustCompile(`here's what happened`),
		regexp.MustCompile(`student named`),
		regexp.MustCompile(`client story`),
		regexp.MustCompile(`real example`),
	}
	numberPatternRes = []*regexp.Regexp{
		regexp.MustCompile(`\$[\d,]+`),
		regexp.MustCompile(`\d+%`),
		regexp.MustCompile(`\d+ times`),
		regexp.MustCompile(`\d+ figure`),
	}
	testingVerbRes = []*regexp.Regexp{
		regexp.MustCompile(`test`),
		regexp.MustCompile(`experiment`),
		regexp.MustCompile(`try this`),
		regexp.MustCompile(`validate`),
	}
)

// primaryTypeThreshold: below this, the strongest signal is considered noise
// and the chunk stays "general" instead of getting a spurious label.
const primaryTypeThreshold = 0.5

// Analyzer tags individual post-split chunks with signature phrases, framework
// matches and per-category content scores. Finer grained than the document
// classifier and driven by a different taxonomy.
type Analyzer struct {
	registry *Registry
	matcher  PatternMatcher
}

func NewAnalyzer(registry *Registry, matcher PatternMatcher) *Analyzer {
	return &Analyzer{registry: registry, matcher: matcher}
}

func (a *Analyzer) Analyze(text string) domain.ChunkAnalysis {
	content := strings.ToLower(text)
	analysis := domain.ChunkAnalysis{PrimaryType: domain.GeneralContentType}
	types := map[string]struct{}{}

	a.analyzeSignatures(content, &analysis, types)
	a.analyzeFrameworks(content, &analysis)
	a.analyzeContrarian(content, &analysis, types)
	analyzeStructure(content, &analysis, types)

	analysis.ContentTypes = sortedSet(types)

	if name, score := analysis.Scores.Max(); score > primaryTypeThreshold {
		analysis.PrimaryType = name
	}
	return analysis
}

func (a *Analyzer) analyzeSignatures(content string, analysis *domain.ChunkAnalysis, types map[string]struct{}) {
	for _, sig := range a.registry.Signatures() {
		if sig.Phrase == "" {
			continue
		}
		if !a.matcher.Matches(sig.Phrase, content) {
			continue
		}
		analysis.SignaturePhrases = append(analysis.SignaturePhrases, sig.Phrase)
		types[sig.ContentType] = struct{}{}
		analysis.Scores.Add(sig.ContentType, sig.Weight)
	}
}

// analyzeFrameworks counts keyword co-occurrence per framework. A single
// keyword is treated as coincidence; two or more register the framework.
func (a *Analyzer) analyzeFrameworks(content string, analysis *domain.ChunkAnalysis) {
	for _, fw := range a.registry.Frameworks() {
		matches := 0
		for _, keyword := range fw.Keywords {
			if strings.Contains(content, keyword) {
				matches++
			}
		}
		if matches < 2 {
			continue
		}
		analysis.Frameworks = append(analysis.Frameworks, fw.Name)
		analysis.Scores.Framework += float64(matches) * 0.2
	}
}

// analyzeContrarian sets (not accumulates) the contrarian score from the flat
// indicator list; the indicator sweep is the authoritative contrarian signal.
func (a *Analyzer) analyzeContrarian(content string, analysis *domain.ChunkAnalysis, types map[string]struct{}) {
	matches := 0
	for _, indicator := range a.registry.ContrarianIndicators() {
		if strings.Contains(content, indicator) {
			matches++
		}
	}
	analysis.Scores.Contrarian = float64(matches) * 0.3
	if matches > 0 {
		types["contrarian"] = struct{}{}
	}
}

func analyzeStructure(content string, analysis *domain.ChunkAnalysis, types map[string]struct{}) {
	if anyMatch(stepSequenceRes, content) {
		analysis.Scores.Tactical += 0.5
		types["tactical"] = struct{}{}
	}

	if anyMatch(narrativeOpeningRes, content) {
		analysis.Scores.CaseStudy += 0.5
		analysis.Scores.Story += 0.5
		types["case_study"] = struct{}{}
	}

	if n := countMatching(numberPatternRes, content); n > 0 {
		analysis.Scores.Numbers += float64(n) * 0.3
		types["numbers"] = struct{}{}
	}

	// Testing needs more than one distinct verb hit: one incidental "test"
	// in a chunk is not testing content.
	if n := countMatching(testingVerbRes, content); n > 1 {
		analysis.Scores.Testing += float64(n) * 0.2
		types["testing"] = struct{}{}
	}
}

func anyMatch(res []*regexp.Regexp, content string) bool {
	for _, re := range res {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

func countMatching(res []*regexp.Regexp, content string) int {
	n := 0
	for _, re := range res {
		if re.MatchString(content) {
			n++
		}
	}
	return n
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
