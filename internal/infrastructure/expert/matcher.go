package expert

import (
	"regexp"
	"sync"
)

// PatternMatcher evaluates one configured pattern against text. Implementations
// must treat an invalid pattern as matching nothing rather than failing, so a
// single bad config entry never aborts classification of a document batch.
type PatternMatcher interface {
	Count(pattern, text string) int
	Matches(pattern, text string) bool
}

// RegexMatcher is the default PatternMatcher: case-insensitive regexp matching
// with a process-lifetime compile cache. Safe for concurrent use.
type RegexMatcher struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

func NewRegexMatcher() *RegexMatcher {
	return &RegexMatcher{cache: make(map[string]*regexp.Regexp)}
}

func (m *RegexMatcher) Count(pattern, text string) int {
	re := m.compiled(pattern)
	if re == nil {
		return 0
	}
	return len(re.FindAllStringIndex(text, -1))
}

func (m *RegexMatcher) Matches(pattern, text string) bool {
	re := m.compiled(pattern)
	if re == nil {
		return false
	}
	return re.MatchString(text)
}

// compiled returns the cached regexp for pattern, or nil when the pattern does
// not compile. Failures are cached too, so malformed config entries cost one
// compile attempt total.
func (m *RegexMatcher) compiled(pattern string) *regexp.Regexp {
	m.mu.RLock()
	re, ok := m.cache[pattern]
	m.mu.RUnlock()
	if ok {
		return re
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = nil
	}

	m.mu.Lock()
	m.cache[pattern] = re
	m.mu.Unlock()
	return re
}
