// Package matcher classifies emitted asset filenames: worker assets,
// hash-bearing names and exclude-pattern matches.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultMinHashLength and DefaultMaxHashLength bound the hex segment
	// recognized as a content hash. Bundlers disagree on the length (webpack
	// defaults to 20, other tools and build modes emit 8 to 16).
	DefaultMinHashLength = 8
	DefaultMaxHashLength = 20

	// HexAlphabet and Base32Alphabet are regular expression character class
	// bodies. esbuild writes its [hash] placeholder as 8 uppercase base32
	// characters.
	HexAlphabet    = "0-9a-f"
	Base32Alphabet = "A-Z2-7"

	ESBuildHashLength = 8
)

// Matcher recognizes `name.<hash>.js` filenames for a fixed hash alphabet and
// length window.
type Matcher struct {
	alphabet string
	minLen   int
	maxLen   int
	hashRe   *regexp.Regexp
}

// New returns a Matcher recognizing hash segments of minLen to maxLen
// lowercase hex characters.
func New(minLen, maxLen int) (*Matcher, error) {
	return NewWithAlphabet(HexAlphabet, minLen, maxLen)
}

// NewWithAlphabet returns a Matcher for hash segments drawn from alphabet, the
// body of a character class such as "0-9a-f".
func NewWithAlphabet(alphabet string, minLen, maxLen int) (*Matcher, error) {
	if minLen < 1 || maxLen < minLen {
		return nil, fmt.Errorf("invalid hash length window %d-%d", minLen, maxLen)
	}
	if alphabet == "" {
		return nil, fmt.Errorf("empty hash alphabet")
	}

	re, err := regexp.Compile(fmt.Sprintf(`\.[%s]{%d,%d}\.js$`, alphabet, minLen, maxLen))
	if err != nil {
		return nil, fmt.Errorf("invalid hash alphabet %q: %w", alphabet, err)
	}

	return &Matcher{
		alphabet: alphabet,
		minLen:   minLen,
		maxLen:   maxLen,
		hashRe:   re,
	}, nil
}

// Default returns the 8-20 hex character matcher.
func Default() *Matcher {
	m, _ := New(DefaultMinHashLength, DefaultMaxHashLength)
	return m
}

// ESBuild returns the matcher for names produced by esbuild's [hash]
// placeholder.
func ESBuild() *Matcher {
	m, _ := NewWithAlphabet(Base32Alphabet, ESBuildHashLength, ESBuildHashLength)
	return m
}

// Alphabet returns the hash character class.
func (m *Matcher) Alphabet() string {
	return m.alphabet
}

// Window returns the configured hash length bounds.
func (m *Matcher) Window() (int, int) {
	return m.minLen, m.maxLen
}

// Strip removes a hash segment placed between the basename and the .js
// suffix: `main.0123abcd.js` becomes `main.js`. Other names are returned
// unchanged.
func (m *Matcher) Strip(filename string) string {
	return m.hashRe.ReplaceAllString(filename, ".js")
}

// IsHashed reports whether filename carries a hash segment.
func (m *Matcher) IsHashed(filename string) bool {
	return m.Strip(filename) != filename
}

// IsWorkerAsset reports whether filename, with any hash segment removed, ends
// with `<chunkName>.js`.
func (m *Matcher) IsWorkerAsset(filename, chunkName string) bool {
	return strings.HasSuffix(m.Strip(filename), chunkName+".js")
}

// MatchesExclude reports whether any pattern matches filename.
func MatchesExclude(filename string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPartial(pattern, filename) {
			return true
		}
	}
	return false
}

// ValidatePatterns checks that every pattern is a valid doublestar glob.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("empty exclude pattern")
		}
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// matchPartial matches pattern against the whole path, against any trailing
// run of path segments, and, when the pattern is deeper than the path,
// against the pattern's leading segments.
func matchPartial(pattern, filename string) bool {
	if matched, err := doublestar.Match(pattern, filename); err == nil && matched {
		return true
	}

	patternSegments := strings.Split(pattern, "/")
	pathSegments := strings.Split(filename, "/")

	if len(patternSegments) < len(pathSegments) {
		for start := 1; start < len(pathSegments); start++ {
			suffix := strings.Join(pathSegments[start:], "/")
			if matched, err := doublestar.Match(pattern, suffix); err == nil && matched {
				return true
			}
		}
		return false
	}

	if len(patternSegments) > len(pathSegments) {
		for i, segment := range pathSegments {
			if patternSegments[i] == "**" {
				return true
			}
			matched, err := doublestar.Match(patternSegments[i], segment)
			if err != nil || !matched {
				return false
			}
		}
		return true
	}

	return false
}
