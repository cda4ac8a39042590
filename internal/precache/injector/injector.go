// Package injector serializes a manifest and substitutes it for the
// injection marker inside a worker's source text.
package injector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jsh-team/precache/internal/precache/manifest"
)

// Injector replaces the first match of a marker pattern. The marker is used
// as a regular expression verbatim; escaping metacharacters is up to whoever
// configures it.
type Injector struct {
	marker string
	re     *regexp.Regexp
}

// New compiles marker.
func New(marker string) (*Injector, error) {
	if marker == "" {
		return nil, fmt.Errorf("empty injection marker")
	}

	re, err := regexp.Compile(marker)
	if err != nil {
		return nil, fmt.Errorf("invalid injection marker %q: %w", marker, err)
	}

	return &Injector{marker: marker, re: re}, nil
}

// Marker returns the configured marker pattern.
func (i *Injector) Marker() string {
	return i.marker
}

// Contains reports whether source holds the marker.
func (i *Injector) Contains(source string) bool {
	return i.re.MatchString(source)
}

// Inject replaces the first marker match in source with serialized. The
// replacement is inserted literally. When the marker is absent source is
// returned unchanged and ok is false.
func (i *Injector) Inject(source, serialized string) (string, bool) {
	loc := i.re.FindStringIndex(source)
	if loc == nil {
		return source, false
	}

	var b strings.Builder
	b.Grow(len(source) - (loc[1] - loc[0]) + len(serialized))
	b.WriteString(source[:loc[0]])
	b.WriteString(serialized)
	b.WriteString(source[loc[1]:])
	return b.String(), true
}

// Serialize renders entries as a JSON array and swaps every double quote for
// a single quote. Worker sources built in development mode wrap modules in
// double-quoted eval strings, and downstream runtimes expect exactly this
// single-quoted text.
func Serialize(entries []manifest.Entry) (string, error) {
	if entries == nil {
		entries = []manifest.Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	text := strings.TrimSuffix(buf.String(), "\n")
	return strings.ReplaceAll(text, `"`, `'`), nil
}

// Inject serializes entries and substitutes them for marker in source.
func Inject(source, marker string, entries []manifest.Entry) (string, bool, error) {
	i, err := New(marker)
	if err != nil {
		return source, false, err
	}

	serialized, err := Serialize(entries)
	if err != nil {
		return source, false, err
	}

	out, ok := i.Inject(source, serialized)
	return out, ok, nil
}
