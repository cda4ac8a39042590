// Package manifest builds the ordered precache manifest from a snapshot of
// emitted assets.
package manifest

import (
	"github.com/jsh-team/precache/internal/precache/matcher"
)

// Builder turns asset snapshots into manifests. It keeps no state between
// calls, so a host may invoke it again whenever its asset set grows.
type Builder struct {
	matcher *matcher.Matcher
	exclude []string
}

// NewBuilder returns a Builder excluding names that match any of patterns.
func NewBuilder(m *matcher.Matcher, exclude []string) *Builder {
	patterns := make([]string, len(exclude))
	copy(patterns, exclude)

	return &Builder{
		matcher: m,
		exclude: patterns,
	}
}

// Build returns one entry per asset in snapshot order, leaving out the files
// of the worker chunk and every excluded name. Duplicate names keep their
// first position.
func (b *Builder) Build(assets []Asset, workerFiles []string) []Entry {
	skip := make(map[string]struct{}, len(workerFiles))
	for _, name := range workerFiles {
		skip[name] = struct{}{}
	}

	entries := make([]Entry, 0, len(assets))
	for _, asset := range assets {
		if _, ok := skip[asset.Name]; ok {
			continue
		}
		skip[asset.Name] = struct{}{}

		if matcher.MatchesExclude(asset.Name, b.exclude) {
			continue
		}

		entry := Entry{URL: asset.Name}
		if !b.matcher.IsHashed(asset.Name) {
			revision := Revision(asset.Content)
			entry.Revision = &revision
		}
		entries = append(entries, entry)
	}

	return entries
}
