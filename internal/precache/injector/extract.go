package injector

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jsh-team/precache/internal/precache/manifest"
)

var serializedRe = regexp.MustCompile(`\[\{'url':'[^']*','revision':(?:'[0-9a-f]{32}'|null)\}(?:,\{'url':'[^']*','revision':(?:'[0-9a-f]{32}'|null)\})*\]`)

// Extract finds the first non-empty serialized manifest in a built worker
// and decodes it. A worker holding only an empty array yields an empty
// manifest, since every asset may have been excluded.
func Extract(source string) ([]manifest.Entry, error) {
	snippet := serializedRe.FindString(source)
	if snippet == "" {
		if strings.Contains(source, "[]") {
			return []manifest.Entry{}, nil
		}
		return nil, fmt.Errorf("no injected manifest found")
	}

	var entries []manifest.Entry
	if err := json.Unmarshal([]byte(strings.ReplaceAll(snippet, "'", `"`)), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return entries, nil
}
