package bundler

import (
	"time"
)

// Stats summarizes a finished run.
type Stats struct {
	Name     string
	Errors   []error
	Warnings []error
	// Assets are the written asset names in emission order.
	Assets   []string
	Chunks   []Chunk
	Duration time.Duration
}

func newStats(c *Compiler, compilation *Compilation, duration time.Duration) *Stats {
	stats := &Stats{
		Name:     c.options.Name,
		Errors:   compilation.Errors,
		Warnings: compilation.Warnings,
		Assets:   compilation.AssetNames(),
		Duration: duration,
	}
	for _, chunk := range compilation.chunks {
		copied := *chunk
		copied.Files = append([]string(nil), chunk.Files...)
		stats.Chunks = append(stats.Chunks, copied)
	}
	return stats
}

func (s *Stats) HasErrors() bool {
	return len(s.Errors) > 0
}

func (s *Stats) HasWarnings() bool {
	return len(s.Warnings) > 0
}
