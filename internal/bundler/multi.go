package bundler

import (
	"context"
	"fmt"
)

// MultiCompiler runs independent configurations one after another. Plugin
// instances belong to exactly one configuration.
type MultiCompiler struct {
	compilers []*Compiler
}

func NewMultiCompiler(configs []Options) (*MultiCompiler, error) {
	m := &MultiCompiler{}
	for i, opts := range configs {
		c, err := NewCompiler(opts)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
		m.compilers = append(m.compilers, c)
	}
	return m, nil
}

// Run runs every compiler. onDone, when set, is called after each
// configuration finishes.
func (m *MultiCompiler) Run(ctx context.Context, onDone func(*Stats)) ([]*Stats, error) {
	var all []*Stats
	for i, c := range m.compilers {
		stats, err := c.Run(ctx)
		if err != nil {
			return all, fmt.Errorf("configuration %d: %w", i, err)
		}
		all = append(all, stats)
		if onDone != nil {
			onDone(stats)
		}
	}
	return all, nil
}

// HasErrors reports whether any configuration had errors.
func HasErrors(stats []*Stats) bool {
	for _, s := range stats {
		if s.HasErrors() {
			return true
		}
	}
	return false
}
