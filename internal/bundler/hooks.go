package bundler

import (
	"context"
	"sort"
)

// Process assets stages. Taps run in ascending stage order.
const (
	ProcessAssetsStageAdditional = -2000
	ProcessAssetsStagePreProcess = -1000
	ProcessAssetsStageOptimize   = 100
	ProcessAssetsStageSummarize  = 1000
	ProcessAssetsStageReport     = 5000
)

type tap[T any] struct {
	name string
	fn   T
}

// Hook is an ordered list of named callbacks.
type Hook[T any] struct {
	taps []tap[T]
}

func (h *Hook[T]) Tap(name string, fn T) {
	h.taps = append(h.taps, tap[T]{name: name, fn: fn})
}

// CompilerHooks are the lifecycle hooks of one Compiler run.
type CompilerHooks struct {
	// EntryOption runs before anything is bundled; taps may add entries.
	EntryOption Hook[func(entries *Entries) error]
	// Environment runs after plugins are applied. The compiler waits for every
	// tap to return before a compilation starts.
	Environment Hook[func(ctx context.Context) error]
	// ThisCompilation runs when a compilation is created.
	ThisCompilation Hook[func(c *Compilation)]
	// Emit runs before assets are written.
	Emit Hook[func(c *Compilation) error]
	// Done runs after assets are written.
	Done Hook[func(stats *Stats)]
}

// TapOptions configures a ProcessAssets tap.
type TapOptions struct {
	Name  string
	Stage int
	// AdditionalAssets runs the tap again when a later tap emits new assets.
	AdditionalAssets bool
}

type processAssetsTap struct {
	opts TapOptions
	fn   func(c *Compilation) error
}

// ProcessAssetsHook runs taps in stage order. Taps of the same stage keep
// their registration order.
type ProcessAssetsHook struct {
	taps []processAssetsTap
}

func (h *ProcessAssetsHook) Tap(opts TapOptions, fn func(c *Compilation) error) {
	h.taps = append(h.taps, processAssetsTap{opts: opts, fn: fn})
}

func (h *ProcessAssetsHook) sorted() []processAssetsTap {
	taps := make([]processAssetsTap, len(h.taps))
	copy(taps, h.taps)
	sort.SliceStable(taps, func(i, j int) bool {
		return taps[i].opts.Stage < taps[j].opts.Stage
	})
	return taps
}

// CompilationHooks are the hooks of one Compilation.
type CompilationHooks struct {
	ProcessAssets ProcessAssetsHook
}
