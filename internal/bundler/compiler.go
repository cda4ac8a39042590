package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsh-team/precache/internal/utils/files"
	"github.com/jsh-team/precache/internal/utils/logger"
)

// Compiler runs one build configuration.
type Compiler struct {
	Hooks CompilerHooks

	options Options
	log     zerolog.Logger
}

// NewCompiler normalizes opts and applies every plugin in order.
func NewCompiler(opts Options) (*Compiler, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.Context)
	}

	c := &Compiler{
		options: opts,
		log:     logger.With(map[string]string{"config": name}),
	}

	for _, plugin := range opts.Plugins {
		if err := plugin.Apply(c); err != nil {
			return nil, fmt.Errorf("failed to apply plugin %T: %w", plugin, err)
		}
	}

	return c, nil
}

// Options returns the normalized options.
func (c *Compiler) Options() Options {
	opts := c.options
	opts.Entry = slices.Clone(c.options.Entry)
	opts.Plugins = slices.Clone(c.options.Plugins)
	return opts
}

// Context is the directory entries resolve against.
func (c *Compiler) Context() string {
	return c.options.Context
}

// OutputPath is the absolute output directory.
func (c *Compiler) OutputPath() string {
	return c.options.Output.Path
}

// Plugins returns the configured plugin instances.
func (c *Compiler) Plugins() []Plugin {
	return slices.Clone(c.options.Plugins)
}

// Logger returns the compiler's configuration-scoped logger.
func (c *Compiler) Logger() zerolog.Logger {
	return c.log
}

// Run bundles every entry, runs the asset hooks and writes the output.
// Build problems are collected in the returned Stats; an error is only
// returned when the run could not finish.
func (c *Compiler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	entries := &Entries{context: c.options.Context, list: slices.Clone(c.options.Entry)}
	for _, t := range c.Hooks.EntryOption.taps {
		if err := t.fn(entries); err != nil {
			return nil, fmt.Errorf("%s: entry option: %w", t.name, err)
		}
	}

	for _, t := range c.Hooks.Environment.taps {
		if err := t.fn(ctx); err != nil {
			return nil, fmt.Errorf("%s: environment: %w", t.name, err)
		}
	}

	compilation := newCompilation(c)
	for _, t := range c.Hooks.ThisCompilation.taps {
		t.fn(compilation)
	}

	if err := c.seal(ctx, compilation, entries.List()); err != nil {
		return nil, err
	}
	compilation.processAssets()

	for _, t := range c.Hooks.Emit.taps {
		if err := t.fn(compilation); err != nil {
			compilation.ReportError(fmt.Errorf("%s: %w", t.name, err))
		}
	}

	if err := c.emitAssets(compilation); err != nil {
		return nil, err
	}

	stats := newStats(c, compilation, time.Since(start))
	for _, t := range c.Hooks.Done.taps {
		t.fn(stats)
	}

	c.log.Debug().Msgf("Compiled %d assets in %s", len(stats.Assets), stats.Duration)
	return stats, nil
}

// seal bundles the entries into chunks and emits their files.
func (c *Compiler) seal(ctx context.Context, compilation *Compilation, entries []EntryPoint) error {
	var bundles []*bundle
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := c.bundleEntry(entry)
		if err != nil {
			compilation.ReportError(err)
			continue
		}
		bundles = append(bundles, b)
	}

	compilation.fullHash = fullHash(bundles)

	for _, b := range bundles {
		chunk := &Chunk{Name: b.entry.Name, Hash: b.chunkHash}

		name := renderFilename(c.options.Output.Filename, templateData{
			name:        b.entry.Name,
			contentHash: b.contentHash,
			chunkHash:   b.chunkHash,
			fullHash:    compilation.fullHash,
		})

		script := b.script
		if b.sourceMap != nil {
			script = relinkSourceMap(script, b.placeholder, name)
		}

		if err := compilation.EmitAsset(name, script); err != nil {
			compilation.ReportError(fmt.Errorf("entry %s: %w", b.entry.Name, err))
			continue
		}
		chunk.Files = append(chunk.Files, name)

		if b.sourceMap != nil {
			if err := compilation.EmitAsset(name+".map", b.sourceMap); err != nil {
				compilation.ReportError(fmt.Errorf("entry %s: %w", b.entry.Name, err))
			} else {
				chunk.Files = append(chunk.Files, name+".map")
			}
		}

		compilation.chunks = append(compilation.chunks, chunk)
	}

	return nil
}

func (c *Compiler) emitAssets(compilation *Compilation) error {
	out := c.options.Output.Path
	if c.options.Output.Clean {
		if err := files.EmptyDirectory(out); err != nil {
			return fmt.Errorf("failed to clean %s: %w", out, err)
		}
	}

	for _, asset := range compilation.Assets() {
		if err := files.WriteFile(filepath.Join(out, filepath.FromSlash(asset.Name)), asset.Source); err != nil {
			return err
		}
	}
	return nil
}
