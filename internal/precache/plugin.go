// Package precache injects a precache manifest of the emitted build assets
// into a service-worker bundle. Plugin holds the host-agnostic lifecycle;
// adapters in internal/hosts wire it to a concrete bundler.
package precache

import (
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jsh-team/precache/internal/precache/injector"
	"github.com/jsh-team/precache/internal/precache/manifest"
	"github.com/jsh-team/precache/internal/precache/matcher"
	"github.com/jsh-team/precache/internal/utils/files"
	"github.com/jsh-team/precache/internal/utils/logger"
)

// Name identifies the plugin in host hook registrations and logs.
const Name = "InjectManifestPlugin"

// Plugin sequences the precache phases for one bundler configuration.
// Instances are never shared between configurations.
type Plugin struct {
	opts           Options
	outputFilename string
	matcher        *matcher.Matcher
	builder        *manifest.Builder
	injector       *injector.Injector
	log            zerolog.Logger

	html           []HTMLTarget
	htmlResolved   bool
	workerExpected bool
}

// Setting customizes a Plugin beyond its Options.
type Setting func(*Plugin)

// WithMatcher replaces the default 8-20 character hash matcher.
func WithMatcher(m *matcher.Matcher) Setting {
	return func(p *Plugin) {
		p.matcher = m
	}
}

// WithLogger sets the logger used for the plugin's events.
func WithLogger(l zerolog.Logger) Setting {
	return func(p *Plugin) {
		p.log = l
	}
}

// New validates opts and returns a Plugin. Empty fields take their defaults.
func New(opts Options, settings ...Setting) (*Plugin, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	inj, err := injector.New(opts.InjectionPoint)
	if err != nil {
		return nil, &ConfigurationError{Option: "injectionPoint", Reason: err.Error()}
	}

	p := &Plugin{
		opts:           opts,
		outputFilename: opts.OutputFilename(),
		matcher:        matcher.Default(),
		injector:       inj,
		log:            logger.With(map[string]string{"plugin": Name, "chunk": opts.ChunkName}),
	}
	for _, setting := range settings {
		setting(p)
	}
	p.builder = manifest.NewBuilder(p.matcher, opts.Exclude)

	return p, nil
}

// Options returns a copy of the validated options.
func (p *Plugin) Options() Options {
	opts := p.opts
	opts.Exclude = slices.Clone(p.opts.Exclude)
	return opts
}

// OutputFilename is the fixed name the worker is renamed to.
func (p *Plugin) OutputFilename() string {
	return p.outputFilename
}

// ChunkName is the entry name of the worker chunk.
func (p *Plugin) ChunkName() string {
	return p.opts.ChunkName
}

// RegisterEntry adds the worker file as an entry named after the chunk. It
// does nothing when an entry of that name exists or the file is missing on
// disk, and reports whether an entry was added. Each call starts a new build,
// so the worker expectation of an earlier run is dropped.
func (p *Plugin) RegisterEntry(r EntryRegistrar) (bool, error) {
	p.workerExpected = false
	if r.HasEntry(p.opts.ChunkName) {
		p.log.Debug().Msgf("Entry %s already configured, not registering %s", p.opts.ChunkName, p.opts.File)
		p.workerExpected = true
		return false, nil
	}

	file := p.opts.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(r.Context(), file)
	}

	if err := files.IsValidPath(file); err != nil {
		p.log.Debug().Msgf("Worker file %s not found, skipping entry registration", file)
		return false, nil
	}

	if err := r.AddEntry(p.opts.ChunkName, file); err != nil {
		return false, fmt.Errorf("failed to register worker entry %s: %w", p.opts.ChunkName, err)
	}

	p.workerExpected = true
	return true, nil
}

// WorkerExpected reports whether a worker chunk should exist in this build.
func (p *Plugin) WorkerExpected() bool {
	return p.workerExpected
}

// ResolveHTML records the HTML generators of the host once. A nil detector
// means the collaborator is absent.
func (p *Plugin) ResolveHTML(d HTMLDetector) {
	p.html = nil
	p.htmlResolved = true
	if d == nil {
		return
	}
	p.html = d.DetectHTMLPlugins()
}

// ExcludeFromHTML adds the worker chunk to the excluded chunks of every
// resolved HTML generator, creating the list when it is missing.
func (p *Plugin) ExcludeFromHTML() int {
	if !p.htmlResolved {
		return 0
	}

	updated := 0
	for _, target := range p.html {
		list := target.ExcludedChunks()
		if list == nil {
			continue
		}
		if slices.Contains(*list, p.opts.ChunkName) {
			continue
		}
		*list = append(*list, p.opts.ChunkName)
		updated++
	}
	return updated
}

// Result describes one asset processing pass.
type Result struct {
	Entries  []manifest.Entry
	Injected []string
}

// ProcessAssets builds the manifest from the host's current assets and
// injects it into every worker asset that still holds the marker. Each call
// works from the current snapshot only.
func (p *Plugin) ProcessAssets(h Host) (Result, error) {
	assets := h.ListAssets()
	chunkFiles := h.ChunkFiles(p.opts.ChunkName)

	workers := p.workerAssetNames(assets, chunkFiles)
	if len(workers) == 0 && len(chunkFiles) == 0 {
		if p.workerExpected {
			return Result{}, &WorkerNotFoundError{ChunkName: p.opts.ChunkName, Phase: "process assets"}
		}
		p.log.Debug().Msg("No worker asset in this compilation")
		return Result{}, nil
	}

	skip := append(slices.Clone(chunkFiles), workers...)
	entries := p.builder.Build(assets, skip)

	serialized, err := injector.Serialize(entries)
	if err != nil {
		return Result{}, err
	}

	result := Result{Entries: entries}
	for _, asset := range assets {
		if !slices.Contains(workers, asset.Name) {
			continue
		}

		out, ok := p.injector.Inject(string(asset.Content), serialized)
		if !ok {
			p.log.Debug().Msgf("Marker %s not found in %s", p.injector.Marker(), asset.Name)
			continue
		}

		if err := h.UpdateAsset(asset.Name, []byte(out)); err != nil {
			return result, fmt.Errorf("failed to update %s: %w", asset.Name, err)
		}
		result.Injected = append(result.Injected, asset.Name)
		p.log.Info().Msgf("Injected %d manifest entries into %s", len(entries), asset.Name)
	}

	return result, nil
}

// workerAssetNames returns the assets to scan for the marker: JavaScript
// files of the worker chunk and .js assets whose name, hash-stripped when
// RemoveHash is set, ends with the output filename.
func (p *Plugin) workerAssetNames(assets []manifest.Asset, chunkFiles []string) []string {
	var names []string
	for _, asset := range assets {
		if slices.Contains(names, asset.Name) {
			continue
		}

		if slices.Contains(chunkFiles, asset.Name) && isScript(asset.Name) {
			names = append(names, asset.Name)
			continue
		}

		if !strings.HasSuffix(asset.Name, ".js") {
			continue
		}
		name := asset.Name
		if p.opts.RemoveHash {
			name = p.matcher.Strip(name)
		}
		if strings.HasSuffix(name, p.outputFilename) {
			names = append(names, asset.Name)
		}
	}
	return names
}

// RenameWorker moves the worker chunk's script to the output filename so
// consumers can register it under a stable path.
func (p *Plugin) RenameWorker(h Host) error {
	primary := ""
	for _, name := range h.ChunkFiles(p.opts.ChunkName) {
		if isScript(name) {
			primary = name
			break
		}
	}

	if primary == "" && p.opts.RemoveHash {
		for _, asset := range h.ListAssets() {
			if p.matcher.IsWorkerAsset(asset.Name, p.opts.ChunkName) {
				primary = asset.Name
				break
			}
		}
	}

	if primary == "" {
		return &WorkerNotFoundError{ChunkName: p.opts.ChunkName, Phase: "rename"}
	}
	if primary == p.outputFilename {
		return nil
	}

	if err := h.RenameAsset(primary, p.outputFilename); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", primary, p.outputFilename, err)
	}
	p.log.Debug().Msgf("Renamed %s to %s", primary, p.outputFilename)
	return nil
}

func isScript(name string) bool {
	switch path.Ext(name) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}
