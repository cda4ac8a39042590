// Package bundlerhost attaches the precache plugin to the in-repo bundler.
package bundlerhost

import (
	"context"
	"errors"
	"slices"

	"github.com/jsh-team/precache/internal/bundler"
	"github.com/jsh-team/precache/internal/htmlplugin"
	"github.com/jsh-team/precache/internal/precache"
	"github.com/jsh-team/precache/internal/precache/manifest"
)

// Plugin is a bundler.Plugin driving one precache.Plugin.
type Plugin struct {
	core *precache.Plugin
}

// New validates opts and returns a plugin for one configuration.
func New(opts precache.Options, settings ...precache.Setting) (*Plugin, error) {
	core, err := precache.New(opts, settings...)
	if err != nil {
		return nil, err
	}
	return &Plugin{core: core}, nil
}

// Wrap attaches an existing precache plugin to the bundler.
func Wrap(core *precache.Plugin) *Plugin {
	return &Plugin{core: core}
}

// Core returns the host-agnostic plugin.
func (p *Plugin) Core() *precache.Plugin {
	return p.core
}

func (p *Plugin) Apply(c *bundler.Compiler) error {
	c.Hooks.EntryOption.Tap(precache.Name, func(entries *bundler.Entries) error {
		_, err := p.core.RegisterEntry(entries)
		return err
	})

	c.Hooks.Environment.Tap(precache.Name, func(ctx context.Context) error {
		p.core.ResolveHTML(detectHTML(c))
		p.core.ExcludeFromHTML()
		return nil
	})

	c.Hooks.ThisCompilation.Tap(precache.Name, func(compilation *bundler.Compilation) {
		compilation.Hooks.ProcessAssets.Tap(bundler.TapOptions{
			Name:             precache.Name,
			Stage:            bundler.ProcessAssetsStageSummarize,
			AdditionalAssets: true,
		}, func(compilation *bundler.Compilation) error {
			_, err := p.core.ProcessAssets(&host{compilation: compilation})
			return err
		})
	})

	c.Hooks.Emit.Tap(precache.Name, func(compilation *bundler.Compilation) error {
		err := p.core.RenameWorker(&host{compilation: compilation})

		var notFound *precache.WorkerNotFoundError
		if errors.As(err, &notFound) {
			if p.core.WorkerExpected() {
				compilation.ReportWarning(err)
			}
			return nil
		}
		return err
	})

	return nil
}

// detectHTML returns nil when the configuration has no HTML plugin.
func detectHTML(c *bundler.Compiler) precache.HTMLDetector {
	var targets []precache.HTMLTarget
	for _, plugin := range c.Plugins() {
		if page, ok := plugin.(*htmlplugin.Plugin); ok {
			targets = append(targets, page)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	return htmlTargets(targets)
}

type htmlTargets []precache.HTMLTarget

func (t htmlTargets) DetectHTMLPlugins() []precache.HTMLTarget {
	return t
}

// host exposes a compilation to the precache plugin.
type host struct {
	compilation *bundler.Compilation
}

func (h *host) ListAssets() []manifest.Asset {
	var assets []manifest.Asset
	for _, asset := range h.compilation.Assets() {
		assets = append(assets, manifest.Asset{Name: asset.Name, Content: asset.Source})
	}
	return assets
}

func (h *host) UpdateAsset(name string, content []byte) error {
	return h.compilation.UpdateAsset(name, content)
}

func (h *host) RenameAsset(oldName, newName string) error {
	return h.compilation.RenameAsset(oldName, newName)
}

func (h *host) ChunkFiles(chunkName string) []string {
	chunk := h.compilation.Chunk(chunkName)
	if chunk == nil {
		return nil
	}
	return slices.Clone(chunk.Files)
}
