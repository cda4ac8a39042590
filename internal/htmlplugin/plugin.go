package htmlplugin

import (
	"fmt"

	"github.com/jsh-team/precache/internal/bundler"
)

// Name identifies the plugin in hook registrations.
const Name = "HtmlPlugin"

// Options configures one generated page of the bundler host.
type Options struct {
	Filename      string   `json:"filename" mapstructure:"filename" yaml:"filename"`
	Title         string   `json:"title" mapstructure:"title" yaml:"title"`
	ExcludeChunks []string `json:"excludeChunks" mapstructure:"excludeChunks" yaml:"excludeChunks"`
}

// Plugin emits one HTML page per instance. Several instances may be added to
// the same configuration.
type Plugin struct {
	options Options
}

func New(opts Options) *Plugin {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	if opts.ExcludeChunks != nil {
		opts.ExcludeChunks = append([]string(nil), opts.ExcludeChunks...)
	}
	return &Plugin{options: opts}
}

// Options exposes the live options so other plugins can edit them before
// the compilation starts.
func (p *Plugin) Options() *Options {
	return &p.options
}

// ExcludedChunks returns the excluded chunk list for editing.
func (p *Plugin) ExcludedChunks() *[]string {
	return &p.options.ExcludeChunks
}

func (p *Plugin) Apply(c *bundler.Compiler) error {
	c.Hooks.ThisCompilation.Tap(Name, func(compilation *bundler.Compilation) {
		compilation.Hooks.ProcessAssets.Tap(bundler.TapOptions{
			Name:  Name,
			Stage: bundler.ProcessAssetsStageAdditional,
		}, p.emit)
	})
	return nil
}

func (p *Plugin) emit(compilation *bundler.Compilation) error {
	var chunks []Chunk
	for _, chunk := range compilation.Chunks() {
		chunks = append(chunks, Chunk{Name: chunk.Name, Files: chunk.Files})
	}

	page, err := Render(Page{
		Title:   p.options.Title,
		Scripts: SelectScripts(chunks, p.options.ExcludeChunks),
	})
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", p.options.Filename, err)
	}

	return compilation.EmitAsset(p.options.Filename, page)
}
