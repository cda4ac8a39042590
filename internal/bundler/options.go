// Package bundler is a small webpack-shaped compiler. It bundles every entry
// into its own chunk with esbuild and exposes the compiler and compilation
// hooks plugins tap into.
package bundler

import (
	"fmt"
	"os"
	"path/filepath"
)

type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

const (
	DefaultEntryName  = "main"
	DefaultEntry      = "./src/index.js"
	DefaultOutputPath = "dist"
	DefaultFilename   = "[name].js"
)

// EntryPoint is a named entry. Import is resolved against the context.
type EntryPoint struct {
	Name   string `json:"name" mapstructure:"name" yaml:"name"`
	Import string `json:"import" mapstructure:"import" yaml:"import"`
}

// Output controls where and under which names assets are written.
type Output struct {
	Path      string `json:"path" mapstructure:"path" yaml:"path"`
	Filename  string `json:"filename" mapstructure:"filename" yaml:"filename"`
	SourceMap bool   `json:"sourceMap" mapstructure:"sourceMap" yaml:"sourceMap"`
	Clean     bool   `json:"clean" mapstructure:"clean" yaml:"clean"`
}

// Options is one build configuration.
type Options struct {
	Name    string
	Context string
	Entry   []EntryPoint
	Output  Output
	Mode    Mode
	Plugins []Plugin
}

// Plugin is applied once when its Compiler is created.
type Plugin interface {
	Apply(c *Compiler) error
}

// normalize resolves paths and fills defaults.
func (o Options) normalize() (Options, error) {
	if o.Context == "" {
		wd, err := os.Getwd()
		if err != nil {
			return o, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		o.Context = wd
	}

	context, err := filepath.Abs(o.Context)
	if err != nil {
		return o, fmt.Errorf("failed to resolve context %s: %w", o.Context, err)
	}
	o.Context = context

	if len(o.Entry) == 0 {
		o.Entry = []EntryPoint{{Name: DefaultEntryName, Import: DefaultEntry}}
	} else {
		entries := make([]EntryPoint, len(o.Entry))
		copy(entries, o.Entry)
		o.Entry = entries
	}

	seen := map[string]bool{}
	for _, entry := range o.Entry {
		if entry.Name == "" || entry.Import == "" {
			return o, fmt.Errorf("entry %q needs both a name and an import", entry.Name)
		}
		if seen[entry.Name] {
			return o, fmt.Errorf("duplicate entry %q", entry.Name)
		}
		seen[entry.Name] = true
	}

	if o.Output.Path == "" {
		o.Output.Path = DefaultOutputPath
	}
	if !filepath.IsAbs(o.Output.Path) {
		o.Output.Path = filepath.Join(o.Context, o.Output.Path)
	}
	if o.Output.Filename == "" {
		o.Output.Filename = DefaultFilename
	}
	if err := validateTemplate(o.Output.Filename); err != nil {
		return o, err
	}

	switch o.Mode {
	case "":
		o.Mode = ModeProduction
	case ModeProduction, ModeDevelopment:
	default:
		return o, fmt.Errorf("unknown mode %q", o.Mode)
	}

	return o, nil
}
