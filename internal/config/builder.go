package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jsh-team/precache/internal/bundler"
	"github.com/jsh-team/precache/internal/hosts/bundlerhost"
	"github.com/jsh-team/precache/internal/hosts/esbuildhost"
	"github.com/jsh-team/precache/internal/htmlplugin"
	"github.com/jsh-team/precache/internal/precache"
	"github.com/jsh-team/precache/internal/utils/logger"
)

var hashPlaceholderRe = regexp.MustCompile(`\[(contenthash|chunkhash|fullhash|hash)(?::\d+)?\]`)

// DisplayName names the configuration in logs and reports.
func (b BuildConfig) DisplayName(index int) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("configuration %d", index)
}

// ContextDir resolves the configuration's context against dir.
func (b BuildConfig) ContextDir(dir string) string {
	if b.Context == "" {
		return dir
	}
	if filepath.IsAbs(b.Context) {
		return b.Context
	}
	return filepath.Join(dir, b.Context)
}

// Pages returns the HTML pages to generate.
func (b BuildConfig) Pages() []HTMLConfig {
	if b.DefaultHTML {
		return []HTMLConfig{{Filename: htmlplugin.DefaultFilename}}
	}
	return b.HTML
}

// PrecacheOptions decodes the plugin options. ok is false when the
// configuration has no precache block.
func (b BuildConfig) PrecacheOptions() (opts precache.Options, ok bool, err error) {
	if b.Precache == nil {
		return precache.Options{}, false, nil
	}
	opts, err = precache.DecodeOptions(b.Precache)
	return opts, true, err
}

func (b BuildConfig) newCore(index int, settings ...precache.Setting) (*precache.Plugin, error) {
	opts, ok, err := b.PrecacheOptions()
	if err != nil || !ok {
		return nil, err
	}

	log := logger.With(map[string]string{
		"config": b.DisplayName(index),
		"plugin": precache.Name,
		"chunk":  opts.ChunkName,
	})
	return precache.New(opts, append(settings, precache.WithLogger(log))...)
}

// BundlerOptions builds the options of every configuration for the bundler
// host.
func (c *Config) BundlerOptions() ([]bundler.Options, error) {
	var all []bundler.Options
	for i, build := range c.Configurations {
		opts, err := build.BundlerOptions(c.Dir, i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", build.DisplayName(i), err)
		}
		all = append(all, opts)
	}
	return all, nil
}

// BundlerOptions builds one bundler configuration with its plugins. Each
// call creates new plugin instances.
func (b BuildConfig) BundlerOptions(dir string, index int) (bundler.Options, error) {
	opts := bundler.Options{
		Name:    b.DisplayName(index),
		Context: b.ContextDir(dir),
		Entry:   b.Entry,
		Output:  b.Output,
		Mode:    bundler.Mode(b.Mode),
	}

	core, err := b.newCore(index)
	if err != nil {
		return opts, err
	}
	if core != nil {
		opts.Plugins = append(opts.Plugins, bundlerhost.Wrap(core))
	}

	for _, page := range b.Pages() {
		opts.Plugins = append(opts.Plugins, htmlplugin.New(htmlplugin.Options{
			Filename:      page.Filename,
			Title:         page.Title,
			ExcludeChunks: page.ExcludeChunks,
		}))
	}

	return opts, nil
}

// ESBuildOptions builds the esbuild options of one configuration. HTML pages
// are rendered by the precache plugin, so configurations without a precache
// block produce scripts only.
func (b BuildConfig) ESBuildOptions(dir string, index int) (api.BuildOptions, error) {
	entries := b.Entry
	if len(entries) == 0 {
		entries = []bundler.EntryPoint{{Name: bundler.DefaultEntryName, Import: bundler.DefaultEntry}}
	}

	var entryPoints []api.EntryPoint
	for _, entry := range entries {
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: entry.Import, OutputPath: entry.Name})
	}

	outdir := b.Output.Path
	if outdir == "" {
		outdir = bundler.DefaultOutputPath
	}

	production := b.Mode != string(bundler.ModeDevelopment)
	sourcemap := api.SourceMapNone
	if b.Output.SourceMap {
		sourcemap = api.SourceMapLinked
	}

	opts := api.BuildOptions{
		AbsWorkingDir:       b.ContextDir(dir),
		EntryPointsAdvanced: entryPoints,
		EntryNames:          EntryNames(b.Output.Filename),
		Outdir:              outdir,
		Bundle:              true,
		Write:               true,
		Format:              api.FormatIIFE,
		Platform:            api.PlatformBrowser,
		Sourcemap:           sourcemap,
		MinifyWhitespace:    production,
		MinifyIdentifiers:   production,
		MinifySyntax:        production,
		LogLevel:            api.LogLevelSilent,
	}

	core, err := b.newCore(index, esbuildhost.HashSetting())
	if err != nil {
		return opts, err
	}
	if core != nil {
		var templates []*htmlplugin.Template
		for _, page := range b.Pages() {
			templates = append(templates, &htmlplugin.Template{
				Filename:       page.Filename,
				Title:          page.Title,
				ExcludedChunks: page.ExcludeChunks,
			})
		}
		opts.Plugins = append(opts.Plugins, esbuildhost.New(core, esbuildhost.Options{HTML: templates}))
	}

	return opts, nil
}

// EntryNames converts a bundler filename template to esbuild's entry names
// template. esbuild has a single [hash] placeholder and adds the extension
// itself.
func EntryNames(filename string) string {
	if filename == "" {
		filename = bundler.DefaultFilename
	}
	names := hashPlaceholderRe.ReplaceAllString(filename, "[hash]")
	return strings.TrimSuffix(names, ".js")
}
