// Package esbuildhost runs the precache plugin as an esbuild plugin.
package esbuildhost

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jsh-team/precache/internal/htmlplugin"
	"github.com/jsh-team/precache/internal/precache"
	"github.com/jsh-team/precache/internal/precache/matcher"
	"github.com/jsh-team/precache/internal/utils/files"
)

// Options configures the esbuild side of the plugin.
type Options struct {
	// HTML lists the pages generated after the build. Every template gets the
	// worker chunk added to its excluded chunks.
	HTML []*htmlplugin.Template
}

type plugin struct {
	core *precache.Plugin
	opts Options

	build   *api.BuildOptions
	workDir string
	outDir  string
	write   bool
}

// HashSetting makes a core built for this host recognize the names esbuild's
// [hash] placeholder produces.
func HashSetting() precache.Setting {
	return precache.WithMatcher(matcher.ESBuild())
}

// New returns an esbuild plugin driving core. The plugin forces Metafile on
// and Write off, and writes the output itself when the caller asked for it.
func New(core *precache.Plugin, opts Options) api.Plugin {
	p := &plugin{core: core, opts: opts}
	return api.Plugin{
		Name:  precache.Name,
		Setup: p.setup,
	}
}

func (p *plugin) setup(build api.PluginBuild) {
	p.build = build.InitialOptions

	p.workDir = p.build.AbsWorkingDir
	if p.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			p.workDir = wd
		}
	}

	p.outDir = p.build.Outdir
	if p.outDir == "" && p.build.Outfile != "" {
		p.outDir = filepath.Dir(p.build.Outfile)
	}
	if p.outDir != "" && !filepath.IsAbs(p.outDir) {
		p.outDir = filepath.Join(p.workDir, p.outDir)
	}

	p.write = p.build.Write
	p.build.Write = false
	p.build.Metafile = true

	var registerErr error
	if _, err := p.core.RegisterEntry(&registrar{plugin: p}); err != nil {
		registerErr = err
	}

	var detector precache.HTMLDetector
	if len(p.opts.HTML) > 0 {
		detector = templates(p.opts.HTML)
	}
	p.core.ResolveHTML(detector)
	p.core.ExcludeFromHTML()

	build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
		if registerErr != nil {
			return api.OnEndResult{Errors: []api.Message{message(registerErr)}}, nil
		}
		return p.onEnd(result), nil
	})
}

func (p *plugin) onEnd(result *api.BuildResult) api.OnEndResult {
	var out api.OnEndResult
	if len(result.Errors) > 0 {
		return out
	}

	h, err := p.newHost(result)
	if err != nil {
		out.Errors = append(out.Errors, message(err))
		return out
	}

	for _, tmpl := range p.opts.HTML {
		name, page, err := tmpl.Generate(h.htmlChunks())
		if err != nil {
			out.Errors = append(out.Errors, message(err))
			continue
		}
		if err := h.emit(name, page); err != nil {
			out.Errors = append(out.Errors, message(err))
		}
	}

	if _, err := p.core.ProcessAssets(h); err != nil {
		out.Errors = append(out.Errors, message(err))
	}

	if err := p.core.RenameWorker(h); err != nil {
		var notFound *precache.WorkerNotFoundError
		switch {
		case !errors.As(err, &notFound):
			out.Errors = append(out.Errors, message(err))
		case p.core.WorkerExpected():
			out.Warnings = append(out.Warnings, message(err))
		}
	}

	result.OutputFiles = h.outputFiles()

	if p.write {
		for _, file := range result.OutputFiles {
			if err := files.WriteFile(file.Path, file.Contents); err != nil {
				out.Errors = append(out.Errors, message(err))
			}
		}
	}

	return out
}

func message(err error) api.Message {
	return api.Message{PluginName: precache.Name, Text: err.Error()}
}

// registrar adds the worker to the initial build options.
type registrar struct {
	plugin *plugin
}

func (r *registrar) Context() string {
	return r.plugin.workDir
}

func (r *registrar) HasEntry(name string) bool {
	for _, entry := range r.plugin.entries() {
		if entry.name == name {
			return true
		}
	}
	return false
}

func (r *registrar) AddEntry(name, file string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("entry name is empty")
	}
	r.plugin.build.EntryPointsAdvanced = append(r.plugin.build.EntryPointsAdvanced, api.EntryPoint{
		InputPath:  file,
		OutputPath: name,
	})
	return nil
}

type namedEntry struct {
	name  string
	input string
}

// entries lists the configured entry points with their chunk names and
// input paths relative to the working directory, as the metafile reports
// them.
func (p *plugin) entries() []namedEntry {
	var list []namedEntry
	for _, input := range p.build.EntryPoints {
		list = append(list, namedEntry{name: baseName(input), input: p.relativeInput(input)})
	}
	for _, entry := range p.build.EntryPointsAdvanced {
		name := entry.OutputPath
		if name == "" {
			name = baseName(entry.InputPath)
		}
		list = append(list, namedEntry{name: name, input: p.relativeInput(entry.InputPath)})
	}
	return list
}

func (p *plugin) relativeInput(input string) string {
	if filepath.IsAbs(input) {
		if rel, err := filepath.Rel(p.workDir, input); err == nil {
			input = rel
		}
	}
	return filepath.ToSlash(filepath.Clean(input))
}

func baseName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type templates []*htmlplugin.Template

func (t templates) DetectHTMLPlugins() []precache.HTMLTarget {
	targets := make([]precache.HTMLTarget, 0, len(t))
	for _, tmpl := range t {
		targets = append(targets, templateTarget{tmpl})
	}
	return targets
}

type templateTarget struct {
	tmpl *htmlplugin.Template
}

func (t templateTarget) ExcludedChunks() *[]string {
	return t.tmpl.Excluded()
}
