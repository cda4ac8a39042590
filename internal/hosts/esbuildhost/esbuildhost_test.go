package esbuildhost

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jsh-team/precache/internal/htmlplugin"
	"github.com/jsh-team/precache/internal/precache"
	"github.com/jsh-team/precache/internal/precache/injector"
	"github.com/jsh-team/precache/internal/precache/manifest"
	"github.com/jsh-team/precache/internal/utils/files"
)

var manifestRe = regexp.MustCompile(`\[[^\]]*(?:\{'url':'[^']*.*','revision':'[a-f0-9]{32}'\}[^\]]*)+\]`)

func findManifest(t *testing.T, source string) map[string]*string {
	t.Helper()

	result := map[string]*string{}
	snippet := manifestRe.FindString(source)
	if snippet == "" {
		return result
	}

	var entries []manifest.Entry
	if err := json.Unmarshal([]byte(strings.ReplaceAll(snippet, "'", `"`)), &entries); err != nil {
		t.Fatalf("failed to parse manifest %s: %v", snippet, err)
	}
	for _, entry := range entries {
		result[entry.URL] = entry.Revision
	}
	return result
}

func prepare(t *testing.T, fixtures map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtures {
		if err := files.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newCore(t *testing.T, opts precache.Options) *precache.Plugin {
	t.Helper()
	core, err := precache.New(opts)
	if err != nil {
		t.Fatalf("precache.New: %v", err)
	}
	return core
}

func build(t *testing.T, dir string, opts api.BuildOptions, plugins ...api.Plugin) api.BuildResult {
	t.Helper()
	opts.AbsWorkingDir = dir
	if opts.Outdir == "" {
		opts.Outdir = "dist"
	}
	opts.Bundle = true
	opts.Write = true
	opts.LogLevel = api.LogLevelSilent
	opts.Plugins = plugins
	return api.Build(opts)
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(content)
}

func distFiles(t *testing.T, dir string) string {
	t.Helper()
	names, err := files.ListFiles(filepath.Join(dir, "dist"))
	if err != nil {
		t.Fatal(err)
	}
	return strings.Join(names, ",")
}

func mainEntry() []api.EntryPoint {
	return []api.EntryPoint{{InputPath: "./index.js", OutputPath: "main"}}
}

func TestManifestIsInjected(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log('main-entry')",
		"service-worker.js": "console.log('Hello World!', self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{}), Options{HTML: []*htmlplugin.Template{{}}}))

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if got := distFiles(t, dir); got != "index.html,main.js,service-worker.js" {
		t.Errorf("unexpected dist files %s", got)
	}

	html := readFile(t, dir, "dist/index.html")
	if !strings.Contains(html, "main.js") || strings.Contains(html, "service-worker.js") {
		t.Errorf("expected index.html to load main.js only, got %s", html)
	}

	worker := readFile(t, dir, "dist/service-worker.js")
	if !strings.Contains(worker, "Hello World!") || strings.Contains(worker, "main-entry") {
		t.Errorf("unexpected worker %s", worker)
	}

	found := findManifest(t, worker)
	if len(found) != 2 || found["main.js"] == nil || found["index.html"] == nil {
		t.Fatalf("expected main.js and index.html, got %v", found)
	}
	if want := manifest.Revision([]byte(readFile(t, dir, "dist/main.js"))); *found["main.js"] != want {
		t.Errorf("expected revision %s, got %s", want, *found["main.js"])
	}

	var inResult bool
	for _, file := range result.OutputFiles {
		if file.Path == filepath.Join(dir, "dist", "service-worker.js") {
			inResult = strings.Contains(string(file.Contents), "'revision'")
		}
	}
	if !inResult {
		t.Error("expected the result to carry the injected worker")
	}
}

func TestWriteFalseLeavesDiskUntouched(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "",
		"service-worker.js": "console.log(self.INJECT_MANIFEST_PLUGIN)",
	})

	result := api.Build(api.BuildOptions{
		AbsWorkingDir:       dir,
		EntryPointsAdvanced: mainEntry(),
		Outdir:              "dist",
		Bundle:              true,
		LogLevel:            api.LogLevelSilent,
		Plugins:             []api.Plugin{New(newCore(t, precache.Options{}), Options{})},
	})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if _, err := os.Stat(filepath.Join(dir, "dist")); !os.IsNotExist(err) {
		t.Error("expected nothing to be written")
	}
	if len(result.OutputFiles) != 2 {
		t.Errorf("expected 2 output files, got %d", len(result.OutputFiles))
	}
}

func TestFilesCanBeExcluded(t *testing.T) {
	dir := prepare(t, map[string]string{
		"first.js":             "console.log('main-entry')",
		"second.js":            "console.log('second-entry')",
		"nested/third.js":      "console.log('third-entry')",
		"nested/fourth.js":     "console.log('fourth-entry')",
		"nested/deep/fifth.js": "console.log('fifth-entry')",
		"service-worker.js":    "console.log(self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: []api.EntryPoint{
		{InputPath: "./first.js", OutputPath: "main"},
		{InputPath: "./second.js", OutputPath: "second"},
		{InputPath: "./nested/third.js", OutputPath: "third"},
		{InputPath: "./nested/fourth.js", OutputPath: "fourth"},
		{InputPath: "./nested/deep/fifth.js", OutputPath: "fifth"},
	}}, New(newCore(t, precache.Options{Exclude: []string{"second*", "third.*", "four*.*", "fifth.ts"}}), Options{}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	found := findManifest(t, readFile(t, dir, "dist/service-worker.js"))
	if len(found) != 2 || found["main.js"] == nil || found["fifth.js"] == nil {
		t.Errorf("expected main.js and fifth.js, got %v", found)
	}
}

func TestEveryTemplateExcludesWorker(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log('main-entry')",
		"service-worker.js": "console.log(self.INJECT_MANIFEST_PLUGIN)",
	})

	second := &htmlplugin.Template{Title: "Second", Filename: "second.html", ExcludedChunks: []string{"service-worker"}}
	templates := []*htmlplugin.Template{{}, second}

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{}), Options{HTML: templates}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if got := distFiles(t, dir); got != "index.html,main.js,second.html,service-worker.js" {
		t.Errorf("unexpected dist files %s", got)
	}
	for _, page := range []string{"index.html", "second.html"} {
		if strings.Contains(readFile(t, dir, "dist/"+page), "service-worker.js") {
			t.Errorf("expected %s not to load the worker", page)
		}
	}
	if len(second.ExcludedChunks) != 1 {
		t.Errorf("expected no duplicate exclusion, got %v", second.ExcludedChunks)
	}
	if templates[0].ExcludedChunks[0] != "service-worker" {
		t.Errorf("expected exclusion list to be created, got %v", templates[0].ExcludedChunks)
	}
}

func TestWorkerCustomPathAndChunkName(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":         "",
		"nested/worker.js": "console.log(replace_me)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{
			File:           filepath.Join(dir, "nested", "worker.js"),
			ChunkName:      "sw",
			InjectionPoint: "replace_me",
		}), Options{}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if got := distFiles(t, dir); got != "main.js,sw.js" {
		t.Errorf("unexpected dist files %s", got)
	}
	found := findManifest(t, readFile(t, dir, "dist/sw.js"))
	if len(found) != 1 || found["main.js"] == nil {
		t.Errorf("expected main.js only, got %v", found)
	}
}

func TestHashedWorkerIsRenamed(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log('entry')",
		"service-worker.js": "console.log('worker', self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{
		EntryPointsAdvanced: mainEntry(),
		EntryNames:          "[name]-[hash]",
		Sourcemap:           api.SourceMapLinked,
	}, New(newCore(t, precache.Options{RemoveHash: true}), Options{}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	names, err := files.ListFiles(filepath.Join(dir, "dist"))
	if err != nil {
		t.Fatal(err)
	}

	var worker bool
	for _, name := range names {
		if name == "service-worker.js" {
			worker = true
		}
	}
	if !worker {
		t.Fatalf("expected service-worker.js, got %v", names)
	}

	found := findManifest(t, readFile(t, dir, "dist/service-worker.js"))
	for url := range found {
		if strings.HasPrefix(url, "service-worker") {
			t.Errorf("expected worker files outside the manifest, got %s", url)
		}
	}
	if len(found) != 2 {
		t.Errorf("expected the main chunk and its map, got %v", found)
	}
}

func TestESBuildHashedNamesHaveNullRevision(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log('entry')",
		"service-worker.js": "console.log('worker', self.INJECT_MANIFEST_PLUGIN)",
	})

	core, err := precache.New(precache.Options{RemoveHash: true}, HashSetting())
	if err != nil {
		t.Fatalf("precache.New: %v", err)
	}

	result := build(t, dir, api.BuildOptions{
		EntryPointsAdvanced: mainEntry(),
		EntryNames:          "[name].[hash]",
	}, New(core, Options{HTML: []*htmlplugin.Template{{}}}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	entries, err := injector.Extract(readFile(t, dir, "dist/service-worker.js"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected the main chunk and index.html, got %+v", entries)
	}

	hashedName := regexp.MustCompile(`^main\.[A-Z2-7]{8}\.js$`)
	for _, entry := range entries {
		switch {
		case hashedName.MatchString(entry.URL):
			if entry.Revision != nil {
				t.Errorf("expected null revision for %s, got %s", entry.URL, *entry.Revision)
			}
		case entry.URL == "index.html":
			if entry.Revision == nil {
				t.Error("expected a revision for index.html")
			}
		default:
			t.Errorf("unexpected entry %s", entry.URL)
		}
	}
}

func TestInjectionOnlyIntoWorker(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log(self.INJECT_MANIFEST_PLUGIN)",
		"service-worker.js": "console.log(self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{}), Options{}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	if found := findManifest(t, readFile(t, dir, "dist/main.js")); len(found) != 0 {
		t.Errorf("expected no manifest in main.js, got %v", found)
	}
	if !strings.Contains(readFile(t, dir, "dist/main.js"), "INJECT_MANIFEST_PLUGIN") {
		t.Error("expected the marker to stay in main.js")
	}
}

func TestMissingWorkerFileIsSkipped(t *testing.T) {
	dir := prepare(t, map[string]string{"index.js": ""})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{}), Options{}))

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		t.Errorf("expected a clean build, got %v %v", result.Errors, result.Warnings)
	}
	if got := distFiles(t, dir); got != "main.js" {
		t.Errorf("unexpected dist files %s", got)
	}
}

func TestExistingEntryIsKept(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "",
		"custom-worker.js":  "console.log('custom', self.INJECT_MANIFEST_PLUGIN)",
		"service-worker.js": "console.log('default', self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: []api.EntryPoint{
		{InputPath: "./index.js", OutputPath: "main"},
		{InputPath: "./custom-worker.js", OutputPath: "service-worker"},
	}}, New(newCore(t, precache.Options{}), Options{}))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	worker := readFile(t, dir, "dist/service-worker.js")
	if !strings.Contains(worker, "custom") || strings.Contains(worker, "default") {
		t.Errorf("expected the configured worker entry, got %s", worker)
	}
	if found := findManifest(t, worker); len(found) != 1 {
		t.Errorf("expected main.js only, got %v", found)
	}
}

func TestBuildErrorsSkipProcessing(t *testing.T) {
	dir := prepare(t, map[string]string{
		"index.js":          "console.log(",
		"service-worker.js": "console.log(self.INJECT_MANIFEST_PLUGIN)",
	})

	result := build(t, dir, api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		New(newCore(t, precache.Options{}), Options{}))

	if len(result.Errors) == 0 {
		t.Fatal("expected the syntax error to be reported")
	}
	for _, msg := range result.Errors {
		if msg.PluginName == precache.Name {
			t.Errorf("expected no plugin errors on a failed build, got %s", msg.Text)
		}
	}
}

func TestHostRename(t *testing.T) {
	h := &host{outDir: "/out", chunks: map[string][]string{"service-worker": {"service-worker-ABCD.js"}}}
	if err := h.emit("service-worker-ABCD.js", []byte("w")); err != nil {
		t.Fatal(err)
	}
	if err := h.emit("service-worker-ABCD.js", nil); err == nil {
		t.Error("expected duplicate output to fail")
	}

	if err := h.RenameAsset("service-worker-ABCD.js", "service-worker.js"); err != nil {
		t.Fatalf("RenameAsset: %v", err)
	}
	if chunkFiles := h.ChunkFiles("service-worker"); chunkFiles[0] != "service-worker.js" {
		t.Errorf("expected chunk to follow rename, got %v", chunkFiles)
	}
	if path := h.outputFiles()[0].Path; path != filepath.Join("/out", "service-worker.js") {
		t.Errorf("unexpected path %s", path)
	}

	err := h.UpdateAsset("missing.js", nil)
	var notFound *precache.WorkerNotFoundError
	if err == nil || errors.As(err, &notFound) {
		t.Errorf("expected a plain error for a missing output, got %v", err)
	}
}

func TestChunkFilesFollowOutputOrder(t *testing.T) {
	p := &plugin{
		build:   &api.BuildOptions{EntryPointsAdvanced: mainEntry()},
		workDir: "/work",
		outDir:  "/work/dist",
	}
	result := &api.BuildResult{
		OutputFiles: []api.OutputFile{
			{Path: "/work/dist/main.js"},
			{Path: "/work/dist/main.css"},
			{Path: "/work/dist/chunk-X.js"},
		},
		Metafile: `{"outputs":{
			"dist/main.js":{"entryPoint":"index.js"},
			"dist/chunk-X.js":{},
			"dist/main.css":{"entryPoint":"index.js"}
		}}`,
	}

	for i := 0; i < 20; i++ {
		h, err := p.newHost(result)
		if err != nil {
			t.Fatalf("newHost: %v", err)
		}
		if got := strings.Join(h.ChunkFiles("main"), ","); got != "main.css,main.js" {
			t.Fatalf("expected main.css,main.js, got %s", got)
		}
	}
}
