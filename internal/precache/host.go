package precache

import "github.com/jsh-team/precache/internal/precache/manifest"

// Host is the view of a bundler's asset graph during one compilation pass.
// Each supported bundler provides its own implementation.
type Host interface {
	// ListAssets returns every emitted asset in emission order.
	ListAssets() []manifest.Asset
	// UpdateAsset replaces the content of an existing asset.
	UpdateAsset(name string, content []byte) error
	// RenameAsset moves an asset, keeping chunk membership intact.
	RenameAsset(oldName, newName string) error
	// ChunkFiles returns the output files of the named chunk.
	ChunkFiles(chunkName string) []string
}

// EntryRegistrar adds named entry points before compilation starts.
type EntryRegistrar interface {
	// Context is the directory relative entry paths resolve against.
	Context() string
	HasEntry(name string) bool
	AddEntry(name, file string) error
}

// HTMLTarget is an HTML generator whose excluded chunk list can be edited.
type HTMLTarget interface {
	// ExcludedChunks returns a pointer to the generator's list so it can be
	// created when nil.
	ExcludedChunks() *[]string
}

// HTMLDetector finds the HTML generators configured on a host.
type HTMLDetector interface {
	DetectHTMLPlugins() []HTMLTarget
}
