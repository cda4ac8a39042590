package bundler

import (
	"fmt"
	"slices"
)

// Asset is an emitted output file.
type Asset struct {
	Name   string
	Source []byte
}

// Chunk is the output of one entry.
type Chunk struct {
	Name  string
	Files []string
	// Hash is the chunk's content hash before filename templating.
	Hash string
}

// Compilation holds the assets and chunks of one build.
type Compilation struct {
	Hooks CompilationHooks

	compiler *Compiler
	names    []string
	assets   map[string][]byte
	chunks   []*Chunk
	fullHash string
	emitted  int

	Errors   []error
	Warnings []error
}

func newCompilation(c *Compiler) *Compilation {
	return &Compilation{
		compiler: c,
		assets:   map[string][]byte{},
	}
}

// Compiler returns the compiler running this compilation.
func (c *Compilation) Compiler() *Compiler {
	return c.compiler
}

// FullHash is the hash over every chunk of the compilation.
func (c *Compilation) FullHash() string {
	return c.fullHash
}

// EmitAsset adds a new asset at the end of the asset order.
func (c *Compilation) EmitAsset(name string, source []byte) error {
	if name == "" {
		return fmt.Errorf("asset name is empty")
	}
	if _, ok := c.assets[name]; ok {
		return fmt.Errorf("asset %s already exists", name)
	}
	c.names = append(c.names, name)
	c.assets[name] = source
	c.emitted++
	return nil
}

// UpdateAsset replaces the source of an existing asset in place.
func (c *Compilation) UpdateAsset(name string, source []byte) error {
	if _, ok := c.assets[name]; !ok {
		return fmt.Errorf("asset %s not found", name)
	}
	c.assets[name] = source
	return nil
}

// RenameAsset moves an asset to a new name, keeping its position and chunk
// membership.
func (c *Compilation) RenameAsset(oldName, newName string) error {
	source, ok := c.assets[oldName]
	if !ok {
		return fmt.Errorf("asset %s not found", oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, ok := c.assets[newName]; ok {
		return fmt.Errorf("asset %s already exists", newName)
	}

	delete(c.assets, oldName)
	c.assets[newName] = source
	c.names[slices.Index(c.names, oldName)] = newName

	for _, chunk := range c.chunks {
		if i := slices.Index(chunk.Files, oldName); i >= 0 {
			chunk.Files[i] = newName
		}
	}
	return nil
}

// DeleteAsset removes an asset and drops it from every chunk.
func (c *Compilation) DeleteAsset(name string) {
	if _, ok := c.assets[name]; !ok {
		return
	}
	delete(c.assets, name)
	c.names = slices.DeleteFunc(c.names, func(n string) bool { return n == name })

	for _, chunk := range c.chunks {
		chunk.Files = slices.DeleteFunc(chunk.Files, func(n string) bool { return n == name })
	}
}

// Asset returns the source of the named asset.
func (c *Compilation) Asset(name string) ([]byte, bool) {
	source, ok := c.assets[name]
	return source, ok
}

// AssetNames returns the asset names in emission order.
func (c *Compilation) AssetNames() []string {
	return slices.Clone(c.names)
}

// Assets returns every asset in emission order.
func (c *Compilation) Assets() []Asset {
	assets := make([]Asset, 0, len(c.names))
	for _, name := range c.names {
		assets = append(assets, Asset{Name: name, Source: c.assets[name]})
	}
	return assets
}

// Chunk returns the chunk built from the named entry, or nil.
func (c *Compilation) Chunk(name string) *Chunk {
	for _, chunk := range c.chunks {
		if chunk.Name == name {
			return chunk
		}
	}
	return nil
}

// Chunks returns the chunks in entry order.
func (c *Compilation) Chunks() []*Chunk {
	return slices.Clone(c.chunks)
}

// ReportError records an error. The build continues; Stats.HasErrors
// reports it afterwards.
func (c *Compilation) ReportError(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *Compilation) ReportWarning(err error) {
	c.Warnings = append(c.Warnings, err)
}

// processAssets runs every ProcessAssets tap. When a tap adds assets, the
// earlier taps registered with AdditionalAssets run once more.
func (c *Compilation) processAssets() {
	taps := c.Hooks.ProcessAssets.sorted()

	for i, t := range taps {
		before := c.emitted
		c.runTap(t)
		if c.emitted == before {
			continue
		}

		for _, earlier := range taps[:i] {
			if earlier.opts.AdditionalAssets {
				c.runTap(earlier)
			}
		}
	}
}

func (c *Compilation) runTap(t processAssetsTap) {
	if err := t.fn(c); err != nil {
		c.ReportError(fmt.Errorf("%s: %w", t.opts.Name, err))
	}
}
