package precache

import (
	"fmt"
	"slices"

	"github.com/jsh-team/precache/internal/precache/manifest"
)

// memoryHost is an in-memory Host, EntryRegistrar and HTMLDetector.
type memoryHost struct {
	context string
	entries map[string]string
	assets  []manifest.Asset
	chunks  map[string][]string
	html    []HTMLTarget
}

func newMemoryHost(context string) *memoryHost {
	return &memoryHost{
		context: context,
		entries: map[string]string{},
		chunks:  map[string][]string{},
	}
}

func (h *memoryHost) emit(chunk, name, content string) {
	h.assets = append(h.assets, manifest.Asset{Name: name, Content: []byte(content)})
	if chunk != "" {
		h.chunks[chunk] = append(h.chunks[chunk], name)
	}
}

func (h *memoryHost) content(name string) string {
	for _, asset := range h.assets {
		if asset.Name == name {
			return string(asset.Content)
		}
	}
	return ""
}

func (h *memoryHost) names() []string {
	var out []string
	for _, asset := range h.assets {
		out = append(out, asset.Name)
	}
	return out
}

func (h *memoryHost) Context() string { return h.context }

func (h *memoryHost) HasEntry(name string) bool {
	_, ok := h.entries[name]
	return ok
}

func (h *memoryHost) AddEntry(name, file string) error {
	h.entries[name] = file
	return nil
}

func (h *memoryHost) ListAssets() []manifest.Asset {
	return slices.Clone(h.assets)
}

func (h *memoryHost) UpdateAsset(name string, content []byte) error {
	for i := range h.assets {
		if h.assets[i].Name == name {
			h.assets[i].Content = content
			return nil
		}
	}
	return fmt.Errorf("asset %s not found", name)
}

func (h *memoryHost) RenameAsset(oldName, newName string) error {
	for i := range h.assets {
		if h.assets[i].Name == newName {
			return fmt.Errorf("asset %s already exists", newName)
		}
	}
	for i := range h.assets {
		if h.assets[i].Name == oldName {
			h.assets[i].Name = newName
			for chunk, files := range h.chunks {
				for j := range files {
					if files[j] == oldName {
						h.chunks[chunk][j] = newName
					}
				}
			}
			return nil
		}
	}
	return fmt.Errorf("asset %s not found", oldName)
}

func (h *memoryHost) ChunkFiles(chunkName string) []string {
	return slices.Clone(h.chunks[chunkName])
}

func (h *memoryHost) DetectHTMLPlugins() []HTMLTarget {
	return h.html
}

type htmlTemplate struct {
	excluded []string
}

func (t *htmlTemplate) ExcludedChunks() *[]string {
	return &t.excluded
}
