package esbuildhost

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jsh-team/precache/internal/htmlplugin"
	"github.com/jsh-team/precache/internal/precache/manifest"
)

// metafile is the part of esbuild's metafile the host reads.
type metafile struct {
	Outputs map[string]metafileOutput `json:"outputs"`
}

type metafileOutput struct {
	EntryPoint string `json:"entryPoint"`
}

type outputAsset struct {
	name string
	file api.OutputFile
}

// host is the ordered view of one build's output files.
type host struct {
	outDir string
	assets []*outputAsset
	chunks map[string][]string
	order  []string
}

func (p *plugin) newHost(result *api.BuildResult) (*host, error) {
	if p.outDir == "" {
		return nil, fmt.Errorf("an outdir or outfile is required")
	}

	h := &host{outDir: p.outDir, chunks: map[string][]string{}}
	for _, file := range result.OutputFiles {
		name, err := h.assetName(file.Path)
		if err != nil {
			return nil, err
		}
		h.assets = append(h.assets, &outputAsset{name: name, file: file})
	}

	var meta metafile
	if err := json.Unmarshal([]byte(result.Metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	byInput := map[string]string{}
	for _, entry := range p.entries() {
		byInput[entry.input] = entry.name
		h.order = append(h.order, entry.name)
	}

	for _, output := range slices.Sorted(maps.Keys(meta.Outputs)) {
		info := meta.Outputs[output]
		chunk, ok := byInput[info.EntryPoint]
		if info.EntryPoint == "" || !ok {
			continue
		}

		name, err := h.assetName(filepath.Join(p.workDir, filepath.FromSlash(output)))
		if err != nil {
			return nil, err
		}
		h.chunks[chunk] = append(h.chunks[chunk], name)
		if h.index(name+".map") >= 0 {
			h.chunks[chunk] = append(h.chunks[chunk], name+".map")
		}
	}

	return h, nil
}

func (h *host) assetName(path string) (string, error) {
	rel, err := filepath.Rel(h.outDir, path)
	if err != nil {
		return "", fmt.Errorf("output %s is outside %s: %w", path, h.outDir, err)
	}
	return filepath.ToSlash(rel), nil
}

func (h *host) index(name string) int {
	return slices.IndexFunc(h.assets, func(a *outputAsset) bool { return a.name == name })
}

func (h *host) emit(name string, content []byte) error {
	if h.index(name) >= 0 {
		return fmt.Errorf("output %s already exists", name)
	}
	h.assets = append(h.assets, &outputAsset{
		name: name,
		file: api.OutputFile{Path: filepath.Join(h.outDir, filepath.FromSlash(name)), Contents: content},
	})
	return nil
}

// htmlChunks returns the entry chunks in entry order.
func (h *host) htmlChunks() []htmlplugin.Chunk {
	var chunks []htmlplugin.Chunk
	for _, name := range h.order {
		chunks = append(chunks, htmlplugin.Chunk{Name: name, Files: h.ChunkFiles(name)})
	}
	return chunks
}

func (h *host) outputFiles() []api.OutputFile {
	files := make([]api.OutputFile, 0, len(h.assets))
	for _, asset := range h.assets {
		files = append(files, asset.file)
	}
	return files
}

func (h *host) ListAssets() []manifest.Asset {
	assets := make([]manifest.Asset, 0, len(h.assets))
	for _, asset := range h.assets {
		assets = append(assets, manifest.Asset{Name: asset.name, Content: asset.file.Contents})
	}
	return assets
}

func (h *host) UpdateAsset(name string, content []byte) error {
	i := h.index(name)
	if i < 0 {
		return fmt.Errorf("output %s not found", name)
	}
	h.assets[i].file.Contents = content
	h.assets[i].file.Hash = ""
	return nil
}

func (h *host) RenameAsset(oldName, newName string) error {
	i := h.index(oldName)
	if i < 0 {
		return fmt.Errorf("output %s not found", oldName)
	}
	if h.index(newName) >= 0 {
		return fmt.Errorf("output %s already exists", newName)
	}

	h.assets[i].name = newName
	h.assets[i].file.Path = filepath.Join(h.outDir, filepath.FromSlash(newName))

	for chunk, files := range h.chunks {
		if j := slices.Index(files, oldName); j >= 0 {
			h.chunks[chunk][j] = newName
		}
	}
	return nil
}

func (h *host) ChunkFiles(chunkName string) []string {
	return slices.Clone(h.chunks[chunkName])
}
