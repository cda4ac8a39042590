package htmlplugin

import "fmt"

// Template is a builtins-style page definition used by the esbuild host.
type Template struct {
	Filename       string   `json:"filename" mapstructure:"filename" yaml:"filename"`
	Title          string   `json:"title" mapstructure:"title" yaml:"title"`
	ExcludedChunks []string `json:"excludedChunks" mapstructure:"excludedChunks" yaml:"excludedChunks"`
}

// Excluded returns the excluded chunk list for editing.
func (t *Template) Excluded() *[]string {
	return &t.ExcludedChunks
}

// Generate renders the template against chunks and returns the output
// filename and content.
func (t *Template) Generate(chunks []Chunk) (string, []byte, error) {
	filename := t.Filename
	if filename == "" {
		filename = DefaultFilename
	}

	page, err := Render(Page{Title: t.Title, Scripts: SelectScripts(chunks, t.ExcludedChunks)})
	if err != nil {
		return "", nil, fmt.Errorf("failed to render %s: %w", filename, err)
	}
	return filename, page, nil
}
