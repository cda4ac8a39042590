// Package htmlplugin generates HTML pages that load the built entry chunks.
package htmlplugin

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	htmlutils "github.com/jsh-team/precache/internal/utils/html"
)

const (
	DefaultFilename = "index.html"
	DefaultTitle    = "App"
)

const skeleton = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title></title>
</head>
<body>
</body>
</html>
`

// Chunk is an entry chunk and its output files.
type Chunk struct {
	Name  string
	Files []string
}

// Page is what a generated HTML document contains.
type Page struct {
	Title   string
	Scripts []string
}

// SelectScripts returns the .js files of every chunk not in excluded, in
// chunk order.
func SelectScripts(chunks []Chunk, excluded []string) []string {
	var scripts []string
	for _, chunk := range chunks {
		if slices.Contains(excluded, chunk.Name) {
			continue
		}
		for _, file := range chunk.Files {
			if path.Ext(file) == ".js" {
				scripts = append(scripts, file)
			}
		}
	}
	return scripts
}

// Render builds an HTML5 document with one deferred script tag per script.
func Render(page Page) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(skeleton))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page skeleton: %w", err)
	}

	title := page.Title
	if title == "" {
		title = DefaultTitle
	}
	doc.Find("title").SetText(title)

	head := doc.Find("head")
	for _, src := range page.Scripts {
		head.AppendNodes(htmlutils.ScriptNode(src))
	}

	return htmlutils.Render(doc)
}

// Scripts lists the script sources of a generated page.
func Scripts(page []byte) ([]string, error) {
	return htmlutils.ScriptSources(page)
}
