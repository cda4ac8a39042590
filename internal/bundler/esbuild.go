package bundler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/jsh-team/precache/internal/utils/hash"
)

// bundle is the esbuild output of one entry before it is named.
type bundle struct {
	entry       EntryPoint
	placeholder string
	script      []byte
	sourceMap   []byte
	contentHash string
	chunkHash   string
}

func (c *Compiler) bundleEntry(entry EntryPoint) (*bundle, error) {
	input := entry.Import
	if !filepath.IsAbs(input) {
		input = filepath.Join(c.options.Context, input)
	}

	placeholder := entry.Name + ".js"
	production := c.options.Mode == ModeProduction

	sourceMap := api.SourceMapNone
	if c.options.Output.SourceMap {
		sourceMap = api.SourceMapLinked
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{input},
		AbsWorkingDir:     c.options.Context,
		Outfile:           filepath.Join(c.options.Output.Path, placeholder),
		Bundle:            true,
		Write:             false,
		Format:            api.FormatIIFE,
		Platform:          api.PlatformBrowser,
		Sourcemap:         sourceMap,
		MinifyWhitespace:  production,
		MinifyIdentifiers: production,
		MinifySyntax:      production,
		Define: map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", c.options.Mode),
		},
		LogLevel: api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("entry %s: %s", entry.Name, formatMessages(result.Errors))
	}
	for _, warning := range result.Warnings {
		c.log.Warn().Msgf("entry %s: %s", entry.Name, formatMessage(warning))
	}

	b := &bundle{entry: entry, placeholder: placeholder}
	found := false
	for _, file := range result.OutputFiles {
		switch {
		case strings.HasSuffix(file.Path, ".map"):
			b.sourceMap = file.Contents
		case strings.HasSuffix(file.Path, ".js"):
			b.script = file.Contents
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("entry %s: esbuild produced no script", entry.Name)
	}

	b.contentHash = hash.GenerateSha256Hash(b.script)
	b.chunkHash = hash.GenerateSha256Hash([]byte(entry.Name + "\x00" + string(b.script) + string(b.sourceMap)))
	return b, nil
}

// fullHash combines the chunk hashes in entry order.
func fullHash(bundles []*bundle) string {
	var sb strings.Builder
	for _, b := range bundles {
		sb.WriteString(b.chunkHash)
	}
	return hash.GenerateSha256Hash([]byte(sb.String()))
}

// relinkSourceMap points the sourceMappingURL comment at the final filename.
func relinkSourceMap(script []byte, placeholder, name string) []byte {
	from := "sourceMappingURL=" + placeholder + ".map"
	to := "sourceMappingURL=" + filepath.Base(filepath.FromSlash(name)) + ".map"
	return []byte(strings.Replace(string(script), from, to, 1))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, formatMessage(msg))
	}
	return strings.Join(parts, "; ")
}
