package bundler

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultHashLength is the length of hash placeholders without an explicit
// :N suffix.
const DefaultHashLength = 20

var placeholderRe = regexp.MustCompile(`\[([a-z]+)(?::(\d+))?\]`)

type templateData struct {
	name        string
	contentHash string
	chunkHash   string
	fullHash    string
}

func validateTemplate(tmpl string) error {
	for _, match := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		switch match[1] {
		case "name", "contenthash", "chunkhash", "fullhash", "hash":
		default:
			return fmt.Errorf("unknown filename placeholder [%s]", match[1])
		}
		if match[1] == "name" && match[2] != "" {
			return fmt.Errorf("placeholder [name] takes no length")
		}
		if match[2] != "" {
			if n, _ := strconv.Atoi(match[2]); n < 1 {
				return fmt.Errorf("invalid hash length in %s", match[0])
			}
		}
	}
	return nil
}

// renderFilename expands `[name]`, `[contenthash]`, `[chunkhash]`,
// `[fullhash]` and `[hash]`, each hash optionally truncated with `:N`.
func renderFilename(tmpl string, data templateData) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(placeholder string) string {
		match := placeholderRe.FindStringSubmatch(placeholder)

		var value string
		switch match[1] {
		case "name":
			return data.name
		case "contenthash":
			value = data.contentHash
		case "chunkhash":
			value = data.chunkHash
		case "fullhash", "hash":
			value = data.fullHash
		default:
			return placeholder
		}

		length := DefaultHashLength
		if match[2] != "" {
			length, _ = strconv.Atoi(match[2])
		}
		if length < len(value) {
			value = value[:length]
		}
		return value
	})
}
