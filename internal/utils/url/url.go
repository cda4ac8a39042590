package url

import (
	"net/url"
	"strings"
)

// ToAbsoluteURL resolves inputStr against baseStr. Absolute inputs are
// returned unchanged.
func ToAbsoluteURL(baseStr, inputStr string) (string, error) {
	u, err := url.Parse(inputStr)
	if err != nil {
		return "", err
	}

	// If the input is already an absolute URL, return it as-is
	if u.IsAbs() {
		return u.String(), nil
	}

	// Otherwise, resolve it against the base
	base, err := url.Parse(baseStr)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(u).String(), nil
}

// DirectoryURL makes sure rawURL ends with a slash so relative references
// resolve inside its last path segment.
func DirectoryURL(rawURL string) string {
	if strings.HasSuffix(rawURL, "/") {
		return rawURL
	}
	return rawURL + "/"
}
