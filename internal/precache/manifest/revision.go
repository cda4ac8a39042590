package manifest

import "github.com/jsh-team/precache/internal/utils/hash"

// Revision returns the 32 character lowercase hex MD5 digest of content. It
// must be given the in-memory bytes the host is about to emit, never a copy
// re-read from disk.
func Revision(content []byte) string {
	return hash.GenerateMd5Hash(content)
}
