package hash

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateMd5Hash returns the lowercase hex MD5 digest of content.
func GenerateMd5Hash(content []byte) string {
	hasher := md5.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

func GenerateSha256Hash(content []byte) string {
	hasher := sha256.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}
