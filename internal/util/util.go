package util

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

// FileBaseName returns name without directory and extension, reduced to
// characters safe for download names. Empty results become fallback.
func FileBaseName(name, fallback string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Trim(unsafeNameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		return fallback
	}

	return base
}
