package links

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	FolderFiles = "files"
	FolderTexts = "texts"

	maxExtensionLen = 10
	maxSafeNameLen  = 120
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// CryptoKeyGenerator builds object keys of the form
// <folder>/<unix millis>_<32 hex>.<ext>.
type CryptoKeyGenerator struct{}

func NewCryptoKeyGenerator() *CryptoKeyGenerator { return &CryptoKeyGenerator{} }

func (g *CryptoKeyGenerator) Generate(folder, filename string, at time.Time) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d_%s.%s", normalizeFolder(folder), at.UnixMilli(), hex.EncodeToString(buf), extension(filename)), nil
}

func normalizeFolder(folder string) string {
	if strings.ToLower(strings.TrimSpace(folder)) == FolderTexts {
		return FolderTexts
	}
	return FolderFiles
}

// SafeName keeps a filename readable while dropping anything that could
// break a key or a Content-Disposition header.
func SafeName(name string) string {
	if name == "" {
		name = "file"
	}
	if len(name) > maxSafeNameLen {
		name = name[:maxSafeNameLen]
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

func extension(filename string) string {
	name := SafeName(filename)
	ext := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i+1:]
	}
	if ext == "" {
		ext = "bin"
	}
	if len(ext) > maxExtensionLen {
		ext = ext[:maxExtensionLen]
	}
	return ext
}
