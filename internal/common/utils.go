package common

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// ContentHash computes SHA256 hash of content and returns hex string.
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// SanitizePath performs basic cleanup on input paths to handle common
// copy-paste issues: surrounding whitespace, quotes and trailing commas.
func SanitizePath(raw string) string {
	cleaned := strings.TrimSpace(raw)

	// Example: "a.txt," -> "a.txt"
	cleaned = strings.TrimSuffix(cleaned, ",")

	for _, q := range []string{"\"", "'", "`"} {
		if len(cleaned) >= 2 && strings.HasPrefix(cleaned, q) && strings.HasSuffix(cleaned, q) {
			cleaned = cleaned[1 : len(cleaned)-1]
		}
	}
	return strings.TrimSpace(cleaned)
}

// SanitizeAndValidatePaths sanitizes all paths and returns (sanitized paths, invalid paths).
// Invalid paths are empty after sanitization, missing, or directories.
func SanitizeAndValidatePaths(paths []string) ([]string, []string) {
	sanitized := make([]string, 0, len(paths))
	var invalid []string

	for _, raw := range paths {
		cleaned := SanitizePath(raw)
		if cleaned == "" {
			invalid = append(invalid, raw)
			continue
		}
		info, err := os.Stat(cleaned)
		if err != nil || info.IsDir() {
			invalid = append(invalid, raw)
			continue
		}
		sanitized = append(sanitized, cleaned)
	}

	return sanitized, invalid
}
