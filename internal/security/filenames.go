// Package security guards file output derived from stored identifiers.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxNameLen bounds one sanitised file name component.
const maxNameLen = 128

// SanitizeFilename turns an arbitrary identifier (match id, entity id) into
// a safe file name component. Anything other than ASCII letters, digits,
// dot, underscore or dash becomes a single underscore.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// JoinWithin joins name onto dir and rejects results that escape dir.
func JoinWithin(dir, name string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	joined := filepath.Join(absDir, name)
	rel, err := filepath.Rel(absDir, joined)
	if err != nil {
		return "", fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %s", name, dir)
	}
	return filepath.Join(dir, name), nil
}
