package util

import (
	"errors"
	"strings"
)

const maxFileNameLen = 200

// SanitizeFileName makes a user-supplied file name safe for storage keys.
// Traversal sequences are rejected outright rather than cleaned.
func SanitizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty file name")
	}
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}

	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._ ")
	if out == "" {
		return "", errors.New("invalid file name")
	}
	if len(out) > maxFileNameLen {
		out = out[:maxFileNameLen]
	}
	return out, nil
}
