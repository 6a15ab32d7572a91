package util

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes keeps names inside the 256-byte S3 tag value limit.
const maxFileNameBytes = 255

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a client-supplied file name into one safe to store
// as object metadata. Path separators become underscores, control characters
// are dropped and traversal patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") || !utf8.ValidString(name) {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	for len(s) > maxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s, nil
}
