package util

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"falls.webp", "falls.webp"},
		{"  trail map.pdf ", "trail map.pdf"},
		{"a/b\\c.pdf", "a_b_c.pdf"},
		{"tab\tname\n.pdf", "tabname.pdf"},
		{"café.jpg", "café.jpg"},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "../etc/passwd", "a..b", "\x00\x01", "bad\xffname"} {
		if _, err := SanitizeFileName(in); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("SanitizeFileName(%q) err = %v, want ErrInvalidFileName", in, err)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("é", 200))
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len(got) > maxFileNameBytes {
		t.Fatalf("len = %d, want <= %d", len(got), maxFileNameBytes)
	}
	if !strings.HasSuffix(got, "é") {
		t.Fatalf("truncated mid-rune: %q", got[len(got)-4:])
	}
}
