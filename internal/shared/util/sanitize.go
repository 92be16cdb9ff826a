package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidFileName is returned for empty names or names with a "." or ".." path segment.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameRunes = 120

// SanitizeFileName makes an upload name safe to embed in a storage key. Separators,
// whitespace and control characters become "_"; long names keep their extension.
func SanitizeFileName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || !utf8.ValidString(trimmed) || hasDotSegment(trimmed) {
		return "", ErrInvalidFileName
	}

	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case unicode.IsSpace(r) || unicode.IsControl(r):
			return '_'
		}
		return r
	}, trimmed)

	if n := utf8.RuneCountInString(s); n > maxFileNameRunes {
		ext := filepath.Ext(s)
		if utf8.RuneCountInString(ext) > 10 {
			ext = ""
		}
		base := []rune(strings.TrimSuffix(s, ext))
		s = string(base[:maxFileNameRunes-utf8.RuneCountInString(ext)]) + ext
	}
	return s, nil
}

// hasDotSegment reports whether any "/" or "\\" separated segment is "." or "..".
// Dots inside a segment, as in "J.R..Smith.pdf", are allowed.
func hasDotSegment(name string) bool {
	segments := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
	for _, seg := range segments {
		if seg = strings.TrimSpace(seg); seg == "." || seg == ".." {
			return true
		}
	}
	return false
}
