// Package encoding provides text helpers for raw string pool bytes: name
// normalisation for lookups and best-effort decoding of legacy charsets.
package encoding

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the key used to match record names. Names that
// differ only in Unicode composition, letter case or surrounding spaces
// share a key.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = norm.NFC.String(s)
	return cases.Fold().String(s)
}

// SameName reports whether a and b normalise to the same key.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// NormalizePath converts backslashes to forward slashes so asset paths
// authored on Windows can be matched by base name.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// DecodeText converts raw string bytes to UTF-8 for display. Valid UTF-8 is
// returned unchanged; otherwise EUC-KR and then Windows-1252 are tried.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if s, err := decodeWith(korean.EUCKR.NewDecoder(), data); err == nil {
		return s
	}
	if s, err := decodeWith(charmap.Windows1252.NewDecoder(), data); err == nil {
		return s
	}
	return strings.ToValidUTF8(string(data), "�")
}

var errUnclean = errors.New("text does not decode cleanly")

func decodeWith(t transform.Transformer, data []byte) (string, error) {
	result, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(result) || strings.ContainsRune(string(result), utf8.RuneError) {
		return "", errUnclean
	}
	return string(result), nil
}
