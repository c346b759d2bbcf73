package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Body", "body", true},
		{"  Body ", "BODY", true},
		{"Caf\u00e9", "cafe\u0301", true}, // precomposed vs combining accent
		{"Body", "Body.001", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.same, SameName(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "C:/assets/textures/skin.png", NormalizePath(`C:\assets\textures\skin.png`))
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "plain", DecodeText([]byte("plain")))
	assert.Equal(t, "한국", DecodeText([]byte{0xC7, 0xD1, 0xB1, 0xB9}))
	assert.Equal(t, "café", DecodeText([]byte{'c', 'a', 'f', 0xE9}))
}
