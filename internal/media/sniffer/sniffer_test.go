package sniffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ftyp(brand string) []byte {
	return append([]byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p'}, []byte(brand+"\x00\x00\x00\x00")...)
}

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name  string
		head  []byte
		want  MediaType
		class Class
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG, ClassImage},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, TypePNG, ClassImage},
		{"gif", []byte("GIF89a......"), TypeGIF, ClassImage},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, ClassImage},
		{"avif", ftyp("avif"), TypeAVIF, ClassImage},
		{"mp4", ftyp("isom"), TypeMP4, ClassVideo},
		{"mov", ftyp("qt  "), TypeMOV, ClassVideo},
		{"webm", []byte{0x1a, 0x45, 0xdf, 0xa3, 0x9f}, TypeWEBM, ClassVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHead(tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.class, got.Class)
			assert.NotEmpty(t, got.MIME)
		})
	}
}

func TestDetectHead_Unknown(t *testing.T) {
	for _, head := range [][]byte{nil, []byte("hello world"), []byte("<svg xmlns='http://www.w3.org/2000/svg'/>")} {
		_, err := DetectHead(head)
		assert.ErrorIs(t, err, ErrUnknownType)
	}
}

func TestResult_Ext(t *testing.T) {
	assert.Equal(t, "jpg", Result{Type: TypeJPEG}.Ext())
	assert.Equal(t, "mp4", Result{Type: TypeMP4}.Ext())
}

func TestDetectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avatar.bin")
	require.NoError(t, os.WriteFile(path, []byte("GIF87a\x01\x00\x01\x00"), 0o600))

	got, err := DetectFile(path)
	require.NoError(t, err)
	assert.Equal(t, TypeGIF, got.Type)

	_, err = DetectFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
