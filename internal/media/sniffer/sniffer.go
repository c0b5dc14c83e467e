package sniffer

import (
	"bytes"
	"errors"
	"io"
	"os"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeAVIF MediaType = "avif"
	TypeMP4  MediaType = "mp4"
	TypeMOV  MediaType = "mov"
	TypeWEBM MediaType = "webm"
)

type Class string

const (
	ClassImage Class = "image"
	ClassVideo Class = "video"
)

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type  MediaType
	Class Class
	MIME  string
}

// Ext is the file extension objects of this type are stored under.
func (r Result) Ext() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

const headSize = 512

func Detect(r io.Reader) (Result, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, err
	}
	return DetectHead(head[:n])
}

func DetectFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return Detect(f)
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	switch {
	case isJPEG(head):
		return Result{Type: TypeJPEG, Class: ClassImage, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Type: TypePNG, Class: ClassImage, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Type: TypeGIF, Class: ClassImage, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Type: TypeWEBP, Class: ClassImage, MIME: "image/webp"}, nil
	case isWEBM(head):
		return Result{Type: TypeWEBM, Class: ClassVideo, MIME: "video/webm"}, nil
	}

	switch brand := ftypBrand(head); {
	case brand == "":
	case brand == "avif" || brand == "avis":
		return Result{Type: TypeAVIF, Class: ClassImage, MIME: "image/avif"}, nil
	case brand == "qt  ":
		return Result{Type: TypeMOV, Class: ClassVideo, MIME: "video/quicktime"}, nil
	default:
		return Result{Type: TypeMP4, Class: ClassVideo, MIME: "video/mp4"}, nil
	}

	return Result{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// EBML header; matroska files share it but are rare enough to ignore.
func isWEBM(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:4], []byte{0x1a, 0x45, 0xdf, 0xa3})
}

// ftypBrand returns the major brand of an ISO base media file, or "".
func ftypBrand(head []byte) string {
	if len(head) < 12 || string(head[4:8]) != "ftyp" {
		return ""
	}
	return string(head[8:12])
}
