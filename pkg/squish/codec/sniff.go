package codec

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Kind is a sniffed image content kind, detected from magic bytes.
type Kind int

// Content kinds detectable by Sniff.
const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindWebP
	KindGIF
	KindBMP
	KindTIFF
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindWebP:
		return "webp"
	case KindGIF:
		return "gif"
	case KindBMP:
		return "bmp"
	case KindTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// Format maps a content kind to the transform format that re-encoding to
// would be a no-op format-wise. Kinds without a corresponding target
// (GIF, BMP, TIFF, unknown) return false.
func (k Kind) Format() (types.Format, bool) {
	switch k {
	case KindPNG:
		return types.FormatPNG, true
	case KindJPEG:
		return types.FormatJPEG, true
	case KindWebP:
		return types.FormatWebP, true
	default:
		return "", false
	}
}

// sniffLen is the number of leading bytes needed to classify any
// supported container. WebP needs 12 (RIFF size header before "WEBP").
const sniffLen = 12

var (
	magicPNG   = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	magicJPEG  = []byte{0xFF, 0xD8, 0xFF}
	magicGIF87 = []byte("GIF87a")
	magicGIF89 = []byte("GIF89a")
	magicRIFF  = []byte("RIFF")
	magicWEBP  = []byte("WEBP")
	magicBMP   = []byte("BM")
	magicTIFFL = []byte{0x49, 0x49, 0x2A, 0x00}
	magicTIFFB = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// Sniff classifies image content from its leading bytes. Callers should
// provide at least sniffLen bytes; shorter headers classify as much as
// they can.
func Sniff(header []byte) Kind {
	switch {
	case bytes.HasPrefix(header, magicPNG):
		return KindPNG
	case bytes.HasPrefix(header, magicJPEG):
		return KindJPEG
	case bytes.HasPrefix(header, magicGIF87), bytes.HasPrefix(header, magicGIF89):
		return KindGIF
	case bytes.HasPrefix(header, magicRIFF) && len(header) >= sniffLen && bytes.Equal(header[8:12], magicWEBP):
		return KindWebP
	case bytes.HasPrefix(header, magicTIFFL), bytes.HasPrefix(header, magicTIFFB):
		return KindTIFF
	case bytes.HasPrefix(header, magicBMP):
		return KindBMP
	default:
		return KindUnknown
	}
}

// SniffFile classifies the file at path by reading its header.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return KindUnknown, fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return KindUnknown, fmt.Errorf("sniff %s: %w: %w", path, types.ErrIO, err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return KindUnknown, fmt.Errorf("sniff %s: %w: %w", path, types.ErrIO, err)
	}
	return Sniff(header[:n]), nil
}

// normalizeExt lowercases an extension and strips a leading dot.
func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
