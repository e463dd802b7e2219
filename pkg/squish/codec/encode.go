package codec

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// jpegQuality is the fixed quality for every JPEG encode. Matches the
// level the optimizer has always used; not user-tunable.
const jpegQuality = 80

func encodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w: %w", types.ErrCodec, err)
	}
	return nil
}

func encodeJPEG(w io.Writer, img image.Image) error {
	// JPEG has no alpha channel: composite translucent pixels onto white
	// before encoding so they don't come out black.
	if err := jpeg.Encode(w, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w: %w", types.ErrCodec, err)
	}
	return nil
}

func encodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w: %w", types.ErrCodec, err)
	}
	return nil
}

// encodeTo dispatches to the encoder for target. target must be a concrete
// format, never FormatSame.
func encodeTo(w io.Writer, img image.Image, target types.Format) error {
	switch target {
	case types.FormatPNG:
		return encodePNG(w, img)
	case types.FormatJPEG:
		return encodeJPEG(w, img)
	case types.FormatWebP:
		return encodeWebP(w, img)
	default:
		return fmt.Errorf("%w: no encoder for %q", types.ErrUnsupportedFormat, string(target))
	}
}

// writeImage encodes img to dst through a buffered writer, creating or
// truncating the file.
func writeImage(dst string, img image.Image, target types.Format) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", dst, types.ErrIO, err)
	}

	w := bufio.NewWriter(f)
	if err := encodeTo(w, img, target); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write %s: %w: %w", dst, types.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %s: %w: %w", dst, types.ErrIO, err)
	}
	return nil
}

// flatten composites an image with transparency onto an opaque white
// background. Already-opaque images are returned unchanged.
func flatten(img image.Image) image.Image {
	if op, ok := img.(interface{ Opaque() bool }); ok && op.Opaque() {
		return img
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, img, bounds.Min, draw.Over)
	return out
}
