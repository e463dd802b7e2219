package codec

import (
	"context"
	"fmt"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// pngOptimizer losslessly re-encodes a PNG at maximum compression.
type pngOptimizer struct{}

func (pngOptimizer) Name() string { return "png-optimize" }

func (pngOptimizer) Accepts(srcExt string, target types.Format) bool {
	return target == types.FormatSame && srcExt == "png"
}

func (pngOptimizer) Transform(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, kind, err := Decode(src)
	if err != nil {
		return err
	}
	if kind != KindPNG {
		return fmt.Errorf("optimize %s: %w: %s content in a png file", src, types.ErrCodec, kind)
	}
	return writeImage(dst, img, types.FormatPNG)
}

// jpegReencoder re-encodes a JPEG at the fixed quality level. The decoder
// goes by content, so mislabeled files still decode; the output is always
// JPEG. EXIF metadata does not survive a re-encode, so the orientation tag
// is baked into the pixels first.
type jpegReencoder struct{}

func (jpegReencoder) Name() string { return "jpeg-reencode" }

func (jpegReencoder) Accepts(srcExt string, target types.Format) bool {
	return target == types.FormatSame && (srcExt == "jpg" || srcExt == "jpeg")
}

func (jpegReencoder) Transform(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img, kind, err := Decode(src)
	if err != nil {
		return err
	}
	if kind == KindJPEG || kind == KindTIFF {
		img = normalizeOrientation(img, src)
	}
	return writeImage(dst, img, types.FormatJPEG)
}

func init() {
	Register(pngOptimizer{})
	Register(jpegReencoder{})
}
