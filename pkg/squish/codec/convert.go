package codec

import (
	"context"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// formatConverter decodes any supported source and re-encodes it to a
// fixed target format. One instance is registered per conversion target.
type formatConverter struct {
	target types.Format
}

func (c formatConverter) Name() string { return "convert-" + string(c.target) }

// Accepts matches on the target alone: any sniffable source converts.
// Undecodable content fails in Transform with a codec error.
func (c formatConverter) Accepts(srcExt string, target types.Format) bool {
	return target == c.target && target != types.FormatSame
}

func (c formatConverter) Transform(ctx context.Context, src, dst string) error {
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
	return writeImage(dst, img, c.target)
}

func init() {
	Register(formatConverter{target: types.FormatJPEG})
	Register(formatConverter{target: types.FormatWebP})
	Register(formatConverter{target: types.FormatPNG})
}
