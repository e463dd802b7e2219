package codec

import (
	"bufio"
	"fmt"
	"image"
	"os"

	// Register decoders with image.Decode. Sources are matched by
	// content, so every supported container needs its reader linked in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Decode opens and decodes the image at path, returning the pixel data and
// the sniffed content kind. The extension plays no part: a PNG saved with
// a .jpg name decodes as a PNG.
func Decode(path string) (image.Image, Kind, error) {
	kind, err := SniffFile(path)
	if err != nil {
		return nil, KindUnknown, err
	}
	if kind == KindUnknown {
		return nil, KindUnknown, fmt.Errorf("%w: unrecognized image content in %s", types.ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, kind, fmt.Errorf("open %s: %w: %w", path, types.ErrIO, err)
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, kind, fmt.Errorf("decode %s: %w: %w", path, types.ErrCodec, err)
	}
	return img, kind, nil
}
