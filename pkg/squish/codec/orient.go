package codec

import (
	"image"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// normalizeOrientation applies the EXIF Orientation tag of the file at
// path to img, so re-encodes (which drop EXIF metadata) keep the image
// upright. Missing or unreadable EXIF data leaves img unchanged; a bad
// orientation tag is never an error.
func normalizeOrientation(img image.Image, path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return img
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}
	return applyOrientation(img, orientation)
}

// applyOrientation maps EXIF orientation values 2..8 onto the matching
// pixel transform. Value 1 (upright) and anything out of range pass
// through unchanged.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return flipH(img)
	case 3:
		return rotate180(img)
	case 4:
		return flipV(img)
	case 5:
		// Transpose: mirror across the top-left diagonal.
		return flipH(rotate90(img))
	case 6:
		return rotate90(img)
	case 7:
		// Transverse: mirror across the bottom-left diagonal.
		return flipH(rotate270(img))
	case 8:
		return rotate270(img)
	default:
		return img
	}
}

// rotate90 rotates clockwise by 90 degrees.
func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.Y-1-y, x-b.Min.X, img.At(x, y))
		}
	}
	return out
}

// rotate180 rotates by 180 degrees.
func rotate180(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, b.Max.Y-1-y, img.At(x, y))
		}
	}
	return out
}

// rotate270 rotates clockwise by 270 degrees.
func rotate270(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(y-b.Min.Y, b.Max.X-1-x, img.At(x, y))
		}
	}
	return out
}

// flipH mirrors horizontally.
func flipH(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-x, y-b.Min.Y, img.At(x, y))
		}
	}
	return out
}

// flipV mirrors vertically.
func flipV(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, b.Max.Y-1-y, img.At(x, y))
		}
	}
	return out
}
