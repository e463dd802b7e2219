package codec

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// testImage builds a small opaque gradient so encoders have real pixel
// data to chew on.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 128, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   Kind
	}{
		{name: "png", header: []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}, want: KindPNG},
		{name: "jpeg", header: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0, 0, 0, 0, 0}, want: KindJPEG},
		{name: "gif89", header: []byte("GIF89a______"), want: KindGIF},
		{name: "webp", header: []byte("RIFF\x10\x00\x00\x00WEBP"), want: KindWebP},
		{name: "riff but not webp", header: []byte("RIFF\x10\x00\x00\x00WAVE"), want: KindUnknown},
		{name: "bmp", header: []byte("BM__________"), want: KindBMP},
		{name: "tiff little endian", header: []byte{0x49, 0x49, 0x2A, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, want: KindTIFF},
		{name: "tiff big endian", header: []byte{0x4D, 0x4D, 0x00, 0x2A, 0, 0, 0, 0, 0, 0, 0, 0}, want: KindTIFF},
		{name: "text", header: []byte("hello world!"), want: KindUnknown},
		{name: "empty", header: nil, want: KindUnknown},
		{name: "short riff", header: []byte("RIFF"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.header))
		})
	}
}

func TestSniffFile(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "real.png")
	writePNG(t, pngPath, testImage(4, 4))

	kind, err := SniffFile(pngPath)
	require.NoError(t, err)
	assert.Equal(t, KindPNG, kind)

	// Extension carries no weight: PNG bytes under a .jpg name.
	mislabeled := filepath.Join(dir, "fake.jpg")
	writePNG(t, mislabeled, testImage(4, 4))
	kind, err = SniffFile(mislabeled)
	require.NoError(t, err)
	assert.Equal(t, KindPNG, kind)

	_, err = SniffFile(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		target   types.Format
		wantName string
		wantErr  bool
	}{
		{name: "png optimize", ext: "png", target: types.FormatSame, wantName: "png-optimize"},
		{name: "jpg optimize", ext: "jpg", target: types.FormatSame, wantName: "jpeg-reencode"},
		{name: "jpeg alias", ext: "jpeg", target: types.FormatSame, wantName: "jpeg-reencode"},
		{name: "ext with dot and case", ext: ".PNG", target: types.FormatSame, wantName: "png-optimize"},
		{name: "gif has no optimizer", ext: "gif", target: types.FormatSame, wantErr: true},
		{name: "webp has no optimizer", ext: "webp", target: types.FormatSame, wantErr: true},
		{name: "convert to webp", ext: "png", target: types.FormatWebP, wantName: "convert-webp"},
		{name: "convert to jpg", ext: "gif", target: types.FormatJPEG, wantName: "convert-jpg"},
		{name: "convert to png", ext: "bmp", target: types.FormatPNG, wantName: "convert-png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Select(tt.ext, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, c.Name())
		})
	}
}

func TestPNGOptimizerTransform(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	writePNG(t, src, testImage(6, 6))

	c, err := Select("png", types.FormatSame)
	require.NoError(t, err)
	require.NoError(t, c.Transform(context.Background(), src, dst))

	img, kind, err := Decode(dst)
	require.NoError(t, err)
	assert.Equal(t, KindPNG, kind)
	assert.Equal(t, image.Rect(0, 0, 6, 6), img.Bounds())
}

func TestPNGOptimizerRejectsForeignContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "actually-jpeg.png")
	dst := filepath.Join(dir, "out.png")
	writeJPEG(t, src, testImage(6, 6))

	c, err := Select("png", types.FormatSame)
	require.NoError(t, err)
	err = c.Transform(context.Background(), src, dst)
	assert.ErrorIs(t, err, types.ErrCodec)
	assert.NoFileExists(t, dst)
}

func TestJPEGReencoderTransform(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeJPEG(t, src, testImage(8, 8))

	c, err := Select("jpg", types.FormatSame)
	require.NoError(t, err)
	require.NoError(t, c.Transform(context.Background(), src, dst))

	_, kind, err := Decode(dst)
	require.NoError(t, err)
	assert.Equal(t, KindJPEG, kind)
}

func TestConvertDecodesByContentNotExtension(t *testing.T) {
	dir := t.TempDir()
	// PNG bytes wearing a .jpg name; the converter must decode by content.
	src := filepath.Join(dir, "mislabeled.jpg")
	dst := filepath.Join(dir, "out.webp")
	writePNG(t, src, testImage(5, 5))

	c, err := Select("jpg", types.FormatWebP)
	require.NoError(t, err)
	require.NoError(t, c.Transform(context.Background(), src, dst))

	img, kind, err := Decode(dst)
	require.NoError(t, err)
	assert.Equal(t, KindWebP, kind)
	assert.Equal(t, image.Rect(0, 0, 5, 5), img.Bounds())
}

func TestConvertToJPEGFlattensAlpha(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transparent.png")
	dst := filepath.Join(dir, "out.jpg")

	// Fully transparent image: flattening must yield white, not black.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	writePNG(t, src, img)

	c, err := Select("png", types.FormatJPEG)
	require.NoError(t, err)
	require.NoError(t, c.Transform(context.Background(), src, dst))

	out, _, err := Decode(dst)
	require.NoError(t, err)
	r, g, b, _ := out.At(4, 4).RGBA()
	assert.Greater(t, r>>8, uint32(230), "red channel should be near white")
	assert.Greater(t, g>>8, uint32(230), "green channel should be near white")
	assert.Greater(t, b>>8, uint32(230), "blue channel should be near white")
}

func TestDecodeUnknownContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(path, []byte("just some text"), 0o644))

	_, _, err := Decode(path)
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestDecodeMissingFile(t *testing.T) {
	_, _, err := Decode(filepath.Join(t.TempDir(), "gone.png"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestEncodeWebPRoundTrip(t *testing.T) {
	src := testImage(4, 4)

	var buf bytes.Buffer
	require.NoError(t, encodeWebP(&buf, src))
	assert.Equal(t, KindWebP, Sniff(buf.Bytes()))

	decoded, _, err := image.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())

	// Lossless encode: opaque pixels survive exactly.
	want := color.NRGBAModel.Convert(src.At(2, 2))
	got := color.NRGBAModel.Convert(decoded.At(2, 2))
	assert.Equal(t, want, got)
}

func TestFlatten(t *testing.T) {
	t.Run("opaque image unchanged", func(t *testing.T) {
		img := testImage(3, 3)
		assert.Equal(t, image.Image(img), flatten(img))
	})

	t.Run("half alpha blends toward white", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				img.Set(x, y, color.NRGBA{A: 128}) // 50% black
			}
		}
		out := flatten(img)
		r, _, _, a := out.At(1, 1).RGBA()
		assert.Equal(t, uint32(0xFFFF), a, "flattened image must be opaque")
		assert.InDelta(t, 127, int(r>>8), 2)
	})
}

func TestTransformCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := Select("png", types.FormatSame)
	require.NoError(t, err)
	err = c.Transform(ctx, "irrelevant.png", "out.png")
	assert.True(t, errors.Is(err, context.Canceled))
}
