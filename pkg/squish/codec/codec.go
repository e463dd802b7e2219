// Package codec supplies the image transform codecs behind the optimize
// pipeline: a lossless PNG re-optimizer, a fixed-quality JPEG re-encoder,
// and cross-format converters to JPEG, WebP, and PNG. Sources are decoded
// by sniffed content, never by trusting the extension.
package codec

import (
	"context"
	"fmt"
	"sync"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Codec transforms one image file into another. Implementations read the
// source path and write the complete result to the destination path; the
// caller owns staging and final placement.
type Codec interface {
	// Name identifies the codec in logs and errors.
	Name() string

	// Accepts reports whether this codec services a transform of the
	// given lowercase source extension (no dot) to the given target.
	Accepts(srcExt string, target types.Format) bool

	// Transform reads src and writes the transformed image to dst.
	Transform(ctx context.Context, src, dst string) error
}

var registry struct {
	mu     sync.RWMutex
	codecs []Codec
}

// Register adds a codec to the registry. Codecs self-register in init;
// Register is exported so tests and callers can add stand-ins.
func Register(c Codec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.codecs = append(registry.codecs, c)
}

// Select returns the codec servicing (srcExt, target), or
// ErrUnsupportedFormat when no registered codec accepts the pair.
// srcExt is matched case-insensitively and may carry a leading dot.
func Select(srcExt string, target types.Format) (Codec, error) {
	ext := normalizeExt(srcExt)

	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, c := range registry.codecs {
		if c.Accepts(ext, target) {
			return c, nil
		}
	}
	if target == types.FormatSame {
		return nil, fmt.Errorf("%w: no optimizer for .%s", types.ErrUnsupportedFormat, ext)
	}
	return nil, fmt.Errorf("%w: cannot convert .%s to %s", types.ErrUnsupportedFormat, ext, target)
}

// Names returns the registered codec names, for diagnostics.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.codecs))
	for _, c := range registry.codecs {
		names = append(names, c.Name())
	}
	return names
}
