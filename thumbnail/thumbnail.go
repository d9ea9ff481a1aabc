// Package thumbnail renders derived preview images for primary media.
package thumbnail

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // register decoder
	_ "image/png" // register decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/mediafold/mediafold"
)

const (
	// DefaultMaxSize bounds the longer thumbnail edge in pixels.
	DefaultMaxSize = 400
	// Quality is the JPEG encode quality for rendered thumbnails.
	Quality = 80
	// Suffix distinguishes derived keys from primary keys.
	Suffix = "_thumbnail.jpg"
	// MimeType of every rendered thumbnail.
	MimeType = "image/jpeg"
)

// Key returns the derived-store key for a primary file key.
func Key(fileKey string) string {
	return fileKey + Suffix
}

// SourceKey inverts Key. ok is false when thumbKey is not a derived key.
func SourceKey(thumbKey string) (string, bool) {
	if !strings.HasSuffix(thumbKey, Suffix) {
		return "", false
	}
	return strings.TrimSuffix(thumbKey, Suffix), true
}

// Checksum returns the hex sha256 digest of the primary file content.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Result is a rendered thumbnail plus the dimensions it ended up with.
type Result struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Generator renders thumbnails that fit within maxSize on the longer edge.
type Generator struct {
	maxSize int
}

func NewGenerator(maxSize int) *Generator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Generator{maxSize: maxSize}
}

// Render decodes the primary image, corrects EXIF orientation, scales it
// down preserving aspect ratio, and encodes it as JPEG. Content that is
// not a decodable image yields ErrInvalidInput.
func (g *Generator) Render(data []byte) (Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("render thumbnail: decode: %w", mediafold.ErrInvalidInput)
	}

	img = applyOrientation(img, extractOrientation(data))

	thumb := imaging.Fit(img, g.maxSize, g.maxSize, imaging.Lanczos)
	bounds := thumb.Bounds()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: Quality}); err != nil {
		return Result{}, fmt.Errorf("render thumbnail: encode: %w", err)
	}

	return Result{
		Data:     buf.Bytes(),
		MimeType: MimeType,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}
