package imageprep

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/halloween/internal/dataurl"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 512
	DefaultMaxHeight = 512
	DefaultQuality   = 80

	// MaxPayloadBytes bounds the encoded image sent to the backend.
	MaxPayloadBytes = 5 * 1024 * 1024
)

var (
	ErrEncoding = errors.New("image encoding failed")
	ErrTooLarge = errors.New("prepared image exceeds 5 MiB")
)

// EncodingError reports which preparation step failed.
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to %s image: %v", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// Options bound the prepared image.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Payload is a prepared JPEG ready for transmission.
type Payload struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Base64 returns the standard base64 encoding of the JPEG bytes.
func (p *Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURL returns the payload as a data URL.
func (p *Payload) DataURL() string {
	return dataurl.Encode(p.MimeType, p.Base64())
}

// Prepare decodes src, scales it down to fit within the bounds in opts and re-encodes it as JPEG.
// Images already inside the bounds are re-encoded at their original size.
func Prepare(src io.Reader, opts Options) (*Payload, error) {
	opts = opts.withDefaults()

	img, format, err := image.Decode(src)
	if err != nil {
		return nil, &EncodingError{Op: "decode", Err: err}
	}

	bounds := img.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)
	if width == 0 || height == 0 {
		return nil, &EncodingError{Op: "resize", Err: fmt.Errorf("invalid dimensions %dx%d", bounds.Dx(), bounds.Dy())}
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, &EncodingError{Op: "encode", Err: err}
	}

	if buf.Len() > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, buf.Len())
	}

	slog.Debug("Prepared image",
		"source_format", format,
		"source_width", bounds.Dx(),
		"source_height", bounds.Dy(),
		"width", width,
		"height", height,
		"bytes", buf.Len(),
	)

	return &Payload{
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    width,
		Height:   height,
	}, nil
}

// PrepareFile opens path and runs Prepare on its contents.
func PrepareFile(path string, opts Options) (*Payload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return Prepare(file, opts)
}

// FitWithin scales width x height down to fit maxWidth x maxHeight, preserving aspect ratio.
// Dimensions are never scaled up.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	scale := min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	w := max(1, int(float64(width)*scale+0.5))
	h := max(1, int(float64(height)*scale+0.5))
	return w, h
}
