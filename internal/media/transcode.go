package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"golang.org/x/image/draw"

	_ "image/gif"

	_ "golang.org/x/image/webp"
)

const (
	// files smaller than this are not worth the re-encode overhead
	minTranscodeBytes = 100_000

	jpegQuality = 85
	webpQuality = 85

	// wider images are scaled down before encoding
	maxImageWidth = 1920
)

// Transcode re-encodes an uploaded image to reduce its stored size and
// returns the bytes together with the content type they should be stored
// under. Non-image payloads and small files pass through untouched. A codec
// failure is never fatal: the original bytes come back unchanged and the
// error is diagnostic only, so callers log it and carry on with the upload.
func Transcode(data []byte, mimeType string) ([]byte, string, error) {
	normalized := normalizeMimeType(mimeType)

	if !strings.HasPrefix(normalized, "image/") {
		return data, mimeType, nil
	}

	if len(data) < minTranscodeBytes {
		return data, mimeType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mimeType, fmt.Errorf("decode error: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = resizeImage(img, maxImageWidth)
	}

	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	switch strings.TrimPrefix(normalized, "image/") {
	case "jpeg", "jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
		if err != nil {
			return data, mimeType, fmt.Errorf("encode error: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil

	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return data, mimeType, fmt.Errorf("encode error: %w", err)
		}
		return buf.Bytes(), "image/png", nil

	case "webp":
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, webpQuality)
		if err != nil {
			return data, mimeType, fmt.Errorf("encoding options: %w", err)
		}
		if err := webp.Encode(&buf, img, options); err != nil {
			return data, mimeType, fmt.Errorf("encode error: %w", err)
		}
		return buf.Bytes(), "image/webp", nil

	default:
		// anything else becomes a jpeg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return data, mimeType, fmt.Errorf("encode error: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
}

func normalizeMimeType(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	// ensure scales down only
	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth

	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}
