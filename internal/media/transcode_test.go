package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"
)

// noisePNG builds an incompressible image so the encoded size reliably
// clears the transcode threshold.
func noisePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

// noiseJPEG is the same fixture encoded as JPEG at maximum quality so
// it still clears the transcode threshold.
func noiseJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	src := noisePNG(t, width, height)
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func TestTranscodePassThrough(t *testing.T) {
	t.Parallel()

	bigText := bytes.Repeat([]byte("lorem ipsum "), 20_000)

	tests := []struct {
		name     string
		data     []byte
		mimeType string
	}{
		{
			name:     "non-image payload regardless of size",
			data:     bigText,
			mimeType: "application/pdf",
		},
		{
			name:     "small image below threshold",
			data:     noisePNG(t, 32, 32),
			mimeType: "image/png",
		},
		{
			name:     "empty mime type",
			data:     bigText,
			mimeType: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, gotType, err := Transcode(tt.data, tt.mimeType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Error("pass-through must return the input bytes unchanged")
			}
			if gotType != tt.mimeType {
				t.Errorf("content type changed: got %q, want %q", gotType, tt.mimeType)
			}
		})
	}
}

func TestTranscodeReEncodes(t *testing.T) {
	t.Parallel()

	pngSrc := noisePNG(t, 300, 300)
	jpegSrc := noiseJPEG(t, 400, 400)
	for _, src := range [][]byte{pngSrc, jpegSrc} {
		if len(src) < minTranscodeBytes {
			t.Fatalf("fixture too small to trigger transcoding: %d bytes", len(src))
		}
	}

	// the webp branch needs cgo and libwebp, so it has no case here
	tests := []struct {
		name     string
		data     []byte
		mimeType string
		wantType string
	}{
		{name: "png stays png", data: pngSrc, mimeType: "image/png", wantType: "image/png"},
		{name: "jpeg stays jpeg", data: jpegSrc, mimeType: "image/jpeg", wantType: "image/jpeg"},
		{name: "other image becomes jpeg", data: pngSrc, mimeType: "image/bmp", wantType: "image/jpeg"},
		{name: "mime parameters are ignored", data: pngSrc, mimeType: "IMAGE/PNG; charset=binary", wantType: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, gotType, err := Transcode(tt.data, tt.mimeType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotType != tt.wantType {
				t.Errorf("content type: got %q, want %q", gotType, tt.wantType)
			}
			if _, _, err := image.Decode(bytes.NewReader(got)); err != nil {
				t.Errorf("output is not a decodable image: %v", err)
			}
		})
	}
}

func TestTranscodeCorruptDataFallsBack(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	junk := make([]byte, minTranscodeBytes+1)
	rng.Read(junk)

	got, gotType, err := Transcode(junk, "image/png")
	if err == nil {
		t.Fatal("expected a diagnostic error for undecodable data")
	}
	if !bytes.Equal(got, junk) {
		t.Error("fallback must return the original bytes")
	}
	if gotType != "image/png" {
		t.Errorf("fallback must keep the declared content type, got %q", gotType)
	}
}

func TestTranscodeResizesWideImages(t *testing.T) {
	t.Parallel()

	src := noisePNG(t, 2200, 60)
	if len(src) < minTranscodeBytes {
		t.Fatalf("fixture too small to trigger transcoding: %d bytes", len(src))
	}

	got, _, err := Transcode(src, "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if w := img.Bounds().Dx(); w != maxImageWidth {
		t.Errorf("width: got %d, want %d", w, maxImageWidth)
	}
	// height scales with the same ratio, integer-truncated
	wantHeight := (60 * maxImageWidth) / 2200
	if h := img.Bounds().Dy(); h != wantHeight {
		t.Errorf("height: got %d, want %d", h, wantHeight)
	}
}
