package thumb

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeTestPNG writes a w x h PNG into dir and returns its path.
func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Fatalf("failed to close test image: %v", err)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestDecodeFitsWithinBox(t *testing.T) {
	dir := t.TempDir()
	d := NewDecoder()

	tests := []struct {
		name         string
		srcW, srcH   int
		boxW, boxH   int
		wantW, wantH int
	}{
		{"landscape", 400, 200, 52, 40, 52, 26},
		{"portrait", 200, 400, 52, 40, 20, 40},
		{"square", 100, 100, 52, 40, 40, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestPNG(t, dir, tt.name+".png", tt.srcW, tt.srcH)

			img, err := d.Decode(path, tt.boxW, tt.boxH)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := img.Bounds(); got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("decoded size = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDecodeMissingFile(t *testing.T) {
	d := NewDecoder()
	if _, err := d.Decode(filepath.Join(t.TempDir(), "nope.jpg"), 520, 400); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDecodeCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(path, []byte("this is not an image"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	d := NewDecoder()
	if _, err := d.Decode(path, 520, 400); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestDecodeRefusesOversizedSource(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "big.png", 64, 64)

	d := &Decoder{maxDimension: 32, maxPixels: 1024}
	if _, err := d.Decode(path, 520, 400); err == nil {
		t.Error("expected error for source beyond size guards")
	}
}

func TestProbeDimensions(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "probe.png", 123, 45)

	dims, err := probeDimensions(path)
	if err != nil {
		t.Fatalf("probeDimensions failed: %v", err)
	}
	if dims.Width != 123 || dims.Height != 45 {
		t.Errorf("dimensions = %dx%d, want 123x45", dims.Width, dims.Height)
	}
}
