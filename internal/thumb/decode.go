package thumb

import (
	"fmt"
	"image"
	"os"

	"thumbgrid/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// MaxImageDimension is the largest width or height accepted for a full
	// decode. Bigger sources are still handled, but only through the vips
	// path which shrinks during decode.
	MaxImageDimension = 16384

	// MaxImagePixels caps total pixels for the pure-Go decode path. A 20MP
	// RGBA frame is ~80MB; with six workers that is the peak decode budget.
	MaxImagePixels = 20_000_000
)

// Decoder turns a source image file into a correctly oriented bitmap that
// fits a bounding box. It prefers libvips (decode-time shrinking) and falls
// back to the pure-Go imaging path when vips is unavailable or rejects the
// file.
type Decoder struct {
	maxDimension int
	maxPixels    int
}

// NewDecoder returns a decoder with the default size guards.
func NewDecoder() *Decoder {
	return &Decoder{
		maxDimension: MaxImageDimension,
		maxPixels:    MaxImagePixels,
	}
}

// Decode produces a bitmap for path sized to fit within boxW x boxH with
// the source aspect ratio and EXIF orientation applied. The returned image
// is never mutated afterwards and may be shared by concurrent readers.
func (d *Decoder) Decode(path string, boxW, boxH int) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	if img, err := loadWithVips(path, boxW, boxH); err == nil {
		return img, nil
	} else if IsVipsAvailable() {
		logging.Debug("vips decode failed for %s: %v, falling back to imaging", path, err)
	}

	src, err := d.open(path)
	if err != nil {
		return nil, err
	}

	// Orientation was applied at open, so bounds are post-rotation.
	w, h := FitWithin(src.Bounds().Dx(), src.Bounds().Dy(), boxW, boxH)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("degenerate dimensions for %s", path)
	}

	return imaging.Resize(src, w, h, imaging.Lanczos), nil
}

// open decodes the full source with auto-orientation, refusing files whose
// pixel count would blow the decode memory budget.
func (d *Decoder) open(path string) (image.Image, error) {
	if dims, err := probeDimensions(path); err == nil {
		if dims.Width > d.maxDimension || dims.Height > d.maxDimension {
			return nil, fmt.Errorf("image %s exceeds max dimension (%dx%d)", path, dims.Width, dims.Height)
		}
		if dims.Width*dims.Height > d.maxPixels {
			return nil, fmt.Errorf("image %s exceeds pixel budget (%dx%d)", path, dims.Width, dims.Height)
		}
	} else {
		logging.Debug("could not probe dimensions for %s: %v", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying registered decoders", path, err)

	return decodeRegistered(path)
}

// decodeRegistered tries the stdlib-registered format decoders directly.
// Some files carry extensions that mislead the extension-based fast path.
func decodeRegistered(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode failed for %s: %w", path, err)
	}
	logging.Debug("decoded %s as %s", path, format)
	return img, nil
}

// Dimensions holds source pixel dimensions.
type Dimensions struct {
	Width  int
	Height int
}

// probeDimensions reads image dimensions without decoding pixel data.
func probeDimensions(path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, err
	}
	return Dimensions{Width: config.Width, Height: config.Height}, nil
}
