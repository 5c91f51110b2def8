package media

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultThumbMaxWidth is the widest cover kept without resizing.
	DefaultThumbMaxWidth = 900
	thumbQuality         = 80
)

// NormalizeThumb re-encodes the image at src as a JPEG no wider than
// maxWidth and returns the new file's path, next to src. Thumb materials
// only accept JPEG. If src cannot be decoded it is returned unchanged.
func NormalizeThumb(src string, maxWidth int) (string, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbMaxWidth
	}
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open thumb: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return src, nil
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		newH := h * maxWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	out, err := os.CreateTemp(filepath.Dir(src), base+"-thumb-*.jpg")
	if err != nil {
		return "", fmt.Errorf("create thumb: %w", err)
	}
	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: thumbQuality}); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("close thumb: %w", err)
	}
	return out.Name(), nil
}
