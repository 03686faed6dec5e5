package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format (jpeg/png/webp)")

// NormalizeToJPG decodes a jpeg, png or webp upload, applies its EXIF
// orientation, shrinks it to maxWidth when wider (maxWidth <= 0 keeps the
// size) and re-encodes it as JPEG. It returns the source format too.
func NormalizeToJPG(input []byte, maxWidth int, quality int) ([]byte, string, error) {
	if len(input) == 0 {
		return nil, "", errors.New("empty image")
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	img, format, err := decodeImage(bytes.NewReader(input))
	if err != nil {
		return nil, "", err
	}
	if format == "jpeg" {
		img = applyOrientation(img, readEXIFOrientation(bytes.NewReader(input)))
	}
	if maxWidth > 0 {
		img = resizeMaxWidth(img, maxWidth)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", err
	}
	return out.Bytes(), format, nil
}

func decodeImage(r *bytes.Reader) (image.Image, string, error) {
	decoders := []struct {
		name   string
		decode func(io.Reader) (image.Image, error)
	}{
		{"jpeg", jpeg.Decode},
		{"png", png.Decode},
		{"webp", webp.Decode},
	}
	for _, d := range decoders {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, "", err
		}
		if img, err := d.decode(r); err == nil {
			return img, d.name, nil
		}
	}
	return nil, "", ErrUnsupportedImage
}

func readEXIFOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	ori, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return ori
}

// applyOrientation undoes EXIF orientation 2..8; 1 and unknown values
// leave the image as is.
func applyOrientation(src image.Image, ori int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch ori {
	case 2: // mirror
		return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
	case 3: // 180
		return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
	case 4: // flip
		return remap(src, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
	case 5: // transpose
		return remap(src, h, w, func(x, y int) (int, int) { return y, x })
	case 6: // 90 cw
		return remap(src, h, w, func(x, y int) (int, int) { return h - 1 - y, x })
	case 7: // transverse
		return remap(src, h, w, func(x, y int) (int, int) { return h - 1 - y, w - 1 - x })
	case 8: // 90 ccw
		return remap(src, h, w, func(x, y int) (int, int) { return y, w - 1 - x })
	}
	return src
}

// remap copies every source pixel (x, y) to to(x, y) on a dw x dh canvas.
func remap(src image.Image, dw, dh int, to func(x, y int) (int, int)) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dx, dy := to(x, y)
			dst.Set(dx, dy, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func resizeMaxWidth(src image.Image, maxW int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || w <= maxW {
		return src
	}

	newH := int(math.Round(float64(h) * float64(maxW) / float64(w)))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
