package extract

import (
	"bytes"
	"image"
	"image/png"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// minImagePixels filters decorative bullets and icons out of PDF pages
// (roughly anything under 34x34).
const minImagePixels = 1200

// toPNG converts an embedded media part to PNG. PNG passes through
// untouched. WMF/EMF vector metafiles have no Go decoder; they are dropped
// (ok=false) rather than emitted in a format the review UI cannot render.
func toPNG(name string, raw []byte) ([]byte, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return raw, true
	case ".wmf", ".emf":
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, bool) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// tooSmall reports whether a decoded image is below the decorative-icon
// area threshold.
func tooSmall(img image.Image) bool {
	b := img.Bounds()
	px := b.Dx() * b.Dy()
	return px > 0 && px < minImagePixels
}

// nearlyBlank samples the image on a sparse 32x32 grid and reports whether
// it is a blank scan artifact: >98.5% near-white opaque pixels with almost
// no luminance variance.
func nearlyBlank(img image.Image) bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return true
	}
	stepX := w / 32
	if stepX < 1 {
		stepX = 1
	}
	stepY := h / 32
	if stepY < 1 {
		stepY = 1
	}

	var opaque, whiteish, n int64
	var mean, m2 float64 // Welford variance on luminance

	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, a := img.At(x, y).RGBA()
			if a>>8 < 8 {
				continue
			}
			opaque++
			r8, g8, b8 := r>>8, g>>8, bl>>8
			if r8 >= 246 && g8 >= 246 && b8 >= 246 {
				whiteish++
			}
			lum := float64((r8 + g8 + g8 + b8) >> 2)
			n++
			delta := lum - mean
			mean += delta / float64(n)
			m2 += delta * (lum - mean)
		}
	}
	if opaque == 0 {
		return true
	}
	variance := 0.0
	if n > 1 {
		variance = m2 / float64(n-1)
	}
	whiteRatio := float64(whiteish) / float64(opaque)
	return whiteRatio > 0.985 && variance < 15.0
}
