// Package imaging turns token bounding quads into safe pixel rectangles and
// renders crop thumbnails from the rectified source image.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	_ "image/jpeg" // register JPEG decoder

	"golang.org/x/image/draw"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

const (
	// DefaultPad is the padding applied around a quad before clamping.
	DefaultPad = 10
	// minSide is the degenerate-rect threshold: anything thinner than this in
	// either dimension is rebuilt around the centroid.
	minSide = 2
	// rebuildHalf is half the side of the rebuilt box (24x24 total).
	rebuildHalf = 12
	// ThumbWidth is the target width of crop thumbnails.
	ThumbWidth = 180
)

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeRect converts a quadrilateral bounding box into a padded, clamped,
// axis-aligned rectangle that never exceeds the image bounds and never
// degenerates below a minimum size. When the natural rectangle is thinner
// than 2px in either dimension, a 24x24 box is built around the centroid
// instead, clamped to the image.
func SafeRect(q models.Quad, imgW, imgH, pad int) (image.Rectangle, error) {
	if imgW <= 0 || imgH <= 0 {
		return image.Rectangle{}, apperr.Invalidf("image dimensions %dx%d", imgW, imgH)
	}
	for _, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return image.Rectangle{}, apperr.Invalidf("bounding box has non-finite coordinates")
		}
	}

	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	x0 := clampInt(int(math.Round(minX))-pad, 0, imgW-1)
	y0 := clampInt(int(math.Round(minY))-pad, 0, imgH-1)
	x1 := clampInt(int(math.Round(maxX))+pad, 0, imgW-1)
	y1 := clampInt(int(math.Round(maxY))+pad, 0, imgH-1)

	if x1-x0 < minSide || y1-y0 < minSide {
		cx := clampInt(int(math.Round(q.CenterX())), 0, imgW-1)
		cy := clampInt(int(math.Round(q.CenterY())), 0, imgH-1)
		x0 = clampInt(cx-rebuildHalf, 0, imgW-1)
		y0 = clampInt(cy-rebuildHalf, 0, imgH-1)
		x1 = clampInt(cx+rebuildHalf, 0, imgW-1)
		y1 = clampInt(cy+rebuildHalf, 0, imgH-1)
	}

	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}, apperr.Invalidf("degenerate crop rect for box %+v", q)
	}
	return image.Rect(x0, y0, x1, y1), nil
}

// Decode decodes encoded image bytes (PNG or JPEG).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	return img, nil
}

// Dimensions reads the pixel dimensions from encoded image bytes without
// decoding the full image.
func Dimensions(data []byte) (w, h int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imaging: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ToPNG normalizes encoded image bytes to PNG. PNG input is returned
// unchanged; anything else is decoded and re-encoded, so stored images
// match their .png extension and content type.
func ToPNG(data []byte) ([]byte, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if format == "png" {
		return data, nil
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop extracts rect from img and returns the region as a new image.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Add(img.Bounds().Min)
	if si, ok := img.(subImager); ok {
		return si.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
	return dst
}

// Thumbnail scales img to the given width preserving aspect ratio and
// encodes it as PNG.
func Thumbnail(img image.Image, width int) ([]byte, error) {
	if width <= 0 {
		width = ThumbWidth
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("imaging: empty source image")
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// CropThumbnail decodes the source image, crops the safe rectangle derived
// from the quad, and returns a PNG thumbnail of the region.
func CropThumbnail(imageData []byte, q models.Quad, pad int) ([]byte, error) {
	img, err := Decode(imageData)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	rect, err := SafeRect(q, b.Dx(), b.Dy(), pad)
	if err != nil {
		return nil, err
	}
	return Thumbnail(Crop(img, rect), ThumbWidth)
}
