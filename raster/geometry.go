package raster

import (
	"image"
)

// inkThreshold is the minimum coverage for a canvas pixel to count as ink.
const inkThreshold = 0x80

// CropRegion computes the square region to cut out of a canvas for a glyph
// with ink bounding box bbox, rendered for target size size.
//
// The region is centred on the centre of bbox, with a half-extent of
// max(width, height)/2 plus a padding of size/10. It is clamped to the canvas,
// so it may end up non-square for glyphs touching the canvas border.
// All divisions are integer divisions.
func CropRegion(bbox image.Rectangle, size int, canvas image.Rectangle) image.Rectangle {
	if bbox.Empty() {
		return image.Rectangle{}
	}
	padding := size / 10
	cx := (bbox.Min.X + bbox.Max.X) / 2
	cy := (bbox.Min.Y + bbox.Max.Y) / 2
	half := max(bbox.Dx(), bbox.Dy())/2 + padding
	if half < 1 {
		half = 1
	}
	return image.Rect(cx-half, cy-half, cx+half, cy+half).Intersect(canvas)
}

// inkBounds returns the tight bounding box of all non-background pixels.
// Background is white.
func inkBounds(img *image.Gray) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride : (y-b.Min.Y)*img.Stride+b.Dx()]
		for i, v := range row {
			if v == 0xff {
				continue
			}
			x := b.Min.X + i
			minX, maxX = min(minX, x), max(maxX, x+1)
			minY, maxY = min(minY, y), max(maxY, y+1)
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// threshold converts coverage values to a monochrome image: black ink on
// white background.
func threshold(coverage *image.Alpha) *image.Gray {
	b := coverage.Bounds()
	img := image.NewGray(b)
	for i, a := range coverage.Pix {
		if a >= inkThreshold {
			img.Pix[i] = 0x00
		} else {
			img.Pix[i] = 0xff
		}
	}
	return img
}

func blank(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}
