package tiles

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Mosaic assembles the tiles covering v into a v.Width x v.Height image,
// resampling them to the view's fractional scale.
func Mosaic(ctx context.Context, f *Fetcher, style Style, v View) (*image.RGBA, error) {
	if v.Width <= 0 || v.Height <= 0 {
		return nil, fmt.Errorf("invalid mosaic size %dx%d", v.Width, v.Height)
	}
	out := image.NewRGBA(image.Rect(0, 0, v.Width, v.Height))

	for _, t := range v.Tiles() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := f.Get(ctx, style, t)
		if err != nil {
			return nil, fmt.Errorf("get tile %d/%d/%d: %w", t.Z, t.X, t.Y, err)
		}

		x0 := math.Floor((float64(t.X*TileSize) - v.OriginX) * v.Scale)
		y0 := math.Floor((float64(t.Y*TileSize) - v.OriginY) * v.Scale)
		x1 := math.Ceil((float64((t.X+1)*TileSize) - v.OriginX) * v.Scale)
		y1 := math.Ceil((float64((t.Y+1)*TileSize) - v.OriginY) * v.Scale)
		dst := image.Rect(int(x0), int(y0), int(x1), int(y1))

		xdraw.ApproxBiLinear.Scale(out, dst, img, img.Bounds(), xdraw.Src, nil)
	}
	return out, nil
}

// Tone shifts brightness (in [-1, 1]) and scales contrast around mid-grey.
// It returns img unchanged for the neutral settings 0 and 1.
func Tone(img *image.RGBA, brightness, contrast float64) *image.RGBA {
	if brightness == 0 && contrast == 1 {
		return img
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)

	adjust := func(v uint8) uint8 {
		c := float64(v) + brightness*255
		c = (c-128)*contrast + 128
		return uint8(math.Max(0, math.Min(255, c)))
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{R: adjust(c.R), G: adjust(c.G), B: adjust(c.B), A: c.A})
		}
	}
	return out
}
