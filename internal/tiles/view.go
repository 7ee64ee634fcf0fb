package tiles

import (
	"math"

	"github.com/paulmach/orb"
)

const TileSize = 256

type Tile struct {
	X, Y, Z int
}

// deg2num returns fractional slippy-map tile coordinates.
func deg2num(lat, lon float64, zoom int) (float64, float64) {
	lat = math.Max(-85.05112878, math.Min(85.05112878, lat))
	latRad := lat * math.Pi / 180
	n := math.Pow(2, float64(zoom))
	xtile := (lon + 180) / 360 * n
	ytile := (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n
	return xtile, ytile
}

// WorldPixel projects p to web-mercator pixel space at zoom.
func WorldPixel(p orb.Point, zoom int) (x, y float64) {
	x, y = deg2num(p.Lat(), p.Lon(), zoom)
	return x * TileSize, y * TileSize
}

// View maps world pixels at an integer tile zoom onto a Width x Height
// frame. Scale carries the fractional part of the fit, so it is in (0.5, 1]
// unless the zoom was clamped.
type View struct {
	Zoom             int
	Scale            float64
	OriginX, OriginY float64
	Width, Height    int
}

// FitView centres bound in a width x height frame leaving padding pixels
// on every side, picking the largest zoom not above maxZoom.
func FitView(bound orb.Bound, width, height int, padding float64, maxZoom int) View {
	availW := math.Max(1, float64(width)-2*padding)
	availH := math.Max(1, float64(height)-2*padding)

	x0, y0 := WorldPixel(orb.Point{bound.Min.Lon(), bound.Max.Lat()}, 0)
	x1, y1 := WorldPixel(orb.Point{bound.Max.Lon(), bound.Min.Lat()}, 0)
	spanW, spanH := x1-x0, y1-y0

	z := float64(maxZoom)
	if spanW > 0 || spanH > 0 {
		fit := math.Inf(1)
		if spanW > 0 {
			fit = availW / spanW
		}
		if spanH > 0 {
			fit = math.Min(fit, availH/spanH)
		}
		z = math.Min(math.Log2(fit), float64(maxZoom))
	}
	if z < 0 {
		z = 0
	}

	zoom := int(math.Ceil(z))
	v := View{
		Zoom:   zoom,
		Scale:  math.Exp2(z - float64(zoom)),
		Width:  width,
		Height: height,
	}
	// centre in projected space; the latitude midpoint is not the pixel midpoint
	world := math.Exp2(float64(zoom))
	cx, cy := (x0+x1)/2*world, (y0+y1)/2*world
	v.OriginX = cx - float64(width)/2/v.Scale
	v.OriginY = cy - float64(height)/2/v.Scale
	return v
}

// Project returns the frame position of p.
func (v View) Project(p orb.Point) (x, y float64) {
	wx, wy := WorldPixel(p, v.Zoom)
	return (wx - v.OriginX) * v.Scale, (wy - v.OriginY) * v.Scale
}

// Tiles lists the tiles covering the frame. Rows outside the world are
// skipped; columns are returned unwrapped.
func (v View) Tiles() []Tile {
	n := 1 << v.Zoom
	minX := int(math.Floor(v.OriginX / TileSize))
	minY := int(math.Floor(v.OriginY / TileSize))
	maxX := int(math.Floor((v.OriginX + float64(v.Width)/v.Scale - 1) / TileSize))
	maxY := int(math.Floor((v.OriginY + float64(v.Height)/v.Scale - 1) / TileSize))

	var out []Tile
	for y := max(minY, 0); y <= min(maxY, n-1); y++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, Tile{X: x, Y: y, Z: v.Zoom})
		}
	}
	return out
}

// wrap folds the column into [0, 2^Z).
func (t Tile) wrap() Tile {
	n := 1 << t.Z
	t.X = ((t.X % n) + n) % n
	return t
}
