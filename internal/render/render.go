package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gpx_poster/internal/poster"
	"gpx_poster/internal/tiles"
)

// Reference width the layout constants below are expressed in.
const baseWidth = 1600.0

const (
	marginPx       = 80.0
	textBlockPx    = 620.0
	routePadPx     = 60.0
	routeWidthPx   = 8.0
	markerPx       = 14.0
	defaultMaxZoom = 18
)

type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font

	// Fetcher supplies the basemap; nil renders a plain map frame.
	Fetcher *tiles.Fetcher

	MapBrightness float64
	MapContrast   float64
}

func New(fetcher *tiles.Fetcher) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold, Fetcher: fetcher, MapContrast: 1}, nil
}

// mapFrame is the rectangle the route and basemap are drawn into.
func mapFrame(width, height int) image.Rectangle {
	u := float64(width) / baseWidth
	m := int(math.Round(marginPx * u))
	bottom := height - int(math.Round(textBlockPx*u))
	if bottom < m+1 {
		bottom = m + 1
	}
	return image.Rect(m, m, width-m, bottom)
}

func routeView(route orb.LineString, frame image.Rectangle, u float64, maxZoom int) tiles.View {
	return tiles.FitView(route.Bound(), frame.Dx(), frame.Dy(), routePadPx*u, maxZoom)
}

func maxZoomFor(style tiles.Style) int {
	if style.MaxZoom > 0 {
		return style.MaxZoom
	}
	return defaultMaxZoom
}

// Basemap returns the style and tiles Render will request for s, so they
// can be prefetched. The list is empty when no basemap will be drawn.
func Basemap(s *poster.Session) (tiles.Style, []tiles.Tile) {
	style, err := tiles.LookupStyle(s.EffectiveMapStyle())
	if err != nil || !style.Enabled() || len(s.Route()) == 0 {
		return style, nil
	}
	frame := mapFrame(s.Width(), s.Height())
	u := float64(s.Width()) / baseWidth
	return style, routeView(s.Route(), frame, u, maxZoomFor(style)).Tiles()
}

// Render draws the poster for s. Basemap failures are logged and the
// poster is drawn without one.
func (r *Renderer) Render(ctx context.Context, s *poster.Session) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height := s.Width(), s.Height()
	u := float64(width) / baseWidth

	bg := mustColor(s.EffectiveBgColor(), color.White)
	fg := mustColor(s.EffectiveTextColor(), color.Black)
	routeColor := mustColor(s.EffectiveRouteColor(), color.RGBA{R: 0xfc, G: 0x52, A: 0xff})

	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()

	frame := mapFrame(width, height)
	route := s.Route()

	style, err := tiles.LookupStyle(s.EffectiveMapStyle())
	if err != nil {
		log.Printf("map style: %v", err)
		style = tiles.Styles[tiles.NoTiles]
	}
	maxZoom := maxZoomFor(style)

	drewMap := false
	if len(route) > 0 {
		view := routeView(route, frame, u, maxZoom)
		if r.Fetcher != nil && style.Enabled() {
			mosaic, err := tiles.Mosaic(ctx, r.Fetcher, style, view)
			switch {
			case err == nil:
				dc.DrawImage(tiles.Tone(mosaic, r.MapBrightness, r.MapContrast), frame.Min.X, frame.Min.Y)
				drewMap = true
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				log.Printf("could not build basemap: %v", err)
			}
		}
		if !drewMap {
			drawPlainFrame(dc, frame, fg, u)
		}
		drawRoute(dc, route, view, frame, routeColor, fg, u)
	} else {
		drawPlainFrame(dc, frame, fg, u)
	}

	r.drawText(dc, s, frame, fg, u)

	if drewMap && style.Attribution != "" {
		face := r.face(r.regular, 18*u)
		dc.SetFontFace(face)
		dc.SetColor(withAlpha(fg, 140))
		dc.DrawStringAnchored(style.Attribution, float64(frame.Max.X), float64(frame.Max.Y)+24*u, 1, 0.5)
	}

	return dc.Image(), nil
}

func drawPlainFrame(dc *gg.Context, frame image.Rectangle, fg color.Color, u float64) {
	dc.SetColor(withAlpha(fg, 12))
	dc.DrawRectangle(float64(frame.Min.X), float64(frame.Min.Y), float64(frame.Dx()), float64(frame.Dy()))
	dc.Fill()
	dc.SetColor(withAlpha(fg, 48))
	dc.SetLineWidth(2 * u)
	dc.DrawRectangle(float64(frame.Min.X), float64(frame.Min.Y), float64(frame.Dx()), float64(frame.Dy()))
	dc.Stroke()
}

func drawRoute(dc *gg.Context, route orb.LineString, view tiles.View, frame image.Rectangle, routeColor, fg color.Color, u float64) {
	ox, oy := float64(frame.Min.X), float64(frame.Min.Y)
	project := func(p orb.Point) (float64, float64) {
		x, y := view.Project(p)
		return ox + x, oy + y
	}

	dc.Push()
	dc.DrawRectangle(ox, oy, float64(frame.Dx()), float64(frame.Dy()))
	dc.Clip()

	if len(route) > 1 {
		dc.SetColor(routeColor)
		dc.SetLineWidth(routeWidthPx * u)
		dc.SetLineCap(gg.LineCapRound)
		dc.SetLineJoin(gg.LineJoinRound)
		x, y := project(route[0])
		dc.MoveTo(x, y)
		for _, p := range route[1:] {
			x, y = project(p)
			dc.LineTo(x, y)
		}
		dc.Stroke()
	}

	drawMarker := func(p orb.Point, c color.Color) {
		x, y := project(p)
		dc.SetColor(c)
		dc.DrawCircle(x, y, markerPx*u)
		dc.Fill()
		dc.SetColor(color.White)
		dc.SetLineWidth(3 * u)
		dc.DrawCircle(x, y, markerPx*u)
		dc.Stroke()
	}
	if len(route) > 1 {
		drawMarker(route[len(route)-1], fg)
	}
	drawMarker(route[0], mustColor(poster.StartMarkerColor, color.RGBA{G: 0xc5, A: 0xff}))

	dc.ResetClip()
	dc.Pop()
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size})
}

// fitFace shrinks size until text fits maxWidth.
func (r *Renderer) fitFace(dc *gg.Context, f *truetype.Font, text string, size, minSize, maxWidth float64) font.Face {
	for {
		face := r.face(f, size)
		dc.SetFontFace(face)
		w, _ := dc.MeasureString(text)
		if w <= maxWidth || size*0.9 < minSize {
			return face
		}
		size *= 0.9
	}
}

type stat struct {
	value, label string
}

func (r *Renderer) drawText(dc *gg.Context, s *poster.Session, frame image.Rectangle, fg color.Color, u float64) {
	d := s.Data()
	left := float64(frame.Min.X)
	maxWidth := float64(frame.Dx())
	y := float64(frame.Max.Y) + 130*u

	headline := cases.Upper(language.English).String(strings.TrimSpace(d.EventName))
	if headline != "" {
		dc.SetFontFace(r.fitFace(dc, r.bold, headline, 92*u, 40*u, maxWidth))
		dc.SetColor(fg)
		dc.DrawString(headline, left, y)
	}
	y += 70 * u

	var sub []string
	if name := strings.TrimSpace(d.AthleteName); name != "" {
		sub = append(sub, name)
	}
	if date := s.FormattedDate(); date != "" {
		sub = append(sub, date)
	}
	if bib := strings.TrimSpace(d.BibNumber); bib != "" {
		sub = append(sub, "#"+bib)
	}
	if len(sub) > 0 {
		line := strings.Join(sub, "  ·  ")
		dc.SetFontFace(r.fitFace(dc, r.regular, line, 44*u, 24*u, maxWidth))
		dc.SetColor(withAlpha(fg, 200))
		dc.DrawString(line, left, y)
	}

	finish := d.FinishTime
	if finish == "" {
		finish = `--:--'--"`
	}
	stats := []stat{
		{s.FormattedDistance(), s.DistanceLabel()},
		{finish, "TIME"},
		{s.PrimaryMetric(), s.PrimaryMetricLabel()},
	}
	if gain := s.FormattedElevationGain(); gain != "" {
		stats = append(stats, stat{gain, "ELEVATION"})
	}

	valueY := float64(dc.Height()) - 190*u
	labelY := valueY + 56*u
	col := maxWidth / float64(len(stats))
	valueFace := r.face(r.bold, 72*u)
	if len(stats) > 3 {
		valueFace = r.face(r.bold, 60*u)
	}
	labelFace := r.face(r.regular, 30*u)

	for i, st := range stats {
		x := left + col*float64(i)
		dc.SetFontFace(valueFace)
		dc.SetColor(fg)
		dc.DrawString(st.value, x, valueY)
		dc.SetFontFace(labelFace)
		dc.SetColor(withAlpha(fg, 160))
		dc.DrawString(st.label, x, labelY)
	}
}

func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	return enc.Encode(w, img)
}
