package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"gpx_poster/internal/poster"
	"gpx_poster/internal/tiles"
	"gpx_poster/internal/track"
)

func testSession(t *testing.T) *poster.Session {
	t.Helper()
	start := time.Date(2025, 10, 5, 8, 0, 0, 0, time.UTC)
	elapsed := int64(3000)
	s := poster.NewSession()
	s.LoadFromTrack(&track.Track{
		Coordinates:         orb.LineString{{7.0, 46.0}, {7.02, 46.01}, {7.05, 46.0}},
		TotalDistanceMeters: 10000,
		StartTime:           &start,
		ElapsedSeconds:      &elapsed,
		ActivityName:        "City 10K",
		ActivityType:        track.Running,
	})
	s.SetAthleteName("Sam Runner")
	return s
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d > -3 && d < 3
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}},
		{"#fc5200", color.NRGBA{252, 82, 0, 255}},
		{"#abc", color.NRGBA{0xaa, 0xbb, 0xcc, 255}},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}},
	}
	for _, tc := range cases {
		got, err := ParseHexColor(tc.in)
		if err != nil {
			t.Errorf("ParseHexColor(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"ffffff", "#ffff", "#gggggg", ""} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestRenderWithoutBasemap(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	s := testSession(t)

	img, err := r.Render(context.Background(), s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 1600 || img.Bounds().Dy() != 2240 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if c := rgba(img.At(5, 5)); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white background, got %v", c)
	}

	frame := mapFrame(1600, 2240)
	view := routeView(s.Route(), frame, 1, maxZoomFor(tiles.Styles["positron"]))
	x, y := view.Project(s.Route()[0])
	c := rgba(img.At(frame.Min.X+int(x), frame.Min.Y+int(y)))
	if !near(c.R, 0x22) || !near(c.G, 0xc5) || !near(c.B, 0x5e) {
		t.Errorf("expected start marker colour at route start, got %v", c)
	}
}

func TestRenderThemeAndAspect(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	s := testSession(t)
	if err := s.SetTheme(poster.ThemeNavy); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAspectRatio(poster.AspectSquare); err != nil {
		t.Fatal(err)
	}

	img, err := r.Render(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 1600 || img.Bounds().Dy() != 1600 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	if c := rgba(img.At(2, 2)); c != (color.RGBA{0x0f, 0x17, 0x2a, 255}) {
		t.Errorf("expected navy background, got %v", c)
	}
}

func TestRenderEmptySession(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := r.Render(context.Background(), poster.NewSession())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 1600 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestRenderCancelled(t *testing.T) {
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, testSession(t)); err == nil {
		t.Error("expected context error")
	}
}

func tileServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	tile := image.NewRGBA(image.Rect(0, 0, tiles.TileSize, tiles.TileSize))
	for i := 0; i < len(tile.Pix); i += 4 {
		tile.Pix[i], tile.Pix[i+1], tile.Pix[i+2], tile.Pix[i+3] = 10, 200, 30, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, tile); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func withTestStyle(t *testing.T, url string) {
	t.Helper()
	tiles.Styles["render-test"] = tiles.Style{Name: "render-test", URL: url + "/{z}/{x}/{y}.png", MaxZoom: 18}
	t.Cleanup(func() { delete(tiles.Styles, "render-test") })
}

func TestRenderWithBasemap(t *testing.T) {
	srv := tileServer(t, http.StatusOK)
	withTestStyle(t, srv.URL)

	f, err := tiles.NewFetcher(t.TempDir(), 1000, 1000, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	r, err := New(f)
	if err != nil {
		t.Fatal(err)
	}
	s := testSession(t)
	if err := s.SetMapStyle("render-test"); err != nil {
		t.Fatal(err)
	}

	img, err := r.Render(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	frame := mapFrame(1600, 2240)
	c := rgba(img.At(frame.Min.X+3, frame.Min.Y+3))
	if c != (color.RGBA{10, 200, 30, 255}) {
		t.Errorf("expected basemap pixel in frame corner, got %v", c)
	}
}

func TestRenderBasemapFailureDegrades(t *testing.T) {
	srv := tileServer(t, http.StatusInternalServerError)
	withTestStyle(t, srv.URL)

	f, err := tiles.NewFetcher(t.TempDir(), 1000, 1000, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	f.MaxRetries = 1
	r, err := New(f)
	if err != nil {
		t.Fatal(err)
	}
	s := testSession(t)
	if err := s.SetMapStyle("render-test"); err != nil {
		t.Fatal(err)
	}

	img, err := r.Render(context.Background(), s)
	if err != nil {
		t.Fatalf("basemap failure should not fail the render: %v", err)
	}
	frame := mapFrame(1600, 2240)
	c := rgba(img.At(frame.Min.X+frame.Dx()/2, frame.Min.Y+5))
	if c.G == 200 {
		t.Errorf("unexpected basemap pixel %v", c)
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 3 {
		t.Errorf("unexpected decoded size %dx%d", cfg.Width, cfg.Height)
	}
}

func TestBasemap(t *testing.T) {
	s := testSession(t)
	style, list := Basemap(s)
	if style.Name != "positron" || len(list) == 0 {
		t.Fatalf("expected positron tiles, got %s with %d tiles", style.Name, len(list))
	}
	for _, tile := range list {
		if tile.Z != list[0].Z {
			t.Errorf("mixed zoom levels: %v", tile)
		}
	}

	if err := s.SetMapStyle(tiles.NoTiles); err != nil {
		t.Fatal(err)
	}
	if _, list := Basemap(s); len(list) != 0 {
		t.Errorf("expected no tiles for the none style, got %d", len(list))
	}
}
