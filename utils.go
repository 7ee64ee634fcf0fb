package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gpx_poster/internal/config"
	"gpx_poster/internal/format"
	"gpx_poster/internal/poster"
	"gpx_poster/internal/render"
	"gpx_poster/internal/tiles"
	"gpx_poster/internal/track"
)

// --- Structs ---

type Arguments struct {
	GpxFiles   []string
	OutputFile string
	Workers    int
	Summary    bool
	Quiet      bool

	Unit         string
	ActivityType string
	Distance     float64
	FinishTime   string
	AthleteName  string
	EventName    string
	BibNumber    string

	Theme       string
	RouteColor  string
	BgColor     string
	TextColor   string
	PathColor   string
	AspectRatio string
	MapStyle    string

	TileCacheDir  string
	MapBrightness float64
	MapContrast   float64
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// --- Argument Parsing ---

func parseArguments(cfg config.Config) *Arguments {
	args := &Arguments{}
	var gpxFiles multiFlag

	flag.Var(&gpxFiles, "gpx", "Path to a GPX file (repeatable).")
	flag.StringVar(&args.OutputFile, "o", "poster.png", "Output PNG file, or directory when several -gpx are given.")
	flag.IntVar(&args.Workers, "workers", runtime.NumCPU(), "Number of parallel render workers.")
	flag.BoolVar(&args.Summary, "summary", false, "Print the formatted metrics instead of rendering.")
	flag.BoolVar(&args.Quiet, "quiet", false, "Hide progress bars.")

	flag.StringVar(&args.Unit, "unit", "", "Distance unit: km or miles.")
	flag.StringVar(&args.ActivityType, "activity", "", "Override activity type: running or cycling.")
	flag.Float64Var(&args.Distance, "distance", -1, "Override distance, in the selected unit.")
	flag.StringVar(&args.FinishTime, "time", "", `Override finish time as H:MM'SS".`)
	flag.StringVar(&args.AthleteName, "athlete", "", "Athlete name.")
	flag.StringVar(&args.EventName, "event", "", "Override event name.")
	flag.StringVar(&args.BibNumber, "bib", "", "Bib number.")

	flag.StringVar(&args.Theme, "theme", "", "Theme: light, dark or navy.")
	flag.StringVar(&args.RouteColor, "route-color", "", "Route colour preset: orange, blue, cyan, yellow or pink.")
	flag.StringVar(&args.BgColor, "bg-color", "", "Custom background colour (hex).")
	flag.StringVar(&args.TextColor, "text-color", "", "Custom text colour (hex).")
	flag.StringVar(&args.PathColor, "path-color", "", "Custom route colour (hex).")
	flag.StringVar(&args.AspectRatio, "aspect", "", "Aspect ratio: default, a4 or square.")
	flag.StringVar(&args.MapStyle, "style", cfg.MapStyle, fmt.Sprintf("Map style (%s). Empty follows the theme.", strings.Join(tiles.StyleNames(), ", ")))

	flag.StringVar(&args.TileCacheDir, "tile-cache", cfg.TileCacheDir, "Tile cache directory.")
	flag.Float64Var(&args.MapBrightness, "map-brightness", cfg.MapBrightness, "Basemap brightness shift (-1..1).")
	flag.Float64Var(&args.MapContrast, "map-contrast", cfg.MapContrast, "Basemap contrast factor.")

	flag.Parse()

	args.GpxFiles = append(args.GpxFiles, gpxFiles...)
	args.GpxFiles = append(args.GpxFiles, flag.Args()...)
	if len(args.GpxFiles) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -gpx file is required")
		flag.Usage()
		os.Exit(2)
	}
	if args.Workers < 1 {
		args.Workers = 1
	}
	return args
}

// applyOverrides sets every flag the user gave on s. The unit goes first
// so an explicit -distance is read in that unit.
func applyOverrides(s *poster.Session, args *Arguments) error {
	if args.Unit != "" {
		if err := s.SetUnit(format.Unit(args.Unit)); err != nil {
			return err
		}
	}
	if args.Distance >= 0 {
		s.SetDistance(args.Distance)
	}
	if args.FinishTime != "" {
		if _, ok := format.ParseDuration(args.FinishTime); !ok {
			return fmt.Errorf(`invalid finish time %q, expected H:MM'SS"`, args.FinishTime)
		}
		s.SetFinishTime(args.FinishTime)
	}
	if args.ActivityType != "" {
		if err := s.SetActivityType(track.ActivityType(args.ActivityType)); err != nil {
			return err
		}
	}
	if args.AthleteName != "" {
		s.SetAthleteName(args.AthleteName)
	}
	if args.EventName != "" {
		s.SetEventName(args.EventName)
	}
	if args.BibNumber != "" {
		s.SetBibNumber(args.BibNumber)
	}
	if args.Theme != "" {
		if err := s.SetTheme(poster.Theme(args.Theme)); err != nil {
			return err
		}
	}
	if args.RouteColor != "" {
		if err := s.SetRouteColor(poster.RouteColor(args.RouteColor)); err != nil {
			return err
		}
	}
	for _, c := range []struct {
		value string
		set   func(string) error
	}{
		{args.BgColor, s.SetCustomBgColor},
		{args.TextColor, s.SetCustomTextColor},
		{args.PathColor, s.SetCustomRouteColor},
	} {
		if c.value == "" {
			continue
		}
		if _, err := render.ParseHexColor(c.value); err != nil {
			return err
		}
		if err := c.set(c.value); err != nil {
			return err
		}
	}
	if args.AspectRatio != "" {
		if err := s.SetAspectRatio(poster.AspectRatio(args.AspectRatio)); err != nil {
			return err
		}
	}
	if args.MapStyle != "" {
		if err := s.SetMapStyle(args.MapStyle); err != nil {
			return err
		}
	}
	return nil
}
