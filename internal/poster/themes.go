package poster

import "fmt"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeNavy  Theme = "navy"
)

type ThemeConfig struct {
	Bg   string
	Text string
	// Tiles names the map style used when the session has no explicit one.
	Tiles string
}

var Themes = map[Theme]ThemeConfig{
	ThemeLight: {Bg: "#ffffff", Text: "#1a1a1a", Tiles: "positron"},
	ThemeDark:  {Bg: "#18181b", Text: "#fafafa", Tiles: "dark"},
	ThemeNavy:  {Bg: "#0f172a", Text: "#f8fafc", Tiles: "dark"},
}

type RouteColor string

const (
	RouteOrange RouteColor = "orange"
	RouteBlue   RouteColor = "blue"
	RouteCyan   RouteColor = "cyan"
	RouteYellow RouteColor = "yellow"
	RoutePink   RouteColor = "pink"
)

var RouteColors = map[RouteColor]string{
	RouteOrange: "#fc5200",
	RouteBlue:   "#3b82f6",
	RouteCyan:   "#00ced1",
	RouteYellow: "#ffd700",
	RoutePink:   "#ff69b4",
}

const StartMarkerColor = "#22c55e"

type AspectRatio string

const (
	AspectDefault AspectRatio = "default"
	AspectA4      AspectRatio = "a4"
	AspectSquare  AspectRatio = "square"
)

type Dimensions struct {
	Width, Height int
	PrintSize     string
}

var AspectRatios = map[AspectRatio]Dimensions{
	AspectDefault: {Width: 1600, Height: 2240, PrintSize: "13.5 × 19 cm"},
	AspectA4:      {Width: 2480, Height: 3508, PrintSize: "21 × 29.7 cm"},
	AspectSquare:  {Width: 1600, Height: 1600, PrintSize: "13.5 × 13.5 cm"},
}

func ParseTheme(s string) (Theme, error) {
	if _, ok := Themes[Theme(s)]; !ok {
		return "", fmt.Errorf("unknown theme %q", s)
	}
	return Theme(s), nil
}

func ParseRouteColor(s string) (RouteColor, error) {
	if _, ok := RouteColors[RouteColor(s)]; !ok {
		return "", fmt.Errorf("unknown route color %q", s)
	}
	return RouteColor(s), nil
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	if _, ok := AspectRatios[AspectRatio(s)]; !ok {
		return "", fmt.Errorf("unknown aspect ratio %q", s)
	}
	return AspectRatio(s), nil
}
