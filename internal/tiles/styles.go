package tiles

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Style is a raster tile source. An empty URL means the poster is drawn
// without a basemap.
type Style struct {
	Name        string
	URL         string // .../{z}/{x}/{y}.png
	Attribution string
	MaxZoom     int
	Headers     map[string]string
}

const NoTiles = "none"

var Styles = map[string]Style{
	"positron": {
		Name:        "positron",
		URL:         "https://d.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Attribution: "© CARTO, © OpenStreetMap contributors",
		MaxZoom:     19,
	},
	"dark": {
		Name:        "dark",
		URL:         "https://d.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Attribution: "© CARTO, © OpenStreetMap contributors",
		MaxZoom:     19,
	},
	"osm": {
		Name:        "osm",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenStreetMap contributors",
		MaxZoom:     19,
	},
	"cyclosm": {
		Name:        "cyclosm",
		URL:         "https://c.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png",
		Attribution: "© CyclOSM, © OpenStreetMap contributors",
		MaxZoom:     18,
	},
	"opentopomap": {
		Name:        "opentopomap",
		URL:         "https://tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenTopoMap (CC-BY-SA), © OpenStreetMap contributors",
		MaxZoom:     17,
	},
	NoTiles: {Name: NoTiles},
}

func LookupStyle(name string) (Style, error) {
	s, ok := Styles[name]
	if !ok {
		return Style{}, fmt.Errorf("invalid map style: %s (known: %s)", name, strings.Join(StyleNames(), ", "))
	}
	return s, nil
}

func StyleNames() []string {
	names := make([]string, 0, len(Styles))
	for n := range Styles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s Style) Enabled() bool { return s.URL != "" }

func (s Style) TileURL(t Tile) string {
	u := strings.Replace(s.URL, "{z}", strconv.Itoa(t.Z), 1)
	u = strings.Replace(u, "{x}", strconv.Itoa(t.X), 1)
	return strings.Replace(u, "{y}", strconv.Itoa(t.Y), 1)
}
