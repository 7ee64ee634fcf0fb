package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/tkrajina/gpxgo/gpx"
	"golang.org/x/text/encoding/ianaindex"

	"gpx_poster/internal/geo"
)

// --- Intermediate feature model ---

// sample is one raw track point with its optional measurements.
type sample struct {
	point orb.Point
	ele   *float64
	time  *time.Time
}

// feature is one <trk>: its metadata and segments, each an ordered run of samples.
type feature struct {
	name     string
	kind     string
	segments [][]sample
}

func featuresFromGPX(g *gpx.GPX) []feature {
	features := make([]feature, 0, len(g.Tracks))
	for _, trk := range g.Tracks {
		f := feature{
			name: strings.TrimSpace(trk.Name),
			kind: strings.TrimSpace(trk.Type),
		}
		for _, seg := range trk.Segments {
			samples := make([]sample, 0, len(seg.Points))
			for _, p := range seg.Points {
				s := sample{point: orb.Point{p.Longitude, p.Latitude}}
				if p.Elevation.NotNull() {
					ele := p.Elevation.Value()
					s.ele = &ele
				}
				if !p.Timestamp.IsZero() {
					ts := p.Timestamp
					s.time = &ts
				}
				samples = append(samples, s)
			}
			f.segments = append(f.segments, samples)
		}
		features = append(features, f)
	}
	return features
}

// --- Parsing ---

// ParseFile reads and parses a GPX file from disk.
func ParseFile(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX file: %w", err)
	}
	return Parse(data)
}

// ParseReader parses GPX from an io.Reader.
func ParseReader(r io.Reader) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX: %w", err)
	}
	return Parse(data)
}

var errNoRoot = errors.New("no root element")

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// rootElement reads the whole document and returns the local name of its
// root element. Any syntax error, a second root or text after the root
// means the input is not well-formed XML.
func rootElement(data []byte) (string, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charsetReader

	root := ""
	depth := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			if depth == 0 && root != "" {
				return "", fmt.Errorf("unexpected second root element <%s>", tok.Name.Local)
			}
			if root == "" {
				root = tok.Name.Local
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(tok)) > 0 {
				return "", errors.New("text outside the root element")
			}
		}
	}
	if root == "" {
		return "", errNoRoot
	}
	return root, nil
}

// Parse turns a GPX document into a Track. It fails with a *ParseError of
// kind MalformedXML when the input is not well-formed XML and EmptyTrack
// when it is well-formed but holds no track points, including documents
// whose root is not <gpx>.
func Parse(data []byte) (*Track, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, &ParseError{Kind: MalformedXML, Err: err}
	}
	if root != "gpx" {
		return nil, &ParseError{Kind: EmptyTrack, Err: fmt.Errorf("root element is <%s>, not <gpx>", root)}
	}

	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, &ParseError{Kind: MalformedXML, Err: err}
	}

	features := featuresFromGPX(g)

	coords := extractCoordinates(features)
	if len(coords) == 0 {
		return nil, &ParseError{Kind: EmptyTrack}
	}

	start, end := extractTimes(features)
	name := extractName(features)
	if name == "" {
		name = strings.TrimSpace(g.Name)
	}

	return &Track{
		Coordinates:         coords,
		TotalDistanceMeters: geo.PathDistance(coords),
		StartTime:           start,
		EndTime:             end,
		ElapsedSeconds:      geo.ElapsedSeconds(start, end),
		ElevationGainMeters: elevationGain(features),
		ActivityName:        name,
		ActivityType:        extractActivityType(features),
	}, nil
}

func extractCoordinates(features []feature) orb.LineString {
	var coords orb.LineString
	for _, f := range features {
		for _, seg := range f.segments {
			for _, s := range seg {
				coords = append(coords, s.point)
			}
		}
	}
	return coords
}

// extractTimes returns the earliest and latest timestamps of any point.
// Segments are not assumed to be in chronological order.
func extractTimes(features []feature) (start, end *time.Time) {
	for _, f := range features {
		for _, seg := range f.segments {
			for _, s := range seg {
				if s.time == nil {
					continue
				}
				if start == nil || s.time.Before(*start) {
					start = s.time
				}
				if end == nil || s.time.After(*end) {
					end = s.time
				}
			}
		}
	}
	return start, end
}

func extractName(features []feature) string {
	for _, f := range features {
		if f.name != "" {
			return f.name
		}
	}
	return ""
}

// elevationGain sums positive deltas between consecutive points of each
// segment where both carry elevation. No smoothing is applied.
func elevationGain(features []feature) *float64 {
	hasElevation := false
	gain := 0.0
	for _, f := range features {
		for _, seg := range f.segments {
			for i, s := range seg {
				if s.ele == nil {
					continue
				}
				hasElevation = true
				if i == 0 || seg[i-1].ele == nil {
					continue
				}
				if diff := *s.ele - *seg[i-1].ele; diff > 0 {
					gain += diff
				}
			}
		}
	}
	if !hasElevation {
		return nil
	}
	return &gain
}

var cyclingKinds = []string{"cycling", "biking", "bike", "ride", "1"}

func extractActivityType(features []feature) ActivityType {
	for _, f := range features {
		if f.kind == "" {
			continue
		}
		kind := strings.ToLower(f.kind)
		for _, c := range cyclingKinds {
			if kind == c || (len(c) > 1 && strings.Contains(kind, c)) {
				return Cycling
			}
		}
		return Running
	}
	return Running
}
