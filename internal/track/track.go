package track

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type ActivityType string

const (
	Running ActivityType = "running"
	Cycling ActivityType = "cycling"
)

func ParseActivityType(s string) (ActivityType, error) {
	switch ActivityType(strings.ToLower(strings.TrimSpace(s))) {
	case Running:
		return Running, nil
	case Cycling:
		return Cycling, nil
	}
	return "", fmt.Errorf("unknown activity type %q", s)
}

// Track is the normalized result of parsing one GPX document. It is never
// mutated after Parse returns; a new upload produces a new Track.
type Track struct {
	// Coordinates are (lon, lat) in document order across all segments.
	Coordinates         orb.LineString
	TotalDistanceMeters float64

	StartTime      *time.Time
	EndTime        *time.Time
	ElapsedSeconds *int64

	// ElevationGainMeters is nil when no point carried elevation.
	ElevationGainMeters *float64

	// ActivityName is empty when the document names nothing.
	ActivityName string
	ActivityType ActivityType
}

// FeatureCollection exports the route as GeoJSON: the line itself plus
// start and finish markers.
func (t *Track) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(t.Coordinates)
	line.Properties["kind"] = "route"
	line.Properties["activity_type"] = string(t.ActivityType)
	line.Properties["distance_m"] = t.TotalDistanceMeters
	if t.ActivityName != "" {
		line.Properties["name"] = t.ActivityName
	}
	if t.ElevationGainMeters != nil {
		line.Properties["elevation_gain_m"] = *t.ElevationGainMeters
	}
	fc.Append(line)

	if len(t.Coordinates) == 0 {
		return fc
	}

	start := geojson.NewFeature(t.Coordinates[0])
	start.Properties["kind"] = "start"
	if t.StartTime != nil {
		start.Properties["time"] = t.StartTime.UTC().Format(time.RFC3339)
	}
	fc.Append(start)

	finish := geojson.NewFeature(t.Coordinates[len(t.Coordinates)-1])
	finish.Properties["kind"] = "finish"
	if t.EndTime != nil {
		finish.Properties["time"] = t.EndTime.UTC().Format(time.RFC3339)
	}
	fc.Append(finish)

	return fc
}
