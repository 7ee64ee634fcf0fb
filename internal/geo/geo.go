package geo

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// EarthRadiusMeters is the mean Earth radius used for all great-circle distances.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two
// points given in GeoJSON order (lon, lat).
func Haversine(p1, p2 orb.Point) float64 {
	lat1 := p1.Lat() * math.Pi / 180
	lat2 := p2.Lat() * math.Pi / 180
	dLat := (p2.Lat() - p1.Lat()) * math.Pi / 180
	dLon := (p2.Lon() - p1.Lon()) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// PathDistance sums Haversine over consecutive pairs. Neumaier summation
// keeps long tracks free of accumulated rounding bias.
func PathDistance(coords orb.LineString) float64 {
	if len(coords) < 2 {
		return 0
	}

	var sum, comp float64
	for i := 1; i < len(coords); i++ {
		d := Haversine(coords[i-1], coords[i])
		t := sum + d
		if math.Abs(sum) >= math.Abs(d) {
			comp += (sum - t) + d
		} else {
			comp += (d - t) + sum
		}
		sum = t
	}
	return sum + comp
}

// ElapsedSeconds returns floor((end - start) / 1s) at millisecond
// resolution, or nil when either bound is missing. End before start
// yields a negative value.
func ElapsedSeconds(start, end *time.Time) *int64 {
	if start == nil || end == nil {
		return nil
	}
	ms := end.UnixMilli() - start.UnixMilli()
	secs := ms / 1000
	if ms%1000 != 0 && ms < 0 {
		secs--
	}
	return &secs
}

// PaceSecondsPerKm returns seconds per kilometer. ok is false when the
// elapsed time is unknown or the distance is zero.
func PaceSecondsPerKm(distanceMeters float64, elapsedSeconds *int64) (pace float64, ok bool) {
	if elapsedSeconds == nil || distanceMeters == 0 {
		return 0, false
	}
	return float64(*elapsedSeconds) / (distanceMeters / 1000), true
}
