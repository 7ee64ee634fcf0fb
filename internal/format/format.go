package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "miles"
)

const (
	MetersPerKm   = 1000.0
	MetersPerMile = 1609.344
)

// Placeholders shown when a pace or speed cannot be derived.
const (
	PacePlaceholder  = `--'--"`
	SpeedPlaceholder = "--.-"
)

func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case Kilometers, Miles:
		return Unit(s), nil
	case "mi", "mile":
		return Miles, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// --- Distance conversions ---

func MetersToKm(meters float64) float64    { return meters / MetersPerKm }
func MetersToMiles(meters float64) float64 { return meters / MetersPerMile }
func KmToMeters(km float64) float64        { return km * MetersPerKm }
func MilesToMeters(miles float64) float64  { return miles * MetersPerMile }

// ToMeters converts a distance expressed in unit to meters.
func ToMeters(unit Unit, value float64) float64 {
	if unit == Miles {
		return MilesToMeters(value)
	}
	return KmToMeters(value)
}

// FromMeters converts meters into unit.
func FromMeters(unit Unit, meters float64) float64 {
	if unit == Miles {
		return MetersToMiles(meters)
	}
	return MetersToKm(meters)
}

// --- Durations ---

var durationPattern = regexp.MustCompile(`^(\d+):(\d{2})'(\d{2})"$`)

// FormatDuration renders seconds as H:MM'SS".
func FormatDuration(totalSeconds int64) string {
	sign := ""
	mag := uint64(totalSeconds)
	if totalSeconds < 0 {
		sign = "-"
		mag = -mag // exact for math.MinInt64
	}
	hours := mag / 3600
	minutes := (mag % 3600) / 60
	seconds := mag % 60
	return fmt.Sprintf(`%s%d:%02d'%02d"`, sign, hours, minutes, seconds)
}

// ParseDuration accepts exactly the H:MM'SS" shape produced by
// FormatDuration. Anything else, including minutes or seconds above 59,
// reports ok=false.
func ParseDuration(text string) (seconds int64, ok bool) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	hours, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || hours > math.MaxInt64/3600-1 {
		return 0, false
	}
	minutes, _ := strconv.ParseInt(m[2], 10, 64)
	secs, _ := strconv.ParseInt(m[3], 10, 64)
	if minutes >= 60 || secs >= 60 {
		return 0, false
	}
	return hours*3600 + minutes*60 + secs, true
}

// --- Pace & speed ---

// FormatPace renders seconds-per-km as M'SS" in the requested unit.
// Seconds are rounded half away from zero before splitting so that a
// rounded-up 60 carries into the minutes. Paces too large for an int64
// render the placeholder.
func FormatPace(secondsPerKm float64, unit Unit) string {
	if math.IsNaN(secondsPerKm) || math.IsInf(secondsPerKm, 0) {
		return PacePlaceholder
	}
	pace := secondsPerKm
	if unit == Miles {
		pace = secondsPerKm * (MetersPerMile / MetersPerKm)
	}

	rounded := math.Round(math.Abs(pace))
	if rounded >= float64(math.MaxInt64) {
		return PacePlaceholder
	}
	total := int64(rounded)
	sign := ""
	if pace < 0 && total > 0 {
		sign = "-"
	}
	return fmt.Sprintf(`%s%d'%02d"`, sign, total/60, total%60)
}

// FormatSpeed renders meters-per-second as km/h or mph with one decimal.
func FormatSpeed(metersPerSecond float64, unit Unit) string {
	if math.IsNaN(metersPerSecond) || math.IsInf(metersPerSecond, 0) {
		return SpeedPlaceholder
	}
	speed := metersPerSecond * 3.6
	if unit == Miles {
		speed /= MetersPerMile / MetersPerKm
	}
	if math.Abs(speed) < 0.05 {
		speed = 0
	}
	return fmt.Sprintf("%.1f", speed)
}

// FormatDistance renders meters in unit with one decimal.
func FormatDistance(meters float64, unit Unit) string {
	return fmt.Sprintf("%.1f", FromMeters(unit, meters))
}

var elevationPrinter = message.NewPrinter(language.BritishEnglish)

// FormatElevation renders whole meters with thousands grouping, e.g. "1,234 m".
func FormatElevation(meters float64) string {
	return elevationPrinter.Sprintf("%d m", int64(math.Round(meters)))
}

// --- Dates & labels ---

// FormatDate renders "1 December 2025" in the time's own location.
func FormatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

func PaceLabel(unit Unit) string {
	if unit == Miles {
		return "/MI"
	}
	return "/KM"
}

func SpeedLabel(unit Unit) string {
	if unit == Miles {
		return "MPH"
	}
	return "KM/H"
}

func DistanceLabel(unit Unit) string {
	if unit == Miles {
		return "MI"
	}
	return "KM"
}
