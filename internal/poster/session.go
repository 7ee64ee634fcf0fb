package poster

import (
	"fmt"
	"regexp"
	"time"

	"github.com/paulmach/orb"

	"gpx_poster/internal/format"
	"gpx_poster/internal/geo"
	"gpx_poster/internal/tiles"
	"gpx_poster/internal/track"
)

// Data is the editable poster record. Distance is held in Unit.
type Data struct {
	Track        *track.Track
	ActivityType track.ActivityType
	AthleteName  string
	EventName    string
	BibNumber    string
	FinishTime   string
	Date         *time.Time
	Distance     float64
	Unit         format.Unit

	Theme           Theme
	RouteColor      RouteColor
	CustomBgColor   string
	CustomTextColor string
	CustomRoute     string
	AspectRatio     AspectRatio
	MapStyle        string
}

func defaultData() Data {
	return Data{
		ActivityType: track.Running,
		Unit:         format.Kilometers,
		Theme:        ThemeLight,
		RouteColor:   RouteOrange,
		AspectRatio:  AspectDefault,
	}
}

// Session holds the poster state of one editing session. Getters
// recompute derived values from the current fields on every call.
// A Session is not safe for concurrent use.
type Session struct {
	data     Data
	diverged bool
}

func NewSession() *Session {
	return &Session{data: defaultData()}
}

// Clone returns an independent copy. The loaded Track is shared since it
// is never mutated.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// Data returns a copy of the current record.
func (s *Session) Data() Data { return s.data }

func (s *Session) HasTrack() bool { return s.data.Track != nil }

// Diverged reports whether distance or finish time were edited since the
// last LoadFromTrack.
func (s *Session) Diverged() bool { return s.diverged }

// Route returns the coordinates of the loaded track, or nil.
func (s *Session) Route() orb.LineString {
	if s.data.Track == nil {
		return nil
	}
	return s.data.Track.Coordinates
}

// LoadFromTrack overwrites every track-derived field. The distance is
// expressed in the currently selected unit.
func (s *Session) LoadFromTrack(t *track.Track) {
	s.data.Track = t
	s.data.ActivityType = t.ActivityType
	if s.data.ActivityType == "" {
		s.data.ActivityType = track.Running
	}
	s.data.EventName = t.ActivityName
	s.data.Date = t.StartTime
	s.data.FinishTime = ""
	if t.ElapsedSeconds != nil && *t.ElapsedSeconds != 0 {
		s.data.FinishTime = format.FormatDuration(*t.ElapsedSeconds)
	}
	s.data.Distance = format.FromMeters(s.data.Unit, t.TotalDistanceMeters)
	s.diverged = false
}

// SetUnit converts the stored distance through meters. Setting the
// current unit again leaves the value untouched.
func (s *Session) SetUnit(unit format.Unit) error {
	parsed, err := format.ParseUnit(string(unit))
	if err != nil {
		return err
	}
	if parsed == s.data.Unit {
		return nil
	}
	meters := format.ToMeters(s.data.Unit, s.data.Distance)
	s.data.Distance = format.FromMeters(parsed, meters)
	s.data.Unit = parsed
	return nil
}

func (s *Session) SetDistance(distance float64) {
	s.data.Distance = distance
	s.diverged = true
}

func (s *Session) SetFinishTime(finishTime string) {
	s.data.FinishTime = finishTime
	s.diverged = true
}

func (s *Session) SetActivityType(activityType track.ActivityType) error {
	parsed, err := track.ParseActivityType(string(activityType))
	if err != nil {
		return err
	}
	s.data.ActivityType = parsed
	return nil
}

func (s *Session) SetAthleteName(name string) { s.data.AthleteName = name }
func (s *Session) SetEventName(name string)   { s.data.EventName = name }
func (s *Session) SetBibNumber(bib string)    { s.data.BibNumber = bib }
func (s *Session) SetDate(date *time.Time)    { s.data.Date = date }

func (s *Session) SetTheme(theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	s.data.Theme = theme
	return nil
}

func (s *Session) SetRouteColor(color RouteColor) error {
	if _, err := ParseRouteColor(string(color)); err != nil {
		return err
	}
	s.data.RouteColor = color
	return nil
}

func (s *Session) SetAspectRatio(ratio AspectRatio) error {
	if _, err := ParseAspectRatio(string(ratio)); err != nil {
		return err
	}
	s.data.AspectRatio = ratio
	return nil
}

// SetMapStyle selects a tile style; "" follows the theme.
func (s *Session) SetMapStyle(style string) error {
	if style != "" {
		if _, err := tiles.LookupStyle(style); err != nil {
			return err
		}
	}
	s.data.MapStyle = style
	return nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func validColor(c string) error {
	if c != "" && !hexColor.MatchString(c) {
		return fmt.Errorf("invalid hex color %q", c)
	}
	return nil
}

// SetCustomBgColor overrides the theme background; "" clears the override.
func (s *Session) SetCustomBgColor(c string) error {
	if err := validColor(c); err != nil {
		return err
	}
	s.data.CustomBgColor = c
	return nil
}

func (s *Session) SetCustomTextColor(c string) error {
	if err := validColor(c); err != nil {
		return err
	}
	s.data.CustomTextColor = c
	return nil
}

func (s *Session) SetCustomRouteColor(c string) error {
	if err := validColor(c); err != nil {
		return err
	}
	s.data.CustomRoute = c
	return nil
}

// Reset restores the defaults and drops the loaded track.
func (s *Session) Reset() {
	s.data = defaultData()
	s.diverged = false
}

// --- Derived values ---

func (s *Session) FormattedDistance() string {
	return fmt.Sprintf("%.1f", s.data.Distance)
}

func (s *Session) DistanceLabel() string { return format.DistanceLabel(s.data.Unit) }

func (s *Session) FormattedDate() string {
	if s.data.Date == nil {
		return ""
	}
	return format.FormatDate(*s.data.Date)
}

// FormattedElevationGain is empty when the track has no elevation data.
func (s *Session) FormattedElevationGain() string {
	if s.data.Track == nil || s.data.Track.ElevationGainMeters == nil {
		return ""
	}
	return format.FormatElevation(*s.data.Track.ElevationGainMeters)
}

// editedMeasures returns the current distance in meters and the parsed
// finish time, or ok=false when either cannot yield a pace or speed.
func (s *Session) editedMeasures() (meters float64, seconds int64, ok bool) {
	seconds, ok = format.ParseDuration(s.data.FinishTime)
	if !ok || seconds == 0 || s.data.Distance <= 0 {
		return 0, 0, false
	}
	return format.ToMeters(s.data.Unit, s.data.Distance), seconds, true
}

func (s *Session) FormattedPace() string {
	meters, seconds, ok := s.editedMeasures()
	if !ok {
		return format.PacePlaceholder
	}
	pace, ok := geo.PaceSecondsPerKm(meters, &seconds)
	if !ok {
		return format.PacePlaceholder
	}
	return format.FormatPace(pace, s.data.Unit)
}

func (s *Session) FormattedSpeed() string {
	meters, seconds, ok := s.editedMeasures()
	if !ok {
		return format.SpeedPlaceholder
	}
	return format.FormatSpeed(meters/float64(seconds), s.data.Unit)
}

func (s *Session) PaceLabel() string  { return format.PaceLabel(s.data.Unit) }
func (s *Session) SpeedLabel() string { return format.SpeedLabel(s.data.Unit) }

// PrimaryMetric is speed for cycling and pace for everything else.
func (s *Session) PrimaryMetric() string {
	if s.data.ActivityType == track.Cycling {
		return s.FormattedSpeed()
	}
	return s.FormattedPace()
}

func (s *Session) PrimaryMetricLabel() string {
	if s.data.ActivityType == track.Cycling {
		return s.SpeedLabel()
	}
	return s.PaceLabel()
}

// --- Presentation ---

func (s *Session) themeConfig() ThemeConfig {
	if cfg, ok := Themes[s.data.Theme]; ok {
		return cfg
	}
	return Themes[ThemeLight]
}

func (s *Session) EffectiveBgColor() string {
	if s.data.CustomBgColor != "" {
		return s.data.CustomBgColor
	}
	return s.themeConfig().Bg
}

func (s *Session) EffectiveTextColor() string {
	if s.data.CustomTextColor != "" {
		return s.data.CustomTextColor
	}
	return s.themeConfig().Text
}

func (s *Session) EffectiveRouteColor() string {
	if s.data.CustomRoute != "" {
		return s.data.CustomRoute
	}
	if c, ok := RouteColors[s.data.RouteColor]; ok {
		return c
	}
	return RouteColors[RouteOrange]
}

// EffectiveMapStyle falls back to the theme's tile style.
func (s *Session) EffectiveMapStyle() string {
	if s.data.MapStyle != "" {
		return s.data.MapStyle
	}
	return s.themeConfig().Tiles
}

func (s *Session) dimensions() Dimensions {
	if d, ok := AspectRatios[s.data.AspectRatio]; ok {
		return d
	}
	return AspectRatios[AspectDefault]
}

func (s *Session) Width() int  { return s.dimensions().Width }
func (s *Session) Height() int { return s.dimensions().Height }
