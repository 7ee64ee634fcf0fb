package format

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:     `0:00'00"`,
		13522: `3:45'22"`,
		3661:  `1:01'01"`,
		1830:  `0:30'30"`,
		36000: `10:00'00"`,
		-300:  `-0:05'00"`,

		math.MaxInt64: `2562047788015215:30'07"`,
		math.MinInt64: `-2562047788015215:30'08"`,
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	bad := []string{
		"",
		"3:45:22",
		`3:45'22`,
		`3:4'22"`,
		`3:45'2"`,
		`3:60'00"`,
		`3:00'60"`,
		` 3:45'22"`,
		`3:45'22" `,
		`-1:00'00"`,
		`a:00'00"`,
		`:00'00"`,
		`3:45’22"`,
		`99999999999999999999:00'00"`,
	}
	for _, s := range bad {
		if v, ok := ParseDuration(s); ok {
			t.Errorf("ParseDuration(%q) accepted as %d", s, v)
		}
	}
}

func TestParseDurationRoundTrip(t *testing.T) {
	for _, h := range []int64{0, 1, 3, 10, 123} {
		for m := int64(0); m < 60; m += 7 {
			for s := int64(0); s < 60; s += 11 {
				total := h*3600 + m*60 + s
				got, ok := ParseDuration(FormatDuration(total))
				if !ok || got != total {
					t.Fatalf("round trip of %d gave %d ok=%v", total, got, ok)
				}
			}
		}
	}
	if v, ok := ParseDuration(`0:59'59"`); !ok || v != 3599 {
		t.Errorf("expected 3599, got %d", v)
	}
}

func TestConversionsRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, 500, 1609.344, 42195, 160934.4, 1e7} {
		if got := KmToMeters(MetersToKm(v)); math.Abs(got-v) > 1e-9*math.Max(1, v) {
			t.Errorf("km round trip of %f gave %f", v, got)
		}
		if got := MilesToMeters(MetersToMiles(v)); math.Abs(got-v) > 1e-9*math.Max(1, v) {
			t.Errorf("miles round trip of %f gave %f", v, got)
		}
	}
	if got := MetersToMiles(42195); math.Abs(got-26.219) > 0.001 {
		t.Errorf("expected ~26.219 miles, got %f", got)
	}
	if got := FromMeters(Miles, ToMeters(Miles, 26.2)); math.Abs(got-26.2) > 1e-12 {
		t.Errorf("expected 26.2, got %f", got)
	}
}

func TestFormatPace(t *testing.T) {
	cases := []struct {
		pace float64
		unit Unit
		want string
	}{
		{320, Kilometers, `5'20"`},
		{320, Miles, `8'35"`},
		{301, Kilometers, `5'01"`},
		{45, Kilometers, `0'45"`},
		{359.6, Kilometers, `6'00"`},
		{320.5, Kilometers, `5'21"`},
		{320.4645, Kilometers, `5'20"`},
		{0, Kilometers, `0'00"`},
		{math.NaN(), Kilometers, PacePlaceholder},
		{math.Inf(1), Miles, PacePlaceholder},
		{1e300, Kilometers, PacePlaceholder},
		{-1e300, Miles, PacePlaceholder},
		{math.MaxInt64, Kilometers, PacePlaceholder},
	}
	for _, c := range cases {
		if got := FormatPace(c.pace, c.unit); got != c.want {
			t.Errorf("FormatPace(%v, %s) = %s, want %s", c.pace, c.unit, got, c.want)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(0, Kilometers); got != "0.0" {
		t.Errorf("expected 0.0, got %s", got)
	}
	if got := FormatSpeed(50000.0/7200.0, Kilometers); got != "25.0" {
		t.Errorf("expected 25.0, got %s", got)
	}
	if got := FormatSpeed(50000.0/7200.0, Miles); got != "15.5" {
		t.Errorf("expected 15.5, got %s", got)
	}
	if got := FormatSpeed(-0.001, Kilometers); got != "0.0" {
		t.Errorf("expected 0.0 for tiny negative, got %s", got)
	}
	if got := FormatSpeed(math.Inf(1), Kilometers); got != SpeedPlaceholder {
		t.Errorf("expected placeholder, got %s", got)
	}
}

func TestFormatDistanceAndElevation(t *testing.T) {
	if got := FormatDistance(42195, Kilometers); got != "42.2" {
		t.Errorf("expected 42.2, got %s", got)
	}
	if got := FormatDistance(42195, Miles); got != "26.2" {
		t.Errorf("expected 26.2, got %s", got)
	}
	if got := FormatDistance(0, Kilometers); got != "0.0" {
		t.Errorf("expected 0.0, got %s", got)
	}
	if got := FormatElevation(1234.4); got != "1,234 m" {
		t.Errorf("expected 1,234 m, got %s", got)
	}
	if got := FormatElevation(10); got != "10 m" {
		t.Errorf("expected 10 m, got %s", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)); got != "1 December 2025" {
		t.Errorf("expected 1 December 2025, got %s", got)
	}
	if got := FormatDate(time.Date(2025, 11, 25, 8, 0, 0, 0, time.UTC)); got != "25 November 2025" {
		t.Errorf("expected 25 November 2025, got %s", got)
	}
}

func TestParseUnitAndLabels(t *testing.T) {
	if u, err := ParseUnit("miles"); err != nil || u != Miles {
		t.Errorf("expected miles, got %s %v", u, err)
	}
	if u, err := ParseUnit("mi"); err != nil || u != Miles {
		t.Errorf("expected miles alias, got %s %v", u, err)
	}
	if _, err := ParseUnit("furlongs"); err == nil {
		t.Errorf("expected error for unknown unit")
	}
	if PaceLabel(Miles) != "/MI" || PaceLabel(Kilometers) != "/KM" {
		t.Errorf("unexpected pace labels")
	}
	if SpeedLabel(Miles) != "MPH" || SpeedLabel(Kilometers) != "KM/H" {
		t.Errorf("unexpected speed labels")
	}
}
