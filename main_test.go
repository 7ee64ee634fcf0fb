package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gpx_poster/internal/format"
	"gpx_poster/internal/poster"
	"gpx_poster/internal/render"
)

const testGpx = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
	<trk>
		<name>Harbour 10K</name>
		<type>running</type>
		<trkseg>
			<trkpt lat="46.0" lon="7.0"><ele>400</ele><time>2025-04-27T08:00:00Z</time></trkpt>
			<trkpt lat="46.01" lon="7.0"><ele>410</ele><time>2025-04-27T08:05:00Z</time></trkpt>
			<trkpt lat="46.02" lon="7.01"><ele>405</ele><time>2025-04-27T08:10:00Z</time></trkpt>
		</trkseg>
	</trk>
</gpx>`

func writeGpx(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(testGpx), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOutputPaths(t *testing.T) {
	if got := outputPaths("poster.png", []string{"runs/a.gpx"}); got[0] != "poster.png" {
		t.Errorf("single input: got %s", got[0])
	}

	got := outputPaths("out", []string{"2024/race.gpx", "2025/race.gpx", "morning.gpx", "2026/Race.GPX"})
	want := []string{
		filepath.Join("out", "race.png"),
		filepath.Join("out", "race-2.png"),
		filepath.Join("out", "morning.png"),
		filepath.Join("out", "Race-4.png"),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("input %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	s := poster.NewSession()
	s.SetDistance(10)
	args := &Arguments{
		Unit:        "mi",
		Distance:    6.2,
		FinishTime:  `0:50'00"`,
		AthleteName: "Alex",
		Theme:       "dark",
		PathColor:   "#00ff00",
		AspectRatio: "square",
	}
	if err := applyOverrides(s, args); err != nil {
		t.Fatalf("applyOverrides: %v", err)
	}
	d := s.Data()
	if d.Unit != format.Miles || d.Distance != 6.2 {
		t.Errorf("expected 6.2 miles, got %v %v", d.Distance, d.Unit)
	}
	if d.AthleteName != "Alex" || d.Theme != poster.ThemeDark {
		t.Errorf("unexpected data %+v", d)
	}
	if s.EffectiveRouteColor() != "#00ff00" || s.Width() != s.Height() {
		t.Errorf("custom colour or aspect not applied")
	}
	if got := s.FormattedPace(); got != `8'04"` {
		t.Errorf("expected pace 8'04\", got %s", got)
	}
}

func TestApplyOverridesRejectsBadValues(t *testing.T) {
	cases := []*Arguments{
		{Distance: -1, Unit: "furlongs"},
		{Distance: -1, FinishTime: "fast"},
		{Distance: -1, Theme: "sepia"},
		{Distance: -1, BgColor: "white"},
		{Distance: -1, MapStyle: "watercolour"},
	}
	for _, args := range cases {
		if err := applyOverrides(poster.NewSession(), args); err == nil {
			t.Errorf("expected error for %+v", args)
		}
	}
}

func TestLoadJobs(t *testing.T) {
	dir := t.TempDir()
	good := writeGpx(t, dir, "harbour.gpx")
	args := &Arguments{
		GpxFiles:   []string{good, filepath.Join(dir, "missing.gpx")},
		OutputFile: filepath.Join(dir, "out"),
		Distance:   -1,
	}

	jobs := loadJobs(args)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Err != nil || jobs[0].Session == nil {
		t.Fatalf("first job failed: %v", jobs[0].Err)
	}
	if got := jobs[0].Session.Data().EventName; got != "Harbour 10K" {
		t.Errorf("expected event name from the track, got %q", got)
	}
	if got := jobs[0].Session.Data().FinishTime; got != `0:10'00"` {
		t.Errorf("expected finish time 0:10'00\", got %s", got)
	}
	if jobs[0].Output != filepath.Join(dir, "out", "harbour.png") {
		t.Errorf("unexpected output %s", jobs[0].Output)
	}
	if jobs[1].Err == nil {
		t.Error("expected an error for the missing file")
	}
}

func TestPrintSummary(t *testing.T) {
	dir := t.TempDir()
	args := &Arguments{GpxFiles: []string{writeGpx(t, dir, "a.gpx")}, OutputFile: "poster.png", Distance: -1}
	jobs := loadJobs(args)

	var sb strings.Builder
	printSummary(&sb, jobs[0])
	out := sb.String()
	for _, want := range []string{"Harbour 10K", "27 April 2025", `0:10'00"`, "/KM", "10 m"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	sb.Reset()
	printSummary(&sb, Job{Path: "bad.gpx", Err: errors.New("boom")})
	if !strings.Contains(sb.String(), "bad.gpx: boom") {
		t.Errorf("unexpected error summary %q", sb.String())
	}
}

func TestAllTilesForJobsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeGpx(t, dir, "a.gpx")
	args := &Arguments{GpxFiles: []string{path, path}, OutputFile: dir, Distance: -1}
	jobs := loadJobs(args)

	_, single := render.Basemap(jobs[0].Session)
	styles, byStyle := allTilesForJobs(jobs)
	if _, ok := styles["positron"]; !ok {
		t.Fatalf("expected the positron style, got %v", styles)
	}
	if len(byStyle["positron"]) != len(single) {
		t.Errorf("expected %d unique tiles, got %d", len(single), len(byStyle["positron"]))
	}
}

func TestRenderJobsReportsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeGpx(t, dir, "a.gpx")
	args := &Arguments{
		GpxFiles:   []string{path, filepath.Join(dir, "missing.gpx"), path},
		OutputFile: filepath.Join(dir, "out"),
		Distance:   -1,
		Workers:    2,
		Quiet:      true,
	}
	jobs := loadJobs(args)
	if jobs[0].Output == jobs[2].Output {
		t.Fatalf("repeated input shares output %s", jobs[0].Output)
	}

	r, err := render.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	var order []int
	var failed int
	renderJobs(context.Background(), jobs, r, args, func(res Result) {
		order = append(order, res.Index)
		if res.Err != nil {
			failed++
			return
		}
		if _, err := os.Stat(res.Output); err != nil {
			t.Errorf("expected %s to be written: %v", res.Output, err)
		}
	})

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("expected results in input order, got %v", order)
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
}
