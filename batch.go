package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/schollz/progressbar/v3"

	"gpx_poster/internal/poster"
	"gpx_poster/internal/render"
	"gpx_poster/internal/tiles"
	"gpx_poster/internal/track"
)

// --- Structs ---

type Job struct {
	Index   int
	Path    string
	Output  string
	Session *poster.Session
	Err     error
}

type Result struct {
	Index  int
	Path   string
	Output string
	Err    error
}

// --- Loading ---

// loadJobs parses every input. Failures are kept on the job so they are
// reported in input order with the render results.
func loadJobs(args *Arguments) []Job {
	jobs := make([]Job, len(args.GpxFiles))
	outputs := outputPaths(args.OutputFile, args.GpxFiles)
	for i, path := range args.GpxFiles {
		jobs[i] = Job{Index: i, Path: path, Output: outputs[i]}

		trk, err := track.ParseFile(path)
		if err != nil {
			jobs[i].Err = err
			continue
		}
		s := poster.NewSession()
		s.LoadFromTrack(trk)
		if err := applyOverrides(s, args); err != nil {
			jobs[i].Err = err
			continue
		}
		jobs[i].Session = s
	}
	return jobs
}

// outputPaths returns out for a single input. Several inputs are written
// into the directory out, one <name>.png each; a name already taken gets
// the input's position appended.
func outputPaths(out string, inputs []string) []string {
	paths := make([]string, len(inputs))
	if len(inputs) == 1 {
		paths[0] = out
		return paths
	}
	used := make(map[string]bool)
	for i, input := range inputs {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		name := base
		for n := i + 1; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[strings.ToLower(name)] = true
		paths[i] = filepath.Join(out, name+".png")
	}
	return paths
}

func printSummary(w io.Writer, job Job) {
	if job.Err != nil {
		fmt.Fprintf(w, "%s: %v\n", job.Path, job.Err)
		return
	}
	s := job.Session
	d := s.Data()
	fmt.Fprintf(w, "%s\n", job.Path)
	fmt.Fprintf(w, "  Event:     %s\n", d.EventName)
	fmt.Fprintf(w, "  Activity:  %s\n", d.ActivityType)
	fmt.Fprintf(w, "  Date:      %s\n", s.FormattedDate())
	fmt.Fprintf(w, "  Distance:  %s %s\n", s.FormattedDistance(), s.DistanceLabel())
	fmt.Fprintf(w, "  Time:      %s\n", d.FinishTime)
	fmt.Fprintf(w, "  Pace:      %s %s\n", s.FormattedPace(), s.PaceLabel())
	fmt.Fprintf(w, "  Speed:     %s %s\n", s.FormattedSpeed(), s.SpeedLabel())
	if gain := s.FormattedElevationGain(); gain != "" {
		fmt.Fprintf(w, "  Elevation: %s\n", gain)
	}
}

// --- Tiles ---

type styledTile struct {
	style string
	tile  tiles.Tile
}

func allTilesForJobs(jobs []Job) (map[string]tiles.Style, map[string][]tiles.Tile) {
	styles := make(map[string]tiles.Style)
	seen := make(map[styledTile]struct{})
	byStyle := make(map[string][]tiles.Tile)

	for _, job := range jobs {
		if job.Session == nil {
			continue
		}
		style, list := render.Basemap(job.Session)
		styles[style.Name] = style
		for _, t := range list {
			key := styledTile{style.Name, t}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			byStyle[style.Name] = append(byStyle[style.Name], t)
		}
	}
	return styles, byStyle
}

func prefetchTiles(ctx context.Context, f *tiles.Fetcher, jobs []Job, args *Arguments) {
	styles, byStyle := allTilesForJobs(jobs)
	for name, list := range byStyle {
		failed, err := f.Prefetch(ctx, styles[name], list, tileFetchConcurrency, args.Quiet)
		if err != nil {
			log.Printf("Prefetch %s: %d tiles failed: %v", name, failed, err)
		}
	}
}

// --- Render Pipeline ---

func renderJobs(ctx context.Context, jobs []Job, renderer *render.Renderer, args *Arguments, report func(Result)) {
	var wg sync.WaitGroup
	tasks := make(chan Job, args.Workers*2)
	results := make(chan Result, args.Workers*2)

	go func() {
		defer close(tasks)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case tasks <- job:
			}
		}
	}()

	for i := 0; i < args.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range tasks {
				results <- renderJob(ctx, job, renderer)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var bar *progressbar.ProgressBar
	if args.Quiet {
		bar = progressbar.DefaultSilent(int64(len(jobs)))
	} else {
		bar = progressbar.NewOptions(len(jobs),
			progressbar.OptionSetDescription("Rendering"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	defer bar.Finish()

	// Results arrive in completion order; report them in input order.
	buffer := make(map[int]Result)
	next := 0
	for res := range results {
		buffer[res.Index] = res
		bar.Add(1)
		for {
			r, ok := buffer[next]
			if !ok {
				break
			}
			report(r)
			delete(buffer, next)
			next++
		}
	}
}

func renderJob(ctx context.Context, job Job, renderer *render.Renderer) Result {
	res := Result{Index: job.Index, Path: job.Path, Output: job.Output, Err: job.Err}
	if job.Err != nil {
		return res
	}
	img, err := renderer.Render(ctx, job.Session)
	if err != nil {
		res.Err = err
		return res
	}
	if dir := filepath.Dir(job.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			res.Err = err
			return res
		}
	}
	res.Err = gg.SavePNG(job.Output, img)
	return res
}
