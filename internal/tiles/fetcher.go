package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const DefaultUserAgent = "GpxPosterGo/0.1 (+https://openstreetmap.org)"

// Fetcher downloads tiles, keeping decoded images in memory and raw
// bytes on disk under CacheDir/style/z/x/y.png.
type Fetcher struct {
	Client     *http.Client
	Limiter    *rate.Limiter
	CacheDir   string
	UserAgent  string
	MaxRetries int

	cache sync.Map // cache path -> image.Image
}

func NewFetcher(cacheDir string, rps float64, burst int, timeout time.Duration) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = ".tile-cache"
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tile cache: %w", err)
	}
	return &Fetcher{
		Client:     &http.Client{Timeout: timeout},
		Limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		CacheDir:   cacheDir,
		UserAgent:  DefaultUserAgent,
		MaxRetries: 3,
	}, nil
}

func (f *Fetcher) tilePath(style Style, t Tile) string {
	return filepath.Join(f.CacheDir, style.Name, strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+".png")
}

// Get returns the decoded tile, wrapping the column around the antimeridian.
func (f *Fetcher) Get(ctx context.Context, style Style, t Tile) (image.Image, error) {
	if !style.Enabled() {
		return nil, fmt.Errorf("style %s has no tile source", style.Name)
	}
	if t.Y < 0 || t.Y >= 1<<t.Z {
		return nil, fmt.Errorf("tile %d/%d/%d out of range", t.Z, t.X, t.Y)
	}
	t = t.wrap()
	path := f.tilePath(style, t)

	if img, ok := f.cache.Load(path); ok {
		return img.(image.Image), nil
	}

	if data, err := os.ReadFile(path); err == nil {
		img, err := decodeTile(data)
		if err == nil {
			f.cache.Store(path, img)
			return img, nil
		}
		// corrupt cache entry, fall through to download
	}

	data, err := f.download(ctx, style, t)
	if err != nil {
		return nil, err
	}
	img, err := decodeTile(data)
	if err != nil {
		return nil, fmt.Errorf("decode tile %s: %w", style.TileURL(t), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}

	f.cache.Store(path, img)
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, style Style, t Tile) ([]byte, error) {
	url := style.TileURL(t)
	retries := max(f.MaxRetries, 1)

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(200+attempt*200) * time.Millisecond):
			}
		}
		if f.Limiter != nil {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.UserAgent)
		for k, v := range style.Headers {
			req.Header.Set(k, v)
		}

		resp, err := f.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("failed to download tile %s: %w", url, err)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read tile %s: %w", url, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("failed to download tile %s: status %d", url, resp.StatusCode)
			if resp.StatusCode == http.StatusNotFound {
				break
			}
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

// writeFileAtomic writes through a uniquely named temp file in the same
// directory, so concurrent writers of one tile never share a temp path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "tile-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func decodeTile(b []byte) (image.Image, error) {
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{137, 80, 78, 71, 13, 10, 26, 10}) {
		return png.Decode(bytes.NewReader(b))
	}
	if len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF {
		return jpeg.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}
