package playback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/simonhull/audiometa"
	"golang.org/x/sync/singleflight"
)

const (
	// maxAudioSize limits a single cached file.
	maxAudioSize = 200 * 1024 * 1024

	downloadTimeout = 2 * time.Minute
)

// Resource is one loaded piece of media.
type Resource interface {
	Duration() time.Duration
	Position() time.Duration
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(level float64) error
	// Finished delivers nil each time playback reaches the end, or the error
	// that stopped it.
	Finished() <-chan error
	Close() error
}

// Opener loads the media behind a URL.
type Opener interface {
	Open(ctx context.Context, url string) (Resource, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) (Resource, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) (Resource, error) { return f(ctx, url) }

// ProbeFunc returns the duration of the audio file at path.
type ProbeFunc func(ctx context.Context, path string) (time.Duration, error)

// ProbeDuration reads the duration from the file's container metadata.
func ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only handle

	if file.Audio.Duration <= 0 {
		return 0, fmt.Errorf("audio file %s reports no duration", filepath.Base(path))
	}
	return file.Audio.Duration, nil
}

// CacheOpener downloads audio into a cache directory, probes its duration and
// plays it against the wall clock. Files are keyed by URL and reused.
type CacheOpener struct {
	dir        string
	httpClient *http.Client
	probe      ProbeFunc
	logger     *slog.Logger
	downloads  singleflight.Group // keyed by cache path
}

// NewCacheOpener creates the cache directory if needed.
func NewCacheOpener(dir string, logger *slog.Logger) (*CacheOpener, error) {
	if dir == "" {
		return nil, errors.New("cache path cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio cache: %w", err)
	}
	return &CacheOpener{
		dir:        dir,
		httpClient: &http.Client{Timeout: downloadTimeout},
		probe:      ProbeDuration,
		logger:     logger,
	}, nil
}

// Open implements Opener.
func (o *CacheOpener) Open(ctx context.Context, rawURL string) (Resource, error) {
	p, err := o.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	d, err := o.probe(ctx, p)
	if err != nil {
		return nil, err
	}
	return NewClockResource(d), nil
}

// Path returns where rawURL is cached.
func (o *CacheOpener) Path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	ext := ".mp3"
	if u, err := url.Parse(rawURL); err == nil {
		if e := path.Ext(u.Path); e != "" && len(e) <= 5 {
			ext = e
		}
	}
	return filepath.Join(o.dir, hex.EncodeToString(sum[:16])+ext)
}

func (o *CacheOpener) fetch(ctx context.Context, rawURL string) (string, error) {
	dst := o.Path(rawURL)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	// Concurrent opens of one URL share a download. The download outlives a
	// caller that gives up, so it runs on a context detached from any of them.
	ch := o.downloads.DoChan(dst, func() (any, error) {
		return nil, o.download(context.WithoutCancel(ctx), rawURL, dst)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return dst, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (o *CacheOpener) download(ctx context.Context, rawURL, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(o.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxAudioSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	if n > maxAudioSize {
		return fmt.Errorf("audio exceeds %d bytes", maxAudioSize)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("store audio: %w", err)
	}

	o.logger.Info("cached audio", "url", rawURL, "size", n)
	return nil
}

// ClockResource tracks playback position against the wall clock. The server
// never renders sound; clients follow the reported position.
type ClockResource struct {
	mu        sync.Mutex
	duration  time.Duration
	offset    time.Duration
	startedAt time.Time
	playing   bool
	volume    float64
	timer     *time.Timer
	seq       uint64
	finished  chan error
	closed    bool
}

// NewClockResource returns a paused resource of length d.
func NewClockResource(d time.Duration) *ClockResource {
	return &ClockResource{duration: d, volume: 1, finished: make(chan error, 1)}
}

var errResourceClosed = errors.New("media resource closed")

// Duration implements Resource.
func (r *ClockResource) Duration() time.Duration { return r.duration }

// Position implements Resource.
func (r *ClockResource) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.positionLocked()
}

func (r *ClockResource) positionLocked() time.Duration {
	if !r.playing {
		return r.offset
	}
	return min(r.offset+time.Since(r.startedAt), r.duration)
}

// Play implements Resource.
func (r *ClockResource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errResourceClosed
	}
	if r.playing {
		return nil
	}
	if r.offset >= r.duration {
		r.offset = 0
	}
	r.playing = true
	r.startedAt = time.Now()
	r.scheduleLocked()
	return nil
}

// Pause implements Resource.
func (r *ClockResource) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errResourceClosed
	}
	r.offset = r.positionLocked()
	r.playing = false
	r.stopLocked()
	return nil
}

// Seek implements Resource.
func (r *ClockResource) Seek(pos time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errResourceClosed
	}
	r.offset = max(0, min(pos, r.duration))
	if r.playing {
		r.startedAt = time.Now()
		r.scheduleLocked()
	}
	return nil
}

// SetVolume implements Resource.
func (r *ClockResource) SetVolume(level float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errResourceClosed
	}
	r.volume = level
	return nil
}

// Volume returns the level last applied.
func (r *ClockResource) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// Finished implements Resource.
func (r *ClockResource) Finished() <-chan error { return r.finished }

// Close implements Resource.
func (r *ClockResource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.playing = false
	r.stopLocked()
	return nil
}

func (r *ClockResource) scheduleLocked() {
	r.stopLocked()
	seq := r.seq
	r.timer = time.AfterFunc(r.duration-r.offset, func() { r.end(seq) })
}

func (r *ClockResource) stopLocked() {
	r.seq++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *ClockResource) end(seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.playing || seq != r.seq {
		return
	}
	r.playing = false
	r.offset = r.duration
	r.timer = nil
	select {
	case r.finished <- nil:
	default:
	}
}
