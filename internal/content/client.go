// Package content is a rate-limited client for the read-only Quran content API.
//
// Two endpoints are used: GET {base}/surat for the chapter list and
// GET {base}/surat/{n} for a chapter with its verses. Responses arrive in a
// {"data": ...} envelope and are converted to domain types here, so callers
// never see the wire shapes.
package content

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	"github.com/tilawahapp/tilawah-server/internal/ratelimit"
)

const (
	defaultBaseURL = "https://equran.id/api/v2"
	defaultTimeout = 15 * time.Second
	defaultRPS     = 5.0
	defaultBurst   = 10

	// maxBodyBytes bounds a single response; the largest chapter is well under this.
	maxBodyBytes = 8 << 20

	userAgent = "Tilawah/1.0"
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client is a rate-limited content API client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a content client.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRPS
	}
	if opts.Burst < 1 {
		opts.Burst = defaultBurst
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse content base url: %w", err)
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: ratelimit.New(opts.RequestsPerSecond, opts.Burst),
		logger:  logger,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// ListChapters fetches every chapter, in the order the source returns them.
func (c *Client) ListChapters(ctx context.Context) ([]domain.Chapter, error) {
	body, err := c.doRequest(ctx, "surat")
	if err != nil {
		return nil, wrapError("listChapters", 0, err)
	}

	var env envelope[[]rawChapter]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, wrapError("listChapters", 0, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if env.Data == nil {
		return nil, wrapError("listChapters", 0, fmt.Errorf("%w: missing data", ErrMalformed))
	}

	chapters := make([]domain.Chapter, 0, len(*env.Data))
	for i := range *env.Data {
		chapters = append(chapters, (*env.Data)[i].toDomain())
	}
	return chapters, nil
}

// GetChapter fetches chapter n with its verses. n outside 1..114 fails with
// ErrInvalidChapter without touching the network.
func (c *Client) GetChapter(ctx context.Context, n int) (*domain.ChapterDetail, error) {
	if !domain.ValidChapter(n) {
		return nil, wrapError("getChapter", n, ErrInvalidChapter)
	}

	body, err := c.doRequest(ctx, "surat", strconv.Itoa(n))
	if err != nil {
		return nil, wrapError("getChapter", n, err)
	}

	var env envelope[rawDetail]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, wrapError("getChapter", n, fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if env.Data == nil {
		return nil, wrapError("getChapter", n, fmt.Errorf("%w: missing data", ErrMalformed))
	}

	detail := env.Data.toDomain()
	if detail.Number != n {
		return nil, wrapError("getChapter", n, fmt.Errorf("%w: asked for %d, got %d", ErrMalformed, n, detail.Number))
	}
	return detail, nil
}

// doRequest executes a GET with rate limiting and maps status codes to sentinels.
func (c *Client) doRequest(ctx context.Context, pathElems ...string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.baseURL.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	target := c.baseURL.JoinPath(pathElems...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("content request",
		"path", target.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
