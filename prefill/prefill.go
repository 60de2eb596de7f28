// Package prefill fetches filler text from a remote lorem-ipsum style
// service and shapes it into content records for seeding demo sites.
package prefill

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marciopocebon/bolt-1/logger"
	"github.com/marciopocebon/bolt-1/resilience"
)

// DefaultURL is the filler text endpoint used when none is configured.
const DefaultURL = "http://loripsum.net/api"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Options selects how much filler text to fetch and in which shape.
type Options struct {
	// Paragraphs is how many paragraphs of text to request.
	Paragraphs int
	// Length is one of "short", "medium", "long" or "verylong".
	Length string
	// Decorate adds emphasis and links to the generated markup.
	Decorate bool
	// Headers includes heading elements in the markup.
	Headers bool
}

// DefaultOptions returns the fetch options used for seeded records.
func DefaultOptions() Options {
	return Options{
		Paragraphs: 3,
		Length:     "medium",
		Decorate:   true,
	}
}

// path renders the options as a request path, loripsum style.
func (o Options) path() string {
	parts := make([]string, 0, 5)
	if o.Paragraphs > 0 {
		parts = append(parts, strconv.Itoa(o.Paragraphs))
	}
	if o.Length != "" {
		parts = append(parts, o.Length)
	}
	if o.Decorate {
		parts = append(parts, "decorate", "link")
	}
	if o.Headers {
		parts = append(parts, "headers")
	}
	if len(parts) == 0 {
		return ""
	}
	return "/" + strings.Join(parts, "/")
}

// Source produces filler text. Implementations may call out to a remote
// service or return canned text.
type Source interface {
	Fetch(ctx context.Context, opts Options) (string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, opts Options) (string, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, opts Options) (string, error) {
	return f(ctx, opts)
}

// RemoteSource fetches filler text over HTTP with retries.
type RemoteSource struct {
	url    string
	client *http.Client
	log    *logger.Logger

	// Retry controls how failed fetches are retried.
	Retry resilience.RetryConfig
}

// NewRemoteSource returns a source reading from the given endpoint.
// An empty url falls back to DefaultURL, a nil client gets a 10 second
// timeout.
func NewRemoteSource(url string, client *http.Client, log *logger.Logger) *RemoteSource {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &RemoteSource{
		url:    strings.TrimRight(url, "/"),
		client: client,
		log:    log.WithComponent("prefill"),
		Retry:  resilience.DefaultRetryConfig(),
	}
}

// Fetch requests one batch of filler text. Transient failures are
// retried with backoff before the last error is returned.
func (s *RemoteSource) Fetch(ctx context.Context, opts Options) (string, error) {
	url := s.url + opts.path()

	cfg := s.Retry
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		s.log.Warn("Retrying filler text fetch", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	return resilience.Retry(ctx, cfg, func() (string, error) {
		return s.get(ctx, url)
	})
}

func (s *RemoteSource) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("filler text endpoint returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
