package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/ratelimit"
)

type AssetFetcher interface {
	RateLimitedGet(ctx context.Context, url string) ([]byte, int, error)
}

type assetFetcherImpl struct {
	client      *http.Client
	rateLimiter ratelimit.Limiter
}

// NewAssetFetcher returns a fetcher issuing at most requestsPerSecond
// requests, each bounded by timeout.
func NewAssetFetcher(requestsPerSecond int, timeout time.Duration) *assetFetcherImpl {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}

	c := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 30 * time.Second,
			DisableKeepAlives:   false,
		},
	}

	return &assetFetcherImpl{
		client:      c,
		rateLimiter: ratelimit.New(requestsPerSecond),
	}
}

func (s *assetFetcherImpl) RateLimitedGet(ctx context.Context, url string) ([]byte, int, error) {
	s.rateLimiter.Take()

	return s.Request(ctx, url, http.MethodGet)
}

// Request performs the request and returns the decoded body with the status
// code. Gzip content encoding is removed so callers hash the bytes that were
// deployed.
func (s *assetFetcherImpl) Request(ctx context.Context, url string, method string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("accept", "*/*")
	req.Header.Set("accept-encoding", "gzip")
	req.Header.Set("user-agent", "precache-verify")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read %s: %w", url, err)
	}

	// Only the content encoding is undone. A body that is itself gzip data,
	// such as a precached .gz asset, is returned as deployed.
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to decompress %s: %w", url, err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to decompress %s: %w", url, err)
		}
		body = decompressed
	}

	return body, resp.StatusCode, nil
}
