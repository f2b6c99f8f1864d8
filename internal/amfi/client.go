package amfi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultNAVURL is the AMFI master feed of every open scheme and its latest NAV.
const DefaultNAVURL = "https://www.amfiindia.com/spages/NAVAll.txt"

// Client downloads the AMFI NAV feed with retry on 429, 5xx and transport errors.
type Client struct {
	url        string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a new AMFI feed client. A negative maxRetries is treated as zero.
func NewClient(url string, timeout time.Duration, maxRetries int, baseDelay time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: max(maxRetries, 0),
		baseDelay:  baseDelay,
	}
}

// Fetch returns the raw feed text. Invalid UTF-8 sequences are replaced.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return "", fmt.Errorf("creating AMFI request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var netErr net.Error
			if errors.As(err, &netErr) {
				lastErr = fmt.Errorf("AMFI request failed (attempt %d/%d): %w", attempt+1, c.maxRetries+1, err)
				continue
			}
			return "", fmt.Errorf("AMFI request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("reading AMFI response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return strings.ToValidUTF8(string(body), "\uFFFD"), nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("AMFI HTTP %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries+1)
			continue
		}

		return "", fmt.Errorf("AMFI HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if lastErr == nil {
		return "", errors.New("AMFI request was never attempted")
	}
	return "", lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SplitLines splits feed text into lines without line terminators.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
