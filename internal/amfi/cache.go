package amfi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// retryAfterFailure bounds how often a failing feed is retried by readers.
const retryAfterFailure = time.Minute

// ErrUnavailable is returned by Refresh when neither the feed nor the archive can be read.
var ErrUnavailable = errors.New("reference feed unavailable and no archive present")

// Fetcher downloads the raw feed text.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Cache serves the latest Reference, refreshing it from the feed with archive fallback.
type Cache struct {
	fetcher Fetcher
	archive *Archive
	ttl     time.Duration

	mu        sync.RWMutex
	ref       *Reference
	expiresAt time.Time

	group singleflight.Group
	now   func() time.Time
}

// NewCache creates a reference cache. archive may be nil to disable the disk fallback.
func NewCache(fetcher Fetcher, archive *Archive, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: fetcher,
		archive: archive,
		ttl:     ttl,
		now:     time.Now,
	}
}

// FetchOrLoad downloads the feed and archives it. When the download fails the archived copy is
// returned instead; when there is no archive either the result is nil, false.
func (c *Cache) FetchOrLoad(ctx context.Context) ([]string, bool) {
	lines, _, err := c.fetchOrLoad(ctx)
	if err != nil {
		return nil, false
	}
	return lines, true
}

func (c *Cache) fetchOrLoad(ctx context.Context) (lines []string, fresh bool, err error) {
	text, fetchErr := c.fetch(ctx)
	if fetchErr == nil {
		if c.archive != nil {
			if err := c.archive.Save(text); err != nil {
				slog.Warn("amfi: failed to archive feed", "path", c.archive.Path(), "error", err)
			}
		}
		return SplitLines(text), true, nil
	}
	slog.Warn("amfi: feed fetch failed, falling back to archive", "error", fetchErr)

	if c.archive == nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, fetchErr)
	}
	text, err = c.archive.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("amfi: failed to read archive", "error", err)
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, fetchErr)
	}
	return SplitLines(text), false, nil
}

func (c *Cache) fetch(ctx context.Context) (string, error) {
	if c.fetcher == nil {
		return "", errors.New("no feed fetcher configured")
	}
	return c.fetcher.Fetch(ctx)
}

// Reference returns the cached reference, refreshing it when expired. The result is nil when
// no feed has ever been available; callers treat that as "every ISIN unresolved".
func (c *Cache) Reference(ctx context.Context) *Reference {
	if ref, fresh := c.current(); fresh {
		return ref
	}

	refreshed, err := c.refresh(ctx, false)
	if err != nil {
		ref, _ := c.current()
		return ref
	}
	return refreshed
}

// Refresh reloads the reference now. On failure the previous reference keeps being served.
func (c *Cache) Refresh(ctx context.Context) (*Reference, error) {
	return c.refresh(ctx, true)
}

// current returns the held reference and whether it is still within its expiry window.
func (c *Cache) current() (*Reference, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ref, !c.expiresAt.IsZero() && c.now().Before(c.expiresAt)
}

// refresh collapses concurrent reloads into one download.
func (c *Cache) refresh(ctx context.Context, force bool) (*Reference, error) {
	v, err, _ := c.group.Do("refresh", func() (any, error) {
		if !force {
			if ref, fresh := c.current(); fresh {
				return ref, nil
			}
		}

		lines, fresh, err := c.fetchOrLoad(context.WithoutCancel(ctx))

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.expiresAt = c.now().Add(min(c.ttl, retryAfterFailure))
			return nil, err
		}

		ref := ParseReference(lines)
		c.ref = ref
		if fresh {
			c.expiresAt = c.now().Add(c.ttl)
		} else {
			c.expiresAt = c.now().Add(min(c.ttl, retryAfterFailure))
		}
		slog.Info("amfi: reference loaded", "isins", ref.Len(), "fresh", fresh)
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Reference), nil
}
