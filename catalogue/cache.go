package catalogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://apps.ualberta.ca"

var ErrUnexpectedStatus = errors.New("unexpected response status")

// Fetcher returns the body of a catalogue page.
type Fetcher interface {
	Get(ctx context.Context, path string) (string, error)
}

// Cache fetches catalogue pages and keeps every successful response, keyed by
// its full URL, so a page is only ever requested once. Requests to the site
// are rate limited; cached pages are not.
type Cache struct {
	base    *url.URL
	store   *badger.DB
	limiter *rate.Limiter
	client  *http.Client
	metrics *Metrics
	logger  *zap.Logger
}

type CacheOption func(*Cache)

func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *Cache) { c.client = client }
}

func WithMetrics(metrics *Metrics) CacheOption {
	return func(c *Cache) { c.metrics = metrics }
}

func WithLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

func NewCache(baseURL string, store *badger.DB, limiter *rate.Limiter, opts ...CacheOption) (*Cache, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c := &Cache{
		base:    base,
		store:   store,
		limiter: limiter,
		client:  http.DefaultClient,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return c, nil
}

func (c *Cache) Get(ctx context.Context, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	full := c.base.ResolveReference(ref).String()
	key := []byte(full)

	var content []byte
	err = c.store.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		c.metrics.Hits.Inc()
		c.logger.Debug("page from cache", zap.String("url", full))
		return string(content), nil
	case !errors.Is(err, badger.ErrKeyNotFound):
		c.metrics.Failures.Inc()
		return "", fmt.Errorf("read cached %v: %w", full, err)
	}

	c.metrics.Misses.Inc()
	content, err = c.fetch(ctx, full)
	if err != nil {
		c.metrics.Failures.Inc()
		return "", err
	}

	err = c.store.Update(func(txn *badger.Txn) error {
		return txn.Set(key, content)
	})
	if err != nil {
		return "", fmt.Errorf("cache %v: %w", full, err)
	}
	c.logger.Info("requested and cached page", zap.String("url", full))
	return string(content), nil
}

func (c *Cache) fetch(ctx context.Context, full string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug("requesting page", zap.String("url", full))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %v: %w: %v", full, ErrUnexpectedStatus, response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read %v: %w", full, err)
	}
	return body, nil
}
