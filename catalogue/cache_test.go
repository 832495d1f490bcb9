package catalogue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func openTestStore(t *testing.T) *badger.DB {
	t.Helper()
	store, err := OpenStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCacheGet(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/catalogue/course" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<html>index</html>"))
	}))
	defer server.Close()

	metrics := NewMetrics(prometheus.NewRegistry())
	cache, err := NewCache(server.URL, openTestStore(t), rate.NewLimiter(rate.Inf, 1),
		WithHTTPClient(server.Client()), WithMetrics(metrics), WithLogger(zap.NewNop()))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		content, err := cache.Get(ctx, "/catalogue/course")
		require.NoError(t, err)
		assert.Equal(t, "<html>index</html>", content)
	}

	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Misses))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Hits))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Failures))
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	metrics := NewMetrics(nil)
	cache, err := NewCache(server.URL, openTestStore(t), nil, WithMetrics(metrics))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := cache.Get(context.Background(), "/catalogue/course/nope")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}

	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Failures))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Hits))
}

func TestCacheHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	// The only token is spent on the first request.
	limiter := rate.NewLimiter(rate.Every(1<<62), 1)
	cache, err := NewCache(server.URL, openTestStore(t), limiter)
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), "/first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cache.Get(ctx, "/second")
	assert.Error(t, err)

	// Cached pages skip the limiter.
	content, err := cache.Get(ctx, "/first")
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}
