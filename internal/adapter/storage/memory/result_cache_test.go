package memory

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chainstate/internal/config"
	domainRepo "chainstate/internal/domain/repository"
	"chainstate/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(m *metrics.Metrics) *ResultCache {
	return NewResultCache(config.CacheConfig{}, m, zap.NewNop())
}

func TestResultCache_MemoizeWithinTTL(t *testing.T) {
	c := newTestCache(nil)
	var calls int

	producer := func() (any, error) {
		calls++
		return calls, nil
	}

	first, err := c.Memoize("net_version|\"http://a\"", time.Minute, producer)
	require.NoError(t, err)
	second, err := c.Memoize("net_version|\"http://a\"", time.Minute, producer)
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, calls)
}

func TestResultCache_RecomputesAfterExpiry(t *testing.T) {
	c := newTestCache(nil)
	var calls int

	producer := func() (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.Memoize("k", 20*time.Millisecond, producer)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	value, err := c.Memoize("k", 20*time.Millisecond, producer)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.Equal(t, 2, calls)
}

func TestResultCache_ErrorsAreNotStored(t *testing.T) {
	c := newTestCache(nil)
	boom := errors.New("boom")
	var calls int

	_, err := c.Memoize("k", time.Minute, func() (any, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	value, err := c.Memoize("k", time.Minute, func() (any, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 2, calls)
}

func TestResultCache_DistinctKeys(t *testing.T) {
	c := newTestCache(nil)

	a, err := domainRepo.Memoize(c, domainRepo.Key("eth_blockNumber", "http://a"), time.Minute, func() (uint64, error) { return 1, nil })
	require.NoError(t, err)
	b, err := domainRepo.Memoize(c, domainRepo.Key("eth_blockNumber", "http://b"), time.Minute, func() (uint64, error) { return 2, nil })
	require.NoError(t, err)

	assert.Equal(t, uint64(1), a)
	assert.Equal(t, uint64(2), b)
	assert.Equal(t, 2, c.Len())
}

func TestResultCache_Concurrent(t *testing.T) {
	c := newTestCache(nil)
	var calls atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := domainRepo.Key("op", i%5)
			value, err := domainRepo.Memoize(c, key, time.Minute, func() (string, error) {
				calls.Add(1)
				return key, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, key, value)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
	assert.GreaterOrEqual(t, calls.Load(), int32(5))
}

func TestResultCache_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := newTestCache(m)

	for i := 0; i < 3; i++ {
		_, err := c.Memoize(domainRepo.Key("net_version", "http://a"), time.Minute, func() (any, error) { return "1", nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("net_version", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("net_version", "hit")))
}

func TestMemoize_TypeMismatch(t *testing.T) {
	c := newTestCache(nil)
	_, err := c.Memoize("k", time.Minute, func() (any, error) { return "text", nil })
	require.NoError(t, err)

	_, err = domainRepo.Memoize(c, "k", time.Minute, func() (int, error) { return 1, nil })
	assert.Error(t, err)
}
