package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache map[string]any

func (m mapCache) Memoize(key string, _ time.Duration, producer func() (any, error)) (any, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	v, err := producer()
	if err != nil {
		return nil, err
	}
	m[key] = v
	return v, nil
}

func TestKey(t *testing.T) {
	assert.Equal(t, `fetch_block|"http://a"|7`, Key("fetch_block", "http://a", 7))
	assert.Equal(t, "net_version", Key("net_version"))
	assert.NotEqual(t, Key("op", "a", "b"), Key("op", "a|b"))
	assert.Equal(t, Key("op", uint64(3)), Key("op", 3))
}

func TestOperation(t *testing.T) {
	assert.Equal(t, "fetch_block", Operation(Key("fetch_block", "http://a", 7)))
	assert.Equal(t, "net_version", Operation("net_version"))
}

func TestMemoize(t *testing.T) {
	c := mapCache{}
	calls := 0

	for i := 0; i < 2; i++ {
		v, err := Memoize(c, "k", time.Minute, func() (uint64, error) {
			calls++
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint64(42), v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := Memoize(c, "other", time.Minute, func() (uint64, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, err = Memoize(c, "k", time.Minute, func() (string, error) { return "x", nil })
	assert.Error(t, err)
}
