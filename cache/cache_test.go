package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoGetOrCreate(t *testing.T) {
	m := NewMemo[string, *int](4)

	builds := 0
	build := func(k string) (*int, error) {
		builds++
		n := len(k)
		return &n, nil
	}

	v1, created, err := m.GetOrCreate("abc", build)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, *v1)

	v2, created, err := m.GetOrCreate("abc", build)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, v1, v2)
	assert.Equal(t, 1, builds)

	got, ok := m.Get("abc")
	assert.True(t, ok)
	assert.Same(t, v1, got)
	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, m.Stats())
}

func TestMemoFailedBuildInsertsNothing(t *testing.T) {
	m := NewMemo[int, string](0)
	boom := errors.New("boom")

	_, _, err := m.GetOrCreate(1, func(int) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())

	v, created, err := m.GetOrCreate(1, func(int) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ok", v)
}

func TestMemoConcurrentMissBuildsOnce(t *testing.T) {
	m := NewMemo[string, *struct{}](0)
	var builds atomic.Int32

	const goroutines = 64
	results := make([]*struct{}, goroutines)
	start := make(chan struct{})

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		g.Go(func() error {
			<-start
			v, _, err := m.GetOrCreate("k", func(string) (*struct{}, error) {
				builds.Add(1)
				time.Sleep(time.Millisecond)
				return &struct{}{}, nil
			})
			results[i] = v
			return err
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), builds.Load())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestMemoRange(t *testing.T) {
	m := NewMemo[int, int](0)
	for i := 0; i < 5; i++ {
		_, _, err := m.GetOrCreate(i, func(k int) (int, error) { return k * k, nil })
		require.NoError(t, err)
	}

	sum := 0
	m.Range(func(_, v int) bool {
		sum += v
		return true
	})
	assert.Equal(t, 0+1+4+9+16, sum)

	visited := 0
	m.Range(func(_, _ int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestBoundedEviction(t *testing.T) {
	var evicted []string
	b, err := NewBounded[int](2, func(key string, _ int) {
		evicted = append(evicted, key)
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, _, err := b.GetOrBuild(strconv.Itoa(i), func() (int, error) { return i, nil })
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"0"}, evicted)
	_, ok := b.Get("0")
	assert.False(t, ok)

	b.Purge()
	assert.Equal(t, 0, b.Len())
	assert.ElementsMatch(t, []string{"0", "1", "2"}, evicted)
}

func TestBoundedHitAndError(t *testing.T) {
	b, err := NewBounded[string](8, nil)
	require.NoError(t, err)

	v, shared, err := b.GetOrBuild("k", func() (string, error) { return "v", nil })
	require.NoError(t, err)
	assert.False(t, shared)
	assert.Equal(t, "v", v)

	v, shared, err = b.GetOrBuild("k", func() (string, error) {
		t.Fatal("cached value must not be rebuilt")
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, shared)
	assert.Equal(t, "v", v)

	boom := errors.New("boom")
	_, _, err = b.GetOrBuild("bad", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, ok := b.Get("bad")
	assert.False(t, ok)
}

func TestBoundedConcurrentBuildCollapsed(t *testing.T) {
	b, err := NewBounded[*int](8, nil)
	require.NoError(t, err)

	var builds atomic.Int32
	release := make(chan struct{})

	const goroutines = 16
	var (
		wg      sync.WaitGroup
		results = make([]*int, goroutines)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := b.GetOrBuild("k", func() (*int, error) {
				builds.Add(1)
				<-release
				n := 42
				return &n, nil
			})
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	// Stragglers that arrive after the first flight finished hit the cache,
	// so the value is built exactly once either way.
	assert.Equal(t, int32(1), builds.Load())
	for i := 1; i < goroutines; i++ {
		require.NotNil(t, results[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestNewBoundedRejectsSize(t *testing.T) {
	_, err := NewBounded[int](0, nil)
	assert.Error(t, err)
}
