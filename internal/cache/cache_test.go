package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	_, _ = c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	c.Set("j", 2)
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUCache_Purge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprint(i), i)
	}
	gen := c.currentGeneration()
	c.Purge()
	assert.Zero(t, c.Size())

	c.setIfGeneration("stale", 1, gen)
	_, ok := c.Get("stale")
	assert.False(t, ok)
}

func TestLoader_SharesConcurrentLoads(t *testing.T) {
	l := NewLoader(NewLRUCache[string](10, time.Minute))
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := l.GetOrLoad(context.Background(), "report", func(context.Context) (string, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return "done", nil
			})
			assert.NoError(t, err)
			assert.Equal(t, "done", v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(10))
	v, hit, err := l.GetOrLoad(context.Background(), "report", func(context.Context) (string, error) {
		t.Fatal("expected a cache hit")
		return "", nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "done", v)
}

func TestLoader_ErrorsAreNotCached(t *testing.T) {
	l := NewLoader(NewLRUCache[int](10, time.Minute))
	boom := errors.New("boom")

	_, _, err := l.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, hit, err := l.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestManager_PurgeAllAndStop(t *testing.T) {
	m := NewManager()
	c := NewLRUCache[int](10, time.Minute)
	l := NewLoader(NewLRUCache[int](10, time.Minute))
	m.Register(c)
	m.Register(l)

	c.Set("a", 1)
	_, _, _ = l.GetOrLoad(context.Background(), "b", func(context.Context) (int, error) { return 2, nil })

	m.PurgeAll()
	assert.Zero(t, c.Size())
	_, hit, _ := l.GetOrLoad(context.Background(), "b", func(context.Context) (int, error) { return 3, nil })
	assert.False(t, hit)

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestLoader_SharedLoadSurvivesCallerCancel(t *testing.T) {
	l := NewLoader(NewLRUCache[string](10, time.Minute))
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "done", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		v   string
		err error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)
	go func() {
		v, _, err := l.GetOrLoad(ctx, "report", load)
		first <- result{v, err}
	}()
	<-started
	go func() {
		v, _, err := l.GetOrLoad(context.Background(), "report", load)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)

	for _, ch := range []chan result{first, second} {
		r := <-ch
		require.NoError(t, r.err)
		assert.Equal(t, "done", r.v)
	}
	v, hit, err := l.GetOrLoad(context.Background(), "report", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "done", v)
}
