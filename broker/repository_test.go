package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// membership reports which exclusive pools hold H.
func membership(r *Repository, h *Handle) (free, multi, waiting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, free = r.free[h.Id]
	_, multi = r.multi[h.Id]
	for _, w := range r.waiting {
		if w.Id == h.Id {
			waiting = true
		}
	}
	return
}

func TestPoolExclusivity(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h := newHandle("127.0.0.1:1234")
	r.Register(h)

	// After any sequence of transitions the handle sits in exactly
	// the pool of the last one.
	transitions := []struct {
		step func()
		pool string
	}{
		{func() { r.ToMulti(h) }, "multi"},
		{func() { r.ToWaiting("alice", h) }, "waiting"},
		{func() { r.ToFree(h) }, "free"},
		{func() { r.ToWaiting("bob", h) }, "waiting"},
		{func() { r.ToMulti(h) }, "multi"},
		{func() { r.ToFree(h) }, "free"},
	}
	for i, tr := range transitions {
		tr.step()
		free, multi, waiting := membership(r, h)
		got := map[string]bool{"free": free, "multi": multi, "waiting": waiting}
		for pool, in := range got {
			require.Equal(t, pool == tr.pool, in,
				"pool %s after transition %d", pool, i)
		}
	}
}

func TestTransitionAfterUnregister(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h := newHandle("127.0.0.1:1234")
	r.Register(h)
	r.Unregister(h)

	r.ToFree(h)
	r.ToMulti(h)
	r.ToWaiting("alice", h)
	require.Equal(t, Counts{}, r.Snapshot())
}

func TestWaitingDisplacement(t *testing.T) {
	r := NewRepository(time.Millisecond)
	a := newHandle("127.0.0.1:1111")
	b := newHandle("127.0.0.1:2222")
	r.Register(a)
	r.Register(b)

	r.ToWaiting("alice", a)
	r.ToWaiting("alice", b)

	// The older reservation must not leak, it returns to free.
	free, _, _ := membership(r, a)
	require.True(t, free)
	require.Same(t, b, r.PopWaiting("alice"))
	require.Nil(t, r.PopWaiting("alice"))
}

func TestPopFreePrefersMulti(t *testing.T) {
	r := NewRepository(time.Millisecond)
	f := newHandle("127.0.0.1:1111")
	m := newHandle("127.0.0.1:2222")
	r.Register(f)
	r.Register(m)
	r.ToMulti(m)

	ctx := context.Background()

	h, err := r.PopFree(ctx, false)
	require.NoError(t, err)
	require.Same(t, m, h)

	// With the multi pool drained the free pool serves.
	h, err = r.PopFree(ctx, false)
	require.NoError(t, err)
	require.Same(t, f, h)
}

func TestPopFreeSingleSkipsMulti(t *testing.T) {
	r := NewRepository(time.Millisecond)
	f := newHandle("127.0.0.1:1111")
	m := newHandle("127.0.0.1:2222")
	r.Register(f)
	r.Register(m)
	r.ToMulti(m)

	h, err := r.PopFree(context.Background(), true)
	require.NoError(t, err)
	require.Same(t, f, h)
}

func TestPopFreeWaits(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h := newHandle("127.0.0.1:1234")

	done := make(chan *Handle, 1)
	go func() {
		got, err := r.PopFree(context.Background(), false)
		require.NoError(t, err)
		done <- got
	}()

	select {
	case <-done:
		t.Fatal("PopFree returned without a free handle")
	case <-time.After(10 * time.Millisecond):
	}

	r.Register(h)
	select {
	case got := <-done:
		require.Same(t, h, got)
	case <-time.After(time.Second):
		t.Fatal("PopFree missed the registration")
	}
}

func TestPopFreeCancel(t *testing.T) {
	r := NewRepository(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	h, err := r.PopFree(ctx, false)
	require.Nil(t, h)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPopFreeSingleWinner(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h := newHandle("127.0.0.1:1234")
	r.Register(h)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	results := make(chan *Handle, 2)
	for i := 0; i < 2; i++ {
		go func() {
			got, _ := r.PopFree(ctx, false)
			results <- got
		}()
	}

	var handles []*Handle
	for i := 0; i < 2; i++ {
		if got := <-results; got != nil {
			handles = append(handles, got)
		}
	}
	require.Len(t, handles, 1)
	require.Same(t, h, handles[0])
}
