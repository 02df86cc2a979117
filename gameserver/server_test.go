package gameserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-ttt/conf"
	"go-ttt/proto"
)

// testServer returns a server whose control channel ends in a sink, so
// pool-transition frames go nowhere.
func testServer(t *testing.T, wait time.Duration) *Server {
	t.Helper()
	config := conf.Default()
	config.ReconnectWait = wait
	t.Cleanup(config.Kill)

	s := New(config)
	l, r := net.Pipe()
	s.ctrl = proto.NewTransport(l)
	sink := proto.NewTransport(r)
	t.Cleanup(func() {
		s.ctrl.Close()
		sink.Close()
	})
	go func() {
		for {
			if _, err := sink.Receive(context.Background()); err != nil {
				return
			}
		}
	}()
	return s
}

// windowOpen reports whether a reconnect entry exists for USER.
func windowOpen(s *Server, user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reconnect[user]
	return ok
}

func TestReconnectDelivered(t *testing.T) {
	s := testServer(t, time.Second)
	st, _ := peerPair(t)

	done := make(chan *proto.Transport, 1)
	go func() {
		nt, ok := s.awaitReturn("a")
		require.True(t, ok)
		done <- nt
	}()
	require.Eventually(t, func() bool { return windowOpen(s, "a") },
		time.Second, time.Millisecond)

	require.True(t, s.deliver("a", st))
	select {
	case nt := <-done:
		require.Same(t, st, nt)
	case <-time.After(time.Second):
		t.Fatal("awaitReturn missed the delivered transport")
	}
}

func TestReconnectTimeout(t *testing.T) {
	s := testServer(t, 10*time.Millisecond)

	nt, ok := s.awaitReturn("a")
	require.False(t, ok)
	require.Nil(t, nt)

	// The window is gone; a late return starts over as a new game.
	st, _ := peerPair(t)
	require.False(t, s.deliver("a", st))
}

func TestReconnectHandoffAtWindowEdge(t *testing.T) {
	// A delivery and the window's expiry racing each other must agree
	// on the outcome: whenever the accept path finds the window open,
	// the orchestrator picks the transport up.
	s := testServer(t, time.Millisecond)

	type ret struct {
		t  *proto.Transport
		ok bool
	}
	for i := 0; i < 50; i++ {
		st, _ := peerPair(t)
		done := make(chan ret, 1)
		go func() {
			nt, ok := s.awaitReturn("a")
			done <- ret{nt, ok}
		}()
		require.Eventually(t, func() bool { return windowOpen(s, "a") },
			time.Second, 100*time.Microsecond)

		time.Sleep(time.Duration(i%3) * 500 * time.Microsecond)
		delivered := s.deliver("a", st)
		got := <-done
		require.Equal(t, delivered, got.ok, "iteration %d", i)
		if got.ok {
			require.Same(t, st, got.t)
		}
	}
}
