package broker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-ttt/proto"
)

// testClientHandler returns a handler over an in-memory connection
// together with the player's side of it.
func testClientHandler(t *testing.T, r *Repository) (*clientHandler, *proto.Transport) {
	t.Helper()
	l, rc := net.Pipe()
	h := &clientHandler{repo: r, player: proto.NewTransport(l)}
	remote := proto.NewTransport(rc)
	t.Cleanup(func() {
		h.player.Close()
		remote.Close()
	})
	return h, remote
}

func TestClaimFreePops(t *testing.T) {
	r := NewRepository(time.Millisecond)
	hd := newHandle("127.0.0.1:1234")
	r.Register(hd)
	h, _ := testClientHandler(t, r)

	got, err := h.claimFree(context.Background(), false)
	require.NoError(t, err)
	require.Same(t, hd, got)
	require.Equal(t, 0, r.Snapshot().Free)
}

func TestClaimFreeChangeGame(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h, remote := testClientHandler(t, r)

	require.NoError(t, remote.Send(proto.NewMessage(map[string]interface{}{
		"type":     "change_game",
		"username": "a",
	})))

	got, err := h.claimFree(context.Background(), false)
	require.ErrorIs(t, err, errGameChanged)
	require.Nil(t, got)
}

func TestClaimFreePlayerGone(t *testing.T) {
	r := NewRepository(time.Millisecond)
	h, remote := testClientHandler(t, r)
	remote.Close()

	got, err := h.claimFree(context.Background(), false)
	require.ErrorIs(t, err, ErrPlayerGone)
	require.Nil(t, got)
}

func TestClaimFreeChangeGameKeepsHandle(t *testing.T) {
	// With a handle available and a change_game already in flight both
	// racers can finish in the same instant.  Whatever the outcome, the
	// handle must end up either with the caller or back in the free
	// pool, never dropped.
	for i := 0; i < 50; i++ {
		r := NewRepository(time.Millisecond)
		hd := newHandle("127.0.0.1:1234")
		r.Register(hd)
		h, remote := testClientHandler(t, r)

		require.NoError(t, remote.Send(proto.NewMessage(map[string]interface{}{
			"type":     "change_game",
			"username": "a",
		})))

		got, err := h.claimFree(context.Background(), false)
		if err != nil {
			require.ErrorIs(t, err, errGameChanged)
			require.Equal(t, 1, r.Snapshot().Free,
				"handle dropped on iteration %d", i)
		} else {
			require.Same(t, hd, got)
			require.Equal(t, 0, r.Snapshot().Free)
		}
	}
}
