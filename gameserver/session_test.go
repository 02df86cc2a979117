package gameserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-ttt"
	"go-ttt/proto"
)

// peerPair returns the session-side and client-side transports of one
// in-memory connection.
func peerPair(t *testing.T) (*proto.Transport, *proto.Transport) {
	t.Helper()
	l, r := net.Pipe()
	st, ct := proto.NewTransport(l), proto.NewTransport(r)
	t.Cleanup(func() {
		st.Close()
		ct.Close()
	})
	return st, ct
}

func recv(t *testing.T, c *proto.Transport) *proto.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := c.Receive(ctx)
	require.NoError(t, err)
	return m
}

// recvNothing asserts that no frame is pending on C.
func recvNothing(t *testing.T, c *proto.Transport) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func place(sess *session, user string, row, col int) {
	sess.dispatch(user, proto.NewMessage(map[string]interface{}{
		"type":     "place_mark",
		"row":      row,
		"col":      col,
		"username": user,
	}))
}

// cell digs one board cell out of a decoded status frame.
func cell(t *testing.T, m *proto.Message, row, col int) int {
	t.Helper()
	board, ok := m.Content["game_board"].([]interface{})
	require.True(t, ok)
	r, ok := board[row].([]interface{})
	require.True(t, ok)
	v, ok := r[col].(float64)
	require.True(t, ok)
	return int(v)
}

func TestSingleAntiDiagonalWin(t *testing.T) {
	st, ct := peerPair(t)
	sess := newSingle("a", st)

	// The computer answers each move with the first empty cell in
	// row-major order, so it covers (0,0) and (0,1) while the player
	// walks down the anti-diagonal.  Each round yields two status
	// frames; the first shows only the player's mark.
	place(sess, "a", 0, 2)
	m := recv(t, ct)
	require.Equal(t, "show_game_status", m.Type())
	require.Equal(t, "running", m.Str("game_status"))
	require.Equal(t, 1, cell(t, m, 0, 2))
	require.Equal(t, 0, cell(t, m, 0, 0))
	m = recv(t, ct)
	require.Equal(t, "running", m.Str("game_status"))
	require.Equal(t, 2, cell(t, m, 0, 0))

	place(sess, "a", 1, 1)
	m = recv(t, ct)
	require.Equal(t, 1, cell(t, m, 1, 1))
	require.Equal(t, 0, cell(t, m, 0, 1))
	m = recv(t, ct)
	require.Equal(t, "running", m.Str("game_status"))
	require.Equal(t, 2, cell(t, m, 0, 1))

	// The winning move ends the round before the computer's turn, so
	// it is a single frame.
	place(sess, "a", 2, 0)
	m = recv(t, ct)
	require.Equal(t, "finished", m.Str("game_status"))
	winner, ok := m.Int("winner")
	require.True(t, ok)
	require.Equal(t, 1, winner)
	mark, ok := m.Int("your_mark")
	require.True(t, ok)
	require.Equal(t, 1, mark)

	require.True(t, sess.over())
	r := sess.result()
	require.NotNil(t, r)
	require.Equal(t, ttt.Cross, r.Winner)
	require.Equal(t, ttt.ComputerUser, r.User2)
}

func TestSingleDraw(t *testing.T) {
	st, ct := peerPair(t)
	sess := newSingle("a", st)

	moves := [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 0}}
	for _, mv := range moves {
		place(sess, "a", mv[0], mv[1])
		m := recv(t, ct)
		require.Equal(t, "running", m.Str("game_status"))
		require.Equal(t, 1, cell(t, m, mv[0], mv[1]))
		m = recv(t, ct)
		require.Equal(t, "running", m.Str("game_status"))
	}

	// The center is already held by the computer; the rejected move
	// leaves the board unchanged, the session running, and yields a
	// single frame since the turn did not pass.
	place(sess, "a", 1, 1)
	m := recv(t, ct)
	require.Equal(t, "running", m.Str("game_status"))
	require.Equal(t, 2, cell(t, m, 1, 1))
	recvNothing(t, ct)

	place(sess, "a", 2, 2)
	m = recv(t, ct)
	require.Equal(t, "finished", m.Str("game_status"))
	winner, ok := m.Int("winner")
	require.True(t, ok)
	require.Equal(t, 0, winner)
}

func TestMultiJoinAndChat(t *testing.T) {
	sta, cta := peerPair(t)
	stb, ctb := peerPair(t)

	sess := newMulti("a", sta)
	sess.join("b", stb)

	// Both peers see the opening status with their own mark.
	ma, mb := recv(t, cta), recv(t, ctb)
	require.Equal(t, "show_game_status", ma.Type())
	require.Equal(t, "show_game_status", mb.Type())
	marka, _ := ma.Int("your_mark")
	markb, _ := mb.Int("your_mark")
	require.Equal(t, 1, marka)
	require.Equal(t, 2, markb)

	sess.dispatch("a", proto.NewMessage(map[string]interface{}{
		"type":         "chat",
		"username":     "a",
		"text_message": "hi",
	}))

	m := recv(t, ctb)
	require.Equal(t, "chat", m.Type())
	require.Equal(t, "hi", m.Str("text_message"))
	require.Equal(t, "a", m.Str("username"))
	recvNothing(t, ctb)
	recvNothing(t, cta)
}

func TestMultiTurnOrder(t *testing.T) {
	sta, cta := peerPair(t)
	stb, ctb := peerPair(t)

	sess := newMulti("a", sta)
	sess.join("b", stb)
	recv(t, cta)
	recv(t, ctb)

	// B moving out of turn changes nothing.
	place(sess, "b", 0, 0)
	m := recv(t, ctb)
	require.Equal(t, 0, cell(t, m, 0, 0))
	recv(t, cta)

	place(sess, "a", 0, 0)
	m = recv(t, ctb)
	require.Equal(t, 1, cell(t, m, 0, 0))
	cur, _ := m.Int("current_user")
	require.Equal(t, 2, cur)
	recv(t, cta)
}

func TestCancelGameAborts(t *testing.T) {
	st, ct := peerPair(t)
	sess := newSingle("a", st)

	sess.dispatch("a", proto.NewMessage(map[string]interface{}{
		"type":     "cancel_game",
		"username": "a",
	}))
	m := recv(t, ct)
	require.Equal(t, "finished", m.Str("game_status"))
	require.True(t, sess.over())

	// An aborted game carries no result for the archive.
	require.Nil(t, sess.result())
}

func TestRebindResendsState(t *testing.T) {
	st, ct := peerPair(t)
	sess := newSingle("a", st)

	place(sess, "a", 1, 1)
	recv(t, ct)

	sess.drop("a")
	ct.Close()

	st2, ct2 := peerPair(t)
	sess.rebind("a", st2)
	m := recv(t, ct2)
	require.Equal(t, "running", m.Str("game_status"))
	require.Equal(t, 1, cell(t, m, 1, 1))
	require.Equal(t, 2, cell(t, m, 0, 0))
}

func TestEscapeNotifiesRemainingPeer(t *testing.T) {
	sta, cta := peerPair(t)
	stb, ctb := peerPair(t)

	sess := newMulti("a", sta)
	sess.join("b", stb)
	recv(t, cta)
	recv(t, ctb)

	sess.drop("a")
	sess.escape()

	m := recv(t, ctb)
	require.Equal(t, "opponent_escaped", m.Type())
	require.Equal(t, "finished", m.Str("game_status"))
	require.True(t, sess.over())
}

func TestPumpEndsWithSession(t *testing.T) {
	st, ct := peerPair(t)
	sess := newSingle("a", st)

	done := make(chan error, 1)
	go func() { done <- sess.pump(context.Background(), "a", st) }()

	send := func(row, col int) {
		require.NoError(t, ct.Send(proto.NewMessage(map[string]interface{}{
			"type":     "place_mark",
			"row":      row,
			"col":      col,
			"username": "a",
		})))
	}
	// Anti-diagonal win again, driven over the wire this time.  The
	// first two rounds carry the computer's reply in a second frame.
	for _, mv := range [][2]int{{0, 2}, {1, 1}} {
		send(mv[0], mv[1])
		recv(t, ct)
		recv(t, ct)
	}
	send(2, 0)
	recv(t, ct)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not return after the game finished")
	}
}
