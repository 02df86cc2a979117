package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-ttt/proto"
)

// statusFrame builds a show_game_status frame the way it arrives off
// the wire, with the board as generic JSON values.
func statusFrame(cells [3][3]int, status string, your, current, winner int) *proto.Message {
	board := make([]interface{}, len(cells))
	for i, row := range cells {
		r := make([]interface{}, len(row))
		for j, c := range row {
			r[j] = float64(c)
		}
		board[i] = r
	}
	content := map[string]interface{}{
		"type":          "show_game_status",
		"game_status":   status,
		"game_board":    board,
		"your_mark":     float64(your),
		"opponent_mark": float64(3 - your),
		"current_user":  float64(current),
	}
	if status == "finished" {
		content["winner"] = float64(winner)
	}
	return proto.NewMessage(content)
}

func TestAssignmentStates(t *testing.T) {
	for _, tc := range []struct {
		kind string
		want State
	}{
		{"single", Playing},
		{"multi", WaitingForSecondUser},
	} {
		h := NewHandler(&strings.Builder{})
		h.Apply(proto.NewMessage(map[string]interface{}{
			"type":      "server_assigned",
			"game_type": tc.kind,
		}))
		require.Equal(t, tc.want, h.State(), tc.kind)
	}
}

func TestStatusRendering(t *testing.T) {
	var out strings.Builder
	h := NewHandler(&out)

	h.Apply(statusFrame([3][3]int{{2, 0, 1}, {0, 1, 0}, {0, 0, 0}},
		"running", 1, 2, 0))
	require.Equal(t, Playing, h.State())
	require.Contains(t, out.String(), "O . X\n. X .\n. . .")
	require.Contains(t, out.String(), "Waiting for your opponent")

	out.Reset()
	h.Apply(statusFrame([3][3]int{{2, 2, 1}, {0, 1, 0}, {1, 0, 0}},
		"finished", 1, 2, 1))
	require.Equal(t, Idle, h.State())
	require.Contains(t, out.String(), "YOU WIN")
}

func TestStatusOutcomes(t *testing.T) {
	for _, tc := range []struct {
		winner int
		banner string
	}{
		{0, "DRAW"},
		{1, "YOU WIN"},
		{2, "YOU LOSE"},
	} {
		var out strings.Builder
		h := NewHandler(&out)
		h.Apply(statusFrame([3][3]int{}, "finished", 1, 1, tc.winner))
		require.Contains(t, out.String(), tc.banner)
		require.Equal(t, Idle, h.State())
	}
}

func TestTerminalControlFrames(t *testing.T) {
	for _, typ := range []string{
		"server_crashed", "opponent_escaped", "game_changed",
	} {
		h := NewHandler(&strings.Builder{})
		h.setState(Playing)
		h.Apply(proto.NewMessage(map[string]interface{}{"type": typ}))
		require.Equal(t, Idle, h.State(), typ)
	}
}

func TestChatRendering(t *testing.T) {
	var out strings.Builder
	h := NewHandler(&out)
	h.setState(Playing)
	h.Apply(proto.NewMessage(map[string]interface{}{
		"type":         "chat",
		"username":     "b",
		"text_message": "hi there",
	}))
	require.Contains(t, out.String(), "hi there")
	// Chat does not interrupt the game.
	require.Equal(t, Playing, h.State())
}
