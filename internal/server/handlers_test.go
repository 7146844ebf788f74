package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenario_MoveBoundaries is spec §8: corner cells succeed, one
// step outside the board in either axis is rejected without mutating
// state.
func TestScenario_MoveBoundaries(t *testing.T) {
	addr := startTestServer(t, 10, 0)
	alice := registerAndAuth(t, addr, "alice", "pw1")
	defer alice.close()
	bob := registerAndAuth(t, addr, "bob", "pw2")
	defer bob.close()

	alice.send(map[string]any{"type": "create_game", "game_name": "duel1"})
	require.EqualValues(t, 1, alice.recv()["status"])
	bob.send(map[string]any{"type": "join_game", "game_name": "duel1"})
	require.EqualValues(t, 1, bob.recv()["status"])
	alice.send(map[string]any{"type": "ready_to_play"})
	require.Equal(t, "alert_start_game", alice.recv()["type"])
	require.Equal(t, "alert_start_game", bob.recv()["type"])

	// Joiner (bob) moves first.
	bob.send(map[string]any{"type": "play_move", "x": -1, "y": 0})
	resp := bob.recv()
	require.EqualValues(t, 0, resp["status"])

	bob.send(map[string]any{"type": "play_move", "x": 19, "y": 0})
	resp = bob.recv()
	require.EqualValues(t, 0, resp["status"])

	bob.send(map[string]any{"type": "play_move", "x": 0, "y": 19})
	resp = bob.recv()
	require.EqualValues(t, 0, resp["status"])

	// A legal corner move succeeds and hands the turn to alice.
	bob.send(map[string]any{"type": "play_move", "x": 0, "y": 0})
	resp = bob.recv()
	require.EqualValues(t, 1, resp["status"])
	pushed := alice.recv()
	require.Equal(t, "new_board_state", pushed["type"])

	alice.send(map[string]any{"type": "play_move", "x": 18, "y": 18})
	resp = alice.recv()
	require.EqualValues(t, 1, resp["status"])
}

func TestScenario_PlayMove_RejectsNonParticipant(t *testing.T) {
	addr := startTestServer(t, 10, 0)
	outsider := registerAndAuth(t, addr, "eve", "pw3")
	defer outsider.close()

	outsider.send(map[string]any{"type": "play_move", "x": 0, "y": 0})
	resp := outsider.recv()
	require.EqualValues(t, 0, resp["status"])
}

func TestScenario_PlayMove_MissingCoordinates(t *testing.T) {
	addr := startTestServer(t, 10, 0)
	alice := registerAndAuth(t, addr, "alice", "pw1")
	defer alice.close()
	bob := registerAndAuth(t, addr, "bob", "pw2")
	defer bob.close()

	alice.send(map[string]any{"type": "create_game", "game_name": "duel1"})
	require.EqualValues(t, 1, alice.recv()["status"])
	bob.send(map[string]any{"type": "join_game", "game_name": "duel1"})
	require.EqualValues(t, 1, bob.recv()["status"])
	alice.send(map[string]any{"type": "ready_to_play"})
	require.Equal(t, "alert_start_game", alice.recv()["type"])
	require.Equal(t, "alert_start_game", bob.recv()["type"])

	bob.send(map[string]any{"type": "play_move"})
	resp := bob.recv()
	require.EqualValues(t, 0, resp["status"])
}

func TestScenario_JoinGame_RejectsUnknownSession(t *testing.T) {
	addr := startTestServer(t, 10, 0)
	bob := registerAndAuth(t, addr, "bob", "pw2")
	defer bob.close()

	bob.send(map[string]any{"type": "join_game", "game_name": "no-such-table"})
	resp := bob.recv()
	require.EqualValues(t, 0, resp["status"])
}

func TestScenario_ReadyToPlay_RejectsIncompleteSession(t *testing.T) {
	addr := startTestServer(t, 10, 0)
	alice := registerAndAuth(t, addr, "alice", "pw1")
	defer alice.close()

	alice.send(map[string]any{"type": "create_game", "game_name": "duel1"})
	require.EqualValues(t, 1, alice.recv()["status"])

	alice.send(map[string]any{"type": "ready_to_play"})
	resp := alice.recv()
	require.Equal(t, "unknown_command", resp["type"])
}
