package protocol

import (
	"github.com/pente-game/server/internal/account"
	"github.com/pente-game/server/internal/game"
)

// Status codes carried on the wire (spec §6).
const (
	StatusFailure = 0
	StatusSuccess = 1
	StatusVictory = 2
	StatusDefeat  = 3
	StatusDraw    = 4 // reserved, never produced (spec §6)
)

// Verbs dispatched by ConnectionLoop (spec §4.1, exhaustive).
const (
	VerbAuth        = "auth"
	VerbNewAccount  = "new_account"
	VerbGetLobby    = "get_lobby"
	VerbDisconnect  = "disconnect"
	VerbCreateGame  = "create_game"
	VerbJoinGame    = "join_game"
	VerbReadyToPlay = "ready_to_play"
	VerbPlayMove    = "play_move"
	VerbQuitGame    = "quit_game"
)

// Request is the envelope for every client-initiated frame. Not every
// field is meaningful for every verb; handlers read only the fields
// their verb documents (spec §6).
type Request struct {
	Type         string `json:"type"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	ConfPassword string `json:"conf_password,omitempty"`
	GameName     string `json:"game_name,omitempty"`

	// X and Y are pointers so a missing coordinate is distinguishable
	// from an explicit 0. A non-integer value (a fraction or a string)
	// does not reach the handler: the whole frame fails to decode and is
	// answered with unknown_command, not a move_response failure.
	X *int `json:"x,omitempty"`
	Y *int `json:"y,omitempty"`
}

// PlayerStats is the wire shape for cumulative account statistics
// (spec §6).
type PlayerStats struct {
	Score       int `json:"score"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Forfeits    int `json:"forfeits"`
	GamesPlayed int `json:"games_played"`
}

// StatsFromAccount converts an account.Stats into its wire shape.
func StatsFromAccount(s account.Stats) PlayerStats {
	return PlayerStats{
		Score:       s.Score,
		Wins:        s.Wins,
		Losses:      s.Losses,
		Forfeits:    s.Forfeits,
		GamesPlayed: s.GamesPlayed,
	}
}

// BoardCells renders a game.Board as 361 single-character markers,
// row-major: "" for empty, "x" for host, "o" for joiner (spec §4.3).
func BoardCells(b game.Board) []string {
	cells := make([]string, len(b))
	for i, m := range b {
		switch m {
		case game.MarkerHost:
			cells[i] = "x"
		case game.MarkerJoiner:
			cells[i] = "o"
		default:
			cells[i] = ""
		}
	}
	return cells
}

// GameSummary is one entry of get_lobby_response's games array
// (SPEC_FULL: includes session status so a reconnecting client can
// render the lobby without an extra round trip).
type GameSummary struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Host       string  `json:"host"`
	JoinerName *string `json:"joiner_or_null"`
}

// GameInfo is the game object returned by create_game_response (spec §6).
type GameInfo struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Host    string   `json:"host"`
	Players []string `json:"players"`
}

func statusName(s game.Status) string {
	if s == game.Ongoing {
		return "ongoing"
	}
	return "waiting"
}

// GameInfoFromSession renders a game.Session as the wire GameInfo
// shape.
func GameInfoFromSession(s *game.Session) GameInfo {
	return GameInfo{
		Name:    s.Name,
		Status:  statusName(s.Status),
		Host:    s.Host,
		Players: s.Participants(),
	}
}

// AuthResponse answers an auth request (spec §6).
type AuthResponse struct {
	Type        string       `json:"type"`
	Status      int          `json:"status"`
	PlayerStats *PlayerStats `json:"player_stats,omitempty"`
}

// NewAccountResponse answers a new_account request.
type NewAccountResponse struct {
	Type        string       `json:"type"`
	Status      int          `json:"status"`
	PlayerStats *PlayerStats `json:"player_stats,omitempty"`
}

// DisconnectAck answers a disconnect request.
type DisconnectAck struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
}

// GetLobbyResponse answers a get_lobby request.
type GetLobbyResponse struct {
	Type               string        `json:"type"`
	Status             int           `json:"status"`
	TotalActivePlayers int           `json:"total_active_players"`
	Games              []GameSummary `json:"games"`
}

// CreateGameResponse answers a create_game request.
type CreateGameResponse struct {
	Type   string    `json:"type"`
	Status int       `json:"status"`
	Game   *GameInfo `json:"game,omitempty"`
}

// JoinGameResponse answers a join_game request.
type JoinGameResponse struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
}

// OpponentInfo is the opponent's player-stats object with their name
// added, carried on alert_start_game (spec §6).
type OpponentInfo struct {
	Name string `json:"name"`
	PlayerStats
}

// AlertStartGame is pushed to both participants when ready_to_play
// promotes a session to ongoing (spec §6).
type AlertStartGame struct {
	Type         string       `json:"type"`
	GameName     string       `json:"game_name"`
	Board        []string     `json:"board_state"`
	OpponentInfo OpponentInfo `json:"opponent_info"`
	YourMarker   string       `json:"your_marker"`
	YourTurn     bool         `json:"your_turn"`
}

// MoveResponse answers a play_move request (spec §6).
type MoveResponse struct {
	Type     string   `json:"type"`
	Status   int      `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	Board    []string `json:"board_state,omitempty"`
	Captures int      `json:"captures,omitempty"`
}

// NewBoardState is pushed to the opponent after a non-terminal move
// (spec §6).
type NewBoardState struct {
	Type  string   `json:"type"`
	Board []string `json:"board_state"`
}

// GameOver is sent on a terminal outcome (spec §6): to both
// participants after a winning move, and only to the winner after a
// forfeit (the quitter gets quit_game_response or disconnect_ack).
type GameOver struct {
	Type        string       `json:"type"`
	Status      int          `json:"status"` // StatusVictory or StatusDefeat
	Reason      string       `json:"reason"` // "alignment", "capture", or "forfeit"
	ScoreDelta  int          `json:"score_delta"`
	PlayerStats *PlayerStats `json:"player_stats,omitempty"`
}

// QuitGameResponse answers a quit_game request.
type QuitGameResponse struct {
	Type        string       `json:"type"`
	Status      int          `json:"status"`
	PlayerStats *PlayerStats `json:"player_stats,omitempty"`
}

// Welcome is pushed immediately on connection accept (spec §6).
type Welcome struct {
	Type string `json:"type"`
}

// UnknownCommand answers a malformed frame or unrecognized verb (spec
// §4.1, §7).
type UnknownCommand struct {
	Type string `json:"type"`
}

// NewUnknownCommand builds the canonical unknown_command response.
func NewUnknownCommand() UnknownCommand {
	return UnknownCommand{Type: "unknown_command"}
}
