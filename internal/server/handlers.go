package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pente-game/server/internal/account"
	"github.com/pente-game/server/internal/game"
	"github.com/pente-game/server/internal/player"
	"github.com/pente-game/server/internal/protocol"
)

func handleAuth(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if req.Username == "" || req.Password == "" {
		return protocol.AuthResponse{Type: "auth_response", Status: protocol.StatusFailure}
	}

	rec, err := s.accounts.LookupByName(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, account.ErrNotFound) {
			slog.Error("auth lookup failed", "username", req.Username, "error", err)
		}
		return protocol.AuthResponse{Type: "auth_response", Status: protocol.StatusFailure}
	}
	if !s.hasher.Verify(req.Password, rec.PasswordHash) {
		return protocol.AuthResponse{Type: "auth_response", Status: protocol.StatusFailure}
	}

	if err := s.reg.Authenticate(p, rec.Name); err != nil {
		return protocol.AuthResponse{Type: "auth_response", Status: protocol.StatusFailure}
	}
	p.Authenticate(rec)

	stats := protocol.StatsFromAccount(rec.Stats)
	slog.Info("auth success", "username", rec.Name)
	return protocol.AuthResponse{Type: "auth_response", Status: protocol.StatusSuccess, PlayerStats: &stats}
}

func handleNewAccount(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if req.Username == "" || req.Password == "" || req.Password != req.ConfPassword {
		return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusFailure}
	}
	if err := account.ValidateName(req.Username); err != nil {
		return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusFailure}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		slog.Error("hashing new account password failed", "error", err)
		return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusFailure}
	}

	rec, err := s.accounts.Insert(ctx, req.Username, hash)
	if err != nil {
		if !errors.Is(err, account.ErrDuplicateName) {
			slog.Error("creating account failed", "username", req.Username, "error", err)
		}
		return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusFailure}
	}

	if err := s.reg.Authenticate(p, rec.Name); err != nil {
		return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusFailure}
	}
	p.Authenticate(rec)

	stats := protocol.StatsFromAccount(rec.Stats)
	slog.Info("account created", "username", rec.Name)
	return protocol.NewAccountResponse{Type: "new_account_response", Status: protocol.StatusSuccess, PlayerStats: &stats}
}

func handleDisconnect(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if p.InGame() {
		s.settleDeparture(ctx, p, p.CurrentGame)
	}
	return protocol.DisconnectAck{Type: "disconnect_ack", Status: protocol.StatusSuccess}
}

func handleGetLobby(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	names := s.reg.Lobby()
	games := make([]protocol.GameSummary, 0, len(names))
	for _, name := range names {
		sess, ok := s.reg.SessionByName(name)
		if !ok {
			continue
		}
		games = append(games, sessionSummary(sess))
	}
	return protocol.GetLobbyResponse{
		Type:               "get_lobby_response",
		Status:             protocol.StatusSuccess,
		TotalActivePlayers: s.reg.Size(),
		Games:              games,
	}
}

func sessionSummary(sess *game.Session) protocol.GameSummary {
	summary := protocol.GameSummary{Name: sess.Name, Status: "waiting", Host: sess.Host}
	if sess.Status == game.Ongoing {
		summary.Status = "ongoing"
	}
	if sess.Joiner != "" {
		joiner := sess.Joiner
		summary.JoinerName = &joiner
	}
	return summary
}

func handleCreateGame(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if p.State != player.Authenticated {
		return protocol.CreateGameResponse{Type: "create_game_response", Status: protocol.StatusFailure}
	}
	if p.InGame() {
		return protocol.CreateGameResponse{Type: "create_game_response", Status: protocol.StatusFailure}
	}
	if req.GameName == "" || len(req.GameName) > game.MaxNameLength {
		return protocol.CreateGameResponse{Type: "create_game_response", Status: protocol.StatusFailure}
	}

	sess, err := s.reg.CreateSession(req.GameName, p.Name)
	if err != nil {
		return protocol.CreateGameResponse{Type: "create_game_response", Status: protocol.StatusFailure}
	}

	info := protocol.GameInfoFromSession(sess)
	slog.Info("game created", "name", sess.Name, "host", p.Name)
	return protocol.CreateGameResponse{Type: "create_game_response", Status: protocol.StatusSuccess, Game: &info}
}

func handleJoinGame(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if p.State != player.Authenticated || p.InGame() {
		return protocol.JoinGameResponse{Type: "join_game_response", Status: protocol.StatusFailure}
	}

	_, err := s.reg.JoinSession(req.GameName, p.Name)
	if err != nil {
		return protocol.JoinGameResponse{Type: "join_game_response", Status: protocol.StatusFailure}
	}
	slog.Info("joined game", "name", req.GameName, "joiner", p.Name)
	return protocol.JoinGameResponse{Type: "join_game_response", Status: protocol.StatusSuccess}
}

// handleReadyToPlay promotes a session to ongoing and pushes
// alert_start_game to both participants (spec §4.3, §6). The caller
// receives their own alert as the direct response; the opponent's copy
// is pushed first, preserving the "notify-then-respond" ordering the
// spec requires for multi-party effects (spec §5).
func handleReadyToPlay(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if !p.InGame() {
		return protocol.NewUnknownCommand()
	}
	sess, ok := s.reg.SessionByName(p.CurrentGame)
	if !ok {
		return protocol.NewUnknownCommand()
	}
	if err := sess.Ready(); err != nil {
		return protocol.NewUnknownCommand()
	}
	p.ResetCaptures()
	if opp, ok := s.reg.PlayerByName(otherParticipant(sess, p.Name)); ok {
		opp.ResetCaptures()
	}

	cells := protocol.BoardCells(sess.Board)

	hostAlert := protocol.AlertStartGame{
		Type: "alert_start_game", GameName: sess.Name, Board: cells,
		OpponentInfo: opponentInfo(s, sess.Joiner), YourMarker: "x", YourTurn: false,
	}
	joinerAlert := protocol.AlertStartGame{
		Type: "alert_start_game", GameName: sess.Name, Board: cells,
		OpponentInfo: opponentInfo(s, sess.Host), YourMarker: "o", YourTurn: true,
	}

	var callerAlert any
	if p.Name == sess.Host {
		callerAlert = hostAlert
		if opp, ok := s.reg.PlayerByName(sess.Joiner); ok {
			_ = s.send(opp, joinerAlert)
		}
	} else {
		callerAlert = joinerAlert
		if opp, ok := s.reg.PlayerByName(sess.Host); ok {
			_ = s.send(opp, hostAlert)
		}
	}
	return callerAlert
}

func otherParticipant(sess *game.Session, name string) string {
	if name == sess.Host {
		return sess.Joiner
	}
	return sess.Host
}

// opponentInfo builds the opponent_info object: the opponent's
// cumulative stats with their name added (spec §6).
func opponentInfo(s *Server, name string) protocol.OpponentInfo {
	if opp, ok := s.reg.PlayerByName(name); ok {
		return protocol.OpponentInfo{Name: name, PlayerStats: protocol.StatsFromAccount(opp.Stats)}
	}
	return protocol.OpponentInfo{Name: name}
}

// handlePlayMove adjudicates a move and, on a non-terminal outcome,
// pushes new_board_state to the opponent before returning the caller's
// own move_response (spec §4.3, §5, §6). On a terminal outcome both
// participants receive game_over, opponent first.
func handlePlayMove(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if !p.InGame() {
		return protocol.MoveResponse{Type: "move_response", Status: protocol.StatusFailure, Reason: "not a participant"}
	}
	sess, ok := s.reg.SessionByName(p.CurrentGame)
	if !ok {
		return protocol.MoveResponse{Type: "move_response", Status: protocol.StatusFailure, Reason: "not a participant"}
	}
	if req.X == nil || req.Y == nil {
		return protocol.MoveResponse{Type: "move_response", Status: protocol.StatusFailure, Reason: "coordinates missing or non-integer"}
	}

	out := sess.PlayMove(p.Name, *req.X, *req.Y)
	if !out.Legal {
		return protocol.MoveResponse{Type: "move_response", Status: protocol.StatusFailure, Reason: out.Reason}
	}

	if out.Terminal == game.NotTerminal {
		if opp, ok := s.reg.PlayerByName(otherParticipant(sess, p.Name)); ok {
			_ = s.send(opp, protocol.NewBoardState{Type: "new_board_state", Board: protocol.BoardCells(out.Board)})
		}
		return protocol.MoveResponse{
			Type: "move_response", Status: protocol.StatusSuccess,
			Board: protocol.BoardCells(out.Board), Captures: out.CallerCaptures,
		}
	}

	reason := "alignment"
	if out.Terminal == game.CaptureVictory {
		reason = "capture"
	}
	// The caller (mover) is the winner here: push the loser's game_over
	// first, then return the winner's own game_over as the direct
	// response (spec §5, "notify-then-respond").
	delta := s.settleOutcome(ctx, sess, out.WinnerName, out.LoserName, reason, false)

	winnerStats, _ := s.accounts.LookupByName(ctx, out.WinnerName)
	stats := protocol.StatsFromAccount(winnerStats.Stats)
	return protocol.GameOver{Type: "game_over", Status: protocol.StatusVictory, Reason: reason, ScoreDelta: delta, PlayerStats: &stats}
}

func handleQuitGame(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any {
	if !p.InGame() {
		return protocol.QuitGameResponse{Type: "quit_game_response", Status: protocol.StatusFailure}
	}
	name := p.CurrentGame
	s.settleDeparture(ctx, p, name)

	// settleOutcome (reached via settleDeparture, for an ongoing
	// session) updates p.Stats in place before returning; a waiting
	// session's silent abandonment leaves stats untouched (spec §9
	// Open Questions).
	stats := protocol.StatsFromAccount(p.Stats)
	return protocol.QuitGameResponse{Type: "quit_game_response", Status: protocol.StatusSuccess, PlayerStats: &stats}
}

// settleDeparture handles a participant leaving sessionName, whether
// via quit_game or disconnect cleanup: forfeit if ongoing, silent
// abandonment if waiting (spec §4.3).
func (s *Server) settleDeparture(ctx context.Context, p *player.Player, sessionName string) {
	sess, ok := s.reg.SessionByName(sessionName)
	if !ok {
		p.CurrentGame = ""
		return
	}

	out := sess.Quit(p.Name)
	if out.Kind == game.Abandoned {
		s.reg.RemoveSession(sessionName)
		return
	}

	// The quitter (loser) gets quit_game_response as their own direct
	// reply; only the opponent (winner) receives a pushed game_over.
	s.settleOutcome(ctx, sess, out.WinnerName, out.LoserName, "forfeit", true)
}

// settleOutcome applies the Elo-shaped score delta (spec §4.3.1),
// persists both participants, pushes game_over to whichever
// participant is not about to receive their own typed direct response
// (quitterIsLoser selects which side that is), and destroys the
// session. It returns the delta applied to the winner's score.
func (s *Server) settleOutcome(ctx context.Context, sess *game.Session, winnerName, loserName, reason string, quitterIsLoser bool) int {
	winner, werr := s.accounts.LookupByName(ctx, winnerName)
	loser, lerr := s.accounts.LookupByName(ctx, loserName)
	if werr != nil || lerr != nil {
		slog.Error("looking up participants for outcome settlement failed", "winner", winnerName, "loser", loserName)
		s.reg.RemoveSession(sess.Name)
		return 0
	}

	delta := game.EloDelta(winner.Stats.Score, loser.Stats.Score)

	winner.Stats.Score += delta
	winner.Stats.Wins++
	winner.Stats.GamesPlayed++

	loser.Stats.Score -= delta
	loser.Stats.Losses++
	loser.Stats.GamesPlayed++
	if reason == "forfeit" {
		loser.Stats.Forfeits++
	}

	if err := s.accounts.UpdateStats(ctx, winner); err != nil {
		slog.Error("persisting winner stats failed", "player", winnerName, "error", err)
	}
	if err := s.accounts.UpdateStats(ctx, loser); err != nil {
		slog.Error("persisting loser stats failed", "player", loserName, "error", err)
	}

	if wp, ok := s.reg.PlayerByName(winnerName); ok {
		wp.Stats = winner.Stats
	}
	if lp, ok := s.reg.PlayerByName(loserName); ok {
		lp.Stats = loser.Stats
	}

	if quitterIsLoser {
		if wp, ok := s.reg.PlayerByName(winnerName); ok {
			winnerStats := protocol.StatsFromAccount(winner.Stats)
			_ = s.send(wp, protocol.GameOver{
				Type: "game_over", Status: protocol.StatusVictory, Reason: reason,
				ScoreDelta: delta, PlayerStats: &winnerStats,
			})
		}
	} else {
		if lp, ok := s.reg.PlayerByName(loserName); ok {
			loserStats := protocol.StatsFromAccount(loser.Stats)
			_ = s.send(lp, protocol.GameOver{
				Type: "game_over", Status: protocol.StatusDefeat, Reason: reason,
				ScoreDelta: -delta, PlayerStats: &loserStats,
			})
		}
	}

	slog.Info("game over", "winner", winnerName, "loser", loserName, "reason", reason)
	s.reg.RemoveSession(sess.Name)
	return delta
}
