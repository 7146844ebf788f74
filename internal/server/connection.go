package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/pente-game/server/internal/player"
	"github.com/pente-game/server/internal/protocol"
)

// handlerFunc answers one request for one connected player. Handlers
// never return a Go error for protocol-level problems; those are
// represented in the response itself (spec §7, "propagation").
type handlerFunc func(ctx context.Context, s *Server, p *player.Player, req protocol.Request) any

// dispatch maps verbs to handlers (spec §9: "verb → handler mapping").
var dispatch = map[string]handlerFunc{
	protocol.VerbAuth:        handleAuth,
	protocol.VerbNewAccount:  handleNewAccount,
	protocol.VerbGetLobby:    handleGetLobby,
	protocol.VerbDisconnect:  handleDisconnect,
	protocol.VerbCreateGame:  handleCreateGame,
	protocol.VerbJoinGame:    handleJoinGame,
	protocol.VerbReadyToPlay: handleReadyToPlay,
	protocol.VerbPlayMove:    handlePlayMove,
	protocol.VerbQuitGame:    handleQuitGame,
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn, p *player.Player) {
	remote := conn.RemoteAddr()
	slog.Info("connection accepted", "remote", remote)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	defer func() {
		s.cleanupConnection(conn, p)
		_ = conn.Close()
		slog.Info("connection closed", "remote", remote)
	}()

	if err := s.send(p, protocol.Welcome{Type: "welcome"}); err != nil {
		slog.Warn("failed sending welcome", "remote", remote, "error", err)
		return
	}

	reader := bufio.NewReader(conn)
	for {
		var req protocol.Request
		if err := protocol.ReadFrame(reader, &req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			slog.Debug("malformed frame, replying unknown_command", "remote", remote, "error", err)
			if werr := s.send(p, protocol.NewUnknownCommand()); werr != nil {
				return
			}
			continue
		}
		p.Touch()

		resp := s.handle(ctx, p, req)
		if resp == nil {
			continue
		}
		if err := s.send(p, resp); err != nil {
			slog.Warn("failed writing response", "remote", remote, "error", err)
			return
		}
	}
}

// handle serializes one request against the Registry and any live
// game.Session (spec §5: "no two handlers may mutate the Registry or a
// GameSession concurrently").
func (s *Server) handle(ctx context.Context, p *player.Player, req protocol.Request) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := dispatch[req.Type]
	if !ok {
		return protocol.NewUnknownCommand()
	}
	return h(ctx, s, p, req)
}

// send writes one frame to p's connection. It is safe to call both
// from within a handler already holding s.mu (notifying an opponent)
// and from handleConnection's top-level loop (replying to the caller):
// p.WriteMu serializes the two paths so concurrent writers can never
// interleave partial frames on the same socket.
func (s *Server) send(p *player.Player, v any) error {
	p.WriteMu.Lock()
	defer p.WriteMu.Unlock()
	return protocol.WriteFrame(p.Writer, v)
}

// cleanupConnection implements the termination path from spec §4.1:
// remove the Player from the Registry, forfeiting an ongoing session
// or silently destroying a waiting one.
func (s *Server) cleanupConnection(conn net.Conn, p *player.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.InGame() {
		s.settleDeparture(context.Background(), p, p.CurrentGame)
	}
	s.reg.Remove(conn)
}
