// Package server implements the ConnectionLoop: the reactor that owns
// every client socket, reads framed requests, dispatches them to
// per-verb handlers, and writes framed responses (spec §4.1).
//
// The source reactor is single-threaded cooperative over a readiness
// multiplexer. This implementation instead runs one goroutine per
// connection (idiomatic Go, and the shape the teacher's login and
// game servers both use), and preserves the spec's serialization
// requirement — "no two handlers may mutate the Registry or a
// GameSession concurrently" — with a single coarse mutex held for the
// duration of every handler invocation (spec §5, "coarse-grained
// locking" alternative).
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pente-game/server/internal/account"
	"github.com/pente-game/server/internal/registry"
)

// RefusalSentinel is written verbatim to a socket rejected by admission
// control, then the socket is closed without registration (spec §4.1).
const RefusalSentinel = `{"type":"connection_refused"}` + "\n"

// Server is the single aggregate owning the Registry, the account
// store handle, and the listener (spec §9, "Global mutable state":
// replace process-wide globals with one explicit aggregate passed to
// handlers).
type Server struct {
	accounts account.Store
	hasher   account.Hasher
	reg      *registry.Registry

	// mu serializes every handler invocation against the Registry and
	// any live game.Session (spec §5).
	mu sync.Mutex

	listener net.Listener
	muListen sync.Mutex
}

// New constructs a Server backed by accounts, admitting at most
// maxConnections total connections and maxPerIP per remote address.
func New(accounts account.Store, hasher account.Hasher, maxConnections, maxPerIP int) *Server {
	return &Server{
		accounts: accounts,
		hasher:   hasher,
		reg:      registry.New(maxConnections, maxPerIP),
	}
}

// Addr returns the listener's address, or nil if Run/Serve has not
// been called yet.
func (s *Server) Addr() net.Addr {
	s.muListen.Lock()
	defer s.muListen.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener, unblocking Run/Serve.
func (s *Server) Close() error {
	s.muListen.Lock()
	defer s.muListen.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run listens on addr and serves until ctx is canceled or the listener
// fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from a caller-supplied listener, useful
// for tests that bind an ephemeral port themselves.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.muListen.Lock()
	s.listener = ln
	s.muListen.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	slog.Info("pente server started", "address", ln.Addr())
	s.acceptLoop(ctx, &wg, ln)
	wg.Wait()
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			slog.Error("accept failed", "error", err)
			continue
		}

		p, err := s.reg.Admit(conn)
		if err != nil {
			slog.Warn("connection refused: capacity reached", "remote", conn.RemoteAddr())
			_, _ = conn.Write([]byte(RefusalSentinel))
			_ = conn.Close()
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn, p)
		}()
	}
}

// ReapIdleConnections closes every connection idle longer than ttl,
// bounding unbounded resource growth in a long-running reactor
// (SPEC_FULL, "idle-session reaper"). Closing a connection unblocks
// its handleConnection goroutine's blocked read, which then runs the
// ordinary termination path (forfeit/abandon, Registry removal) exactly
// as a client-initiated disconnect would (spec §4.1). ttl <= 0 disables
// the reaper for this call.
func (s *Server) ReapIdleConnections(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	idle := s.reg.IdleConnections(ttl, time.Now())
	for _, conn := range idle {
		_ = conn.Close()
	}
	if len(idle) > 0 {
		slog.Info("idle-session reaper closed connections", "count", len(idle))
	}
	return len(idle)
}

// RunIdleReaper periodically calls ReapIdleConnections until ctx is
// canceled. interval should be a fraction of ttl so idle connections
// are not held much past their TTL.
func (s *Server) RunIdleReaper(ctx context.Context, ttl, interval time.Duration) error {
	if ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.ReapIdleConnections(ttl)
		}
	}
}
