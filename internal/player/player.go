// Package player holds the runtime representation of a connected client
// (spec §3, "Player"). It is deliberately decoupled from game.Session:
// a Player stores at most the name of its active session, never a
// pointer into it, so Registry can own both collections without a
// reference cycle (see spec §9, "Ownership graph").
package player

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/pente-game/server/internal/account"
)

// AuthState is the authentication state machine for a connection.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Authenticated:
		return "AUTHENTICATED"
	default:
		return "UNAUTHENTICATED"
	}
}

// Player represents one connected client.
type Player struct {
	Conn   net.Conn
	Writer *bufio.Writer

	// WriteMu serializes every frame written to Writer. A handler
	// holding Server.mu may push a frame to this player from a
	// different goroutine than the one that will write this player's
	// own direct response after the lock is released; bufio.Writer is
	// not safe for concurrent use, so both paths must take this lock.
	WriteMu sync.Mutex

	ID    int64
	Name  string
	State AuthState
	Stats account.Stats

	// Captures is reset on every ready_to_play and session teardown
	// (spec §9 Open Questions). The server counts captures on
	// game.Session (HostCaptures/JoinerCaptures) and never increments
	// this field.
	Captures int

	// CurrentGame is the name of the live game.Session this player
	// currently participates in, or "" when not in a session.
	CurrentGame string

	// LastActivity is updated on every frame received, used by the
	// idle-session reaper to bound unbounded connection lifetime.
	LastActivity time.Time
}

// New creates an unauthenticated Player bound to conn.
func New(conn net.Conn) *Player {
	return &Player{Conn: conn, Writer: bufio.NewWriter(conn), State: Unauthenticated, LastActivity: time.Now()}
}

// Touch records a frame having just been received from this player.
func (p *Player) Touch() {
	p.LastActivity = time.Now()
}

// Authenticate transitions the player into the authenticated state with
// the account identity it resolved to.
func (p *Player) Authenticate(rec account.Record) {
	p.ID = rec.ID
	p.Name = rec.Name
	p.Stats = rec.Stats
	p.State = Authenticated
}

// InGame reports whether the player currently belongs to a session.
func (p *Player) InGame() bool {
	return p.CurrentGame != ""
}

// ResetCaptures zeroes the session-scoped capture counter, called when a
// player enters a new game (spec §9 Open Questions).
func (p *Player) ResetCaptures() {
	p.Captures = 0
}
