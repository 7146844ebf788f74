// Package registry owns the live Player and game.Session collections
// for one running server. It is the only place that resolves a name
// back to a live connection or a live match (spec §9, "Ownership
// graph"): a Player never points at its Session, and a Session never
// points at a Player, so there is no reference cycle for the garbage
// collector or for disconnect cleanup to unwind.
package registry

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pente-game/server/internal/game"
	"github.com/pente-game/server/internal/player"
)

var (
	ErrCapacityReached  = errors.New("registry: connection capacity reached")
	ErrNameTaken        = errors.New("registry: name already in use")
	ErrSessionNameTaken = errors.New("registry: session name already in use")
	ErrNotFound         = errors.New("registry: not found")
)

// Registry holds every authenticated player and every live game session
// on the server, keyed by name. It also tracks raw connections before
// authentication, for capacity accounting (spec §4.1: admission
// control applies to connections, not just authenticated players).
type Registry struct {
	mu sync.RWMutex

	maxConnections int
	maxPerIP       int

	conns         map[net.Conn]*player.Player
	connsByIP     map[string]int
	playersByName map[string]*player.Player
	sessions      map[string]*game.Session
}

// New creates an empty Registry admitting at most maxConnections total
// connections and maxPerIP connections from any one remote address.
// Zero or negative values disable the corresponding limit.
func New(maxConnections, maxPerIP int) *Registry {
	return &Registry{
		maxConnections: maxConnections,
		maxPerIP:       maxPerIP,
		conns:          make(map[net.Conn]*player.Player),
		connsByIP:      make(map[string]int),
		playersByName:  make(map[string]*player.Player),
		sessions:       make(map[string]*game.Session),
	}
}

// remoteIP extracts the host portion of conn's remote address, falling
// back to the full string if it cannot be split (spec §4.1, per-IP
// admission control).
func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// Admit registers a freshly accepted connection, enforcing the global
// and per-IP connection caps (spec §4.1). The returned Player is
// unauthenticated; call Authenticate once the client completes auth.
func (r *Registry) Admit(conn net.Conn) (*player.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxConnections > 0 && len(r.conns) >= r.maxConnections {
		return nil, ErrCapacityReached
	}
	ip := remoteIP(conn)
	if r.maxPerIP > 0 && r.connsByIP[ip] >= r.maxPerIP {
		return nil, ErrCapacityReached
	}

	p := player.New(conn)
	r.conns[conn] = p
	r.connsByIP[ip]++
	return p, nil
}

// Authenticate binds p's name into the registry's name index once its
// identity has been resolved, rejecting a name already in use by
// another live connection (spec §4.2: "at most one live connection per
// account").
func (r *Registry) Authenticate(p *player.Player, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.playersByName[name]; taken {
		return ErrNameTaken
	}
	r.playersByName[name] = p
	return nil
}

// Remove unregisters conn, releasing its name and capacity slot. It
// does not touch any session the player belongs to. It returns the
// removed Player, or nil if conn was never admitted.
func (r *Registry) Remove(conn net.Conn) *player.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.conns[conn]
	if !ok {
		return nil
	}
	delete(r.conns, conn)

	ip := remoteIP(conn)
	r.connsByIP[ip]--
	if r.connsByIP[ip] <= 0 {
		delete(r.connsByIP, ip)
	}

	if p.Name != "" {
		delete(r.playersByName, p.Name)
	}
	return p
}

// PlayerByName looks up an authenticated player by name.
func (r *Registry) PlayerByName(name string) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.playersByName[name]
	return p, ok
}

// PlayerByConn looks up a player by its underlying connection.
func (r *Registry) PlayerByConn(conn net.Conn) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.conns[conn]
	return p, ok
}

// CreateSession registers a new waiting game.Session hosted by host,
// rejecting a session name already in use (spec §4.2).
func (r *Registry) CreateSession(name, host string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.sessions[name]; taken {
		return nil, ErrSessionNameTaken
	}
	s, err := game.New(name, host)
	if err != nil {
		return nil, err
	}
	r.sessions[name] = s

	if p, ok := r.playersByName[host]; ok {
		p.CurrentGame = name
	}
	return s, nil
}

// SessionByName looks up a live session by name.
func (r *Registry) SessionByName(name string) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Lobby returns the names of every session whose status is Waiting,
// including one whose joiner is already seated (spec §6, get_lobby).
func (r *Registry) Lobby() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for name, s := range r.sessions {
		if s.Status == game.Waiting {
			names = append(names, name)
		}
	}
	return names
}

// JoinSession seats joiner into the named waiting session and marks
// the joiner as belonging to it (CreateSession already marked the host).
func (r *Registry) JoinSession(name, joiner string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return nil, ErrNotFound
	}
	if err := s.Join(joiner); err != nil {
		return nil, err
	}
	if p, ok := r.playersByName[joiner]; ok {
		p.CurrentGame = name
	}
	return s, nil
}

// RemoveSession deletes the named session and clears CurrentGame on
// every player in r.playersByName that still points at it (spec §9:
// cleanup must not leave a dangling session reference on a Player that
// stayed connected, e.g. the winner of a forfeit).
func (r *Registry) RemoveSession(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return
	}
	delete(r.sessions, name)

	for _, participant := range s.Participants() {
		if p, ok := r.playersByName[participant]; ok && p.CurrentGame == name {
			p.CurrentGame = ""
			p.ResetCaptures()
		}
	}
}

// Size reports the number of currently admitted connections, used for
// get_lobby's total_active_players.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IdleConnections returns every admitted connection whose player has
// not had a frame read since before cutoff, measured as now minus ttl.
// Used by the idle-session reaper to bound unbounded connection
// lifetime in a long-running reactor (SPEC_FULL, "idle-session
// reaper"); this is an ambient resource-bounding concern, not part of
// spec.md's core protocol.
func (r *Registry) IdleConnections(ttl time.Duration, now time.Time) []net.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := now.Add(-ttl)
	var idle []net.Conn
	for conn, p := range r.conns {
		if p.LastActivity.Before(cutoff) {
			idle = append(idle, conn)
		}
	}
	return idle
}
