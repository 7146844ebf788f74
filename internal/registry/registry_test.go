package registry

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConn is a minimal net.Conn stand-in; only RemoteAddr is exercised
// by the registry.
type fakeConn struct {
	net.Conn
	addr string
}

func (c fakeConn) RemoteAddr() net.Addr { return fakeAddr(c.addr) }

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

func newConn(addr string) net.Conn {
	return fakeConn{addr: addr}
}

func TestAdmit_EnforcesGlobalCapacity(t *testing.T) {
	r := New(1, 0)

	_, err := r.Admit(newConn("10.0.0.1:1"))
	require.NoError(t, err)

	_, err = r.Admit(newConn("10.0.0.2:1"))
	require.ErrorIs(t, err, ErrCapacityReached)
}

func TestAdmit_EnforcesPerIPCapacity(t *testing.T) {
	r := New(0, 1)

	_, err := r.Admit(newConn("10.0.0.1:1"))
	require.NoError(t, err)

	_, err = r.Admit(newConn("10.0.0.1:2"))
	require.ErrorIs(t, err, ErrCapacityReached)

	_, err = r.Admit(newConn("10.0.0.2:1"))
	require.NoError(t, err)
}

func TestAuthenticate_RejectsDuplicateName(t *testing.T) {
	r := New(0, 0)
	p1, err := r.Admit(newConn("10.0.0.1:1"))
	require.NoError(t, err)
	p2, err := r.Admit(newConn("10.0.0.2:1"))
	require.NoError(t, err)

	require.NoError(t, r.Authenticate(p1, "alice"))
	require.ErrorIs(t, r.Authenticate(p2, "alice"), ErrNameTaken)
}

func TestRemove_ReleasesNameAndCapacity(t *testing.T) {
	r := New(1, 0)
	conn := newConn("10.0.0.1:1")
	p, err := r.Admit(conn)
	require.NoError(t, err)
	require.NoError(t, r.Authenticate(p, "alice"))

	removed := r.Remove(conn)
	require.Same(t, p, removed)

	_, ok := r.PlayerByName("alice")
	require.False(t, ok)

	_, err = r.Admit(newConn("10.0.0.1:2"))
	require.NoError(t, err, "capacity slot must be released")
}

func TestCreateSession_RejectsDuplicateName(t *testing.T) {
	r := New(0, 0)
	_, err := r.CreateSession("table-1", "alice")
	require.NoError(t, err)

	_, err = r.CreateSession("table-1", "bob")
	require.ErrorIs(t, err, ErrSessionNameTaken)
}

func TestCreateSession_SetsHostCurrentGame(t *testing.T) {
	r := New(0, 0)
	conn := newConn("10.0.0.1:1")
	p, err := r.Admit(conn)
	require.NoError(t, err)
	require.NoError(t, r.Authenticate(p, "alice"))

	_, err = r.CreateSession("table-1", "alice")
	require.NoError(t, err)
	require.Equal(t, "table-1", p.CurrentGame)
}

func TestLobby_ListsOnlyWaitingSessions(t *testing.T) {
	r := New(0, 0)
	_, err := r.CreateSession("table-1", "alice")
	require.NoError(t, err)
	_, err = r.CreateSession("table-2", "carol")
	require.NoError(t, err)

	_, err = r.JoinSession("table-2", "dave")
	require.NoError(t, err)
	s, ok := r.SessionByName("table-2")
	require.True(t, ok)
	require.NoError(t, s.Ready())

	require.Equal(t, []string{"table-1"}, r.Lobby())
}

func TestJoinSession_SetsJoinerCurrentGame(t *testing.T) {
	r := New(0, 0)
	connB, err := r.Admit(newConn("10.0.0.2:1"))
	require.NoError(t, err)
	require.NoError(t, r.Authenticate(connB, "bob"))

	_, err = r.CreateSession("table-1", "alice")
	require.NoError(t, err)

	_, err = r.JoinSession("table-1", "bob")
	require.NoError(t, err)
	require.Equal(t, "table-1", connB.CurrentGame)
}

func TestRemoveSession_ClearsParticipantCurrentGame(t *testing.T) {
	r := New(0, 0)
	host, err := r.Admit(newConn("10.0.0.1:1"))
	require.NoError(t, err)
	require.NoError(t, r.Authenticate(host, "alice"))
	joiner, err := r.Admit(newConn("10.0.0.2:1"))
	require.NoError(t, err)
	require.NoError(t, r.Authenticate(joiner, "bob"))

	_, err = r.CreateSession("table-1", "alice")
	require.NoError(t, err)
	_, err = r.JoinSession("table-1", "bob")
	require.NoError(t, err)

	r.RemoveSession("table-1")

	require.Empty(t, host.CurrentGame)
	require.Empty(t, joiner.CurrentGame)
	_, ok := r.SessionByName("table-1")
	require.False(t, ok)
}
