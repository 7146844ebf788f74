package game

import (
	"fmt"
	"math"
)

// MaxNameLength bounds a session name, mirroring the player name limit
// (spec §3).
const MaxNameLength = 49

// CaptureVictoryThreshold is the number of captures that wins a match
// outright (spec §4.3).
const CaptureVictoryThreshold = 5

// Status is the GameSession lifecycle state (spec §4.3).
type Status int

const (
	Waiting Status = iota
	Ongoing
)

// TerminalKind classifies how a session ended, used by callers to shape
// the game_over / quit_game response and the AccountStore updates that
// follow.
type TerminalKind int

const (
	NotTerminal TerminalKind = iota
	Alignment
	CaptureVictory
	Forfeit
	Abandoned
)

// Session is one live match: board, participants, turn pointer, capture
// counters (spec §3, §4.3). It stores participant names, not Player
// pointers — Registry is the only place that resolves a name back to a
// live connection (spec §9, "Ownership graph").
type Session struct {
	Name   string
	Host   string
	Joiner string
	Status Status

	Board Board
	// Turn holds MarkerHost or MarkerJoiner while Ongoing; meaningless
	// while Waiting.
	Turn Marker

	HostCaptures   int
	JoinerCaptures int
}

// New creates a waiting session with host as its sole participant.
func New(name, host string) (*Session, error) {
	if name == "" || len(name) > MaxNameLength {
		return nil, fmt.Errorf("invalid session name %q", name)
	}
	return &Session{Name: name, Host: host, Status: Waiting}, nil
}

// Join seats joinerName in the session's free slot (spec §4.2: "fills
// the first empty slot, host before joiner").
func (s *Session) Join(joinerName string) error {
	if s.Status != Waiting {
		return fmt.Errorf("session %q is not accepting joiners", s.Name)
	}
	if s.Joiner != "" {
		return fmt.Errorf("session %q already has a joiner", s.Name)
	}
	s.Joiner = joinerName
	return nil
}

// Ready transitions the session to Ongoing once both slots are filled,
// seeding the board with the host's stone at the center and handing the
// first move to the joiner (spec §4.3, and the Open Question resolved
// in §9: the center seed counts as the host's opening move).
func (s *Session) Ready() error {
	if s.Status != Waiting {
		return fmt.Errorf("session %q is not waiting", s.Name)
	}
	if s.Joiner == "" {
		return fmt.Errorf("session %q has no joiner yet", s.Name)
	}
	s.Board = Board{}
	s.Board.set(CenterRow, CenterCol, MarkerHost)
	s.Turn = MarkerJoiner
	s.Status = Ongoing
	return nil
}

// markerFor returns the marker a participant plays, and false if name
// is not a participant.
func (s *Session) markerFor(name string) (Marker, bool) {
	switch name {
	case s.Host:
		return MarkerHost, true
	case s.Joiner:
		return MarkerJoiner, true
	default:
		return 0, false
	}
}

// nameFor is the inverse of markerFor.
func (s *Session) nameFor(m Marker) string {
	if m == MarkerHost {
		return s.Host
	}
	return s.Joiner
}

// MoveOutcome is the result of an attempted play_move (spec §4.3 and
// §6).
type MoveOutcome struct {
	Legal  bool
	Reason string // set when !Legal

	Board            Board
	CapturesThisMove int
	CallerCaptures   int

	Terminal   TerminalKind
	WinnerName string
	LoserName  string
	ScoreDelta int // left 0 by PlayMove; the server reports the applied delta on game_over instead

	// NextTurnName is the participant who must move next. Empty when
	// Terminal != NotTerminal.
	NextTurnName string
}

// PlayMove adjudicates a move by caller at (row, col): legality,
// captures, alignment, victory, and turn handoff, in that order (spec
// §4.3). It never mutates session state when the move is illegal.
func (s *Session) PlayMove(caller string, row, col int) MoveOutcome {
	marker, isParticipant := s.markerFor(caller)
	if !isParticipant {
		return MoveOutcome{Reason: "not a participant"}
	}
	if s.Status != Ongoing {
		return MoveOutcome{Reason: "session is not ongoing"}
	}
	if !inBounds(row, col) {
		return MoveOutcome{Reason: "coordinates out of range"}
	}
	if marker != s.Turn {
		return MoveOutcome{Reason: "not your turn"}
	}
	if s.Board.At(row, col) != MarkerEmpty {
		return MoveOutcome{Reason: "cell is occupied"}
	}

	s.Board.set(row, col, marker)

	hits := s.Board.captures(row, col, marker)
	captured := s.Board.applyCaptures(row, col, hits)
	if marker == MarkerHost {
		s.HostCaptures += captured
	} else {
		s.JoinerCaptures += captured
	}

	won := s.Board.alignedFiveExists(row, col, marker) || s.callerCaptures(marker) >= CaptureVictoryThreshold

	outcome := MoveOutcome{
		Legal:            true,
		Board:            s.Board,
		CapturesThisMove: captured,
		CallerCaptures:   s.callerCaptures(marker),
	}

	if !won {
		s.Turn = marker.Opponent()
		outcome.NextTurnName = s.nameFor(s.Turn)
		return outcome
	}

	kind := Alignment
	if !s.Board.alignedFiveExists(row, col, marker) {
		kind = CaptureVictory
	}

	outcome.Terminal = kind
	outcome.WinnerName = caller
	outcome.LoserName = s.nameFor(marker.Opponent())
	return outcome
}

func (s *Session) callerCaptures(marker Marker) int {
	if marker == MarkerHost {
		return s.HostCaptures
	}
	return s.JoinerCaptures
}

// QuitOutcome is the result of a quit_game call (spec §4.3: forfeit or
// silent abandonment depending on Status).
type QuitOutcome struct {
	Kind       TerminalKind // Forfeit or Abandoned
	WinnerName string       // set only for Forfeit
	LoserName  string       // set only for Forfeit
}

// Quit handles a participant leaving the session, whether by explicit
// quit_game or by disconnect cleanup (spec §4.3).
func (s *Session) Quit(caller string) QuitOutcome {
	if s.Status == Waiting {
		return QuitOutcome{Kind: Abandoned}
	}

	_, ok := s.markerFor(caller)
	if !ok {
		return QuitOutcome{Kind: Abandoned}
	}

	var winner string
	if caller == s.Host {
		winner = s.Joiner
	} else {
		winner = s.Host
	}
	return QuitOutcome{Kind: Forfeit, WinnerName: winner, LoserName: caller}
}

// Participants returns the session's current occupants (spec §4.2).
func (s *Session) Participants() []string {
	var names []string
	if s.Host != "" {
		names = append(names, s.Host)
	}
	if s.Joiner != "" {
		names = append(names, s.Joiner)
	}
	return names
}

// EloDelta computes the symmetric score adjustment for a match between
// a winner with score winnerScore and a loser with score loserScore
// (spec §4.3.1). The design does not floor at zero: a losing score may
// go negative.
func EloDelta(winnerScore, loserScore int) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(winnerScore-loserScore)/400.0))
	return int(math.Round(30.0 * expected))
}
