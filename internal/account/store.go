package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateName is returned by Insert when the name is already taken.
var ErrDuplicateName = errors.New("account: name already exists")

// ErrNotFound is returned by LookupByName/LookupByID when no matching
// record exists.
var ErrNotFound = errors.New("account: not found")

// Store is the persistence boundary for player identities and cumulative
// statistics (spec §4.4). Implementations must use parameterized
// statements; each operation is a single statement, per spec's
// transactionality note.
type Store interface {
	// Insert creates a new account with zeroed stats. Returns
	// ErrDuplicateName if the name is taken.
	Insert(ctx context.Context, name, passwordHash string) (Record, error)

	// LookupByName returns the account with the given name, or
	// ErrNotFound.
	LookupByName(ctx context.Context, name string) (Record, error)

	// LookupByID returns the account with the given id, or ErrNotFound.
	LookupByID(ctx context.Context, id int64) (Record, error)

	// UpdateStats persists the full stats payload for an existing
	// account, identified by ID.
	UpdateStats(ctx context.Context, rec Record) error

	// DeleteByID removes an account. Exposed for administrative use
	// only; no wire verb invokes it (spec §4.4: "never deleted by the
	// core").
	DeleteByID(ctx context.Context, id int64) error
}

// PostgresStore implements Store on top of a pgx connection pool,
// following the parameterized-query idiom of the reference login
// server's account repository. Names are stored and matched exactly as
// given; no case folding is applied.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, name, passwordHash string) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (username, password, forfeits, wins, losses, played_games, score)
		 VALUES ($1, $2, 0, 0, 0, 0, 0)
		 RETURNING player_id, username, password, forfeits, wins, losses, played_games, score`,
		name, passwordHash,
	).Scan(&rec.ID, &rec.Name, &rec.PasswordHash,
		&rec.Stats.Forfeits, &rec.Stats.Wins, &rec.Stats.Losses,
		&rec.Stats.GamesPlayed, &rec.Stats.Score)
	if err != nil {
		if isUniqueViolation(err) {
			return Record{}, ErrDuplicateName
		}
		return Record{}, fmt.Errorf("inserting account %q: %w", name, err)
	}
	return rec, nil
}

func (s *PostgresStore) LookupByName(ctx context.Context, name string) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT player_id, username, password, forfeits, wins, losses, played_games, score
		 FROM players WHERE username = $1`, name,
	).Scan(&rec.ID, &rec.Name, &rec.PasswordHash,
		&rec.Stats.Forfeits, &rec.Stats.Wins, &rec.Stats.Losses,
		&rec.Stats.GamesPlayed, &rec.Stats.Score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("querying account %q: %w", name, err)
	}
	return rec, nil
}

func (s *PostgresStore) LookupByID(ctx context.Context, id int64) (Record, error) {
	var rec Record
	err := s.pool.QueryRow(ctx,
		`SELECT player_id, username, password, forfeits, wins, losses, played_games, score
		 FROM players WHERE player_id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.PasswordHash,
		&rec.Stats.Forfeits, &rec.Stats.Wins, &rec.Stats.Losses,
		&rec.Stats.GamesPlayed, &rec.Stats.Score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("querying account id %d: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) UpdateStats(ctx context.Context, rec Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE players SET forfeits = $1, wins = $2, losses = $3, played_games = $4, score = $5
		 WHERE player_id = $6`,
		rec.Stats.Forfeits, rec.Stats.Wins, rec.Stats.Losses, rec.Stats.GamesPlayed, rec.Stats.Score,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating stats for account id %d: %w", rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM players WHERE player_id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting account id %d: %w", id, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), the signal for a duplicate username.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
