package account

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is shared across this file's tests, following the reference
// server's db package TestMain idiom (one container for the whole
// package run).
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}
	defer func() {
		_ = container.Terminate(ctx)
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}
	defer testPool.Close()

	os.Exit(m.Run())
}

func setupStore(t *testing.T) *PostgresStore {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE players RESTART IDENTITY`)
	require.NoError(t, err)
	return NewPostgresStore(testPool)
}

func TestPostgresStore_InsertAndLookup(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, "alice", "hashed-pw")
	require.NoError(t, err)
	require.Equal(t, "alice", rec.Name)
	require.Equal(t, Stats{}, rec.Stats)

	byName, err := store.LookupByName(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, rec, byName)

	byID, err := store.LookupByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec, byID)
}

func TestPostgresStore_DuplicateName(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, "bob", "hash1")
	require.NoError(t, err)

	_, err = store.Insert(ctx, "bob", "hash2")
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestPostgresStore_LookupMissing(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.LookupByName(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.LookupByID(ctx, 99999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_UpdateStats(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, "carol", "hash")
	require.NoError(t, err)

	rec.Stats = Stats{Score: 42, Wins: 3, Losses: 1, Forfeits: 1, GamesPlayed: 4}
	require.NoError(t, store.UpdateStats(ctx, rec))

	got, err := store.LookupByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Stats, got.Stats)
}

func TestPostgresStore_DeleteByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	rec, err := store.Insert(ctx, "dave", "hash")
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, rec.ID))

	_, err = store.LookupByID(ctx, rec.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
