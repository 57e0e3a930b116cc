// Package postgres stores the vote ledger in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/matdaan/vicore/internal/models"
)

//go:embed migrations/*
var migrationsFS embed.FS

type PostgresStore struct {
	pool *pgxpool.Pool
}

func (s *PostgresStore) GetPool() *pgxpool.Pool {
	return s.pool
}

// StdDB exposes the pool through database/sql for the metrics collectors.
func (s *PostgresStore) StdDB() *sql.DB {
	return stdlib.OpenDBFromPool(s.pool)
}

func NewPostgresStore(connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	store := &PostgresStore{
		pool: pool,
	}

	// Run migrations. This is idempotent.
	if err = store.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) WriteBlock(ctx context.Context, block *models.Block) error {
	if block.Index > math.MaxInt64 || block.Nonce > math.MaxInt64 {
		return fmt.Errorf("block %d exceeds storable range", block.Index)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger.blocks
			(id, time_ns, previous_hash, voter_hash, election_id, candidate_hash, cast_at_ns, nonce, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`,
		int64(block.Index),
		block.Timestamp.UnixNano(),
		block.PreviousHash[:],
		block.Data.VoterHash[:],
		block.Data.ElectionID,
		block.Data.CandidateHash[:],
		block.Data.CastAt.UnixNano(),
		int64(block.Nonce),
		block.Hash[:],
	)
	if err != nil {
		return fmt.Errorf("failed to write block %d: %w", block.Index, err)
	}

	return nil
}

func (s *PostgresStore) LoadChain(ctx context.Context) ([]models.Block, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, time_ns, previous_hash, voter_hash, election_id, candidate_hash, cast_at_ns, nonce, hash
		FROM ledger.blocks
		ORDER BY id ASC;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var (
			id, timeNs, castAtNs, nonce          int64
			prevHash, voterHash, candHash, chash []byte
			block                                models.Block
		)
		if err := rows.Scan(&id, &timeNs, &prevHash, &voterHash, &block.Data.ElectionID, &candHash, &castAtNs, &nonce, &chash); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}

		block.Index = uint64(id)
		block.Timestamp = time.Unix(0, timeNs).UTC()
		block.Data.CastAt = time.Unix(0, castAtNs).UTC()
		block.Nonce = uint64(nonce)
		copy(block.PreviousHash[:], prevHash)
		copy(block.Data.VoterHash[:], voterHash)
		copy(block.Data.CandidateHash[:], candHash)
		copy(block.Hash[:], chash)

		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chain rows: %w", err)
	}

	return blocks, nil
}

func (s *PostgresStore) WriteAttempt(ctx context.Context, attempt *models.VerificationAttempt) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger.attempts (voter_id, attempted_at, outcome, detail, ip_address)
		VALUES ($1, $2, $3, $4, $5);
	`, attempt.VoterID, attempt.Timestamp, string(attempt.Outcome), attempt.Detail, attempt.IPAddress)
	if err != nil {
		return fmt.Errorf("failed to write verification attempt: %w", err)
	}

	return nil
}

func (s *PostgresStore) CountRecentFailures(ctx context.Context, voterID string, since time.Time) (uint, error) {
	var count uint
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ledger.attempts
		WHERE voter_id = $1 AND attempted_at >= $2 AND outcome <> 'passed';
	`, voterID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent failures: %w", err)
	}

	return count, nil
}

func (s *PostgresStore) runMigrations() error {
	slog.Info("Running PostgreSQL migrations...")

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(s.pool), &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	slog.Info("Closing PostgreSQL connection pool")
	s.pool.Close()
	return nil
}
