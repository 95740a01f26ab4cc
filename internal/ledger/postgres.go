package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/retry"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	_ "github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS ledger_bets (
		seq          INTEGER PRIMARY KEY,
		id           TEXT UNIQUE NOT NULL,
		match_id     TEXT NOT NULL,
		market       TEXT NOT NULL,
		selection    TEXT NOT NULL,
		odds         DOUBLE PRECISION NOT NULL,
		stake        DOUBLE PRECISION NOT NULL,
		strategy     TEXT NOT NULL,
		ev           DOUBLE PRECISION NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL,
		line         DOUBLE PRECISION,
		created_at   TIMESTAMPTZ NOT NULL,
		result       TEXT NOT NULL,
		settled_at   TIMESTAMPTZ,
		profit       DOUBLE PRECISION,
		closing_odds DOUBLE PRECISION
	)
`

// PostgresStore keeps the ledger in a Postgres table ordered by sequence
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with the pq driver, retrying the first ping while the
// database comes up, and ensures the schema exists
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	ping := retry.NewPolicy(5, 500*time.Millisecond)
	if err := ping.Execute(ctx, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing connection
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// Close closes the connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Load reads every bet in ledger order
func (s *PostgresStore) Load(ctx context.Context) ([]models.Bet, error) {
	query := `
		SELECT id, match_id, market, selection, odds, stake, strategy, ev, confidence,
		       line, created_at, result, settled_at, profit, closing_odds
		FROM ledger_bets
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var bets []models.Bet
	for rows.Next() {
		var (
			b          models.Bet
			strategy   string
			result     string
			line       sql.NullFloat64
			settledAt  sql.NullTime
			profit     sql.NullFloat64
			closingOdd sql.NullFloat64
		)

		err := rows.Scan(
			&b.ID, &b.MatchID, &b.Market, &b.Selection, &b.Odds, &b.Stake, &strategy,
			&b.EV, &b.Confidence, &line, &b.CreatedAt, &result, &settledAt, &profit, &closingOdd,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}

		b.Strategy = models.StakingStrategy(strategy)
		b.Result = models.BetResult(result)
		if line.Valid {
			b.Line = &line.Float64
		}
		if settledAt.Valid {
			t := settledAt.Time.UTC()
			b.SettledAt = &t
		}
		if profit.Valid {
			b.Profit = &profit.Float64
		}
		if closingOdd.Valid {
			b.ClosingOdds = &closingOdd.Float64
		}
		b.CreatedAt = b.CreatedAt.UTC()

		bets = append(bets, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return bets, nil
}

// Save rewrites the table with the full ledger in one transaction
func (s *PostgresStore) Save(ctx context.Context, bets []models.Bet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if commit doesn't happen

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_bets`); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}

	insert := `
		INSERT INTO ledger_bets (
			seq, id, match_id, market, selection, odds, stake, strategy, ev, confidence,
			line, created_at, result, settled_at, profit, closing_odds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for i, b := range bets {
		_, err := tx.ExecContext(ctx, insert,
			i, b.ID, b.MatchID, b.Market, b.Selection, b.Odds, b.Stake, string(b.Strategy),
			b.EV, b.Confidence, b.Line, b.CreatedAt, string(b.Result), b.SettledAt, b.Profit, b.ClosingOdds,
		)
		if err != nil {
			return fmt.Errorf("failed to insert bet %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
