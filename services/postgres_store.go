package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"chatbot/models"
)

const exchangesTable = "exchanges"

// PostgresStore records exchanges in a Postgres table.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore opens uri, pings it, and creates the exchanges table if
// needed. sslmode=disable is appended when the URI does not set sslmode.
func NewPostgresStore(ctx context.Context, uri string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", withSSLMode(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db, table: pq.QuoteIdentifier(exchangesTable)}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func withSSLMode(uri string) string {
	if strings.Contains(uri, "sslmode=") {
		return uri
	}
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		if strings.Contains(uri, "?") {
			return uri + "&sslmode=disable"
		}
		return uri + "?sslmode=disable"
	default:
		// key=value connection string
		return strings.TrimSpace(uri) + " sslmode=disable"
	}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS ` + s.table + ` (
            id           TEXT PRIMARY KEY,
            user_message TEXT NOT NULL,
            reply        TEXT NOT NULL,
            provider     TEXT NOT NULL DEFAULT '',
            created_at   TIMESTAMPTZ NOT NULL
        )`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create exchanges table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, ex models.Exchange) error {
	query := `
        INSERT INTO ` + s.table + ` (id, user_message, reply, provider, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            reply = EXCLUDED.reply,
            provider = EXCLUDED.provider`

	_, err := s.db.ExecContext(ctx, query, ex.ID, ex.UserMessage, ex.Reply, ex.Provider, ex.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save to postgres: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	query := `
        SELECT id, user_message, reply, provider, created_at
        FROM ` + s.table + `
        ORDER BY created_at DESC
        LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []models.Exchange
	for rows.Next() {
		var ex models.Exchange
		if err := rows.Scan(&ex.ID, &ex.UserMessage, &ex.Reply, &ex.Provider, &ex.Timestamp); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
