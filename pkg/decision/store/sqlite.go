package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mizan-hq/mizan/pkg/decision"
)

const decisionSchema = `
CREATE TABLE IF NOT EXISTS policy_decisions (
	id TEXT PRIMARY KEY,
	tenant TEXT NOT NULL,
	policy_type TEXT NOT NULL,
	policy_version TEXT NOT NULL,
	context_hash TEXT NOT NULL,
	context_json TEXT NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT,
	rules_evaluated INTEGER NOT NULL,
	rules_matched INTEGER NOT NULL,
	confidence_score INTEGER NOT NULL,
	evaluated_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP,
	related_entity_type TEXT,
	related_entity_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_decisions_tenant ON policy_decisions(tenant);
CREATE INDEX IF NOT EXISTS idx_decisions_hash ON policy_decisions(context_hash);
CREATE INDEX IF NOT EXISTS idx_decisions_evaluated ON policy_decisions(evaluated_at);
`

// SQLiteConfig configures the SQLite decision store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait when the database is locked.
	BusyTimeout time.Duration

	// WALMode enables write-ahead logging for better concurrency.
	WALMode bool
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/decisions.db",
		BusyTimeout: 5 * time.Second,
		WALMode:     true,
	}
}

// SQLiteStore persists decision records in SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the decision database.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	logger := slog.Default().With("component", "decision.store.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open decision database: %w", err)
	}

	if config.WALMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", config.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(decisionSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create decision schema: %w", err)
	}

	logger.Info("decision store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Store appends one record.
func (s *SQLiteStore) Store(ctx context.Context, rec *decision.Record) error {
	if rec.ID == "" || rec.ContextHash == "" {
		return ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_decisions (
			id, tenant, policy_type, policy_version, context_hash, context_json,
			decision, reason, rules_evaluated, rules_matched, confidence_score,
			evaluated_at, expires_at, related_entity_type, related_entity_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Tenant, string(rec.PolicyType), rec.PolicyVersion,
		rec.ContextHash, rec.ContextJSON, rec.Decision, rec.Reason,
		rec.RulesEvaluated, rec.RulesMatched, rec.ConfidenceScore,
		rec.EvaluatedAt.UTC(), nullableTime(rec.ExpiresAt),
		rec.RelatedEntityType, rec.RelatedEntityID,
	)
	if err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

// Query returns matching records, newest first.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*decision.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Tenant != "" {
		where = append(where, "tenant = ?")
		args = append(args, filter.Tenant)
	}
	if filter.PolicyType != "" {
		where = append(where, "policy_type = ?")
		args = append(args, string(filter.PolicyType))
	}
	if !filter.Since.IsZero() {
		where = append(where, "evaluated_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT id, tenant, policy_type, policy_version, context_hash, context_json,
		decision, reason, rules_evaluated, rules_matched, confidence_score,
		evaluated_at, expires_at, related_entity_type, related_entity_id
		FROM policy_decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY evaluated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decision records: %w", err)
	}
	defer rows.Close()

	var out []*decision.Record
	for rows.Next() {
		rec := &decision.Record{}
		var (
			policyType string
			reason     sql.NullString
			expiresAt  sql.NullTime
			relType    sql.NullString
			relID      sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.Tenant, &policyType, &rec.PolicyVersion,
			&rec.ContextHash, &rec.ContextJSON, &rec.Decision, &reason,
			&rec.RulesEvaluated, &rec.RulesMatched, &rec.ConfidenceScore,
			&rec.EvaluatedAt, &expiresAt, &relType, &relID,
		); err != nil {
			return nil, fmt.Errorf("scan decision record: %w", err)
		}
		rec.PolicyType = decision.PolicyType(policyType)
		rec.Reason = reason.String
		if expiresAt.Valid {
			rec.ExpiresAt = expiresAt.Time
		}
		rec.RelatedEntityType = relType.String
		rec.RelatedEntityID = relID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM policy_decisions").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count decision records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// nullableTime stores zero times as NULL.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
