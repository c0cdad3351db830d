package gate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store on an embedded SQLite database. Suitable
// for single-instance deployments that need gates to survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteStoreConfig configures the SQLite gate store.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

const gateSchema = `
CREATE TABLE IF NOT EXISTS approval_gates (
	id TEXT PRIMARY KEY,
	agent_code TEXT NOT NULL,
	action TEXT NOT NULL,
	object_id TEXT,
	confidence INTEGER NOT NULL,
	approver_role TEXT NOT NULL,
	escalation_role TEXT NOT NULL,
	bypass_threshold INTEGER NOT NULL,
	state TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	sla_due_at INTEGER NOT NULL,
	auto_reject_at INTEGER NOT NULL,
	escalated_at INTEGER,
	decided_by TEXT,
	decided_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_gates_state ON approval_gates(state);
CREATE INDEX IF NOT EXISTS idx_gates_agent ON approval_gates(agent_code);
`

// NewSQLiteStore opens (creating if necessary) a SQLite-backed gate store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(gateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create persists a newly opened gate.
func (s *SQLiteStore) Create(ctx context.Context, g *Gate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_gates (
			id, agent_code, action, object_id, confidence,
			approver_role, escalation_role, bypass_threshold, state,
			created_at, sla_due_at, auto_reject_at,
			escalated_at, decided_by, decided_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.AgentCode, g.Action, g.ObjectID, g.Confidence,
		g.ApproverRole, g.EscalationRole, g.BypassConfidenceThreshold, string(g.State),
		g.CreatedAt.Unix(), g.SlaDueAt.Unix(), g.AutoRejectAt.Unix(),
		unixOrNull(g.EscalatedAt), nullString(g.DecidedBy), unixOrNull(g.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create gate: %w", err)
	}
	return nil
}

// Get returns the gate with the given ID or ErrGateNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Gate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_code, action, object_id, confidence,
		       approver_role, escalation_role, bypass_threshold, state,
		       created_at, sla_due_at, auto_reject_at,
		       escalated_at, decided_by, decided_at
		FROM approval_gates WHERE id = ?`, id)

	g, err := scanGate(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("gate %q: %w", id, ErrGateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load gate: %w", err)
	}
	return g, nil
}

// Update overwrites the stored gate.
func (s *SQLiteStore) Update(ctx context.Context, g *Gate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_gates SET
			state = ?, escalated_at = ?, decided_by = ?, decided_at = ?
		WHERE id = ?`,
		string(g.State), unixOrNull(g.EscalatedAt), nullString(g.DecidedBy), unixOrNull(g.DecidedAt),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update gate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("gate %q: %w", g.ID, ErrGateNotFound)
	}
	return nil
}

// ListActionable returns the Pending and Escalated gates, oldest first.
func (s *SQLiteStore) ListActionable(ctx context.Context) ([]*Gate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_code, action, object_id, confidence,
		       approver_role, escalation_role, bypass_threshold, state,
		       created_at, sla_due_at, auto_reject_at,
		       escalated_at, decided_by, decided_at
		FROM approval_gates
		WHERE state IN (?, ?)
		ORDER BY created_at ASC`,
		string(StatePending), string(StateEscalated))
	if err != nil {
		return nil, fmt.Errorf("failed to list gates: %w", err)
	}
	defer rows.Close()

	var gates []*Gate
	for rows.Next() {
		g, err := scanGate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan gate: %w", err)
		}
		gates = append(gates, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return gates, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGate(row rowScanner) (*Gate, error) {
	var (
		g           Gate
		state       string
		createdAt   int64
		slaDueAt    int64
		autoReject  int64
		escalatedAt sql.NullInt64
		decidedBy   sql.NullString
		decidedAt   sql.NullInt64
	)
	err := row.Scan(
		&g.ID, &g.AgentCode, &g.Action, &g.ObjectID, &g.Confidence,
		&g.ApproverRole, &g.EscalationRole, &g.BypassConfidenceThreshold, &state,
		&createdAt, &slaDueAt, &autoReject,
		&escalatedAt, &decidedBy, &decidedAt,
	)
	if err != nil {
		return nil, err
	}

	g.State = State(state)
	g.CreatedAt = time.Unix(createdAt, 0).UTC()
	g.SlaDueAt = time.Unix(slaDueAt, 0).UTC()
	g.AutoRejectAt = time.Unix(autoReject, 0).UTC()
	if escalatedAt.Valid {
		g.EscalatedAt = time.Unix(escalatedAt.Int64, 0).UTC()
	}
	if decidedBy.Valid {
		g.DecidedBy = decidedBy.String
	}
	if decidedAt.Valid {
		g.DecidedAt = time.Unix(decidedAt.Int64, 0).UTC()
	}
	return &g, nil
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
