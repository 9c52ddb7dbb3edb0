package hierarchy

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// newID mints session identifiers; a var so tests can make ids predictable.
var newID = uuid.NewString

// Config holds hierarchy store configuration.
type Config struct {
	// DataDir is where the SQLite database lives.
	DataDir string

	// MaxDepth caps how deep the agent tree may grow. A root session has
	// depth 0; spawning past MaxDepth fails with ErrDepthExceeded.
	MaxDepth int

	// WaitingThreshold is how long a session may sit in "waiting" before
	// the attention aggregator flags it.
	WaitingThreshold time.Duration
}

// DefaultConfig returns the default configuration for the hierarchy store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".hive"),
		MaxDepth:         3,
		WaitingThreshold: 10 * time.Minute,
	}
}

// Store is the durable session tree backed by SQLite.
//
// It is the single writer surface for the hierarchy: tool handlers and the
// attention aggregator go through it, never around it.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a new Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("hierarchy: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "hive.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("hierarchy: ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("hierarchy: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("hierarchy: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Config returns the configuration the store was opened with.
func (s *Store) Config() Config {
	return s.cfg
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			parent_id  TEXT REFERENCES sessions(id),
			root_id    TEXT NOT NULL,
			depth      INTEGER NOT NULL DEFAULT 0,
			title      TEXT NOT NULL DEFAULT '',
			role       TEXT NOT NULL DEFAULT '',
			task       TEXT NOT NULL DEFAULT '',
			agent_type TEXT NOT NULL DEFAULT 'general',
			model      TEXT,
			status     TEXT NOT NULL DEFAULT 'working',
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_parent ON sessions(parent_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_root   ON sessions(root_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status, updated_at);

		CREATE TABLE IF NOT EXISTS decisions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			root_id    TEXT NOT NULL,
			decision   TEXT NOT NULL,
			category   TEXT,
			rationale  TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_decisions_root    ON decisions(root_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);

		CREATE TABLE IF NOT EXISTS artifacts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			root_id     TEXT NOT NULL,
			path        TEXT NOT NULL,
			description TEXT,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_artifacts_root    ON artifacts(root_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_artifacts_session ON artifacts(session_id);

		CREATE TABLE IF NOT EXISTS escalations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  TEXT NOT NULL,
			root_id     TEXT NOT NULL,
			type        TEXT NOT NULL,
			summary     TEXT NOT NULL,
			context     TEXT,
			resolved    INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL DEFAULT (datetime('now')),
			resolved_at TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_escalations_session    ON escalations(session_id);
		CREATE INDEX IF NOT EXISTS idx_escalations_unresolved ON escalations(resolved, session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Normalize existing data from earlier schema versions.
	_, _ = s.db.Exec(`UPDATE sessions SET status = 'working' WHERE status IS NULL OR status = ''`)
	_, _ = s.db.Exec(`UPDATE sessions SET agent_type = 'general' WHERE agent_type IS NULL OR agent_type = ''`)

	return nil
}

// ─── Sessions ────────────────────────────────────────────────────────────────

const sessionColumns = `id, parent_id, root_id, depth, title, role, task, agent_type, model, status, created_at, updated_at`

// CreateSession creates a new session. With an empty ParentID it becomes a
// root at depth 0; otherwise depth = parent.depth+1 and root = parent.root.
//
// The parent read and the child insert happen in one transaction so that
// concurrent sibling spawns under the same parent serialize on the store
// rather than racing on the depth computation.
func (s *Store) CreateSession(p CreateSessionParams) (*Session, error) {
	agentType := normalizeEnum(p.AgentType)
	if agentType == "" {
		agentType = AgentGeneral
	}
	if !ValidAgentType(agentType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAgentType, p.AgentType)
	}

	id := newID()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("create session: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	depth := 0
	rootID := id
	var parentID *string

	if p.ParentID != "" {
		var parentRoot string
		var parentDepth int
		err := tx.QueryRow(
			`SELECT root_id, depth FROM sessions WHERE id = ?`, p.ParentID,
		).Scan(&parentRoot, &parentDepth)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %q", ErrParentNotFound, p.ParentID)
		}
		if err != nil {
			return nil, fmt.Errorf("create session: read parent: %w", err)
		}

		depth = parentDepth + 1
		if depth > s.cfg.MaxDepth {
			return nil, fmt.Errorf("%w: depth %d > max %d", ErrDepthExceeded, depth, s.cfg.MaxDepth)
		}
		rootID = parentRoot
		pid := p.ParentID
		parentID = &pid
	}

	if _, err := tx.Exec(
		`INSERT INTO sessions (id, parent_id, root_id, depth, title, role, task, agent_type, model, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, parentID, rootID, depth, p.Title, p.Role, p.Task, agentType,
		nullableString(p.Model), StatusWorking,
	); err != nil {
		return nil, fmt.Errorf("create session: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create session: commit: %w", err)
	}

	return s.GetSession(id)
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateStatus sets a session's self-reported status. Only enum membership is
// validated; any status may follow any other.
func (s *Store) UpdateStatus(id, status string) error {
	status = normalizeEnum(status)
	if !ValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	res, err := s.db.Exec(
		`UPDATE sessions SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return nil
}

// DeleteSession removes a session that has no children. A session with live
// descendants fails with ErrHasChildren — deletion never cascades.
func (s *Store) DeleteSession(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete session: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var children int
	if err := tx.QueryRow(
		`SELECT COUNT(*) FROM sessions WHERE parent_id = ?`, id,
	).Scan(&children); err != nil {
		return fmt.Errorf("delete session: count children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("%w: %q has %d", ErrHasChildren, id, children)
	}

	res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	return tx.Commit()
}

// ListRoots returns all root sessions, newest first.
func (s *Store) ListRoots() ([]Session, error) {
	return s.querySessions(
		`SELECT ` + sessionColumns + ` FROM sessions WHERE parent_id IS NULL ORDER BY created_at DESC, id`,
	)
}

// ListChildren returns the direct children of a session, oldest first.
func (s *Store) ListChildren(id string) ([]Session, error) {
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM sessions WHERE parent_id = ? ORDER BY created_at ASC, id`, id,
	)
}

// AllSessions returns every live session. The attention aggregator scans
// this; n stays small (bounded trees), so a full scan is fine.
func (s *Store) AllSessions() ([]Session, error) {
	return s.querySessions(
		`SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at ASC, id`,
	)
}

// ─── Decisions ───────────────────────────────────────────────────────────────

// AppendDecision logs a decision for a session. The root id is denormalized
// onto the row so tree-wide queries are a single pass. Decisions are
// append-only: no update or delete is exposed.
func (s *Store) AppendDecision(p AppendDecisionParams) (*Decision, error) {
	sess, err := s.GetSession(p.SessionID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`INSERT INTO decisions (session_id, root_id, decision, category, rationale)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.RootID, p.Decision,
		nullableString(p.Category), nullableString(p.Rationale),
	)
	if err != nil {
		return nil, fmt.Errorf("append decision: %w", err)
	}

	id, _ := res.LastInsertId()
	return s.getDecision(id)
}

func (s *Store) getDecision(id int64) (*Decision, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, root_id, decision, COALESCE(category, ''), COALESCE(rationale, ''), created_at
		 FROM decisions WHERE id = ?`, id,
	)
	var d Decision
	if err := row.Scan(&d.ID, &d.SessionID, &d.RootID, &d.Decision, &d.Category, &d.Rationale, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	return &d, nil
}

// TreeDecisions returns every decision logged anywhere in the tree rooted at
// rootID, ordered by creation time ascending.
func (s *Store) TreeDecisions(rootID string) ([]Decision, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, root_id, decision, COALESCE(category, ''), COALESCE(rationale, ''), created_at
		 FROM decisions WHERE root_id = ? ORDER BY created_at ASC, id ASC`, rootID,
	)
	if err != nil {
		return nil, fmt.Errorf("tree decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.SessionID, &d.RootID, &d.Decision, &d.Category, &d.Rationale, &d.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// ─── Artifacts ───────────────────────────────────────────────────────────────

// AppendArtifact records a produced output for a session, same append-only
// shape as AppendDecision.
func (s *Store) AppendArtifact(p AppendArtifactParams) (*Artifact, error) {
	sess, err := s.GetSession(p.SessionID)
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`INSERT INTO artifacts (session_id, root_id, path, description)
		 VALUES (?, ?, ?, ?)`,
		sess.ID, sess.RootID, p.Path, nullableString(p.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("append artifact: %w", err)
	}

	id, _ := res.LastInsertId()
	row := s.db.QueryRow(
		`SELECT id, session_id, root_id, path, COALESCE(description, ''), created_at
		 FROM artifacts WHERE id = ?`, id,
	)
	var a Artifact
	if err := row.Scan(&a.ID, &a.SessionID, &a.RootID, &a.Path, &a.Description, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return &a, nil
}

// TreeArtifacts returns every artifact recorded anywhere in the tree rooted
// at rootID, ordered by creation time ascending.
func (s *Store) TreeArtifacts(rootID string) ([]Artifact, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, root_id, path, COALESCE(description, ''), created_at
		 FROM artifacts WHERE root_id = ? ORDER BY created_at ASC, id ASC`, rootID,
	)
	if err != nil {
		return nil, fmt.Errorf("tree artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.SessionID, &a.RootID, &a.Path, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// ─── Escalations ─────────────────────────────────────────────────────────────

// RaiseEscalation creates an escalation and, as a side effect, sets the
// owning session's status to blocked. Both writes happen in one transaction.
func (s *Store) RaiseEscalation(p RaiseEscalationParams) (*Escalation, error) {
	typ := normalizeEnum(p.Type)
	if !ValidEscalationType(typ) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEscalationType, p.Type)
	}

	sess, err := s.GetSession(p.SessionID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("raise escalation: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO escalations (session_id, root_id, type, summary, context)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.RootID, typ, p.Summary, nullableString(p.Context),
	)
	if err != nil {
		return nil, fmt.Errorf("raise escalation: insert: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE sessions SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		StatusBlocked, sess.ID,
	); err != nil {
		return nil, fmt.Errorf("raise escalation: block session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("raise escalation: commit: %w", err)
	}

	id, _ := res.LastInsertId()
	return s.GetEscalation(id)
}

// GetEscalation retrieves an escalation by ID.
func (s *Store) GetEscalation(id int64) (*Escalation, error) {
	row := s.db.QueryRow(
		`SELECT id, session_id, root_id, type, summary, COALESCE(context, ''), resolved, created_at, resolved_at
		 FROM escalations WHERE id = ?`, id,
	)
	var e Escalation
	if err := row.Scan(&e.ID, &e.SessionID, &e.RootID, &e.Type, &e.Summary, &e.Context, &e.Resolved, &e.CreatedAt, &e.ResolvedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %d", ErrEscalationNotFound, id)
		}
		return nil, fmt.Errorf("get escalation: %w", err)
	}
	return &e, nil
}

// ResolveEscalation marks an escalation resolved. Resolving an already
// resolved escalation is a no-op, not an error. The owning session's blocked
// status is NOT cleared here: the caller must follow up with UpdateStatus —
// resolving and unblocking are two explicit, independent steps.
func (s *Store) ResolveEscalation(id int64) error {
	res, err := s.db.Exec(
		`UPDATE escalations SET resolved = 1, resolved_at = datetime('now')
		 WHERE id = ? AND resolved = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("resolve escalation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguish "already resolved" (no-op) from "unknown id" (error).
		if _, err := s.GetEscalation(id); err != nil {
			return err
		}
	}
	return nil
}

// UnresolvedEscalations returns every open escalation, oldest first.
func (s *Store) UnresolvedEscalations() ([]Escalation, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, root_id, type, summary, COALESCE(context, ''), resolved, created_at, resolved_at
		 FROM escalations WHERE resolved = 0 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("unresolved escalations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Escalation
	for rows.Next() {
		var e Escalation
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RootID, &e.Type, &e.Summary, &e.Context, &e.Resolved, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// SessionEscalations returns every escalation raised by one session,
// oldest first.
func (s *Store) SessionEscalations(sessionID string) ([]Escalation, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, root_id, type, summary, COALESCE(context, ''), resolved, created_at, resolved_at
		 FROM escalations WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("session escalations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Escalation
	for rows.Next() {
		var e Escalation
		if err := rows.Scan(&e.ID, &e.SessionID, &e.RootID, &e.Type, &e.Summary, &e.Context, &e.Resolved, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	if err := row.Scan(
		&sess.ID, &sess.ParentID, &sess.RootID, &sess.Depth,
		&sess.Title, &sess.Role, &sess.Task, &sess.AgentType, &sess.Model,
		&sess.Status, &sess.CreatedAt, &sess.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) querySessions(query string, args ...any) ([]Session, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *sess)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// sqliteTimeLayout is the format of datetime('now') values.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// ParseTime parses a timestamp as stored by this package. SQLite's
// datetime('now') is UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
}
