package index

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codequery/internal/core/errors"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// fixed width so timestamps order correctly as text
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store persists analysis snapshots in a SQLite database. Writes are
// serialized; reads may run concurrently.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex

	insertEdge     *sql.Stmt
	insertOverride *sql.Stmt
	insertCall     *sql.Stmt
	insertFailure  *sql.Stmt
	latestRun      *sql.Stmt
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, errors.New(errors.CodeValidationError, "index path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, errors.Newf(errors.CodeValidationError, "index path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL keep watch-mode rewrites from failing on lock.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite index %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	s := &Store{path: cleanPath, db: db}
	if err := s.prepare(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare() error {
	stmts := []struct {
		dst   **sql.Stmt
		name  string
		query string
	}{
		{&s.insertEdge, "insert edge", `INSERT OR IGNORE INTO hierarchy_edges(run_id, parent, child) VALUES (?, ?, ?)`},
		{&s.insertOverride, "insert override", `INSERT OR IGNORE INTO overrides(run_id, signature) VALUES (?, ?)`},
		{&s.insertCall, "insert call", `INSERT INTO call_bindings(run_id, file_path, line_number, call_name, target) VALUES (?, ?, ?, ?, ?)`},
		{&s.insertFailure, "insert failure", `INSERT INTO failures(run_id, code, component, file_path, subject, message) VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.latestRun, "latest run", `SELECT run_id, project_key, started_at_utc, finished_at_utc, file_count, type_count, call_count, resolved_call_count
FROM runs
WHERE project_key = ?
ORDER BY finished_at_utc DESC
LIMIT 1`},
	}
	for _, st := range stmts {
		stmt, err := s.db.Prepare(st.query)
		if err != nil {
			return fmt.Errorf("prepare %s stmt: %w", st.name, err)
		}
		*st.dst = stmt
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{s.insertEdge, s.insertOverride, s.insertCall, s.insertFailure, s.latestRun} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun writes snap in one transaction and returns its run id, generating
// one when snap.RunID is empty.
func (s *Store) SaveRun(ctx context.Context, snap Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.RunID == "" {
		snap.RunID = uuid.NewString()
	}
	snap.ProjectKey = projectKey(snap.ProjectKey)
	if snap.FinishedAt.IsZero() {
		snap.FinishedAt = time.Now().UTC()
	}
	if snap.StartedAt.IsZero() {
		snap.StartedAt = snap.FinishedAt
	}
	resolved := 0
	for _, c := range snap.Calls {
		if c.Target != "" {
			resolved++
		}
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs(run_id, project_key, started_at_utc, finished_at_utc, file_count, type_count, call_count, resolved_call_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, snap.ProjectKey,
			snap.StartedAt.UTC().Format(timeLayout), snap.FinishedAt.UTC().Format(timeLayout),
			snap.Files, snap.Types, len(snap.Calls), resolved,
		); err != nil {
			return err
		}

		edge := tx.StmtContext(ctx, s.insertEdge)
		for _, e := range snap.Edges {
			if _, err := edge.ExecContext(ctx, snap.RunID, e.Parent, e.Child); err != nil {
				return err
			}
		}
		override := tx.StmtContext(ctx, s.insertOverride)
		for _, sig := range snap.Overrides {
			if _, err := override.ExecContext(ctx, snap.RunID, sig); err != nil {
				return err
			}
		}
		call := tx.StmtContext(ctx, s.insertCall)
		for _, c := range snap.Calls {
			if _, err := call.ExecContext(ctx, snap.RunID, c.File, c.Line, c.Name, c.Target); err != nil {
				return err
			}
		}
		failure := tx.StmtContext(ctx, s.insertFailure)
		for _, f := range snap.Failures {
			if _, err := failure.ExecContext(ctx, snap.RunID, f.Code, f.Component, f.File, f.Subject, f.Message); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return snap.RunID, nil
}

// LatestRun returns the most recently finished run of a project.
func (s *Store) LatestRun(ctx context.Context, project string) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	err := s.withRetry("load latest run", func() error {
		return s.latestRun.QueryRowContext(ctx, projectKey(project)).Scan(
			&r.ID, &r.ProjectKey, &started, &finished, &r.Files, &r.Types, &r.Calls, &r.ResolvedCalls)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.AddContext(errors.New(errors.CodeNotFound, "no stored runs"), "project", projectKey(project))
	}
	if err != nil {
		return Run{}, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	r.FinishedAt, _ = time.Parse(timeLayout, finished)
	return r, nil
}

// ListRuns returns up to limit runs of a project, newest first. A
// non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	var out []Run
	err := s.withRetry("list runs", func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT run_id, project_key, started_at_utc, finished_at_utc, file_count, type_count, call_count, resolved_call_count
FROM runs WHERE project_key = ?
ORDER BY finished_at_utc DESC
LIMIT ?`, projectKey(project), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				r                 Run
				started, finished string
			)
			if err := rows.Scan(&r.ID, &r.ProjectKey, &started, &finished, &r.Files, &r.Types, &r.Calls, &r.ResolvedCalls); err != nil {
				return err
			}
			r.StartedAt, _ = time.Parse(timeLayout, started)
			r.FinishedAt, _ = time.Parse(timeLayout, finished)
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// LoadOverrides returns the overriding method signatures of a run, sorted.
func (s *Store) LoadOverrides(ctx context.Context, runID string) ([]string, error) {
	var out []string
	err := s.withRetry("load overrides", func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT signature FROM overrides WHERE run_id = ? ORDER BY signature`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var sig string
			if err := rows.Scan(&sig); err != nil {
				return err
			}
			out = append(out, sig)
		}
		return rows.Err()
	})
	return out, err
}

// LoadEdges returns the hierarchy edges of a run sorted by parent, then child.
func (s *Store) LoadEdges(ctx context.Context, runID string) ([]Edge, error) {
	var out []Edge
	err := s.withRetry("load edges", func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT parent, child FROM hierarchy_edges WHERE run_id = ? ORDER BY parent, child`, runID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var e Edge
			if err := rows.Scan(&e.Parent, &e.Child); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

// Callers returns the call sites of a run bound to target.
func (s *Store) Callers(ctx context.Context, runID, target string) ([]CallBinding, error) {
	var out []CallBinding
	err := s.withRetry("load callers", func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, `SELECT file_path, line_number, call_name, target FROM call_bindings
WHERE run_id = ? AND target = ?
ORDER BY file_path, line_number`, runID, target)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c CallBinding
			if err := rows.Scan(&c.File, &c.Line, &c.Name, &c.Target); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

// PruneRuns deletes all but the newest keep runs of a project and returns
// how many were removed.
func (s *Store) PruneRuns(ctx context.Context, project string, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs
WHERE project_key = ?
  AND run_id NOT IN (
    SELECT run_id FROM runs WHERE project_key = ? ORDER BY finished_at_utc DESC LIMIT ?
  )`, projectKey(project), projectKey(project), keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	if stderrors.Is(lastErr, sql.ErrNoRows) {
		return lastErr
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func projectKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "default"
	}
	return key
}
