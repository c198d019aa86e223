// Package diagnostics implements the append-only tracing sink described
// in SPEC_FULL §1: persisted via modernc.org/sqlite, the teacher's pure-Go
// persistence driver from internal/infra/sqlite, strictly as a trace log —
// never as simulation-state persistence, which stays out of scope.
package diagnostics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/sagekernel/sagekernel/internal/config"
	"github.com/sagekernel/sagekernel/internal/domain"
)

// Tracer is a domain.DiagnosticsSink backed by a SQLite append-only log,
// gated per-component by a configured diagnostics key set.
type Tracer struct {
	db   *sql.DB
	diag config.DiagnosticsConfig
}

// Open creates or opens the trace database at diag.TracePath, applying
// WAL mode the way the teacher's sqlite.Open does.
func Open(diag config.DiagnosticsConfig) (*Tracer, error) {
	path := diag.TracePath
	if path == "" {
		path = filepath.Join(config.Home(), "trace.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open trace db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping trace db: %w", err)
	}
	db.SetMaxOpenConns(1)

	t := &Tracer{db: db, diag: diag}
	if err := t.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate trace db: %w", err)
	}
	return t, nil
}

func (t *Tracer) migrate() error {
	_, err := t.db.Exec(`CREATE TABLE IF NOT EXISTS trace (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		component TEXT NOT NULL,
		instant   REAL NOT NULL,
		message   TEXT NOT NULL,
		fields    TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

// Close shuts down the underlying database connection.
func (t *Tracer) Close() error { return t.db.Close() }

// Trace implements domain.DiagnosticsSink. It silently drops the record
// if component's diagnostics key is not enabled in t.diag — an unknown
// key is treated as disabled per Section 6.
func (t *Tracer) Trace(component string, when domain.Instant, message string, fields map[string]any) {
	if !t.diag.Enabled(component) {
		return
	}
	_, _ = t.db.Exec(
		`INSERT INTO trace (component, instant, message, fields) VALUES (?, ?, ?, ?)`,
		component, float64(when), message, fmt.Sprint(fields),
	)
}

// Recent returns up to limit of the most recently inserted trace rows,
// newest first.
func (t *Tracer) Recent(limit int) ([]Record, error) {
	rows, err := t.db.Query(
		`SELECT component, instant, message, fields FROM trace ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Component, &r.Instant, &r.Message, &r.Fields); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Record is one persisted trace row.
type Record struct {
	Component string
	Instant   float64
	Message   string
	Fields    string
}
