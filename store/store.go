// Package store persists analysis history in a local SQLite database so
// that past contract runs can be listed and compared.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStoreClosed is returned when operating on a closed history store.
var ErrStoreClosed = errors.New("clamba: history store is closed")

// Analysis is one row of analysis history.
type Analysis struct {
	ID              int64   `json:"id"`
	ContractID      string  `json:"contract_id"`
	ContractName    string  `json:"contract_name"`
	SourcePath      string  `json:"source_path,omitempty"`
	Provider        string  `json:"provider"`
	Model           string  `json:"model,omitempty"`
	DetectionMethod string  `json:"detection_method,omitempty"`
	ProcessCount    int     `json:"process_count"`
	DependencyEdges int     `json:"dependency_edges"`
	Confidence      float64 `json:"confidence"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	Report          string  `json:"report,omitempty"` // serialized report JSON
	CreatedAt       string  `json:"created_at"`
}

// Store wraps the SQLite database holding analysis history.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and applies
// the schema and any pending migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database. Further operations return
// ErrStoreClosed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// LogAnalysis records one completed contract analysis and returns its
// row id.
func (s *Store) LogAnalysis(ctx context.Context, a Analysis) (int64, error) {
	if s.db == nil {
		return 0, ErrStoreClosed
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO analyses (
			contract_id, contract_name, source_path, provider, model,
			detection_method, process_count, dependency_edges,
			confidence, elapsed_seconds, report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ContractID, a.ContractName, a.SourcePath, a.Provider, a.Model,
		a.DetectionMethod, a.ProcessCount, a.DependencyEdges,
		a.Confidence, a.ElapsedSeconds, a.Report)
	if err != nil {
		return 0, fmt.Errorf("inserting analysis: %w", err)
	}
	return res.LastInsertId()
}

// ListAnalyses returns the most recent analyses, newest first. A limit
// of 0 or less returns everything.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT id, contract_id, contract_name, COALESCE(source_path, ''),
		       provider, COALESCE(model, ''), COALESCE(detection_method, ''),
		       process_count, dependency_edges, confidence, elapsed_seconds,
		       COALESCE(report, ''), created_at
		FROM analyses
		ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.ContractID, &a.ContractName, &a.SourcePath,
			&a.Provider, &a.Model, &a.DetectionMethod,
			&a.ProcessCount, &a.DependencyEdges, &a.Confidence, &a.ElapsedSeconds,
			&a.Report, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAnalysis returns one analysis by row id.
func (s *Store) GetAnalysis(ctx context.Context, id int64) (*Analysis, error) {
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	var a Analysis
	err := s.db.QueryRowContext(ctx, `
		SELECT id, contract_id, contract_name, COALESCE(source_path, ''),
		       provider, COALESCE(model, ''), COALESCE(detection_method, ''),
		       process_count, dependency_edges, confidence, elapsed_seconds,
		       COALESCE(report, ''), created_at
		FROM analyses WHERE id = ?`, id).
		Scan(&a.ID, &a.ContractID, &a.ContractName, &a.SourcePath,
			&a.Provider, &a.Model, &a.DetectionMethod,
			&a.ProcessCount, &a.DependencyEdges, &a.Confidence, &a.ElapsedSeconds,
			&a.Report, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading analysis: %w", err)
	}
	return &a, nil
}
