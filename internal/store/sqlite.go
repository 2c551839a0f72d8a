package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loomhq/loom/pkg/models"
)

// SQLiteStore implements Store on a local SQLite file. Designs are stored
// as JSON blobs; deployments and execution logs get flat columns so they
// can be filtered in SQL.
type SQLiteStore struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) an SQLite database at path and
// applies pending migrations. WAL mode is enabled for concurrent reads.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Designs},
		{2, migrationV2Deployments},
		{3, migrationV3ExecutionLogs},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Designs = `
CREATE TABLE IF NOT EXISTS designs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	data TEXT NOT NULL
);
`

const migrationV2Deployments = `
CREATE TABLE IF NOT EXISTS deployments (
	id TEXT PRIMARY KEY,
	design_id TEXT NOT NULL,
	name TEXT,
	status TEXT NOT NULL,
	schedule TEXT NOT NULL,
	input_data TEXT,
	execution_count INTEGER NOT NULL DEFAULT 0,
	last_execution_at DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deployments_status ON deployments(status);
CREATE INDEX IF NOT EXISTS idx_deployments_design_id ON deployments(design_id);
`

const migrationV3ExecutionLogs = `
CREATE TABLE IF NOT EXISTS execution_logs (
	id TEXT PRIMARY KEY,
	deployment_id TEXT,
	design_id TEXT NOT NULL,
	execution_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	input_data TEXT,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	result TEXT,
	error TEXT
);

CREATE INDEX IF NOT EXISTS idx_execution_logs_deployment_id ON execution_logs(deployment_id);
CREATE INDEX IF NOT EXISTS idx_execution_logs_status ON execution_logs(status);
CREATE INDEX IF NOT EXISTS idx_execution_logs_started_at ON execution_logs(started_at);
`

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseNullableTime parses a nullable time string from SQLite.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

// ListDesigns returns every stored design, sorted by ID.
func (s *SQLiteStore) ListDesigns(ctx context.Context) ([]*models.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, "SELECT data FROM designs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var out []*models.Design
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d models.Design
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("decode design: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetDesign returns the design with the given ID.
func (s *SQLiteStore) GetDesign(ctx context.Context, id string) (*models.Design, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.conn.QueryRowContext(ctx, "SELECT data FROM designs WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get design %s: %w", id, err)
	}
	var d models.Design
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode design %s: %w", id, err)
	}
	return &d, nil
}

// PutDesign inserts or replaces a design by ID.
func (s *SQLiteStore) PutDesign(ctx context.Context, design *models.Design) error {
	data, err := json.Marshal(design)
	if err != nil {
		return fmt.Errorf("encode design %s: %w", design.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO designs (id, name, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data
	`, design.ID, design.Name, string(data))
	if err != nil {
		return fmt.Errorf("put design %s: %w", design.ID, err)
	}
	return nil
}

// DeleteDesign removes a design by ID.
func (s *SQLiteStore) DeleteDesign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, "DELETE FROM designs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete design %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDeployments returns every stored deployment, newest first.
func (s *SQLiteStore) ListDeployments(ctx context.Context) ([]*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, design_id, name, status, schedule, input_data,
		       execution_count, last_execution_at, created_at
		FROM deployments ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var out []*models.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDeployment returns the deployment with the given ID.
func (s *SQLiteStore) GetDeployment(ctx context.Context, id string) (*models.Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, design_id, name, status, schedule, input_data,
		       execution_count, last_execution_at, created_at
		FROM deployments WHERE id = ?
	`, id)
	d, err := scanDeployment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deployment %s: %w", id, err)
	}
	return d, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row scanner) (*models.Deployment, error) {
	var d models.Deployment
	var name, inputData, lastExec sql.NullString
	var schedule, createdAt string
	err := row.Scan(&d.ID, &d.DesignID, &name, &d.Status, &schedule, &inputData,
		&d.ExecutionCount, &lastExec, &createdAt)
	if err != nil {
		return nil, err
	}
	d.Name = name.String
	d.InputData = inputData.String
	if err := json.Unmarshal([]byte(schedule), &d.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule for %s: %w", d.ID, err)
	}
	d.LastExecutionAt = parseNullableTime(lastExec)
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", d.ID, err)
	}
	return &d, nil
}

// CreateDeployment inserts a new deployment.
func (s *SQLiteStore) CreateDeployment(ctx context.Context, dep *models.Deployment) error {
	schedule, err := json.Marshal(dep.Schedule)
	if err != nil {
		return fmt.Errorf("encode schedule for %s: %w", dep.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var lastExec any
	if dep.LastExecutionAt != nil {
		lastExec = formatTime(*dep.LastExecutionAt)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO deployments
			(id, design_id, name, status, schedule, input_data,
			 execution_count, last_execution_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, dep.ID, dep.DesignID, dep.Name, dep.Status, string(schedule), dep.InputData,
		dep.ExecutionCount, lastExec, formatTime(dep.CreatedAt))
	if err != nil {
		return fmt.Errorf("create deployment %s: %w", dep.ID, err)
	}
	return nil
}

// UpdateDeployment applies a partial update.
func (s *SQLiteStore) UpdateDeployment(ctx context.Context, id string, update DeploymentUpdate) error {
	var sets []string
	var args []any
	if update.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *update.Name)
	}
	if update.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, *update.Status)
	}
	if update.Schedule != nil {
		schedule, err := json.Marshal(*update.Schedule)
		if err != nil {
			return fmt.Errorf("encode schedule for %s: %w", id, err)
		}
		sets, args = append(sets, "schedule = ?"), append(args, string(schedule))
	}
	if update.InputData != nil {
		sets, args = append(sets, "input_data = ?"), append(args, *update.InputData)
	}
	if update.ExecutionCount != nil {
		sets, args = append(sets, "execution_count = ?"), append(args, *update.ExecutionCount)
	}
	if update.LastExecutionAt != nil {
		sets, args = append(sets, "last_execution_at = ?"), append(args, formatTime(*update.LastExecutionAt))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.conn.ExecContext(ctx,
		"UPDATE deployments SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update deployment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateExecutionLog inserts a new execution log row.
func (s *SQLiteStore) CreateExecutionLog(ctx context.Context, log *models.ExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt any
	if log.CompletedAt != nil {
		completedAt = formatTime(*log.CompletedAt)
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO execution_logs
			(id, deployment_id, design_id, execution_id, status, trigger_type,
			 input_data, started_at, completed_at, duration_ms, result, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.DeploymentID, log.DesignID, log.ExecutionID, log.Status,
		log.TriggerType, log.InputData, formatTime(log.StartedAt), completedAt,
		log.DurationMS, log.Result, log.Error)
	if err != nil {
		return fmt.Errorf("create execution log %s: %w", log.ID, err)
	}
	return nil
}

// UpdateExecutionLog applies a partial update.
func (s *SQLiteStore) UpdateExecutionLog(ctx context.Context, id string, update ExecutionLogUpdate) error {
	var sets []string
	var args []any
	if update.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, *update.Status)
	}
	if update.CompletedAt != nil {
		sets, args = append(sets, "completed_at = ?"), append(args, formatTime(*update.CompletedAt))
	}
	if update.DurationMS != nil {
		sets, args = append(sets, "duration_ms = ?"), append(args, *update.DurationMS)
	}
	if update.Result != nil {
		sets, args = append(sets, "result = ?"), append(args, *update.Result)
	}
	if update.Error != nil {
		sets, args = append(sets, "error = ?"), append(args, *update.Error)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.conn.ExecContext(ctx,
		"UPDATE execution_logs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update execution log %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExecutionLogs returns logs newest first, optionally filtered by
// deployment.
func (s *SQLiteStore) ListExecutionLogs(ctx context.Context, deploymentID string, limit int) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, deployment_id, design_id, execution_id, status, trigger_type,
		       input_data, started_at, completed_at, duration_ms, result, error
		FROM execution_logs
	`
	var args []any
	if deploymentID != "" {
		query += " WHERE deployment_id = ?"
		args = append(args, deploymentID)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLogs(ctx, query, args...)
}

// ListRunningExecutionLogs returns every log still in the running state.
func (s *SQLiteStore) ListRunningExecutionLogs(ctx context.Context) ([]*models.ExecutionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLogs(ctx, `
		SELECT id, deployment_id, design_id, execution_id, status, trigger_type,
		       input_data, started_at, completed_at, duration_ms, result, error
		FROM execution_logs WHERE status = ? ORDER BY started_at
	`, models.ExecutionRunning)
}

func (s *SQLiteStore) queryLogs(ctx context.Context, query string, args ...any) ([]*models.ExecutionLog, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution logs: %w", err)
	}
	defer rows.Close()

	var out []*models.ExecutionLog
	for rows.Next() {
		var l models.ExecutionLog
		var deploymentID, inputData, completedAt, result, errMsg sql.NullString
		var startedAt string
		err := rows.Scan(&l.ID, &deploymentID, &l.DesignID, &l.ExecutionID, &l.Status,
			&l.TriggerType, &inputData, &startedAt, &completedAt, &l.DurationMS,
			&result, &errMsg)
		if err != nil {
			return nil, err
		}
		l.DeploymentID = deploymentID.String
		l.InputData = inputData.String
		l.Result = result.String
		l.Error = errMsg.String
		if l.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at for %s: %w", l.ID, err)
		}
		l.CompletedAt = parseNullableTime(completedAt)
		out = append(out, &l)
	}
	return out, rows.Err()
}
