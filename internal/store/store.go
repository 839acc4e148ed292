// Package store persists scored observations for the chart commands and servers.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/scorechart/internal/contract"
	"github.com/huangsam/scorechart/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// observationsTable holds one row per scored field of an observation.
const observationsTable = "scorechart_observations"

// SQLStore handles durable observation storage using various database backends.
type SQLStore struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	now     func() time.Time
}

var _ contract.ObservationStore = &SQLStore{} // Compile-time check

// NewObservationStore opens the backend and ensures the observations table exists.
func NewObservationStore(backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	if backend == schema.NoneBackend {
		return &SQLStore{backend: backend, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	for _, query := range getCreateStatements(backend) {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", observationsTable, err)
		}
	}

	return &SQLStore{db: db, backend: backend, connStr: connStr, now: time.Now}, nil
}

// openDB opens a handle for the backend without verifying the connection.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		// connStr should be: user:password@tcp(host:port)/dbname
		db, err := sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		// connStr should be: host=localhost port=5432 user=postgres password=secret dbname=scorechart
		db, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}
}

// getCreateStatements returns the DDL for the observations table and its index.
func getCreateStatements(backend schema.DatabaseBackend) []string {
	table := quoteTableName(observationsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				patient_id VARCHAR(255) NOT NULL,
				instrument VARCHAR(64) NOT NULL,
				field_key VARCHAR(64) NOT NULL,
				score DOUBLE NULL,
				recorded_at BIGINT NOT NULL,
				source VARCHAR(64) NOT NULL DEFAULT '',
				meaning VARCHAR(512) NOT NULL DEFAULT '',
				cutoffs TEXT NULL,
				created_at BIGINT NOT NULL,
				UNIQUE KEY uq_observation (patient_id, instrument, field_key, recorded_at, source),
				INDEX idx_observation_lookup (patient_id, instrument, recorded_at)
			);
		`, table)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				patient_id TEXT NOT NULL,
				instrument TEXT NOT NULL,
				field_key TEXT NOT NULL,
				score DOUBLE PRECISION NULL,
				recorded_at BIGINT NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				meaning TEXT NOT NULL DEFAULT '',
				cutoffs TEXT NULL,
				created_at BIGINT NOT NULL,
				UNIQUE (patient_id, instrument, field_key, recorded_at, source)
			);
		`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_observation_lookup ON %s (patient_id, instrument, recorded_at)`, table),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				patient_id TEXT NOT NULL,
				instrument TEXT NOT NULL,
				field_key TEXT NOT NULL,
				score REAL NULL,
				recorded_at INTEGER NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				meaning TEXT NOT NULL DEFAULT '',
				cutoffs TEXT NULL,
				created_at INTEGER NOT NULL,
				UNIQUE (patient_id, instrument, field_key, recorded_at, source)
			);
		`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_observation_lookup ON %s (patient_id, instrument, recorded_at)`, table),
		}
	}
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// getPlaceholder returns the n-th (1-based) parameter placeholder for the backend.
func getPlaceholder(backend schema.DatabaseBackend, n int) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("$%d", n)
	default: // SQLite and MySQL
		return "?"
	}
}

// getUpsertQuery returns the UPSERT query for the backend.
func getUpsertQuery(backend schema.DatabaseBackend) string {
	table := quoteTableName(observationsTable, backend)
	columns := "patient_id, instrument, field_key, score, recorded_at, source, meaning, cutoffs, created_at"
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE score = new.score, meaning = new.meaning, cutoffs = new.cutoffs, created_at = new.created_at`, table, columns)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (patient_id, instrument, field_key, recorded_at, source) DO UPDATE SET score = EXCLUDED.score, meaning = EXCLUDED.meaning, cutoffs = EXCLUDED.cutoffs, created_at = EXCLUDED.created_at`, table, columns)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table, columns)
	}
}

// Record upserts one row per field of each point inside a single transaction.
func (s *SQLStore) Record(ctx context.Context, patientID, instrument string, points []schema.DataPoint) (int, error) {
	if s.backend == schema.NoneBackend || s.db == nil {
		return 0, nil
	}
	if patientID == "" || instrument == "" {
		return 0, errors.New("patient and instrument are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, getUpsertQuery(s.backend))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	createdAt := s.now().UnixMilli()
	written := 0
	for _, p := range points {
		cutoffs, err := encodeCutoffs(p.SeverityCutoffs)
		if err != nil {
			return 0, err
		}
		// Sorted keys keep the write order stable across runs.
		keys := make([]string, 0, len(p.Values))
		for k := range p.Values {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, key := range keys {
			var score sql.NullFloat64
			if v := p.Values[key]; schema.IsScored(v) {
				score = sql.NullFloat64{Float64: *v, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, patientID, instrument, key, score, p.Timestamp, p.Source, p.Meaning, cutoffs, createdAt); err != nil {
				return 0, fmt.Errorf("failed to record %s for %s: %w", key, instrument, err)
			}
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit observations: %w", err)
	}
	return written, nil
}

// Points returns the stored observations for one instrument, regrouped into
// multi-field points and ordered by time.
func (s *SQLStore) Points(ctx context.Context, patientID, instrument string) ([]schema.DataPoint, error) {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT field_key, score, recorded_at, source, meaning, cutoffs FROM %s
		WHERE patient_id = %s AND instrument = %s
		ORDER BY recorded_at, source, meaning, field_key`,
		quoteTableName(observationsTable, s.backend), getPlaceholder(s.backend, 1), getPlaceholder(s.backend, 2))

	rows, err := s.db.QueryContext(ctx, query, patientID, instrument)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []schema.DataPoint
	for rows.Next() {
		var (
			key      string
			score    sql.NullFloat64
			recorded int64
			source   string
			meaning  string
			cutoffs  sql.NullString
		)
		if err := rows.Scan(&key, &score, &recorded, &source, &meaning, &cutoffs); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		var value *float64
		if score.Valid {
			value = schema.Float(score.Float64)
		}

		if n := len(points); n > 0 && samePoint(points[n-1], recorded, source, meaning) {
			points[n-1].Values[key] = value
			continue
		}
		points = append(points, schema.DataPoint{
			Timestamp:       recorded,
			Values:          map[string]*float64{key: value},
			Source:          source,
			Meaning:         meaning,
			SeverityCutoffs: decodeCutoffs(cutoffs),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	return points, nil
}

func samePoint(p schema.DataPoint, recorded int64, source, meaning string) bool {
	return p.Timestamp == recorded && p.Source == source && p.Meaning == meaning
}

// Instruments lists the distinct instruments recorded for a patient.
func (s *SQLStore) Instruments(ctx context.Context, patientID string) ([]string, error) {
	if s.backend == schema.NoneBackend || s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT DISTINCT instrument FROM %s WHERE patient_id = %s ORDER BY instrument`,
		quoteTableName(observationsTable, s.backend), getPlaceholder(s.backend, 1))
	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetStatus returns status information about the observation store.
func (s *SQLStore) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}

	if s.backend == schema.NoneBackend || s.db == nil {
		return status, nil
	}

	table := quoteTableName(observationsTable, s.backend)

	row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT patient_id) FROM %s", table))
	if err := row.Scan(&status.TotalRows, &status.Patients); err != nil {
		return status, fmt.Errorf("failed to get total rows: %w", err)
	}

	if status.TotalRows > 0 {
		var oldest, latest int64
		row = s.db.QueryRow(fmt.Sprintf("SELECT MIN(recorded_at), MAX(recorded_at) FROM %s", table))
		if err := row.Scan(&oldest, &latest); err != nil {
			return status, fmt.Errorf("failed to get recorded range: %w", err)
		}
		status.OldestRecorded = time.UnixMilli(oldest).UTC()
		status.LatestRecorded = time.UnixMilli(latest).UTC()
	}

	status.TableSizeBytes = s.tableSize(status.TotalRows)

	// The migrations table only exists once the migrate command has run.
	var dirty bool
	var version int64
	if err := s.db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty); err == nil {
		status.SchemaVersion = uint(version)
		status.SchemaIsDirty = dirty
	}

	return status, nil
}

// tableSize asks the backend for the table size, falling back to a rough estimate.
func (s *SQLStore) tableSize(totalRows int) int64 {
	estimate := int64(totalRows) * 200
	var size int64

	switch s.backend {
	case schema.SQLiteBackend:
		row := s.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
		return size

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(s.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row := s.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, observationsTable)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
		return size

	case schema.PostgreSQLBackend:
		row := s.db.QueryRow("SELECT pg_total_relation_size($1)", observationsTable)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
		return size

	default:
		return estimate
	}
}

func encodeCutoffs(c *schema.SeverityCutoffs) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode severity cutoffs: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeCutoffs(raw sql.NullString) *schema.SeverityCutoffs {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var c schema.SeverityCutoffs
	if err := json.Unmarshal([]byte(raw.String), &c); err != nil {
		return nil
	}
	return &c
}
