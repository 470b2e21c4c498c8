package calib

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"quicklook/internal/frame"
	"quicklook/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stores with an older schema must be re-imported.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages calibration persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the calibration database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the store.
func (s *Store) Path() string {
	return filepath.Clean(s.path)
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (re-import calibration records)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Put inserts or replaces the record for its (slot, amp) key.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "calib", "put", "", err)
	}

	biasKind := "none"
	var biasScalar float64
	var biasRows, biasCols int
	var biasBlob []byte
	switch {
	case rec.Bias.Frame != nil:
		biasKind = "frame"
		biasRows = rec.Bias.Frame.Rows
		biasCols = rec.Bias.Frame.Cols
		biasBlob = encodeFloats(rec.Bias.Frame.Data)
	case rec.Bias.Scalar != 0:
		biasKind = "scalar"
		biasScalar = rec.Bias.Scalar
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calibration
			(slot, amp, fibers, cols, positions, wavelength, trace,
			 bias_kind, bias_scalar, bias_rows, bias_cols, bias)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slot, amp) DO UPDATE SET
			fibers = excluded.fibers,
			cols = excluded.cols,
			positions = excluded.positions,
			wavelength = excluded.wavelength,
			trace = excluded.trace,
			bias_kind = excluded.bias_kind,
			bias_scalar = excluded.bias_scalar,
			bias_rows = excluded.bias_rows,
			bias_cols = excluded.bias_cols,
			bias = excluded.bias`,
		rec.Slot, rec.Amp, rec.Fibers(), rec.Columns(),
		encodePositions(rec.FiberPositions), encodeMatrix(rec.Wavelength), encodeMatrix(rec.Trace),
		biasKind, biasScalar, biasRows, biasCols, biasBlob,
	)
	if err != nil {
		return fmt.Errorf("put calibration %s%s: %w", rec.Slot, rec.Amp, err)
	}
	return nil
}

// Get returns the record for (slot, amp), or a not-found error.
func (s *Store) Get(ctx context.Context, slot, amp string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT slot, amp, fibers, cols, positions, wavelength, trace,
		       bias_kind, bias_scalar, bias_rows, bias_cols, bias
		FROM calibration WHERE slot = ? AND amp = ?`, slot, amp)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "calib", "get",
			fmt.Sprintf("no calibration record for %s%s", slot, amp), nil)
	}
	return rec, err
}

// Records returns all records, ordered by slot then amplifier. A non-empty
// slot filter restricts the result to that slot; filtering to an unknown slot
// is a not-found error so a typo cannot silently reduce nothing.
func (s *Store) Records(ctx context.Context, slotFilter string) ([]*Record, error) {
	query := `
		SELECT slot, amp, fibers, cols, positions, wavelength, trace,
		       bias_kind, bias_scalar, bias_rows, bias_cols, bias
		FROM calibration`
	args := []any{}
	if slotFilter != "" {
		query += " WHERE slot = ?"
		args = append(args, slotFilter)
	}
	query += " ORDER BY slot, amp"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calibration records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calibration records: %w", err)
	}
	if len(records) == 0 {
		detail := "calibration store is empty"
		if slotFilter != "" {
			detail = fmt.Sprintf("no calibration records for slot %s", slotFilter)
		}
		return nil, services.Wrap(services.ErrNotFound, "calib", "records", detail, nil)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		fibers     int
		cols       int
		positions  []byte
		wavelength []byte
		trace      []byte
		biasKind   string
		biasScalar float64
		biasRows   int
		biasCols   int
		biasBlob   []byte
	)
	if err := row.Scan(&rec.Slot, &rec.Amp, &fibers, &cols, &positions, &wavelength, &trace,
		&biasKind, &biasScalar, &biasRows, &biasCols, &biasBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan calibration record: %w", err)
	}

	var err error
	if rec.FiberPositions, err = decodePositions(positions, fibers); err != nil {
		return nil, fmt.Errorf("record %s%s positions: %w", rec.Slot, rec.Amp, err)
	}
	if rec.Wavelength, err = decodeMatrix(wavelength, fibers, cols); err != nil {
		return nil, fmt.Errorf("record %s%s wavelength: %w", rec.Slot, rec.Amp, err)
	}
	if rec.Trace, err = decodeMatrix(trace, fibers, cols); err != nil {
		return nil, fmt.Errorf("record %s%s trace: %w", rec.Slot, rec.Amp, err)
	}

	switch biasKind {
	case "frame":
		data, err := decodeFloats(biasBlob, biasRows*biasCols)
		if err != nil {
			return nil, fmt.Errorf("record %s%s bias: %w", rec.Slot, rec.Amp, err)
		}
		rec.Bias = Bias{Frame: &frame.Frame{Rows: biasRows, Cols: biasCols, Data: data}}
	case "scalar":
		rec.Bias = Bias{Scalar: biasScalar}
	}

	return &rec, nil
}
