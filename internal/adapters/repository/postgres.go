package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/vigil/internal/domain/engine"
)

const (
	defaultTable        = "row_results"
	defaultQueryTimeout = 10 * time.Second
)

// resultRow is the row_results table layout. Scores and codes are flattened
// for reporting; the full result is kept as JSON.
type resultRow struct {
	RecordID      string          `db:"record_id"`
	BatchID       string          `db:"batch_id"`
	RowIndex      int             `db:"row_index"`
	GroupName     string          `db:"group_name"`
	Target        string          `db:"target"`
	StatCode      sql.NullString  `db:"stat_code"`
	StatScore     sql.NullFloat64 `db:"stat_score"`
	MLCode        sql.NullString  `db:"ml_code"`
	MLScore       sql.NullFloat64 `db:"ml_score"`
	Reliability   sql.NullFloat64 `db:"reliability"`
	Replace       sql.NullBool    `db:"replace"`
	ActionCode    sql.NullString  `db:"action_code"`
	CombinedScore sql.NullFloat64 `db:"combined_score"`
	Result        []byte          `db:"result"`
	Error         string          `db:"error"`
	ErrorKind     string          `db:"error_kind"`
	CreatedAt     time.Time       `db:"created_at"`
}

func toRow(rec Record) (resultRow, error) {
	body, err := json.Marshal(rec.Result)
	if err != nil {
		return resultRow{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	r := rec.Result
	row := resultRow{
		RecordID:  rec.RecordID,
		BatchID:   rec.BatchID,
		RowIndex:  rec.Index,
		GroupName: r.Group,
		Target:    r.Target,
		Result:    body,
		Error:     rec.Error,
		ErrorKind: rec.ErrorKind,
		CreatedAt: rec.CreatedAt,
	}
	if r.Statistical != nil {
		row.StatCode = sql.NullString{String: r.Statistical.Code, Valid: true}
		row.StatScore = sql.NullFloat64{Float64: r.Statistical.WeightScore, Valid: true}
	}
	if r.ML != nil {
		row.MLCode = sql.NullString{String: r.ML.Code, Valid: true}
		row.MLScore = sql.NullFloat64{Float64: r.ML.WeightScore, Valid: true}
	}
	if r.Consensus != nil {
		row.Reliability = sql.NullFloat64{Float64: r.Consensus.PerformanceReliability, Valid: true}
	}
	if r.Recommendation != nil {
		row.Replace = sql.NullBool{Bool: r.Recommendation.Replace, Valid: true}
		row.ActionCode = sql.NullString{String: r.Recommendation.ActionCode, Valid: true}
	}
	if r.CombinedScore != nil {
		row.CombinedScore = sql.NullFloat64{Float64: *r.CombinedScore, Valid: true}
	}
	return row, nil
}

func (row resultRow) record() (Record, error) {
	rec := Record{
		BatchID:   row.BatchID,
		RecordID:  row.RecordID,
		Index:     row.RowIndex,
		Error:     row.Error,
		ErrorKind: row.ErrorKind,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Result) > 0 {
		var res engine.RowResult
		if err := json.Unmarshal(row.Result, &res); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal result of %s: %w", row.RecordID, err)
		}
		rec.Result = res
	}
	return rec, nil
}

// PostgresStore persists records in a PostgreSQL table.
type PostgresStore struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, table: defaultTable, timeout: defaultQueryTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects with dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresStore(db, opts...), nil
}

// Migrate creates the results table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			record_id      TEXT PRIMARY KEY,
			batch_id       TEXT NOT NULL,
			row_index      INTEGER NOT NULL,
			group_name     TEXT NOT NULL DEFAULT '',
			target         TEXT NOT NULL DEFAULT '',
			stat_code      TEXT,
			stat_score     DOUBLE PRECISION,
			ml_code        TEXT,
			ml_score       DOUBLE PRECISION,
			reliability    DOUBLE PRECISION,
			replace        BOOLEAN,
			action_code    TEXT,
			combined_score DOUBLE PRECISION,
			result         JSONB,
			error          TEXT NOT NULL DEFAULT '',
			error_kind     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL
		)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

// Save implements Store.Save as an upsert on record_id.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if rec.RecordID == "" {
		return ErrInvalidRecord
	}
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (record_id, batch_id, row_index, group_name, target, stat_code, stat_score,
			ml_code, ml_score, reliability, replace, action_code, combined_score, result, error, error_kind, created_at)
		VALUES (:record_id, :batch_id, :row_index, :group_name, :target, :stat_code, :stat_score,
			:ml_code, :ml_score, :reliability, :replace, :action_code, :combined_score, :result, :error, :error_kind, :created_at)
		ON CONFLICT (record_id) DO UPDATE SET
			batch_id = EXCLUDED.batch_id, row_index = EXCLUDED.row_index, group_name = EXCLUDED.group_name,
			target = EXCLUDED.target, stat_code = EXCLUDED.stat_code, stat_score = EXCLUDED.stat_score,
			ml_code = EXCLUDED.ml_code, ml_score = EXCLUDED.ml_score, reliability = EXCLUDED.reliability,
			replace = EXCLUDED.replace, action_code = EXCLUDED.action_code, combined_score = EXCLUDED.combined_score,
			result = EXCLUDED.result, error = EXCLUDED.error, error_kind = EXCLUDED.error_kind,
			created_at = EXCLUDED.created_at`, s.table)
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.RecordID, err)
	}
	return nil
}

// SaveBatch upserts records in one transaction.
func (s *PostgresStore) SaveBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout*time.Duration(len(recs)/100+1))
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (record_id, batch_id, row_index, group_name, target, stat_code, stat_score,
			ml_code, ml_score, reliability, replace, action_code, combined_score, result, error, error_kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (record_id) DO NOTHING`, s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		row, err := toRow(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			row.RecordID, row.BatchID, row.RowIndex, row.GroupName, row.Target, row.StatCode, row.StatScore,
			row.MLCode, row.MLScore, row.Reliability, row.Replace, row.ActionCode, row.CombinedScore,
			row.Result, row.Error, row.ErrorKind, row.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.RecordID, err)
		}
	}
	return tx.Commit()
}

// Get implements Store.Get.
func (s *PostgresStore) Get(ctx context.Context, recordID string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row resultRow
	query := fmt.Sprintf(`SELECT * FROM %s WHERE record_id = $1`, s.table)
	if err := s.db.GetContext(ctx, &row, query, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to get record %s: %w", recordID, err)
	}
	return row.record()
}

// ListBatch implements Store.ListBatch.
func (s *PostgresStore) ListBatch(ctx context.Context, batchID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []resultRow
	query := fmt.Sprintf(`SELECT * FROM %s WHERE batch_id = $1 ORDER BY row_index, record_id`, s.table)
	if err := s.db.SelectContext(ctx, &rows, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to list batch %s: %w", batchID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count implements Store.Count. Query failures count as zero.
func (s *PostgresStore) Count(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int
	if err := s.db.GetContext(ctx, &n, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)); err != nil {
		return 0
	}
	return n
}

// Close closes the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
