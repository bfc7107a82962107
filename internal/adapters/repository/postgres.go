package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

const (
	postgresStoreName   = "postgres"
	defaultQueryTimeout = 10 * time.Second
	uniqueViolation     = "23505"
)

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS projections (
	seq             BIGSERIAL,
	period          INTEGER          NOT NULL,
	model_version   TEXT             NOT NULL,
	athlete_id      INTEGER          NOT NULL,
	role            SMALLINT         NOT NULL,
	expected_points DOUBLE PRECISION NOT NULL,
	points_per_90   DOUBLE PRECISION NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	heuristic       BOOLEAN          NOT NULL,
	fixture_count   INTEGER          NOT NULL,
	generated_at    TIMESTAMPTZ      NOT NULL,
	PRIMARY KEY (period, model_version, athlete_id)
);
CREATE TABLE IF NOT EXISTS recommendations (
	id            TEXT PRIMARY KEY,
	manager_id    INTEGER          NOT NULL,
	period        INTEGER          NOT NULL,
	model_version TEXT             NOT NULL,
	strategy      TEXT             NOT NULL,
	net_gain      DOUBLE PRECISION NOT NULL,
	payload       JSONB            NOT NULL,
	created_at    TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS recommendations_manager_period ON recommendations (manager_id, period);
CREATE TABLE IF NOT EXISTS validation_runs (
	run_id        TEXT PRIMARY KEY,
	period        INTEGER     NOT NULL,
	model_version TEXT        NOT NULL,
	payload       JSONB       NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS validation_records (
	run_id        TEXT             NOT NULL REFERENCES validation_runs (run_id),
	athlete_id    INTEGER          NOT NULL,
	period        INTEGER          NOT NULL,
	model_version TEXT             NOT NULL,
	predicted     DOUBLE PRECISION NOT NULL,
	realized      DOUBLE PRECISION NOT NULL,
	abs_error     DOUBLE PRECISION NOT NULL,
	sq_error      DOUBLE PRECISION NOT NULL,
	played        BOOLEAN          NOT NULL,
	missing       BOOLEAN          NOT NULL
);`

const (
	insertProjection = `
		INSERT INTO projections (period, model_version, athlete_id, role, expected_points,
			points_per_90, confidence, heuristic, fixture_count, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (period, model_version, athlete_id) DO NOTHING`

	selectProjections = `
		SELECT period, model_version, athlete_id, role, expected_points, points_per_90,
			confidence, heuristic, fixture_count, generated_at
		FROM projections
		WHERE period = $1 AND model_version = $2
		ORDER BY athlete_id`

	selectLatestVersion = `
		SELECT model_version FROM projections
		WHERE period = $1
		ORDER BY seq DESC
		LIMIT 1`

	insertRecommendation = `
		INSERT INTO recommendations (id, manager_id, period, model_version, strategy, net_gain, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectRecommendation = `SELECT payload FROM recommendations WHERE id = $1`

	selectRecommendations = `
		SELECT payload FROM recommendations
		WHERE manager_id = $1 AND period = $2
		ORDER BY created_at, id`

	insertValidationRun = `
		INSERT INTO validation_runs (run_id, period, model_version, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	insertValidationRecord = `
		INSERT INTO validation_records (run_id, athlete_id, period, model_version, predicted,
			realized, abs_error, sq_error, played, missing)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectValidations = `
		SELECT payload FROM validation_runs
		WHERE period = $1
		ORDER BY created_at, run_id`
)

type projectionRow struct {
	Period         int       `db:"period"`
	ModelVersion   string    `db:"model_version"`
	AthleteID      int       `db:"athlete_id"`
	Role           int       `db:"role"`
	ExpectedPoints float64   `db:"expected_points"`
	PointsPer90    float64   `db:"points_per_90"`
	Confidence     float64   `db:"confidence"`
	Heuristic      bool      `db:"heuristic"`
	FixtureCount   int       `db:"fixture_count"`
	GeneratedAt    time.Time `db:"generated_at"`
}

func (r projectionRow) projection() model.Projection {
	return model.Projection{
		AthleteID:      r.AthleteID,
		Period:         r.Period,
		ModelVersion:   r.ModelVersion,
		Role:           model.Role(r.Role),
		ExpectedPoints: r.ExpectedPoints,
		PointsPer90:    r.PointsPer90,
		Confidence:     r.Confidence,
		Heuristic:      r.Heuristic,
		FixtureCount:   r.FixtureCount,
		GeneratedAt:    r.GeneratedAt,
	}
}

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithQueryTimeout bounds every statement.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects to dsn, checks the connection and applies Schema.
func OpenPostgres(ctx context.Context, dsn string, pool PoolConfig, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewPostgresStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an open database.
func NewPostgresStore(db *sqlx.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultQueryTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates missing tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveProjections implements Store.
func (s *PostgresStore) SaveProjections(ctx context.Context, projections []model.Projection) error {
	if len(projections) == 0 {
		return nil
	}
	defer observe(postgresStoreName, "save_projections", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertProjection)
	if err != nil {
		return fmt.Errorf("prepare projection insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range projections {
		if _, err := stmt.ExecContext(ctx, p.Period, p.ModelVersion, p.AthleteID, int(p.Role),
			p.ExpectedPoints, p.PointsPer90, p.Confidence, p.Heuristic, p.FixtureCount, p.GeneratedAt); err != nil {
			return fmt.Errorf("insert projection %d: %w", p.AthleteID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Projections implements Store.
func (s *PostgresStore) Projections(ctx context.Context, period int, version string) ([]model.Projection, error) {
	defer observe(postgresStoreName, "projections", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if version == "" {
		err := s.db.GetContext(ctx, &version, selectLatestVersion, period)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("latest version for period %d: %w", period, err)
		}
	}
	var rows []projectionRow
	if err := s.db.SelectContext(ctx, &rows, selectProjections, period, version); err != nil {
		return nil, fmt.Errorf("select projections: %w", err)
	}
	out := make([]model.Projection, len(rows))
	for i, r := range rows {
		out[i] = r.projection()
	}
	return out, nil
}

// SaveRecommendation implements Store.
func (s *PostgresStore) SaveRecommendation(ctx context.Context, rec model.Recommendation) error {
	defer observe(postgresStoreName, "save_recommendation", time.Now())
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, insertRecommendation,
		rec.ID, rec.ManagerID, rec.Period, rec.ModelVersion, rec.Strategy, rec.NetGain, payload, rec.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("recommendation %s: %w", rec.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// Recommendation implements Store.
func (s *PostgresStore) Recommendation(ctx context.Context, id string) (model.Recommendation, error) {
	defer observe(postgresStoreName, "recommendation", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var payload []byte
	err := s.db.GetContext(ctx, &payload, selectRecommendation, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recommendation{}, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("select recommendation: %w", err)
	}
	var rec model.Recommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		return model.Recommendation{}, fmt.Errorf("decode recommendation %s: %w", id, err)
	}
	return rec, nil
}

// Recommendations implements Store.
func (s *PostgresStore) Recommendations(ctx context.Context, managerID, period int) ([]model.Recommendation, error) {
	defer observe(postgresStoreName, "recommendations", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var payloads [][]byte
	if err := s.db.SelectContext(ctx, &payloads, selectRecommendations, managerID, period); err != nil {
		return nil, fmt.Errorf("select recommendations: %w", err)
	}
	return decodeAll[model.Recommendation](payloads)
}

// SaveValidation implements Store.
func (s *PostgresStore) SaveValidation(ctx context.Context, summary model.ValidationSummary, records []model.ValidationRecord) error {
	defer observe(postgresStoreName, "save_validation", time.Now())
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal validation: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertValidationRun,
		summary.RunID, summary.Period, summary.ModelVersion, payload, summary.CreatedAt); err != nil {
		return fmt.Errorf("insert validation run: %w", err)
	}
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, insertValidationRecord, summary.RunID, r.AthleteID, r.Period,
			r.ModelVersion, r.Predicted, r.Realized, r.AbsError, r.SqError, r.Played, r.Missing); err != nil {
			return fmt.Errorf("insert validation record %d: %w", r.AthleteID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Validations implements Store.
func (s *PostgresStore) Validations(ctx context.Context, period int) ([]model.ValidationSummary, error) {
	defer observe(postgresStoreName, "validations", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var payloads [][]byte
	if err := s.db.SelectContext(ctx, &payloads, selectValidations, period); err != nil {
		return nil, fmt.Errorf("select validations: %w", err)
	}
	return decodeAll[model.ValidationSummary](payloads)
}

// Close implements Store.
func (s *PostgresStore) Close() error { return s.db.Close() }

func decodeAll[T any](payloads [][]byte) ([]T, error) {
	out := make([]T, 0, len(payloads))
	for _, p := range payloads {
		var v T
		if err := json.Unmarshal(p, &v); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
