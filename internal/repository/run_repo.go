package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"data-preparation/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// RunRepository stores processing runs and their per-split row counts.
type RunRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRunRepository connects to the database and applies migrations. dbType is
// "sqlite" (dsn is a file path) or "postgres" (dsn is a URL).
func NewRunRepository(dbType, dsn string, logger *zap.Logger) (*RunRepository, error) {
	driverName := dbType
	if dbType == "sqlite" {
		// foreign keys are off by default in SQLite
		dsn += "?_pragma=foreign_keys(1)"
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == "sqlite" {
		// a single writer avoids SQLITE_BUSY between the API and the processor
		db.SetMaxOpenConns(1)
	}

	repo := &RunRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(dbType); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Run repository initialized", zap.String("db_type", dbType))

	return repo, nil
}

// migrate applies the embedded schema migrations.
func (r *RunRepository) migrate(dbType string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	var driver database.Driver
	switch dbType {
	case "sqlite":
		driver, err = sqlite.WithInstance(r.db.DB, &sqlite.Config{})
	case "postgres":
		driver, err = postgres.WithInstance(r.db.DB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported database type %q", dbType)
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, dbType, driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// CreateRun inserts a new run.
func (r *RunRepository) CreateRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (id, status, datasets, created_at)
		VALUES (:id, :status, :datasets, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// UpdateRun updates run progress and outcome.
func (r *RunRepository) UpdateRun(ctx context.Context, run *models.Run) error {
	query := `
		UPDATE runs
		SET status = :status, total_rows = :total_rows, short_text_rows = :short_text_rows,
		    export_uri = :export_uri, completed_at = :completed_at, error_message = :error_message
		WHERE id = :id
	`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	query := r.db.Rebind(`
		SELECT id, status, datasets, total_rows, short_text_rows, export_uri,
		       created_at, completed_at, error_message
		FROM runs
		WHERE id = ?
	`)

	run := &models.Run{}
	err := r.db.GetContext(ctx, run, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := r.db.Rebind(`
		SELECT id, status, datasets, total_rows, short_text_rows, export_uri,
		       created_at, completed_at, error_message
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`)

	var runs []*models.Run
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return runs, nil
}

// SaveSplitCounts stores the per-group row counts of a run in one transaction.
func (r *RunRepository) SaveSplitCounts(ctx context.Context, counts []models.SplitCount) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO split_counts (run_id, dataset_name, split, label, row_count)
		VALUES (:run_id, :dataset_name, :split, :label, :row_count)
	`
	for _, c := range counts {
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			return fmt.Errorf("failed to save split count: %w", err)
		}
	}
	return tx.Commit()
}

// GetSplitCounts returns the per-group row counts of a run.
func (r *RunRepository) GetSplitCounts(ctx context.Context, runID string) ([]models.SplitCount, error) {
	query := r.db.Rebind(`
		SELECT run_id, dataset_name, split, label, row_count
		FROM split_counts
		WHERE run_id = ?
		ORDER BY dataset_name, split, label
	`)

	var counts []models.SplitCount
	if err := r.db.SelectContext(ctx, &counts, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query split counts: %w", err)
	}
	return counts, nil
}

// Close closes the database connection
func (r *RunRepository) Close() error {
	return r.db.Close()
}
