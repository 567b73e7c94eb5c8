// Package store archives comparison runs in PostgreSQL. Only masked section
// text is persisted; unmasked document content never reaches the database.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/raaihank/doc-sentinel/internal/config"
	"github.com/raaihank/doc-sentinel/internal/report"
)

// Archive handles comparison run persistence.
type Archive struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// RunRecord is one archived comparison run.
type RunRecord struct {
	ID            int64     `db:"id" json:"id"`
	GeneratedAt   time.Time `db:"generated_at" json:"generated_at"`
	DocumentCount int       `db:"document_count" json:"document_count"`
	SectionCount  int       `db:"section_count" json:"section_count"`
	MaskFallback  bool      `db:"mask_fallback" json:"mask_fallback"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// SectionRecord is one archived pair comparison within a run.
type SectionRecord struct {
	ID           int64     `db:"id" json:"id"`
	RunID        int64     `db:"run_id" json:"run_id"`
	NameA        string    `db:"name_a" json:"name_a"`
	NameB        string    `db:"name_b" json:"name_b"`
	HasDiff      bool      `db:"has_diff" json:"has_diff"`
	MaskFallback bool      `db:"mask_fallback" json:"mask_fallback"`
	MaskedText   string    `db:"masked_text" json:"masked_text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ArchiveStats summarizes archive contents.
type ArchiveStats struct {
	TotalRuns     int64      `db:"total_runs" json:"total_runs"`
	TotalSections int64      `db:"total_sections" json:"total_sections"`
	LastRunAt     *time.Time `db:"last_run_at" json:"last_run_at,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS comparison_runs (
	id BIGSERIAL PRIMARY KEY,
	generated_at TIMESTAMPTZ NOT NULL,
	document_count INTEGER NOT NULL,
	section_count INTEGER NOT NULL,
	mask_fallback BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS comparison_sections (
	id BIGSERIAL PRIMARY KEY,
	run_id BIGINT NOT NULL REFERENCES comparison_runs(id) ON DELETE CASCADE,
	name_a TEXT NOT NULL,
	name_b TEXT NOT NULL,
	has_diff BOOLEAN NOT NULL,
	mask_fallback BOOLEAN NOT NULL DEFAULT FALSE,
	masked_text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_comparison_sections_run_id
	ON comparison_sections(run_id);
`

// NewArchive connects to PostgreSQL and ensures the schema exists.
func NewArchive(cfg config.StoreConfig, logger *zap.Logger) (*Archive, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	a := &Archive{db: db, logger: logger}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	logger.Info("Report archive initialized successfully",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return a, nil
}

func (a *Archive) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

// SaveRun archives a finished report and its masked sections. Returns the
// new run's ID.
func (a *Archive) SaveRun(ctx context.Context, r *report.Report, documentCount int) (int64, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO comparison_runs (generated_at, document_count, section_count, mask_fallback)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		r.GeneratedAt, documentCount, len(r.Sections), r.HasMaskFallback(),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	for _, s := range r.Sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comparison_sections (run_id, name_a, name_b, has_diff, mask_fallback, masked_text)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, s.NameA, s.NameB, s.HasDiff, s.MaskFallback, s.MaskedText)
		if err != nil {
			return 0, fmt.Errorf("failed to insert section %s vs %s: %w", s.NameA, s.NameB, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	a.logger.Debug("Comparison run archived",
		zap.Int64("run_id", runID),
		zap.Int("sections", len(r.Sections)))
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunRecord
	err := a.db.SelectContext(ctx, &runs, `
		SELECT id, generated_at, document_count, section_count, mask_fallback, created_at
		FROM comparison_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRunSections returns all sections of one run in insertion order.
func (a *Archive) GetRunSections(ctx context.Context, runID int64) ([]SectionRecord, error) {
	var sections []SectionRecord
	err := a.db.SelectContext(ctx, &sections, `
		SELECT id, run_id, name_a, name_b, has_diff, mask_fallback, masked_text, created_at
		FROM comparison_sections
		WHERE run_id = $1
		ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sections for run %d: %w", runID, err)
	}
	return sections, nil
}

// GetStats returns archive totals.
func (a *Archive) GetStats(ctx context.Context) (*ArchiveStats, error) {
	var stats ArchiveStats
	err := a.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM comparison_runs) AS total_runs,
			(SELECT COUNT(*) FROM comparison_sections) AS total_sections,
			(SELECT MAX(created_at) FROM comparison_runs) AS last_run_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get archive stats: %w", err)
	}
	return &stats, nil
}

// Close releases the database connection pool.
func (a *Archive) Close() error {
	return a.db.Close()
}

// maskDatabaseURL masks the password in a database URL for logging.
func maskDatabaseURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
