package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"finamqa/internal/config"
	"finamqa/pkg/bench"
)

// Archive persists completed runs and their predictions to Postgres so runs
// can be compared across models and seeds. It is optional; callers skip it
// when no DSN is configured.
type Archive struct {
	conn sqlx.SqlConn
}

// New opens a Postgres-backed archive using the pgx stdlib driver.
func New(cfg config.PostgresConf) (*Archive, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("archive: postgres dsn is empty")
	}
	conn := sqlx.NewSqlConn("pgx", cfg.DSN)
	if db, err := conn.RawDB(); err == nil {
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	return &Archive{conn: conn}, nil
}

// EnsureSchema creates the archive tables when absent.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			model TEXT NOT NULL,
			prompt_digest TEXT NOT NULL DEFAULT '',
			seed BIGINT NOT NULL,
			examples INT NOT NULL,
			cases INT NOT NULL,
			unknown INT NOT NULL,
			cost_usd DOUBLE PRECISION NOT NULL,
			duration_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			run_id BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			case_id INT NOT NULL,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			raw_response TEXT NOT NULL DEFAULT '',
			cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			cached BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (run_id, case_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := a.conn.ExecCtx(ctx, stmt); err != nil {
			return fmt.Errorf("archive: ensure schema: %w", err)
		}
	}
	return nil
}

// RunRow mirrors a row of the runs table.
type RunRow struct {
	ID           int64     `db:"id"`
	StartedAt    time.Time `db:"started_at"`
	Model        string    `db:"model"`
	PromptDigest string    `db:"prompt_digest"`
	Seed         int64     `db:"seed"`
	Examples     int       `db:"examples"`
	Cases        int       `db:"cases"`
	Unknown      int       `db:"unknown"`
	CostUSD      float64   `db:"cost_usd"`
	DurationMS   int64     `db:"duration_ms"`
}

// SaveRun stores a run summary plus its predictions and returns the run id.
func (a *Archive) SaveRun(ctx context.Context, startedAt time.Time, promptDigest string, seed int64, result *bench.RunResult) (int64, error) {
	const insertRun = `INSERT INTO runs
		(started_at, model, prompt_digest, seed, examples, cases, unknown, cost_usd, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`

	var runID int64
	err := a.conn.QueryRowCtx(ctx, &runID, insertRun,
		startedAt, result.Model, promptDigest, seed,
		result.Examples, len(result.Predictions), result.Unknown,
		result.TotalCost, result.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("archive: insert run: %w", err)
	}

	const insertPred = `INSERT INTO predictions
		(run_id, case_id, method, path, raw_response, cost_usd, cached)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, p := range result.Predictions {
		if _, err := a.conn.ExecCtx(ctx, insertPred,
			runID, p.ID, p.Method, p.Path, p.RawResponse, p.Cost, p.Cached,
		); err != nil {
			return 0, fmt.Errorf("archive: insert prediction %d: %w", p.ID, err)
		}
	}

	logx.Infow("run archived",
		logx.Field("run_id", runID),
		logx.Field("predictions", len(result.Predictions)),
	)
	return runID, nil
}

// RecentRuns lists the latest run summaries, newest first.
func (a *Archive) RecentRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, started_at, model, prompt_digest, seed, examples, cases, unknown, cost_usd, duration_ms
		FROM runs ORDER BY id DESC LIMIT $1`
	var rows []RunRow
	if err := a.conn.QueryRowsCtx(ctx, &rows, q, limit); err != nil {
		if err == sqlx.ErrNotFound || err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	return rows, nil
}
