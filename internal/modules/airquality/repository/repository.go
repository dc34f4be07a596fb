package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aqmap-server/internal/modules/airquality/types"
)

//go:embed sql/insert-fetch-run.sql
var insertFetchRunSQL string

//go:embed sql/get-fetch-runs.sql
var getFetchRunsSQL string

//go:embed sql/get-fetch-runs-count.sql
var getFetchRunsCountSQL string

//go:embed sql/get-last-fetch-run.sql
var getLastFetchRunSQL string

// FetchLogRepository keeps one row per refresh attempt. Readings themselves
// are never stored.
type FetchLogRepository interface {
	InsertFetchRun(ctx context.Context, run types.FetchRun) error
	GetFetchRuns(ctx context.Context, limit int) ([]types.FetchRun, error)
	GetFetchRunsCount(ctx context.Context) (int, error)
	// GetLastFetchRun returns nil when no refresh has been logged yet.
	GetLastFetchRun(ctx context.Context) (*types.FetchRun, error)
}

// timestampLayout keeps a fixed number of fractional digits so stored
// timestamps sort lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) FetchLogRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertFetchRun(ctx context.Context, run types.FetchRun) error {
	if run.ID == "" {
		return errors.New("fetch run id is required")
	}
	switch run.Status {
	case types.FetchStatusOK, types.FetchStatusError:
	default:
		return fmt.Errorf("invalid fetch run status %q", run.Status)
	}

	var errVal any
	if run.Error != "" {
		errVal = run.Error
	}

	_, err := r.db.ExecContext(ctx, insertFetchRunSQL,
		run.ID,
		run.StartedAt.UTC().Format(timestampLayout),
		run.FinishedAt.UTC().Format(timestampLayout),
		run.Status,
		run.ReadingCount,
		run.LabelCount,
		run.GoodCount,
		run.MediumCount,
		run.BadCount,
		errVal,
	)
	if err != nil {
		return fmt.Errorf("insert fetch run: %w", err)
	}
	return nil
}

func (r *repositoryImpl) GetFetchRuns(ctx context.Context, limit int) ([]types.FetchRun, error) {
	rows, err := r.db.QueryContext(ctx, getFetchRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close fetch runs rows", "error", err)
		}
	}()
	var out []types.FetchRun
	for rows.Next() {
		run, err := scanFetchRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetFetchRunsCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, getFetchRunsCountSQL).Scan(&n)
	return n, err
}

func (r *repositoryImpl) GetLastFetchRun(ctx context.Context) (*types.FetchRun, error) {
	run, err := scanFetchRun(r.db.QueryRowContext(ctx, getLastFetchRunSQL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFetchRun(s scanner) (types.FetchRun, error) {
	var run types.FetchRun
	var started, finished string
	err := s.Scan(
		&run.ID, &started, &finished, &run.Status,
		&run.ReadingCount, &run.LabelCount,
		&run.GoodCount, &run.MediumCount, &run.BadCount,
		&run.Error,
	)
	if err != nil {
		return types.FetchRun{}, err
	}
	if run.StartedAt, err = parseTimestamp(started); err != nil {
		return types.FetchRun{}, err
	}
	if run.FinishedAt, err = parseTimestamp(finished); err != nil {
		return types.FetchRun{}, err
	}
	return run, nil
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, ts)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
		}
	}
	return t, nil
}
