package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/itinerary-optimizer/backend/internal/domain"
)

func (r *Repository) CreateOptimizationRun(run *domain.OptimizationRun) error {
	query := `
		INSERT INTO optimization_runs (status, parameters, notify_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if run.Status == "" {
		run.Status = domain.OptimizationRunPending
	}

	args := []any{run.Status, parameters, run.NotifyEmail}
	dst := []any{&run.ID, &run.CreatedAt, &run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

// MarkOptimizationRunRunning 只有处于 pending 状态的运行记录才能开始运行
// 如果记录不存在或已经被其他 worker 领取，返回 sql.ErrNoRows
func (r *Repository) MarkOptimizationRunRunning(run *domain.OptimizationRun) error {
	query := `
		UPDATE optimization_runs
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{domain.OptimizationRunRunning, run.ID, domain.OptimizationRunPending}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return err
	}
	run.Status = domain.OptimizationRunRunning

	return nil
}

func (r *Repository) CompleteOptimizationRun(run *domain.OptimizationRun) error {
	query := `
		UPDATE optimization_runs
		SET status = $1, best = $2, history = $3, error = '', finished_at = NOW(), version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING finished_at, version
	`

	best, err := json.Marshal(run.Best)
	if err != nil {
		return err
	}
	history, err := json.Marshal(run.History)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var finishedAt time.Time
	args := []any{domain.OptimizationRunSucceeded, best, history, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&finishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.OptimizationRunSucceeded
	run.Error = ""
	run.FinishedAt = &finishedAt

	return nil
}

func (r *Repository) FailOptimizationRun(run *domain.OptimizationRun, reason string) error {
	query := `
		UPDATE optimization_runs
		SET status = $1, error = $2, finished_at = NOW(), version = version + 1
		WHERE id = $3
		RETURNING finished_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var finishedAt time.Time
	args := []any{domain.OptimizationRunFailed, reason, run.ID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&finishedAt, &run.Version); err != nil {
		return err
	}
	run.Status = domain.OptimizationRunFailed
	run.Error = reason
	run.FinishedAt = &finishedAt

	return nil
}

func (r *Repository) GetOptimizationRun(id int64) (*domain.OptimizationRun, error) {
	query := `
		SELECT id, status, parameters, best, history, error, notify_email, created_at, finished_at, version
		FROM optimization_runs WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanOptimizationRun(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetAllOptimizationRuns 返回所有运行记录，不包含最优行程和历史，避免响应过大
func (r *Repository) GetAllOptimizationRuns() ([]*domain.OptimizationRun, error) {
	query := `
		SELECT id, status, parameters, NULL::jsonb, NULL::jsonb, error, notify_email, created_at, finished_at, version
		FROM optimization_runs ORDER BY id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*domain.OptimizationRun{}
	for rows.Next() {
		run, err := scanOptimizationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOptimizationRun(row rowScanner) (*domain.OptimizationRun, error) {
	var (
		run        domain.OptimizationRun
		parameters []byte
		best       []byte
		history    []byte
		finishedAt sql.NullTime
	)

	dst := []any{&run.ID, &run.Status, &parameters, &best, &history, &run.Error, &run.NotifyEmail, &run.CreatedAt, &finishedAt, &run.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	// best 和 history 在运行完成之前为 NULL
	if len(best) > 0 {
		if err := json.Unmarshal(best, &run.Best); err != nil {
			return nil, err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &run.History); err != nil {
			return nil, err
		}
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}
