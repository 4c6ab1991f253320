package repo

import (
	"context"
	"errors"
	"time"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EngineJobRepo interface {
	Create(ctx context.Context, tx *gorm.DB, jobs []*model.EngineJob) ([]*model.EngineJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.EngineJob, error)
	ClaimNextRunnable(ctx context.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*model.EngineJob, error)
	MarkComplete(ctx context.Context, id uuid.UUID, runID uint) error
	MarkFailed(ctx context.Context, id uuid.UUID, status model.JobStatus, msg string) error
	Heartbeat(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[model.JobStatus]int64, error)
}

type engineJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEngineJobRepo(db *gorm.DB, baseLog *logger.Logger) EngineJobRepo {
	return &engineJobRepo{
		db:  db,
		log: baseLog.With("repo", "EngineJobRepo"),
	}
}

func (r *engineJobRepo) Create(ctx context.Context, tx *gorm.DB, jobs []*model.EngineJob) ([]*model.EngineJob, error) {
	if len(jobs) == 0 {
		return []*model.EngineJob{}, nil
	}
	if err := pick(ctx, r.db, tx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *engineJobRepo) Get(ctx context.Context, id uuid.UUID) (*model.EngineJob, error) {
	var job model.EngineJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimNextRunnable picks the oldest queued job, a failed job due for retry, or a running
// job whose heartbeat went stale, and marks it running. It returns nil, nil when there is
// nothing to do. The status-guarded update makes the claim exclusive even where row locks
// are unavailable.
func (r *engineJobRepo) ClaimNextRunnable(ctx context.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*model.EngineJob, error) {
	now := time.Now().UTC()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)

	var claimed *model.EngineJob
	err := r.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		q := txx
		if txx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var job model.EngineJob
		qErr := q.Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, model.JobQueued, model.JobFailed, maxAttempts, retryCutoff, model.JobRunning, staleCutoff).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}

		res := txx.Model(&model.EngineJob{}).
			Where("id = ? AND status = ? AND attempts = ?", job.ID, job.Status, job.Attempts).
			Updates(map[string]interface{}{
				"status":       model.JobRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		job.Status = model.JobRunning
		job.Attempts++
		job.LockedAt = &now
		job.HeartbeatAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *engineJobRepo) MarkComplete(ctx context.Context, id uuid.UUID, runID uint) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        model.JobComplete,
		"result_run_id": runID,
		"last_error":    "",
	})
}

// MarkFailed records msg; status is JobFailed for retryable errors or JobRejected for
// errors a retry cannot fix.
func (r *engineJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, status model.JobStatus, msg string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        status,
		"last_error":    msg,
		"last_error_at": time.Now().UTC(),
	})
}

func (r *engineJobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"heartbeat_at": time.Now().UTC()})
}

func (r *engineJobRepo) CountByStatus(ctx context.Context) (map[model.JobStatus]int64, error) {
	var rows []struct {
		Status model.JobStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&model.EngineJob{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.JobStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *engineJobRepo) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&model.EngineJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}
