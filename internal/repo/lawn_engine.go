package repo

import (
	"context"
	"errors"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LawnEngineRepo interface {
	ReplaceForYear(ctx context.Context, tx *gorm.DB, run *model.LawnEngine) error
	LatestByLawn(ctx context.Context, tx *gorm.DB, lawnID uint) (*model.LawnEngine, error)
	HasCompletedBefore(ctx context.Context, tx *gorm.DB, lawnID uint, year int) (bool, error)
	DeleteByLawn(ctx context.Context, tx *gorm.DB, lawnID uint) (int64, error)
}

type lawnEngineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLawnEngineRepo(db *gorm.DB, baseLog *logger.Logger) LawnEngineRepo {
	return &lawnEngineRepo{
		db:  db,
		log: baseLog.With("repo", "LawnEngineRepo"),
	}
}

// ReplaceForYear removes any run of the same lawn and subscription year, then inserts run
// with its children in slice order. Callers pass a transaction to make the swap atomic;
// the lawn row is locked first so writers in other processes queue behind it.
func (r *lawnEngineRepo) ReplaceForYear(ctx context.Context, tx *gorm.DB, run *model.LawnEngine) error {
	q := pick(ctx, r.db, tx)

	// sqlite has no row locks; its writes are serialized by the database lock
	if q.Dialector.Name() != "sqlite" {
		var lawn model.Lawn
		if err := q.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", run.LawnID).
			Take(&lawn).Error; err != nil {
			return err
		}
	}

	var ids []uint
	if err := q.Model(&model.LawnEngine{}).
		Where("lawn_id = ? AND subscription_year = ?", run.LawnID, run.SubscriptionYear).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if err := deleteRuns(q, ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		r.log.Debug("replaced lawn engine run", "lawn_id", run.LawnID, "year", run.SubscriptionYear, "old_ids", ids)
	}
	return q.Create(run).Error
}

func (r *lawnEngineRepo) LatestByLawn(ctx context.Context, tx *gorm.DB, lawnID uint) (*model.LawnEngine, error) {
	var run model.LawnEngine
	err := pick(ctx, r.db, tx).
		Preload("GrassPotential", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("DateAndPouches", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("lawn_id = ?", lawnID).
		Order("subscription_year DESC").
		Order("id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *lawnEngineRepo) HasCompletedBefore(ctx context.Context, tx *gorm.DB, lawnID uint, year int) (bool, error) {
	var n int64
	err := pick(ctx, r.db, tx).Model(&model.LawnEngine{}).
		Where("lawn_id = ? AND subscription_year < ? AND task_status = ?", lawnID, year, model.TaskStatusComplete).
		Count(&n).Error
	return n > 0, err
}

// DeleteByLawn hard-deletes every run of a lawn and returns how many runs were removed.
func (r *lawnEngineRepo) DeleteByLawn(ctx context.Context, tx *gorm.DB, lawnID uint) (int64, error) {
	var removed int64
	err := pick(ctx, r.db, tx).Transaction(func(txx *gorm.DB) error {
		var ids []uint
		if err := txx.Model(&model.LawnEngine{}).Where("lawn_id = ?", lawnID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		removed = int64(len(ids))
		return deleteRuns(txx, ids)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// deleteRuns removes children explicitly so it does not depend on the driver enforcing
// foreign keys.
func deleteRuns(q *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := q.Where("lawn_engine_id IN ?", ids).Delete(&model.GrassPotential{}).Error; err != nil {
		return err
	}
	if err := q.Where("lawn_engine_id IN ?", ids).Delete(&model.DateAndPouches{}).Error; err != nil {
		return err
	}
	return q.Where("id IN ?", ids).Delete(&model.LawnEngine{}).Error
}
