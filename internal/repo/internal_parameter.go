package repo

import (
	"context"
	"errors"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"

	"gorm.io/gorm"
)

// ParameterRepo only ever sees active rows; soft-deleted parameters are invisible to
// every method.
type ParameterRepo interface {
	List(ctx context.Context) ([]model.InternalParameter, error)
	Get(ctx context.Context, id uint) (*model.InternalParameter, error)
	Create(ctx context.Context, p *model.InternalParameter) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*model.InternalParameter, error)
	SoftDelete(ctx context.Context, id uint) error
}

type parameterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParameterRepo(db *gorm.DB, baseLog *logger.Logger) ParameterRepo {
	return &parameterRepo{
		db:  db,
		log: baseLog.With("repo", "ParameterRepo"),
	}
}

func active(db *gorm.DB) *gorm.DB {
	return db.Where("state = ?", model.ParameterActive)
}

func (r *parameterRepo) List(ctx context.Context) ([]model.InternalParameter, error) {
	var out []model.InternalParameter
	if err := r.db.WithContext(ctx).Scopes(active).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *parameterRepo) Get(ctx context.Context, id uint) (*model.InternalParameter, error) {
	var p model.InternalParameter
	err := r.db.WithContext(ctx).Scopes(active).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *parameterRepo) Create(ctx context.Context, p *model.InternalParameter) error {
	p.ID = 0
	p.State = model.ParameterActive
	return r.db.WithContext(ctx).Create(p).Error
}

// Update applies fields (column name to value) to an active parameter and returns the
// stored row.
func (r *parameterRepo) Update(ctx context.Context, id uint, fields map[string]interface{}) (*model.InternalParameter, error) {
	delete(fields, "state")
	delete(fields, "id")
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&model.InternalParameter{}).
			Scopes(active).
			Where("id = ?", id).
			Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.Get(ctx, id)
}

func (r *parameterRepo) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.InternalParameter{}).
		Scopes(active).
		Where("id = ?", id).
		Update("state", model.ParameterDeleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.log.Info("internal parameter deleted", "id", id)
	return nil
}
