package repo

import (
	"context"
	"errors"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LawnRepo interface {
	Get(ctx context.Context, id uint) (*model.Lawn, error)
	Create(ctx context.Context, lawn *model.Lawn) error
}

type lawnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLawnRepo(db *gorm.DB, baseLog *logger.Logger) LawnRepo {
	return &lawnRepo{db: db, log: baseLog.With("repo", "LawnRepo")}
}

func (r *lawnRepo) Get(ctx context.Context, id uint) (*model.Lawn, error) {
	var lawn model.Lawn
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&lawn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lawn, nil
}

func (r *lawnRepo) Create(ctx context.Context, lawn *model.Lawn) error {
	return r.db.WithContext(ctx).Create(lawn).Error
}

type SoilTestRepo interface {
	// Latest returns nil, nil when the lawn has never been tested.
	Latest(ctx context.Context, lawnID uint) (*model.SoilTest, error)
}

type soilTestRepo struct {
	db *gorm.DB
}

func NewSoilTestRepo(db *gorm.DB) SoilTestRepo {
	return &soilTestRepo{db: db}
}

func (r *soilTestRepo) Latest(ctx context.Context, lawnID uint) (*model.SoilTest, error) {
	var soil model.SoilTest
	err := r.db.WithContext(ctx).
		Where("lawn_id = ?", lawnID).
		Order("date_tested DESC").
		Order("id DESC").
		Limit(1).
		Find(&soil).Error
	if err != nil {
		return nil, err
	}
	if soil.ID == 0 {
		return nil, nil
	}
	return &soil, nil
}

type WeatherNormalRepo interface {
	ByLawn(ctx context.Context, lawnID uint) ([]model.WeatherNormal, error)
	Exists(ctx context.Context, lawnID uint) (bool, error)
	// Save upserts normals keyed on (lawn, month, day).
	Save(ctx context.Context, normals []model.WeatherNormal) error
}

type weatherNormalRepo struct {
	db *gorm.DB
}

func NewWeatherNormalRepo(db *gorm.DB) WeatherNormalRepo {
	return &weatherNormalRepo{db: db}
}

func (r *weatherNormalRepo) ByLawn(ctx context.Context, lawnID uint) ([]model.WeatherNormal, error) {
	var out []model.WeatherNormal
	err := r.db.WithContext(ctx).
		Where("lawn_id = ?", lawnID).
		Order("month ASC").
		Order("day ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *weatherNormalRepo) Exists(ctx context.Context, lawnID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.WeatherNormal{}).Where("lawn_id = ?", lawnID).Count(&n).Error
	return n > 0, err
}

func (r *weatherNormalRepo) Save(ctx context.Context, normals []model.WeatherNormal) error {
	if len(normals) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lawn_id"}, {Name: "month"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"precip_mm", "min_c", "max_c", "avg_c"}),
		}).
		CreateInBatches(normals, 200).Error
}
