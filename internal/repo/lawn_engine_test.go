package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"lawn-engine/internal/model"
	"lawn-engine/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRun(lawnID uint, year int, status model.TaskStatus, dates ...string) *model.LawnEngine {
	run := &model.LawnEngine{
		LawnID:           lawnID,
		SubscriptionYear: year,
		StartDate:        time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
		RunType:          model.RunTypeFirst,
		TaskStatus:       status,
		PouchesPerApp:    2,
	}
	for i, d := range dates {
		run.GrassPotential = append(run.GrassPotential, model.GrassPotential{Date: d, Value: float64(i) / 10})
		run.DateAndPouches = append(run.DateAndPouches, model.DateAndPouches{Date: d, Pouches: 2})
	}
	return run
}

func TestLawnEngineRepo_ReplaceForYear(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLawnEngineRepo(db, testutil.Logger(t))

	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(7, 2024, model.TaskStatusComplete, "2024-03-01", "2024-03-15")))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.ReplaceForYear(ctx, tx, newRun(7, 2024, model.TaskStatusComplete, "2024-04-01", "2024-04-15", "2024-04-29"))
	}))

	var runs, points, entries int64
	require.NoError(t, db.Model(&model.LawnEngine{}).Where("lawn_id = ?", 7).Count(&runs).Error)
	require.NoError(t, db.Model(&model.GrassPotential{}).Count(&points).Error)
	require.NoError(t, db.Model(&model.DateAndPouches{}).Count(&entries).Error)
	assert.Equal(t, int64(1), runs)
	assert.Equal(t, int64(3), points)
	assert.Equal(t, int64(3), entries)

	got, err := repo.LatestByLawn(ctx, nil, 7)
	require.NoError(t, err)
	require.Len(t, got.GrassPotential, 3)
	assert.Equal(t, "2024-04-01", got.GrassPotential[0].Date)
	assert.Equal(t, "2024-04-29", got.GrassPotential[2].Date)
	assert.Equal(t, "2024-04-15", got.DateAndPouches[1].Date)
}

func TestLawnEngineRepo_ReplaceRollsBack(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLawnEngineRepo(db, testutil.Logger(t))

	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(3, 2024, model.TaskStatusComplete, "2024-03-01")))

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.ReplaceForYear(ctx, tx, newRun(3, 2024, model.TaskStatusComplete, "2024-05-01")); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := repo.LatestByLawn(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, got.GrassPotential, 1)
	assert.Equal(t, "2024-03-01", got.GrassPotential[0].Date)
}

func TestLawnEngineRepo_LatestAndHistory(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLawnEngineRepo(db, testutil.Logger(t))

	_, err := repo.LatestByLawn(ctx, nil, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(9, 2023, model.TaskStatusComplete, "2023-03-01")))
	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(9, 2024, model.TaskStatusPending, "2024-03-01")))

	got, err := repo.LatestByLawn(ctx, nil, 9)
	require.NoError(t, err)
	assert.Equal(t, 2024, got.SubscriptionYear)

	ok, err := repo.HasCompletedBefore(ctx, nil, 9, 2024)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.HasCompletedBefore(ctx, nil, 9, 2023)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.HasCompletedBefore(ctx, nil, 9, 2025)
	require.NoError(t, err)
	assert.True(t, ok, "2023 complete run counts for 2025")
}

func TestLawnEngineRepo_DeleteByLawn(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLawnEngineRepo(db, testutil.Logger(t))

	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(11, 2023, model.TaskStatusComplete, "2023-03-01")))
	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(11, 2024, model.TaskStatusComplete, "2024-03-01")))
	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(12, 2024, model.TaskStatusComplete, "2024-03-01")))

	n, err := repo.DeleteByLawn(ctx, nil, 11)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.LatestByLawn(ctx, nil, 11)
	assert.ErrorIs(t, err, ErrNotFound)
	var points int64
	require.NoError(t, db.Model(&model.GrassPotential{}).Count(&points).Error)
	assert.Equal(t, int64(1), points)

	n, err = repo.DeleteByLawn(ctx, nil, 11)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLawnEngineRepo_OneRunPerLawnYear(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLawnEngineRepo(db, testutil.Logger(t))

	require.NoError(t, repo.ReplaceForYear(ctx, nil, newRun(21, 2024, model.TaskStatusComplete, "2024-03-01")))
	assert.Error(t, db.Create(newRun(21, 2024, model.TaskStatusComplete, "2024-04-01")).Error)
	require.NoError(t, db.Create(newRun(21, 2025, model.TaskStatusComplete, "2025-04-01")).Error)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Transaction(func(tx *gorm.DB) error {
				return repo.ReplaceForYear(ctx, tx, newRun(21, 2024, model.TaskStatusComplete, "2024-05-01", "2024-05-15"))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var runs int64
	require.NoError(t, db.Model(&model.LawnEngine{}).Where("lawn_id = ? AND subscription_year = ?", 21, 2024).Count(&runs).Error)
	assert.Equal(t, int64(1), runs)
}
