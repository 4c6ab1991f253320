package repo

import (
	"context"
	"testing"

	"lawn-engine/internal/model"
	"lawn-engine/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParameterRepo_SoftDeleteHidesRow(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewParameterRepo(db, testutil.Logger(t))

	keep := &model.InternalParameter{ParameterName: "cadence_cool_days", ProductionValue: strPtr("10")}
	drop := &model.InternalParameter{ParameterName: "moisture_floor", DefaultValue: strPtr("0.4")}
	require.NoError(t, repo.Create(ctx, keep))
	require.NoError(t, repo.Create(ctx, drop))

	require.NoError(t, repo.SoftDelete(ctx, drop.ID))
	assert.ErrorIs(t, repo.SoftDelete(ctx, drop.ID), ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cadence_cool_days", list[0].ParameterName)

	_, err = repo.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, drop.ID, map[string]interface{}{"production_value": "0.9"})
	assert.ErrorIs(t, err, ErrNotFound)

	var raw model.InternalParameter
	require.NoError(t, db.First(&raw, drop.ID).Error)
	assert.Equal(t, model.ParameterDeleted, raw.State)
}

func TestParameterRepo_Update(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewParameterRepo(db, testutil.Logger(t))

	p := &model.InternalParameter{ParameterName: "target_nitrogen_ppm", ProductionValue: strPtr("20"), DefaultValue: strPtr("20")}
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Update(ctx, p.ID, map[string]interface{}{"production_value": "25", "state": model.ParameterDeleted})
	require.NoError(t, err)
	require.NotNil(t, got.ProductionValue)
	assert.Equal(t, "25", *got.ProductionValue)
	assert.Equal(t, "20", *got.DefaultValue)
	assert.Equal(t, model.ParameterActive, got.State)

	got, err = repo.Update(ctx, p.ID, map[string]interface{}{"default_value": nil})
	require.NoError(t, err)
	assert.Nil(t, got.DefaultValue)
}
