package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"lawn-engine/internal/model"
	"lawn-engine/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestEngineJobRepo_ClaimOrder(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEngineJobRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	queued := &model.EngineJob{LawnID: 1, Status: model.JobQueued, CreatedAt: now.Add(-3 * time.Hour)}
	failed := &model.EngineJob{LawnID: 2, Status: model.JobFailed, Attempts: 1, LastErrorAt: ptrTime(now.Add(-2 * time.Hour)), CreatedAt: now.Add(-2 * time.Hour)}
	stale := &model.EngineJob{LawnID: 3, Status: model.JobRunning, Attempts: 1, HeartbeatAt: ptrTime(now.Add(-time.Hour)), CreatedAt: now.Add(-time.Hour)}
	exhausted := &model.EngineJob{LawnID: 4, Status: model.JobFailed, Attempts: 3, LastErrorAt: ptrTime(now.Add(-time.Hour)), CreatedAt: now.Add(-4 * time.Hour)}
	rejected := &model.EngineJob{LawnID: 5, Status: model.JobRejected, CreatedAt: now.Add(-5 * time.Hour)}
	fresh := &model.EngineJob{LawnID: 6, Status: model.JobRunning, Attempts: 1, HeartbeatAt: ptrTime(now), CreatedAt: now.Add(-6 * time.Hour)}
	_, err := repo.Create(ctx, nil, []*model.EngineJob{queued, failed, stale, exhausted, rejected, fresh})
	require.NoError(t, err)

	var order []uint
	for {
		job, err := repo.ClaimNextRunnable(ctx, 3, 10*time.Minute, 15*time.Minute)
		require.NoError(t, err)
		if job == nil {
			break
		}
		assert.Equal(t, model.JobRunning, job.Status)
		order = append(order, job.LawnID)
		require.NoError(t, repo.MarkComplete(ctx, job.ID, 99))
	}
	assert.Equal(t, []uint{1, 2, 3}, order)

	got, err := repo.Get(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobComplete, got.Status)
	assert.Equal(t, 2, got.Attempts)
	require.NotNil(t, got.ResultRunID)
	assert.Equal(t, uint(99), *got.ResultRunID)
}

func TestEngineJobRepo_ClaimIsExclusive(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEngineJobRepo(db, testutil.Logger(t))

	jobs := make([]*model.EngineJob, 0, 20)
	for i := 0; i < 20; i++ {
		jobs = append(jobs, &model.EngineJob{LawnID: uint(i + 1)})
	}
	_, err := repo.Create(ctx, nil, jobs)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = map[uuid.UUID]int{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := repo.ClaimNextRunnable(ctx, 3, time.Minute, time.Hour)
				if err != nil || job == nil {
					return
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	for id, n := range seen {
		assert.Equal(t, 1, n, id.String())
	}
}

func TestEngineJobRepo_FailedAndCounts(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEngineJobRepo(db, testutil.Logger(t))

	created, err := repo.Create(ctx, nil, []*model.EngineJob{{LawnID: 1}, {LawnID: 2}, {LawnID: 3}})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created[0].ID)

	require.NoError(t, repo.MarkFailed(ctx, created[0].ID, model.JobRejected, "lawn not found"))
	require.NoError(t, repo.MarkFailed(ctx, created[1].ID, model.JobFailed, "weather timeout"))

	got, err := repo.Get(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "lawn not found", got.LastError)
	assert.NotNil(t, got.LastErrorAt)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.JobQueued])
	assert.Equal(t, int64(1), counts[model.JobFailed])
	assert.Equal(t, int64(1), counts[model.JobRejected])

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
