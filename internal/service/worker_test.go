package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lawn-engine/internal/config"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/model"
	"lawn-engine/internal/repo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

type memJobRepo struct {
	repo.EngineJobRepo
	mu         sync.Mutex
	queue      []*model.EngineJob
	failed     map[uuid.UUID]string
	heartbeats int
}

func (m *memJobRepo) ClaimNextRunnable(ctx context.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*model.EngineJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, nil
	}
	job := m.queue[0]
	m.queue = m.queue[1:]
	job.Status = model.JobRunning
	job.Attempts++
	return job, nil
}

func (m *memJobRepo) MarkFailed(ctx context.Context, id uuid.UUID, status model.JobStatus, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[id] = msg
	return nil
}

func (m *memJobRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeats++
	return nil
}

type recordingProcessor struct {
	mu    sync.Mutex
	seen  []uint
	delay time.Duration
}

func (p *recordingProcessor) ProcessJob(ctx context.Context, job *model.EngineJob) error {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if job.LawnID == 13 {
		panic("unlucky lawn")
	}
	p.mu.Lock()
	p.seen = append(p.seen, job.LawnID)
	p.mu.Unlock()
	if job.LawnID == 7 {
		return errors.New("weather timeout")
	}
	return nil
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func TestWorker_ProcessesQueueAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	jobs := &memJobRepo{failed: map[uuid.UUID]string{}}
	for i := 1; i <= 20; i++ {
		jobs.queue = append(jobs.queue, &model.EngineJob{ID: uuid.New(), LawnID: uint(i)})
	}
	proc := &recordingProcessor{}
	w := NewWorker(jobs, proc, config.WorkerConfig{Concurrency: 3, PollInterval: 5 * time.Millisecond, StaleAfter: time.Minute}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return proc.count() == 19 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	assert.Empty(t, jobs.queue)
	assert.Len(t, jobs.failed, 1, "only the panicking job is marked by the worker")
	for _, msg := range jobs.failed {
		assert.Contains(t, msg, "unlucky lawn")
	}
}

func TestWorker_HeartbeatsLongJobs(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	jobs := &memJobRepo{failed: map[uuid.UUID]string{}, queue: []*model.EngineJob{{ID: uuid.New(), LawnID: 1}}}
	proc := &recordingProcessor{delay: 60 * time.Millisecond}
	w := NewWorker(jobs, proc, config.WorkerConfig{Concurrency: 1, StaleAfter: 30 * time.Millisecond}, logger.Nop())

	assert.True(t, w.RunOnce(context.Background(), 0))
	assert.False(t, w.RunOnce(context.Background(), 0))

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	assert.GreaterOrEqual(t, jobs.heartbeats, 1)
}
