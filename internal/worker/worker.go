package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/services"
)

const (
	enqueueTimeout = 30 * time.Second
	resultTimeout  = 5 * time.Minute
)

// Job is one queued search with a channel for its outcome.
type Job struct {
	ID      string
	Request models.SearchRequest
	Created time.Time
	Result  chan models.BatchResult
}

// Pool fans queued searches out to a fixed set of workers, each delegating
// to the search service. It bounds total concurrency so a burst of API
// requests cannot launch an unbounded number of portal sessions.
type Pool struct {
	workers int
	jobs    chan *Job
	service services.SearchServiceInterface
	logger  *logrus.Logger

	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats tracks pool counters.
type Stats struct {
	TotalJobs     int64     `json:"total_jobs"`
	CompletedJobs int64     `json:"completed_jobs"`
	FailedJobs    int64     `json:"failed_jobs"`
	ActiveWorkers int32     `json:"active_workers"`
	QueueSize     int       `json:"queue_size"`
	StartTime     time.Time `json:"start_time"`
}

// NewPool creates a worker pool over the search service.
func NewPool(workers, queueSize int, service services.SearchServiceInterface, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers: workers,
		jobs:    make(chan *Job, queueSize),
		service: service,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		stats:   Stats{StartTime: time.Now()},
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	p.logger.WithField("workers", p.workers).Info("Worker pool started")
}

// Stop drains the pool and waits for in-flight jobs.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool")
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	log := p.logger.WithField("worker", id)

	for job := range p.jobs {
		atomic.AddInt32(&p.stats.ActiveWorkers, 1)

		start := time.Now()
		result, err := p.service.Search(p.ctx, &job.Request)
		outcome := models.BatchResult{
			Portal:     job.Request.Portal,
			Result:     result,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			outcome.Error = err.Error()
			atomic.AddInt64(&p.stats.FailedJobs, 1)
			log.WithError(err).WithField("portal", job.Request.Portal).Warn("Search job failed")
		} else {
			outcome.Success = true
			atomic.AddInt64(&p.stats.CompletedJobs, 1)
		}

		job.Result <- outcome
		atomic.AddInt32(&p.stats.ActiveWorkers, -1)
	}
}

// Submit queues one search and waits for its outcome.
func (p *Pool) Submit(req models.SearchRequest) models.BatchResult {
	job := &Job{
		ID:      uuid.New().String(),
		Request: req,
		Created: time.Now(),
		Result:  make(chan models.BatchResult, 1),
	}

	select {
	case p.jobs <- job:
		atomic.AddInt64(&p.stats.TotalJobs, 1)
	case <-time.After(enqueueTimeout):
		return models.BatchResult{
			Portal: req.Portal,
			Error:  "timeout: queue is full",
		}
	}

	select {
	case result := <-job.Result:
		return result
	case <-time.After(resultTimeout):
		return models.BatchResult{
			Portal: req.Portal,
			Error:  "timeout: processing took too long",
		}
	}
}

// SubmitBatch queues every search and collects outcomes with batch stats.
func (p *Pool) SubmitBatch(reqs []models.SearchRequest) models.BatchSearchResponse {
	start := time.Now()
	if len(reqs) == 0 {
		return models.BatchSearchResponse{
			Results: []models.BatchResult{},
			Stats: models.BatchStats{
				StartTime: start,
				EndTime:   time.Now(),
			},
		}
	}

	results := make([]models.BatchResult, len(reqs))
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index] = p.Submit(reqs[index])
		}(i)
	}
	wg.Wait()

	stats := models.BatchStats{
		Total:     len(results),
		StartTime: start,
		EndTime:   time.Now(),
		Duration:  time.Since(start),
	}
	for _, r := range results {
		if !r.Success {
			stats.Failed++
			continue
		}
		if r.Result == nil {
			continue
		}
		if r.Result.Cached {
			stats.Cached++
		}
		switch r.Result.Status {
		case models.StatusReady:
			stats.Ready++
		case models.StatusEmpty:
			stats.Empty++
		case models.StatusBlocked:
			stats.Blocked++
		}
	}
	return models.BatchSearchResponse{Results: results, Stats: stats}
}

// GetStats returns a snapshot of pool counters.
func (p *Pool) GetStats() Stats {
	return Stats{
		TotalJobs:     atomic.LoadInt64(&p.stats.TotalJobs),
		CompletedJobs: atomic.LoadInt64(&p.stats.CompletedJobs),
		FailedJobs:    atomic.LoadInt64(&p.stats.FailedJobs),
		ActiveWorkers: atomic.LoadInt32(&p.stats.ActiveWorkers),
		QueueSize:     len(p.jobs),
		StartTime:     p.stats.StartTime,
	}
}
