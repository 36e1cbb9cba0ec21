package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/config"
	"github.com/publicvector/courtsearch/internal/engine"
	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

const batchConcurrency = 5

// SearchService runs court case searches: it resolves the portal profile,
// consults the cache, and drives the orchestrator for misses. Only fully
// settled, non-degraded outcomes (ready or empty) are cached.
type SearchService struct {
	config       config.SearchConfig
	registry     *profile.Registry
	orchestrator *engine.Orchestrator
	sessions     *engine.SessionManager
	cache        CacheServiceInterface
	logger       *logrus.Logger

	mu       sync.RWMutex
	searches int64
}

// NewSearchService creates a new search service
func NewSearchService(cfg config.SearchConfig, registry *profile.Registry, orchestrator *engine.Orchestrator, sessions *engine.SessionManager, cache CacheServiceInterface, logger *logrus.Logger) (SearchServiceInterface, error) {
	return &SearchService{
		config:       cfg,
		registry:     registry,
		orchestrator: orchestrator,
		sessions:     sessions,
		cache:        cache,
		logger:       logger,
	}, nil
}

// Search runs one search against a portal
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	start := time.Now()

	s.mu.Lock()
	s.searches++
	s.mu.Unlock()

	p, err := s.registry.Get(req.Portal)
	if err != nil {
		return nil, err
	}
	if err := req.Query.Validate(); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.config.ResultLimit
	}

	log := s.logger.WithFields(logrus.Fields{
		"portal": req.Portal,
		"limit":  limit,
	})
	log.Info("Starting court search")

	key := SearchKey(req.Portal, &req.Query, limit)
	if !req.NoCache {
		if cached, ok := s.cache.GetResult(ctx, key); ok {
			log.WithField("duration", time.Since(start)).Info("Search served from cache")
			return cached, nil
		}
	}

	searchCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	result, err := s.orchestrator.Run(searchCtx, p, &req.Query, limit)
	if err != nil {
		log.WithError(err).Error("Search failed")
		return result, err
	}

	if result.Status == models.StatusReady || result.Status == models.StatusEmpty {
		if err := s.cache.SetResult(ctx, key, result); err != nil {
			log.WithError(err).Warn("Failed to cache search result")
		}
	}

	log.WithFields(logrus.Fields{
		"status":   result.Status,
		"records":  len(result.Records),
		"duration": time.Since(start),
	}).Info("Search completed")
	return result, nil
}

// SearchBatch runs multiple searches with bounded concurrency
func (s *SearchService) SearchBatch(ctx context.Context, reqs []models.SearchRequest) []models.BatchResult {
	results := make([]models.BatchResult, len(reqs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, batchConcurrency)

	for i := range reqs {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			req := reqs[index]
			start := time.Now()
			result, err := s.Search(ctx, &req)
			duration := time.Since(start)

			if err != nil {
				results[index] = models.BatchResult{
					Portal:     req.Portal,
					Success:    false,
					Result:     result,
					Error:      err.Error(),
					DurationMs: duration.Milliseconds(),
				}
				return
			}
			results[index] = models.BatchResult{
				Portal:     req.Portal,
				Success:    true,
				Result:     result,
				DurationMs: duration.Milliseconds(),
			}
		}(i)
	}
	wg.Wait()
	return results
}

// Docket fetches and parses one case's docket report
func (s *SearchService) Docket(ctx context.Context, portal, caseNumber string) (*models.DocketReport, error) {
	p, err := s.registry.Get(portal)
	if err != nil {
		return nil, err
	}

	docketCtx := ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		docketCtx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	session, err := s.sessions.Open(docketCtx, p)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	report, err := engine.FetchDocket(docketCtx, session, p, caseNumber)
	if err != nil {
		return nil, fmt.Errorf("docket fetch for %s failed: %w", caseNumber, err)
	}
	s.logger.WithFields(logrus.Fields{
		"portal":  portal,
		"case":    caseNumber,
		"entries": len(report.Entries),
	}).Info("Docket fetched")
	return report, nil
}

// Portals lists the names of the registered portal profiles
func (s *SearchService) Portals() []string {
	return s.registry.Names()
}

// Health returns service health status
func (s *SearchService) Health() map[string]interface{} {
	s.mu.RLock()
	searches := s.searches
	s.mu.RUnlock()

	return map[string]interface{}{
		"status":         "healthy",
		"total_searches": searches,
		"portals":        len(s.registry.Names()),
	}
}

// Close closes the service and releases resources
func (s *SearchService) Close() error {
	s.sessions.Close()
	return nil
}
