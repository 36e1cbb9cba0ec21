package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

const (
	defaultResultsWait = 30 * time.Second
	pollInterval       = 500 * time.Millisecond

	// How long a non-headless session is held open after a blocker so an
	// operator can clear it by hand before the final re-check.
	interactiveGrace = 30 * time.Second
)

// Orchestrator drives one search through its full lifecycle: open, vet,
// consent, fill, submit, wait, extract, paginate, close. Blockers, empty
// pages, timeouts and cancellation come back as statuses, not errors.
type Orchestrator struct {
	sessions *SessionManager
	logger   *logrus.Logger
	headless bool
}

func NewOrchestrator(sessions *SessionManager, headless bool, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		logger:   logger,
		headless: headless,
	}
}

// Run executes a single search against the portal. The returned result is
// always populated; a non-nil error accompanies only caller and session
// faults (invalid query, launch failure, unresolvable form).
func (o *Orchestrator) Run(ctx context.Context, p *profile.PortalProfile, query *models.SearchQuery, limit int) (*models.SearchResult, error) {
	result := &models.SearchResult{
		SearchID:  uuid.New().String(),
		Portal:    p.Name,
		Status:    models.StatusError,
		StartedAt: time.Now(),
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
	}()

	log := o.logger.WithFields(logrus.Fields{
		"search_id": result.SearchID,
		"portal":    p.Name,
	})

	// Fail fast before anything touches the network.
	if err := query.Validate(); err != nil {
		return result, err
	}

	throttle := NewThrottle(p.RateInterval)

	session, err := o.sessions.Open(ctx, p)
	if err != nil {
		log.WithError(err).Error("Session open failed")
		return result, err
	}
	defer session.Close()

	entry := p.EntryURL
	if entry == "" {
		entry = p.SearchURL
	}
	if err := throttle.Wait(ctx); err != nil {
		return o.finish(result, models.StatusCancelled), nil
	}
	if err := session.Page.Navigate(ctx, entry); err != nil {
		log.WithError(err).Error("Entry page unreachable")
		return result, &models.SessionError{Kind: models.SessionUnreachable, Err: err}
	}

	// First blocker check: some portals refuse before showing any form.
	content, err := session.Page.Content(ctx)
	if err != nil {
		return result, &models.SessionError{Kind: models.SessionUnreachable, Err: err}
	}
	if blocker := o.checkBlocker(ctx, session, p, content, log); blocker != nil {
		result.Blocker = blocker
		session.SaveDiagnostics(ctx, "blocked-"+p.Name)
		return o.finish(result, models.StatusBlocked), nil
	}

	if cleared, err := ClearConsent(ctx, session, p, log); err != nil {
		log.WithError(err).Warn("Consent handling failed, proceeding")
	} else if cleared {
		log.Debug("Consent gate cleared")
	}

	// Move to the search form when the entry point is a different page.
	if p.SearchURL != "" && entry != p.SearchURL && session.Page.URL() != p.SearchURL {
		if err := throttle.Wait(ctx); err != nil {
			return o.finish(result, models.StatusCancelled), nil
		}
		if err := session.Page.Navigate(ctx, p.SearchURL); err != nil {
			return result, &models.SessionError{Kind: models.SessionUnreachable, Err: err}
		}
	}

	fields, warnings, err := FillForm(ctx, session.Page, p, query.FieldValues(), log)
	result.Warnings = warnings
	if err != nil {
		log.WithError(err).Error("Form could not be addressed")
		session.SaveDiagnostics(ctx, "noform-"+p.Name)
		return result, err
	}
	log.WithField("fields", len(fields)).Debug("Form filled")

	if err := throttle.Wait(ctx); err != nil {
		return o.finish(result, models.StatusCancelled), nil
	}
	if err := session.Page.Submit(ctx, p.SubmitSelector); err != nil {
		log.WithError(err).Debug("Submit control missing, trying fallback")
		if err := session.Page.SubmitFallback(ctx); err != nil {
			log.WithError(err).Error("Submit failed")
			session.SaveDiagnostics(ctx, "nosubmit-"+p.Name)
			return result, err
		}
	}

	status, content := o.awaitResults(ctx, session, p, result, log)
	switch status {
	case models.StatusBlocked:
		session.SaveDiagnostics(ctx, "blocked-"+p.Name)
		return o.finish(result, status), nil
	case models.StatusEmpty, models.StatusTimedOut, models.StatusCancelled:
		if status == models.StatusTimedOut {
			session.SaveDiagnostics(ctx, "timeout-"+p.Name)
		}
		return o.finish(result, status), nil
	}

	// ResultsReady: extract, then walk further pages under the caps.
	records, skipped, status := o.collect(ctx, session, p, content, limit, throttle, result, log)
	result.Records = models.DedupRecords(records, limit)
	result.RowsSkipped = skipped
	if status != "" {
		return o.finish(result, status), nil
	}
	if len(result.Records) == 0 {
		return o.finish(result, models.StatusEmpty), nil
	}
	log.WithFields(logrus.Fields{
		"records": len(result.Records),
		"pages":   result.PagesWalked,
		"skipped": result.RowsSkipped,
	}).Info("Search completed")
	return o.finish(result, models.StatusReady), nil
}

func (o *Orchestrator) finish(result *models.SearchResult, status models.SearchStatus) *models.SearchResult {
	result.Status = status
	return result
}

// awaitResults polls the settled page until it shows results, an empty-set
// phrase, a blocker, or the wait ceiling passes. Returns the terminal status
// and, for ResultsReady, the content that matched.
func (o *Orchestrator) awaitResults(ctx context.Context, session *Session, p *profile.PortalProfile, result *models.SearchResult, log *logrus.Entry) (models.SearchStatus, string) {
	wait := p.ResultsWait
	if wait <= 0 {
		wait = defaultResultsWait
	}
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	for {
		content, err := session.Page.Content(ctx)
		if err == nil {
			if blocker := o.checkBlocker(ctx, session, p, content, log); blocker != nil {
				result.Blocker = blocker
				return models.StatusBlocked, ""
			}
			if MatchesEmpty(content, p) {
				return models.StatusEmpty, ""
			}
			if HasResults(content, p) {
				return models.StatusReady, content
			}
		} else if errors.Is(err, context.Canceled) {
			return models.StatusCancelled, ""
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return models.StatusTimedOut, ""
			}
			return models.StatusCancelled, ""
		case <-deadline.C:
			log.Warn("Results wait ceiling reached")
			return models.StatusTimedOut, ""
		case <-tick.C:
		}
	}
}

// collect extracts the current page and walks the pagination loop. It stops
// without error at the caller's limit, the page ceiling, or a missing next
// affordance; a blocker or cancellation mid-walk ends the search with the
// records gathered so far. An empty status string means a clean finish.
func (o *Orchestrator) collect(ctx context.Context, session *Session, p *profile.PortalProfile, content string, limit int, throttle *Throttle, result *models.SearchResult, log *logrus.Entry) ([]models.CaseRecord, int, models.SearchStatus) {
	var records []models.CaseRecord
	skipped := 0
	ceiling := p.MaxPages()

	for {
		pageRecords, pageSkipped, err := ExtractRecords(content, p, session.Page.URL(), limit)
		if err != nil {
			log.WithError(err).Warn("Extraction failed on page")
		}
		records = append(records, pageRecords...)
		skipped += pageSkipped
		result.PagesWalked++

		if limit > 0 && len(records) >= limit {
			return records, skipped, ""
		}
		if result.PagesWalked >= ceiling {
			log.WithField("ceiling", ceiling).Warn("Pagination ceiling reached")
			return records, skipped, ""
		}

		if err := throttle.Wait(ctx); err != nil {
			return records, skipped, models.StatusCancelled
		}
		advanced, err := session.Page.NextPage(ctx, p.Pagination)
		if err != nil {
			log.WithError(err).Warn("Page advance failed")
			return records, skipped, ""
		}
		if !advanced {
			return records, skipped, ""
		}

		content, err = session.Page.Content(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return records, skipped, models.StatusCancelled
			}
			return records, skipped, ""
		}
		// Portals can interpose a blocker at any page boundary.
		if blocker := o.checkBlocker(ctx, session, p, content, log); blocker != nil {
			result.Blocker = blocker
			return records, skipped, models.StatusBlocked
		}
	}
}

// checkBlocker classifies the content and, for interactive sessions, holds
// the page open for a bounded grace period so an operator can clear the
// blocker by hand, then re-checks once.
func (o *Orchestrator) checkBlocker(ctx context.Context, session *Session, p *profile.PortalProfile, content string, log *logrus.Entry) *models.BlockerEvent {
	blocker := ClassifyBlocker(content, p)
	if blocker == nil {
		return nil
	}
	log.WithFields(logrus.Fields{
		"kind":     blocker.Kind,
		"evidence": blocker.Evidence,
	}).Warn("Blocker detected")

	if o.headless || session.Engine != profile.EngineBrowser {
		return blocker
	}

	log.Info("Holding session for operator intervention")
	select {
	case <-ctx.Done():
		return blocker
	case <-time.After(interactiveGrace):
	}
	recheck, err := session.Page.Content(ctx)
	if err != nil {
		return blocker
	}
	if cleared := ClassifyBlocker(recheck, p); cleared == nil {
		log.Info("Blocker cleared by operator")
		return nil
	}
	return blocker
}
