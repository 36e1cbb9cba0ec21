package models

import "time"

// SearchStatus is the terminal classification of one search attempt. Expected
// outcomes (blockers, empty results, timeouts) are statuses, not errors.
type SearchStatus string

const (
	StatusReady     SearchStatus = "ready"
	StatusEmpty     SearchStatus = "empty"
	StatusBlocked   SearchStatus = "blocked"
	StatusTimedOut  SearchStatus = "timed_out"
	StatusCancelled SearchStatus = "cancelled"
	StatusError     SearchStatus = "error"
)

// BlockerKind classifies an access-denial surface. Ordered by detection
// priority: Captcha > WAF > LoginRequired > RateLimited.
type BlockerKind string

const (
	BlockerCaptcha       BlockerKind = "captcha"
	BlockerWAF           BlockerKind = "waf"
	BlockerLoginRequired BlockerKind = "login_required"
	BlockerRateLimited   BlockerKind = "rate_limited"
)

// BlockerEvent is the classification of a detected access denial, with the
// page text that triggered it.
type BlockerEvent struct {
	Kind     BlockerKind `json:"kind" example:"captcha"`
	Evidence string      `json:"evidence" example:"recaptcha"`
}

// PartialFillWarning records one query field that could not be applied to the
// portal's form. A degraded search is preferable to no search, but the caller
// must see what was skipped.
type PartialFillWarning struct {
	Field  string `json:"field" example:"middle_name"`
	Reason string `json:"reason" example:"no candidate pattern matched"`
}

// SearchResult is the structured outcome of one search attempt. It is always
// returned for expected outcomes; only session-level faults surface as errors.
type SearchResult struct {
	SearchID    string               `json:"search_id"`
	Portal      string               `json:"portal" example:"oklahoma-oscn"`
	Status      SearchStatus         `json:"status" example:"ready"`
	Records     []CaseRecord         `json:"records"`
	Warnings    []PartialFillWarning `json:"warnings,omitempty"`
	Blocker     *BlockerEvent        `json:"blocker,omitempty"`
	PagesWalked int                  `json:"pages_walked" example:"1"`
	RowsSkipped int                  `json:"rows_skipped,omitempty"`
	Duration    time.Duration        `json:"duration_ms" swaggertype:"integer"`
	Cached      bool                 `json:"cached" example:"false"`
	StartedAt   time.Time            `json:"started_at"`
}
