package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// EngineKind selects how a portal is driven.
type EngineKind string

const (
	// EngineBrowser renders the portal in headless Chrome.
	EngineBrowser EngineKind = "browser"
	// EngineHTTP drives the portal with plain HTTP form walking.
	EngineHTTP EngineKind = "http"
)

// ControlKind describes the concrete control a FieldSpec is expected to
// resolve to.
type ControlKind string

const (
	ControlText   ControlKind = "text"
	ControlSelect ControlKind = "select"
	ControlRadio  ControlKind = "radio"
)

// FieldSpec maps one logical search input to an ordered list of candidate
// locator patterns. Patterns are tried in declaration order; the first match
// wins. Substring patterns are matched case-insensitively against the
// control's name, id, placeholder and aria-label attributes, and against
// associated label text.
type FieldSpec struct {
	Field string      `json:"field"`
	Kind  ControlKind `json:"kind,omitempty"`
	// Patterns are attribute/label substrings, e.g. "party", "last_name".
	Patterns []string `json:"patterns"`
	// Order controls dependency-ordered filling; lower values are filled
	// first. Radio mode switches should get the lowest order in their group.
	Order int `json:"order,omitempty"`
	// TriggersRerender marks controls whose change re-renders the form, so a
	// settle wait is needed before the next field is attempted.
	TriggersRerender bool `json:"triggers_rerender,omitempty"`
	// Value overrides the query value, for mode-switch radios whose value is
	// fixed by the portal rather than supplied by the caller.
	Value string `json:"value,omitempty"`
}

// RowStrategy describes one way to find and map result rows. Strategies are
// tried in declaration order; the first one yielding at least one element
// wins and strategies are never merged.
type RowStrategy struct {
	Name string `json:"name"`
	// RowSelector matches candidate result rows, e.g. "table.results tr".
	RowSelector string `json:"row_selector"`
	// Columns maps CaseRecord fields to zero-based cell positions.
	Columns map[string]int `json:"columns,omitempty"`
	// Labels maps CaseRecord fields to labeled-cell header text, used when
	// the portal renders label/value pairs instead of positional columns.
	Labels map[string]string `json:"labels,omitempty"`
	// MinCells drops rows with fewer cells (header or spacer rows).
	MinCells int `json:"min_cells,omitempty"`
	// LinkPattern extracts the row's detail URL from anchors whose href
	// contains this substring.
	LinkPattern string `json:"link_pattern,omitempty"`
	// Stream runs this strategy through the streaming markup scanner instead
	// of the DOM extractor. Only selectors of the form
	// "table.X tr.Y" (classes optional) are supported there.
	Stream bool `json:"stream,omitempty"`
}

// ConsentSpec describes a portal's one-time interstitial gate.
type ConsentSpec struct {
	// AcceptTexts are visible-text matches for the accept affordance, tried
	// in order on top of the built-in defaults.
	AcceptTexts []string `json:"accept_texts,omitempty"`
	// AcceptURL, when set, clears the gate with a direct POST instead of a
	// click (plain-HTTP portals).
	AcceptURL string `json:"accept_url,omitempty"`
	// SettleWait bounds the pause after clearing the gate.
	SettleWait time.Duration `json:"settle_wait,omitempty" swaggertype:"integer"`
}

// PaginationSpec describes how to walk a multi-page result set.
type PaginationSpec struct {
	// NextSelector matches the next-page affordance.
	NextSelector string `json:"next_selector,omitempty"`
	// NextText matches the affordance by visible text when no selector fits.
	NextText string `json:"next_text,omitempty"`
	// PageParam names a query parameter to increment for GET-paged portals.
	PageParam string `json:"page_param,omitempty"`
	// MaxPages is the hard safety ceiling; zero uses DefaultMaxPages.
	MaxPages int `json:"max_pages,omitempty"`
}

// DefaultMaxPages bounds pagination regardless of the caller's limit.
const DefaultMaxPages = 50

// PortalProfile is the per-site configuration consumed by the search engine.
// It is immutable once loaded; extraction logic never mutates it.
type PortalProfile struct {
	Name      string     `json:"name"`
	State     string     `json:"state,omitempty"`
	Engine    EngineKind `json:"engine"`
	SearchURL string     `json:"search_url"`
	// EntryURL, when set, is visited before SearchURL (county selection,
	// landing pages). Optional.
	EntryURL string `json:"entry_url,omitempty"`

	Fields     []FieldSpec    `json:"fields"`
	Rows       []RowStrategy  `json:"rows"`
	Consent    *ConsentSpec   `json:"consent,omitempty"`
	Pagination PaginationSpec `json:"pagination"`

	// SubmitSelector locates the submit control; empty falls back to the
	// engine defaults and then to keyboard submit.
	SubmitSelector string `json:"submit_selector,omitempty"`
	// SubmitMethod/SubmitParams drive plain-HTTP portals that take the query
	// as request parameters rather than a rendered form.
	SubmitMethod string `json:"submit_method,omitempty"`

	// BlockerPhrases adds portal-specific phrases per blocker class on top
	// of the built-in defaults. Keys: captcha, waf, login_required,
	// rate_limited.
	BlockerPhrases map[string][]string `json:"blocker_phrases,omitempty"`
	// EmptyPhrases mark a settled results page as a clean empty result.
	EmptyPhrases []string `json:"empty_phrases,omitempty"`

	// RateInterval is the minimum spacing between network-causing actions.
	RateInterval time.Duration `json:"rate_interval,omitempty" swaggertype:"integer"`
	// ResultsWait bounds the post-submit poll for a results surface.
	ResultsWait time.Duration `json:"results_wait,omitempty" swaggertype:"integer"`
	// SettleWait bounds re-render pauses after dependency-triggering fills.
	SettleWait time.Duration `json:"settle_wait,omitempty" swaggertype:"integer"`

	// UserAgent pins the client identity; empty picks a realistic one.
	UserAgent string `json:"user_agent,omitempty"`
	// Stealth requests the anti-automation-detection countermeasure layer.
	Stealth bool `json:"stealth,omitempty"`

	// DocketURL is the per-case detail endpoint template for portals that
	// expose one; "{case}" receives the escaped case number.
	DocketURL string `json:"docket_url,omitempty"`
}

// Validate checks structural invariants before a profile is registered.
func (p *PortalProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	if p.Engine != EngineBrowser && p.Engine != EngineHTTP {
		return fmt.Errorf("profile %s: unknown engine %q", p.Name, p.Engine)
	}
	if p.SearchURL == "" {
		return fmt.Errorf("profile %s: search_url is required", p.Name)
	}
	if len(p.Fields) == 0 {
		return fmt.Errorf("profile %s: at least one field spec is required", p.Name)
	}
	seen := make(map[string]struct{}, len(p.Fields))
	for _, f := range p.Fields {
		if f.Field == "" || len(f.Patterns) == 0 {
			return fmt.Errorf("profile %s: field spec needs a name and at least one pattern", p.Name)
		}
		if _, dup := seen[f.Field]; dup {
			return fmt.Errorf("profile %s: duplicate field spec %q", p.Name, f.Field)
		}
		seen[f.Field] = struct{}{}
	}
	if len(p.Rows) == 0 {
		return fmt.Errorf("profile %s: at least one row strategy is required", p.Name)
	}
	return nil
}

// MaxPages returns the pagination ceiling with the default applied.
func (p *PortalProfile) MaxPages() int {
	if p.Pagination.MaxPages > 0 {
		return p.Pagination.MaxPages
	}
	return DefaultMaxPages
}

// Load reads and validates a profile from a JSON file.
func Load(path string) (*PortalProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var p PortalProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
