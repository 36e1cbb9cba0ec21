package profile

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry holds the loaded portal profiles. Profiles are registered once at
// startup and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*PortalProfile
}

// NewRegistry creates a registry pre-populated with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*PortalProfile)}
	for _, p := range Builtin() {
		r.profiles[p.Name] = p
	}
	return r
}

// Register validates and adds a profile. Registering an existing name is an
// error; profiles are immutable once loaded.
func (r *Registry) Register(p *PortalProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[p.Name]; exists {
		return fmt.Errorf("profile %s: already registered", p.Name)
	}
	r.profiles[p.Name] = p
	return nil
}

// Get returns the named profile.
func (r *Registry) Get(name string) (*PortalProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown portal %q", name)
	}
	return p, nil
}

// Names lists registered profile names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the portal profiles shipped with the engine.
func Builtin() []*PortalProfile {
	return []*PortalProfile{montanaDistrict(), delawareCourtConnect(), oklahomaOSCN()}
}

// montanaDistrict drives the Montana District Court portal (FullCourt
// Enterprise): rendered search form, county selector that re-renders the
// form, table results with div fallback.
func montanaDistrict() *PortalProfile {
	return &PortalProfile{
		Name:      "montana-district",
		State:     "MT",
		Engine:    EngineBrowser,
		SearchURL: "https://dcportal.pubcourts.mt.gov/",
		Stealth:   true,
		Fields: []FieldSpec{
			{Field: "county", Kind: ControlSelect, Patterns: []string{"county", "court"}, Order: 0, TriggersRerender: true},
			{Field: "last_name", Patterns: []string{"party", "lastname", "last_name", "name"}, Order: 1},
			{Field: "first_name", Patterns: []string{"firstname", "first_name", "first"}, Order: 2},
			{Field: "business_name", Patterns: []string{"business", "company", "organization"}, Order: 3},
			{Field: "case_number", Patterns: []string{"case", "docket"}, Order: 4},
		},
		Rows: []RowStrategy{
			{
				Name:        "results-table",
				RowSelector: "table tr",
				MinCells:    2,
				Columns:     map[string]int{"case_number": 0, "party_name": 1, "court": 2, "status": 3, "filed_date": 4},
				LinkPattern: "case",
			},
			{
				Name:        "case-cards",
				RowSelector: ".case, .result, [class*=case-item]",
				LinkPattern: "case",
			},
		},
		SubmitSelector: `button[type=submit], input[type=submit]`,
		Pagination:     PaginationSpec{NextText: "Next", MaxPages: 20},
		EmptyPhrases:   []string{"no cases found", "no results", "no records found"},
		RateInterval:   2 * time.Second,
		ResultsWait:    20 * time.Second,
		SettleWait:     2 * time.Second,
	}
}

// delawareCourtConnect drives Delaware CourtConnect over plain HTTP: a
// disclaimer POST, then a GET search whose parameters mirror the form, with
// PageNo pagination and "Next->" affordances.
func delawareCourtConnect() *PortalProfile {
	return &PortalProfile{
		Name:      "delaware-courtconnect",
		State:     "DE",
		Engine:    EngineHTTP,
		SearchURL: "https://courtconnect.courts.delaware.gov/cc/cconnect/ck_public_qry_cpty.cp_personcase_srch_details",
		Consent: &ConsentSpec{
			AcceptURL:  "https://courtconnect.courts.delaware.gov/cc/cconnect/ck_public_qry_cpty.cp_personcase_setup_idx",
			SettleWait: time.Second,
		},
		Fields: []FieldSpec{
			{Field: "last_name", Patterns: []string{"last_name"}, Order: 0},
			{Field: "first_name", Patterns: []string{"first_name"}, Order: 1},
			{Field: "middle_name", Patterns: []string{"middle_name"}, Order: 2},
			{Field: "case_type", Kind: ControlSelect, Patterns: []string{"case_type"}, Order: 3},
			{Field: "filed_from", Patterns: []string{"begin_date"}, Order: 4},
			{Field: "filed_to", Patterns: []string{"end_date"}, Order: 5},
		},
		Rows: []RowStrategy{
			{
				Name:        "person-case-table",
				RowSelector: "table tr",
				MinCells:    4,
				Columns:     map[string]int{"party_name": 1, "case_number": 2, "case_type": 3, "filed_date": 4, "status": 5},
				LinkPattern: "dktrpt",
			},
		},
		SubmitMethod: "GET",
		Pagination:   PaginationSpec{NextText: "Next->", PageParam: "PageNo", MaxPages: 50},
		EmptyPhrases: []string{"no records found", "no cases found"},
		RateInterval: time.Second,
		ResultsWait:  30 * time.Second,
		DocketURL:    "https://courtconnect.courts.delaware.gov/cc/cconnect/ck_public_qry_doct.cp_dktrpt_docket_report?backto=P&case_id={case}",
	}
}

// oklahomaOSCN drives the Oklahoma State Courts Network over plain HTTP. Its
// result tables are large and uneven, so extraction runs through the
// streaming scanner strategy.
func oklahomaOSCN() *PortalProfile {
	return &PortalProfile{
		Name:      "oklahoma-oscn",
		State:     "OK",
		Engine:    EngineHTTP,
		SearchURL: "https://www.oscn.net/dockets/Results.aspx",
		Fields: []FieldSpec{
			{Field: "last_name", Patterns: []string{"lname"}, Order: 0},
			{Field: "first_name", Patterns: []string{"fname"}, Order: 1},
			{Field: "middle_name", Patterns: []string{"mname"}, Order: 2},
			{Field: "case_number", Patterns: []string{"number"}, Order: 3},
			{Field: "county", Kind: ControlSelect, Patterns: []string{"db"}, Order: 4},
			{Field: "filed_from", Patterns: []string{"filedDateL"}, Order: 5},
			{Field: "filed_to", Patterns: []string{"filedDateH"}, Order: 6},
		},
		Rows: []RowStrategy{
			{
				Name:        "case-court-table",
				RowSelector: "table.caseCourtTable tr.resultTableRow",
				MinCells:    4,
				Columns:     map[string]int{"case_number": 0, "filed_date": 1, "party_name": 3},
				LinkPattern: "GetCaseInformation",
				Stream:      true,
			},
			{
				Name:        "plain-table",
				RowSelector: "table tr",
				MinCells:    4,
				Columns:     map[string]int{"case_number": 0, "filed_date": 1, "party_name": 3},
				LinkPattern: "GetCaseInformation",
			},
		},
		SubmitMethod: "GET",
		Pagination:   PaginationSpec{NextText: "Next", PageParam: "page", MaxPages: 50},
		BlockerPhrases: map[string][]string{
			"waf": {"request rejected"},
		},
		EmptyPhrases: []string{"no matches found", "no records found"},
		RateInterval: time.Second,
		ResultsWait:  30 * time.Second,
		DocketURL:    "https://www.oscn.net/dockets/GetCaseInformation.aspx?number={case}",
	}
}
