package models

// SearchQuery holds the criteria for one case search. All fields are optional,
// but at least one identifying field must be set (see Validate).
type SearchQuery struct {
	LastName     string `json:"last_name,omitempty" example:"Smith"`
	FirstName    string `json:"first_name,omitempty" example:"John"`
	MiddleName   string `json:"middle_name,omitempty"`
	BusinessName string `json:"business_name,omitempty" example:"Acme Corp"`
	CaseNumber   string `json:"case_number,omitempty" example:"CJ-2024-1234"`
	FiledFrom    string `json:"filed_from,omitempty" example:"01/01/2023"`
	FiledTo      string `json:"filed_to,omitempty" example:"12/31/2023"`
	County       string `json:"county,omitempty" example:"Yellowstone"`
	Court        string `json:"court,omitempty"`
	CaseType     string `json:"case_type,omitempty" example:"CJ"`
}

// identifying reports whether the query carries at least one field that can
// actually select cases. County/court/type/date filters alone cannot.
func (q *SearchQuery) identifying() bool {
	return q.LastName != "" || q.FirstName != "" || q.BusinessName != "" || q.CaseNumber != ""
}

// Validate checks the query before any network or render operation happens.
func (q *SearchQuery) Validate() error {
	if q == nil || !q.identifying() {
		return ErrInvalidQuery
	}
	return nil
}

// FieldValues maps logical field names to the query values that should be
// filled into a portal's form. Empty values are omitted so the form resolver
// only touches controls the caller actually asked for.
func (q *SearchQuery) FieldValues() map[string]string {
	values := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			values[name] = value
		}
	}
	set(FieldLastName, q.LastName)
	set(FieldFirstName, q.FirstName)
	set(FieldMiddleName, q.MiddleName)
	set(FieldBusinessName, q.BusinessName)
	set(FieldCaseNumber, q.CaseNumber)
	set(FieldFiledFrom, q.FiledFrom)
	set(FieldFiledTo, q.FiledTo)
	set(FieldCounty, q.County)
	set(FieldCourt, q.Court)
	set(FieldCaseType, q.CaseType)
	return values
}

// Logical field names shared between SearchQuery and portal FieldSpecs.
const (
	FieldLastName     = "last_name"
	FieldFirstName    = "first_name"
	FieldMiddleName   = "middle_name"
	FieldBusinessName = "business_name"
	FieldCaseNumber   = "case_number"
	FieldFiledFrom    = "filed_from"
	FieldFiledTo      = "filed_to"
	FieldCounty       = "county"
	FieldCourt        = "court"
	FieldCaseType     = "case_type"
	FieldSearchMode   = "search_mode"
)
