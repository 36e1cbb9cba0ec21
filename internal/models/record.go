package models

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// CaseRecord is the canonical, normalized representation of one matched case.
// Instances are produced only by the result extractors and are never mutated
// after being returned.
type CaseRecord struct {
	CaseNumber string `json:"case_number" example:"CJ-2024-1234"`
	PartyName  string `json:"party_name,omitempty" example:"SMITH, JOHN"`
	CaseType   string `json:"case_type,omitempty" example:"Civil"`
	FiledDate  string `json:"filed_date,omitempty" example:"03/15/2024"`
	Status     string `json:"status,omitempty" example:"Open"`
	Court      string `json:"court,omitempty" example:"District Court"`
	County     string `json:"county,omitempty" example:"Tulsa"`
	State      string `json:"state,omitempty" example:"OK"`
	SourceURL  string `json:"source_url,omitempty"`
	RawSnippet string `json:"raw_snippet,omitempty"`
}

// Empty reports whether the record carries neither a case number nor a raw
// snippet. Such rows are discarded, not emitted.
func (r *CaseRecord) Empty() bool {
	return strings.TrimSpace(r.CaseNumber) == "" && strings.TrimSpace(r.RawSnippet) == ""
}

// DedupKey derives the key used to deduplicate records within one search:
// the case number when present, otherwise a truncated hash of the raw snippet.
func (r *CaseRecord) DedupKey() string {
	if n := strings.TrimSpace(r.CaseNumber); n != "" {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(strings.TrimSpace(r.RawSnippet)))
	return fmt.Sprintf("snippet:%012x", h.Sum64()&0xffffffffffff)
}

// DedupRecords drops duplicate records in first-seen order and discards rows
// without a case number or snippet. A non-positive limit means no cap.
func DedupRecords(records []CaseRecord, limit int) []CaseRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]CaseRecord, 0, len(records))
	for _, rec := range records {
		if rec.Empty() {
			continue
		}
		key := rec.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// DocketEntry is one line of a case docket report, produced by the docket
// parser for portals that expose per-case detail pages.
type DocketEntry struct {
	Date   string `json:"date,omitempty" example:"03/15/2024"`
	Code   string `json:"code,omitempty" example:"MO"`
	Text   string `json:"text" example:"Motion for summary judgment"`
	Amount string `json:"amount,omitempty"`
	Party  string `json:"party,omitempty"`
	Type   string `json:"type" example:"filing"`
}

// DocketReport is the parsed docket of one case, with fee and administrative
// lines already filtered out.
type DocketReport struct {
	CaseNumber  string        `json:"case_number" example:"CJ-2024-1234"`
	Portal      string        `json:"portal" example:"oklahoma-oscn"`
	SourceURL   string        `json:"source_url,omitempty"`
	Entries     []DocketEntry `json:"entries"`
	FeesSkipped int           `json:"fees_skipped,omitempty"`
}

// Docket entry types, in classification priority order.
const (
	EntryOpinion = "opinion"
	EntryOrder   = "order"
	EntryHearing = "hearing"
	EntryFiling  = "filing"
	EntryOther   = "other"
)
