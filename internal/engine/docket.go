package engine

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// Court-issued order codes and party-filing codes used by docket systems.
var (
	orderCodes  = set("OH", "ORD", "ORDR", "EPOI", "EPO", "JO", "CO", "SO", "CTFREE")
	filingCodes = set("MO", "PET", "ANS", "BR", "RESP", "MEMO", "AFF", "NOT", "EPOSV")

	feeCodes = set(
		"DMFE", "PFE7", "OCISR", "OCJC", "OCASA", "SSFCHSCPC", "CCADMINCSF",
		"CCADMIN", "SJFIS", "DCADMIN", "CCRMPF", "INDEBT", "LLF", "CVFEE",
		"VJCF", "CVMISC", "REGFEE", "TAXFEE", "FINE", "COST", "BOND",
	)
	feePrefixes = []string{"CCADMIN", "DCADMIN", "PFE", "SSF"}
)

var (
	opinionPhrases = []string{
		"opinion", "judgment entered", "verdict", "findings of fact",
		"conclusions of law", "memorandum decision", "final judgment",
		"summary judgment granted", "summary judgment denied",
		"case dismissed", "sustained", "overruled", "adjudicated",
	}
	orderStartPhrases = []string{
		"order ", "order:", "ordered", "court order", "judge order",
		"it is ordered", "the court orders", "order granting",
		"order denying", "order setting", "order on", "order to",
		"protective order issued", "emergency protective order issued",
		"injunction", "stay granted", "remand", "sentenc",
	}
	filingPhrases = []string{
		"motion", "petition", "complaint", "answer", "response",
		"brief", "memorandum", "affidavit", "notice of", "subpoena",
		"summons", "filed", "document available", "served",
	}
	hearingPhrases = []string{
		"hearing", "trial", "conference", "arraignment", "docket call",
	}
)

var amountRe = regexp.MustCompile(`^\d+\.\d{2}$`)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}

// ClassifyEntry derives a docket entry's type from its code and text.
// Priority: opinion > order > hearing > filing.
func ClassifyEntry(code, text string) string {
	lowered := strings.ToLower(text)
	upperCode := strings.ToUpper(code)

	for _, p := range opinionPhrases {
		if strings.Contains(lowered, p) {
			return models.EntryOpinion
		}
	}

	_, isOrderCode := orderCodes[upperCode]
	isOrder := isOrderCode
	if !isOrder {
		for _, p := range orderStartPhrases {
			if strings.HasPrefix(lowered, p) || strings.Contains(lowered, ": "+p) {
				isOrder = true
				break
			}
		}
	}
	if !isOrder && strings.HasPrefix(lowered, "order") && !strings.Contains(lowered, "motion") {
		isOrder = true
	}

	_, isFilingCode := filingCodes[upperCode]
	isFiling := isFilingCode
	if !isFiling {
		for _, p := range filingPhrases {
			if strings.Contains(lowered, p) {
				isFiling = true
				break
			}
		}
	}

	if isOrder && !isFiling {
		return models.EntryOrder
	}
	for _, p := range hearingPhrases {
		if strings.Contains(lowered, p) {
			return models.EntryHearing
		}
	}
	if isFiling {
		return models.EntryFiling
	}
	if isOrder {
		return models.EntryOrder
	}
	return models.EntryOther
}

// IsFeeEntry reports whether a docket line is a fee or administrative entry
// that should be dropped from the report.
func IsFeeEntry(code, text, amount string) bool {
	upperCode := strings.ToUpper(code)
	lowered := strings.ToLower(text)

	for _, prefix := range feePrefixes {
		if strings.HasPrefix(upperCode, prefix) {
			return true
		}
	}
	if _, fee := feeCodes[upperCode]; fee {
		return true
	}
	if amount != "" && (strings.Contains(lowered, "fee") || strings.Contains(lowered, "fund")) {
		return true
	}
	if len(code) > 10 {
		return true
	}
	if strings.Contains(lowered, "receipt #") || strings.Contains(lowered, "total amount paid") {
		return true
	}
	if strings.Contains(lowered, "ocis has automatically") {
		return true
	}
	if strings.HasPrefix(lowered, "adjusting entry") {
		return true
	}
	return false
}

// FetchDocket loads a case's detail page and parses its docket table. Only
// portals whose profile declares a docket URL template support this; the
// template's "{case}" placeholder receives the escaped case number.
func FetchDocket(ctx context.Context, session *Session, p *profile.PortalProfile, caseNumber string) (*models.DocketReport, error) {
	if p.DocketURL == "" {
		return nil, fmt.Errorf("portal %s does not expose docket pages", p.Name)
	}
	if strings.TrimSpace(caseNumber) == "" {
		return nil, fmt.Errorf("case number is required")
	}

	target := strings.ReplaceAll(p.DocketURL, "{case}", url.QueryEscape(caseNumber))
	if err := session.Page.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("docket page unreachable: %w", err)
	}
	content, err := session.Page.Content(ctx)
	if err != nil {
		return nil, err
	}
	if blocker := ClassifyBlocker(content, p); blocker != nil {
		return nil, fmt.Errorf("docket page blocked: %s", blocker.Kind)
	}

	entries, skipped, err := ParseDocket(content)
	if err != nil {
		return nil, err
	}
	return &models.DocketReport{
		CaseNumber:  caseNumber,
		Portal:      p.Name,
		SourceURL:   target,
		Entries:     entries,
		FeesSkipped: skipped,
	}, nil
}

// ParseDocket walks docket tables in the markup and emits classified entries
// with fee and administrative lines filtered out. Malformed rows are skipped,
// never fatal.
func ParseDocket(content string) ([]models.DocketEntry, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse docket page: %w", err)
	}

	rows := doc.Find("table.docketlist tr")
	if rows.Length() == 0 {
		rows = doc.Find("table.docket tr, table#docket tr")
	}
	if rows.Length() == 0 {
		return nil, 0, nil
	}

	var entries []models.DocketEntry
	skipped := 0
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		entry := mapDocketRow(cells)
		if entry.Text == "" {
			return
		}
		if IsFeeEntry(entry.Code, entry.Text, entry.Amount) {
			skipped++
			return
		}
		entry.Type = ClassifyEntry(entry.Code, entry.Text)
		entries = append(entries, entry)
	})
	return entries, skipped, nil
}

// mapDocketRow maps a docket table row positionally: date, code, description,
// then party and amount from whatever trailing cells carry them.
func mapDocketRow(cells *goquery.Selection) models.DocketEntry {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, normalizeText(cell.Text()))
	})

	entry := models.DocketEntry{
		Date: texts[0],
		Code: texts[1],
		Text: texts[2],
	}
	for _, t := range texts[3:] {
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, "$") || amountRe.MatchString(t) {
			entry.Amount = t
		} else if entry.Party == "" {
			entry.Party = t
		}
	}
	return entry
}
