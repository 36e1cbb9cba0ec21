package engine

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

const rawSnippetMax = 300

// Portals pad cells with &nbsp; runs, so U+00A0 counts as whitespace here.
var whitespaceRe = regexp.MustCompile(`[\s\x{00A0}]+`)

// normalizeText collapses runs of whitespace the way rendered row text is
// reported by every portal differently.
func normalizeText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncateSnippet(s string) string {
	s = normalizeText(s)
	if len(s) <= rawSnippetMax {
		return s
	}
	// Back off to a rune boundary so the cut never yields invalid UTF-8.
	cut := rawSnippetMax
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ExtractRecords maps the page's result rows to CaseRecords using the
// profile's ordered row strategies. The first strategy matching at least one
// row wins; strategies are never merged. A link-harvesting fallback runs only
// when every strategy matches nothing. Returns the deduplicated records and
// the count of malformed rows that were skipped. Pure function of the markup.
func ExtractRecords(content string, p *profile.PortalProfile, pageURL string, limit int) ([]models.CaseRecord, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, 0, err
	}

	base, _ := url.Parse(pageURL)

	for _, strategy := range p.Rows {
		var records []models.CaseRecord
		skipped := 0

		if strategy.Stream {
			records, skipped = scanStrategy(content, strategy, p, base)
		} else {
			records, skipped = applyStrategy(doc, strategy, p, base)
		}
		if len(records)+skipped == 0 {
			continue
		}
		return models.DedupRecords(records, limit), skipped, nil
	}

	// All table-like strategies came up empty: harvest anchors whose target
	// path resembles a case or docket view.
	return models.DedupRecords(harvestLinks(doc, p, base), limit), 0, nil
}

// applyStrategy maps each row matched by the strategy's selector. Missing
// cells yield empty strings; a row without a case number or snippet counts as
// skipped, never as an error.
func applyStrategy(doc *goquery.Document, strategy profile.RowStrategy, p *profile.PortalProfile, base *url.URL) ([]models.CaseRecord, int) {
	var records []models.CaseRecord
	skipped := 0

	doc.Find(strategy.RowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if strategy.MinCells > 0 && cells.Length() < strategy.MinCells {
			return
		}

		rec := mapRow(row, cells, strategy, p, base)
		if rec.Empty() {
			skipped++
			return
		}
		records = append(records, rec)
	})

	return records, skipped
}

func mapRow(row *goquery.Selection, cells *goquery.Selection, strategy profile.RowStrategy, p *profile.PortalProfile, base *url.URL) models.CaseRecord {
	rec := models.CaseRecord{
		State:      p.State,
		RawSnippet: truncateSnippet(row.Text()),
	}

	columns := strategy.Columns
	if len(columns) == 0 && len(strategy.Labels) > 0 {
		columns = labeledColumns(row, strategy.Labels)
	}
	for field, idx := range columns {
		value := ""
		if idx >= 0 && idx < cells.Length() {
			value = normalizeText(cells.Eq(idx).Text())
		}
		setRecordField(&rec, field, value)
	}

	if strategy.LinkPattern != "" {
		href, ok := row.Find(`a[href*="` + strategy.LinkPattern + `"]`).First().Attr("href")
		if ok {
			rec.SourceURL = resolveURL(base, href)
		}
	}
	return rec
}

// labeledColumns derives field -> cell-index from the row's table header when
// the strategy declares labeled cells instead of fixed positions.
func labeledColumns(row *goquery.Selection, labels map[string]string) map[string]int {
	headers := row.Closest("table").Find("th")
	columns := make(map[string]int)
	headers.Each(func(i int, th *goquery.Selection) {
		text := strings.ToLower(normalizeText(th.Text()))
		for field, label := range labels {
			if _, done := columns[field]; done {
				continue
			}
			if strings.Contains(text, strings.ToLower(label)) {
				columns[field] = i
			}
		}
	})
	return columns
}

func setRecordField(rec *models.CaseRecord, field, value string) {
	switch field {
	case "case_number":
		rec.CaseNumber = value
	case "party_name":
		rec.PartyName = value
	case "case_type":
		rec.CaseType = value
	case "filed_date":
		rec.FiledDate = value
	case "status":
		rec.Status = value
	case "court":
		rec.Court = value
	case "county":
		rec.County = value
	}
}

// caseLinkRe matches anchor targets that look like case or docket views.
var caseLinkRe = regexp.MustCompile(`(?i)(case|docket|dktrpt)`)

// harvestLinks is the last-resort extraction: anchors pointing at case/docket
// views become minimal records keyed by their visible text.
func harvestLinks(doc *goquery.Document, p *profile.PortalProfile, base *url.URL) []models.CaseRecord {
	var records []models.CaseRecord
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !caseLinkRe.MatchString(href) {
			return
		}
		text := normalizeText(a.Text())
		if len(text) < 6 {
			return
		}
		records = append(records, models.CaseRecord{
			CaseNumber: text,
			State:      p.State,
			SourceURL:  resolveURL(base, href),
			RawSnippet: text,
		})
	})
	return records
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// HasResults reports whether any configured row strategy matches at least one
// element, which is the results-surface signal the post-submit wait polls for.
func HasResults(content string, p *profile.PortalProfile) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return false
	}
	for _, strategy := range p.Rows {
		matched := false
		doc.Find(strategy.RowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if strategy.MinCells > 0 && row.Find("td").Length() < strategy.MinCells {
				return true
			}
			matched = true
			return false
		})
		if matched {
			return true
		}
	}
	return false
}
