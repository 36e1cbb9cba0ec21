package engine

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/publicvector/courtsearch/internal/models"
	"github.com/publicvector/courtsearch/internal/profile"
)

// streamScanner is a stateful markup scanner for pure-HTTP portals: it walks
// the token stream tracking whether it is inside a results table, inside a
// result row and inside a cell, and assembles one CaseRecord per closed row.
// It never builds a DOM, so arbitrarily large result pages stream through it.
type streamScanner struct {
	tableClass string
	rowClass   string

	inTable bool
	inRow   bool
	inCell  bool
	depth   int // nested tables inside the results table

	cellBuf  strings.Builder
	cellLink string
	rowCells []streamCell
}

type streamCell struct {
	text string
	link string
}

// scanSelector splits a "table.X tr.Y" style selector into the class
// substrings the scanner keys on. Missing classes match any table/row.
func scanSelector(selector string) (tableClass, rowClass string) {
	for _, part := range strings.Fields(selector) {
		switch {
		case strings.HasPrefix(part, "table"):
			tableClass = strings.TrimPrefix(strings.TrimPrefix(part, "table"), ".")
		case strings.HasPrefix(part, "tr"):
			rowClass = strings.TrimPrefix(strings.TrimPrefix(part, "tr"), ".")
		}
	}
	return tableClass, rowClass
}

// scanStrategy runs one Stream row strategy over raw markup and maps the
// closed rows exactly like the DOM extractor: positional columns, entity
// cleanup, link capture, malformed rows skipped and counted.
func scanStrategy(content string, strategy profile.RowStrategy, p *profile.PortalProfile, base *url.URL) ([]models.CaseRecord, int) {
	tableClass, rowClass := scanSelector(strategy.RowSelector)
	s := &streamScanner{tableClass: tableClass, rowClass: rowClass}

	var records []models.CaseRecord
	skipped := 0

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := collectAttrs(z, hasAttr)
			s.startTag(string(name), attrs)
		case html.EndTagToken:
			name, _ := z.TagName()
			if row, closed := s.endTag(string(name)); closed {
				// Short rows are headers or spacers, not malformed results.
				if strategy.MinCells > 0 && len(row) < strategy.MinCells {
					continue
				}
				rec, ok := s.mapRow(row, strategy, p, base)
				if ok {
					records = append(records, rec)
				} else {
					skipped++
				}
			}
		case html.TextToken:
			s.text(string(z.Text()))
		}
	}

	return records, skipped
}

func collectAttrs(z *html.Tokenizer, hasAttr bool) map[string]string {
	if !hasAttr {
		return nil
	}
	attrs := make(map[string]string)
	for {
		key, value, more := z.TagAttr()
		attrs[string(key)] = string(value)
		if !more {
			break
		}
	}
	return attrs
}

func (s *streamScanner) startTag(tag string, attrs map[string]string) {
	switch tag {
	case "table":
		if s.inTable {
			s.depth++
			return
		}
		if s.tableClass == "" || strings.Contains(attrs["class"], s.tableClass) {
			s.inTable = true
		}
	case "tr":
		if !s.inTable || s.depth > 0 || s.inRow {
			return
		}
		if s.rowClass == "" || strings.Contains(attrs["class"], s.rowClass) {
			s.inRow = true
			s.rowCells = nil
		}
	case "td", "th":
		if s.inRow && s.depth == 0 {
			s.inCell = true
			s.cellBuf.Reset()
			s.cellLink = ""
		}
	case "a":
		if s.inCell {
			if href := attrs["href"]; href != "" && s.cellLink == "" {
				s.cellLink = href
			}
		}
	case "br":
		if s.inCell {
			s.cellBuf.WriteByte(' ')
		}
	}
}

// endTag closes the scanner's current scope; a closed result row is returned
// to the caller for mapping.
func (s *streamScanner) endTag(tag string) ([]streamCell, bool) {
	switch tag {
	case "table":
		if s.depth > 0 {
			s.depth--
			return nil, false
		}
		s.inTable = false
		s.inRow = false
		s.inCell = false
	case "tr":
		if s.inRow && s.depth == 0 {
			s.inRow = false
			row := s.rowCells
			s.rowCells = nil
			return row, true
		}
	case "td", "th":
		if s.inCell {
			s.inCell = false
			// Tokenizer text arrives with entities already decoded.
			s.rowCells = append(s.rowCells, streamCell{
				text: normalizeText(s.cellBuf.String()),
				link: s.cellLink,
			})
		}
	}
	return nil, false
}

func (s *streamScanner) text(data string) {
	if s.inCell {
		s.cellBuf.WriteString(data)
	}
}

func (s *streamScanner) mapRow(row []streamCell, strategy profile.RowStrategy, p *profile.PortalProfile, base *url.URL) (models.CaseRecord, bool) {
	var raw strings.Builder
	for i, cell := range row {
		if i > 0 {
			raw.WriteByte(' ')
		}
		raw.WriteString(cell.text)
	}

	rec := models.CaseRecord{
		State:      p.State,
		RawSnippet: truncateSnippet(raw.String()),
	}
	for field, idx := range strategy.Columns {
		value := ""
		if idx >= 0 && idx < len(row) {
			value = row[idx].text
		}
		setRecordField(&rec, field, value)
	}
	if strategy.LinkPattern != "" {
		for _, cell := range row {
			if cell.link != "" && strings.Contains(cell.link, strategy.LinkPattern) {
				rec.SourceURL = resolveURL(base, cell.link)
				break
			}
		}
	}

	if rec.Empty() {
		return models.CaseRecord{}, false
	}
	return rec, true
}
