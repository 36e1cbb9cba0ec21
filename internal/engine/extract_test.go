package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/profile"
)

func tableProfile() *profile.PortalProfile {
	return &profile.PortalProfile{
		Name:  "test-portal",
		State: "OK",
		Rows: []profile.RowStrategy{
			{
				Name:        "results-table",
				RowSelector: "table.results tr",
				MinCells:    3,
				Columns:     map[string]int{"case_number": 0, "party_name": 1, "filed_date": 2},
				LinkPattern: "case",
			},
			{
				Name:        "case-cards",
				RowSelector: ".case-item",
			},
		},
	}
}

const resultsPage = `<html><body>
<table class="results">
	<tr><th>Case</th><th>Party</th><th>Filed</th></tr>
	<tr><td><a href="/case?id=1">CJ-2024-1</a></td><td>SMITH, JOHN</td><td>01/02/2024</td></tr>
	<tr><td><a href="/case?id=2">CJ-2024-2</a></td><td>DOE, JANE</td><td>02/03/2024</td></tr>
	<tr><td><a href="/case?id=1">CJ-2024-1</a></td><td>SMITH, JOHN</td><td>01/02/2024</td></tr>
</table>
</body></html>`

func TestExtractRecordsTable(t *testing.T) {
	p := tableProfile()
	records, skipped, err := ExtractRecords(resultsPage, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Zero(t, skipped)

	// The duplicate third row collapses onto the first.
	require.Len(t, records, 2)
	require.Equal(t, "CJ-2024-1", records[0].CaseNumber)
	require.Equal(t, "SMITH, JOHN", records[0].PartyName)
	require.Equal(t, "01/02/2024", records[0].FiledDate)
	require.Equal(t, "OK", records[0].State)
	require.Equal(t, "https://portal.test/case?id=1", records[0].SourceURL)
	require.NotEmpty(t, records[0].RawSnippet)
}

func TestExtractRecordsIdempotent(t *testing.T) {
	p := tableProfile()
	first, _, err := ExtractRecords(resultsPage, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	second, _, err := ExtractRecords(resultsPage, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExtractRecordsLimit(t *testing.T) {
	p := tableProfile()
	records, _, err := ExtractRecords(resultsPage, p, "https://portal.test/search", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "CJ-2024-1", records[0].CaseNumber)
}

func TestExtractRecordsStrategyOrder(t *testing.T) {
	// The table strategy matches nothing here, so the card strategy runs.
	// Strategies are never merged.
	page := `<html><body>
		<div class="case-item"><a href="/case?id=9">CV-2023-9</a> MILLER, AMY</div>
		<table class="results"></table>
	</body></html>`
	p := tableProfile()
	p.Rows[1].LinkPattern = "case"

	records, _, err := ExtractRecords(page, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Contains(t, records[0].RawSnippet, "MILLER, AMY")
	require.Equal(t, "https://portal.test/case?id=9", records[0].SourceURL)
}

func TestExtractRecordsMalformedRowsSkipped(t *testing.T) {
	page := `<html><body>
	<table class="results">
		<tr><td></td><td></td><td></td></tr>
		<tr><td>CJ-2024-5</td><td>BROWN, BOB</td><td>03/04/2024</td></tr>
	</table>
	</body></html>`
	p := tableProfile()

	records, skipped, err := ExtractRecords(page, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, skipped)
}

func TestExtractRecordsLinkFallback(t *testing.T) {
	// No strategy matches anything; case-looking anchors are harvested.
	page := `<html><body>
		<a href="/nav/home">Home</a>
		<a href="/docket/view?id=7">CF-2022-77</a>
	</body></html>`
	p := tableProfile()

	records, skipped, err := ExtractRecords(page, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Len(t, records, 1)
	require.Equal(t, "CF-2022-77", records[0].CaseNumber)
	require.Equal(t, "https://portal.test/docket/view?id=7", records[0].SourceURL)
}

func TestExtractRecordsLabeledColumns(t *testing.T) {
	page := `<html><body>
	<table class="results">
		<tr><th>Docket Number</th><th>Defendant</th><th>Date Filed</th></tr>
		<tr><td>CR-2024-11</td><td>GREEN, SAM</td><td>05/06/2024</td></tr>
	</table>
	</body></html>`
	p := &profile.PortalProfile{
		Name: "labeled",
		Rows: []profile.RowStrategy{
			{
				Name:        "labeled-table",
				RowSelector: "table.results tr",
				MinCells:    3,
				Labels:      map[string]string{"case_number": "docket", "party_name": "defendant", "filed_date": "filed"},
			},
		},
	}

	records, _, err := ExtractRecords(page, p, "https://portal.test/search", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "CR-2024-11", records[0].CaseNumber)
	require.Equal(t, "GREEN, SAM", records[0].PartyName)
	require.Equal(t, "05/06/2024", records[0].FiledDate)
}

func TestHasResults(t *testing.T) {
	p := tableProfile()
	require.True(t, HasResults(resultsPage, p))
	require.False(t, HasResults(`<html><body><p>Searching...</p></body></html>`, p))

	// Header-only tables do not count as a results surface.
	headerOnly := `<table class="results"><tr><th>Case</th></tr></table>`
	require.False(t, HasResults(headerOnly, p))
}

func TestNormalizeText(t *testing.T) {
	require.Equal(t, "SMITH, JOHN vs STATE", normalizeText("  SMITH,\n\tJOHN   vs  STATE "))
	require.Equal(t, "", normalizeText("   \n\t "))
}

func TestTruncateSnippetRuneBoundary(t *testing.T) {
	require.Equal(t, "short", truncateSnippet("short"))

	// One leading ASCII byte shifts every following two-byte rune off the
	// byte ceiling, so a naive slice would split one in half.
	long := "a" + strings.Repeat("é", 200)
	got := truncateSnippet(long)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, "a"+strings.Repeat("é", 149), got)
	require.Less(t, len(got), rawSnippetMax)

	exact := strings.Repeat("x", rawSnippetMax)
	require.Equal(t, exact, truncateSnippet(exact))
}
