package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/profile"
)

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestResolveFormPatternOrder(t *testing.T) {
	// The control only matches the second pattern; the first must be tried
	// and passed over without stopping resolution.
	doc := parseDoc(t, `<form>
		<input id="partyLastName" type="text">
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"lname", "lastname"}},
	}

	resolved, warnings := ResolveForm(doc, specs, map[string]string{"last_name": "Smith"})
	require.Len(t, resolved, 1)
	require.Empty(t, warnings)
	require.Equal(t, "#partyLastName", resolved[0].Control.Selector)
	require.Equal(t, "Smith", resolved[0].Value)
}

func TestResolveFormFirstPatternWins(t *testing.T) {
	doc := parseDoc(t, `<form>
		<input name="search_name" type="text">
		<input name="lname" type="text">
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"lname", "name"}},
	}

	resolved, _ := ResolveForm(doc, specs, map[string]string{"last_name": "Smith"})
	require.Len(t, resolved, 1)
	require.Equal(t, "lname", resolved[0].Control.Name)
}

func TestResolveFormLabelText(t *testing.T) {
	doc := parseDoc(t, `<form>
		<label for="f1">Last Name</label>
		<input id="f1" type="text">
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"last name"}},
	}

	resolved, _ := ResolveForm(doc, specs, map[string]string{"last_name": "Smith"})
	require.Len(t, resolved, 1)
	require.Equal(t, "#f1", resolved[0].Control.Selector)
}

func TestResolveFormUnmatchedFieldWarns(t *testing.T) {
	doc := parseDoc(t, `<form><input name="lname" type="text"></form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"lname"}},
		{Field: "case_number", Patterns: []string{"casenum", "docket"}},
	}
	values := map[string]string{"last_name": "Smith", "case_number": "CJ-1"}

	resolved, warnings := ResolveForm(doc, specs, values)
	require.Len(t, resolved, 1)
	require.Len(t, warnings, 1)
	require.Equal(t, "case_number", warnings[0].Field)
}

func TestResolveFormDuplicateControlClaim(t *testing.T) {
	// Both specs land on the same control; the later one in fill order is
	// reported, not silently double-bound.
	doc := parseDoc(t, `<form><input name="name" type="text"></form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"name"}, Order: 0},
		{Field: "first_name", Patterns: []string{"name"}, Order: 1},
	}
	values := map[string]string{"last_name": "Smith", "first_name": "John"}

	resolved, warnings := ResolveForm(doc, specs, values)
	require.Len(t, resolved, 1)
	require.Equal(t, "last_name", resolved[0].Spec.Field)
	require.Len(t, warnings, 1)
	require.Equal(t, "first_name", warnings[0].Field)
	require.Contains(t, warnings[0].Reason, "last_name")
}

func TestResolveFormSelectOptions(t *testing.T) {
	doc := parseDoc(t, `<form>
		<select name="county">
			<option value="">All</option>
			<option value="056">Tulsa County</option>
			<option value="014">Yellowstone County</option>
		</select>
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "county", Kind: profile.ControlSelect, Patterns: []string{"county"}},
	}

	// Exact option value.
	resolved, warnings := ResolveForm(doc, specs, map[string]string{"county": "056"})
	require.Len(t, resolved, 1)
	require.Empty(t, warnings)
	require.Equal(t, "056", resolved[0].Value)

	// Visible label resolves to the option value.
	resolved, _ = ResolveForm(doc, specs, map[string]string{"county": "Tulsa County"})
	require.Len(t, resolved, 1)
	require.Equal(t, "056", resolved[0].Value)

	// Partial label match.
	resolved, _ = ResolveForm(doc, specs, map[string]string{"county": "yellowstone"})
	require.Len(t, resolved, 1)
	require.Equal(t, "014", resolved[0].Value)

	// No option matches: warning, not a bad fill.
	resolved, warnings = ResolveForm(doc, specs, map[string]string{"county": "Atlantis"})
	require.Empty(t, resolved)
	require.Len(t, warnings, 1)
}

func TestResolveFormKindCompatibility(t *testing.T) {
	// A text spec must not land on a select even when the pattern matches.
	doc := parseDoc(t, `<form>
		<select name="court_name"><option value="1">District</option></select>
		<input name="court_text" type="text">
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "court", Patterns: []string{"court"}},
	}

	resolved, _ := ResolveForm(doc, specs, map[string]string{"court": "District"})
	require.Len(t, resolved, 1)
	require.Equal(t, "court_text", resolved[0].Control.Name)
}

func TestResolveFormSkipsEmptyValues(t *testing.T) {
	doc := parseDoc(t, `<form><input name="lname" type="text"></form>`)
	specs := []profile.FieldSpec{
		{Field: "last_name", Patterns: []string{"lname"}},
	}

	resolved, warnings := ResolveForm(doc, specs, map[string]string{})
	require.Empty(t, resolved)
	require.Empty(t, warnings)
}

func TestResolveFormFixedValueRadio(t *testing.T) {
	doc := parseDoc(t, `<form>
		<input type="radio" name="search_mode" value="party">
		<input type="radio" name="search_mode" value="case">
	</form>`)
	specs := []profile.FieldSpec{
		{Field: "search_mode", Kind: profile.ControlRadio, Patterns: []string{"party"}, Value: "party"},
	}

	resolved, _ := ResolveForm(doc, specs, map[string]string{})
	require.Len(t, resolved, 1)
	require.Equal(t, "party", resolved[0].Value)
	require.Equal(t, profile.ControlRadio, resolved[0].Control.Kind)
}

// rerenderPage serves scripted markup and swaps to the next page when the
// rerendering select is applied.
type rerenderPage struct {
	content string
	next    string
	fills   map[string]int
}

func (p *rerenderPage) Navigate(ctx context.Context, url string) error { return nil }

func (p *rerenderPage) Content(ctx context.Context) (string, error) { return p.content, nil }

func (p *rerenderPage) URL() string { return "http://portal.test/search" }

func (p *rerenderPage) Fill(ctx context.Context, ref ControlRef, value string) error {
	p.fills[ref.Selector]++
	return nil
}

func (p *rerenderPage) Select(ctx context.Context, ref ControlRef, optionValue string) error {
	if p.next != "" {
		p.content = p.next
	}
	return nil
}

func (p *rerenderPage) Check(ctx context.Context, ref ControlRef, value string) error { return nil }

func (p *rerenderPage) Submit(ctx context.Context, selector string) error { return nil }

func (p *rerenderPage) SubmitFallback(ctx context.Context) error { return nil }

func (p *rerenderPage) ClickText(ctx context.Context, text string) (bool, error) {
	return false, nil
}

func (p *rerenderPage) NextPage(ctx context.Context, spec profile.PaginationSpec) (bool, error) {
	return false, nil
}

func (p *rerenderPage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

func (p *rerenderPage) Close() error { return nil }

func TestFillFormRerenderKeepsAppliedClaims(t *testing.T) {
	// After the county select re-renders the form, the case number patterns
	// suddenly match the party input that was already filled. The pending
	// field must warn about the collision instead of overwriting it.
	page := &rerenderPage{
		fills: make(map[string]int),
		content: `<form>
			<label for="party">Party Name</label>
			<input id="party" type="text">
			<select id="county"><option value="7">Lewis</option></select>
			<input id="caseNumber" type="text">
		</form>`,
		next: `<form>
			<label for="party">Case or Party Name</label>
			<input id="party" type="text">
			<select id="county"><option value="7">Lewis</option></select>
		</form>`,
	}
	p := &profile.PortalProfile{
		Name: "rerender-portal",
		Fields: []profile.FieldSpec{
			{Field: "last_name", Patterns: []string{"party"}, Order: 1},
			{Field: "county", Kind: profile.ControlSelect, Patterns: []string{"county"}, Order: 2, TriggersRerender: true},
			{Field: "case_number", Patterns: []string{"case"}, Order: 3},
		},
	}
	values := map[string]string{
		"last_name":   "Smith",
		"county":      "Lewis",
		"case_number": "CJ-2024-100",
	}

	applied, warnings, err := FillForm(context.Background(), page, p, values, testLogger().WithField("test", "fill"))
	require.NoError(t, err)
	require.Len(t, applied, 2)
	require.Equal(t, 1, page.fills["#party"], "the applied field must not be overwritten")

	require.Len(t, warnings, 1)
	require.Equal(t, "case_number", warnings[0].Field)
	require.Contains(t, warnings[0].Reason, "last_name")
}
