package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/publicvector/courtsearch/internal/models"
)

func TestClassifyEntry(t *testing.T) {
	cases := []struct {
		name string
		code string
		text string
		want string
	}{
		{"order code", "ORD", "Protective order review set", models.EntryOrder},
		{"order code lowercase input", "ord", "review set", models.EntryOrder},
		{"order phrase", "", "ORDER GRANTING MOTION TO CONTINUE", models.EntryOrder},
		{"opinion beats order", "ORD", "Final judgment entered for plaintiff", models.EntryOpinion},
		{"opinion phrase", "", "Summary judgment granted", models.EntryOpinion},
		{"filing code", "MO", "Defendant's submission", models.EntryFiling},
		{"filing phrase", "", "Motion to dismiss filed by defendant", models.EntryFiling},
		{"hearing beats filing", "", "Hearing on motion to dismiss", models.EntryHearing},
		{"hearing phrase", "", "Jury trial set for 09/01/2024", models.EntryHearing},
		{"plain entry", "XX", "Return mail", models.EntryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyEntry(tc.code, tc.text))
		})
	}
}

func TestClassifyEntryOrderVsFiling(t *testing.T) {
	// An order code with filing language in the text is still a court
	// action, not a party filing.
	require.Equal(t, models.EntryFiling, ClassifyEntry("ORD", "Motion for order filed"))
	require.Equal(t, models.EntryOrder, ClassifyEntry("", "Order denying relief"))
}

func TestIsFeeEntry(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		text   string
		amount string
		fee    bool
	}{
		{"admin prefix", "CCADMINCSF", "Court clerk administrative fee", "", true},
		{"fee code", "PFE7", "Filing fee", "", true},
		{"amount with fee text", "XX", "Law library fee", "15.00", true},
		{"amount with fund text", "XX", "Victims compensation fund", "3.00", true},
		{"long code", "VERYLONGCODE1", "Something", "", true},
		{"receipt line", "", "RECEIPT # 2024-123456 issued", "", true},
		{"ocis aggregation", "", "OCIS has automatically assigned this payment", "", true},
		{"adjusting entry", "", "Adjusting entry: reversal", "", true},
		{"substantive motion", "MO", "Motion for summary judgment", "", false},
		{"amount without fee text", "MO", "Bond posted", "500.00", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.fee, IsFeeEntry(tc.code, tc.text, tc.amount))
		})
	}
}

const docketPage = `<html><body>
<table class="docketlist">
	<tr><th>Date</th><th>Code</th><th>Description</th><th>Party</th><th>Amount</th></tr>
	<tr><td>01/02/2024</td><td>PET</td><td>Petition for protective order</td><td>SMITH, JOHN</td><td></td></tr>
	<tr><td>01/02/2024</td><td>CCADMINCSF</td><td>Court clerk admin fee</td><td></td><td>10.00</td></tr>
	<tr><td>01/15/2024</td><td>OH</td><td>Emergency protective order issued</td><td></td><td></td></tr>
	<tr><td>02/01/2024</td><td></td><td></td><td></td><td></td></tr>
</table>
</body></html>`

func TestParseDocket(t *testing.T) {
	entries, skipped, err := ParseDocket(docketPage)
	require.NoError(t, err)
	require.Equal(t, 1, skipped, "the fee line is counted, not emitted")
	require.Len(t, entries, 2)

	require.Equal(t, "01/02/2024", entries[0].Date)
	require.Equal(t, "PET", entries[0].Code)
	require.Equal(t, models.EntryFiling, entries[0].Type)
	require.Equal(t, "SMITH, JOHN", entries[0].Party)

	require.Equal(t, "OH", entries[1].Code)
	require.Equal(t, models.EntryOrder, entries[1].Type)
}

func TestParseDocketNoTable(t *testing.T) {
	entries, skipped, err := ParseDocket(`<html><body><p>Nothing here</p></body></html>`)
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Empty(t, entries)
}

func TestParseDocketFallbackSelector(t *testing.T) {
	page := `<table id="docket">
		<tr><td>03/01/2024</td><td>ANS</td><td>Answer filed</td></tr>
	</table>`
	entries, _, err := ParseDocket(page)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntryFiling, entries[0].Type)
}
