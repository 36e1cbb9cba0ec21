package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupKeyPrefersCaseNumber(t *testing.T) {
	rec := CaseRecord{CaseNumber: "CJ-2024-1234", RawSnippet: "anything"}
	require.Equal(t, "CJ-2024-1234", rec.DedupKey())

	rec.CaseNumber = "  CJ-2024-1234  "
	require.Equal(t, "CJ-2024-1234", rec.DedupKey())
}

func TestDedupKeySnippetHash(t *testing.T) {
	a := CaseRecord{RawSnippet: "SMITH, JOHN vs STATE"}
	b := CaseRecord{RawSnippet: "SMITH, JOHN vs STATE"}
	c := CaseRecord{RawSnippet: "DOE, JANE vs STATE"}

	require.True(t, strings.HasPrefix(a.DedupKey(), "snippet:"))
	require.Equal(t, a.DedupKey(), b.DedupKey())
	require.NotEqual(t, a.DedupKey(), c.DedupKey())

	// Leading and trailing whitespace must not change identity.
	d := CaseRecord{RawSnippet: "  SMITH, JOHN vs STATE  "}
	require.Equal(t, a.DedupKey(), d.DedupKey())
}

func TestDedupRecordsFirstSeenWins(t *testing.T) {
	records := []CaseRecord{
		{CaseNumber: "A-1", Status: "Open"},
		{CaseNumber: "A-2"},
		{CaseNumber: "A-1", Status: "Closed"},
		{RawSnippet: "row three"},
		{RawSnippet: "row three"},
	}

	out := DedupRecords(records, 0)
	require.Len(t, out, 3)
	require.Equal(t, "A-1", out[0].CaseNumber)
	require.Equal(t, "Open", out[0].Status)
	require.Equal(t, "A-2", out[1].CaseNumber)
	require.Equal(t, "row three", out[2].RawSnippet)
}

func TestDedupRecordsDropsEmptyAndHonorsLimit(t *testing.T) {
	records := []CaseRecord{
		{},
		{CaseNumber: "B-1"},
		{CaseNumber: "   ", RawSnippet: "  "},
		{CaseNumber: "B-2"},
		{CaseNumber: "B-3"},
	}

	out := DedupRecords(records, 2)
	require.Len(t, out, 2)
	require.Equal(t, "B-1", out[0].CaseNumber)
	require.Equal(t, "B-2", out[1].CaseNumber)

	// Non-positive limit means no cap.
	require.Len(t, DedupRecords(records, -1), 3)
}

func TestRecordEmpty(t *testing.T) {
	require.True(t, (&CaseRecord{}).Empty())
	require.True(t, (&CaseRecord{PartyName: "SMITH"}).Empty())
	require.False(t, (&CaseRecord{CaseNumber: "C-1"}).Empty())
	require.False(t, (&CaseRecord{RawSnippet: "text"}).Empty())
}
