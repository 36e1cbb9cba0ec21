package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryValidate(t *testing.T) {
	cases := []struct {
		name  string
		query SearchQuery
		valid bool
	}{
		{"last name only", SearchQuery{LastName: "Smith"}, true},
		{"case number only", SearchQuery{CaseNumber: "CJ-2024-1"}, true},
		{"business only", SearchQuery{BusinessName: "Acme Corp"}, true},
		{"first name only", SearchQuery{FirstName: "John"}, true},
		{"empty", SearchQuery{}, false},
		{"filters only", SearchQuery{County: "Tulsa", CaseType: "CJ", FiledFrom: "01/01/2023"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.query.Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidQuery)
			}
		})
	}

	var nilQuery *SearchQuery
	require.ErrorIs(t, nilQuery.Validate(), ErrInvalidQuery)
}

func TestQueryFieldValues(t *testing.T) {
	q := SearchQuery{
		LastName:  "Smith",
		FirstName: "John",
		County:    "Tulsa",
	}
	values := q.FieldValues()
	require.Equal(t, "Smith", values[FieldLastName])
	require.Equal(t, "John", values[FieldFirstName])
	require.Equal(t, "Tulsa", values[FieldCounty])

	// Empty fields are omitted entirely, not present as "".
	_, has := values[FieldCaseNumber]
	require.False(t, has)
	require.Len(t, values, 3)
}
