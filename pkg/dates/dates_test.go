package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	n := Normalizer{Reference: ref}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso", "2023-03-03", "2023/03/03"},
		{"already canonical", "2023/03/03", "2023/03/03"},
		{"surrounding spaces", "  2023-03-03 ", "2023/03/03"},
		{"label before date", "Date: 2023-03-03", "2023/03/03"},
		{"month name", "March 3, 2023", "2023/03/03"},
		{"day before month", "3 March 2023", "2023/03/03"},
		{"ordinal day", "the 3rd of March, 2023", "2023/03/03"},
		{"abbreviated month", "Sept. 9 1999", "1999/09/09"},
		{"compact", "20230303", "2023/03/03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeFillsMissingComponents(t *testing.T) {
	n := Normalizer{Reference: ref}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no year", "March 3", "2024/03/03"},
		{"no year numeric", "3/3", "2024/03/03"},
		{"no day", "March 2023", "2023/03/15"},
		{"no day numeric", "2023-03", "2023/03/15"},
		{"no day month first", "03/2023", "2023/03/15"},
		{"no day short month", "Feb 2023", "2023/02/15"},
		{"year only", "1987", "1987/06/15"},
		{"issue line", "Vol. 12, No. 3, March 1987", "1987/03/15"},
		{"trailing words", "June 1987 issue 4", "1987/06/15"},
		{"year before month", "1987 June", "1987/06/15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeClampsReferenceDay(t *testing.T) {
	n := Normalizer{Reference: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)}

	got, err := n.Normalize("February 2023")
	require.NoError(t, err)
	assert.Equal(t, "2023/02/28", got)

	got, err = n.Normalize("February 2024")
	require.NoError(t, err)
	assert.Equal(t, "2024/02/29", got)
}

func TestNormalizeFailureKeepsText(t *testing.T) {
	n := Normalizer{Reference: ref}

	for _, in := range []string{"not a date", "", "   ", "Vol. 12, No. 3", "13/13"} {
		got, err := n.Normalize(in)
		require.Error(t, err)
		assert.Equal(t, in, got)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, in, pe.Text)
	}
}

func TestParseUsesLocation(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	n := Normalizer{Reference: ref, Location: loc}

	got, err := n.Parse("2023-03-03")
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
}
