package omdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw    string
		want   float64
		absent bool
	}{
		{raw: "$123,456,789", want: 123456789.0},
		{raw: "$1,234.50", want: 1234.5},
		{raw: "€2,000", want: 2000},
		{raw: " $5 ", want: 5},
		{raw: "N/A", absent: true},
		{raw: "n/a", absent: true},
		{raw: "", absent: true},
		{raw: "$abc", absent: true},
		{raw: "$0", absent: true},
		{raw: "-$5", absent: true},
		{raw: "NaN", absent: true},
		{raw: "Inf", absent: true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got := ParseMoney(tc.raw)
			if tc.absent {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tc.want, *got, 1e-9)
		})
	}
}

func TestOptionalString(t *testing.T) {
	t.Parallel()

	assert.Nil(t, optionalString("N/A"))
	assert.Nil(t, optionalString("  "))
	got := optionalString("Christopher Nolan")
	require.NotNil(t, got)
	assert.Equal(t, "Christopher Nolan", *got)
}
