package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseTaxLabel(t *testing.T) {
	cases := []struct {
		label  string
		rate   int64
		parsed bool
	}{
		{"18% GST S", 18, true},
		{"5% GST S", 5, true},
		{"  12% GST", 12, true},
		{"28", 28, true},
		{"0% exempt", 0, true},
		{"", 18, false},
		{"GST 18%", 18, false},
		{"N/A", 18, false},
		{"250% bogus", 18, false},
	}
	for _, tc := range cases {
		rate, parsed := ParseTaxLabel(tc.label)
		require.True(t, rate.Equal(decimal.NewFromInt(tc.rate)), "label %q: rate %s", tc.label, rate)
		require.Equal(t, tc.parsed, parsed, "label %q", tc.label)
	}
}
