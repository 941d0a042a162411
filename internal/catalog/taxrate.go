package catalog

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultGSTPercent applies when the catalog tax label is missing or cannot
// be parsed.
const DefaultGSTPercent = 18

var taxLabelPattern = regexp.MustCompile(`^\s*(\d+)`)

// ParseTaxLabel extracts the GST percentage from a legacy human-readable tax
// label such as "18% GST S". The leading integer is the rate; anything else
// falls back to DefaultGSTPercent. The second return reports whether the
// label actually parsed, so callers can log the fallback.
func ParseTaxLabel(label string) (decimal.Decimal, bool) {
	m := taxLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return decimal.NewFromInt(DefaultGSTPercent), false
	}
	rate, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || rate < 0 || rate > 100 {
		return decimal.NewFromInt(DefaultGSTPercent), false
	}
	return decimal.NewFromInt(rate), true
}
