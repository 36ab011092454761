package report

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the reconciliation tolerance applied to every consumption,
// charge, rate-outlier and trend comparison.
var Tolerance = decimal.NewFromFloat(0.05)

// Sentinel labels for records whose apartment field is empty.
const (
	NoAddress   = "Brak adresu"
	NoApartment = "Brak lokalu"
)

// ParseNumber reads a locale-formatted number. Both "," and "." are accepted
// as decimal marks; when both appear, "." is taken as the thousands separator
// and "," as the decimal mark ("12.345,67" -> 12345.67). Plain and NBSP spaces
// are stripped ("1 234,56" -> 1234.56).
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Round2 rounds to two decimal places. Applied at every aggregation boundary
// so exported figures never accumulate floating-point drift.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// round2p rounds a nullable decimal in place.
func round2p(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(2)
	return &r
}

// withinTolerance reports |a-b| <= Tolerance.
func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(Tolerance) <= 0
}

// SplitApartment splits a raw apartment label on the first "/" into address
// and unit. Labels without "/" stand for both; empty labels map to the
// sentinel values.
func SplitApartment(label string) (address, unit string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return NoAddress, NoApartment
	}
	if i := strings.Index(label, "/"); i >= 0 {
		address = strings.TrimSpace(label[:i])
		unit = strings.TrimSpace(label[i+1:])
		if address == "" {
			address = NoAddress
		}
		if unit == "" {
			unit = NoApartment
		}
		return address, unit
	}
	return label, label
}

// CompareApartments orders apartment units numerically by their leading
// integer, then lexicographically by the remainder, so "10" sorts after "2".
func CompareApartments(a, b string) int {
	an, ar, aok := splitLeadingInt(a)
	bn, br, bok := splitLeadingInt(b)
	if aok && bok {
		if an != bn {
			if an < bn {
				return -1
			}
			return 1
		}
		return strings.Compare(ar, br)
	}
	return strings.Compare(a, b)
}

func splitLeadingInt(s string) (n int64, rest string, ok bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}
