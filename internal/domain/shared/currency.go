package shared

import (
	"sort"
	"strings"
)

// Currency is an ISO 4217 code in upper case
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyGHS Currency = "GHS"
)

// DefaultSupportedCurrencies is used when no whitelist is configured
var DefaultSupportedCurrencies = []Currency{CurrencyNGN, CurrencyGHS}

// CurrencySet is the whitelist of currencies the platform holds wallets in
type CurrencySet map[Currency]struct{}

func NewCurrencySet(codes ...string) CurrencySet {
	set := make(CurrencySet, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		set[Currency(code)] = struct{}{}
	}
	if len(set) == 0 {
		for _, c := range DefaultSupportedCurrencies {
			set[c] = struct{}{}
		}
	}
	return set
}

// Parse upper-cases raw and checks it against the whitelist.
// field names the input in the validation message, e.g. "fromCurrency".
func (s CurrencySet) Parse(field, raw string) (Currency, error) {
	code := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := s[code]; !ok {
		return "", Validation("Invalid %s. Use %s.", field, s.describe())
	}
	return code, nil
}

func (s CurrencySet) Contains(c Currency) bool {
	_, ok := s[c]
	return ok
}

func (s CurrencySet) describe() string {
	codes := make([]string, 0, len(s))
	for _, c := range DefaultSupportedCurrencies {
		if s.Contains(c) {
			codes = append(codes, string(c))
		}
	}
	var extra []string
	for c := range s {
		if c != CurrencyNGN && c != CurrencyGHS {
			extra = append(extra, string(c))
		}
	}
	sort.Strings(extra)
	codes = append(codes, extra...)
	if len(codes) == 2 {
		return codes[0] + " or " + codes[1]
	}
	return strings.Join(codes, ", ")
}
