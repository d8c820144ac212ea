// internal/normalize/amount.go
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/grantio/grantscraper/pkg/types"
)

// Czech amount multipliers as written on grant portals.
var multipliers = []struct {
	re     *regexp.Regexp
	factor float64
}{
	{regexp.MustCompile(`(?i)\bmld\.?\b|\bmiliard`), 1e9},
	{regexp.MustCompile(`(?i)\bmil\.?\b|\bmilion`), 1e6},
	{regexp.MustCompile(`(?i)\btis\.?\b|\btisíc`), 1e3},
}

var currencyRes = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`(?i)kč|czk|korun`), "CZK"},
	{regexp.MustCompile(`(?i)€|\beur\b`), "EUR"},
}

// amountRe matches a number with Czech thousand separators (spaces,
// including non-breaking, or dots) and an optional decimal comma.
var amountRe = regexp.MustCompile(`\d+(?:[ \x{00a0}.]\d{3})*(?:,\d+)?`)

// ParseAmount converts a Czech monetary string like "5 000 000 Kč" or
// "1,5 mil. Kč" into a value in whole currency units plus the currency
// code. Returns ok=false when no number is present.
func ParseAmount(s string) (value float64, currency string, ok bool) {
	s = strings.ReplaceAll(s, " ", " ")

	match := amountRe.FindString(s)
	if match == "" {
		return 0, "", false
	}

	numeric := strings.ReplaceAll(match, " ", "")
	numeric = strings.ReplaceAll(numeric, " ", "")
	numeric = strings.ReplaceAll(numeric, ".", "")
	numeric = strings.ReplaceAll(numeric, ",", ".")

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, "", false
	}

	for _, m := range multipliers {
		if m.re.MatchString(s) {
			value *= m.factor
			break
		}
	}

	for _, c := range currencyRes {
		if c.re.MatchString(s) {
			currency = c.code
			break
		}
	}

	return value, currency, true
}

var rangeRe = regexp.MustCompile(`(\d[\d \x{00a0}.]*(?:,\d+)?)\s*(?:–|-|až)\s*(\d[\d \x{00a0}.]*(?:,\d+)?)`)

// ParseFundingField interprets a value extracted from a dedicated
// funding field. A range fills both bounds; a bare amount is the upper
// bound of support, because that is what portals publish when they
// publish one number.
func ParseFundingField(s string) types.FundingAmount {
	if funding := ExtractFunding(s); !funding.IsZero() {
		return funding
	}

	var funding types.FundingAmount
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		if lo, cur, ok := ParseAmount(m[1]); ok {
			funding.Min = lo
			funding.Currency = cur
		}
		if hi, cur, ok := ParseAmount(m[2] + currencySuffix(s)); ok {
			funding.Max = hi
			if funding.Currency == "" {
				funding.Currency = cur
			}
		}
		// A shared multiplier after the range applies to both bounds.
		for _, mult := range multipliers {
			if mult.re.MatchString(s) {
				funding.Min *= mult.factor
				funding.Max *= mult.factor
				break
			}
		}
		if funding.Currency == "" {
			funding.Currency = currencyOf(s)
		}
		return withDefaultCurrency(funding)
	}

	if v, cur, ok := ParseAmount(s); ok {
		funding.Max = v
		funding.Currency = cur
	}
	return withDefaultCurrency(funding)
}

// withDefaultCurrency fills in CZK for amounts published without a
// currency token. Czech portals omit the token far more often than
// they price in anything but crowns.
func withDefaultCurrency(f types.FundingAmount) types.FundingAmount {
	if !f.IsZero() && f.Currency == "" {
		f.Currency = "CZK"
	}
	return f
}

func currencyOf(s string) string {
	for _, c := range currencyRes {
		if c.re.MatchString(s) {
			return c.code
		}
	}
	return ""
}

func currencySuffix(s string) string {
	if code := currencyOf(s); code != "" {
		return " " + code
	}
	return ""
}

// Funding-bound keywords. A bound keyword wins over an allocation
// keyword when both precede the same number, so "maximální výše
// dotace" is never misread as the program's total budget.
var (
	minKeywordRe   = regexp.MustCompile(`(?i)(minimální\s+(?:výše|částka|hodnota)[^0-9]{0,40}|min\.\s*(?:výše|částka)[^0-9]{0,30})([^;\n]{0,60})`)
	maxKeywordRe   = regexp.MustCompile(`(?i)(maximální\s+(?:výše|částka|hodnota)[^0-9]{0,40}|max\.\s*(?:výše|částka)[^0-9]{0,30})([^;\n]{0,60})`)
	totalKeywordRe = regexp.MustCompile(`(?i)(alokace|celková\s+alokace|rozpočet\s+výzvy|celkov[áý]\s+(?:rozpočet|částka)|k\s+dispozici\s+je)([^;\n]{0,60})`)
)

// ExtractFunding scans free text for funding bounds and the total
// allocation. Each bound is taken from the amount nearest after its
// keyword; text without keywords yields a zero FundingAmount.
func ExtractFunding(text string) types.FundingAmount {
	var funding types.FundingAmount

	if m := minKeywordRe.FindStringSubmatch(text); m != nil {
		if v, cur, ok := ParseAmount(m[2]); ok {
			funding.Min = v
			if funding.Currency == "" {
				funding.Currency = cur
			}
		}
	}

	if m := maxKeywordRe.FindStringSubmatch(text); m != nil {
		if v, cur, ok := ParseAmount(m[2]); ok {
			funding.Max = v
			if funding.Currency == "" {
				funding.Currency = cur
			}
		}
	}

	if m := totalKeywordRe.FindStringSubmatch(text); m != nil {
		if v, cur, ok := ParseAmount(m[2]); ok {
			funding.Total = v
			if funding.Currency == "" {
				funding.Currency = cur
			}
		}
	}

	return withDefaultCurrency(funding)
}
