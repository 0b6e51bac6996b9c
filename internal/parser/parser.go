// Package parser recovers structured per-weight-cohort price tables from the
// flat text of saleyard auction report PDFs. Each report publisher has its
// own layout, so each gets its own parser behind the common Func shape.
//
// Parsers are tolerant: upstream formats are not contractually guaranteed
// and drift over time. Missing structure yields fewer cohorts or a nil
// result, never an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"MarketPull/internal/domain/models"
)

// Hint carries per-candidate context a parser may need. Warwick reports have
// no parseable date header, so the candidate's sale date is pre-supplied.
type Hint struct {
	SaleDate string
}

// Func is a source-specific report parser. A nil result means "this
// document could not be understood" and excludes it from the sales list.
type Func func(text string, hint Hint) *models.SaleResult

// Prices outside this band are parse artifacts (dollar totals, yard
// numbers) accidentally captured by a row pattern.
const (
	minPlausibleCKg = 50
	maxPlausibleCKg = 1500
)

func plausible(avgCKg float64) bool {
	return avgCKg >= minPlausibleCKg && avgCKg <= maxPlausibleCKg
}

// parseNum parses a numeric token that may contain thousands separators.
func parseNum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseIntLoose(s string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return v, true
}

// totalHead extracts an optional aggregate head count with the given loose
// pattern; absence is tolerated.
func totalHead(text string, re *regexp.Regexp) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if v, ok := parseIntLoose(m[1]); ok {
		return &v
	}
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
