package parser

import (
	"regexp"
	"strings"

	"MarketPull/internal/domain/models"
	"MarketPull/pkg/util"
)

// Dalby Regional Saleyards market report. The table follows a "Change"
// column header and rows carry a free-text description, a weight band, a
// c/kg price range and the average:
//
//	Light weight yearling steers 200-280 kg 310 - 398 365
//
// PDF extraction sometimes splits ordinal suffixes from the day number
// ("12 th March"), so the date is matched against a normalised copy.
var (
	dalbyHeadRe    = regexp.MustCompile(`(?i)(\d[\d,]+)\s+head`)
	dalbyOrdinalRe = regexp.MustCompile(`(?i)(\d)\s+(st|nd|rd|th)\b`)
	dalbyDateRe    = regexp.MustCompile(`(?i)(?:Monday|Tuesday|Wednesday|Thursday|Friday)\s+(\d+)(?:st|nd|rd|th)\s+(\w+)\s+(\d{4})`)
	dalbyRowRe     = regexp.MustCompile(`([A-Za-z][A-Za-z\s]{3,30}?)\s+(\d{2,3})-(\d{2,3})\s*kg\s+(\d+)\s*-\s*(\d+)\s+([\d,]+)`)
)

const dalbyTableAnchor = "Change"

// ParseDalby parses a Dalby Regional Saleyards market report.
func ParseDalby(text string, _ Hint) *models.SaleResult {
	th := totalHead(text, dalbyHeadRe)

	normalised := dalbyOrdinalRe.ReplaceAllString(text, "${1}${2}")
	dm := dalbyDateRe.FindStringSubmatch(normalised)
	if dm == nil {
		return nil
	}
	saleDate, ok := util.ParseDateWords(dm[1], dm[2], dm[3])
	if !ok {
		return nil
	}

	idx := strings.Index(text, dalbyTableAnchor)
	if idx == -1 {
		return nil
	}
	tableText := text[idx+len(dalbyTableAnchor):]

	var cohorts []models.WeightCohort
	for _, m := range dalbyRowRe.FindAllStringSubmatch(tableText, -1) {
		category := dalbyCategory(strings.TrimSpace(m[1]))
		if category == "" {
			continue
		}
		weightMin, okMin := parseIntLoose(m[2])
		weightMax, okMax := parseIntLoose(m[3])
		maxC, okMaxC := parseNum(m[5])
		avg, okAvg := parseNum(m[6])
		if !okMin || !okMax || !okAvg || !plausible(avg) {
			continue
		}
		cohort := models.WeightCohort{
			Category:  category,
			WeightMin: weightMin,
			WeightMax: intPtr(weightMax),
			AvgCKg:    avg,
		}
		if okMaxC {
			cohort.MaxCKg = floatPtr(maxC)
		}
		cohorts = append(cohorts, cohort)
	}

	if len(cohorts) == 0 {
		return nil
	}
	return &models.SaleResult{SaleDate: saleDate, TotalHead: th, Cohorts: cohorts}
}

func dalbyCategory(desc string) string {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "steer") || strings.Contains(d, "bullock"):
		return models.CategorySteer
	case strings.Contains(d, "heifer"):
		return models.CategoryHeifer
	case strings.Contains(d, "cow"):
		return models.CategoryCow
	}
	return ""
}
