package parser

import (
	"regexp"
	"strings"

	"MarketPull/internal/domain/models"
	"MarketPull/pkg/util"
)

// Roma Store council summary report. Extraction produces flat
// space-separated text; the price table follows the "Maximum $ / head"
// column header and reads, per row:
//
//	Steers to 200kg 422 472 656 897    (avg c/kg, max c/kg, avg $/hd, max $/hd)
//	200 – 280kg 529 592 1,307 1,551
//	Over 600kg 446 466 2,894 3,567
//
// The category keyword may appear only at the first row of each group.
var (
	romaHeadRe    = regexp.MustCompile(`(?i)total of\s+([\d,]+)\s+head`)
	romaDateRe    = regexp.MustCompile(`(?i)(?:Monday|Tuesday|Wednesday|Thursday|Friday),?\s+(\d+)\s+(\w+)\s+(\d{4})`)
	romaSectionRe = regexp.MustCompile(`\b(Steers?|Heifers?|Cows?|Bulls?)\b`)
	romaRowRe     = regexp.MustCompile(`(?:to\s+(\d+)|(\d+)\s*[–-]\s*(\d+)|[Oo]ver\s+(\d+))\s*kg\s+([\d,]+)\s+([\d,]+)`)
)

const romaTableAnchor = "$ / head"

// ParseRoma parses a Roma Store summary report.
func ParseRoma(text string, _ Hint) *models.SaleResult {
	th := totalHead(text, romaHeadRe)

	dm := romaDateRe.FindStringSubmatch(text)
	if dm == nil {
		return nil
	}
	saleDate, ok := util.ParseDateWords(dm[1], dm[2], dm[3])
	if !ok {
		return nil
	}

	// The column header row ends with the last "$ / head"; the table
	// proper starts right after it.
	idx := strings.LastIndex(text, romaTableAnchor)
	if idx == -1 {
		return nil
	}
	tableText := text[idx+len(romaTableAnchor):]

	sections := romaSectionRe.FindAllStringSubmatchIndex(tableText, -1)

	var cohorts []models.WeightCohort
	for i, sec := range sections {
		name := tableText[sec[2]:sec[3]]
		category := romaCategory(name)
		if category == "" {
			continue
		}

		end := len(tableText)
		if i+1 < len(sections) {
			end = sections[i+1][0]
		}
		sectionText := tableText[sec[0]:end]

		for _, m := range romaRowRe.FindAllStringSubmatch(sectionText, -1) {
			var weightMin int
			var weightMax *int
			switch {
			case m[1] != "": // "to 200kg": bounded above only
				weightMin = 0
				if v, ok := parseIntLoose(m[1]); ok {
					weightMax = intPtr(v)
				}
			case m[4] != "": // "Over 600kg": open-ended
				weightMin, _ = parseIntLoose(m[4])
			default: // "200 – 280kg"
				weightMin, _ = parseIntLoose(m[2])
				if v, ok := parseIntLoose(m[3]); ok {
					weightMax = intPtr(v)
				}
			}

			avg, okAvg := parseNum(m[5])
			maxC, okMax := parseNum(m[6])
			if !okAvg || !plausible(avg) {
				continue
			}
			cohort := models.WeightCohort{
				Category:  category,
				WeightMin: weightMin,
				WeightMax: weightMax,
				AvgCKg:    avg,
			}
			if okMax {
				cohort.MaxCKg = floatPtr(maxC)
			}
			cohorts = append(cohorts, cohort)
		}
	}

	if len(cohorts) == 0 {
		return nil
	}
	return &models.SaleResult{SaleDate: saleDate, TotalHead: th, Cohorts: cohorts}
}

// romaCategory maps a section keyword to a cohort category. Bull sections
// are outside the steer/heifer/cow model and are skipped.
func romaCategory(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "bull"):
		return ""
	case strings.HasPrefix(n, "steer"):
		return models.CategorySteer
	case strings.HasPrefix(n, "heifer"):
		return models.CategoryHeifer
	default:
		return models.CategoryCow
	}
}
