package parser

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"MarketPull/internal/domain/models"
)

// AgriNous platform reports (Warwick). Product headings are upper-case
// ("YEARLING STEER", "COW") followed by a c/kg unit marker and then data
// rows, one per weight band and sale lot group:
//
//	280 – 330 142 296 310 318 400 91,888 646
//	(band kg, head, low, avg, high c/kg, avg kg, gross $, $/hd)
//
// The same product/band pair can recur, so rows are aggregated into one
// cohort per (category, band) with a head-weighted average price.
var (
	agriHeadRe    = regexp.MustCompile(`(?i)(\d[\d,]+)\s+head`)
	agriProductRe = regexp.MustCompile(`\b([A-Z]{2,}(?:\s+[A-Z&/]{2,})*)\s+c/kg\b`)
	agriRowRe     = regexp.MustCompile(`\b(\d{2,3})\s*[–-]\s*(\d{2,3})\b\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)\s+([\d,]+)`)
	agriTotalRe   = regexp.MustCompile(`(?i)\bTotal\b`)
)

type agriKey struct {
	category string
	min, max int
}

type agriAgg struct {
	sumWeighted float64
	maxCKg      float64
	head        int
}

// ParseAgriNous parses an AgriNous-generated sale report. The report body
// carries no usable sale date, so the caller supplies one via the hint.
func ParseAgriNous(text string, hint Hint) *models.SaleResult {
	if hint.SaleDate == "" {
		return nil
	}
	th := totalHead(text, agriHeadRe)

	products := agriProductRe.FindAllStringSubmatchIndex(text, -1)

	sums := make(map[agriKey]*agriAgg)
	for i, p := range products {
		name := text[p[2]:p[3]]
		category := agriNousCategory(name)
		if category == "" {
			continue
		}

		dataStart := p[1]
		dataEnd := len(text)
		if i+1 < len(products) {
			dataEnd = products[i+1][0]
		}
		section := text[dataStart:dataEnd]

		// Each product block ends with a Total summary row whose figures
		// would double-count everything above it.
		if loc := agriTotalRe.FindStringIndex(section); loc != nil {
			section = section[:loc[0]]
		}

		for _, m := range agriRowRe.FindAllStringSubmatch(section, -1) {
			weightMin, okMin := parseIntLoose(m[1])
			weightMax, okMax := parseIntLoose(m[2])
			head, okHead := parseIntLoose(m[3])
			avg, okAvg := parseNum(m[5])
			maxC, _ := parseNum(m[6])
			if !okMin || !okMax || !okHead || !okAvg {
				continue
			}
			if head <= 0 || !plausible(avg) {
				continue
			}

			k := agriKey{category: category, min: weightMin, max: weightMax}
			a := sums[k]
			if a == nil {
				a = &agriAgg{}
				sums[k] = a
			}
			a.sumWeighted += avg * float64(head)
			a.maxCKg = math.Max(a.maxCKg, maxC)
			a.head += head
		}
	}

	if len(sums) == 0 {
		return nil
	}

	keys := make([]agriKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].category != keys[j].category {
			return categoryRank(keys[i].category) < categoryRank(keys[j].category)
		}
		return keys[i].min < keys[j].min
	})

	cohorts := make([]models.WeightCohort, 0, len(keys))
	for _, k := range keys {
		a := sums[k]
		avg := math.Round(a.sumWeighted/float64(a.head)*10) / 10
		cohorts = append(cohorts, models.WeightCohort{
			Category:  k.category,
			WeightMin: k.min,
			WeightMax: intPtr(k.max),
			AvgCKg:    avg,
			MaxCKg:    floatPtr(a.maxCKg),
			Head:      intPtr(a.head),
		})
	}

	return &models.SaleResult{SaleDate: hint.SaleDate, TotalHead: th, Cohorts: cohorts}
}

// agriNousCategory maps an AgriNous product heading to a cohort category.
// Product names are specific ("YEARLING STEER", "MEDIUM WEIGHT HEIFER"), so
// substring checks suffice; only the bare COW product is a cow, which keeps
// COW & CALF units out.
func agriNousCategory(product string) string {
	p := strings.ToUpper(product)
	switch {
	case strings.Contains(p, "STEER") || strings.Contains(p, "BULLOCK"):
		return models.CategorySteer
	case strings.Contains(p, "HEIFER"):
		return models.CategoryHeifer
	case p == "COW":
		return models.CategoryCow
	}
	return ""
}

func categoryRank(category string) int {
	switch category {
	case models.CategorySteer:
		return 0
	case models.CategoryHeifer:
		return 1
	default:
		return 2
	}
}
