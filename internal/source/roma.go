package source

import (
	"context"
	"fmt"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/parser"
	"MarketPull/pkg/util"
)

// Roma publishes a council summary report per Tuesday store sale under a
// predictable date-stamped path.
type Roma struct {
	baseURL string
}

func NewRoma(baseURL string) *Roma {
	return &Roma{baseURL: baseURL}
}

func (r *Roma) ID() string    { return "ROM" }
func (r *Roma) Label() string { return "Roma Store" }

func (r *Roma) Candidates(_ context.Context, now time.Time, count int) []Candidate {
	dates := util.LastSaleDates(now, time.Tuesday, count)
	out := make([]Candidate, 0, len(dates))
	for _, d := range dates {
		out = append(out, Candidate{
			URL: fmt.Sprintf("%s/files/assets/salesyard/v/1/media/market-reports/%s-roma-store-summary-report.pdf",
				r.baseURL, d.Format("02012006")),
			SaleDate: d.Format("2006-01-02"),
		})
	}
	return out
}

func (r *Roma) Parse(text string, hint parser.Hint) *models.SaleResult {
	return parser.ParseRoma(text, hint)
}
