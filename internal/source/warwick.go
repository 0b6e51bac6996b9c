package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/parser"
	"MarketPull/pkg/util"
)

// Warwick sales run Tuesdays; the council attaches each AgriNous report
// under a document path derived from a human-written file name. The report
// body carries no parseable date, so the candidate's date is authoritative.
type Warwick struct {
	baseURL string
}

func NewWarwick(baseURL string) *Warwick {
	return &Warwick{baseURL: baseURL}
}

func (w *Warwick) ID() string    { return "WAR" }
func (w *Warwick) Label() string { return "Warwick" }

func (w *Warwick) Candidates(_ context.Context, now time.Time, count int) []Candidate {
	dates := util.LastSaleDates(now, time.Tuesday, count)
	out := make([]Candidate, 0, len(dates))
	for _, d := range dates {
		name := fmt.Sprintf("Warwick Cattle Sale %s Market Report.pdf", d.Format("02.01.2006"))
		out = append(out, Candidate{
			URL:      fmt.Sprintf("%s/ArticleDocuments/1089/%s.aspx", w.baseURL, url.PathEscape(name)),
			SaleDate: d.Format("2006-01-02"),
		})
	}
	return out
}

func (w *Warwick) Parse(text string, hint parser.Hint) *models.SaleResult {
	return parser.ParseAgriNous(text, hint)
}
