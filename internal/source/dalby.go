package source

import (
	"bytes"
	"context"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/parser"
	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

// Dalby report URLs carry an S3 upload timestamp and cannot be derived from
// sale dates, so candidates come from scraping the agency's market-reports
// listing page. The listing is newest-first.
var dalbyReportHrefRe = regexp.MustCompile(`(?i)^https://rw-media\.s3\.amazonaws\.com/.+Dalby-Cattle-Sale-Market-Report.+\.pdf$`)

type Dalby struct {
	listingURL string
	client     *xhttp.Client
	logger     *xlogger.Logger
}

func NewDalby(listingURL string, client *xhttp.Client, logger *xlogger.Logger) *Dalby {
	return &Dalby{listingURL: listingURL, client: client, logger: logger}
}

func (d *Dalby) ID() string    { return "DAL" }
func (d *Dalby) Label() string { return "Dalby" }

func (d *Dalby) Candidates(ctx context.Context, _ time.Time, count int) []Candidate {
	var body []byte
	err := d.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    d.listingURL,
	}, &body)
	if err != nil {
		d.logger.Debug("report listing fetch failed",
			xlogger.String("url", d.listingURL), xlogger.Error(err))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		d.logger.Debug("report listing parse failed",
			xlogger.String("url", d.listingURL), xlogger.Error(err))
		return nil
	}

	var out []Candidate
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if dalbyReportHrefRe.MatchString(href) {
			out = append(out, Candidate{URL: href})
		}
		return len(out) < count
	})
	return out
}

func (d *Dalby) Parse(text string, hint parser.Hint) *models.SaleResult {
	return parser.ParseDalby(text, hint)
}
