package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "MarketPull/pkg/http"
	xlogger "MarketPull/pkg/logger"
)

const dalbyListing = `<html><body>
<a href="/about">About</a>
<a href="https://rw-media.s3.amazonaws.com/2024/03/1710300000-Dalby-Cattle-Sale-Market-Report-13-03-24.pdf">13 March</a>
<a href="https://rw-media.s3.amazonaws.com/2024/03/1709700000-Dalby-Cattle-Sale-Market-Report-06-03-24.pdf">6 March</a>
<a href="https://rw-media.s3.amazonaws.com/2024/02/1709100000-Dalby-Sheep-Sale-Report.pdf">sheep</a>
<a href="https://rw-media.s3.amazonaws.com/2024/02/1708500000-Dalby-Cattle-Sale-Market-Report-21-02-24.pdf">21 Feb</a>
</body></html>`

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestDalbyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dalbyListing))
	}))
	defer srv.Close()

	d := NewDalby(srv.URL, xhttp.NewClient(), testLogger(t))
	got := d.Candidates(context.Background(), time.Now(), 2)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	// Listing order is preserved (newest first) and the sheep report is
	// filtered out.
	if got[0].URL != "https://rw-media.s3.amazonaws.com/2024/03/1710300000-Dalby-Cattle-Sale-Market-Report-13-03-24.pdf" {
		t.Errorf("first candidate = %q", got[0].URL)
	}
	if got[1].URL != "https://rw-media.s3.amazonaws.com/2024/03/1709700000-Dalby-Cattle-Sale-Market-Report-06-03-24.pdf" {
		t.Errorf("second candidate = %q", got[1].URL)
	}
	if got[0].SaleDate != "" {
		t.Errorf("sale date should be unknown for scraped candidates, got %q", got[0].SaleDate)
	}
}

func TestDalbyCandidatesListingUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDalby(srv.URL, xhttp.NewClient(), testLogger(t))
	if got := d.Candidates(context.Background(), time.Now(), 5); got != nil {
		t.Fatalf("expected nil on listing failure, got %+v", got)
	}
}

func TestRomaCandidates(t *testing.T) {
	// Friday 15 March 2024: the most recent Tuesday is the 12th.
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	r := NewRoma("https://www.romasaleyards.com.au")

	got := r.Candidates(context.Background(), now, 2)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	want := "https://www.romasaleyards.com.au/files/assets/salesyard/v/1/media/market-reports/12032024-roma-store-summary-report.pdf"
	if got[0].URL != want {
		t.Errorf("first URL = %q, want %q", got[0].URL, want)
	}
	if got[0].SaleDate != "2024-03-12" {
		t.Errorf("first sale date = %q, want 2024-03-12", got[0].SaleDate)
	}
	if got[1].SaleDate != "2024-03-05" {
		t.Errorf("second sale date = %q, want 2024-03-05", got[1].SaleDate)
	}
}

func TestWarwickCandidates(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	w := NewWarwick("https://www.sdrc.qld.gov.au")

	got := w.Candidates(context.Background(), now, 1)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	want := "https://www.sdrc.qld.gov.au/ArticleDocuments/1089/Warwick%20Cattle%20Sale%2012.03.2024%20Market%20Report.pdf.aspx"
	if got[0].URL != want {
		t.Errorf("URL = %q, want %q", got[0].URL, want)
	}
	if got[0].SaleDate != "2024-03-12" {
		t.Errorf("sale date = %q, want 2024-03-12", got[0].SaleDate)
	}
}
