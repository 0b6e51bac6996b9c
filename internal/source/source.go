// Package source enumerates the saleyard report publishers and knows, for
// each, where its recent report documents live and how to parse them.
package source

import (
	"context"
	"time"

	"MarketPull/internal/domain/models"
	"MarketPull/internal/parser"
)

// Candidate is one report document worth trying. SaleDate is set when the
// sale date is known from the URL scheme rather than the document body.
type Candidate struct {
	URL      string
	SaleDate string
}

// Source is a single saleyard report publisher.
type Source interface {
	ID() string
	Label() string

	// Candidates returns up to count recent report documents, newest
	// first. An empty slice means the publisher is unreachable or has
	// nothing listed; that is not an error.
	Candidates(ctx context.Context, now time.Time, count int) []Candidate

	// Parse recovers a structured sale result from a candidate's
	// extracted text, or nil when the document is not understood.
	Parse(text string, hint parser.Hint) *models.SaleResult
}
