// Package analysis sends documents stored in S3 to a document analysis
// service and returns the result as a block graph (see package blocks).
//
// Two backends implement Analyzer:
//
// - Textract: AWS Textract AnalyzeDocument, reading the object straight from S3
// - DocumentAI: Google Document AI, fed with bytes fetched from S3
//
// Both can write every raw response to a debug directory.
package analysis

import (
	"context"

	"github.com/gardar/formsheet/pkg/blocks"
)

// Analyzer analyzes one stored document
type Analyzer interface {
	// AnalyzeForms extracts form fields and tables
	AnalyzeForms(ctx context.Context, key string) ([]blocks.Block, error)
	// AnalyzeQueries answers targeted queries and returns the page lines
	AnalyzeQueries(ctx context.Context, key string, queries []blocks.QuerySpec) ([]blocks.Block, error)
}

// Adapter pins a service-side customization for query analysis
type Adapter struct {
	ID      string
	Version string
}
