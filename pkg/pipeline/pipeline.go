// Package pipeline wires object listing, document analysis, block graph
// reconstruction and spreadsheet output into the two processing flows:
//
// - Forms: every PDF under a prefix becomes one form row plus one row per
// table row
// - Queries: one PDF becomes a single Title/Date/Description/Volume row,
// the description being an LLM summary of the document's text
//
// Both run sequentially. Failures of external calls are returned as *Error
// values of KindUpstream; unusable analysis results as KindContent.
package pipeline

import (
	"context"
)

// Lister enumerates the documents to process
type Lister interface {
	ListDocuments(ctx context.Context) ([]string, error)
}

// Sheet is the destination spreadsheet
type Sheet interface {
	Header(ctx context.Context, tab string) ([]string, error)
	AppendRow(ctx context.Context, tab string, row []string) error
	AppendRows(ctx context.Context, tab string, rows [][]string) error
}

// Summarizer turns a document's full text into a short description
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
