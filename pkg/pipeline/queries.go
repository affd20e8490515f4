package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gardar/formsheet/pkg/analysis"
	"github.com/gardar/formsheet/pkg/blocks"
	"github.com/gardar/formsheet/pkg/dates"
)

// Queries is the single document query and summary pipeline
type Queries struct {
	Analyzer   analysis.Analyzer
	Sheet      Sheet
	Summarizer Summarizer

	Tab     string             // Receives the Title, Date, Description, Volume row
	Queries []blocks.QuerySpec // Defaults to blocks.DefaultQueries
	Dates   dates.Normalizer

	Logger *slog.Logger
}

func (q *Queries) defaults() {
	if q.Logger == nil {
		q.Logger = slog.Default()
	}
	if len(q.Queries) == 0 {
		q.Queries = blocks.DefaultQueries
	}
}

// Run analyzes the document stored under key, summarizes it and appends one
// row. An unparseable date is logged and written as found. The appended row
// is returned.
func (q *Queries) Run(ctx context.Context, key string) ([]string, error) {
	q.defaults()

	bs, err := q.Analyzer.AnalyzeQueries(ctx, key, q.Queries)
	if err != nil {
		return nil, upstream("analyze", key, err)
	}

	g := blocks.NewGraph(bs)
	results := g.QueryResults()
	fullText := g.FullText()
	q.Logger.Debug("document analyzed", "key", key, "blocks", g.Len(), "answers", len(results))

	if raw, ok := results[blocks.AliasDate]; ok {
		normalized, err := q.Dates.Normalize(raw)
		if err != nil {
			q.Logger.Warn("failed to parse date, keeping it as found", "key", key, "date", raw, "error", err)
		}
		results[blocks.AliasDate] = normalized
	}

	if strings.TrimSpace(fullText) == "" {
		q.Logger.Warn("document has no text to summarize", "key", key)
	}
	summary, err := q.Summarizer.Summarize(ctx, fullText)
	if err != nil {
		return nil, upstream("summarize", key, err)
	}

	row := QueryRow(results, summary)
	if err := q.Sheet.AppendRow(ctx, q.Tab, row); err != nil {
		return nil, upstream("append row", key, err)
	}

	q.Logger.Info("row appended", "key", key, "tab", q.Tab)
	return row, nil
}
