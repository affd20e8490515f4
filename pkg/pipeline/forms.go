package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/gardar/formsheet/pkg/analysis"
	"github.com/gardar/formsheet/pkg/blocks"
)

// Forms is the batch form and table pipeline
type Forms struct {
	Lister   Lister
	Analyzer analysis.Analyzer
	Sheet    Sheet

	FormTab  string // Receives one row per document, laid out by its header row
	TableTab string // Receives one row per table row, prefixed by the object key

	// Pause spaces out consecutive documents to stay under the analysis
	// service's rate limit. Zero disables it.
	Pause time.Duration

	// ContinueOnError logs and counts a failed document instead of
	// aborting the rest of the batch
	ContinueOnError bool

	Logger *slog.Logger
}

// Summary counts the documents of a batch run
type Summary struct {
	Found     int
	Processed int
	Failed    int
}

func (f *Forms) defaults() {
	if f.Logger == nil {
		f.Logger = slog.Default()
	}
}

// Run processes every listed document in order. The form tab's header row
// is read once, before the first document.
func (f *Forms) Run(ctx context.Context) (Summary, error) {
	f.defaults()
	var sum Summary

	keys, err := f.Lister.ListDocuments(ctx)
	if err != nil {
		return sum, upstream("list", "", err)
	}
	sum.Found = len(keys)
	f.Logger.Info("documents found", "count", len(keys))
	if len(keys) == 0 {
		return sum, nil
	}

	header, err := f.Sheet.Header(ctx, f.FormTab)
	if err != nil {
		return sum, upstream("read header", "", err)
	}
	if len(header) == 0 {
		f.Logger.Warn("form tab has no header row, form rows will not be written", "tab", f.FormTab)
	}

	var limiter *rate.Limiter
	if f.Pause > 0 {
		limiter = rate.NewLimiter(rate.Every(f.Pause), 1)
	}

	for i, key := range keys {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return sum, upstream("pause", key, err)
			}
		}

		f.Logger.Info("processing document", "key", key, "n", i+1, "total", len(keys))
		if err := f.process(ctx, key, header); err != nil {
			sum.Failed++
			if !f.ContinueOnError {
				return sum, err
			}
			f.Logger.Error("document failed", "key", key, "kind", KindOf(err).String(), "error", err)
			continue
		}
		sum.Processed++
	}

	f.Logger.Info("batch done", "processed", sum.Processed, "failed", sum.Failed)
	return sum, nil
}

// process analyzes one document and writes its rows. Tables are
// reconstructed before anything is written, so a malformed table leaves no
// partial output for the document.
func (f *Forms) process(ctx context.Context, key string, header []string) error {
	bs, err := f.Analyzer.AnalyzeForms(ctx, key)
	if err != nil {
		return upstream("analyze", key, err)
	}

	g := blocks.NewGraph(bs)
	kv := g.KeyValues()
	tables, err := g.Tables()
	if err != nil {
		return content("reconstruct tables", key, err)
	}

	if len(header) > 0 {
		if err := f.Sheet.AppendRow(ctx, f.FormTab, FormRow(header, kv)); err != nil {
			return upstream("append form row", key, err)
		}
	}

	for _, table := range tables {
		rows := TableRows(key, table)
		if len(rows) == 0 {
			continue
		}
		if err := f.Sheet.AppendRows(ctx, f.TableTab, rows); err != nil {
			return upstream("append table rows", key, err)
		}
	}

	f.Logger.Debug("document written", "key", key, "blocks", g.Len(), "fields", len(kv), "tables", len(tables))
	return nil
}
