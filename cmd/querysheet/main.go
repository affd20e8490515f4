// querysheet answers a fixed set of questions about one PDF in S3, summarizes
// it, and appends the result as a single row of a Google spreadsheet.
//
// The document is analyzed with the queries Title, Date and Volume/Issue
// Number, optionally pinned to a Textract adapter. The date answer is
// normalized to YYYY/MM/DD (kept as found when it cannot be parsed) and the
// document's full text is summarized by an OpenAI chat model. The row
// written to the query tab is:
//
//	Title | Date | Description | Volume/Issue Number
//
// Required environment variables:
//
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION
//	S3_BUCKET
//	OPENAI_API_KEY
//	SPREADSHEET_ID
//	GOOGLE_CREDENTIALS_FILE
//
// Optional:
//
//	TEXTRACT_ADAPTER_ID, TEXTRACT_ADAPTER_VERSION  Adapter used for the queries
//	OPENAI_MODEL, OPENAI_MAX_TOKENS               Summary model and length
//	QUERY_TAB                                     Destination tab, "Form Data" by default
//
// Usage:
//
//	querysheet [--config config.yml] <s3-key>
//
// Example:
//
//	querysheet newsletters/1987-03.pdf
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/gardar/formsheet/pkg/app"
	"github.com/gardar/formsheet/pkg/config"
	"github.com/gardar/formsheet/pkg/pipeline"
	"github.com/gardar/formsheet/pkg/summarize"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: querysheet [--config file] <s3-key>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 || strings.TrimSpace(flag.Arg(0)) == "" {
		fmt.Fprintln(os.Stderr, "Error: exactly one S3 object key is required")
		flag.Usage()
		os.Exit(2)
	}
	key := flag.Arg(0)

	// A missing .env file is fine
	_ = godotenv.Load()

	// The configured level is unknown until the config loads
	logger := app.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(config.Queries, *configPath)
	if err != nil {
		app.LogConfigError(logger, err)
		os.Exit(1)
	}
	logger = app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, key); err != nil {
		logger.Error("querysheet failed", "key", key, "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, key string) error {
	awsCfg, err := app.LoadAWS(ctx, cfg.AWS)
	if err != nil {
		return err
	}
	bucket := app.NewBucket(awsCfg, cfg.Storage)

	analyzer, closeAnalyzer, err := app.NewAnalyzer(ctx, cfg, awsCfg, bucket)
	if err != nil {
		return err
	}
	defer closeAnalyzer()

	sheet, err := app.OpenSheet(ctx, cfg.Sheets)
	if err != nil {
		return err
	}

	queries := &pipeline.Queries{
		Analyzer:   analyzer,
		Sheet:      sheet,
		Summarizer: summarize.New(summarize.NewClient(cfg.Summary.APIKey), cfg.Summary.Model, cfg.Summary.MaxTokens),
		Tab:        cfg.Sheets.QueryTab,
		Logger:     logger,
	}

	row, err := queries.Run(ctx, key)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(row, "\t"))
	return nil
}
