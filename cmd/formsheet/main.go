// formsheet extracts form fields and tables from every PDF in an S3 prefix and
// appends them to a Google spreadsheet.
//
// Each document is analyzed for forms and tables (AWS Textract by default,
// Google Document AI when ANALYSIS_BACKEND=documentai). The key/value pairs of
// a document become one row of the form tab, laid out by that tab's header
// row. Every table row becomes one row of the table tab, prefixed with the
// document's object key.
//
// The form tab must already have its header row: each header cell names the
// form key written in that column. When the header row is empty, a warning
// is logged and no form rows are written for the run. Table rows are still
// appended.
//
// Configuration:
//
// Settings are read from the environment (and a .env file in the working
// directory). An optional YAML file supplies non-secret defaults:
//
//	s3:
//	  bucket: "scans"
//	  prefix: "forms/"
//	sheets:
//	  spreadsheet_id: "1AbC..."
//	  form_tab: "Form Data"
//	  table_tab: "Table Data"
//
// Required environment variables:
//
//	S3_BUCKET        Bucket holding the PDFs
//	SPREADSHEET_ID   Destination spreadsheet
//
// Usage:
//
//	formsheet [--config config.yml]
//
// Example:
//
//	export S3_BUCKET=scans SPREADSHEET_ID=1AbC... GOOGLE_CREDENTIALS_FILE=sa.json
//	formsheet --config config.yml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/gardar/formsheet/pkg/app"
	"github.com/gardar/formsheet/pkg/config"
	"github.com/gardar/formsheet/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "", "Path to an optional YAML config file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: formsheet [--config file]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n", flag.Args())
		flag.Usage()
		os.Exit(2)
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	// The configured level is unknown until the config loads
	logger := app.NewLogger(os.Stderr, os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(config.Forms, *configPath)
	if err != nil {
		app.LogConfigError(logger, err)
		os.Exit(1)
	}
	logger = app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("formsheet failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
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

	forms := &pipeline.Forms{
		Lister:          bucket,
		Analyzer:        analyzer,
		Sheet:           sheet,
		FormTab:         cfg.Sheets.FormTab,
		TableTab:        cfg.Sheets.TableTab,
		Pause:           cfg.Pause,
		ContinueOnError: cfg.ContinueOnError,
		Logger:          logger,
	}

	sum, err := forms.Run(ctx)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", sum.Failed, sum.Found)
	}
	return nil
}
