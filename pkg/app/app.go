// Package app builds the clients both commands share from a loaded
// configuration: the logger, the AWS clients, the selected analysis backend
// and the destination spreadsheet.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"

	"github.com/gardar/formsheet/pkg/analysis"
	"github.com/gardar/formsheet/pkg/config"
	"github.com/gardar/formsheet/pkg/sheets"
	"github.com/gardar/formsheet/pkg/storage"
)

// NewLogger returns a text logger writing to w at the named level. Unknown
// level names fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LogConfigError logs a failed configuration load. Missing settings are
// listed as a "missing" attribute so every absent variable shows up at once.
func LogConfigError(logger *slog.Logger, err error) {
	var missing *config.MissingError
	if errors.As(err, &missing) {
		logger.Error("configuration incomplete", "missing", strings.Join(missing.Vars, ","), "error", err)
		return
	}
	logger.Error("configuration invalid", "error", err)
}

// LoadAWS resolves the AWS configuration for the configured region. Static
// keys are used when both are set, otherwise the default credential chain.
func LoadAWS(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}

// NewBucket returns the configured S3 bucket
func NewBucket(awsCfg aws.Config, cfg config.StorageConfig) *storage.Bucket {
	return storage.NewBucket(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix)
}

// NewAnalyzer returns the configured analysis backend. The returned close
// function releases its connections and is never nil.
func NewAnalyzer(ctx context.Context, cfg *config.Config, awsCfg aws.Config, bucket *storage.Bucket) (analysis.Analyzer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Analysis.Backend {
	case config.BackendTextract:
		adapter := analysis.Adapter{ID: cfg.Analysis.AdapterID, Version: cfg.Analysis.AdapterVersion}
		return analysis.NewTextract(textract.NewFromConfig(awsCfg), bucket.Name(), adapter, cfg.Analysis.DebugDir), noop, nil

	case config.BackendDocumentAI:
		dcfg := analysis.DocumentAIConfig{
			ProjectID:       cfg.Analysis.DocumentAI.ProjectID,
			Location:        cfg.Analysis.DocumentAI.Location,
			ProcessorID:     cfg.Analysis.DocumentAI.ProcessorID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
		}
		client, err := analysis.NewDocumentAIClient(ctx, dcfg)
		if err != nil {
			return nil, noop, err
		}
		return analysis.NewDocumentAI(client, bucket, dcfg, cfg.Analysis.DebugDir), client.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown analysis backend %q", cfg.Analysis.Backend)
	}
}

// OpenSheet authorizes a Sheets client and opens the configured spreadsheet
func OpenSheet(ctx context.Context, cfg config.SheetsConfig) (*sheets.Spreadsheet, error) {
	svc, err := sheets.NewService(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return sheets.Open(svc, cfg.SpreadsheetID), nil
}
