package analysis

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/gardar/formsheet/pkg/blocks"
)

// DocumentAIConfig holds the settings needed to reach a Document AI processor
type DocumentAIConfig struct {
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsFile string // Empty means application default credentials
}

// ProcessorName returns the resource name of the configured processor
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIAPI is the subset of the Document AI client used here
type DocumentAIAPI interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

// Fetcher downloads stored documents
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// NewDocumentAIClient creates a Document AI client for the processor's region
func NewDocumentAIClient(ctx context.Context, cfg DocumentAIConfig) (*documentai.DocumentProcessorClient, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)

	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	return client, nil
}

// DocumentAI analyzes documents with a Google Document AI processor. Form
// fields and tables come from a form parser processor; query answers come
// from the entities of a custom extractor processor, matched to queries by
// entity type.
type DocumentAI struct {
	api      DocumentAIAPI
	fetcher  Fetcher
	cfg      DocumentAIConfig
	debugDir string
}

// NewDocumentAI creates a Document AI analyzer that reads documents through fetcher
func NewDocumentAI(api DocumentAIAPI, fetcher Fetcher, cfg DocumentAIConfig, debugDir string) *DocumentAI {
	return &DocumentAI{api: api, fetcher: fetcher, cfg: cfg, debugDir: debugDir}
}

// AnalyzeForms processes the document and converts its form fields and tables
func (d *DocumentAI) AnalyzeForms(ctx context.Context, key string) ([]blocks.Block, error) {
	doc, err := d.process(ctx, key)
	if err != nil {
		return nil, err
	}
	return blocks.FromDocumentAI(doc), nil
}

// AnalyzeQueries processes the document and relabels the extracted entities
// whose type matches a query's alias or text with that query's alias
func (d *DocumentAI) AnalyzeQueries(ctx context.Context, key string, queries []blocks.QuerySpec) ([]blocks.Block, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries given for %s", key)
	}

	doc, err := d.process(ctx, key)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]blocks.QuerySpec)
	for _, q := range queries {
		labels[entityLabel(q.Text)] = q
		if q.Alias != "" {
			labels[entityLabel(q.Alias)] = q
		}
	}

	bs := blocks.FromDocumentAI(doc)
	for i := range bs {
		b := &bs[i]
		if b.Type != blocks.TypeQueryResult || b.Query == nil {
			continue
		}
		if q, ok := labels[entityLabel(b.Query.Alias)]; ok {
			b.Query = &blocks.Query{Text: q.Text, Alias: q.Alias}
		}
	}
	return bs, nil
}

func (d *DocumentAI) process(ctx context.Context, key string) (*documentaipb.Document, error) {
	pdfBytes, err := d.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	req := &documentaipb.ProcessRequest{
		Name: d.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
		SkipHumanReview: true,
	}

	resp, err := d.api.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", key, err)
	}

	if d.debugDir != "" {
		if err := dump(d.debugDir, key, resp.Document); err != nil {
			return nil, err
		}
	}

	return resp.Document, nil
}

// entityLabel folds a query or entity type into the snake_case form custom
// extractors use, so "Volume/Issue Number" matches "volume_issue_number"
func entityLabel(s string) string {
	var sb strings.Builder
	underscore, prevLower := false, false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Split camel case: VolumeIssueNumber -> volume_issue_number
			if unicode.IsUpper(r) && prevLower {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			underscore, prevLower = false, unicode.IsLower(r)
		case sb.Len() > 0 && !underscore:
			sb.WriteByte('_')
			underscore, prevLower = true, false
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}
