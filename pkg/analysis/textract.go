package analysis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/gardar/formsheet/pkg/blocks"
)

// TextractAPI is the subset of the Textract client used here
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// Textract analyzes documents with AWS Textract. The service reads the
// object from S3 itself.
type Textract struct {
	api      TextractAPI
	bucket   string
	adapter  Adapter
	debugDir string
}

// NewTextract creates a Textract analyzer for objects in bucket. The adapter
// is only applied to query analysis, and only when it has an ID. Raw
// responses are written to debugDir when it is not empty.
func NewTextract(api TextractAPI, bucket string, adapter Adapter, debugDir string) *Textract {
	return &Textract{api: api, bucket: bucket, adapter: adapter, debugDir: debugDir}
}

// AnalyzeForms runs AnalyzeDocument with the TABLES and FORMS features
func (t *Textract) AnalyzeForms(ctx context.Context, key string) ([]blocks.Block, error) {
	return t.analyze(ctx, key, &textract.AnalyzeDocumentInput{
		Document:     t.document(key),
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms},
	})
}

// AnalyzeQueries runs AnalyzeDocument with the QUERIES feature
func (t *Textract) AnalyzeQueries(ctx context.Context, key string, queries []blocks.QuerySpec) ([]blocks.Block, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no queries given for %s", key)
	}

	input := &textract.AnalyzeDocumentInput{
		Document:     t.document(key),
		FeatureTypes: []types.FeatureType{types.FeatureTypeQueries},
		QueriesConfig: &types.QueriesConfig{
			Queries: make([]types.Query, 0, len(queries)),
		},
	}
	for _, q := range queries {
		tq := types.Query{Text: aws.String(q.Text)}
		if q.Alias != "" {
			tq.Alias = aws.String(q.Alias)
		}
		input.QueriesConfig.Queries = append(input.QueriesConfig.Queries, tq)
	}

	if t.adapter.ID != "" {
		input.AdaptersConfig = &types.AdaptersConfig{
			Adapters: []types.Adapter{{
				AdapterId: aws.String(t.adapter.ID),
				Version:   aws.String(t.adapter.Version),
			}},
		}
	}

	return t.analyze(ctx, key, input)
}

func (t *Textract) document(key string) *types.Document {
	return &types.Document{
		S3Object: &types.S3Object{
			Bucket: aws.String(t.bucket),
			Name:   aws.String(key),
		},
	}
}

func (t *Textract) analyze(ctx context.Context, key string, input *textract.AnalyzeDocumentInput) ([]blocks.Block, error) {
	out, err := t.api.AnalyzeDocument(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze s3://%s/%s: %w", t.bucket, key, err)
	}

	if t.debugDir != "" {
		if err := dump(t.debugDir, key, out); err != nil {
			return nil, err
		}
	}

	return blocks.FromTextract(out.Blocks), nil
}
