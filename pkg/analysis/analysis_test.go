package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/formsheet/pkg/blocks"
)

type fakeTextract struct {
	input *textract.AnalyzeDocumentInput
	out   *textract.AnalyzeDocumentOutput
	err   error
}

func (f *fakeTextract) AnalyzeDocument(_ context.Context, in *textract.AnalyzeDocumentInput, _ ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestTextractAnalyzeForms(t *testing.T) {
	api := &fakeTextract{out: &textract.AnalyzeDocumentOutput{
		Blocks: []types.Block{
			{Id: aws.String("l"), BlockType: types.BlockTypeLine, Text: aws.String("hello")},
		},
	}}
	a := NewTextract(api, "docs", Adapter{ID: "adapter-1", Version: "2"}, "")

	bs, err := a.AnalyzeForms(context.Background(), "scans/a.pdf")
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, blocks.TypeLine, bs[0].Type)

	in := api.input
	require.NotNil(t, in.Document.S3Object)
	assert.Equal(t, "docs", aws.ToString(in.Document.S3Object.Bucket))
	assert.Equal(t, "scans/a.pdf", aws.ToString(in.Document.S3Object.Name))
	assert.Equal(t, []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms}, in.FeatureTypes)
	assert.Nil(t, in.QueriesConfig)
	assert.Nil(t, in.AdaptersConfig, "adapters only apply to queries")
}

func TestTextractAnalyzeQueries(t *testing.T) {
	api := &fakeTextract{out: &textract.AnalyzeDocumentOutput{}}
	a := NewTextract(api, "docs", Adapter{ID: "adapter-1", Version: "2"}, "")

	_, err := a.AnalyzeQueries(context.Background(), "a.pdf", blocks.DefaultQueries)
	require.NoError(t, err)

	in := api.input
	assert.Equal(t, []types.FeatureType{types.FeatureTypeQueries}, in.FeatureTypes)
	require.NotNil(t, in.QueriesConfig)
	require.Len(t, in.QueriesConfig.Queries, 3)
	assert.Equal(t, "Volume/Issue Number", aws.ToString(in.QueriesConfig.Queries[2].Text))
	assert.Equal(t, "VolumeIssueNumber", aws.ToString(in.QueriesConfig.Queries[2].Alias))

	require.NotNil(t, in.AdaptersConfig)
	require.Len(t, in.AdaptersConfig.Adapters, 1)
	assert.Equal(t, "adapter-1", aws.ToString(in.AdaptersConfig.Adapters[0].AdapterId))
	assert.Equal(t, "2", aws.ToString(in.AdaptersConfig.Adapters[0].Version))
}

func TestTextractAnalyzeQueriesWithoutAdapter(t *testing.T) {
	api := &fakeTextract{out: &textract.AnalyzeDocumentOutput{}}
	a := NewTextract(api, "docs", Adapter{}, "")

	_, err := a.AnalyzeQueries(context.Background(), "a.pdf", blocks.DefaultQueries)
	require.NoError(t, err)
	assert.Nil(t, api.input.AdaptersConfig)

	_, err = a.AnalyzeQueries(context.Background(), "a.pdf", nil)
	assert.Error(t, err)
}

func TestTextractError(t *testing.T) {
	api := &fakeTextract{err: errors.New("ThrottlingException")}
	a := NewTextract(api, "docs", Adapter{}, "")

	_, err := a.AnalyzeForms(context.Background(), "a.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://docs/a.pdf")
	assert.ErrorIs(t, err, api.err)
}

func TestTextractDebugDump(t *testing.T) {
	dir := t.TempDir()
	api := &fakeTextract{out: &textract.AnalyzeDocumentOutput{
		Blocks: []types.Block{{Id: aws.String("w"), BlockType: types.BlockTypeWord, Text: aws.String("dumped")}},
	}}
	a := NewTextract(api, "docs", Adapter{}, dir)

	_, err := a.AnalyzeForms(context.Background(), "scans/a.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(DumpPath(dir, "scans/a.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dumped")
}

type fakeDocAI struct {
	req  *documentaipb.ProcessRequest
	resp *documentaipb.ProcessResponse
	err  error
}

func (f *fakeDocAI) ProcessDocument(_ context.Context, req *documentaipb.ProcessRequest, _ ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.req = req
	return f.resp, f.err
}

type fakeFetcher map[string][]byte

func (f fakeFetcher) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

var docaiCfg = DocumentAIConfig{ProjectID: "proj", Location: "eu", ProcessorID: "proc"}

func TestDocumentAIAnalyzeForms(t *testing.T) {
	api := &fakeDocAI{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{
		Text: "Name Ann",
		Pages: []*documentaipb.Document_Page{{
			PageNumber: 1,
			FormFields: []*documentaipb.Document_Page_FormField{{
				FieldName:  layout(0, 4),
				FieldValue: layout(5, 8),
			}},
		}},
	}}}
	a := NewDocumentAI(api, fakeFetcher{"a.pdf": []byte("%PDF")}, docaiCfg, "")

	bs, err := a.AnalyzeForms(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Name": "Ann"}, blocks.NewGraph(bs).KeyValues())

	assert.Equal(t, "projects/proj/locations/eu/processors/proc", api.req.Name)
	raw := api.req.GetRawDocument()
	require.NotNil(t, raw)
	assert.Equal(t, []byte("%PDF"), raw.Content)
	assert.Equal(t, "application/pdf", raw.MimeType)
}

func TestDocumentAIAnalyzeQueries(t *testing.T) {
	api := &fakeDocAI{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{
		Entities: []*documentaipb.Document_Entity{
			{Type: "title", MentionText: "Harbour News"},
			{Type: "volume_issue_number", MentionText: "Vol. 4 No. 2"},
			{Type: "publisher", MentionText: "Unused"},
		},
	}}}
	a := NewDocumentAI(api, fakeFetcher{"a.pdf": []byte("%PDF")}, docaiCfg, "")

	bs, err := a.AnalyzeQueries(context.Background(), "a.pdf", blocks.DefaultQueries)
	require.NoError(t, err)

	results := blocks.NewGraph(bs).QueryResults()
	assert.Equal(t, "Harbour News", results[blocks.AliasTitle])
	assert.Equal(t, "Vol. 4 No. 2", results[blocks.AliasVolumeIssue])
	assert.Equal(t, "Unused", results["publisher"])
	_, ok := results[blocks.AliasDate]
	assert.False(t, ok)
}

func TestDocumentAIErrors(t *testing.T) {
	a := NewDocumentAI(&fakeDocAI{}, fakeFetcher{}, docaiCfg, "")
	_, err := a.AnalyzeForms(context.Background(), "missing.pdf")
	assert.ErrorContains(t, err, "not found")

	failing := &fakeDocAI{err: errors.New("quota exceeded")}
	a = NewDocumentAI(failing, fakeFetcher{"a.pdf": nil}, docaiCfg, "")
	_, err = a.AnalyzeForms(context.Background(), "a.pdf")
	assert.ErrorIs(t, err, failing.err)
}

func TestEntityLabel(t *testing.T) {
	tests := map[string]string{
		"Title":               "title",
		"Volume/Issue Number": "volume_issue_number",
		"VolumeIssueNumber":   "volume_issue_number",
		"invoice_id":          "invoice_id",
		"VIN":                 "vin",
		" Due date: ":         "due_date",
	}
	for in, want := range tests {
		assert.Equal(t, want, entityLabel(in), in)
	}
}

func TestMarshalResponse(t *testing.T) {
	out, err := marshalResponse(&documentaipb.Document{Text: "proto text", Source: &documentaipb.Document_Uri{Uri: "gs://b/a.pdf"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "proto text")
	assert.Contains(t, string(out), "uri")

	out, err = marshalResponse(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"k": "v"`)
}

func TestDocumentAIDebugDump(t *testing.T) {
	dir := t.TempDir()
	api := &fakeDocAI{resp: &documentaipb.ProcessResponse{Document: &documentaipb.Document{Text: "dumped proto"}}}
	a := NewDocumentAI(api, fakeFetcher{"scans/a.pdf": []byte("%PDF")}, docaiCfg, dir)

	_, err := a.AnalyzeForms(context.Background(), "scans/a.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(DumpPath(dir, "scans/a.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dumped proto")
}

func TestDumpPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "scans_2024_a.pdf.json"), DumpPath("out", "scans/2024/a.pdf"))
}

func layout(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
	}
}
