package blocks

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTextract(t *testing.T) {
	in := []types.Block{
		{
			Id:          aws.String("k"),
			BlockType:   types.BlockTypeKeyValueSet,
			EntityTypes: []types.EntityType{types.EntityTypeKey},
			Relationships: []types.Relationship{
				{Type: types.RelationshipTypeValue, Ids: []string{"v"}},
				{Type: types.RelationshipTypeChild, Ids: []string{"kw"}},
				{Type: types.RelationshipTypeComplexFeatures, Ids: []string{"ignored"}},
			},
		},
		{
			Id:            aws.String("v"),
			BlockType:     types.BlockTypeKeyValueSet,
			EntityTypes:   []types.EntityType{types.EntityTypeValue},
			Relationships: []types.Relationship{{Type: types.RelationshipTypeChild, Ids: []string{"vw"}}},
		},
		{Id: aws.String("kw"), BlockType: types.BlockTypeWord, Text: aws.String("Total"), Page: aws.Int32(1)},
		{Id: aws.String("vw"), BlockType: types.BlockTypeWord, Text: aws.String("42.00"), Confidence: aws.Float32(99.5)},
		{Id: aws.String("c"), BlockType: types.BlockTypeCell, RowIndex: aws.Int32(2), ColumnIndex: aws.Int32(3)},
		{
			Id:        aws.String("r"),
			BlockType: types.BlockTypeQueryResult,
			Text:      aws.String("Annual Report"),
			Query:     &types.Query{Text: aws.String("Title"), Alias: aws.String("Title")},
		},
	}

	out := FromTextract(in)
	require.Len(t, out, len(in))

	key := out[0]
	assert.Equal(t, "k", key.ID)
	assert.Equal(t, TypeKeyValueSet, key.Type)
	assert.True(t, key.IsKey())
	assert.Len(t, key.Relationships, 2)
	assert.Equal(t, []string{"v"}, key.Targets(RelValue))

	assert.False(t, out[1].IsKey())
	assert.Equal(t, 1, out[2].Page)
	assert.InDelta(t, 99.5, out[3].Confidence, 0.001)

	require.NotNil(t, out[4].RowIndex)
	require.NotNil(t, out[4].ColumnIndex)
	assert.Equal(t, 2, *out[4].RowIndex)
	assert.Equal(t, 3, *out[4].ColumnIndex)
	assert.Nil(t, out[0].RowIndex)

	require.NotNil(t, out[5].Query)
	assert.Equal(t, "Title", out[5].Query.Alias)

	g := NewGraph(out)
	assert.Equal(t, map[string]string{"Total": "42.00"}, g.KeyValues())
	assert.Equal(t, map[string]string{"Title": "Annual Report"}, g.QueryResults())
}

// anchor builds a layout covering text[start:end]
func anchor(start, end int64) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
				{StartIndex: start, EndIndex: end},
			},
		},
	}
}

func TestFromDocumentAI(t *testing.T) {
	text := "Name: Jane  Doe\nAgree\nItem Qty\nPen 2\nTotal\n"

	doc := &documentaipb.Document{
		Text: text,
		Pages: []*documentaipb.Document_Page{
			{
				PageNumber: 1,
				Lines: []*documentaipb.Document_Page_Line{
					{Layout: anchor(0, 16)},
					{Layout: anchor(16, 22)},
				},
				FormFields: []*documentaipb.Document_Page_FormField{
					{FieldName: anchor(0, 5), FieldValue: anchor(6, 15)},
					{FieldName: anchor(16, 21), ValueType: "filled_checkbox"},
					{FieldName: anchor(0, 0), FieldValue: anchor(6, 15)},
				},
				Tables: []*documentaipb.Document_Page_Table{
					{
						HeaderRows: []*documentaipb.Document_Page_Table_TableRow{
							{Cells: []*documentaipb.Document_Page_Table_TableCell{
								{Layout: anchor(22, 26), RowSpan: 1, ColSpan: 1},
								{Layout: anchor(27, 30), RowSpan: 1, ColSpan: 1},
							}},
						},
						BodyRows: []*documentaipb.Document_Page_Table_TableRow{
							{Cells: []*documentaipb.Document_Page_Table_TableCell{
								{Layout: anchor(31, 34), RowSpan: 2, ColSpan: 1},
								{Layout: anchor(35, 36), RowSpan: 1, ColSpan: 1},
							}},
							{Cells: []*documentaipb.Document_Page_Table_TableCell{
								{Layout: anchor(37, 42), RowSpan: 1, ColSpan: 1},
							}},
						},
					},
				},
			},
		},
		Entities: []*documentaipb.Document_Entity{
			{Type: "invoice_id", MentionText: "INV-7"},
			{Type: "", MentionText: "dropped"},
		},
	}

	g := NewGraph(FromDocumentAI(doc))

	assert.Equal(t, map[string]string{
		"Name":  "Jane Doe",
		"Agree": "X",
	}, g.KeyValues())

	tables, err := g.Tables()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	// The spanning "Pen" cell pushes "Total" to the second column
	assert.Equal(t, Table{{"Item", "Qty"}, {"Pen", "2"}, {"Total"}}, tables[0])

	row3 := findCell(t, g, "Total")
	assert.Equal(t, 3, *row3.RowIndex)
	assert.Equal(t, 2, *row3.ColumnIndex)

	assert.Equal(t, "Name: Jane  Doe\nAgree", g.FullText())
	assert.Equal(t, map[string]string{"invoice_id": "INV-7"}, g.QueryResults())
}

func TestFromDocumentAINil(t *testing.T) {
	assert.Nil(t, FromDocumentAI(nil))
}

func findCell(t *testing.T, g *Graph, text string) *Block {
	t.Helper()
	for _, b := range g.blocks {
		if b.Type == TypeCell && g.Text(b) == text {
			return b
		}
	}
	t.Fatalf("no cell with text %q", text)
	return nil
}
