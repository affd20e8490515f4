package blocks

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// FromTextract converts the blocks of a Textract AnalyzeDocument response.
// Relationships of a type we do not follow are dropped.
func FromTextract(in []types.Block) []Block {
	out := make([]Block, 0, len(in))
	for _, tb := range in {
		b := Block{
			ID:              aws.ToString(tb.Id),
			Type:            BlockType(tb.BlockType),
			Text:            aws.ToString(tb.Text),
			Page:            int(aws.ToInt32(tb.Page)),
			Confidence:      aws.ToFloat32(tb.Confidence),
			SelectionStatus: string(tb.SelectionStatus),
			RowIndex:        intPtr(tb.RowIndex),
			ColumnIndex:     intPtr(tb.ColumnIndex),
		}

		for _, et := range tb.EntityTypes {
			b.EntityTypes = append(b.EntityTypes, string(et))
		}

		for _, rel := range tb.Relationships {
			rt := RelationshipType(rel.Type)
			if !rt.Known() {
				continue
			}
			b.Relationships = append(b.Relationships, Relationship{Type: rt, IDs: rel.Ids})
		}

		if tb.Query != nil {
			b.Query = &Query{
				Text:  aws.ToString(tb.Query.Text),
				Alias: aws.ToString(tb.Query.Alias),
			}
		}

		out = append(out, b)
	}
	return out
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
