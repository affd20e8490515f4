package blocks

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/google/uuid"
)

// Document AI form field value types that denote checkboxes
const (
	filledCheckbox   = "filled_checkbox"
	unfilledCheckbox = "unfilled_checkbox"
)

// FromDocumentAI converts a Document AI response into the same block graph
// Textract produces, so form fields, tables, lines and extracted entities
// go through the common reconstruction code.
//
// Form fields become KEY_VALUE_SET pairs whose children are one WORD per
// whitespace separated token (or a SELECTION_ELEMENT for checkbox values).
// Tables become TABLE blocks with 1-based CELL indices, header rows first.
// Entities from custom extractors become QUERY_RESULT blocks aliased by
// their entity type.
func FromDocumentAI(doc *documentaipb.Document) []Block {
	if doc == nil {
		return nil
	}
	c := &docaiConverter{text: []rune(doc.Text)}

	for _, page := range doc.Pages {
		pageNum := int(page.PageNumber)

		for _, line := range page.Lines {
			c.add(Block{
				Type: TypeLine,
				Text: strings.TrimSpace(c.layoutText(line.Layout)),
				Page: pageNum,
			})
		}

		for _, field := range page.FormFields {
			c.formField(field, pageNum)
		}

		for _, table := range page.Tables {
			c.table(table, pageNum)
		}
	}

	for _, entity := range doc.Entities {
		c.entity(entity)
	}

	return c.blocks
}

type docaiConverter struct {
	text   []rune
	blocks []Block
}

// add appends a block, assigning it a fresh id, and returns the id
func (c *docaiConverter) add(b Block) string {
	b.ID = uuid.NewString()
	c.blocks = append(c.blocks, b)
	return b.ID
}

// words adds one WORD block per token of s and returns their ids in order
func (c *docaiConverter) words(s string, page int) []string {
	var ids []string
	for _, w := range strings.Fields(s) {
		ids = append(ids, c.add(Block{Type: TypeWord, Text: w, Page: page}))
	}
	return ids
}

func (c *docaiConverter) formField(field *documentaipb.Document_Page_FormField, page int) {
	name := strings.TrimSuffix(strings.TrimSpace(c.layoutText(field.FieldName)), ":")
	if name == "" {
		return
	}

	var valueChildren []string
	switch field.ValueType {
	case filledCheckbox, unfilledCheckbox:
		status := NotSelected
		if field.ValueType == filledCheckbox {
			status = Selected
		}
		valueChildren = []string{c.add(Block{Type: TypeSelectionElement, SelectionStatus: status, Page: page})}
	default:
		valueChildren = c.words(c.layoutText(field.FieldValue), page)
	}

	value := Block{
		Type:        TypeKeyValueSet,
		EntityTypes: []string{EntityValue},
		Page:        page,
	}
	if len(valueChildren) > 0 {
		value.Relationships = []Relationship{{Type: RelChild, IDs: valueChildren}}
	}
	valueID := c.add(value)

	c.add(Block{
		Type:        TypeKeyValueSet,
		EntityTypes: []string{EntityKey},
		Page:        page,
		Relationships: []Relationship{
			{Type: RelValue, IDs: []string{valueID}},
			{Type: RelChild, IDs: c.words(name, page)},
		},
	})
}

func (c *docaiConverter) table(table *documentaipb.Document_Page_Table, page int) {
	rows := make([]*documentaipb.Document_Page_Table_TableRow, 0, len(table.HeaderRows)+len(table.BodyRows))
	rows = append(rows, table.HeaderRows...)
	rows = append(rows, table.BodyRows...)

	// occupied tracks positions covered by cells spanning several rows, so
	// later rows place their cells after them
	occupied := make(map[int]map[int]bool)
	var cells []string

	for r, row := range rows {
		rowIdx := r + 1
		col := 1
		for _, cell := range row.Cells {
			for occupied[rowIdx][col] {
				col++
			}
			rowSpan := max(int(cell.RowSpan), 1)
			colSpan := max(int(cell.ColSpan), 1)
			for dr := 1; dr < rowSpan; dr++ {
				if occupied[rowIdx+dr] == nil {
					occupied[rowIdx+dr] = make(map[int]bool)
				}
				for dc := 0; dc < colSpan; dc++ {
					occupied[rowIdx+dr][col+dc] = true
				}
			}

			ri, ci := rowIdx, col
			cb := Block{Type: TypeCell, Page: page, RowIndex: &ri, ColumnIndex: &ci}
			if words := c.words(c.layoutText(cell.Layout), page); len(words) > 0 {
				cb.Relationships = []Relationship{{Type: RelChild, IDs: words}}
			}
			cells = append(cells, c.add(cb))
			col += colSpan
		}
	}

	tb := Block{Type: TypeTable, Page: page}
	if len(cells) > 0 {
		tb.Relationships = []Relationship{{Type: RelChild, IDs: cells}}
	}
	c.add(tb)
}

// entity adds a QUERY_RESULT for the entity and each of its nested properties
func (c *docaiConverter) entity(entity *documentaipb.Document_Entity) {
	if entity.Type == "" {
		return
	}
	if entity.MentionText != "" {
		c.add(Block{
			Type:       TypeQueryResult,
			Text:       entity.MentionText,
			Confidence: entity.Confidence,
			Query:      &Query{Text: entity.Type, Alias: entity.Type},
		})
	}
	for _, prop := range entity.Properties {
		c.entity(prop)
	}
}

// layoutText extracts text from a layout's text anchor segments
func (c *docaiConverter) layoutText(layout *documentaipb.Document_Page_Layout) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	total := len(c.text)
	var sb strings.Builder

	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > total {
			end = total
		}
		if start > end {
			start = end
		}
		sb.WriteString(string(c.text[start:end]))
	}
	return sb.String()
}
