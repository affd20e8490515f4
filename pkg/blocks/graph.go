// Package blocks reconstructs form fields, tables and query answers from the
// flat, relationally linked block graph returned by document analysis services.
//
// A response is a slice of Block values. Blocks reference each other by id
// through typed relationships (CHILD, VALUE, ANSWER). Graph indexes one
// response and walks those links to produce:
//
// - KeyValues: the form's key text mapped to its value text
// - Tables: every table as ordered rows of cell text
// - QueryResults: answers to targeted queries, keyed by query alias
// - FullText: all LINE blocks joined in reading order
//
// Converters build Block slices from AWS Textract (FromTextract) and Google
// Document AI (FromDocumentAI) responses so both backends share the same
// reconstruction code.
package blocks

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is an id index over the blocks of a single analysis response
type Graph struct {
	blocks []*Block
	byID   map[string]*Block
}

// NewGraph indexes the blocks of one response. Blocks with an unrecognized
// type are kept in the index but never contribute to reconstruction.
func NewGraph(bs []Block) *Graph {
	g := &Graph{
		blocks: make([]*Block, 0, len(bs)),
		byID:   make(map[string]*Block, len(bs)),
	}
	for i := range bs {
		b := &bs[i]
		g.blocks = append(g.blocks, b)
		if b.ID != "" {
			g.byID[b.ID] = b
		}
	}
	return g
}

// Len returns the number of indexed blocks
func (g *Graph) Len() int {
	return len(g.blocks)
}

// Block returns the block with the given id, or nil when it is not part of
// this response
func (g *Graph) Block(id string) *Block {
	return g.byID[id]
}

// Text renders the content of a block from its immediate CHILD blocks.
// WORD children contribute their text, selected SELECTION_ELEMENT children
// contribute "X", and every other child is ignored. Children that cannot be
// resolved are skipped.
func (g *Graph) Text(b *Block) string {
	if b == nil {
		return ""
	}

	var sb strings.Builder
	for _, id := range b.Targets(RelChild) {
		child := g.Block(id)
		if child == nil {
			continue
		}
		switch child.Type {
		case TypeWord:
			sb.WriteString(child.Text)
			sb.WriteString(" ")
		case TypeSelectionElement:
			if child.SelectionStatus == Selected {
				sb.WriteString("X ")
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// KeyValues pairs every key block with its value block and returns the
// rendered key text mapped to the rendered value text. A key without a
// resolvable value maps to "". When two keys render to the same text the
// later one wins.
func (g *Graph) KeyValues() map[string]string {
	keys := make([]*Block, 0)
	values := make(map[string]*Block)

	// Partition by entity role
	for _, b := range g.blocks {
		if b.Type != TypeKeyValueSet {
			continue
		}
		if b.IsKey() {
			keys = append(keys, b)
		} else {
			values[b.ID] = b
		}
	}

	kv := make(map[string]string, len(keys))
	for _, key := range keys {
		var value *Block
		if ids := key.Targets(RelValue); len(ids) > 0 {
			value = values[ids[0]]
		}
		kv[g.Text(key)] = g.Text(value)
	}
	return kv
}

// CellIndexError is returned when a CELL block lacks its row or column index
type CellIndexError struct {
	TableID string
	CellID  string
	Missing string // "row", "column" or "row and column"
}

func (e *CellIndexError) Error() string {
	return fmt.Sprintf("table %s: cell %s has no %s index", e.TableID, e.CellID, e.Missing)
}

// Tables reconstructs every TABLE block, in the order the tables appear in
// the response. Rows are ordered by row index and cells within a row by
// column index. Columns a row does not have are skipped rather than padded,
// so rows of a sparse table can differ in length.
func (g *Graph) Tables() ([]Table, error) {
	var tables []Table
	for _, b := range g.blocks {
		if b.Type != TypeTable {
			continue
		}
		t, err := g.table(b)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (g *Graph) table(tb *Block) (Table, error) {
	rows := make(map[int]map[int]string)

	for _, id := range tb.Targets(RelChild) {
		cell := g.Block(id)
		if cell == nil || cell.Type != TypeCell {
			continue
		}
		if cell.RowIndex == nil || cell.ColumnIndex == nil {
			return nil, &CellIndexError{TableID: tb.ID, CellID: cell.ID, Missing: missingIndex(cell)}
		}
		row, ok := rows[*cell.RowIndex]
		if !ok {
			row = make(map[int]string)
			rows[*cell.RowIndex] = row
		}
		row[*cell.ColumnIndex] = g.Text(cell)
	}

	table := make(Table, 0, len(rows))
	for _, r := range sortedKeys(rows) {
		cols := rows[r]
		values := make([]string, 0, len(cols))
		for _, c := range sortedKeys(cols) {
			values = append(values, cols[c])
		}
		table = append(table, values)
	}
	return table, nil
}

func missingIndex(cell *Block) string {
	switch {
	case cell.RowIndex == nil && cell.ColumnIndex == nil:
		return "row and column"
	case cell.RowIndex == nil:
		return "row"
	default:
		return "column"
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
