package blocks

// BlockType identifies the variant of a Block
type BlockType string

const (
	TypeKeyValueSet      BlockType = "KEY_VALUE_SET"
	TypeWord             BlockType = "WORD"
	TypeSelectionElement BlockType = "SELECTION_ELEMENT"
	TypeTable            BlockType = "TABLE"
	TypeCell             BlockType = "CELL"
	TypeQuery            BlockType = "QUERY"
	TypeQueryResult      BlockType = "QUERY_RESULT"
	TypeLine             BlockType = "LINE"
	TypePage             BlockType = "PAGE"
)

// Known reports whether the type is one the reconstruction code understands
func (t BlockType) Known() bool {
	switch t {
	case TypeKeyValueSet, TypeWord, TypeSelectionElement, TypeTable,
		TypeCell, TypeQuery, TypeQueryResult, TypeLine, TypePage:
		return true
	}
	return false
}

// RelationshipType identifies how a block points at other blocks
type RelationshipType string

const (
	RelChild  RelationshipType = "CHILD"
	RelValue  RelationshipType = "VALUE"
	RelAnswer RelationshipType = "ANSWER"
)

// Known reports whether the relationship type is one we follow
func (t RelationshipType) Known() bool {
	return t == RelChild || t == RelValue || t == RelAnswer
}

// Entity roles carried by KEY_VALUE_SET blocks
const (
	EntityKey   = "KEY"
	EntityValue = "VALUE"
)

// Selection states carried by SELECTION_ELEMENT blocks
const (
	Selected    = "SELECTED"
	NotSelected = "NOT_SELECTED"
)

// Relationship is a typed, directed link from one block to a list of others
type Relationship struct {
	Type RelationshipType `json:"type"`
	IDs  []string         `json:"ids"`
}

// Query is the question attached to a QUERY block, or inlined on a
// QUERY_RESULT block by services that do so
type Query struct {
	Text  string `json:"text"`
	Alias string `json:"alias,omitempty"`
}

// Block is one node in a document analysis result graph.
// Which optional fields are populated depends on Type:
//
//   - WORD, LINE, QUERY_RESULT: Text
//   - KEY_VALUE_SET: EntityTypes
//   - SELECTION_ELEMENT: SelectionStatus
//   - CELL: RowIndex, ColumnIndex (1-based)
//   - QUERY (and sometimes QUERY_RESULT): Query
type Block struct {
	ID            string         `json:"id"`
	Type          BlockType      `json:"type"`
	Text          string         `json:"text,omitempty"`
	Page          int            `json:"page,omitempty"`
	Confidence    float32        `json:"confidence,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`

	EntityTypes     []string `json:"entity_types,omitempty"`
	SelectionStatus string   `json:"selection_status,omitempty"`
	RowIndex        *int     `json:"row_index,omitempty"`
	ColumnIndex     *int     `json:"column_index,omitempty"`
	Query           *Query   `json:"query,omitempty"`
}

// IsKey reports whether a KEY_VALUE_SET block plays the key role
func (b *Block) IsKey() bool {
	for _, e := range b.EntityTypes {
		if e == EntityKey {
			return true
		}
	}
	return false
}

// Targets returns the target ids of every relationship of the given type,
// in the order the relationships list them
func (b *Block) Targets(t RelationshipType) []string {
	var ids []string
	for _, rel := range b.Relationships {
		if rel.Type == t {
			ids = append(ids, rel.IDs...)
		}
	}
	return ids
}

// Table is a reconstructed table: ordered rows of ordered cell text.
// Rows may differ in length when the source table is sparse.
type Table [][]string
