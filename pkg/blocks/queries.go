package blocks

import "strings"

// QuerySpec is a targeted question sent to the analysis service
type QuerySpec struct {
	Text  string
	Alias string
}

// Aliases used by the query pipeline
const (
	AliasTitle       = "Title"
	AliasDate        = "Date"
	AliasVolumeIssue = "VolumeIssueNumber"
)

// DefaultQueries are the questions asked of every document by the query pipeline
var DefaultQueries = []QuerySpec{
	{Text: "Title", Alias: AliasTitle},
	{Text: "Date", Alias: AliasDate},
	{Text: "Volume/Issue Number", Alias: AliasVolumeIssue},
}

// QueryResults maps query aliases to the answer text found by the service.
// The answer text is read directly from each QUERY_RESULT block. Its alias
// is taken from the block itself when the service inlines the query there,
// otherwise from the QUERY block whose ANSWER relationship points at it.
// Aliases the service found no answer for are absent from the map.
func (g *Graph) QueryResults() map[string]string {
	// Resolve aliases through QUERY -> ANSWER links first
	answerAlias := make(map[string]string)
	for _, b := range g.blocks {
		if b.Type != TypeQuery || b.Query == nil {
			continue
		}
		alias := queryAlias(b.Query)
		for _, id := range b.Targets(RelAnswer) {
			if _, seen := answerAlias[id]; !seen {
				answerAlias[id] = alias
			}
		}
	}

	results := make(map[string]string)
	for _, b := range g.blocks {
		if b.Type != TypeQueryResult {
			continue
		}
		alias := ""
		if b.Query != nil {
			alias = queryAlias(b.Query)
		}
		if alias == "" {
			alias = answerAlias[b.ID]
		}
		if alias == "" {
			continue
		}
		results[alias] = b.Text
	}
	return results
}

// FullText joins the text of every LINE block in response order, one per line
func (g *Graph) FullText() string {
	var lines []string
	for _, b := range g.blocks {
		if b.Type == TypeLine {
			lines = append(lines, b.Text)
		}
	}
	return strings.Join(lines, "\n")
}

func queryAlias(q *Query) string {
	if q.Alias != "" {
		return q.Alias
	}
	return q.Text
}
