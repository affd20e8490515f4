package pipeline

import "github.com/gardar/formsheet/pkg/blocks"

// FormRow lays out key/values under a tab's header: each header cell
// selects the key with exactly the same text, or "" when there is none
func FormRow(header []string, kv map[string]string) []string {
	row := make([]string, len(header))
	for i, h := range header {
		row[i] = kv[h]
	}
	return row
}

// TableRows prefixes every row of a table with the source object key
func TableRows(key string, table blocks.Table) [][]string {
	rows := make([][]string, 0, len(table))
	for _, r := range table {
		row := make([]string, 0, len(r)+1)
		row = append(row, key)
		row = append(row, r...)
		rows = append(rows, row)
	}
	return rows
}

// QueryRow is the fixed Title, Date, Description, Volume/Issue Number row
func QueryRow(results map[string]string, summary string) []string {
	return []string{
		results[blocks.AliasTitle],
		results[blocks.AliasDate],
		summary,
		results[blocks.AliasVolumeIssue],
	}
}
