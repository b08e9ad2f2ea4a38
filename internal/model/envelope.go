package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultQueryLabel labels a statement the model left unnamed.
const DefaultQueryLabel = "Query Result"

// Envelope is the JSON contract the model must answer with.
type Envelope struct {
	Title               *string `json:"title,omitempty"`
	AIText              *AIText `json:"ai_text" validate:"required"`
	QueryList           []Query `json:"query_list,omitempty" validate:"omitempty,dive"`
	SQLQuery            *Query  `json:"sql_query,omitempty"`
	NextGenSummary      string  `json:"next_gen_summary" validate:"required"`
	IntentExplanation   *string `json:"intent_explanation,omitempty"`
	EmptyResultFallback string  `json:"empty_result_fallback,omitempty"`
}

// AIText is the narrative part of a model answer.
type AIText struct {
	IntroMessage string          `json:"intro_message" validate:"required"`
	OutroMessage string          `json:"outro_message"`
	ToCanvas     json.RawMessage `json:"to_canvas,omitempty"`
}

// Queries returns query_list followed by sql_query.
func (e *Envelope) Queries() []Query {
	var out []Query
	out = append(out, e.QueryList...)
	if e.SQLQuery != nil {
		out = append(out, *e.SQLQuery)
	}
	return out
}

// Canvas reports whether to_canvas holds a truthy JSON value.
func (t *AIText) Canvas() bool {
	raw := bytes.TrimSpace(t.ToCanvas)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`, "0":
		return false
	}
	return true
}

// Query is one model-authored SQL statement. It decodes from a bare string or a {sql, label} object.
type Query struct {
	SQL   string `json:"sql"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts either "SELECT ..." or {"sql": "...", "label": "..."}.
func (q *Query) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*q = Query{}
		return nil
	}
	switch data[0] {
	case '"':
		var sql string
		if err := json.Unmarshal(data, &sql); err != nil {
			return err
		}
		*q = Query{SQL: sql}
		return nil
	case '{':
		type plain Query
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*q = Query(p)
		return nil
	default:
		return fmt.Errorf("query must be a string or an object, got %s", data[:1])
	}
}

// DisplayLabel returns the label or the default one.
func (q Query) DisplayLabel() string {
	if q.Label == "" {
		return DefaultQueryLabel
	}
	return q.Label
}

// QueryResult is the outcome of one executed statement.
type QueryResult struct {
	Rows    int64            `json:"rows"`
	Columns int              `json:"columns"`
	Data    []map[string]any `json:"data"`
	Label   string           `json:"label"`
}

// Failed reports whether the statement was recorded as an error.
func (r QueryResult) Failed() bool {
	return strings.HasPrefix(r.Label, errorLabelPrefix)
}

const errorLabelPrefix = "Error: "

// FailedQueryResult is recorded in place of a statement that could not run.
func FailedQueryResult(q Query) QueryResult {
	return QueryResult{
		Rows:    0,
		Columns: 0,
		Data:    []map[string]any{},
		Label:   errorLabelPrefix + q.DisplayLabel(),
	}
}

// TotalRows sums the row counts of a batch.
func TotalRows(results []QueryResult) int64 {
	var total int64
	for _, r := range results {
		total += r.Rows
	}
	return total
}
