package aql

import (
	"encoding/json"

	"github.com/roach88/aqlgen/internal/ir"
)

// BindParam is one entry of a query's parameter table. Name is the bind
// variable key: P{n} for values and @C{n} for collection names.
type BindParam struct {
	Name  string
	Value any
}

// QueryData is a translated query: its text and the values bound to its
// placeholders, in order of first use.
type QueryData struct {
	Query  string
	Params []BindParam
}

// BindVars returns the parameters as the map sent to the server.
func (q *QueryData) BindVars() map[string]any {
	vars := make(map[string]any, len(q.Params))
	for _, p := range q.Params {
		vars[p.Name] = p.Value
	}
	return vars
}

// Fingerprint identifies the query text together with its bound values.
func (q *QueryData) Fingerprint() (string, error) {
	return ir.QueryFingerprint(q.Query, q.BindVars())
}

// Shape identifies the query text alone. Queries that differ only in bound
// values share a shape.
func (q *QueryData) Shape() string {
	return ir.ShapeHash(q.Query)
}

type queryJSON struct {
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars"`
}

// MarshalJSON encodes the query in the form of a cursor request body.
func (q QueryData) MarshalJSON() ([]byte, error) {
	return json.Marshal(queryJSON{Query: q.Query, BindVars: q.BindVars()})
}

// UnmarshalJSON decodes the form produced by MarshalJSON. Parameters are
// ordered by family and number.
func (q *QueryData) UnmarshalJSON(data []byte) error {
	var raw queryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Query = raw.Query
	q.Params = q.Params[:0]
	for _, name := range sortedParamNames(raw.BindVars) {
		q.Params = append(q.Params, BindParam{Name: name, Value: raw.BindVars[name]})
	}
	return nil
}
