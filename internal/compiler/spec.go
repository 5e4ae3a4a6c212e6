package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// QuerySpec is a declarative query: a source followed by method steps. It
// is written in CUE or YAML and compiled to the expression chain the
// fluent API would build.
//
//	query: adults: {
//		collection: "People"
//		params: [30]
//		steps: [
//			{op: "Where", args: [{lambda: "p => p.age > $0"}]},
//			{op: "Count"},
//		]
//	}
//
// The source is a collection name, a constant list of values, or neither
// for queries that start from a fixed vertex such as Traversal. Lambda
// placeholders $0, $1, ... refer to params.
type QuerySpec struct {
	Name       string     `yaml:"name" json:"name"`
	Collection string     `yaml:"collection,omitempty" json:"collection,omitempty"`
	Values     []any      `yaml:"values,omitempty" json:"values,omitempty"`
	Params     []any      `yaml:"params,omitempty" json:"params,omitempty"`
	Steps      []StepSpec `yaml:"steps" json:"steps"`

	Pos token.Pos `yaml:"-" json:"-"`
}

// StepSpec is one method call of a QuerySpec.
type StepSpec struct {
	Op   string    `yaml:"op" json:"op"`
	Args []ArgSpec `yaml:"args,omitempty" json:"args,omitempty"`

	Pos token.Pos `yaml:"-" json:"-"`
}

// ArgSpec is one argument of a step. Exactly one of Lambda, Value and
// Query is set. A null Value counts as unset.
type ArgSpec struct {
	Lambda string     `yaml:"lambda,omitempty" json:"lambda,omitempty"`
	Value  any        `yaml:"value,omitempty" json:"value,omitempty"`
	Query  *QuerySpec `yaml:"query,omitempty" json:"query,omitempty"`

	Pos token.Pos `yaml:"-" json:"-"`
}

// HasSource reports whether the query names a collection or values.
func (s *QuerySpec) HasSource() bool {
	return s.Collection != "" || s.Values != nil
}

type yamlFile struct {
	Queries []*QuerySpec `yaml:"queries"`
}

// ParseYAML reads a document of the form
//
//	queries:
//	  - name: adults
//	    collection: People
//	    steps: [...]
//
// Unknown fields are rejected.
func ParseYAML(data []byte) ([]*QuerySpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f yamlFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "queries", Message: "document is empty"}
		}
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	if err := Normalize(f.Queries); err != nil {
		return nil, err
	}
	return f.Queries, nil
}

// Normalize prepares specs decoded from YAML by another document type,
// such as a test scenario, for Build and Validate.
func Normalize(specs []*QuerySpec) error {
	for i, q := range specs {
		if q == nil {
			return &CompileError{Field: fmt.Sprintf("queries[%d]", i), Message: "query is empty"}
		}
		normalizeSpec(q)
	}
	return nil
}

// normalizeSpec converts YAML-decoded values to the forms CUE values
// decode to, so both front ends bind identical parameters.
func normalizeSpec(q *QuerySpec) {
	for i, v := range q.Values {
		q.Values[i] = normalizeValue(v)
	}
	for i, v := range q.Params {
		q.Params[i] = normalizeValue(v)
	}
	for i := range q.Steps {
		for j := range q.Steps[i].Args {
			a := &q.Steps[i].Args[j]
			a.Value = normalizeValue(a.Value)
			if a.Query != nil {
				normalizeSpec(a.Query)
			}
		}
	}
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	case int64:
		return int(val)
	}
	return v
}
