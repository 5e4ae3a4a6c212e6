package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/aqlgen/internal/lambda"
	"github.com/roach88/aqlgen/internal/parser"
)

// Validation error codes.
const (
	ErrQueryNameEmpty     = "E101" // query has no name
	ErrDuplicateQuery     = "E102" // two queries share a name
	ErrSourceConflict     = "E103" // collection and values both set
	ErrNoSteps            = "E104" // query has no steps
	ErrUnknownOperation   = "E105" // op/arity not registered
	ErrInvalidArgument    = "E106" // argument sets zero or several forms
	ErrInvalidLambda      = "E107" // lambda text does not parse
	ErrInvalidPlaceholder = "E108" // lambda refers to a missing param
)

// ValidationError is one problem found by Validate.
type ValidationError struct {
	Query   string `json:"query"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks specs against reg without translating them. It reports
// every problem found rather than stopping at the first one.
func Validate(specs []*QuerySpec, reg *parser.Registry) []ValidationError {
	if reg == nil {
		reg = parser.DefaultRegistry()
	}
	v := &validator{reg: reg}
	seen := map[string]bool{}
	for _, spec := range specs {
		v.query = spec.Name
		field := "query." + spec.Name
		switch {
		case strings.TrimSpace(spec.Name) == "":
			v.add(field, ErrQueryNameEmpty, "query name is required", lineOf(spec.Pos))
		case seen[spec.Name]:
			v.add(field, ErrDuplicateQuery, fmt.Sprintf("query %q is defined more than once", spec.Name), lineOf(spec.Pos))
		}
		seen[spec.Name] = true
		v.spec(spec, spec.Params, field)
	}
	return v.errs
}

type validator struct {
	reg   *parser.Registry
	query string
	errs  []ValidationError
}

func (v *validator) add(field, code, message string, line int) {
	v.errs = append(v.errs, ValidationError{Query: v.query, Field: field, Message: message, Code: code, Line: line})
}

func (v *validator) spec(spec *QuerySpec, inherited []any, field string) {
	params := spec.Params
	if params == nil {
		params = inherited
	}
	if spec.Collection != "" && spec.Values != nil {
		v.add(field, ErrSourceConflict, "collection and values are exclusive", lineOf(spec.Pos))
	}
	if len(spec.Steps) == 0 {
		v.add(field+".steps", ErrNoSteps, "at least one step is required", lineOf(spec.Pos))
	}
	for i, step := range spec.Steps {
		stepField := fmt.Sprintf("%s.steps[%d]", field, i)
		if _, ok := v.reg.Lookup(step.Op, len(step.Args)); !ok {
			v.add(stepField+".op", ErrUnknownOperation, v.unknownOperation(step.Op, len(step.Args)), lineOf(step.Pos))
		}
		for j, a := range step.Args {
			v.arg(a, params, fmt.Sprintf("%s.args[%d]", stepField, j))
		}
	}
}

// unknownOperation names the arities op does accept, or the registered
// operations when op is not one of them.
func (v *validator) unknownOperation(op string, arity int) string {
	msg := fmt.Sprintf("no translation for %s with %d argument(s)", op, arity)
	var arities, ops []string
	for _, sig := range v.reg.Signatures() {
		if sig.Method == op {
			arities = append(arities, strconv.Itoa(sig.Arity))
		}
		if len(ops) == 0 || ops[len(ops)-1] != sig.Method {
			ops = append(ops, sig.Method)
		}
	}
	if len(arities) > 0 {
		return msg + "; " + op + " takes " + strings.Join(arities, " or ") + " argument(s)"
	}
	return msg + "; known operations: " + strings.Join(ops, ", ")
}

func (v *validator) arg(a ArgSpec, params []any, field string) {
	if a.kinds() != 1 {
		v.add(field, ErrInvalidArgument, "exactly one of lambda, value and query is required", lineOf(a.Pos))
		return
	}
	switch {
	case a.Lambda != "":
		if _, err := lambda.Parse(a.Lambda, nil, params...); err != nil {
			code := ErrInvalidLambda
			if strings.Contains(err.Error(), "placeholder") {
				code = ErrInvalidPlaceholder
			}
			v.add(field+".lambda", code, err.Error(), lineOf(a.Pos))
		}
	case a.Query != nil:
		v.spec(a.Query, params, field+".query")
	}
}
