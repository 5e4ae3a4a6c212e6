package model

import (
	"fmt"
	"reflect"
)

// ResultOperator reduces or reshapes a query's output. Operators are
// applied in order; each wraps everything before it.
type ResultOperator interface {
	resultOperator()

	// Name is the operation name used in messages.
	Name() string

	// OutputInfo derives the operator's output from its input, failing
	// with a TYPE_MISMATCH error when the input is incompatible.
	OutputInfo(in StreamedInfo) (StreamedInfo, error)
}

type (
	CountOperator    struct{}
	SumOperator      struct{}
	MinOperator      struct{}
	MaxOperator      struct{}
	AverageOperator  struct{}
	AnyOperator      struct{}
	AllOperator      struct{}
	DistinctOperator struct{}

	FirstOperator struct {
		DefaultWhenEmpty bool
	}

	SingleOperator struct {
		DefaultWhenEmpty bool
	}

	ContainsOperator struct {
		Item Expr
	}

	CastOperator struct {
		Type reflect.Type
	}

	IntersectOperator struct {
		Source2 Expr
	}

	UnionOperator struct {
		Source2 Expr
	}

	ExceptOperator struct {
		Source2 Expr
	}
)

func (*CountOperator) resultOperator()     {}
func (*SumOperator) resultOperator()       {}
func (*MinOperator) resultOperator()       {}
func (*MaxOperator) resultOperator()       {}
func (*AverageOperator) resultOperator()   {}
func (*AnyOperator) resultOperator()       {}
func (*AllOperator) resultOperator()       {}
func (*DistinctOperator) resultOperator()  {}
func (*FirstOperator) resultOperator()     {}
func (*SingleOperator) resultOperator()    {}
func (*ContainsOperator) resultOperator()  {}
func (*CastOperator) resultOperator()      {}
func (*IntersectOperator) resultOperator() {}
func (*UnionOperator) resultOperator()     {}
func (*ExceptOperator) resultOperator()    {}

func (*CountOperator) Name() string     { return "Count" }
func (*SumOperator) Name() string       { return "Sum" }
func (*MinOperator) Name() string       { return "Min" }
func (*MaxOperator) Name() string       { return "Max" }
func (*AverageOperator) Name() string   { return "Average" }
func (*AnyOperator) Name() string       { return "Any" }
func (*AllOperator) Name() string       { return "All" }
func (*DistinctOperator) Name() string  { return "Distinct" }
func (*ContainsOperator) Name() string  { return "Contains" }
func (*CastOperator) Name() string      { return "Cast" }
func (*IntersectOperator) Name() string { return "Intersect" }
func (*UnionOperator) Name() string     { return "Union" }
func (*ExceptOperator) Name() string    { return "Except" }

func (o *FirstOperator) Name() string {
	if o.DefaultWhenEmpty {
		return "FirstOrDefault"
	}
	return "First"
}

func (o *SingleOperator) Name() string {
	if o.DefaultWhenEmpty {
		return "SingleOrDefault"
	}
	return "Single"
}

func requireSequence(op ResultOperator, in StreamedInfo) error {
	if in.Kind != KindSequence {
		return Errorf(CodeTypeMismatch, "%s requires a sequence input, got %s", op.Name(), in)
	}
	return nil
}

func (o *CountOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Scalar(typeInt), nil
}

func (o *SumOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	if !isNumeric(in.Type) {
		return StreamedInfo{}, Errorf(CodeTypeMismatch, "Sum requires numeric items, got %v", in.Type)
	}
	return Scalar(in.Type), nil
}

func (o *AverageOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	if !isNumeric(in.Type) {
		return StreamedInfo{}, Errorf(CodeTypeMismatch, "Average requires numeric items, got %v", in.Type)
	}
	return Scalar(typeFloat64), nil
}

func (o *MinOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Single(in.Type, false), nil
}

func (o *MaxOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Single(in.Type, false), nil
}

func choiceInfo(op ResultOperator, in StreamedInfo, defaultWhenEmpty bool) (StreamedInfo, error) {
	if err := requireSequence(op, in); err != nil {
		return StreamedInfo{}, err
	}
	if defaultWhenEmpty {
		return Single(Nullable(in.Type), true), nil
	}
	return Single(in.Type, false), nil
}

func (o *FirstOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	return choiceInfo(o, in, o.DefaultWhenEmpty)
}

func (o *SingleOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	return choiceInfo(o, in, o.DefaultWhenEmpty)
}

func (o *AnyOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Scalar(typeBool), nil
}

func (o *AllOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Scalar(typeBool), nil
}

func (o *ContainsOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return Scalar(typeBool), nil
}

func (o *DistinctOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return in, nil
}

func (o *IntersectOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return in, nil
}

func (o *UnionOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return in, nil
}

func (o *ExceptOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	return in, nil
}

func (o *CastOperator) OutputInfo(in StreamedInfo) (StreamedInfo, error) {
	if err := requireSequence(o, in); err != nil {
		return StreamedInfo{}, err
	}
	if !Convertible(in.Type, o.Type) {
		return StreamedInfo{}, Errorf(CodeTypeMismatch, "cannot cast %v items to %v", in.Type, o.Type)
	}
	return Sequence(o.Type), nil
}

// operatorExprs returns the expressions held by op.
func operatorExprs(op ResultOperator) []Expr {
	switch o := op.(type) {
	case *ContainsOperator:
		return []Expr{o.Item}
	case *IntersectOperator:
		return []Expr{o.Source2}
	case *UnionOperator:
		return []Expr{o.Source2}
	case *ExceptOperator:
		return []Expr{o.Source2}
	}
	return nil
}

// FormatOperator renders op for debugging.
func FormatOperator(op ResultOperator) string {
	exprs := operatorExprs(op)
	if len(exprs) == 0 {
		if c, ok := op.(*CastOperator); ok {
			return fmt.Sprintf("Cast[%v]()", c.Type)
		}
		return op.Name() + "()"
	}
	return fmt.Sprintf("%s(%s)", op.Name(), Format(exprs[0]))
}
