package model

import (
	"fmt"
	"reflect"
)

// StreamKind describes the shape of a query's output.
type StreamKind int

const (
	// KindSequence is zero or more items.
	KindSequence StreamKind = iota
	// KindScalar is a single computed value, such as a count.
	KindScalar
	// KindSingle is one item chosen from a sequence, such as First.
	KindSingle
)

func (k StreamKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSingle:
		return "single"
	}
	return "sequence"
}

// StreamedInfo is the output shape and item type of a query stage.
// A nil Type means the type is only known at runtime and passes every
// type check.
type StreamedInfo struct {
	Kind             StreamKind
	Type             reflect.Type
	DefaultWhenEmpty bool
}

// Sequence returns sequence info for items of type t.
func Sequence(t reflect.Type) StreamedInfo { return StreamedInfo{Kind: KindSequence, Type: t} }

// Scalar returns scalar info of type t.
func Scalar(t reflect.Type) StreamedInfo { return StreamedInfo{Kind: KindScalar, Type: t} }

// Single returns single-item info of type t.
func Single(t reflect.Type, defaultWhenEmpty bool) StreamedInfo {
	return StreamedInfo{Kind: KindSingle, Type: t, DefaultWhenEmpty: defaultWhenEmpty}
}

func (i StreamedInfo) String() string {
	if i.Type == nil {
		return i.Kind.String() + "<dynamic>"
	}
	return fmt.Sprintf("%s<%v>", i.Kind, i.Type)
}

var (
	typeInt     = reflect.TypeFor[int]()
	typeFloat64 = reflect.TypeFor[float64]()
	typeBool    = reflect.TypeFor[bool]()
)

func isNumeric(t reflect.Type) bool {
	if t == nil {
		return true
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Interface:
		return true
	}
	return false
}

// Nullable returns a type that can represent "no value" for t: t itself
// when it is already nil-able, otherwise a pointer to t.
func Nullable(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return t
	}
	return reflect.PointerTo(t)
}

// Convertible reports whether items of type from can be narrowed to to.
func Convertible(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return true
	}
	if from.AssignableTo(to) || from.Kind() == reflect.Interface {
		return true
	}
	if to.Kind() == reflect.Interface {
		return from.Implements(to)
	}
	return from.ConvertibleTo(to)
}
