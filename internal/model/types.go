package model

import (
	"reflect"
)

// TypeLookup returns the item type of a source handle, or nil when unknown.
type TypeLookup func(Handle) reflect.Type

// TypeOf infers the static type of e. It returns nil when the type is only
// known at runtime, which is common for queries built from text lambdas.
func TypeOf(e Expr, lookup TypeLookup) reflect.Type {
	switch n := e.(type) {
	case *Constant:
		if n.Value == nil {
			return nil
		}
		return reflect.TypeOf(n.Value)
	case *CollectionRef:
		if n.ItemType == nil {
			return nil
		}
		return reflect.SliceOf(n.ItemType)
	case *Parameter:
		return n.Type
	case *Member:
		return MemberType(TypeOf(n.Target, lookup), n.Name)
	case *Index:
		t := deref(TypeOf(n.Target, lookup))
		if t != nil {
			switch t.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				return t.Elem()
			}
		}
		return nil
	case *Binary:
		if n.Op.IsComparison() || n.Op == OpAnd || n.Op == OpOr {
			return typeBool
		}
		if l := TypeOf(n.Left, lookup); l != nil {
			return l
		}
		return TypeOf(n.Right, lookup)
	case *Unary:
		if n.Op == OpNot {
			return typeBool
		}
		return TypeOf(n.Operand, lookup)
	case *Conditional:
		return TypeOf(n.Then, lookup)
	case *Convert:
		return n.Type
	case *New:
		return n.Type
	case *SourceRef:
		if lookup == nil {
			return nil
		}
		return lookup(n.Source)
	case *SubQuery:
		if n.Model == nil {
			return nil
		}
		info, err := n.Model.OutputInfo(lookup)
		if err != nil || info.Type == nil {
			return nil
		}
		if info.Kind == KindSequence {
			return reflect.SliceOf(info.Type)
		}
		return info.Type
	}
	return nil
}

// MemberType returns the type of the field named name on owner, or nil.
func MemberType(owner reflect.Type, name string) reflect.Type {
	owner = deref(owner)
	if owner == nil {
		return nil
	}
	switch owner.Kind() {
	case reflect.Struct:
		if f, ok := owner.FieldByName(name); ok {
			return f.Type
		}
	case reflect.Map:
		return owner.Elem()
	}
	return nil
}

// ElementType returns the item type of a sequence type, or nil.
func ElementType(t reflect.Type) reflect.Type {
	t = deref(t)
	if t == nil {
		return nil
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem()
	}
	return nil
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
