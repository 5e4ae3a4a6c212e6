// Package naming maps Go types and members to collection and attribute
// names in the database.
package naming

import (
	"reflect"
	"strings"
	"unicode"
)

// Resolver maps host types and members to database names.
type Resolver interface {
	// ResolveCollectionName returns the collection holding documents of type t.
	ResolveCollectionName(t reflect.Type) string

	// ResolvePropertyName returns the attribute name of member on owner.
	// owner may be nil when the type is only known at runtime.
	ResolvePropertyName(owner reflect.Type, member string) string

	// ResolveGroupKeyName returns the variable name used for a grouping key.
	ResolveGroupKeyName(name string) string
}

// CollectionNamer is implemented by document types that name their own
// collection.
type CollectionNamer interface {
	CollectionName() string
}

// Convention is a rule for deriving attribute names from member names.
type Convention int

const (
	// Identity uses member names unchanged.
	Identity Convention = iota
	// CamelCase lower-cases the leading word of each member name.
	CamelCase
)

// ConventionNamer is implemented by types that request a naming convention
// for their members.
type ConventionNamer interface {
	NamingConvention() Convention
}

// reserved maps conventional member names to ArangoDB system attributes.
var reserved = map[string]string{
	"Key":      "_key",
	"Id":       "_id",
	"Revision": "_rev",
	"From":     "_from",
	"To":       "_to",
}

// DefaultResolver resolves names from explicit overrides, json struct
// tags, reserved system attributes, and a naming convention, in that order.
//
// The zero value uses the identity convention with no overrides.
type DefaultResolver struct {
	convention  Convention
	collections map[string]string
	properties  map[string]string
	groupKeys   map[string]string
}

// Option configures a DefaultResolver.
type Option func(*DefaultResolver)

// WithConvention sets the convention used when a type does not request one.
func WithConvention(c Convention) Option {
	return func(r *DefaultResolver) { r.convention = c }
}

// WithCollection maps the Go type named typeName to collection.
func WithCollection(typeName, collection string) Option {
	return func(r *DefaultResolver) { r.collections[typeName] = collection }
}

// WithProperty maps a member to an attribute. member is either "Member"
// for every type or "Type.Member" for one type.
func WithProperty(member, attribute string) Option {
	return func(r *DefaultResolver) { r.properties[member] = attribute }
}

// WithGroupKey maps a grouping key name to a variable name.
func WithGroupKey(name, variable string) Option {
	return func(r *DefaultResolver) { r.groupKeys[name] = variable }
}

// NewResolver creates a DefaultResolver.
func NewResolver(opts ...Option) *DefaultResolver {
	r := &DefaultResolver{
		collections: make(map[string]string),
		properties:  make(map[string]string),
		groupKeys:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCollectionName implements Resolver.
func (r *DefaultResolver) ResolveCollectionName(t reflect.Type) string {
	t = elem(t)
	if t == nil {
		return ""
	}
	if name, ok := r.collections[t.Name()]; ok {
		return name
	}
	if namer, ok := reflect.New(t).Interface().(CollectionNamer); ok {
		if name := namer.CollectionName(); name != "" {
			return name
		}
	}
	return t.Name()
}

// ResolvePropertyName implements Resolver.
func (r *DefaultResolver) ResolvePropertyName(owner reflect.Type, member string) string {
	owner = elem(owner)
	if owner != nil {
		if name, ok := r.properties[owner.Name()+"."+member]; ok {
			return name
		}
	}
	if name, ok := r.properties[member]; ok {
		return name
	}
	if owner != nil && owner.Kind() == reflect.Struct {
		if f, ok := owner.FieldByName(member); ok {
			if tag := jsonName(f); tag != "" {
				return tag
			}
		}
	}
	if name, ok := reserved[member]; ok {
		return name
	}
	if r.conventionFor(owner) == CamelCase {
		return toCamel(member)
	}
	return member
}

// ResolveGroupKeyName implements Resolver.
func (r *DefaultResolver) ResolveGroupKeyName(name string) string {
	if v, ok := r.groupKeys[name]; ok {
		return v
	}
	return name
}

func (r *DefaultResolver) conventionFor(owner reflect.Type) Convention {
	if owner != nil {
		if namer, ok := reflect.New(owner).Interface().(ConventionNamer); ok {
			return namer.NamingConvention()
		}
	}
	return r.convention
}

func jsonName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// elem strips pointers and slices so that a []*Person resolves like Person.
func elem(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
			continue
		}
		return t
	}
	return nil
}

// toCamel lower-cases the leading run of upper-case letters, keeping the
// last one upper when it starts the next word: "URLPath" becomes "urlPath".
func toCamel(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
