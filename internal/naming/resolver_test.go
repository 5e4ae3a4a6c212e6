package naming

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Person struct {
	Key      string
	Name     string
	Nickname string `json:"nick,omitempty"`
	Hidden   string `json:"-"`
}

type Follows struct {
	From string
	To   string
}

func (Follows) CollectionName() string { return "follows" }

type Pair struct {
	Vertex  string
	URLPath string
}

func (Pair) NamingConvention() Convention { return CamelCase }

func TestResolveCollectionName(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, "Person", r.ResolveCollectionName(reflect.TypeFor[Person]()))
	assert.Equal(t, "Person", r.ResolveCollectionName(reflect.TypeFor[[]*Person]()))
	assert.Equal(t, "follows", r.ResolveCollectionName(reflect.TypeFor[Follows]()))
	assert.Equal(t, "", r.ResolveCollectionName(nil))

	r = NewResolver(WithCollection("Person", "people"))
	assert.Equal(t, "people", r.ResolveCollectionName(reflect.TypeFor[Person]()))
}

func TestResolvePropertyName(t *testing.T) {
	person := reflect.TypeFor[Person]()
	r := NewResolver()

	tests := []struct {
		name     string
		owner    reflect.Type
		member   string
		expected string
	}{
		{"identity", person, "Name", "Name"},
		{"reserved key", person, "Key", "_key"},
		{"reserved on unknown type", nil, "Id", "_id"},
		{"json tag", person, "Nickname", "nick"},
		{"json dash falls through", person, "Hidden", "Hidden"},
		{"edge from", reflect.TypeFor[Follows](), "From", "_from"},
		{"type convention", reflect.TypeFor[Pair](), "Vertex", "vertex"},
		{"acronym", reflect.TypeFor[Pair](), "URLPath", "urlPath"},
		{"untyped", nil, "age", "age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.ResolvePropertyName(tt.owner, tt.member))
		})
	}
}

func TestResolvePropertyNameOverrides(t *testing.T) {
	person := reflect.TypeFor[Person]()
	r := NewResolver(
		WithConvention(CamelCase),
		WithProperty("Person.Name", "fullName"),
		WithProperty("Score", "points"),
	)

	assert.Equal(t, "fullName", r.ResolvePropertyName(person, "Name"))
	assert.Equal(t, "points", r.ResolvePropertyName(nil, "Score"))
	assert.Equal(t, "emailAddress", r.ResolvePropertyName(nil, "EmailAddress"))
	assert.Equal(t, "_key", r.ResolvePropertyName(person, "Key"))
}

func TestToCamel(t *testing.T) {
	tests := map[string]string{
		"Name":    "name",
		"ID":      "id",
		"URLPath": "urlPath",
		"already": "already",
		"":        "",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, toCamel(in), in)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naming.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`convention: camel
collections:
  Person: people
properties:
  Person.Name: fullName
group_keys:
  key: k
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	r := cfg.Resolver()
	assert.Equal(t, "people", r.ResolveCollectionName(reflect.TypeFor[Person]()))
	assert.Equal(t, "fullName", r.ResolvePropertyName(reflect.TypeFor[Person](), "Name"))
	assert.Equal(t, "nickname", r.ResolvePropertyName(nil, "Nickname"))
	assert.Equal(t, "k", r.ResolveGroupKeyName("key"))
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig([]byte("conventions: camel\n"))
	require.Error(t, err)

	_, err = ParseConfig([]byte("convention: snake\n"))
	require.Error(t, err)
}
