package aql

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// keywords are reserved in every position of a query. Matching is
// case-insensitive.
var keywords = map[string]bool{
	"AGGREGATE": true, "ALL": true, "ALL_SHORTEST_PATHS": true, "AND": true,
	"ANY": true, "ASC": true, "COLLECT": true, "DESC": true, "DISTINCT": true,
	"FALSE": true, "FILTER": true, "FOR": true, "GRAPH": true, "IN": true,
	"INBOUND": true, "INSERT": true, "INTO": true, "K_PATHS": true,
	"K_SHORTEST_PATHS": true, "LET": true, "LIKE": true, "LIMIT": true,
	"NONE": true, "NOT": true, "NULL": true, "OR": true, "OUTBOUND": true,
	"REMOVE": true, "REPLACE": true, "RETURN": true, "SEARCH": true,
	"SHORTEST_PATH": true, "SORT": true, "TRUE": true, "UPDATE": true,
	"UPSERT": true, "WINDOW": true, "WITH": true,
}

// pseudoVariables cannot be declared as variables.
var pseudoVariables = map[string]bool{
	"NEW": true, "OLD": true, "CURRENT": true,
}

func isKeyword(s string) bool {
	return keywords[strings.ToUpper(s)]
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return strings.Trim(s, "_") != ""
}

// attribute renders an attribute name, quoting it with backticks when it
// is not a plain identifier.
func attribute(name string) string {
	if isIdentifier(name) && !isKeyword(name) {
		return name
	}
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

// objectKey renders a key of an object literal.
func objectKey(name string) string {
	if isIdentifier(name) && !isKeyword(name) {
		return name
	}
	return strconv.Quote(name)
}

// isFunctionName accepts built-in names and namespaced user functions
// such as MYLIB::DOUBLE.
func isFunctionName(s string) bool {
	for _, part := range strings.Split(s, "::") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

// sortedParamNames orders bind variable keys by family, then number.
func sortedParamNames(vars map[string]any) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		fa, na := splitParamName(a)
		fb, nb := splitParamName(b)
		if c := cmp.Compare(fa, fb); c != 0 {
			return c
		}
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

func splitParamName(name string) (string, int) {
	i := strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return name, -1
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, -1
	}
	return name[:i], n
}

// varNames hands out variable names unique within one query.
type varNames struct {
	taken map[string]bool
}

func (v *varNames) declare(base string) string {
	if !isIdentifier(base) {
		base = "x"
	}
	if isKeyword(base) || pseudoVariables[strings.ToUpper(base)] {
		base += "_"
	}
	name := base
	for i := 1; v.taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	v.taken[name] = true
	return name
}
