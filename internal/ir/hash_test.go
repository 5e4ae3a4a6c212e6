package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFingerprintDeterminism(t *testing.T) {
	vars := map[string]any{"@C0": "People", "P0": 30}

	a, err := QueryFingerprint("FOR p IN @@C0 FILTER p.age > @P0 RETURN p", vars)
	require.NoError(t, err)
	b, err := QueryFingerprint("FOR p IN @@C0 FILTER p.age > @P0 RETURN p", map[string]any{"P0": 30, "@C0": "People"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestQueryFingerprintChangesWithValues(t *testing.T) {
	text := "FOR p IN @@C0 FILTER p.age > @P0 RETURN p"
	a, err := QueryFingerprint(text, map[string]any{"@C0": "People", "P0": 30})
	require.NoError(t, err)
	b, err := QueryFingerprint(text, map[string]any{"@C0": "People", "P0": 25})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestShapeHashIgnoresValues(t *testing.T) {
	text := "FOR p IN @@C0 FILTER p.age > @P0 RETURN p"
	assert.Equal(t, ShapeHash(text), ShapeHash(text))
	assert.NotEqual(t, ShapeHash(text), ShapeHash(text+" "))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`"x"`)
	assert.NotEqual(t, hashWithDomain(DomainQuery, data), hashWithDomain(DomainShape, data))
}
