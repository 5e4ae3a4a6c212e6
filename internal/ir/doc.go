// Package ir provides the bind value model used by the query translator.
//
// Values bound to a query (scalars, lists, documents) are normalized into a
// small sealed set of types before they are interned or hashed. Two values
// that serialize to the same canonical JSON occupy the same parameter slot,
// and the canonical encoding is also what query fingerprints are computed
// over.
//
// ir imports nothing internal; every other package may depend on it.
package ir
