// Package sparql provides the query client used by the statistics engine.
// The engine only depends on the Client interface; the production
// implementation talks to a SPARQL endpoint such as the Wikidata Query
// Service.
package sparql

import "context"

// Row is a single result binding: variable name to string value.
type Row map[string]string

// Client executes SPARQL SELECT queries and returns the result rows.
// A (nil, nil) return means the endpoint produced no result set at all,
// which callers may treat differently from an empty result.
type Client interface {
	Select(ctx context.Context, query string) ([]Row, error)
}

// LabelResolver looks up the human-readable label of an entity.
type LabelResolver interface {
	Label(ctx context.Context, id string) (string, error)
}
