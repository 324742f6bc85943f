package sparql

import (
	"context"
	"errors"
	"fmt"
	"time"

	knakk "github.com/knakk/sparql"
)

// DefaultEndpoint is the Wikidata Query Service SPARQL endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// DefaultTimeout bounds a single query round-trip. WDQS itself enforces a
// 60 second server-side limit, so there is no point waiting longer.
const DefaultTimeout = 60 * time.Second

// ErrNoLabel is returned when an entity has no label in the requested language.
var ErrNoLabel = errors.New("no label found")

// Endpoint is a Client backed by a remote SPARQL endpoint.
type Endpoint struct {
	repo *knakk.Repo
	url  string
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*endpointOptions)

type endpointOptions struct {
	timeout time.Duration
	user    string
	pass    string
}

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(o *endpointOptions) { o.timeout = d }
}

// WithDigestAuth enables HTTP digest authentication.
func WithDigestAuth(user, pass string) EndpointOption {
	return func(o *endpointOptions) {
		o.user = user
		o.pass = pass
	}
}

// NewEndpoint creates a client for the SPARQL endpoint at url.
func NewEndpoint(url string, opts ...EndpointOption) (*Endpoint, error) {
	o := endpointOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	repoOpts := []func(*knakk.Repo) error{knakk.Timeout(o.timeout)}
	if o.user != "" {
		repoOpts = append(repoOpts, knakk.DigestAuth(o.user, o.pass))
	}

	repo, err := knakk.NewRepo(url, repoOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sparql repo: %w", err)
	}

	return &Endpoint{repo: repo, url: url}, nil
}

// URL returns the endpoint URL.
func (e *Endpoint) URL() string {
	return e.url
}

// Select runs a SELECT query and flattens the solutions into string rows.
// The underlying repo enforces the configured timeout; ctx is checked before
// the query is issued.
func (e *Endpoint) Select(ctx context.Context, query string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := e.repo.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.url, err)
	}
	if res == nil {
		return nil, nil
	}

	solutions := res.Solutions()
	rows := make([]Row, 0, len(solutions))
	for _, sol := range solutions {
		row := make(Row, len(sol))
		for name, term := range sol {
			if term == nil {
				continue
			}
			row[name] = term.String()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Label returns the English label of the entity with the given id.
// Returns ErrNoLabel if the entity has no English label.
func (e *Endpoint) Label(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`
SELECT ?label WHERE {
  wd:%s rdfs:label ?label .
  FILTER(LANG(?label) = "en")
}
LIMIT 1
`, id)

	rows, err := e.Select(ctx, query)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0]["label"] == "" {
		return "", fmt.Errorf("label for %s: %w", id, ErrNoLabel)
	}
	return rows[0]["label"], nil
}
