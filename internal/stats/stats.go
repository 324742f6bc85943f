// Package stats implements the property completeness statistics engine.
// Given a selector condition, a grouping property and a set of tracked
// properties, it issues SPARQL queries through a Client, aggregates
// per-grouping and per-property counts, and renders a sortable wikitext
// table of completeness percentages.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hargabyte/px/internal/sparql"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// entityPrefix is stripped from grouping URIs returned by the endpoint.
const entityPrefix = "http://www.wikidata.org/entity/"

// DefaultGroupingThreshold is the minimum item count for a grouping to get
// its own row.
const DefaultGroupingThreshold = 20

// ErrNoGroupings is returned when the mandatory grouping-discovery query
// yields no result set. Every other query path tolerates absence.
var ErrNoGroupings = errors.New("no groupings returned")

// GroupingResult holds the discovered groupings in descending count order,
// plus the optional higher-grouping label of each grouping.
type GroupingResult struct {
	Counts *orderedmap.OrderedMap[string, int]
	Higher *orderedmap.OrderedMap[string, string]
}

// PropertyCountResult maps grouping id to the count of entities in that
// grouping carrying a tracked property, in descending count order.
type PropertyCountResult = orderedmap.OrderedMap[string, int]

// Config holds the inputs for one statistics run.
type Config struct {
	Client     sparql.Client
	Labels     sparql.LabelResolver // optional, used by grouping links
	Properties []PropertyConfig
	Selector   string // selector condition, e.g. "wdt:P31 wd:Q41960"

	GroupingProperty   string // property entities are bucketed by, e.g. "P551"
	HigherGrouping     string // optional predicate path, e.g. "wdt:P17/wdt:P298"
	HigherGroupingType string // "", "country"
	GroupingLink       string // optional wiki page prefix for per-grouping links

	GroupingThreshold int  // minimum items per grouping (default 20)
	PropertyThreshold int  // minimum per-grouping count for property queries
	NoGroupRow        bool // include a row for entities without any grouping
}

// Statistics computes and renders one property completeness report.
// It is not safe for concurrent use; queries run one at a time and the
// per-column results accumulate for the duration of a single run.
type Statistics struct {
	client sparql.Client
	labels sparql.LabelResolver

	properties         []PropertyConfig
	selector           string
	groupingProperty   string
	higherGrouping     string
	higherGroupingType string
	groupingLink       string
	groupingThreshold  int
	propertyThreshold  int
	noGroupRow         bool

	// columns caches per-column counts by PropertyConfig.Key for one run.
	columns map[string]*PropertyCountResult
}

// New creates a statistics engine from cfg.
func New(cfg Config) (*Statistics, error) {
	if cfg.Client == nil {
		return nil, errors.New("stats: client is required")
	}
	if strings.TrimSpace(cfg.Selector) == "" {
		return nil, errors.New("stats: selector is required")
	}
	if strings.TrimSpace(cfg.GroupingProperty) == "" {
		return nil, errors.New("stats: grouping property is required")
	}

	threshold := cfg.GroupingThreshold
	if threshold <= 0 {
		threshold = DefaultGroupingThreshold
	}

	return &Statistics{
		client:             cfg.Client,
		labels:             cfg.Labels,
		properties:         cfg.Properties,
		selector:           cfg.Selector,
		groupingProperty:   cfg.GroupingProperty,
		higherGrouping:     cfg.HigherGrouping,
		higherGroupingType: cfg.HigherGroupingType,
		groupingLink:       cfg.GroupingLink,
		groupingThreshold:  threshold,
		propertyThreshold:  cfg.PropertyThreshold,
		noGroupRow:         cfg.NoGroupRow,
		columns:            make(map[string]*PropertyCountResult),
	}, nil
}

// GroupingInformation runs the grouping-discovery query and parses the
// result into ordered count and higher-grouping mappings. An absent or empty
// result set is an error wrapping ErrNoGroupings: a report without groupings
// is meaningless.
func (s *Statistics) GroupingInformation(ctx context.Context) (*GroupingResult, error) {
	rows, err := s.client.Select(ctx, s.GroupingQuery())
	if err != nil {
		return nil, fmt.Errorf("grouping discovery: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("grouping discovery for %q: %w", s.selector, ErrNoGroupings)
	}

	result := &GroupingResult{
		Counts: orderedmap.New[string, int](),
		Higher: orderedmap.New[string, string](),
	}
	for _, row := range rows {
		grouping := strings.TrimPrefix(row["grouping"], entityPrefix)
		if grouping == "" {
			continue
		}
		count, err := strconv.Atoi(row["count"])
		if err != nil {
			continue
		}
		result.Counts.Set(grouping, count)
		if higher := row["higher_grouping"]; higher != "" {
			result.Higher.Set(grouping, higher)
		}
	}
	return result, nil
}

// PropertyCounts returns per-grouping counts of entities carrying property.
// An absent result set yields an empty mapping; missing groupings render as
// zero in the table.
func (s *Statistics) PropertyCounts(ctx context.Context, property string) (*PropertyCountResult, error) {
	return s.groupedCounts(ctx, s.PropertyQuery(property))
}

// QualifierCounts returns per-grouping counts of entities carrying the
// qualifier on statements of property, optionally restricted to statements
// with the given value.
func (s *Statistics) QualifierCounts(ctx context.Context, property, qualifier, value string) (*PropertyCountResult, error) {
	return s.groupedCounts(ctx, s.QualifierQuery(property, qualifier, value))
}

// groupedCounts runs a per-grouping count query and parses the rows.
func (s *Statistics) groupedCounts(ctx context.Context, query string) (*PropertyCountResult, error) {
	rows, err := s.client.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := orderedmap.New[string, int]()
	for _, row := range rows {
		grouping := strings.TrimPrefix(row["grouping"], entityPrefix)
		if grouping == "" {
			continue
		}
		count, err := strconv.Atoi(row["count"])
		if err != nil {
			continue
		}
		counts.Set(grouping, count)
	}
	return counts, nil
}

// Totals returns the number of entities matched by the selector.
func (s *Statistics) Totals(ctx context.Context) (int, error) {
	return s.count(ctx, s.TotalsQuery())
}

// TotalsNoGrouping returns the number of selected entities without any
// grouping statement.
func (s *Statistics) TotalsNoGrouping(ctx context.Context) (int, error) {
	return s.count(ctx, s.TotalsNoGroupingQuery())
}

// TotalsForProperty returns the number of selected entities carrying property.
func (s *Statistics) TotalsForProperty(ctx context.Context, property string) (int, error) {
	return s.count(ctx, s.TotalsForPropertyQuery(property))
}

// TotalsForQualifier returns the number of selected entities carrying the
// qualifier on statements of property.
func (s *Statistics) TotalsForQualifier(ctx context.Context, property, qualifier, value string) (int, error) {
	return s.count(ctx, s.TotalsForQualifierQuery(property, qualifier, value))
}

// PropertyCountNoGrouping returns the count of ungrouped entities carrying
// property.
func (s *Statistics) PropertyCountNoGrouping(ctx context.Context, property string) (int, error) {
	return s.count(ctx, s.PropertyNoGroupingQuery(property))
}

// QualifierCountNoGrouping returns the count of ungrouped entities carrying
// the qualifier on statements of property.
func (s *Statistics) QualifierCountNoGrouping(ctx context.Context, property, qualifier, value string) (int, error) {
	return s.count(ctx, s.QualifierNoGroupingQuery(property, qualifier, value))
}

// count runs a single-row COUNT query. An absent result set counts as zero.
func (s *Statistics) count(ctx context.Context, query string) (int, error) {
	rows, err := s.client.Select(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(rows[0]["count"])
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", rows[0]["count"], err)
	}
	return n, nil
}

// populateColumns fetches the per-grouping counts for every tracked property
// into the per-run column cache.
func (s *Statistics) populateColumns(ctx context.Context) error {
	for _, prop := range s.properties {
		var (
			counts *PropertyCountResult
			err    error
		)
		if prop.Qualifier != "" {
			counts, err = s.QualifierCounts(ctx, prop.Property, prop.Qualifier, prop.Value)
		} else {
			counts, err = s.PropertyCounts(ctx, prop.Property)
		}
		if err != nil {
			return fmt.Errorf("counts for %s: %w", prop.Key(), err)
		}
		s.columns[prop.Key()] = counts
	}
	return nil
}

// columnCount returns the cached count of a column for one grouping,
// defaulting to zero for groupings the column query did not return.
func (s *Statistics) columnCount(prop PropertyConfig, grouping string) int {
	counts, ok := s.columns[prop.Key()]
	if !ok || counts == nil {
		return 0
	}
	count, _ := counts.Get(grouping)
	return count
}

// Generate runs the full report and returns the wikitext table.
func (s *Statistics) Generate(ctx context.Context) (string, error) {
	info, err := s.GroupingInformation(ctx)
	if err != nil {
		return "", err
	}
	if err := s.populateColumns(ctx); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(s.Header())

	for pair := info.Counts.Oldest(); pair != nil; pair = pair.Next() {
		higher, _ := info.Higher.Get(pair.Key)
		row, err := s.GroupingRow(ctx, pair.Key, pair.Value, higher)
		if err != nil {
			return "", err
		}
		b.WriteString(row)
	}

	if s.noGroupRow {
		row, err := s.NoGroupRow(ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(row)
	}

	footer, err := s.Footer(ctx)
	if err != nil {
		return "", err
	}
	b.WriteString(footer)

	return b.String(), nil
}
