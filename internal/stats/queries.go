package stats

import "fmt"

// Query construction. Queries are built from a small fixed set of templates
// parameterized by the selector, the grouping property and the per-column
// property/qualifier/value constraints. The text is deterministic for a given
// configuration; ordering ties beyond DESC(?count) are left to the endpoint.

// groupingLimit caps the number of groupings any discovery or per-grouping
// count query returns.
const groupingLimit = 1000

// TotalsQuery counts all entities matched by the selector.
func (s *Statistics) TotalsQuery() string {
	return s.countQuery("")
}

// TotalsNoGroupingQuery counts selected entities without a grouping statement.
func (s *Statistics) TotalsNoGroupingQuery() string {
	return s.countQuery(fmt.Sprintf("MINUS { ?item wdt:%s [] . }", s.groupingProperty))
}

// TotalsForPropertyQuery counts selected entities carrying property.
func (s *Statistics) TotalsForPropertyQuery(property string) string {
	return s.countQuery(fmt.Sprintf("FILTER EXISTS { ?item p:%s [] } .", property))
}

// TotalsForQualifierQuery counts selected entities carrying the qualifier on
// statements of property.
func (s *Statistics) TotalsForQualifierQuery(property, qualifier, value string) string {
	return s.countQuery(fmt.Sprintf("FILTER EXISTS { ?item p:%s [ ps:%s %s ; pq:%s [] ] } .",
		property, property, statementValue(value), qualifier))
}

// countQuery is the shared shape of the single-count templates.
func (s *Statistics) countQuery(constraint string) string {
	query := fmt.Sprintf("\nSELECT (COUNT(?item) as ?count) WHERE {\n  ?item %s\n", s.selector)
	if constraint != "" {
		query += "  " + constraint + "\n"
	}
	return query + "}\n"
}

// GroupingQuery discovers groupings with more than the grouping threshold of
// items, in descending count order. When a higher grouping is configured the
// query also samples one higher-grouping value per grouping.
func (s *Statistics) GroupingQuery() string {
	if s.higherGrouping != "" {
		return fmt.Sprintf(`
SELECT ?grouping (SAMPLE(?_higher_grouping) as ?higher_grouping) (COUNT(DISTINCT ?entity) as ?count) WHERE {
  ?entity %s .
  ?entity wdt:%s ?grouping .
  OPTIONAL { ?grouping %s ?_higher_grouping }.
} GROUP BY ?grouping ?higher_grouping
HAVING (?count > %d)
ORDER BY DESC(?count)
LIMIT %d
`, s.selector, s.groupingProperty, s.higherGrouping, s.groupingThreshold, groupingLimit)
	}

	return fmt.Sprintf(`
SELECT ?grouping (COUNT(DISTINCT ?entity) as ?count) WHERE {
  ?entity %s .
  ?entity wdt:%s ?grouping .
} GROUP BY ?grouping
HAVING (?count > %d)
ORDER BY DESC(?count)
LIMIT %d
`, s.selector, s.groupingProperty, s.groupingThreshold, groupingLimit)
}

// PropertyQuery counts entities carrying property, per grouping.
func (s *Statistics) PropertyQuery(property string) string {
	return s.groupedCountQuery(fmt.Sprintf("FILTER EXISTS { ?entity p:%s [] } .", property))
}

// QualifierQuery counts entities carrying the qualifier on statements of
// property, per grouping.
func (s *Statistics) QualifierQuery(property, qualifier, value string) string {
	return s.groupedCountQuery(fmt.Sprintf("FILTER EXISTS { ?entity p:%s [ ps:%s %s ; pq:%s [] ] } .",
		property, property, statementValue(value), qualifier))
}

// groupedCountQuery is the shared shape of the per-grouping count templates.
func (s *Statistics) groupedCountQuery(constraint string) string {
	return fmt.Sprintf(`
SELECT ?grouping (COUNT(DISTINCT ?entity) as ?count) WHERE {
  ?entity %s .
  ?entity wdt:%s ?grouping .
  %s
}
GROUP BY ?grouping
HAVING (?count > %d)
ORDER BY DESC(?count)
LIMIT %d
`, s.selector, s.groupingProperty, constraint, s.propertyThreshold, groupingLimit)
}

// PropertyNoGroupingQuery counts ungrouped entities carrying property.
func (s *Statistics) PropertyNoGroupingQuery(property string) string {
	return s.noGroupingCountQuery(fmt.Sprintf("FILTER EXISTS { ?entity p:%s [] } .", property))
}

// QualifierNoGroupingQuery counts ungrouped entities carrying the qualifier
// on statements of property.
func (s *Statistics) QualifierNoGroupingQuery(property, qualifier, value string) string {
	return s.noGroupingCountQuery(fmt.Sprintf("FILTER EXISTS { ?entity p:%s [ ps:%s %s ; pq:%s [] ] } .",
		property, property, statementValue(value), qualifier))
}

// noGroupingCountQuery is the shared shape of the ungrouped count templates.
func (s *Statistics) noGroupingCountQuery(constraint string) string {
	return fmt.Sprintf(`
SELECT (COUNT(?entity) AS ?count) WHERE {
  ?entity %s .
  MINUS { ?entity wdt:%s [] . }
  %s
}
`, s.selector, s.groupingProperty, constraint)
}

// statementValue renders the ps: object of a qualifier constraint: a blank
// node when no value is required, otherwise the required item.
func statementValue(value string) string {
	if value == "" {
		return "[]"
	}
	return "wd:" + value
}

// NamedQuery pairs a query with a short description for display.
type NamedQuery struct {
	Name string
	Text string
}

// Queries returns every query a full report run would issue, in order.
func (s *Statistics) Queries() []NamedQuery {
	queries := []NamedQuery{
		{Name: "grouping discovery", Text: s.GroupingQuery()},
	}

	for _, prop := range s.properties {
		if prop.Qualifier != "" {
			queries = append(queries, NamedQuery{
				Name: "counts for " + prop.Key(),
				Text: s.QualifierQuery(prop.Property, prop.Qualifier, prop.Value),
			})
		} else {
			queries = append(queries, NamedQuery{
				Name: "counts for " + prop.Key(),
				Text: s.PropertyQuery(prop.Property),
			})
		}
	}

	if s.noGroupRow {
		queries = append(queries, NamedQuery{Name: "totals without grouping", Text: s.TotalsNoGroupingQuery()})
		for _, prop := range s.properties {
			if prop.Qualifier != "" {
				queries = append(queries, NamedQuery{
					Name: "ungrouped counts for " + prop.Key(),
					Text: s.QualifierNoGroupingQuery(prop.Property, prop.Qualifier, prop.Value),
				})
			} else {
				queries = append(queries, NamedQuery{
					Name: "ungrouped counts for " + prop.Key(),
					Text: s.PropertyNoGroupingQuery(prop.Property),
				})
			}
		}
	}

	queries = append(queries, NamedQuery{Name: "totals", Text: s.TotalsQuery()})
	for _, prop := range s.properties {
		if prop.Qualifier != "" {
			queries = append(queries, NamedQuery{
				Name: "totals for " + prop.Key(),
				Text: s.TotalsForQualifierQuery(prop.Property, prop.Qualifier, prop.Value),
			})
		} else {
			queries = append(queries, NamedQuery{
				Name: "totals for " + prop.Key(),
				Text: s.TotalsForPropertyQuery(prop.Property),
			})
		}
	}

	return queries
}
