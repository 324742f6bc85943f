package stats

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Wikitext rendering. The cell and row formats are pinned by the dashboard
// template on-wiki, so the literal markup here must not drift.

var itemIDPattern = regexp.MustCompile(`^Q\d+$`)

// commonsFilePathPrefix marks higher-grouping values that are Commons media
// URLs; only those render as image cells.
const commonsFilePathPrefix = "http://commons.wikimedia.org/wiki/Special:FilePath/"

// formatPercentage renders count/total*100 rounded to two decimals in the
// style the cell template expects: at least one decimal place, no trailing
// second zero ("100.0", "66.67", "8.33", "0.0"). A zero total is guarded.
func formatPercentage(count, total int) string {
	if total < 1 {
		total = 1
	}
	pct := math.Round(float64(count)/float64(total)*10000) / 100
	formatted := strconv.FormatFloat(pct, 'f', 2, 64)
	return strings.TrimSuffix(formatted, "0")
}

// cell renders one completeness cell. extra carries the optional
// property/grouping parameters used on per-grouping rows.
func cell(percentage string, count int, extra string) string {
	return fmt.Sprintf("| {{Integraality cell|%s|%d%s}}\n", percentage, count, extra)
}

// FormatHigherGroupingText renders the higher-grouping cell for one value.
// Commons FilePath URLs become image thumbs, country-typed values become
// flags, item ids become item templates, and anything else renders as plain
// text. The sort value is always the raw value (the file name for images).
func (s *Statistics) FormatHigherGroupingText(value string) string {
	display := value
	sortValue := value

	switch {
	case strings.HasPrefix(value, commonsFilePathPrefix):
		name := strings.TrimPrefix(value, commonsFilePathPrefix)
		sortValue = name
		display = fmt.Sprintf("[[File:%s|center|100px]]", name)
	case s.higherGroupingType == "country":
		display = fmt.Sprintf("{{Flag|%s}}", value)
	case itemIDPattern.MatchString(value):
		display = fmt.Sprintf("{{Q|%s}}", value)
	}

	return fmt.Sprintf("| data-sort-value=\"%s\"| %s\n", sortValue, display)
}

// Header renders the table opening and the column header rows.
func (s *Statistics) Header() string {
	var b strings.Builder
	b.WriteString("{| class=\"wikitable sortable\"\n")

	colspan := 2
	if s.higherGrouping != "" {
		colspan = 3
	}
	fmt.Fprintf(&b, "! colspan=\"%d\" |Top groupings (Minimum %d items)\n", colspan, s.groupingThreshold)
	fmt.Fprintf(&b, "! colspan=\"%d\"|Top Properties (used at least %d times per grouping)\n",
		len(s.properties), s.propertyThreshold)
	b.WriteString("|-\n")

	if s.higherGrouping != "" {
		b.WriteString("! \n")
	}
	b.WriteString("! Name\n")
	b.WriteString("! Count\n")
	for _, prop := range s.properties {
		b.WriteString(prop.ColumnHeader())
	}
	return b.String()
}

// GroupingRow renders the table row for one grouping: the optional
// higher-grouping cell, the grouping cell, the row total and one
// completeness cell per tracked property. Column counts come from the
// per-run cache populated before rows are rendered.
func (s *Statistics) GroupingRow(ctx context.Context, grouping string, total int, higher string) (string, error) {
	var b strings.Builder
	b.WriteString("|-\n")

	if s.higherGrouping != "" {
		if higher != "" {
			b.WriteString(s.FormatHigherGroupingText(higher))
		} else {
			b.WriteString("|\n")
		}
	}

	fmt.Fprintf(&b, "| {{Q|%s}}\n", grouping)

	if s.groupingLink != "" {
		label, err := s.groupingLabel(ctx, grouping)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "| [[%s/%s|%d]] \n", s.groupingLink, label, total)
	} else {
		fmt.Fprintf(&b, "| %d \n", total)
	}

	for _, prop := range s.properties {
		count := s.columnCount(prop, grouping)
		percentage := formatPercentage(count, total)
		extra := fmt.Sprintf("|property=%s|grouping=%s", prop.Property, grouping)
		b.WriteString(cell(percentage, count, extra))
	}
	return b.String(), nil
}

// groupingLabel resolves the display label used in grouping links. Without a
// resolver, or when the entity has no label, the id itself links fine.
func (s *Statistics) groupingLabel(ctx context.Context, grouping string) (string, error) {
	if s.labels == nil {
		return grouping, nil
	}
	label, err := s.labels.Label(ctx, grouping)
	if err != nil {
		return grouping, nil
	}
	return label, nil
}

// NoGroupRow renders the row aggregating entities without any grouping
// statement. The counts come from dedicated ungrouped queries.
func (s *Statistics) NoGroupRow(ctx context.Context) (string, error) {
	total, err := s.TotalsNoGrouping(ctx)
	if err != nil {
		return "", fmt.Errorf("totals without grouping: %w", err)
	}

	var b strings.Builder
	b.WriteString("|-\n")
	if s.higherGrouping != "" {
		b.WriteString("|\n")
	}
	b.WriteString("| No grouping \n")
	fmt.Fprintf(&b, "| %d \n", total)

	for _, prop := range s.properties {
		var count int
		if prop.Qualifier != "" {
			count, err = s.QualifierCountNoGrouping(ctx, prop.Property, prop.Qualifier, prop.Value)
		} else {
			count, err = s.PropertyCountNoGrouping(ctx, prop.Property)
		}
		if err != nil {
			return "", fmt.Errorf("ungrouped counts for %s: %w", prop.Key(), err)
		}
		b.WriteString(cell(formatPercentage(count, total), count, ""))
	}
	return b.String(), nil
}

// Footer renders the totals row across all selected entities, ignoring the
// grouping threshold, and closes the table.
func (s *Statistics) Footer(ctx context.Context) (string, error) {
	total, err := s.Totals(ctx)
	if err != nil {
		return "", fmt.Errorf("totals: %w", err)
	}

	var b strings.Builder
	b.WriteString("|- class=\"sortbottom\"\n")
	b.WriteString("|'''Totals''' <small>(all items)<small>:\n")
	fmt.Fprintf(&b, "| %d\n", total)

	for _, prop := range s.properties {
		var count int
		if prop.Qualifier != "" {
			count, err = s.TotalsForQualifier(ctx, prop.Property, prop.Qualifier, prop.Value)
		} else {
			count, err = s.TotalsForProperty(ctx, prop.Property)
		}
		if err != nil {
			return "", fmt.Errorf("totals for %s: %w", prop.Key(), err)
		}
		b.WriteString(cell(formatPercentage(count, total), count, ""))
	}

	b.WriteString("|}\n")
	return b.String(), nil
}
