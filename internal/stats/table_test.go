package stats

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hargabyte/px/internal/sparql"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// populateTestColumns fills the per-run column cache with the counts the row
// rendering tests expect.
func populateTestColumns(s *Statistics) {
	fixtures := map[string]map[string]int{
		"P21":    {"Q3115846": 10, "Q5087901": 6},
		"P19":    {"Q3115846": 8, "Q2166574": 5},
		"P1P2":   {"Q3115846": 2, "Q2166574": 9},
		"P3Q4P5": {"Q3115846": 7, "Q2166574": 1},
	}
	for key, counts := range fixtures {
		column := orderedmap.New[string, int]()
		for grouping, count := range counts {
			column.Set(grouping, count)
		}
		s.columns[key] = column
	}
}

func TestFormatPercentage(t *testing.T) {
	tests := []struct {
		count int
		total int
		want  string
	}{
		{0, 20, "0.0"},
		{10, 20, "50.0"},
		{10, 10, "100.0"},
		{30, 120, "25.0"},
		{80, 120, "66.67"},
		{10, 120, "8.33"},
		{12, 120, "10.0"},
		{15, 20, "75.0"},
		{5, 20, "25.0"},
		{0, 0, "0.0"},
	}

	for _, tt := range tests {
		if got := formatPercentage(tt.count, tt.total); got != tt.want {
			t.Errorf("formatPercentage(%d, %d) = %q, want %q", tt.count, tt.total, got, tt.want)
		}
	}
}

func TestColumnHeader(t *testing.T) {
	tests := []struct {
		name string
		prop PropertyConfig
		want string
	}{
		{
			name: "property",
			prop: PropertyConfig{Property: "P19"},
			want: "! data-sort-type=\"number\"|{{Property|P19}}\n",
		},
		{
			name: "property with title",
			prop: PropertyConfig{Property: "P19", Title: "birth"},
			want: "! data-sort-type=\"number\"|[[Property:P19|birth]]\n",
		},
		{
			name: "qualifier",
			prop: PropertyConfig{Property: "P1", Qualifier: "P2"},
			want: "! data-sort-type=\"number\"|{{Property|P2}}\n",
		},
		{
			name: "qualifier with title",
			prop: PropertyConfig{Property: "P1", Qualifier: "P2", Title: "some qualifier"},
			want: "! data-sort-type=\"number\"|[[Property:P2|some qualifier]]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.prop.ColumnHeader(); got != tt.want {
				t.Errorf("ColumnHeader = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatHigherGroupingText(t *testing.T) {
	tests := []struct {
		name       string
		higherType string
		value      string
		want       string
	}{
		{
			name:  "item id",
			value: "Q1",
			want:  "| data-sort-value=\"Q1\"| {{Q|Q1}}\n",
		},
		{
			name:  "plain text",
			value: "foo",
			want:  "| data-sort-value=\"foo\"| foo\n",
		},
		{
			name:       "country",
			higherType: "country",
			value:      "AT",
			want:       "| data-sort-value=\"AT\"| {{Flag|AT}}\n",
		},
		{
			name:  "image",
			value: "http://commons.wikimedia.org/wiki/Special:FilePath/US%20CDC%20logo.svg",
			want:  "| data-sort-value=\"US%20CDC%20logo.svg\"| [[File:US%20CDC%20logo.svg|center|100px]]\n",
		},
		{
			name:  "file name without a FilePath URL stays plain text",
			value: "logo.png",
			want:  "| data-sort-value=\"logo.png\"| logo.png\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStatistics(t, &fakeClient{})
			s.higherGroupingType = tt.higherType

			if got := s.FormatHigherGroupingText(tt.value); got != tt.want {
				t.Errorf("FormatHigherGroupingText(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestHeader(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})

	expected := "{| class=\"wikitable sortable\"\n" +
		"! colspan=\"2\" |Top groupings (Minimum 20 items)\n" +
		"! colspan=\"4\"|Top Properties (used at least 10 times per grouping)\n" +
		"|-\n" +
		"! Name\n" +
		"! Count\n" +
		"! data-sort-type=\"number\"|{{Property|P21}}\n" +
		"! data-sort-type=\"number\"|{{Property|P19}}\n" +
		"! data-sort-type=\"number\"|{{Property|P2}}\n" +
		"! data-sort-type=\"number\"|{{Property|P5}}\n"
	if got := s.Header(); got != expected {
		t.Errorf("Header =\n%q\nwant\n%q", got, expected)
	}
}

func TestHeaderWithHigherGrouping(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	s.higherGrouping = "wdt:P17/wdt:P298"

	expected := "{| class=\"wikitable sortable\"\n" +
		"! colspan=\"3\" |Top groupings (Minimum 20 items)\n" +
		"! colspan=\"4\"|Top Properties (used at least 10 times per grouping)\n" +
		"|-\n" +
		"! \n" +
		"! Name\n" +
		"! Count\n" +
		"! data-sort-type=\"number\"|{{Property|P21}}\n" +
		"! data-sort-type=\"number\"|{{Property|P19}}\n" +
		"! data-sort-type=\"number\"|{{Property|P2}}\n" +
		"! data-sort-type=\"number\"|{{Property|P5}}\n"
	if got := s.Header(); got != expected {
		t.Errorf("Header =\n%q\nwant\n%q", got, expected)
	}
}

func TestGroupingRow(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q3115846", 10, "")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	expected := "|-\n" +
		"| {{Q|Q3115846}}\n" +
		"| 10 \n" +
		"| {{Integraality cell|100.0|10|property=P21|grouping=Q3115846}}\n" +
		"| {{Integraality cell|80.0|8|property=P19|grouping=Q3115846}}\n" +
		"| {{Integraality cell|20.0|2|property=P1|grouping=Q3115846}}\n" +
		"| {{Integraality cell|70.0|7|property=P3|grouping=Q3115846}}\n"
	if row != expected {
		t.Errorf("GroupingRow =\n%q\nwant\n%q", row, expected)
	}
}

func TestGroupingRowMissingColumnCounts(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q2166574", 10, "")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	expected := "|-\n" +
		"| {{Q|Q2166574}}\n" +
		"| 10 \n" +
		"| {{Integraality cell|0.0|0|property=P21|grouping=Q2166574}}\n" +
		"| {{Integraality cell|50.0|5|property=P19|grouping=Q2166574}}\n" +
		"| {{Integraality cell|90.0|9|property=P1|grouping=Q2166574}}\n" +
		"| {{Integraality cell|10.0|1|property=P3|grouping=Q2166574}}\n"
	if row != expected {
		t.Errorf("GroupingRow =\n%q\nwant\n%q", row, expected)
	}
}

func TestGroupingRowWithHigherGrouping(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	s.higherGrouping = "wdt:P17/wdt:P298"
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q3115846", 10, "Q1")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	expected := "|-\n" +
		"| data-sort-value=\"Q1\"| {{Q|Q1}}\n" +
		"| {{Q|Q3115846}}\n" +
		"| 10 \n" +
		"| {{Integraality cell|100.0|10|property=P21|grouping=Q3115846}}\n" +
		"| {{Integraality cell|80.0|8|property=P19|grouping=Q3115846}}\n" +
		"| {{Integraality cell|20.0|2|property=P1|grouping=Q3115846}}\n" +
		"| {{Integraality cell|70.0|7|property=P3|grouping=Q3115846}}\n"
	if row != expected {
		t.Errorf("GroupingRow =\n%q\nwant\n%q", row, expected)
	}
}

func TestGroupingRowEmptyHigherGrouping(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	s.higherGrouping = "wdt:P17/wdt:P298"
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q3115846", 10, "")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	if row[:len("|-\n|\n")] != "|-\n|\n" {
		t.Errorf("row does not start with an empty higher-grouping cell:\n%q", row)
	}
}

// fixedLabels resolves every entity to the same label.
type fixedLabels struct {
	label string
	err   error
}

func (f fixedLabels) Label(ctx context.Context, id string) (string, error) {
	return f.label, f.err
}

func TestGroupingRowWithGroupingLink(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	s.groupingLink = "Foo"
	s.labels = fixedLabels{label: "Bar"}
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q3115846", 10, "")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	expected := "|-\n" +
		"| {{Q|Q3115846}}\n" +
		"| [[Foo/Bar|10]] \n" +
		"| {{Integraality cell|100.0|10|property=P21|grouping=Q3115846}}\n" +
		"| {{Integraality cell|80.0|8|property=P19|grouping=Q3115846}}\n" +
		"| {{Integraality cell|20.0|2|property=P1|grouping=Q3115846}}\n" +
		"| {{Integraality cell|70.0|7|property=P3|grouping=Q3115846}}\n"
	if row != expected {
		t.Errorf("GroupingRow =\n%q\nwant\n%q", row, expected)
	}
}

func TestGroupingRowLabelFallsBackToID(t *testing.T) {
	s := newTestStatistics(t, &fakeClient{})
	s.groupingLink = "Foo"
	s.labels = fixedLabels{err: errors.New("no label")}
	populateTestColumns(s)

	row, err := s.GroupingRow(context.Background(), "Q3115846", 10, "")
	if err != nil {
		t.Fatalf("GroupingRow: %v", err)
	}

	want := "| [[Foo/Q3115846|10]] \n"
	if !strings.Contains(row, want) {
		t.Errorf("row does not contain %q:\n%q", want, row)
	}
}

func TestNoGroupRow(t *testing.T) {
	// Responses in query order: ungrouped totals, then one ungrouped count
	// per column.
	client := &fakeClient{
		results: [][]sparql.Row{
			{{"count": "20"}},
			{{"count": "2"}},
			{{"count": "10"}},
			{{"count": "15"}},
			{{"count": "5"}},
		},
	}
	s := newTestStatistics(t, client)

	row, err := s.NoGroupRow(context.Background())
	if err != nil {
		t.Fatalf("NoGroupRow: %v", err)
	}

	expected := "|-\n" +
		"| No grouping \n" +
		"| 20 \n" +
		"| {{Integraality cell|10.0|2}}\n" +
		"| {{Integraality cell|50.0|10}}\n" +
		"| {{Integraality cell|75.0|15}}\n" +
		"| {{Integraality cell|25.0|5}}\n"
	if row != expected {
		t.Errorf("NoGroupRow =\n%q\nwant\n%q", row, expected)
	}
}

func TestNoGroupRowWithHigherGrouping(t *testing.T) {
	client := &fakeClient{
		results: [][]sparql.Row{
			{{"count": "20"}},
			{{"count": "2"}},
			{{"count": "10"}},
			{{"count": "15"}},
			{{"count": "5"}},
		},
	}
	s := newTestStatistics(t, client)
	s.higherGrouping = "wdt:P17/wdt:P298"

	row, err := s.NoGroupRow(context.Background())
	if err != nil {
		t.Fatalf("NoGroupRow: %v", err)
	}

	if row[:len("|-\n|\n")] != "|-\n|\n" {
		t.Errorf("row does not start with an empty higher-grouping cell:\n%q", row)
	}
}

func TestFooter(t *testing.T) {
	// Responses in query order: totals, then one total per column.
	client := &fakeClient{
		results: [][]sparql.Row{
			{{"count": "120"}},
			{{"count": "30"}},
			{{"count": "80"}},
			{{"count": "10"}},
			{{"count": "12"}},
		},
	}
	s := newTestStatistics(t, client)

	footer, err := s.Footer(context.Background())
	if err != nil {
		t.Fatalf("Footer: %v", err)
	}

	expected := "|- class=\"sortbottom\"\n" +
		"|'''Totals''' <small>(all items)<small>:\n" +
		"| 120\n" +
		"| {{Integraality cell|25.0|30}}\n" +
		"| {{Integraality cell|66.67|80}}\n" +
		"| {{Integraality cell|8.33|10}}\n" +
		"| {{Integraality cell|10.0|12}}\n" +
		"|}\n"
	if footer != expected {
		t.Errorf("Footer =\n%q\nwant\n%q", footer, expected)
	}
}
