package stats

import "fmt"

// PropertyConfig identifies one tracked property column in the report.
// A column either tracks a property directly, or a qualifier on that
// property's statements, optionally restricted to statements with a specific
// value. The zero Qualifier/Value/Title fields are all valid.
type PropertyConfig struct {
	Property  string // property id, e.g. "P21"
	Qualifier string // optional qualifier id, e.g. "P670"
	Value     string // optional required statement value, e.g. "Q4"
	Title     string // optional display title for the column header
}

// Key returns the identifier under which this column's results are cached.
// Property, value and qualifier concatenate so that different constraints on
// the same property get distinct slots ("P1"+"P2" -> "P1P2",
// "P3"+"Q4"+"P5" -> "P3Q4P5").
func (p PropertyConfig) Key() string {
	return p.Property + p.Value + p.Qualifier
}

// ColumnHeader renders the sortable wikitext header cell for this column.
// A qualifier column is labeled by its qualifier id; a configured title
// replaces the property template with a direct link.
func (p PropertyConfig) ColumnHeader() string {
	shown := p.Property
	if p.Qualifier != "" {
		shown = p.Qualifier
	}
	if p.Title != "" {
		return fmt.Sprintf("! data-sort-type=\"number\"|[[Property:%s|%s]]\n", shown, p.Title)
	}
	return fmt.Sprintf("! data-sort-type=\"number\"|{{Property|%s}}\n", shown)
}
