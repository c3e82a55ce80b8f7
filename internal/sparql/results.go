package sparql

import "strings"

// Binding kinds as sent by the endpoint.
const (
	TypeURI     = "uri"
	TypeLiteral = "literal"
	TypeBNode   = "bnode"
)

// Binding is one variable's value in one row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Row maps variable names to bindings. A projected variable may be absent
// when an OPTIONAL pattern did not match; absent is not the same as "".
type Row map[string]Binding

// Value returns the value bound to name and whether it is bound.
func (r Row) Value(name string) (string, bool) {
	b, ok := r[name]
	return b.Value, ok
}

// Results is the table returned by one SELECT query. Vars keeps the
// projection order; Bindings keeps the endpoint's row order.
type Results struct {
	Vars     []string `json:"vars"`
	Bindings []Row    `json:"bindings"`
}

// Len returns the number of rows.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Bindings)
}

// Column returns the values of name in row order, skipping unbound rows.
func (r *Results) Column(name string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, row := range r.Bindings {
		if v, ok := row.Value(name); ok {
			out = append(out, v)
		}
	}
	return out
}

// NoResults is the text of an empty table.
const NoResults = "No results."

const (
	columnSeparator = " | "
	headerRule      = "---"
)

// Format renders results as a pipe-separated table: the variable names, a
// "---" line, then one line per row. Only values are shown; kind, language
// and datatype are dropped. An unbound variable renders as an empty field.
// Rows and columns keep their order.
func Format(r *Results) string {
	if r.Len() == 0 {
		return NoResults
	}

	lines := make([]string, 0, len(r.Bindings)+2)
	lines = append(lines, strings.Join(r.Vars, columnSeparator), headerRule)
	fields := make([]string, len(r.Vars))
	for _, row := range r.Bindings {
		for i, v := range r.Vars {
			fields[i], _ = row.Value(v)
		}
		lines = append(lines, strings.Join(fields, columnSeparator))
	}
	return strings.Join(lines, "\n")
}
