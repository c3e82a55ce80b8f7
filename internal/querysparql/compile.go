// Package querysparql renders queryir queries as SPARQL text.
package querysparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vgoehler/mem-mcp/internal/graphs"
	"github.com/vgoehler/mem-mcp/internal/queryir"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// Prefix is one PREFIX declaration.
type Prefix struct {
	Name string
	IRI  string
}

// DefaultPrefixes are declared at the top of every compiled query.
var DefaultPrefixes = []Prefix{
	{Name: vocab.Prefix, IRI: vocab.Namespace},
	{Name: "rdf", IRI: vocab.RDFNamespace},
	{Name: "rdfs", IRI: vocab.RDFSNamespace},
}

// indent is the indentation of top-level WHERE patterns.
const indent = "  "

// Compiler compiles queryir queries to SPARQL.
//
// Output is deterministic: clauses appear in a fixed order, patterns and
// graphs in the order given, and nothing is sorted or deduplicated.
type Compiler struct {
	Prefixes []Prefix
}

// NewCompiler creates a Compiler that declares DefaultPrefixes.
func NewCompiler() *Compiler {
	prefixes := make([]Prefix, len(DefaultPrefixes))
	copy(prefixes, DefaultPrefixes)
	return &Compiler{Prefixes: prefixes}
}

// Compile validates q and renders it as SPARQL text.
func (c *Compiler) Compile(q queryir.Query) (string, error) {
	if q == nil {
		return "", fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	default:
		return "", fmt.Errorf("unsupported query type: %T", q)
	}
}

// MustCompile is Compile for queries built by this module's own builders,
// whose shape is fixed. It panics on a malformed query.
func (c *Compiler) MustCompile(q queryir.Query) string {
	text, err := c.Compile(q)
	if err != nil {
		panic(err)
	}
	return text
}

func (c *Compiler) compileSelect(q queryir.Select) (string, error) {
	if res := queryir.Validate(q); !res.Valid {
		return "", fmt.Errorf("invalid query: %s", strings.Join(res.Warnings, "; "))
	}

	var b strings.Builder
	for _, p := range c.Prefixes {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
	}

	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(compileProjection(q.Projection))
	b.WriteByte('\n')

	if len(q.From) > 0 {
		b.WriteString(graphs.FromClauses(q.From))
		b.WriteByte('\n')
	}

	b.WriteString("WHERE {\n")
	for _, p := range q.Where {
		text, err := c.compilePattern(p, "\n"+indent)
		if err != nil {
			return "", err
		}
		b.WriteString(indent)
		b.WriteString(text)
		b.WriteByte('\n')
	}
	b.WriteString("}")

	if len(q.GroupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		b.WriteString(compileVars(q.GroupBy))
	}
	if len(q.OrderBy) > 0 {
		b.WriteString("\nORDER BY ")
		b.WriteString(compileVars(q.OrderBy))
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}

	return b.String(), nil
}

// compileProjection renders the SELECT list.
// Example: [{uri} {label, Sample: l}] → "?uri (SAMPLE(?l) AS ?label)"
func compileProjection(ps []queryir.Projection) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		if p.Sample != "" {
			parts[i] = fmt.Sprintf("(SAMPLE(?%s) AS ?%s)", p.Sample, p.Var)
			continue
		}
		parts[i] = "?" + string(p.Var)
	}
	return strings.Join(parts, " ")
}

func compileVars(vs []queryir.Var) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = "?" + string(v)
	}
	return strings.Join(parts, " ")
}

// compilePattern renders one pattern on a single line. UNION branches are
// separated by lineBreak so that top-level unions read one branch per line.
func (c *Compiler) compilePattern(p queryir.Pattern, lineBreak string) (string, error) {
	switch pat := p.(type) {
	case queryir.Triple:
		s, err := compileTerm(pat.Subject)
		if err != nil {
			return "", err
		}
		pr, err := compileTerm(pat.Predicate)
		if err != nil {
			return "", err
		}
		o, err := compileTerm(pat.Object)
		if err != nil {
			return "", err
		}
		return s + " " + pr + " " + o + " .", nil

	case queryir.Bind:
		value, err := compileTerm(pat.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("BIND(%s AS ?%s)", value, pat.As), nil

	case queryir.Optional:
		inner, err := c.compileInline(pat.Patterns, lineBreak)
		if err != nil {
			return "", err
		}
		return "OPTIONAL " + inner, nil

	case queryir.Union:
		branches := make([]string, len(pat.Branches))
		for i, branch := range pat.Branches {
			text, err := c.compileInline(branch, lineBreak)
			if err != nil {
				return "", err
			}
			branches[i] = text
		}
		return strings.Join(branches, lineBreak+"UNION"+lineBreak), nil

	case queryir.Filter:
		expr, err := compileExpr(pat.Expr)
		if err != nil {
			return "", err
		}
		return "FILTER(" + expr + ")", nil

	default:
		return "", fmt.Errorf("unsupported pattern type: %T", p)
	}
}

// compileInline renders a group as "{ p1 p2 ... }" on one line.
func (c *Compiler) compileInline(g queryir.Group, lineBreak string) (string, error) {
	parts := make([]string, 0, len(g)+2)
	parts = append(parts, "{")
	for _, p := range g {
		text, err := c.compilePattern(p, lineBreak)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	parts = append(parts, "}")
	return strings.Join(parts, " "), nil
}

func compileTerm(t queryir.Term) (string, error) {
	switch term := t.(type) {
	case queryir.Var:
		return "?" + string(term), nil
	case queryir.IRI:
		return "<" + string(term) + ">", nil
	case queryir.PName:
		return string(term), nil
	case queryir.Literal:
		lit := `"` + EscapeString(term.Value) + `"`
		if term.Lang != "" {
			lit += "@" + term.Lang
		}
		return lit, nil
	case queryir.Path:
		return string(term.Predicate) + string(term.Modifier), nil
	default:
		return "", fmt.Errorf("unsupported term type: %T", t)
	}
}

func compileExpr(e queryir.Expression) (string, error) {
	switch expr := e.(type) {
	case queryir.LangEquals:
		return fmt.Sprintf(`lang(?%s) = "%s"`, expr.Var, EscapeString(expr.Lang)), nil
	case queryir.FoldedEquals:
		return fmt.Sprintf(`LCASE(STR(?%s)) = "%s"`, expr.Var, EscapeString(expr.Value)), nil
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// EscapeString escapes a value for use inside a double-quoted SPARQL literal.
func EscapeString(s string) string {
	return stringEscaper.Replace(s)
}
