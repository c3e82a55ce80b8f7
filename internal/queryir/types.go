package queryir

// Query represents an abstract query in the IR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Pattern is one element of a group graph pattern (a WHERE block).
//
// This is a sealed interface. Pattern types:
//   - Triple: subject predicate object
//   - Bind: BIND(term AS ?var)
//   - Optional: OPTIONAL { ... }
//   - Union: { ... } UNION { ... }
//   - Filter: FILTER(expression)
type Pattern interface {
	patternNode()
}

// Term is a subject, predicate or object position value.
type Term interface {
	termNode()
}

// Expression is a boolean FILTER expression.
type Expression interface {
	exprNode()
}

// Group is an ordered list of patterns evaluated together.
type Group []Pattern

// Select represents a SPARQL SELECT query.
//
// Semantics:
//
//	SELECT [DISTINCT] <projection> FROM <graph>... WHERE { <where> }
//	[GROUP BY <vars>] [ORDER BY <vars>] [LIMIT <n>]
//
// Example:
//
//	Select{
//	  Distinct:   true,
//	  Projection: []Projection{{Var: "child"}, {Var: "childLabel"}},
//	  From:       []string{"https://graph.example.com/"},
//	  Where: Group{
//	    Triple{Subject: IRI(node), Predicate: PName("lp:LP_0000008"), Object: Var("child")},
//	    Optional{Patterns: Group{
//	      Triple{Subject: Var("child"), Predicate: PName("rdfs:label"), Object: Var("childLabel")},
//	    }},
//	  },
//	  OrderBy: []Var{"child"},
//	}
//
// Limit zero means no LIMIT clause.
type Select struct {
	Distinct   bool
	Projection []Projection
	From       []string // named graph IRIs, rendered in order
	Where      Group
	GroupBy    []Var
	OrderBy    []Var
	Limit      int
}

func (Select) queryNode() {}

// Projection is one projected variable. When Sample is set the variable is
// computed as (SAMPLE(?Sample) AS ?Var).
type Projection struct {
	Var    Var
	Sample Var
}

// Triple is a basic triple pattern.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (Triple) patternNode() {}

// Bind assigns a term to a variable that must not yet be in scope.
type Bind struct {
	Value Term
	As    Var
}

func (Bind) patternNode() {}

// Optional is a left join of its patterns against the enclosing group.
type Optional struct {
	Patterns Group
}

func (Optional) patternNode() {}

// Union combines alternative groups; a row matches if any branch matches.
type Union struct {
	Branches []Group
}

func (Union) patternNode() {}

// Filter restricts the rows of the enclosing group.
type Filter struct {
	Expr Expression
}

func (Filter) patternNode() {}

// Var is a query variable, stored without the leading "?".
type Var string

func (Var) termNode() {}

// IRI is an absolute IRI, stored without angle brackets.
type IRI string

func (IRI) termNode() {}

// PName is a prefixed name such as "lp:LP_0000008" or "rdfs:label".
type PName string

func (PName) termNode() {}

// Literal is a string literal with an optional language tag.
type Literal struct {
	Value string
	Lang  string
}

func (Literal) termNode() {}

// PathModifier repeats a path step.
type PathModifier string

const (
	// OneOrMore matches one or more hops (+).
	OneOrMore PathModifier = "+"
	// ZeroOrMore matches zero or more hops (*).
	ZeroOrMore PathModifier = "*"
)

// Path is a single predicate with a repetition modifier.
type Path struct {
	Predicate PName
	Modifier  PathModifier
}

func (Path) termNode() {}

// LangEquals tests the language tag of a literal: lang(?Var) = "Lang".
type LangEquals struct {
	Var  Var
	Lang string
}

func (LangEquals) exprNode() {}

// FoldedEquals compares a value case-insensitively:
// LCASE(STR(?Var)) = "Value". Value must already be lower case.
type FoldedEquals struct {
	Var   Var
	Value string
}

func (FoldedEquals) exprNode() {}

// ProjectedVars returns the projected variable names in projection order.
func (s Select) ProjectedVars() []string {
	out := make([]string, len(s.Projection))
	for i, p := range s.Projection {
		out[i] = string(p.Var)
	}
	return out
}
