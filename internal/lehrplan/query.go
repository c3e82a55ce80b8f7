// Package lehrplan builds the curated queries over the Lehrplan ontology.
//
// Every builder returns a queryir.Select so callers and tests can inspect the
// query structure; Render turns it into SPARQL text. Builders never fail:
// they are total over their inputs and perform no I/O.
package lehrplan

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vgoehler/mem-mcp/internal/queryir"
	"github.com/vgoehler/mem-mcp/internal/querysparql"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// ResultLimit caps listing and search queries.
const ResultLimit = 50

var compiler = querysparql.NewCompiler()

// Render compiles a query built by this package. The builders only produce
// well-formed queries, so a failure here is a programming error and panics.
func Render(q queryir.Select) string {
	return compiler.MustCompile(q)
}

// Filter restricts curricula to those linked to Value via Relation.
type Filter struct {
	Relation string // prefixed name, e.g. vocab.HasSchulfach
	Value    string // absolute IRI
}

// StateFilter restricts curricula to one federal state.
func StateFilter(stateURI string) Filter {
	return Filter{Relation: vocab.HasBundesland, Value: stateURI}
}

// SchulfachFilter restricts curricula to one school subject.
func SchulfachFilter(subjectURI string) Filter {
	return Filter{Relation: vocab.HasSchulfach, Value: subjectURI}
}

// SchulartFilter restricts curricula to one school type.
func SchulartFilter(schoolTypeURI string) Filter {
	return Filter{Relation: vocab.HasSchulart, Value: schoolTypeURI}
}

// GradeFilter restricts curricula to one grade level.
func GradeFilter(grade int) Filter {
	return Filter{Relation: vocab.HasJahrgangsstufe, Value: vocab.GradeURI(grade)}
}

func triple(s queryir.Term, p string, o queryir.Term) queryir.Triple {
	return queryir.Triple{Subject: s, Predicate: queryir.PName(p), Object: o}
}

func label(node, as queryir.Var) queryir.Triple {
	return triple(node, vocab.RDFSLabel, as)
}

func optionalLabel(node, as queryir.Var) queryir.Optional {
	return queryir.Optional{Patterns: queryir.Group{label(node, as)}}
}

func projection(vars ...queryir.Var) []queryir.Projection {
	out := make([]queryir.Projection, len(vars))
	for i, v := range vars {
		out[i] = queryir.Projection{Var: v}
	}
	return out
}

// FindLehrplaene lists curricula (instances of any subclass of the Lehrplan
// class) with their labels. Filters are appended in the given order without
// reordering or deduplication.
func FindLehrplaene(graphs []string, filters []Filter) queryir.Select {
	where := queryir.Group{
		queryir.Triple{
			Subject:   queryir.Var("lpsubclass"),
			Predicate: queryir.Path{Predicate: vocab.RDFSSubClassOf, Modifier: queryir.ZeroOrMore},
			Object:    queryir.PName(vocab.LehrplanClass),
		},
		triple(queryir.Var("s"), vocab.RDFType, queryir.Var("lpsubclass")),
		label("s", "label"),
	}
	for _, f := range filters {
		where = append(where, triple(queryir.Var("s"), f.Relation, queryir.IRI(f.Value)))
	}

	return queryir.Select{
		Distinct:   true,
		Projection: projection("s", "label"),
		From:       graphs,
		Where:      where,
		OrderBy:    []queryir.Var{"label"},
		Limit:      ResultLimit,
	}
}

// Children lists the direct parts of a node with optional labels. There is
// no result cap.
func Children(nodeURI string, graphs []string) queryir.Select {
	return queryir.Select{
		Distinct:   true,
		Projection: projection("child", "childLabel"),
		From:       graphs,
		Where: queryir.Group{
			triple(queryir.IRI(nodeURI), vocab.HasPart, queryir.Var("child")),
			optionalLabel("child", "childLabel"),
		},
		OrderBy: []queryir.Var{"child"},
	}
}

// LabelLookup resolves a vocabulary name (a school subject or school type,
// selected by relation) to its IRI within one state. The label comparison
// is case-insensitive; at most one row is returned.
func LabelLookup(relation, name, stateURI string, graphs []string) queryir.Select {
	return queryir.Select{
		Projection: projection("uri"),
		From:       graphs,
		Where: queryir.Group{
			triple(queryir.Var("s"), relation, queryir.Var("uri")),
			label("uri", "l"),
			triple(queryir.Var("s"), vocab.HasBundesland, queryir.IRI(stateURI)),
			queryir.Filter{Expr: queryir.FoldedEquals{Var: "l", Value: foldLower(name)}},
		},
		Limit: 1,
	}
}

func foldLower(s string) string { return cases.Lower(language.Und).String(s) }

// ListStates lists every federal state referenced by a curriculum, with its
// German label.
func ListStates(graphs []string) queryir.Select {
	return queryir.Select{
		Distinct:   true,
		Projection: projection("uri", "label"),
		From:       graphs,
		Where: queryir.Group{
			triple(queryir.Var("s"), vocab.HasBundesland, queryir.Var("uri")),
			label("uri", "label"),
			queryir.Filter{Expr: queryir.LangEquals{Var: "label", Lang: vocab.LabelLanguageDE}},
		},
		OrderBy: []queryir.Var{"label"},
	}
}

// ListVocabulary lists the distinct values of relation used by curricula of
// one state, one sample label each. With germanOnly only German labels are
// considered.
func ListVocabulary(relation, stateURI string, graphs []string, germanOnly bool) queryir.Select {
	where := queryir.Group{
		triple(queryir.Var("s"), relation, queryir.Var("uri")),
		label("uri", "l"),
		triple(queryir.Var("s"), vocab.HasBundesland, queryir.IRI(stateURI)),
	}
	if germanOnly {
		where = append(where, queryir.Filter{Expr: queryir.LangEquals{Var: "l", Lang: vocab.LabelLanguageDE}})
	}

	return queryir.Select{
		Distinct: true,
		Projection: []queryir.Projection{
			{Var: "uri"},
			{Var: "label", Sample: "l"},
		},
		From:    graphs,
		Where:   where,
		GroupBy: []queryir.Var{"uri"},
		OrderBy: []queryir.Var{"label"},
	}
}
