package lehrplan

import (
	"strings"

	"github.com/vgoehler/mem-mcp/internal/queryir"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// ContainsPredicate is the endpoint's free-text predicate.
const ContainsPredicate = "bif:contains"

// SearchExpression turns a free-text term into one conjunctive prefix query:
// "Fisch Evo" becomes "'Fisch*' AND 'Evo*'". Single quotes are stripped from
// each token.
//
// A blank term yields the empty expression. The resulting query is still
// well-formed; what it matches is up to the endpoint.
func SearchExpression(term string) string {
	tokens := strings.Fields(term)
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = "'" + strings.ReplaceAll(tok, "'", "") + "*'"
	}
	return strings.Join(parts, " AND ")
}

func labelMatch(term string) queryir.Group {
	return queryir.Group{
		label("s", "label"),
		triple(queryir.Var("label"), ContainsPredicate, queryir.Literal{Value: SearchExpression(term)}),
	}
}

// Search matches term against every label and adds the matching node's
// parent, if any, for context.
func Search(term string, graphs []string) queryir.Select {
	where := labelMatch(term)
	where = append(where, queryir.Optional{Patterns: queryir.Group{
		triple(queryir.Var("parent"), vocab.HasPart, queryir.Var("s")),
		label("parent", "parentLabel"),
	}})

	return queryir.Select{
		Distinct:   true,
		Projection: projection("s", "label", "parent", "parentLabel"),
		From:       graphs,
		Where:      where,
		OrderBy:    []queryir.Var{"s"},
		Limit:      ResultLimit,
	}
}

// ScopedSearch matches term only below curricula of one school subject and
// reports the enclosing curriculum.
func ScopedSearch(term, subjectURI string, graphs []string) queryir.Select {
	where := labelMatch(term)
	where = append(where,
		queryir.Triple{
			Subject:   queryir.Var("lp"),
			Predicate: queryir.Path{Predicate: vocab.HasPart, Modifier: queryir.OneOrMore},
			Object:    queryir.Var("s"),
		},
		triple(queryir.Var("lp"), vocab.HasSchulfach, queryir.IRI(subjectURI)),
		label("lp", "lpLabel"),
	)

	return queryir.Select{
		Distinct:   true,
		Projection: projection("s", "label", "lp", "lpLabel"),
		From:       graphs,
		Where:      where,
		OrderBy:    []queryir.Var{"s"},
		Limit:      ResultLimit,
	}
}
