package lehrplan

import (
	"fmt"

	"github.com/vgoehler/mem-mcp/internal/queryir"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// Tree depth bounds.
const (
	MinDepth     = 1
	MaxDepth     = 10
	DefaultDepth = 2
)

// ClampDepth forces depth into [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	return min(max(depth, MinDepth), MaxDepth)
}

// Tree returns every parent/child edge reachable from rootURI within depth
// hops, with optional labels.
//
// The endpoint has no bounded recursion, so the traversal is unrolled into
// one UNION branch per hop count. Branch k walks k-1 hops from the root
// through ?step1..?step{k-1}, binds the last step as ?parent and matches one
// more hop to ?child:
//
//	{ BIND(<root> AS ?parent) ?parent lp:LP_0000008 ?child . }
//	UNION
//	{ <root> lp:LP_0000008 ?step1 . BIND(?step1 AS ?parent) ?parent lp:LP_0000008 ?child . }
//
// depth is clamped to [MinDepth, MaxDepth].
func Tree(rootURI string, depth int, graphs []string) queryir.Select {
	depth = ClampDepth(depth)
	root := queryir.IRI(rootURI)

	branches := make([]queryir.Group, 0, depth)
	for k := 1; k <= depth; k++ {
		branches = append(branches, treeBranch(root, k))
	}

	return queryir.Select{
		Distinct:   true,
		Projection: projection("parent", "parentLabel", "child", "childLabel"),
		From:       graphs,
		Where: queryir.Group{
			queryir.Union{Branches: branches},
			optionalLabel("parent", "parentLabel"),
			optionalLabel("child", "childLabel"),
		},
		OrderBy: []queryir.Var{"parent", "child"},
	}
}

func treeBranch(root queryir.IRI, hops int) queryir.Group {
	if hops == 1 {
		return queryir.Group{
			queryir.Bind{Value: root, As: "parent"},
			triple(queryir.Var("parent"), vocab.HasPart, queryir.Var("child")),
		}
	}

	g := make(queryir.Group, 0, hops+1)
	g = append(g, triple(root, vocab.HasPart, stepVar(1)))
	for i := 2; i < hops; i++ {
		g = append(g, triple(stepVar(i-1), vocab.HasPart, stepVar(i)))
	}
	g = append(g,
		queryir.Bind{Value: stepVar(hops - 1), As: "parent"},
		triple(queryir.Var("parent"), vocab.HasPart, queryir.Var("child")),
	)
	return g
}

func stepVar(i int) queryir.Var {
	return queryir.Var(fmt.Sprintf("step%d", i))
}
