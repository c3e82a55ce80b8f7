package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/lehrplan"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// Tool names.
const (
	ToolListBundeslaender = "list_bundeslaender"
	ToolListSchulfaecher  = "list_schulfaecher"
	ToolListSchularten    = "list_schularten"
	ToolFindLehrplaene    = "find_lehrplaene"
	ToolLehrplanTree      = "get_lehrplan_tree"
	ToolChildren          = "get_children"
	ToolSearch            = "search"
	ToolSPARQLQuery       = "sparql_query"
)

// ParamKind is the JSON type of a tool parameter.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindInteger ParamKind = "integer"
)

// Param describes one tool parameter. Min, Max and Default apply to
// integers; Default zero means no default.
type Param struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Min         int       `json:"min,omitempty"`
	Max         int       `json:"max,omitempty"`
	Default     int       `json:"default,omitempty"`
}

// Tool describes one operation for hosts.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

const bundeslandHint = "State code (BY, SN, RP, ...) or name (Bayern, Sachsen, Rheinland-Pfalz, ...)"

// Catalog lists every operation in a fixed order.
func (s *Service) Catalog() []Tool {
	return []Tool{
		{
			Name:        ToolSPARQLQuery,
			Description: s.SPARQLQueryDescription(),
			Params: []Param{
				{Name: "query", Kind: KindString, Required: true, Description: "The full SPARQL SELECT query to execute"},
			},
		},
		{
			Name: ToolListBundeslaender,
			Description: "List all German federal states (Bundesländer) available in the " +
				"ontology with their codes and URIs.",
		},
		{
			Name: ToolListSchulfaecher,
			Description: "List all school subjects (Schulfächer) for a Bundesland. " +
				"Accepts a state code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...).",
			Params: []Param{
				{Name: "bundesland", Kind: KindString, Required: true, Description: bundeslandHint},
			},
		},
		{
			Name: ToolListSchularten,
			Description: "List all school types (Schularten) for a Bundesland. " +
				"Accepts a state code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...).",
			Params: []Param{
				{Name: "bundesland", Kind: KindString, Required: true, Description: bundeslandHint},
			},
		},
		{
			Name: ToolFindLehrplaene,
			Description: "Find curricula (Lehrpläne) by Bundesland, optionally filtered by " +
				"Schulfach, Schulart, or Jahrgangsstufe. Use state codes/names. For Schulfach " +
				"and Schulart, use the German name as shown by the list tools.",
			Params: []Param{
				{Name: "bundesland", Kind: KindString, Required: true, Description: "State code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...)"},
				{Name: "schulfach", Kind: KindString, Description: "Optional: subject name in German (e.g. Biologie, Mathematik)"},
				{Name: "schulart", Kind: KindString, Description: "Optional: school type name (e.g. Gymnasium, Grundschule)"},
				{Name: "jahrgangsstufe", Kind: KindInteger, Min: MinGrade, Max: MaxGrade, Description: "Optional: grade level (1-13)"},
			},
		},
		{
			Name: ToolLehrplanTree,
			Description: "Get the hierarchical structure (parent-child via 'hat Teil') of a " +
				"specific Lehrplan. Use a Lehrplan URI obtained from find_lehrplaene. " +
				"The depth parameter controls how many levels deep the tree goes " +
				"(default 2, max 10). Use get_children to drill deeper into specific nodes.",
			Params: []Param{
				{Name: "lehrplan_uri", Kind: KindString, Required: true, Description: "URI of the Lehrplan (from find_lehrplaene results)"},
				{Name: "depth", Kind: KindInteger, Min: lehrplan.MinDepth, Max: lehrplan.MaxDepth, Default: lehrplan.DefaultDepth, Description: "How many levels deep to retrieve (default 2)"},
			},
		},
		{
			Name: ToolChildren,
			Description: "Get the direct children of a specific node in the Lehrplan hierarchy " +
				"(via 'hat Teil'). Use this to drill down into a specific branch after " +
				"using get_lehrplan_tree.",
			Params: []Param{
				{Name: "node_uri", Kind: KindString, Required: true, Description: "URI of the node to get children for"},
			},
		},
		{
			Name: ToolSearch,
			Description: "Full-text search across all Lehrplan nodes by keyword. " +
				"Uses prefix matching (e.g. 'Fisch' also finds 'Fische'). " +
				"Returns matching nodes with their parent Lehrplan for context. " +
				"Optionally filter by Bundesland and/or Schulfach.",
			Params: []Param{
				{Name: "query", Kind: KindString, Required: true, Description: "Search term (e.g. 'Fisch', 'Evolution')"},
				{Name: "bundesland", Kind: KindString, Description: "Optional: state code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...) to limit search"},
				{Name: "schulfach", Kind: KindString, Description: "Optional: subject name in German (e.g. Biologie, Mathematik) to limit search to a specific subject"},
			},
		},
	}
}

// SPARQLQueryDescription describes sparql_query, listing every graph a raw
// query may name in its FROM clauses.
func (s *Service) SPARQLQueryDescription() string {
	var graphList []string
	for _, g := range s.partition.Infrastructure() {
		graphList = append(graphList, "<"+g+">")
	}
	for _, sg := range s.partition.States() {
		graphList = append(graphList, sg.Code+": <"+sg.URI+">")
	}
	return "Execute a SPARQL query against the MEM ontology triple store. " +
		"PREFIX " + vocab.Prefix + ": <" + vocab.Namespace + "> is available. " +
		"You MUST include FROM clauses for the graphs you need. " +
		"Available graphs: " + strings.Join(graphList, ", ")
}

// Call dispatches a named operation with loosely typed arguments, as
// received from a protocol host. Integers may arrive as any numeric type or
// a decimal string.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	a := arguments(args)

	switch name {
	case ToolListBundeslaender:
		return s.ListBundeslaender(ctx)

	case ToolListSchulfaecher, ToolListSchularten:
		land, err := a.requireString("bundesland")
		if err != nil {
			return "", err
		}
		if name == ToolListSchulfaecher {
			return s.ListSchulfaecher(ctx, land)
		}
		return s.ListSchularten(ctx, land)

	case ToolFindLehrplaene:
		land, err := a.requireString("bundesland")
		if err != nil {
			return "", err
		}
		grade, err := a.optionalInt("jahrgangsstufe")
		if err != nil {
			return "", err
		}
		return s.FindLehrplaene(ctx, FindParams{
			Bundesland:     land,
			Schulfach:      a.optionalString("schulfach"),
			Schulart:       a.optionalString("schulart"),
			Jahrgangsstufe: grade,
		})

	case ToolLehrplanTree:
		uri, err := a.requireString("lehrplan_uri")
		if err != nil {
			return "", err
		}
		depth, err := a.optionalInt("depth")
		if err != nil {
			return "", err
		}
		d := lehrplan.DefaultDepth
		if depth != nil {
			d = *depth
		}
		return s.LehrplanTree(ctx, uri, d)

	case ToolChildren:
		uri, err := a.requireString("node_uri")
		if err != nil {
			return "", err
		}
		return s.Children(ctx, uri)

	case ToolSearch:
		query, err := a.requireString("query")
		if err != nil {
			return "", err
		}
		return s.Search(ctx, SearchParams{
			Query:      query,
			Bundesland: a.optionalString("bundesland"),
			Schulfach:  a.optionalString("schulfach"),
		})

	case ToolSPARQLQuery:
		query, err := a.requireString("query")
		if err != nil {
			return "", err
		}
		return s.SPARQLQuery(ctx, query)

	default:
		return "", apperr.Precondition(fmt.Sprintf("unknown tool %q", name))
	}
}

type arguments map[string]any

func (a arguments) optionalString(key string) string {
	v, _ := a[key].(string)
	return v
}

func (a arguments) requireString(key string) (string, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return "", apperr.Precondition(fmt.Sprintf("missing required argument %q", key))
	}
	v, ok := raw.(string)
	if !ok {
		return "", apperr.Precondition(fmt.Sprintf("argument %q must be a string", key))
	}
	return v, nil
}

func (a arguments) optionalInt(key string) (*int, error) {
	raw, ok := a[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, apperr.Precondition(fmt.Sprintf("argument %q must be an integer", key))
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, apperr.Precondition(fmt.Sprintf("argument %q must be an integer", key))
		}
		n = parsed
	default:
		return nil, apperr.Precondition(fmt.Sprintf("argument %q must be an integer", key))
	}
	return &n, nil
}
