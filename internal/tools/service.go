// Package tools implements the named memq operations on top of identifier
// resolution, graph selection, query building and execution.
//
// Every operation returns display text or an *apperr.Error. Hosts (the MCP
// server and the CLI) decide how to present either.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/bundesland"
	"github.com/vgoehler/mem-mcp/internal/graphs"
	"github.com/vgoehler/mem-mcp/internal/lehrplan"
	"github.com/vgoehler/mem-mcp/internal/sparql"
	"github.com/vgoehler/mem-mcp/internal/vocab"
)

// Grade level bounds.
const (
	MinGrade = 1
	MaxGrade = 13
)

// Fixed texts appended to or replacing formatted results.
const (
	LeafNode           = "No children found (leaf node)."
	SearchLimitNotice  = "\n\n(Results limited to 50. Try a more specific query or add filters.)"
	treeNoticeFormat   = "\n\n(Tree shown to depth %d. Deeper levels may exist. Use get_children to explore further.)"
	noResultsFormat    = "No results found for \"%s\"."
	schulfachNeedsLand = "Bundesland is required when filtering by Schulfach."
)

// Service runs the operations. It holds only immutable collaborators and
// is safe for concurrent use if its Querier is.
type Service struct {
	querier   sparql.Querier
	partition *graphs.Partition
	registry  *bundesland.Registry
	logger    *slog.Logger
}

// NewService wires a Service. A nil logger means slog.Default().
func NewService(q sparql.Querier, p *graphs.Partition, r *bundesland.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{querier: q, partition: p, registry: r, logger: logger}
}

// Partition returns the graph partition the service queries.
func (s *Service) Partition() *graphs.Partition {
	return s.partition
}

func (s *Service) run(ctx context.Context, op string, query string) (*sparql.Results, error) {
	s.logger.Debug("tools: executing query", "op", op, "bytes", len(query))
	res, err := s.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// resolveState resolves a state identifier and selects its graphs.
func (s *Service) resolveState(input string) (bundesland.Info, []string, error) {
	info, err := s.registry.Resolve(input)
	if err != nil {
		return bundesland.Info{}, nil, err
	}
	return info, s.partition.ForState(info.Code), nil
}

type vocabularyKind struct {
	kind     string
	relation string
	listing  string
	what     string
}

var (
	schulfachKind = vocabularyKind{kind: "Schulfach", relation: vocab.HasSchulfach, listing: ToolListSchulfaecher, what: "subjects"}
	schulartKind  = vocabularyKind{kind: "Schulart", relation: vocab.HasSchulart, listing: ToolListSchularten, what: "school types"}
)

// lookup resolves a subject or school-type name to its IRI within a state.
func (s *Service) lookup(ctx context.Context, k vocabularyKind, name, stateURI string, gs []string) (string, error) {
	q := lehrplan.Render(lehrplan.LabelLookup(k.relation, name, stateURI, gs))
	res, err := s.run(ctx, "lookup "+strings.ToLower(k.kind), q)
	if err != nil {
		return "", err
	}
	if res.Len() == 0 {
		return "", apperr.NotFound(k.kind, name, k.listing, k.what)
	}
	uri, ok := res.Bindings[0].Value("uri")
	if !ok {
		return "", apperr.NotFound(k.kind, name, k.listing, k.what)
	}
	return uri, nil
}

// ListBundeslaender lists every state referenced in any graph.
func (s *Service) ListBundeslaender(ctx context.Context) (string, error) {
	res, err := s.run(ctx, ToolListBundeslaender, lehrplan.Render(lehrplan.ListStates(s.partition.AllGraphs())))
	if err != nil {
		return "", err
	}
	return sparql.Format(res), nil
}

// ListSchulfaecher lists the school subjects used by one state's curricula.
func (s *Service) ListSchulfaecher(ctx context.Context, land string) (string, error) {
	return s.listVocabulary(ctx, ToolListSchulfaecher, vocab.HasSchulfach, land, true)
}

// ListSchularten lists the school types used by one state's curricula.
func (s *Service) ListSchularten(ctx context.Context, land string) (string, error) {
	return s.listVocabulary(ctx, ToolListSchularten, vocab.HasSchulart, land, false)
}

func (s *Service) listVocabulary(ctx context.Context, op, relation, land string, germanOnly bool) (string, error) {
	info, gs, err := s.resolveState(land)
	if err != nil {
		return "", err
	}
	res, err := s.run(ctx, op, lehrplan.Render(lehrplan.ListVocabulary(relation, info.URI, gs, germanOnly)))
	if err != nil {
		return "", err
	}
	return sparql.Format(res), nil
}

// FindParams filters find_lehrplaene. Empty strings and a nil grade mean
// "no filter".
type FindParams struct {
	Bundesland     string
	Schulfach      string
	Schulart       string
	Jahrgangsstufe *int
}

// FindLehrplaene lists curricula of a state, optionally narrowed by subject,
// school type and grade. Subject and school type names are resolved first;
// an unknown name fails with NOT_FOUND before the listing query runs.
func (s *Service) FindLehrplaene(ctx context.Context, p FindParams) (string, error) {
	if g := p.Jahrgangsstufe; g != nil && (*g < MinGrade || *g > MaxGrade) {
		return "", apperr.Precondition(fmt.Sprintf("jahrgangsstufe must be between %d and %d, got %d", MinGrade, MaxGrade, *g))
	}

	info, gs, err := s.resolveState(p.Bundesland)
	if err != nil {
		return "", err
	}

	filters := []lehrplan.Filter{lehrplan.StateFilter(info.URI)}
	if p.Schulfach != "" {
		uri, err := s.lookup(ctx, schulfachKind, p.Schulfach, info.URI, gs)
		if err != nil {
			return "", err
		}
		filters = append(filters, lehrplan.SchulfachFilter(uri))
	}
	if p.Schulart != "" {
		uri, err := s.lookup(ctx, schulartKind, p.Schulart, info.URI, gs)
		if err != nil {
			return "", err
		}
		filters = append(filters, lehrplan.SchulartFilter(uri))
	}
	if p.Jahrgangsstufe != nil {
		filters = append(filters, lehrplan.GradeFilter(*p.Jahrgangsstufe))
	}

	res, err := s.run(ctx, ToolFindLehrplaene, lehrplan.Render(lehrplan.FindLehrplaene(gs, filters)))
	if err != nil {
		return "", err
	}
	return sparql.Format(res), nil
}

// LehrplanTree returns the hierarchy below a curriculum to the given depth.
// When some returned child is not itself a parent, deeper levels may exist
// and a notice pointing at get_children is appended.
func (s *Service) LehrplanTree(ctx context.Context, uri string, depth int) (string, error) {
	if depth < lehrplan.MinDepth || depth > lehrplan.MaxDepth {
		return "", apperr.Precondition(fmt.Sprintf("depth must be between %d and %d, got %d", lehrplan.MinDepth, lehrplan.MaxDepth, depth))
	}

	res, err := s.run(ctx, ToolLehrplanTree, lehrplan.Render(lehrplan.Tree(uri, depth, s.partition.AllGraphs())))
	if err != nil {
		return "", err
	}

	text := sparql.Format(res)
	if hasLeaves(res) {
		text += fmt.Sprintf(treeNoticeFormat, depth)
	}
	return text, nil
}

// hasLeaves reports whether some child never appears as a parent.
func hasLeaves(res *sparql.Results) bool {
	parents := make(map[string]bool, res.Len())
	for _, p := range res.Column("parent") {
		parents[p] = true
	}
	for _, c := range res.Column("child") {
		if !parents[c] {
			return true
		}
	}
	return false
}

// Children lists the direct parts of a node.
func (s *Service) Children(ctx context.Context, uri string) (string, error) {
	res, err := s.run(ctx, ToolChildren, lehrplan.Render(lehrplan.Children(uri, s.partition.AllGraphs())))
	if err != nil {
		return "", err
	}
	if res.Len() == 0 {
		return LeafNode, nil
	}
	return sparql.Format(res), nil
}

// SearchParams scopes a full-text search.
type SearchParams struct {
	Query      string
	Bundesland string
	Schulfach  string
}

// Search runs a prefix full-text search over labels. Schulfach requires
// Bundesland; violating that fails before any query is sent. A full page of
// ResultLimit rows gets a notice that results were cut.
func (s *Service) Search(ctx context.Context, p SearchParams) (string, error) {
	if p.Schulfach != "" && p.Bundesland == "" {
		return "", apperr.Precondition(schulfachNeedsLand)
	}

	gs := s.partition.AllGraphs()
	var stateURI string
	if p.Bundesland != "" {
		info, stateGraphs, err := s.resolveState(p.Bundesland)
		if err != nil {
			return "", err
		}
		gs, stateURI = stateGraphs, info.URI
	}

	q := lehrplan.Search(p.Query, gs)
	if p.Schulfach != "" {
		subjectURI, err := s.lookup(ctx, schulfachKind, p.Schulfach, stateURI, gs)
		if err != nil {
			return "", err
		}
		q = lehrplan.ScopedSearch(p.Query, subjectURI, gs)
	}

	res, err := s.run(ctx, ToolSearch, lehrplan.Render(q))
	if err != nil {
		return "", err
	}
	if res.Len() == 0 {
		return fmt.Sprintf(noResultsFormat, p.Query), nil
	}

	text := sparql.Format(res)
	if res.Len() == lehrplan.ResultLimit {
		text += SearchLimitNotice
	}
	return text, nil
}

// SPARQLQuery runs caller-supplied query text unchanged.
func (s *Service) SPARQLQuery(ctx context.Context, query string) (string, error) {
	res, err := s.run(ctx, ToolSPARQLQuery, query)
	if err != nil {
		return "", err
	}
	return sparql.Format(res), nil
}
