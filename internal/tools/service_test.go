package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/bundesland"
	"github.com/vgoehler/mem-mcp/internal/graphs"
	"github.com/vgoehler/mem-mcp/internal/testutil"
)

const (
	gOntology  = "https://graph.example.com/ontology"
	gSchulart  = "https://graph.example.com/schulart"
	gSchulfach = "https://graph.example.com/schulfach"
	gSN        = "https://graph.example.com/sn"

	uriSN      = "https://w3id.org/lehrplan/ontology/LP_3000047"
	uriBio     = "https://w3id.org/lehrplan/ontology/LP_1000001"
	uriGym     = "https://w3id.org/lehrplan/ontology/LP_1000002"
	rootURI    = "https://w3id.org/lehrplan/ontology/LP_3000100"
	lookupSign = "FILTER(LCASE(STR(?l))"
)

func newTestService(t *testing.T) (*Service, *testutil.RecordingQuerier) {
	t.Helper()
	p, err := graphs.New(
		graphs.Required{Ontology: gOntology, Schulart: gSchulart, Schulfach: gSchulfach},
		[]graphs.StateGraph{{Code: "SN", URI: gSN}},
	)
	require.NoError(t, err)
	q := testutil.NewRecordingQuerier()
	return NewService(q, p, bundesland.New(), nil), q
}

func fromCount(query string) int {
	return strings.Count(query, "\nFROM <")
}

func TestListBundeslaender_UsesAllGraphs(t *testing.T) {
	svc, q := newTestService(t)
	q.Default = testutil.Table([]string{"uri", "label"}, []string{uriSN, "Sachsen"})

	out, err := svc.ListBundeslaender(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "uri | label\n---\n"+uriSN+" | Sachsen", out)
	require.Equal(t, 1, q.CallCount())
	assert.Equal(t, 4, fromCount(q.Calls()[0]))
	assert.Contains(t, q.Calls()[0], "FROM <"+gSN+">")
}

func TestListSchulfaecher_StateGraphSelection(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.ListSchulfaecher(context.Background(), "sachsen")
	require.NoError(t, err)
	_, err = svc.ListSchulfaecher(context.Background(), "BE")
	require.NoError(t, err)

	calls := q.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 4, fromCount(calls[0]))
	assert.Contains(t, calls[0], "<"+uriSN+">")
	assert.Contains(t, calls[0], `FILTER(lang(?l) = "de")`)
	assert.Equal(t, 3, fromCount(calls[1]))
	assert.NotContains(t, calls[1], gSN)
}

func TestListSchularten_NoLanguageFilter(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.ListSchularten(context.Background(), "SN")
	require.NoError(t, err)

	require.Equal(t, 1, q.CallCount())
	assert.Contains(t, q.Calls()[0], "?s lp:LP_0000812 ?uri .")
	assert.NotContains(t, q.Calls()[0], "FILTER")
}

func TestUnknownState_NoQuery(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.ListSchularten(context.Background(), "XY")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeUnknownIdentifier))
	assert.Equal(t, `Unknown Bundesland: "XY". Use a code (BY, SN, RP, ...) or name (Bayern, Sachsen, ...).`, err.Error())
	assert.Zero(t, q.CallCount())
}

func TestFindLehrplaene_ResolvesNamesThenLists(t *testing.T) {
	svc, q := newTestService(t)
	q.On("?s lp:LP_0000537 ?uri", testutil.Table([]string{"uri"}, []string{uriBio})).
		On("?s lp:LP_0000812 ?uri", testutil.Table([]string{"uri"}, []string{uriGym})).
		On("rdfs:subClassOf*", testutil.Table([]string{"s", "label"}, []string{"https://example.com/lp1", "Biologie Gymnasium Klasse 7"}))
	grade := 7

	out, err := svc.FindLehrplaene(context.Background(), FindParams{
		Bundesland:     "SN",
		Schulfach:      "Biologie",
		Schulart:       "Gymnasium",
		Jahrgangsstufe: &grade,
	})
	require.NoError(t, err)

	assert.Equal(t, "s | label\n---\nhttps://example.com/lp1 | Biologie Gymnasium Klasse 7", out)
	calls := q.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0], `= "biologie")`)
	assert.Contains(t, calls[1], `= "gymnasium")`)

	final := calls[2]
	state := strings.Index(final, "?s lp:LP_0000029 <"+uriSN+">")
	subject := strings.Index(final, "?s lp:LP_0000537 <"+uriBio+">")
	schoolType := strings.Index(final, "?s lp:LP_0000812 <"+uriGym+">")
	gradeAt := strings.Index(final, "?s lp:LP_0000026 <https://w3id.org/lehrplan/ontology/LP_2000007>")
	assert.True(t, state > 0 && state < subject && subject < schoolType && schoolType < gradeAt,
		"filters out of order:\n%s", final)
}

func TestFindLehrplaene_UnknownSubject(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.FindLehrplaene(context.Background(), FindParams{Bundesland: "SN", Schulfach: "Alchemie"})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	assert.Equal(t, `Schulfach "Alchemie" not found for this Bundesland. Use list_schulfaecher to see available subjects.`, err.Error())
	assert.Equal(t, 1, q.CallCount(), "listing query must not run")
}

func TestFindLehrplaene_UnknownSchoolType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.FindLehrplaene(context.Background(), FindParams{Bundesland: "BY", Schulart: "Zauberschule"})

	require.Error(t, err)
	assert.Equal(t, `Schulart "Zauberschule" not found for this Bundesland. Use list_schularten to see available school types.`, err.Error())
}

func TestFindLehrplaene_GradeOutOfRange(t *testing.T) {
	svc, q := newTestService(t)

	for _, g := range []int{0, 14, -1} {
		grade := g
		_, err := svc.FindLehrplaene(context.Background(), FindParams{Bundesland: "SN", Jahrgangsstufe: &grade})
		assert.True(t, apperr.Is(err, apperr.CodePrecondition), "grade %d", g)
	}
	assert.Zero(t, q.CallCount())
}

func TestLehrplanTree_LeafNotice(t *testing.T) {
	svc, q := newTestService(t)
	q.Default = testutil.Table([]string{"parent", "parentLabel", "child", "childLabel"},
		[]string{rootURI, "Lehrplan", "https://example.com/a", "A"},
		[]string{"https://example.com/a", "A", "https://example.com/b", "B"},
	)

	out, err := svc.LehrplanTree(context.Background(), rootURI, 2)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(out,
		"\n\n(Tree shown to depth 2. Deeper levels may exist. Use get_children to explore further.)"))
	assert.Equal(t, 1, strings.Count(q.Calls()[0], "UNION"), "depth 2 has two branches")
}

func TestLehrplanTree_NoLeaves(t *testing.T) {
	svc, q := newTestService(t)
	q.Default = testutil.Table([]string{"parent", "child"},
		[]string{"https://example.com/a", "https://example.com/b"},
		[]string{"https://example.com/b", "https://example.com/a"},
	)

	out, err := svc.LehrplanTree(context.Background(), rootURI, 1)
	require.NoError(t, err)

	assert.NotContains(t, out, "Tree shown")

	q.Default = nil
	out, err = svc.LehrplanTree(context.Background(), rootURI, 1)
	require.NoError(t, err)
	assert.Equal(t, "No results.", out)
}

func TestLehrplanTree_DepthValidated(t *testing.T) {
	svc, q := newTestService(t)

	for _, d := range []int{0, 11} {
		_, err := svc.LehrplanTree(context.Background(), rootURI, d)
		assert.True(t, apperr.Is(err, apperr.CodePrecondition), "depth %d", d)
	}
	assert.Zero(t, q.CallCount())
}

func TestChildren(t *testing.T) {
	svc, q := newTestService(t)

	out, err := svc.Children(context.Background(), rootURI)
	require.NoError(t, err)
	assert.Equal(t, LeafNode, out)

	q.Default = testutil.Table([]string{"child", "childLabel"}, []string{"https://example.com/a", ""})
	out, err = svc.Children(context.Background(), rootURI)
	require.NoError(t, err)
	assert.Equal(t, "child | childLabel\n---\nhttps://example.com/a | ", out)
	assert.Contains(t, q.Calls()[1], "<"+rootURI+"> lp:LP_0000008 ?child .")
}

func TestSearch_SchulfachWithoutBundesland(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.Search(context.Background(), SearchParams{Query: "Zelle", Schulfach: "Biologie"})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodePrecondition))
	assert.Equal(t, "Bundesland is required when filtering by Schulfach.", err.Error())
	assert.Zero(t, q.CallCount(), "no query may be sent")
}

func TestSearch_NoResults(t *testing.T) {
	svc, _ := newTestService(t)

	out, err := svc.Search(context.Background(), SearchParams{Query: "Quantenschaum"})

	require.NoError(t, err)
	assert.Equal(t, `No results found for "Quantenschaum".`, out)
}

func TestSearch_TruncationNoticeAtExactlyFifty(t *testing.T) {
	cases := []struct {
		rows   int
		notice bool
	}{
		{49, false},
		{50, true},
		{51, false},
	}

	for _, tc := range cases {
		svc, q := newTestService(t)
		q.Default = testutil.RepeatedTable(tc.rows, "https://example.com/n", "s", "label", "parent", "parentLabel")

		out, err := svc.Search(context.Background(), SearchParams{Query: "Fisch"})
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSuffix(out, SearchLimitNotice), "\n")
		assert.Len(t, lines, tc.rows+2, "rows=%d", tc.rows)
		assert.Equal(t, tc.notice, strings.HasSuffix(out, SearchLimitNotice), "rows=%d", tc.rows)
	}
}

func TestSearch_GraphSelection(t *testing.T) {
	svc, q := newTestService(t)

	_, err := svc.Search(context.Background(), SearchParams{Query: "Fisch"})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), SearchParams{Query: "Fisch", Bundesland: "SN"})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), SearchParams{Query: "Fisch", Bundesland: "Berlin"})
	require.NoError(t, err)

	calls := q.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 4, fromCount(calls[0]))
	assert.Equal(t, 4, fromCount(calls[1]))
	assert.Equal(t, 3, fromCount(calls[2]))
	assert.Contains(t, calls[0], `?label bif:contains "'Fisch*'" .`)
}

func TestSearch_ScopedBySubject(t *testing.T) {
	svc, q := newTestService(t)
	q.On(lookupSign, testutil.Table([]string{"uri"}, []string{uriBio}))

	_, err := svc.Search(context.Background(), SearchParams{Query: "Zelle Kern", Bundesland: "SN", Schulfach: "Biologie"})
	require.NoError(t, err)

	calls := q.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "?s lp:LP_0000029 <"+uriSN+"> .")
	assert.Contains(t, calls[1], "?lp lp:LP_0000008+ ?s .")
	assert.Contains(t, calls[1], "?lp lp:LP_0000537 <"+uriBio+"> .")
	assert.Contains(t, calls[1], `"'Zelle*' AND 'Kern*'"`)
}

func TestSPARQLQuery_Passthrough(t *testing.T) {
	svc, q := newTestService(t)
	raw := "SELECT ?s WHERE { ?s ?p ?o } LIMIT 1"

	out, err := svc.SPARQLQuery(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "No results.", out)
	assert.Equal(t, []string{raw}, q.Calls())
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	svc, q := newTestService(t)
	q.OnError("", apperr.Endpoint(500, "Virtuoso 37000 Error"))

	_, err := svc.Children(context.Background(), rootURI)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeEndpoint))
	assert.Contains(t, err.Error(), "SPARQL query failed (500): Virtuoso 37000 Error")
	assert.False(t, apperr.IsUserError(err))
}
