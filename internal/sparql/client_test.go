package sparql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vgoehler/mem-mcp/internal/apperr"
)

const sampleResponse = `{
  "head": {"vars": ["uri", "label"]},
  "results": {"bindings": [
    {"uri": {"type": "uri", "value": "https://w3id.org/lehrplan/ontology/LP_3000047"},
     "label": {"type": "literal", "value": "Sachsen", "xml:lang": "de"}},
    {"uri": {"type": "uri", "value": "https://w3id.org/lehrplan/ontology/LP_2000005"},
     "label": {"type": "literal", "value": "5", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}},
    {"uri": {"type": "bnode", "value": "b0"}}
  ]}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestQuery_PostsQueryText(t *testing.T) {
	var gotMethod, gotContentType, gotAccept, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotAccept = r.Header.Get("Accept")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", ContentTypeResults)
		_, _ = io.WriteString(w, sampleResponse)
	})

	res, err := c.Query(context.Background(), "SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/sparql-query", gotContentType)
	assert.Equal(t, "application/sparql-results+json", gotAccept)
	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", gotBody)

	assert.Equal(t, []string{"uri", "label"}, res.Vars)
	require.Len(t, res.Bindings, 3)
	assert.Equal(t, Binding{Type: TypeLiteral, Value: "Sachsen", Lang: "de"}, res.Bindings[0]["label"])
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", res.Bindings[1]["label"].Datatype)
	assert.Equal(t, TypeBNode, res.Bindings[2]["uri"].Type)

	_, ok := res.Bindings[2].Value("label")
	assert.False(t, ok, "missing variable stays unbound")
}

func TestQuery_EmptyBindings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"head":{"vars":["s"]},"results":{"bindings":[]}}`)
	})

	res, err := c.Query(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Len())
	assert.Equal(t, NoResults, Format(res))
}

func TestQuery_EndpointErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, long)
	})

	_, err := c.Query(context.Background(), "broken")
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.CodeEndpoint))
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Len(t, e.Details["body"], apperr.MaxBodyExcerpt)
	assert.Equal(t, "SPARQL query failed (400): "+strings.Repeat("x", 200), e.Message)
}

func TestQuery_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>not json</html>")
	})

	_, err := c.Query(context.Background(), "q")
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.CodeEndpoint))
	assert.Contains(t, err.Error(), "(200)")
	assert.Contains(t, err.Error(), "decode results")
}

func TestQuery_MissingResultsMember(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"head":{"vars":[]},"boolean":true}`)
	})

	_, err := c.Query(context.Background(), "ASK {}")

	assert.True(t, apperr.Is(err, apperr.CodeEndpoint))
}

func TestQuery_TimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	start := time.Now()
	_, err := c.Query(context.Background(), "slow")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeTransport))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestQuery_UnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "q")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeTransport))
	assert.Equal(t, apperr.CodeTransport, apperr.CodeOf(err))
}

func TestQuery_NoRetry(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Query(context.Background(), "q")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	c, err := NewClient("")

	assert.Nil(t, c)
	assert.True(t, apperr.Is(err, apperr.CodeMissingConfiguration))
	assert.Contains(t, err.Error(), EndpointKey)
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("http://localhost:8890/sparql", WithHTTPClient(hc), WithTimeout(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8890/sparql", c.Endpoint())
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, time.Second, c.timeout)
}
