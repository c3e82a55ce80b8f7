// Package testutil provides deterministic fakes shared by memq tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vgoehler/mem-mcp/internal/sparql"
)

// Responder answers queries whose text contains Contains.
type Responder struct {
	Contains string
	Results  *sparql.Results
	Err      error
}

// RecordingQuerier is a sparql.Querier that records every query and
// answers from canned responders. The first responder whose Contains is a
// substring of the query wins; otherwise Default is returned, or an empty
// table if Default is nil.
//
// Thread-safety: safe for concurrent use.
type RecordingQuerier struct {
	mu         sync.Mutex
	calls      []string
	responders []Responder

	Default *sparql.Results
}

var _ sparql.Querier = (*RecordingQuerier)(nil)

// NewRecordingQuerier creates a querier with no responders.
func NewRecordingQuerier() *RecordingQuerier {
	return &RecordingQuerier{}
}

// On registers results for queries containing substr.
func (q *RecordingQuerier) On(substr string, results *sparql.Results) *RecordingQuerier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.responders = append(q.responders, Responder{Contains: substr, Results: results})
	return q
}

// OnError registers an error for queries containing substr.
func (q *RecordingQuerier) OnError(substr string, err error) *RecordingQuerier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.responders = append(q.responders, Responder{Contains: substr, Err: err})
	return q
}

// Query records query and returns the matching canned response.
func (q *RecordingQuerier) Query(ctx context.Context, query string) (*sparql.Results, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, query)

	for _, r := range q.responders {
		if strings.Contains(query, r.Contains) {
			if r.Err != nil {
				return nil, r.Err
			}
			return r.Results, nil
		}
	}
	if q.Default != nil {
		return q.Default, nil
	}
	return &sparql.Results{Vars: []string{}, Bindings: []sparql.Row{}}, nil
}

// Calls returns a copy of the recorded queries in call order.
func (q *RecordingQuerier) Calls() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.calls))
	copy(out, q.calls)
	return out
}

// CallCount returns the number of recorded queries.
func (q *RecordingQuerier) CallCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

// Reset forgets recorded queries; responders are kept.
func (q *RecordingQuerier) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = nil
}

// Table builds results from string rows. An empty cell leaves the variable
// unbound. Cells starting with "http" are URIs, everything else a literal.
func Table(vars []string, rows ...[]string) *sparql.Results {
	res := &sparql.Results{Vars: vars, Bindings: make([]sparql.Row, 0, len(rows))}
	for _, cells := range rows {
		row := sparql.Row{}
		for i, cell := range cells {
			if i >= len(vars) || cell == "" {
				continue
			}
			kind := sparql.TypeLiteral
			if strings.HasPrefix(cell, "http") {
				kind = sparql.TypeURI
			}
			row[vars[i]] = sparql.Binding{Type: kind, Value: cell}
		}
		res.Bindings = append(res.Bindings, row)
	}
	return res
}

// RepeatedTable builds n rows of the form "<base>/<i>" for the first
// variable and "<var> <i>" for the others.
func RepeatedTable(n int, base string, vars ...string) *sparql.Results {
	rows := make([][]string, n)
	for i := range rows {
		row := make([]string, len(vars))
		for j, v := range vars {
			if j == 0 {
				row[j] = fmt.Sprintf("%s/%d", base, i+1)
				continue
			}
			row[j] = fmt.Sprintf("%s %d", v, i+1)
		}
		rows[i] = row
	}
	return Table(vars, rows...)
}
