// Package graphs selects the named graphs that participate in a query.
//
// Three infrastructure graphs (ontology, Schulart, Schulfach) take part in
// every query. Each federal state may additionally have its own graph holding
// that state's curricula.
package graphs

import (
	"strings"

	"github.com/vgoehler/mem-mcp/internal/apperr"
)

// Configuration keys of the required graphs and the state graph convention.
const (
	KeyOntology    = "GRAPH_ONTOLOGY"
	KeySchulart    = "GRAPH_SCHULART"
	KeySchulfach   = "GRAPH_SCHULFACH"
	StateKeyPrefix = "GRAPH_STATE_"
)

// Required holds the infrastructure graph IRIs.
type Required struct {
	Ontology  string
	Schulart  string
	Schulfach string
}

// StateGraph is a state-specific graph keyed by the code taken from its
// configuration key. The code is not checked against the known states.
type StateGraph struct {
	Code string
	URI  string
}

// Partition is the immutable set of graphs known to the service.
type Partition struct {
	infra  []string
	codes  []string // registration order
	states map[string]string
}

// New builds a Partition. It fails with MISSING_CONFIGURATION if any required
// graph is empty. State graphs with an empty code or IRI are skipped; a code
// given twice keeps its first position and its last IRI.
func New(req Required, states []StateGraph) (*Partition, error) {
	required := []struct{ key, value string }{
		{KeyOntology, req.Ontology},
		{KeySchulart, req.Schulart},
		{KeySchulfach, req.Schulfach},
	}
	p := &Partition{states: make(map[string]string, len(states))}
	for _, r := range required {
		value := strings.TrimSpace(r.value)
		if value == "" {
			return nil, apperr.MissingConfiguration(r.key)
		}
		p.infra = append(p.infra, value)
	}

	for _, sg := range states {
		if sg.Code == "" || sg.URI == "" {
			continue
		}
		if _, seen := p.states[sg.Code]; !seen {
			p.codes = append(p.codes, sg.Code)
		}
		p.states[sg.Code] = sg.URI
	}
	return p, nil
}

// Infrastructure returns a copy of the infrastructure graphs.
func (p *Partition) Infrastructure() []string {
	out := make([]string, len(p.infra))
	copy(out, p.infra)
	return out
}

// States returns the registered state graphs in registration order.
func (p *Partition) States() []StateGraph {
	out := make([]StateGraph, 0, len(p.codes))
	for _, code := range p.codes {
		out = append(out, StateGraph{Code: code, URI: p.states[code]})
	}
	return out
}

// AllGraphs returns the infrastructure graphs followed by every state graph
// in registration order.
func (p *Partition) AllGraphs() []string {
	out := make([]string, 0, len(p.infra)+len(p.codes))
	out = append(out, p.infra...)
	for _, code := range p.codes {
		out = append(out, p.states[code])
	}
	return out
}

// ForState returns the infrastructure graphs plus the graph registered for
// code, if any. The returned slice is never shared with the Partition.
func (p *Partition) ForState(code string) []string {
	out := make([]string, 0, len(p.infra)+1)
	out = append(out, p.infra...)
	if g, ok := p.states[code]; ok {
		out = append(out, g)
	}
	return out
}

// FromClauses renders one FROM clause per graph, in order, without
// removing duplicates.
func FromClauses(graphs []string) string {
	lines := make([]string, len(graphs))
	for i, g := range graphs {
		lines[i] = "FROM <" + g + ">"
	}
	return strings.Join(lines, "\n")
}
