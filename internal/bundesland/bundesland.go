// Package bundesland resolves German federal states (Bundesländer) given as
// two-letter code, German name or ontology IRI.
package bundesland

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/vgoehler/mem-mcp/internal/apperr"
)

// Info is a resolved federal state.
// Code is empty when the state was given as an IRI we do not know.
type Info struct {
	Code string `json:"code"`
	URI  string `json:"uri"`
}

// Entry is one row of the static state table.
type Entry struct {
	Code string
	Name string
	URI  string
}

// entries is ordered by code as listed in the ontology documentation.
var entries = []Entry{
	{Code: "BW", Name: "Baden-Württemberg", URI: "https://w3id.org/lehrplan/ontology/LP_3000049"},
	{Code: "BY", Name: "Bayern", URI: "https://w3id.org/lehrplan/ontology/LP_3000051"},
	{Code: "BE", Name: "Berlin", URI: "https://w3id.org/lehrplan/ontology/LP_3000048"},
	{Code: "BB", Name: "Brandenburg", URI: "https://w3id.org/lehrplan/ontology/LP_3000057"},
	{Code: "HB", Name: "Bremen", URI: "https://w3id.org/lehrplan/ontology/LP_3000056"},
	{Code: "HH", Name: "Hamburg", URI: "https://w3id.org/lehrplan/ontology/LP_3000045"},
	{Code: "HE", Name: "Hessen", URI: "https://w3id.org/lehrplan/ontology/LP_3000050"},
	{Code: "MV", Name: "Mecklenburg-Vorpommern", URI: "https://w3id.org/lehrplan/ontology/LP_3000052"},
	{Code: "NI", Name: "Niedersachsen", URI: "https://w3id.org/lehrplan/ontology/LP_3000043"},
	{Code: "NW", Name: "Nordrhein-Westfalen", URI: "https://w3id.org/lehrplan/ontology/LP_3000044"},
	{Code: "RP", Name: "Rheinland-Pfalz", URI: "https://w3id.org/lehrplan/ontology/LP_3000046"},
	{Code: "SL", Name: "Saarland", URI: "https://w3id.org/lehrplan/ontology/LP_3000055"},
	{Code: "SN", Name: "Sachsen", URI: "https://w3id.org/lehrplan/ontology/LP_3000047"},
	{Code: "ST", Name: "Sachsen-Anhalt", URI: "https://w3id.org/lehrplan/ontology/LP_3000053"},
	{Code: "SH", Name: "Schleswig-Holstein", URI: "https://w3id.org/lehrplan/ontology/LP_3000054"},
	{Code: "TH", Name: "Thüringen", URI: "https://w3id.org/lehrplan/ontology/LP_3000031"},
}

// foldUpper and foldLower build a fresh Caser per call; a Caser keeps state
// and must not be shared between goroutines.
func foldUpper(s string) string { return cases.Upper(language.Und).String(s) }

func foldLower(s string) string { return cases.Lower(language.German).String(s) }

// Registry resolves state identifiers against the static table.
// The zero value is not usable; call New. A Registry is immutable and safe
// for concurrent use.
type Registry struct {
	byCode map[string]Entry
	byName map[string]string
	byURI  map[string]string
}

// New builds the lookup maps from the static table.
func New() *Registry {
	r := &Registry{
		byCode: make(map[string]Entry, len(entries)),
		byName: make(map[string]string, len(entries)),
		byURI:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		r.byCode[e.Code] = e
		r.byName[foldLower(norm.NFC.String(e.Name))] = e.Code
		r.byURI[e.URI] = e.Code
	}
	return r
}

// Resolve maps a code ("BY", "sn"), a German name ("Bayern", "sachsen") or an
// IRI to Info. Leading and trailing whitespace is ignored.
//
// Lookup order is code, then name, then IRI. An IRI that is not in the table
// still resolves, with an empty Code, so opaque IRIs from earlier results can
// be passed through.
func (r *Registry) Resolve(input string) (Info, error) {
	trimmed := norm.NFC.String(strings.TrimSpace(input))

	if e, ok := r.byCode[foldUpper(trimmed)]; ok {
		return Info{Code: e.Code, URI: e.URI}, nil
	}

	if code, ok := r.byName[foldLower(trimmed)]; ok {
		return Info{Code: code, URI: r.byCode[code].URI}, nil
	}

	if strings.HasPrefix(trimmed, "http") {
		return Info{Code: r.byURI[trimmed], URI: trimmed}, nil
	}

	return Info{}, apperr.UnknownIdentifier(input)
}

// Entries returns a copy of the static table in canonical order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
