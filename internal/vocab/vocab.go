// Package vocab holds the fixed IRIs of the Lehrplan ontology used by memq queries.
package vocab

import "fmt"

// Namespace is the base IRI of the Lehrplan ontology.
const Namespace = "https://w3id.org/lehrplan/ontology/"

// Prefix is the SPARQL prefix bound to Namespace.
const Prefix = "lp"

// Standard vocabularies referenced by prefixed names.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"

	RDFType         = "rdf:type"
	RDFSLabel       = "rdfs:label"
	RDFSSubClassOf  = "rdfs:subClassOf"
	LabelLanguageDE = "de"
)

// Relations, as prefixed names.
const (
	// HasBundesland links a curriculum to its federal state.
	HasBundesland = "lp:LP_0000029"

	// HasSchulfach links a curriculum to its school subject.
	HasSchulfach = "lp:LP_0000537"

	// HasSchulart links a curriculum to its school type.
	HasSchulart = "lp:LP_0000812"

	// HasJahrgangsstufe links a curriculum to a grade level.
	HasJahrgangsstufe = "lp:LP_0000026"

	// HasPart ("hat Teil") is the traversal edge of the curriculum hierarchy.
	HasPart = "lp:LP_0000008"
)

// LehrplanClass is the superclass of every curriculum type.
const LehrplanClass = "lp:LP_0000438"

// Grade levels are encoded as LP_<2000000+grade>, seven digits wide.
const gradeBase = 2000000

// GradeURI returns the canonical IRI for a grade level.
func GradeURI(grade int) string {
	return fmt.Sprintf("%sLP_%07d", Namespace, gradeBase+grade)
}
