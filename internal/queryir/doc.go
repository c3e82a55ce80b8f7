// Package queryir provides a typed intermediate representation (IR) for the
// SPARQL SELECT queries memq sends to the triple store.
//
// ARCHITECTURE:
//
// Query builders never concatenate SPARQL text directly. They assemble a
// Select value, and the querysparql package renders it:
//
//	[lehrplan builders] → [Query IR] → [querysparql] → SPARQL text
//
// Keeping the shape of a query in typed values lets tests inspect structure
// (how many UNION branches a tree query has, which variables a branch binds)
// without parsing text, and gives a single place to enforce well-formedness.
//
// SUPPORTED FRAGMENT:
//
//   - Select(distinct, projection, from graphs, where, group by, order by, limit)
//   - Patterns: Triple, Bind, Optional, Union, Filter
//   - Terms: Var, IRI, PName, Literal, Path (one predicate with + or *)
//   - Expressions: LangEquals, FoldedEquals
//   - Aggregates: SAMPLE in the projection
//
// Not supported: subqueries, CONSTRUCT/ASK/DESCRIBE, MINUS, property path
// sequences or alternatives, arbitrary expressions. Raw queries submitted by
// callers bypass the IR entirely.
//
// SEALED INTERFACES:
//
// Query, Pattern, Term and Expression are sealed interfaces using the marker
// method pattern. Only types in this package implement them, which keeps the
// type switches in the renderer exhaustive:
//
//	switch p := pattern.(type) {
//	case Triple:
//	    // subject predicate object .
//	case Union:
//	    // { ... } UNION { ... }
//	default:
//	    // impossible outside this package
//	}
//
// WELL-FORMEDNESS:
//
// Validate reports problems that would make the endpoint reject a query or
// return surprising rows: unbound projected variables, ORDER BY on variables
// outside the projection, BIND targets already in scope, empty UNIONs.
// The renderer refuses to render a query with findings.
package queryir
