// Package harness runs memq operations against canned endpoint responses and
// checks what was queried and answered.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	states:
//	  - code: SN
//	    uri: https://graph.example.com/sn
//	responses:
//	  - contains: "SAMPLE(?l)"
//	    vars: [uri, label]
//	    rows:
//	      - [https://w3id.org/lehrplan/ontology/LP_1000001, Biologie]
//	  - contains: "'Fisch*'"
//	    repeat: { count: 50, base: https://example.com/node }
//	    vars: [s, label]
//	  - contains: "lp:LP_0000008 ?child"
//	    error: { code: ENDPOINT_ERROR, status: 503, body: Service Unavailable }
//	flow:
//	  - invoke: list_schulfaecher
//	    args: { bundesland: SN }
//	    expect:
//	      outcome: success
//	      contains: [Biologie]
//	assertions:
//	  - type: query_contains
//	    index: 0
//	    text: "FROM <https://graph.example.com/sn>"
//
// A query is answered by the first response whose contains text is a
// substring of it; unmatched queries get an empty table.
//
// # Assertion Types
//
//   - query_count: exactly count queries were sent
//   - query_contains: query number index (any query if omitted) contains text
//   - query_not_contains: query number index (no query if omitted) contains text
//   - journal_count: the query journal holds exactly count entries
//
// # Deterministic Testing
//
// Every run uses an in-memory journal, a step clock and sequential request
// IDs ("req-0001", ...), so snapshots compare byte for byte against golden
// files in testdata/golden.
package harness
