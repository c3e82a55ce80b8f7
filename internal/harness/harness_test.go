package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		Flow: []FlowStep{
			{Invoke: "list_bundeslaender", Args: map[string]any{}},
		},
		Assertions: []Assertion{
			{Type: AssertQueryCount, Count: 1},
			{Type: AssertJournalCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, OutcomeSuccess, result.Steps[0].Outcome)
	assert.Equal(t, "No results.", result.Steps[0].Output)
	require.Len(t, result.Steps[0].Queries, 1)
	assert.Equal(t, "req-0001", result.Steps[0].Queries[0].ID)
	assert.Equal(t, []string{
		Infrastructure.Ontology, Infrastructure.Schulart, Infrastructure.Schulfach,
	}, result.Steps[0].Queries[0].Graphs)
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "Expect clause that does not hold",
		Flow: []FlowStep{
			{
				Invoke: "get_children",
				Args:   map[string]any{"node_uri": "https://example.com/n"},
				Expect: &ExpectClause{Outcome: OutcomeError, Code: "NOT_FOUND", Contains: []string{"nope"}},
			},
		},
		Assertions: []Assertion{{Type: AssertQueryCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `expected outcome "error", got "success"`)
	assert.Contains(t, result.Errors[1], `expected code "NOT_FOUND", got ""`)
	assert.Contains(t, result.Errors[2], `output does not contain "nope"`)
}

func TestRun_UnknownToolIsStepError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown",
		Description: "Unknown tool",
		Flow: []FlowStep{
			{Invoke: "drop_graph", Args: map[string]any{}, Expect: &ExpectClause{Outcome: OutcomeError, Code: "PRECONDITION_VIOLATION"}},
		},
		Assertions: []Assertion{{Type: AssertQueryCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, `unknown tool "drop_graph"`, result.Steps[0].Output)
}

func TestGraphsOf(t *testing.T) {
	assert.Equal(t, []string{"https://a", "https://b"}, graphsOf("SELECT ?s\nFROM <https://a>\nFROM <https://b>\nWHERE { }"))
	assert.Equal(t, []string{}, graphsOf("SELECT ?s WHERE { ?s ?p ?o }"))
}
