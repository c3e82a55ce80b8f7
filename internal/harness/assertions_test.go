package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{
		Queries:      []string{"FROM <https://graph.example.com/sn>", "FROM <https://graph.example.com/be>"},
		JournalCount: 2,
	}

	cases := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"count ok", Assertion{Type: AssertQueryCount, Count: 2}, true},
		{"count wrong", Assertion{Type: AssertQueryCount, Count: 3}, false},
		{"journal ok", Assertion{Type: AssertJournalCount, Count: 2}, true},
		{"journal wrong", Assertion{Type: AssertJournalCount, Count: 0}, false},
		{"contains at index", Assertion{Type: AssertQueryContains, Index: intPtr(1), Text: "/be>"}, true},
		{"contains wrong index", Assertion{Type: AssertQueryContains, Index: intPtr(0), Text: "/be>"}, false},
		{"contains index out of range", Assertion{Type: AssertQueryContains, Index: intPtr(5), Text: "FROM"}, false},
		{"contains any", Assertion{Type: AssertQueryContains, Text: "/sn>"}, true},
		{"contains none", Assertion{Type: AssertQueryContains, Text: "/by>"}, false},
		{"not contains at index", Assertion{Type: AssertQueryNotContains, Index: intPtr(0), Text: "/be>"}, true},
		{"not contains violated", Assertion{Type: AssertQueryNotContains, Index: intPtr(1), Text: "/be>"}, false},
		{"not contains any", Assertion{Type: AssertQueryNotContains, Text: "/by>"}, true},
		{"not contains any violated", Assertion{Type: AssertQueryNotContains, Text: "FROM"}, false},
		{"unknown", Assertion{Type: "final_state"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tc.assertion})
			if tc.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_MessageNamesAssertion(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{
		{Type: AssertQueryCount, Count: 0},
		{Type: AssertQueryCount, Count: 1},
	})

	assert.Equal(t, []string{"assertion[1] query_count: expected 1 queries, got 0"}, errs)
}
