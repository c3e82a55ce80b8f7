package harness

import (
	"fmt"
	"strings"
)

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion[%d] %s: %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertQueryCount:
		if got := len(result.Queries); got != a.Count {
			return fmt.Errorf("expected %d queries, got %d", a.Count, got)
		}
	case AssertJournalCount:
		if result.JournalCount != a.Count {
			return fmt.Errorf("expected %d journal entries, got %d", a.Count, result.JournalCount)
		}
	case AssertQueryContains:
		return assertContains(result.Queries, a.Index, a.Text, true)
	case AssertQueryNotContains:
		return assertContains(result.Queries, a.Index, a.Text, false)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertContains checks query number index, or every query when index is
// nil. With want true a nil index needs one match; with want false it
// needs none.
func assertContains(queries []string, index *int, text string, want bool) error {
	if index != nil {
		if *index >= len(queries) {
			return fmt.Errorf("query %d not sent (%d queries)", *index, len(queries))
		}
		if strings.Contains(queries[*index], text) != want {
			return containsError(*index, text, want)
		}
		return nil
	}

	for i, q := range queries {
		if strings.Contains(q, text) {
			if want {
				return nil
			}
			return containsError(i, text, want)
		}
	}
	if want {
		return fmt.Errorf("no query contains %q", text)
	}
	return nil
}

func containsError(index int, text string, want bool) error {
	if want {
		return fmt.Errorf("query %d does not contain %q", index, text)
	}
	return fmt.Errorf("query %d unexpectedly contains %q", index, text)
}
