package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vgoehler/mem-mcp/internal/apperr"
)

// Scenario defines one harness run.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// States lists the state graphs to configure, in order.
	States []StateGraph `yaml:"states,omitempty"`

	// Responses are the canned endpoint answers.
	Responses []Response `yaml:"responses,omitempty"`

	// Flow lists the operations to invoke.
	Flow []FlowStep `yaml:"flow"`

	// Assertions check the queries and journal after the flow.
	Assertions []Assertion `yaml:"assertions"`
}

// StateGraph configures one GRAPH_STATE_<CODE> entry.
type StateGraph struct {
	Code string `yaml:"code"`
	URI  string `yaml:"uri"`
}

// Response answers queries containing Contains. Exactly one of Rows,
// Repeat or Error applies; Rows may be empty for an empty table.
type Response struct {
	Contains string         `yaml:"contains"`
	Vars     []string       `yaml:"vars,omitempty"`
	Rows     [][]string     `yaml:"rows,omitempty"`
	Repeat   *Repeat        `yaml:"repeat,omitempty"`
	Error    *ResponseError `yaml:"error,omitempty"`
}

// Repeat generates Count rows: "<Base>/<i>" for the first variable and
// "<var> <i>" for the rest.
type Repeat struct {
	Count int    `yaml:"count"`
	Base  string `yaml:"base"`
}

// ResponseError makes the endpoint fail.
type ResponseError struct {
	// Code is ENDPOINT_ERROR or TRANSPORT_ERROR.
	Code string `yaml:"code"`

	// Status is the HTTP status for ENDPOINT_ERROR.
	Status int `yaml:"status,omitempty"`

	// Body is the response body for ENDPOINT_ERROR, or the transport
	// failure text for TRANSPORT_ERROR.
	Body string `yaml:"body,omitempty"`
}

// FlowStep invokes one operation.
type FlowStep struct {
	// Invoke is the operation name (e.g. "search").
	Invoke string `yaml:"invoke"`

	// Args are passed as received from a protocol host.
	Args map[string]any `yaml:"args"`

	// Expect validates the outcome. If nil, any outcome is accepted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "success" or "error".
	Outcome string `yaml:"outcome"`

	// Code is the expected error code when Outcome is "error".
	Code string `yaml:"code,omitempty"`

	// Contains lists substrings the output must contain.
	Contains []string `yaml:"contains,omitempty"`

	// NotContains lists substrings the output must not contain.
	NotContains []string `yaml:"not_contains,omitempty"`
}

// Assertion validates the queries or journal after the flow.
type Assertion struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count,omitempty"`
	Index *int   `yaml:"index,omitempty"`
	Text  string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertQueryCount       = "query_count"
	AssertQueryContains    = "query_contains"
	AssertQueryNotContains = "query_not_contains"
	AssertJournalCount     = "journal_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every .yaml and .yml file in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, st := range s.States {
		if st.Code == "" || st.URI == "" {
			return fmt.Errorf("states[%d]: code and uri are required", i)
		}
	}

	for i, r := range s.Responses {
		if err := validateResponse(i, &r); err != nil {
			return err
		}
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		if e := step.Expect; e != nil {
			if e.Outcome != OutcomeSuccess && e.Outcome != OutcomeError {
				return fmt.Errorf("flow[%d].expect: outcome must be %q or %q", i, OutcomeSuccess, OutcomeError)
			}
			if e.Code != "" && e.Outcome != OutcomeError {
				return fmt.Errorf("flow[%d].expect: code requires outcome %q", i, OutcomeError)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateResponse(index int, r *Response) error {
	if r.Contains == "" {
		return fmt.Errorf("responses[%d]: contains is required", index)
	}
	if r.Error != nil {
		if r.Rows != nil || r.Repeat != nil {
			return fmt.Errorf("responses[%d]: error excludes rows and repeat", index)
		}
		switch apperr.Code(r.Error.Code) {
		case apperr.CodeEndpoint, apperr.CodeTransport:
		default:
			return fmt.Errorf("responses[%d]: error code must be %s or %s", index, apperr.CodeEndpoint, apperr.CodeTransport)
		}
		return nil
	}
	if len(r.Vars) == 0 {
		return fmt.Errorf("responses[%d]: vars is required", index)
	}
	if r.Repeat != nil {
		if r.Rows != nil {
			return fmt.Errorf("responses[%d]: repeat excludes rows", index)
		}
		if r.Repeat.Count < 0 {
			return fmt.Errorf("responses[%d]: repeat count must be non-negative", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQueryCount, AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertQueryContains, AssertQueryNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
		if a.Index != nil && *a.Index < 0 {
			return fmt.Errorf("assertions[%d]: index must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
