package harness

// Step outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// QueryTrace is one journaled exchange of a step.
type QueryTrace struct {
	ID        string   `json:"id"`
	Graphs    []string `json:"graphs"`
	Rows      int      `json:"rows"`
	ErrorCode string   `json:"error_code,omitempty"`
}

// StepTrace records what one flow step sent and returned.
type StepTrace struct {
	Seq     int            `json:"seq"`
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args,omitempty"`
	Queries []QueryTrace   `json:"queries"`
	Outcome string         `json:"outcome"`
	Code    string         `json:"code,omitempty"`
	Output  string         `json:"output"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one trace per flow step, in order.
	Steps []StepTrace `json:"steps"`

	// Queries holds every query text sent, in order.
	Queries []string `json:"-"`

	// JournalCount is the number of journal entries after the flow.
	JournalCount int `json:"-"`

	// Errors lists expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
