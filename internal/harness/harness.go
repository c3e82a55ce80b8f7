package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/bundesland"
	"github.com/vgoehler/mem-mcp/internal/graphs"
	"github.com/vgoehler/mem-mcp/internal/journal"
	"github.com/vgoehler/mem-mcp/internal/sparql"
	"github.com/vgoehler/mem-mcp/internal/testutil"
	"github.com/vgoehler/mem-mcp/internal/tools"
)

// Infrastructure graphs every scenario runs with.
var Infrastructure = graphs.Required{
	Ontology:  "https://graph.example.com/ontology",
	Schulart:  "https://graph.example.com/schulart",
	Schulfach: "https://graph.example.com/schulfach",
}

// Epoch is the start of the step clock.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var fromClause = regexp.MustCompile(`FROM <([^>]*)>`)

// Harness holds the collaborators of one run.
type Harness struct {
	querier *testutil.RecordingQuerier
	journal *journal.Journal
	service *tools.Service
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal. Execution flow:
// 1. Build the graph partition and canned responses
// 2. Invoke each flow step, validating its expect clause
// 3. Evaluate assertions over the sent queries and the journal
func Run(scenario *Scenario) (*Result, error) {
	states := make([]graphs.StateGraph, len(scenario.States))
	for i, s := range scenario.States {
		states[i] = graphs.StateGraph{Code: s.Code, URI: s.URI}
	}
	partition, err := graphs.New(Infrastructure, states)
	if err != nil {
		return nil, fmt.Errorf("failed to build partition: %w", err)
	}

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := testutil.NewRecordingQuerier()
	for _, r := range scenario.Responses {
		if r.Error != nil {
			q.OnError(r.Contains, responseError(r.Error))
			continue
		}
		q.On(r.Contains, responseTable(r))
	}
	recorder := journal.NewRecorder(q, j,
		journal.WithClock(testutil.NewStepClock(Epoch, 25*time.Millisecond)),
		journal.WithIDGenerator(testutil.NewSequenceIDGenerator("req")),
		journal.WithLogger(discard),
	)

	h := &Harness{
		querier: q,
		journal: j,
		service: tools.NewService(recorder, partition, bundesland.New(), discard),
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Flow {
		trace, err := h.executeStep(ctx, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		result.Steps = append(result.Steps, trace)
		for _, msg := range checkExpect(i, step, trace) {
			result.AddError(msg)
		}
	}

	result.Queries = q.Calls()
	result.JournalCount, err = j.Count(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to count journal: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, seq int, step FlowStep) (StepTrace, error) {
	before := h.querier.CallCount()
	out, callErr := h.service.Call(ctx, step.Invoke, step.Args)
	sent := h.querier.CallCount() - before

	trace := StepTrace{
		Seq:     seq,
		Tool:    step.Invoke,
		Args:    step.Args,
		Queries: []QueryTrace{},
		Outcome: OutcomeSuccess,
		Output:  out,
	}
	if callErr != nil {
		trace.Outcome = OutcomeError
		trace.Code = string(apperr.CodeOf(callErr))
		trace.Output = callErr.Error()
	}

	if sent > 0 {
		entries, err := h.journal.Recent(ctx, sent)
		if err != nil {
			return StepTrace{}, err
		}
		slices.Reverse(entries)
		for _, e := range entries {
			trace.Queries = append(trace.Queries, QueryTrace{
				ID:        e.ID,
				Graphs:    graphsOf(e.Query),
				Rows:      e.Rows,
				ErrorCode: e.ErrorCode,
			})
		}
	}
	return trace, nil
}

// graphsOf extracts the FROM graphs of a query in order.
func graphsOf(query string) []string {
	out := []string{}
	for _, m := range fromClause.FindAllStringSubmatch(query, -1) {
		out = append(out, m[1])
	}
	return out
}

func responseTable(r Response) *sparql.Results {
	if r.Repeat != nil {
		return testutil.RepeatedTable(r.Repeat.Count, r.Repeat.Base, r.Vars...)
	}
	return testutil.Table(r.Vars, r.Rows...)
}

func responseError(e *ResponseError) error {
	if apperr.Code(e.Code) == apperr.CodeTransport {
		return apperr.Transport(errors.New(e.Body))
	}
	return apperr.Endpoint(e.Status, e.Body)
}

func checkExpect(index int, step FlowStep, trace StepTrace) []string {
	e := step.Expect
	if e == nil {
		return nil
	}
	var errs []string
	prefix := fmt.Sprintf("flow[%d] %s", index, step.Invoke)
	if trace.Outcome != e.Outcome {
		errs = append(errs, fmt.Sprintf("%s: expected outcome %q, got %q (%s)", prefix, e.Outcome, trace.Outcome, trace.Output))
	}
	if e.Code != "" && trace.Code != e.Code {
		errs = append(errs, fmt.Sprintf("%s: expected code %q, got %q", prefix, e.Code, trace.Code))
	}
	for _, s := range e.Contains {
		if !strings.Contains(trace.Output, s) {
			errs = append(errs, fmt.Sprintf("%s: output does not contain %q", prefix, s))
		}
	}
	for _, s := range e.NotContains {
		if strings.Contains(trace.Output, s) {
			errs = append(errs, fmt.Sprintf("%s: output unexpectedly contains %q", prefix, s))
		}
	}
	return errs
}
