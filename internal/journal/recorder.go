package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vgoehler/mem-mcp/internal/apperr"
	"github.com/vgoehler/mem-mcp/internal/sparql"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator provides entry IDs.
type IDGenerator interface {
	Generate() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// UUIDv7Generator yields time-ordered UUIDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Recorder is a sparql.Querier that journals every exchange of the
// querier it wraps. A failed journal write is logged and never fails the
// query.
type Recorder struct {
	next    sparql.Querier
	journal *Journal
	clock   Clock
	ids     IDGenerator
	logger  *slog.Logger
}

var _ sparql.Querier = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock replaces the wall clock.
func WithClock(c Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// WithIDGenerator replaces UUIDv7 entry IDs.
func WithIDGenerator(g IDGenerator) RecorderOption {
	return func(r *Recorder) { r.ids = g }
}

// WithLogger sets the logger for journal write failures.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder wraps next.
func NewRecorder(next sparql.Querier, j *Journal, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		next:    next,
		journal: j,
		clock:   systemClock{},
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Query forwards to the wrapped querier and journals the outcome.
func (r *Recorder) Query(ctx context.Context, query string) (*sparql.Results, error) {
	start := r.clock.Now()
	res, err := r.next.Query(ctx, query)
	end := r.clock.Now()

	e := Entry{
		ID:        r.ids.Generate(),
		QueryHash: QueryHash(query),
		Query:     query,
		StartedAt: start,
		Duration:  end.Sub(start),
		Rows:      res.Len(),
	}
	if err != nil {
		e.ErrorCode = string(apperr.CodeOf(err))
		e.Error = err.Error()
	}

	// The caller's context may already be done; the entry is still written.
	if werr := r.journal.Write(context.WithoutCancel(ctx), e); werr != nil {
		r.logger.Warn("journal: write failed", "id", e.ID, "error", werr)
	}
	return res, err
}
