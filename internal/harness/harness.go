package harness

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/query"
	"github.com/roach88/climaql/internal/registry"
	"github.com/roach88/climaql/internal/store"
	"github.com/roach88/climaql/internal/testutil"
)

// Harness compiles scenario steps and journals every successful
// compilation.
type Harness struct {
	compiler *query.Compiler
	store    *store.Store
	logger   zerolog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes harness diagnostics to log.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Harness) { h.logger = log }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal with sequential
// entry IDs. Rejected requests
// are results, not errors: err is non-nil only when the scenario itself
// cannot run (bad registry, journal failure).
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	reg, err := loadRegistry(scenario.Registry)
	if err != nil {
		return nil, err
	}

	compiler, err := query.NewCompiler(reg, predicate.DefaultLayout())
	if err != nil {
		return nil, err
	}

	ids := testutil.NewSequentialIDs("compilation")
	st, err := store.Open(":memory:", store.WithIDGenerator(ids.Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		compiler: compiler,
		store:    st,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		sr, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, sr)

		for _, msg := range checkExpect(sr, step.Expect) {
			result.AddError(fmt.Sprintf("step %d: %s", i, msg))
		}
	}

	entries, err := st.List(ctx, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	result.JournalEntries = len(entries)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug().
		Str("scenario", scenario.Name).
		Int("steps", len(result.Steps)).
		Bool("pass", result.Pass).
		Msg("scenario finished")

	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step) (StepResult, error) {
	sr := StepResult{
		Predicate: predicate.Kind(step.Request.Predicate),
	}

	req, err := step.Request.Request()
	if err == nil {
		sr.Predicate = req.Predicate
		sr.Mode = req.Mode
		var q *query.CompiledQuery
		q, err = h.compiler.Compile(req)
		if err == nil {
			return h.record(ctx, sr, q)
		}
	}

	if !query.IsValidationError(err) {
		return StepResult{}, err
	}
	sr.ErrorField = query.ErrorField(err)
	sr.Error = err.Error()
	h.logger.Debug().Str("field", sr.ErrorField).Err(err).Msg("request rejected")
	return sr, nil
}

func (h *Harness) record(ctx context.Context, sr StepResult, q *query.CompiledQuery) (StepResult, error) {
	entry, err := h.store.Record(ctx, q)
	if err != nil {
		return StepResult{}, err
	}

	sr.Query = q.Query
	sr.BindVars = q.BindVars
	sr.Shape = q.Shape
	sr.RequiresJoin = q.RequiresJoin
	sr.Aggregates = q.Aggregates
	sr.Fingerprint = entry.Fingerprint
	sr.JournalID = entry.ID

	h.logger.Debug().
		Str("fingerprint", entry.Fingerprint).
		Str("bind_digest", entry.BindDigest).
		Int64("hits", entry.Hits).
		Msg("compiled")
	return sr, nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default()
	}
	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return reg, nil
}
