package harness

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/climaql/internal/ir"
	"github.com/roach88/climaql/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// checkExpect returns one message per unmet expectation.
func checkExpect(sr StepResult, expect *ExpectClause) []string {
	if expect == nil {
		if sr.Failed() {
			return []string{fmt.Sprintf("unexpected rejection: %s", sr.Error)}
		}
		return nil
	}

	if expect.ErrorField != "" {
		if !sr.Failed() {
			return []string{fmt.Sprintf("expected rejection on %s, query compiled", expect.ErrorField)}
		}
		if sr.ErrorField != expect.ErrorField {
			return []string{fmt.Sprintf("expected rejection on %s, got %s (%s)", expect.ErrorField, sr.ErrorField, sr.Error)}
		}
		return nil
	}
	if sr.Failed() {
		return []string{fmt.Sprintf("unexpected rejection: %s", sr.Error)}
	}

	var msgs []string
	if expect.Shape != "" && string(sr.Shape) != expect.Shape {
		msgs = append(msgs, fmt.Sprintf("shape: expected %s, got %s", expect.Shape, sr.Shape))
	}
	if expect.RequiresJoin != nil && sr.RequiresJoin != *expect.RequiresJoin {
		msgs = append(msgs, fmt.Sprintf("requires_join: expected %t, got %t", *expect.RequiresJoin, sr.RequiresJoin))
	}
	if expect.Aggregates != nil && sr.Aggregates != *expect.Aggregates {
		msgs = append(msgs, fmt.Sprintf("aggregates: expected %d, got %d", *expect.Aggregates, sr.Aggregates))
	}
	for _, s := range expect.Contains {
		if !strings.Contains(sr.Query, s) {
			msgs = append(msgs, fmt.Sprintf("query does not contain %q", s))
		}
	}
	for _, s := range expect.Lacks {
		if strings.Contains(sr.Query, s) {
			msgs = append(msgs, fmt.Sprintf("query contains %q", s))
		}
	}
	msgs = append(msgs, matchBindVars(sr.BindVars, expect.BindVars)...)
	return msgs
}

// matchBindVars is a subset match: every expected key must be present with
// an equal value. Values compare by canonical JSON, so 10 matches 10.0.
func matchBindVars(actual, expected map[string]any) []string {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("bind var %s missing", k))
			continue
		}
		if !valuesEqual(got, expected[k]) {
			msgs = append(msgs, fmt.Sprintf("bind var %s: expected %v, got %v", k, expected[k], got))
		}
	}
	return msgs
}

func valuesEqual(actual, expected any) bool {
	a, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := ir.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

func assertFingerprints(result *Result, a Assertion, same bool) error {
	seen := map[string]int{}
	for _, step := range a.Steps {
		if step < 0 || step >= len(result.Steps) {
			return fmt.Errorf("step %d out of range", step)
		}
		sr := result.Steps[step]
		if sr.Failed() {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("step %d compiled", step), Actual: sr.Error}
		}
		if prev, dup := seen[sr.Fingerprint]; dup && !same {
			return &AssertionError{
				Type:     a.Type,
				Expected: "distinct fingerprints",
				Actual:   fmt.Sprintf("steps %d and %d share %s", prev, step, sr.Fingerprint),
			}
		}
		seen[sr.Fingerprint] = step
	}
	if same && len(seen) != 1 {
		return &AssertionError{
			Type:     a.Type,
			Expected: "one fingerprint",
			Actual:   fmt.Sprintf("%d fingerprints", len(seen)),
		}
	}
	return nil
}

func assertJournalHits(ctx context.Context, st *store.Store, result *Result, a Assertion) error {
	if a.Step < 0 || a.Step >= len(result.Steps) {
		return fmt.Errorf("step %d out of range", a.Step)
	}
	sr := result.Steps[a.Step]
	if sr.Failed() {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("step %d journaled", a.Step), Actual: sr.Error}
	}
	entry, ok, err := st.Lookup(ctx, sr.Fingerprint)
	if err != nil {
		return err
	}
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%d hits", a.Count), Actual: "not journaled"}
	}
	if entry.Hits != int64(a.Count) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d hits", a.Count),
			Actual:   fmt.Sprintf("%d hits", entry.Hits),
		}
	}
	return nil
}

// AssertionContext provides journal access for journal assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertSameFingerprint:
			err = assertFingerprints(result, a, true)
		case AssertDistinctFingerprints:
			err = assertFingerprints(result, a, false)
		case AssertJournalEntries:
			if result.JournalEntries != a.Count {
				err = &AssertionError{
					Type:     a.Type,
					Expected: fmt.Sprintf("%d entries", a.Count),
					Actual:   fmt.Sprintf("%d entries", result.JournalEntries),
				}
			}
		case AssertJournalHits:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("journal_hits requires a journal")
			} else {
				err = assertJournalHits(actx.Ctx, actx.Store, result, a)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}

	return errs
}
