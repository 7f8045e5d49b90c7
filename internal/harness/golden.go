package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/climaql/internal/ir"
)

// Snapshot renders every step of a result as plain text: a header with the
// compile metadata, the AQL text and the canonical JSON bind variables.
// Rejected steps render the rejected field and message instead.
func Snapshot(name string, result *Result) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)

	for i, sr := range result.Steps {
		fmt.Fprintf(&b, "\n## step %d\n", i)
		fmt.Fprintf(&b, "predicate: %s\n", sr.Predicate)
		fmt.Fprintf(&b, "mode: %s\n", sr.Mode)

		if sr.Failed() {
			fmt.Fprintf(&b, "rejected: %s\n", sr.ErrorField)
			fmt.Fprintf(&b, "error: %s\n", sr.Error)
			continue
		}

		fmt.Fprintf(&b, "shape: %s\n", sr.Shape)
		fmt.Fprintf(&b, "requires_join: %t\n", sr.RequiresJoin)
		fmt.Fprintf(&b, "aggregates: %d\n", sr.Aggregates)

		bindJSON, err := ir.MarshalCanonical(sr.BindVars)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		fmt.Fprintf(&b, "\n%s\n\n%s\n", sr.Query, bindJSON)
	}

	return []byte(b.String()), nil
}

// RunWithGolden executes a scenario, fails t on any unmet expectation, and
// compares the snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)

	return nil
}
