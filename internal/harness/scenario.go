package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/climaql/internal/query"
)

// Scenario is a sequence of compile requests with expectations on each
// compiled query and assertions over the whole run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Registry is a .cue or .yaml variable catalog. Relative paths resolve
	// against the scenario file. Empty means the embedded default catalog.
	Registry string `yaml:"registry,omitempty"`

	// Steps are compiled in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the run as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one compile request.
type Step struct {
	Request query.RequestDocument `yaml:"request"`

	// Expect validates the compiled query. If nil, the step only has to
	// compile.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies what one compilation must produce.
type ExpectClause struct {
	// Shape is the expected result shape (keys, records, aggregate).
	Shape string `yaml:"shape,omitempty"`

	RequiresJoin *bool `yaml:"requires_join,omitempty"`
	Aggregates   *int  `yaml:"aggregates,omitempty"`

	// ErrorField expects the request to be rejected on this field.
	ErrorField string `yaml:"error_field,omitempty"`

	// Contains and Lacks are substrings the query text must (not) include.
	Contains []string `yaml:"contains,omitempty"`
	Lacks    []string `yaml:"lacks,omitempty"`

	// BindVars is a subset match against the bind variables.
	BindVars map[string]any `yaml:"bind_vars,omitempty"`
}

// Assertion validates the scenario as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "same_fingerprint": all listed steps compiled to the same query
	// - "distinct_fingerprints": all listed steps compiled to different queries
	// - "journal_entries": the journal holds exactly Count compilations
	// - "journal_hits": step Step was recorded Count times
	Type string `yaml:"type"`

	Steps []int `yaml:"steps,omitempty"`
	Step  int   `yaml:"step,omitempty"`
	Count int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSameFingerprint      = "same_fingerprint"
	AssertDistinctFingerprints = "distinct_fingerprints"
	AssertJournalEntries       = "journal_entries"
	AssertJournalHits          = "journal_hits"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and the registry path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Registry != "" && !filepath.IsAbs(scenario.Registry) {
		scenario.Registry = filepath.Join(filepath.Dir(path), scenario.Registry)
	}
	if scenario.Registry != "" {
		if _, err := os.Stat(scenario.Registry); err != nil {
			return nil, fmt.Errorf("invalid scenario: registry not found: %s", scenario.Registry)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
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

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, len(s.Steps)); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, steps int) error {
	inRange := func(step int) error {
		if step < 0 || step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, step)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSameFingerprint, AssertDistinctFingerprints:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: %s needs at least two steps", index, a.Type)
		}
		for _, st := range a.Steps {
			if err := inRange(st); err != nil {
				return err
			}
		}
	case AssertJournalEntries:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertJournalHits:
		if err := inRange(a.Step); err != nil {
			return err
		}
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for journal_hits", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
