package harness

import (
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
)

// StepResult is the outcome of compiling one scenario request.
type StepResult struct {
	Predicate    predicate.Kind   `json:"predicate"`
	Mode         projection.Mode  `json:"mode"`
	Query        string           `json:"query,omitempty"`
	BindVars     map[string]any   `json:"bind_vars,omitempty"`
	Shape        projection.Shape `json:"shape,omitempty"`
	RequiresJoin bool             `json:"requires_join"`
	Aggregates   int              `json:"aggregates"`
	Fingerprint  string           `json:"fingerprint,omitempty"`
	JournalID    string           `json:"journal_id,omitempty"`

	// ErrorField and Error are set when the request was rejected.
	ErrorField string `json:"error_field,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Failed reports whether the step was rejected.
func (s StepResult) Failed() bool {
	return s.Error != ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Steps holds one entry per request, in scenario order.
	Steps []StepResult `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// JournalEntries is the number of distinct compilations recorded.
	JournalEntries int `json:"journal_entries"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
