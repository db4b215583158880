// Package ingest parses runner-produced result files into outcome events
// the orchestrator can dispatch. The runner writes one JSON array with one
// entry per completed test.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"bugrelay/internal/report"
)

// Result is one completed test as emitted by the runner at teardown.
type Result struct {
	// Test is the full display name including the parametrization token,
	// e.g. "test_login_empty_password[chromium-1920x1080]". Evidence files
	// are matched against this name.
	Test string `json:"test"`
	// CaseID is the documentation-embedded case id, e.g. "LG-T002".
	CaseID string `json:"case_id"`
	// Environment is the environment the run targeted, e.g. "qa".
	Environment string `json:"environment"`
	// Target is the parametrization token, e.g. "chromium-1920x1080".
	Target string `json:"target"`

	Passed        bool     `json:"passed"`
	FailureDetail string   `json:"failure_detail,omitempty"`
	Steps         []string `json:"steps,omitempty"`
}

// Identity returns the dedup key for this result.
func (r Result) Identity() report.TestIdentity {
	return report.TestIdentity{
		CaseID:      r.CaseID,
		Environment: r.Environment,
		Target:      r.Target,
	}
}

// Outcome returns the execution outcome for this result.
func (r Result) Outcome() report.ExecutionOutcome {
	return report.ExecutionOutcome{
		Passed:        r.Passed,
		FailureDetail: r.FailureDetail,
		Steps:         r.Steps,
	}
}

// Validate checks the fields the identity tuple is built from. A result
// without a case id cannot be deduplicated and must be skipped.
func (r Result) Validate() error {
	if r.Test == "" {
		return fmt.Errorf("result missing test name")
	}
	if r.CaseID == "" {
		return fmt.Errorf("result %q missing case_id", r.Test)
	}
	if r.Environment == "" {
		return fmt.Errorf("result %q missing environment", r.Test)
	}
	if r.Target == "" {
		return fmt.Errorf("result %q missing target", r.Test)
	}
	return nil
}

// LoadFile reads a results JSON file.
func LoadFile(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return Parse(data)
}

// Parse decodes a results JSON array.
func Parse(data []byte) ([]Result, error) {
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse results json: %w", err)
	}
	return results, nil
}
