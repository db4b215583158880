package report

import (
	"fmt"
	"strings"
	"time"
)

// BackendKind identifies which tracker a record lives in.
type BackendKind string

const (
	BackendKanban   BackendKind = "kanban"
	BackendWorkflow BackendKind = "workflow"
)

// TestIdentity is the dedup key for a defect record: one open record may
// exist per (case id, environment, execution target) per backend. It is
// derived once per test from metadata and the parametrization token and is
// never mutated afterwards.
type TestIdentity struct {
	CaseID      string
	Environment string
	Target      string
}

// SearchTokens returns the three literal substrings that together identify a
// record title: the uppercased environment, the parenthesized case id, and
// the bracketed execution target. Every title built by Title contains all
// three, and every backend search requires all three to match.
func (id TestIdentity) SearchTokens() (env, caseID, target string) {
	return strings.ToUpper(id.Environment), "(" + id.CaseID + ")", "[" + id.Target + "]"
}

// Title renders the record title/summary for a new failure record.
func (id TestIdentity) Title(testName string, now time.Time) string {
	env, caseID, target := id.SearchTokens()
	return fmt.Sprintf("FAILED: %s - %s %s - %s - (%s)",
		env, caseID, target, testName, now.Format(timestampLayout))
}

func (id TestIdentity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.CaseID, id.Environment, id.Target)
}

// ExecutionOutcome is what one completed test hands to the orchestrator at
// teardown: verdict, rendered failure trace (empty on pass), and the ordered
// step log. Lifetime is a single dispatch.
type ExecutionOutcome struct {
	Passed        bool
	FailureDetail string
	Steps         []string
}

// TrackedRecord is the backend's current knowledge of a defect. It is always
// fetched fresh at the start of a dispatch and never cached, so lifecycle
// decisions are taken against live state.
type TrackedRecord struct {
	ExternalID   string
	LaneOrStatus string
	Backend      BackendKind
}

// EvidenceSet holds the artifact paths resolved for one test by name
// matching. An empty field means that artifact category was not found,
// which is not an error.
type EvidenceSet struct {
	Screenshot string
	Video      string
	Trace      string
}

// Paths returns the present artifact paths in attachment order.
func (e EvidenceSet) Paths() []string {
	var paths []string
	for _, p := range []string{e.Screenshot, e.Video, e.Trace} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

const timestampLayout = "2006-01-02 15:04:05"
