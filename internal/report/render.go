package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FailureBody renders the record description for a newly created failure
// record: identity fields, the executed step log, and the rendered failure
// trace in a fenced block.
func FailureBody(id TestIdentity, testName string, outcome ExecutionOutcome, now time.Time) string {
	var b strings.Builder
	b.WriteString("### Failure details\n\n")
	fmt.Fprintf(&b, "**Case ID:** %s\n", id.CaseID)
	fmt.Fprintf(&b, "**Test:** `%s`\n", testName)
	fmt.Fprintf(&b, "**Environment:** %s\n", strings.ToUpper(id.Environment))
	fmt.Fprintf(&b, "**Browser/Device:** `%s`\n", id.Target)
	writeSteps(&b, outcome.Steps, false)
	fmt.Fprintf(&b, "### Failure summary\n```\n%s\n```\n", outcome.FailureDetail)
	fmt.Fprintf(&b, "\n---\nReport generated: %s", now.Format(timestampLayout))
	return b.String()
}

// RefailComment renders the comment appended when an open record fails again.
// History stays on the record; the comment carries this run's steps and trace.
func RefailComment(id TestIdentity, outcome ExecutionOutcome, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RE-FAILURE detected (%s) on environment %s / %s.\n\n",
		now.Format(timestampLayout), strings.ToUpper(id.Environment), id.Target)
	writeSteps(&b, outcome.Steps, false)
	fmt.Fprintf(&b, "### Failure summary\n```\n%s\n```\n", outcome.FailureDetail)
	b.WriteString("\n--- See original description for test details ---")
	return b.String()
}

// SuccessComment renders the comment appended before closing a record whose
// test now passes. videoPath, when non-empty, is referenced by file name so
// reviewers can find the attached run recording.
func SuccessComment(id TestIdentity, outcome ExecutionOutcome, videoPath string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Test REPAIRED/PASSING (%s).\n\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "**Case ID:** %s\n", id.CaseID)
	if videoPath != "" {
		fmt.Fprintf(&b, "**Video evidence attached:** `%s`\n", filepath.Base(videoPath))
	}
	writeSteps(&b, outcome.Steps, true)
	b.WriteString("\nMoved to done.")
	return b.String()
}

func writeSteps(b *strings.Builder, steps []string, passed bool) {
	b.WriteString("### Executed test steps\n\n")
	if len(steps) == 0 {
		b.WriteString("No test steps were recorded.\n")
		return
	}
	marker := "->"
	if passed {
		marker = "[ok]"
	}
	for _, s := range steps {
		fmt.Fprintf(b, "%s %s\n", marker, s)
	}
	if !passed {
		b.WriteString("\n**[ASSERTION FAILED AT THIS POINT]** See error trace and attached evidence.\n")
	}
}
