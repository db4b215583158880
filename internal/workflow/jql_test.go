package workflow

import (
	"strings"
	"testing"

	"bugrelay/internal/report"
)

func TestEscapeTerm(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(LG-T002)", `\\(LG-T002\\)`},
		{"[chromium-1920x1080]", `\\[chromium-1920x1080\\]`},
		{"plain", "plain"},
		{"a(b)[c]", `a\\(b\\)\\[c\\]`},
	}
	for _, tt := range tests {
		if got := escapeTerm(tt.in); got != tt.want {
			t.Errorf("escapeTerm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenRecordQuery(t *testing.T) {
	id := report.TestIdentity{CaseID: "LG-T002", Environment: "qa", Target: "chromium-1920x1080"}
	jql := openRecordQuery("AT", "Bug", id)

	for _, want := range []string{
		`project = AT`,
		`summary ~ "QA"`,
		`summary ~ "\\(LG-T002\\)"`,
		`summary ~ "\\[chromium-1920x1080\\]"`,
		`issuetype = "Bug"`,
		`statusCategory != "Done"`,
	} {
		if !strings.Contains(jql, want) {
			t.Errorf("query missing %q\njql: %s", want, jql)
		}
	}
}
