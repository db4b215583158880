package workflow

import (
	"fmt"
	"strings"

	"bugrelay/internal/report"
)

// Parentheses and brackets are Lucene syntax inside the ~ text operator.
// The query engine strips one backslash layer before Lucene sees the term,
// so a literal match needs the doubled escape in the final query string.
var luceneEscaper = strings.NewReplacer(
	`(`, `\\(`,
	`)`, `\\)`,
	`[`, `\\[`,
	`]`, `\\]`,
)

// escapeTerm escapes a text-search term so it matches as a literal
// substring rather than as query syntax.
func escapeTerm(s string) string {
	return luceneEscaper.Replace(s)
}

// openRecordQuery builds the search query for an open record: the three
// identity tokens must each appear as independent literal substrings of the
// summary, scoped to the project and issue type, excluding the terminal
// status category.
func openRecordQuery(project, issueType string, id report.TestIdentity) string {
	env, caseID, target := id.SearchTokens()
	return fmt.Sprintf(
		`project = %s AND summary ~ "%s" AND summary ~ "%s" AND summary ~ "%s" AND issuetype = "%s" AND statusCategory != "Done"`,
		project, env, escapeTerm(caseID), escapeTerm(target), issueType)
}
