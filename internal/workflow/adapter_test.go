package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"bugrelay/internal/report"
)

var adapterID = report.TestIdentity{CaseID: "LG-T002", Environment: "qa", Target: "chromium-1920x1080"}

// trackerServer fakes the issue endpoints closely enough to exercise the
// adapter: created issues are stored, and search evaluates the summary ~
// terms of the query literally, the way the real engine does after peeling
// the escape layer.
type trackerServer struct {
	mu     chan struct{}
	issues []Issue
	nextID int
}

var termRe = regexp.MustCompile(`summary ~ "([^"]*)"`)

// unescapeTerm reverses the client-side escaping: the engine strips one
// backslash layer, then Lucene strips the second before matching.
func unescapeTerm(s string) string {
	r := strings.NewReplacer(`\\(`, `(`, `\\)`, `)`, `\\[`, `[`, `\\]`, `]`)
	return r.Replace(s)
}

func (ts *trackerServer) lock() func() {
	ts.mu <- struct{}{}
	return func() { <-ts.mu }
}

func (ts *trackerServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/rest/api/3/search/jql":
			ts.handleSearch(w, r)
		case r.URL.Path == "/rest/api/3/issue" && r.Method == "POST":
			ts.handleCreate(w, r)
		case strings.HasSuffix(r.URL.Path, "/transitions") && r.Method == "GET":
			json.NewEncoder(w).Encode(map[string]any{"transitions": []Transition{
				{ID: "11", Name: "To Do", To: Status{Name: "To Do"}},
				{ID: "31", Name: "Done", To: Status{Name: "Done"}},
			}})
		case strings.HasSuffix(r.URL.Path, "/transitions") && r.Method == "POST":
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/comment"):
			w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	})
}

func (ts *trackerServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	jql := r.URL.Query().Get("jql")
	if strings.Count(jql, `"`)%2 != 0 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["Error in the JQL Query"]}`))
		return
	}

	var terms []string
	for _, m := range termRe.FindAllStringSubmatch(jql, -1) {
		terms = append(terms, unescapeTerm(m[1]))
	}

	defer ts.lock()()
	var matched []Issue
	for _, issue := range ts.issues {
		if issue.Fields.Status.Name == "Done" {
			continue
		}
		all := true
		for _, term := range terms {
			if !strings.Contains(issue.Fields.Summary, term) {
				all = false
				break
			}
		}
		if all {
			matched = append(matched, issue)
		}
	}
	json.NewEncoder(w).Encode(SearchResult{Issues: matched})
}

func (ts *trackerServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Fields struct {
			Summary string `json:"summary"`
		} `json:"fields"`
	}
	json.NewDecoder(r.Body).Decode(&payload)

	defer ts.lock()()
	ts.nextID++
	key := fmt.Sprintf("AT-%d", ts.nextID)
	ts.issues = append(ts.issues, Issue{
		Key:    key,
		Fields: IssueFields{Summary: payload.Fields.Summary, Status: Status{Name: "To Do"}},
	})
	json.NewEncoder(w).Encode(CreatedIssue{ID: key, Key: key})
}

func newTrackerFixture(t *testing.T) (*trackerServer, *Adapter) {
	t.Helper()
	ts := &trackerServer{mu: make(chan struct{}, 1)}
	server := httptest.NewServer(ts.handler(t))
	t.Cleanup(server.Close)

	client, err := New(server.URL, "u", "t", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	return ts, NewAdapter(client, "AT", "Bug", "", nil)
}

func TestFindOpenRecord_NoMatch(t *testing.T) {
	_, adapter := newTrackerFixture(t)

	rec, err := adapter.FindOpenRecord(context.Background(), adapterID)
	if err != nil {
		t.Fatalf("FindOpenRecord: %v", err)
	}
	if rec != nil {
		t.Errorf("expected no match, got %+v", rec)
	}
}

func TestFindOpenRecord_QueryErrorOnBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorMessages":["Error in the JQL Query"]}`))
	}))
	defer server.Close()

	client, _ := New(server.URL, "u", "t", WithHTTPClient(server.Client()))
	adapter := NewAdapter(client, "AT", "Bug", "", nil)

	_, err := adapter.FindOpenRecord(context.Background(), adapterID)
	if !report.IsQueryError(err) {
		t.Fatalf("expected QueryError, got %v", err)
	}
	var qe *report.QueryError
	if !errors.As(err, &qe) || qe.Query == "" {
		t.Errorf("query error must carry the rejected query, got %+v", qe)
	}
}

func TestCreateThenFindRoundTrip(t *testing.T) {
	// Identity tokens carry parentheses and brackets; a record created with
	// them must still be found by the escaped search.
	_, adapter := newTrackerFixture(t)
	ctx := context.Background()

	title := adapterID.Title("test_login_empty_password[chromium-1920x1080]", time.Now())
	created, err := adapter.CreateRecord(ctx, title, "body")
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	found, err := adapter.FindOpenRecord(ctx, adapterID)
	if err != nil {
		t.Fatalf("FindOpenRecord: %v", err)
	}
	if found == nil || found.ExternalID != created.ExternalID {
		t.Fatalf("created %q, found %+v", created.ExternalID, found)
	}
	if found.LaneOrStatus != "To Do" {
		t.Errorf("LaneOrStatus = %q, want 'To Do'", found.LaneOrStatus)
	}
}

func TestFindOpenRecord_DoneIssuesExcluded(t *testing.T) {
	ts, adapter := newTrackerFixture(t)
	title := adapterID.Title("test_login", time.Now())
	ts.issues = append(ts.issues, Issue{
		Key:    "AT-99",
		Fields: IssueFields{Summary: title, Status: Status{Name: "Done"}},
	})

	rec, err := adapter.FindOpenRecord(context.Background(), adapterID)
	if err != nil {
		t.Fatalf("FindOpenRecord: %v", err)
	}
	if rec != nil {
		t.Errorf("closed issue must not be found, got %+v", rec)
	}
}

func TestComment_ToleratesVanishedIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, _ := New(server.URL, "u", "t", WithHTTPClient(server.Client()))
	adapter := NewAdapter(client, "AT", "Bug", "", nil)

	rec := &report.TrackedRecord{ExternalID: "AT-1", Backend: report.BackendWorkflow}
	if err := adapter.Comment(context.Background(), rec, "text"); err != nil {
		t.Errorf("comment on deleted issue must be tolerated, got %v", err)
	}
}

func TestTransition_ByNameCaseInsensitive(t *testing.T) {
	_, adapter := newTrackerFixture(t)

	rec := &report.TrackedRecord{ExternalID: "AT-1", LaneOrStatus: "To Do", Backend: report.BackendWorkflow}
	ok, err := adapter.Transition(context.Background(), rec, "done")
	if err != nil || !ok {
		t.Errorf("Transition = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestTransition_UnavailableTargetIsNotAnError(t *testing.T) {
	_, adapter := newTrackerFixture(t)

	rec := &report.TrackedRecord{ExternalID: "AT-1", LaneOrStatus: "To Do", Backend: report.BackendWorkflow}
	ok, err := adapter.Transition(context.Background(), rec, "Archived")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if ok {
		t.Error("unavailable transition must report ok=false")
	}
}

func TestAttachFile_MissingLocalFile(t *testing.T) {
	_, adapter := newTrackerFixture(t)

	rec := &report.TrackedRecord{ExternalID: "AT-1", Backend: report.BackendWorkflow}
	ok, err := adapter.AttachFile(context.Background(), rec, "/nonexistent/trace.zip")
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if ok {
		t.Error("missing local file must report ok=false")
	}
}
