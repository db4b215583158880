package workflow

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"bugrelay/internal/logging"
	"bugrelay/internal/report"
)

// Default lifecycle statuses. Intake is where new and reopened failures
// must sit for board visibility; done is the terminal status category.
const (
	StatusToDo = "To Do"
	StatusDone = "Done"
)

// Adapter implements report.Adapter on top of the issue tracker API.
type Adapter struct {
	client    *Client
	project   string
	issueType string
	security  string
	logger    *slog.Logger
}

// NewAdapter wires a tracker client with its project key and issue type.
// securityLevelID is optional and applied to created issues when set.
func NewAdapter(client *Client, project, issueType, securityLevelID string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{
		client:    client,
		project:   project,
		issueType: issueType,
		security:  securityLevelID,
		logger:    logger,
	}
}

// Backend implements report.Adapter.
func (a *Adapter) Backend() report.BackendKind { return report.BackendWorkflow }

// IntakeState implements report.Adapter.
func (a *Adapter) IntakeState() string { return StatusToDo }

// DoneState implements report.Adapter.
func (a *Adapter) DoneState() string { return StatusDone }

// FindOpenRecord searches for an open issue whose summary contains the
// three identity tokens literally. An HTTP 400 from the search endpoint
// means the query itself was rejected and surfaces as *report.QueryError.
func (a *Adapter) FindOpenRecord(ctx context.Context, id report.TestIdentity) (*report.TrackedRecord, error) {
	jql := openRecordQuery(a.project, a.issueType, id)
	a.logger.DebugContext(ctx, "open-record search", "jql", jql)

	result, err := a.client.SearchIssues(ctx, jql, 1)
	if err != nil {
		if IsBadRequest(err) {
			return nil, &report.QueryError{Backend: report.BackendWorkflow, Query: jql, Err: err}
		}
		return nil, &report.OpError{Backend: report.BackendWorkflow, Op: report.OpFind, Err: err}
	}
	if len(result.Issues) == 0 {
		return nil, nil
	}

	issue := result.Issues[0]
	return &report.TrackedRecord{
		ExternalID:   issue.Key,
		LaneOrStatus: issue.Fields.Status.Name,
		Backend:      report.BackendWorkflow,
	}, nil
}

// CreateRecord creates an issue and transitions it to the intake status so
// it shows up on the board. Issues are born in the project's default
// status, which is not always intake; the transition is best-effort.
func (a *Adapter) CreateRecord(ctx context.Context, title, body string) (*report.TrackedRecord, error) {
	created, err := a.client.CreateIssue(ctx, CreateIssueRequest{
		Project:         a.project,
		IssueType:       a.issueType,
		Summary:         title,
		Description:     body,
		SecurityLevelID: a.security,
	})
	if err != nil {
		return nil, &report.OpError{Backend: report.BackendWorkflow, Op: report.OpCreate, Err: err}
	}

	rec := &report.TrackedRecord{
		ExternalID:   created.Key,
		LaneOrStatus: StatusToDo,
		Backend:      report.BackendWorkflow,
	}
	if ok, err := a.Transition(ctx, rec, StatusToDo); err != nil {
		a.logger.ErrorContext(ctx, "intake transition after create failed", "issue", created.Key, "err", err)
	} else if !ok {
		a.logger.DebugContext(ctx, "issue already in intake status", "issue", created.Key)
	}
	return rec, nil
}

// Comment appends text to an issue. An issue deleted out-of-band is logged
// and tolerated.
func (a *Adapter) Comment(ctx context.Context, rec *report.TrackedRecord, text string) error {
	err := a.client.CommentIssue(ctx, rec.ExternalID, text)
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		a.logger.WarnContext(ctx, "issue vanished remotely, comment dropped", "issue", rec.ExternalID)
		return nil
	}
	return &report.OpError{Backend: report.BackendWorkflow, Op: report.OpComment, Record: rec.ExternalID, Err: err}
}

// AttachFile uploads a local artifact to the issue. A missing local file
// returns (false, nil).
func (a *Adapter) AttachFile(ctx context.Context, rec *report.TrackedRecord, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	if err := a.client.AttachFile(ctx, rec.ExternalID, path); err != nil {
		return false, &report.OpError{Backend: report.BackendWorkflow, Op: report.OpAttach, Record: rec.ExternalID, Err: err}
	}
	return true, nil
}

// Transition looks up the transition whose name matches target
// (case-insensitive) among those available from the issue's current status
// and submits it. No matching transition returns (false, nil).
func (a *Adapter) Transition(ctx context.Context, rec *report.TrackedRecord, target string) (bool, error) {
	transitions, err := a.client.Transitions(ctx, rec.ExternalID)
	if err != nil {
		return false, &report.OpError{Backend: report.BackendWorkflow, Op: report.OpTransition, Record: rec.ExternalID, Err: err}
	}

	var id string
	for _, t := range transitions {
		if strings.EqualFold(t.Name, target) {
			id = t.ID
			break
		}
	}
	if id == "" {
		names := make([]string, 0, len(transitions))
		for _, t := range transitions {
			names = append(names, t.Name)
		}
		a.logger.WarnContext(ctx, "transition not available",
			"issue", rec.ExternalID, "target", target, "available", strings.Join(names, ", "))
		return false, nil
	}

	if err := a.client.DoTransition(ctx, rec.ExternalID, id); err != nil {
		return false, &report.OpError{Backend: report.BackendWorkflow, Op: report.OpTransition, Record: rec.ExternalID, Err: err}
	}
	a.logger.InfoContext(ctx, "issue transitioned", "issue", rec.ExternalID, "to", target)
	return true, nil
}
