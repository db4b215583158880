package kanban

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bugrelay/internal/logging"
	"bugrelay/internal/report"
)

// Lane names used by the board. FAIL is intake, DONE is terminal; QA and
// ONGOING are the human triage lanes in between.
const (
	LaneFail    = "FAIL"
	LaneQA      = "QA"
	LaneOngoing = "ONGOING"
	LaneDone    = "DONE"
)

// Lists holds the board list ids for the four lifecycle lanes.
type Lists struct {
	Fail    string
	QA      string
	Ongoing string
	Done    string
}

// Adapter implements report.Adapter on top of the board API. New failure
// cards land in the FAIL list; open-record search covers the three
// non-terminal lists and matches the identity tokens against card names.
type Adapter struct {
	client *Client
	lists  Lists
	logger *slog.Logger
}

// NewAdapter wires a board client with its list ids.
func NewAdapter(client *Client, lists Lists, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{client: client, lists: lists, logger: logger}
}

// Backend implements report.Adapter.
func (a *Adapter) Backend() report.BackendKind { return report.BackendKanban }

// IntakeState implements report.Adapter.
func (a *Adapter) IntakeState() string { return LaneFail }

// DoneState implements report.Adapter.
func (a *Adapter) DoneState() string { return LaneDone }

// openLanes returns the non-terminal lanes in search order. DONE is
// deliberately excluded: a card there is a closed defect, and a new failure
// must open a fresh card instead of resurrecting it.
func (a *Adapter) openLanes() []struct{ name, listID string } {
	return []struct{ name, listID string }{
		{LaneFail, a.lists.Fail},
		{LaneQA, a.lists.QA},
		{LaneOngoing, a.lists.Ongoing},
	}
}

// FindOpenRecord scans the non-terminal lists for a card whose name
// contains all three identity tokens as plain substrings. The board API has
// no server-side text search on lists, so matching happens client-side.
func (a *Adapter) FindOpenRecord(ctx context.Context, id report.TestIdentity) (*report.TrackedRecord, error) {
	env, caseID, target := id.SearchTokens()

	var lastErr error
	failed := 0
	for _, lane := range a.openLanes() {
		cards, err := a.client.ListCards(ctx, lane.listID)
		if err != nil {
			a.logger.ErrorContext(ctx, "lane search failed",
				"lane", lane.name, "identity", id.String(), "err", err)
			lastErr = err
			failed++
			continue
		}
		for _, card := range cards {
			if strings.Contains(card.Name, env) &&
				strings.Contains(card.Name, caseID) &&
				strings.Contains(card.Name, target) {
				return &report.TrackedRecord{
					ExternalID:   card.ID,
					LaneOrStatus: lane.name,
					Backend:      report.BackendKanban,
				}, nil
			}
		}
	}

	if failed == len(a.openLanes()) {
		return nil, &report.OpError{Backend: report.BackendKanban, Op: report.OpFind, Err: lastErr}
	}
	return nil, nil
}

// CreateRecord creates a card in the FAIL list.
func (a *Adapter) CreateRecord(ctx context.Context, title, body string) (*report.TrackedRecord, error) {
	card, err := a.client.CreateCard(ctx, a.lists.Fail, title, body)
	if err != nil {
		return nil, &report.OpError{Backend: report.BackendKanban, Op: report.OpCreate, Err: err}
	}
	return &report.TrackedRecord{
		ExternalID:   card.ID,
		LaneOrStatus: LaneFail,
		Backend:      report.BackendKanban,
	}, nil
}

// Comment appends text to a card. A card deleted out-of-band is logged and
// tolerated: the dispatch must not fail because a human cleaned the board.
func (a *Adapter) Comment(ctx context.Context, rec *report.TrackedRecord, text string) error {
	err := a.client.CommentCard(ctx, rec.ExternalID, text)
	if err == nil {
		return nil
	}
	if IsNotFound(err) {
		a.logger.WarnContext(ctx, "card vanished remotely, comment dropped", "card", rec.ExternalID)
		return nil
	}
	return &report.OpError{Backend: report.BackendKanban, Op: report.OpComment, Record: rec.ExternalID, Err: err}
}

// AttachFile uploads a local artifact to the card. A missing local file
// returns (false, nil) so the caller can try the remaining artifacts.
func (a *Adapter) AttachFile(ctx context.Context, rec *report.TrackedRecord, path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	if err := a.client.AttachFile(ctx, rec.ExternalID, path); err != nil {
		return false, &report.OpError{Backend: report.BackendKanban, Op: report.OpAttach, Record: rec.ExternalID, Err: err}
	}
	return true, nil
}

// Transition moves the card to the named lane. An unknown lane name is not
// a legal transition and returns (false, nil).
func (a *Adapter) Transition(ctx context.Context, rec *report.TrackedRecord, target string) (bool, error) {
	listID, err := a.listFor(target)
	if err != nil {
		a.logger.WarnContext(ctx, "unknown lane, card not moved", "card", rec.ExternalID, "target", target)
		return false, nil
	}
	if err := a.client.MoveCard(ctx, rec.ExternalID, listID); err != nil {
		return false, &report.OpError{Backend: report.BackendKanban, Op: report.OpTransition, Record: rec.ExternalID, Err: err}
	}
	a.logger.InfoContext(ctx, "card moved", "card", rec.ExternalID, "lane", strings.ToUpper(target))
	return true, nil
}

func (a *Adapter) listFor(lane string) (string, error) {
	switch strings.ToUpper(lane) {
	case LaneFail:
		return a.lists.Fail, nil
	case LaneQA:
		return a.lists.QA, nil
	case LaneOngoing:
		return a.lists.Ongoing, nil
	case LaneDone:
		return a.lists.Done, nil
	default:
		return "", fmt.Errorf("unsupported lane %q", lane)
	}
}
