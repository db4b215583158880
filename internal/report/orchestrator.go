package report

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bugrelay/internal/logging"
)

// EvidenceLocator finds artifact files for a test by display name.
// Implemented by evidence.Locator; a stub is enough for tests.
type EvidenceLocator interface {
	Locate(testDisplayName string) EvidenceSet
	Video(testDisplayName string) string
}

// Orchestrator runs one dispatch per completed test: per enabled backend it
// resolves the identity, decides the lifecycle action, executes it, and
// attaches evidence. Every backend error is caught and logged here — a
// reporting failure must never change or mask the test's own verdict.
type Orchestrator struct {
	adapters []Adapter
	resolver *Resolver
	evidence EvidenceLocator
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator wires the enabled adapters with an evidence locator.
func NewOrchestrator(adapters []Adapter, ev EvidenceLocator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		adapters: adapters,
		resolver: NewResolver(logger),
		evidence: ev,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch reports one completed test to every enabled backend. It must be
// called after the test's own resources are released so artifacts are
// finalized on disk. Backends are independent: each runs in its own
// goroutine and a failure in one never affects the others. Dispatch blocks
// until all backends have been attempted and never returns an error.
func (o *Orchestrator) Dispatch(ctx context.Context, testName string, id TestIdentity, outcome ExecutionOutcome) {
	var g errgroup.Group
	for _, adapter := range o.adapters {
		g.Go(func() error {
			o.dispatchOne(ctx, adapter, testName, id, outcome)
			return nil
		})
	}
	g.Wait()
}

func (o *Orchestrator) dispatchOne(ctx context.Context, a Adapter, testName string, id TestIdentity, outcome ExecutionOutcome) {
	backend := a.Backend()

	rec, err := o.resolver.Resolve(ctx, id, a)
	if err != nil {
		// Resolution failed, so create-vs-update cannot be decided safely.
		// Skip this backend's report rather than risk a duplicate.
		logging.Critical(o.logger, "report skipped: open-record resolution failed",
			"backend", backend, "identity", id.String(), "test", testName, "err", err)
		return
	}

	action := Decide(outcome.Passed, rec)
	o.logger.InfoContext(ctx, "lifecycle decision",
		"backend", backend, "identity", id.String(), "action", action.String())

	switch action {
	case ActionCreate:
		o.create(ctx, a, testName, id, outcome)
	case ActionReopen:
		o.reopen(ctx, a, rec, testName, id, outcome)
	case ActionClose:
		o.close(ctx, a, rec, testName, id, outcome)
	case ActionNone:
		// Always-passing tests produce zero tracker traffic.
	}
}

func (o *Orchestrator) create(ctx context.Context, a Adapter, testName string, id TestIdentity, outcome ExecutionOutcome) {
	now := o.now()
	rec, err := a.CreateRecord(ctx, id.Title(testName, now), FailureBody(id, testName, outcome, now))
	if err != nil {
		logging.Critical(o.logger, "record creation failed",
			"backend", a.Backend(), "identity", id.String(), "op", OpCreate, "err", err)
		return
	}
	o.logger.InfoContext(ctx, "record created",
		"backend", a.Backend(), "identity", id.String(), "record", rec.ExternalID)
	o.attachAll(ctx, a, rec, testName, id)
}

func (o *Orchestrator) reopen(ctx context.Context, a Adapter, rec *TrackedRecord, testName string, id TestIdentity, outcome ExecutionOutcome) {
	if err := a.Comment(ctx, rec, RefailComment(id, outcome, o.now())); err != nil {
		o.logger.ErrorContext(ctx, "re-failure comment failed",
			"backend", a.Backend(), "identity", id.String(), "record", rec.ExternalID, "op", OpComment, "err", err)
	}

	// A human may have moved the record downstream (QA, ongoing). Repeated
	// failure forces it back to intake so the regression is visible.
	if !strings.EqualFold(rec.LaneOrStatus, a.IntakeState()) {
		ok, err := a.Transition(ctx, rec, a.IntakeState())
		switch {
		case err != nil:
			o.logger.ErrorContext(ctx, "reopen transition failed",
				"backend", a.Backend(), "record", rec.ExternalID, "op", OpTransition, "err", err)
		case !ok:
			o.logger.WarnContext(ctx, "reopen transition not available",
				"backend", a.Backend(), "record", rec.ExternalID, "from", rec.LaneOrStatus, "to", a.IntakeState())
		default:
			o.logger.InfoContext(ctx, "record reopened",
				"backend", a.Backend(), "record", rec.ExternalID, "to", a.IntakeState())
		}
	}

	o.attachAll(ctx, a, rec, testName, id)
}

func (o *Orchestrator) close(ctx context.Context, a Adapter, rec *TrackedRecord, testName string, id TestIdentity, outcome ExecutionOutcome) {
	video := o.evidence.Video(testName)
	if video != "" {
		if ok, err := a.AttachFile(ctx, rec, video); err != nil {
			o.logger.ErrorContext(ctx, "video attachment failed",
				"backend", a.Backend(), "record", rec.ExternalID, "op", OpAttach, "err", err)
		} else if !ok {
			video = ""
		}
	}

	if err := a.Comment(ctx, rec, SuccessComment(id, outcome, video, o.now())); err != nil {
		o.logger.ErrorContext(ctx, "success comment failed",
			"backend", a.Backend(), "identity", id.String(), "record", rec.ExternalID, "op", OpComment, "err", err)
	}

	ok, err := a.Transition(ctx, rec, a.DoneState())
	switch {
	case err != nil:
		o.logger.ErrorContext(ctx, "close transition failed",
			"backend", a.Backend(), "record", rec.ExternalID, "op", OpTransition, "err", err)
	case !ok:
		o.logger.WarnContext(ctx, "close transition not available",
			"backend", a.Backend(), "record", rec.ExternalID, "from", rec.LaneOrStatus, "to", a.DoneState())
	default:
		o.logger.InfoContext(ctx, "record closed",
			"backend", a.Backend(), "identity", id.String(), "record", rec.ExternalID)
	}
}

// attachAll fetches the evidence set and attempts every artifact
// independently: one failed or missing upload never blocks the others.
func (o *Orchestrator) attachAll(ctx context.Context, a Adapter, rec *TrackedRecord, testName string, id TestIdentity) {
	set := o.evidence.Locate(testName)
	attached := 0
	for _, path := range set.Paths() {
		ok, err := a.AttachFile(ctx, rec, path)
		switch {
		case err != nil:
			o.logger.ErrorContext(ctx, "evidence attachment failed",
				"backend", a.Backend(), "identity", id.String(), "record", rec.ExternalID,
				"op", OpAttach, "path", path, "err", err)
		case !ok:
			o.logger.InfoContext(ctx, "evidence file missing locally",
				"backend", a.Backend(), "record", rec.ExternalID, "path", path)
		default:
			attached++
		}
	}
	o.logger.InfoContext(ctx, "evidence attachment finished",
		"backend", a.Backend(), "record", rec.ExternalID, "attached", attached)
}
