package report

import "context"

// Adapter is the capability interface over one defect-tracking backend.
// Implementations translate their wire format into TrackedRecord so the
// lifecycle logic never branches on backend-specific field names.
//
// Side effects are non-transactional: a crash between CreateRecord and
// AttachFile leaves a record without evidence. That is accepted and never
// auto-retried.
type Adapter interface {
	// Backend identifies the implementation for logging and TrackedRecord
	// tagging.
	Backend() BackendKind

	// FindOpenRecord searches non-terminal records whose title contains all
	// three identity tokens as literal substrings. Returns (nil, nil) when
	// nothing matches — a normal outcome, not an error. A rejected query
	// surfaces as *QueryError.
	FindOpenRecord(ctx context.Context, id TestIdentity) (*TrackedRecord, error)

	// CreateRecord creates a record in the intake lane/status. Fails with
	// *OpError (OpCreate) when the backend rejects the payload.
	CreateRecord(ctx context.Context, title, body string) (*TrackedRecord, error)

	// Comment appends text to an existing record. When the record no longer
	// exists remotely the implementation logs and returns nil: state may
	// have changed out-of-band and that must not fail the dispatch.
	Comment(ctx context.Context, rec *TrackedRecord, text string) error

	// AttachFile uploads a local file to the record. Returns (false, nil)
	// when the file is absent locally so the remaining artifacts can still
	// be attempted.
	AttachFile(ctx context.Context, rec *TrackedRecord, path string) (bool, error)

	// Transition moves the record to the named lane/status. Returns
	// (false, nil) when the target is not a legal transition from the
	// record's current state.
	Transition(ctx context.Context, rec *TrackedRecord, target string) (bool, error)

	// IntakeState is the lane/status new and reopened failures land in.
	IntakeState() string

	// DoneState is the terminal lane/status for verified fixes.
	DoneState() string
}
