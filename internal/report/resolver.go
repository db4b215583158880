package report

import (
	"context"
	"log/slog"

	"bugrelay/internal/logging"
)

// Resolver answers "does an open record for this identity already exist?"
// against one backend. It distinguishes a normal empty result from a
// rejected query: the latter means the resolver built a bad query and is
// logged at ERROR.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver returns a Resolver logging through the given logger.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{logger: logger}
}

// Resolve queries the adapter for an open record matching the identity.
// (nil, nil) means no open record — the common case for healthy tests.
func (r *Resolver) Resolve(ctx context.Context, id TestIdentity, adapter Adapter) (*TrackedRecord, error) {
	rec, err := adapter.FindOpenRecord(ctx, id)
	if err != nil {
		if IsQueryError(err) {
			r.logger.ErrorContext(ctx, "search query rejected by backend",
				"backend", adapter.Backend(), "identity", id.String(), "err", err)
		} else {
			r.logger.ErrorContext(ctx, "open-record search failed",
				"backend", adapter.Backend(), "identity", id.String(), "err", err)
		}
		return nil, err
	}
	if rec == nil {
		r.logger.DebugContext(ctx, "no open record found",
			"backend", adapter.Backend(), "identity", id.String())
		return nil, nil
	}
	r.logger.InfoContext(ctx, "open record found",
		"backend", adapter.Backend(), "identity", id.String(),
		"record", rec.ExternalID, "state", rec.LaneOrStatus)
	return rec, nil
}
