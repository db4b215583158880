package report

import (
	"errors"
	"fmt"
)

// Op names a single tracker operation for error context.
type Op string

const (
	OpFind       Op = "find"
	OpCreate     Op = "create"
	OpComment    Op = "comment"
	OpAttach     Op = "attach"
	OpTransition Op = "transition"
)

// QueryError means the backend rejected the search query itself. This is a
// resolver defect (bad escaping, bad field name), not a normal "no match",
// and is logged at higher severity than an empty result.
type QueryError struct {
	Backend BackendKind
	Query   string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: query rejected: %v (query: %s)", e.Backend, e.Err, e.Query)
}

func (e *QueryError) Unwrap() error { return e.Err }

// OpError wraps a single rejected tracker operation. Non-fatal: the
// orchestrator logs it and carries on with the rest of the dispatch.
type OpError struct {
	Backend BackendKind
	Op      Op
	Record  string // external id, empty for create
	Err     error
}

func (e *OpError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Backend, e.Op, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// ConfigError means an enabled backend is missing required configuration.
// It disables that backend for the whole run; other backends are unaffected.
type ConfigError struct {
	Backend BackendKind
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing required configuration: %v", e.Backend, e.Missing)
}

// IsQueryError reports whether err is a rejected search query.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsOp reports whether err is an operation error for the given op.
func IsOp(err error, op Op) bool {
	var oe *OpError
	return errors.As(err, &oe) && oe.Op == op
}

// IsConfigError reports whether err is a backend configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
