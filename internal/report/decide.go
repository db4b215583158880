package report

// Action is the lifecycle decision for one (outcome, existing record) pair.
type Action int

const (
	// ActionNone: test passed and no open record exists. Tests that have
	// always passed produce no tracker traffic at all.
	ActionNone Action = iota
	// ActionCreate: first observed failure, establish a record with full
	// failure context.
	ActionCreate
	// ActionReopen: repeated failure on an open record. Append a timestamped
	// re-failure comment and force the record back to the intake lane/status
	// if a human moved it downstream.
	ActionReopen
	// ActionClose: pass with an open record. Append a success comment and
	// move the record to the terminal state.
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionReopen:
		return "reopen"
	case ActionClose:
		return "close"
	default:
		return "none"
	}
}

// Decide maps an outcome and the freshly resolved record (nil = none open)
// to the action the orchestrator must take. Pure function, no side effects.
func Decide(passed bool, existing *TrackedRecord) Action {
	switch {
	case !passed && existing == nil:
		return ActionCreate
	case !passed:
		return ActionReopen
	case existing != nil:
		return ActionClose
	default:
		return ActionNone
	}
}
