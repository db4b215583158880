// Package report contains the defect-reporting core: the identity tuple
// used to deduplicate records, the pure lifecycle decision function, the
// resolver that queries a backend for open records, and the orchestrator
// that executes one dispatch per completed test.
//
// Backends plug in through the Adapter interface. The package never touches
// a wire format itself; internal/kanban and internal/workflow translate
// their respective APIs into TrackedRecord values.
package report
