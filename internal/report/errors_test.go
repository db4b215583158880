package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorPredicates(t *testing.T) {
	qe := &QueryError{Backend: BackendWorkflow, Query: `summary ~ "broken`, Err: errors.New("HTTP 400")}
	oe := &OpError{Backend: BackendKanban, Op: OpComment, Record: "CARD-1", Err: errors.New("HTTP 500")}
	ce := &ConfigError{Backend: BackendKanban, Missing: []string{"api_key"}}

	if !IsQueryError(qe) || IsQueryError(oe) {
		t.Error("IsQueryError misclassified")
	}
	if !IsOp(oe, OpComment) || IsOp(oe, OpAttach) || IsOp(qe, OpComment) {
		t.Error("IsOp misclassified")
	}
	if !IsConfigError(ce) || IsConfigError(oe) {
		t.Error("IsConfigError misclassified")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := &QueryError{Backend: BackendWorkflow, Query: "q", Err: errors.New("rejected")}
	wrapped := fmt.Errorf("resolve: %w", inner)

	if !IsQueryError(wrapped) {
		t.Error("IsQueryError must unwrap")
	}
}

func TestErrorMessagesCarryContext(t *testing.T) {
	oe := &OpError{Backend: BackendWorkflow, Op: OpTransition, Record: "AT-12", Err: errors.New("HTTP 409")}
	msg := oe.Error()
	for _, want := range []string{"workflow", "transition", "AT-12", "HTTP 409"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}

	ce := &ConfigError{Backend: BackendKanban, Missing: []string{"api_key", "lists.fail"}}
	if !strings.Contains(ce.Error(), "api_key") {
		t.Errorf("config error %q missing field name", ce.Error())
	}
}
