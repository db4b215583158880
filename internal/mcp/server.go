// Package mcp exposes the reporting pipeline over the Model Context
// Protocol so an agent-driven runner can dispatch outcomes without shelling
// out to the CLI.
package mcp

import (
	"context"
	"fmt"

	"bugrelay/internal/logging"
	"bugrelay/internal/report"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Dispatcher is the subset of report.Orchestrator the server needs.
// Narrowed to an interface so tests can observe dispatches.
type Dispatcher interface {
	Dispatch(ctx context.Context, testName string, id report.TestIdentity, outcome report.ExecutionOutcome)
}

// Server wraps the MCP SDK server around an orchestrator and its adapters.
type Server struct {
	MCPServer *sdkmcp.Server

	dispatcher Dispatcher
	adapters   []report.Adapter
	resolver   *report.Resolver
	evidence   report.EvidenceLocator
}

// NewServer creates an MCP server exposing the reporting tools.
func NewServer(dispatcher Dispatcher, adapters []report.Adapter, ev report.EvidenceLocator) *Server {
	s := &Server{
		dispatcher: dispatcher,
		adapters:   adapters,
		resolver:   report.NewResolver(logging.New("mcp-resolver")),
		evidence:   ev,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "bugrelay", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "report_outcome",
		Description: "Dispatch one completed test outcome to every enabled defect-tracking backend. Creates, reopens, or closes the defect record and attaches evidence.",
	}, s.handleReportOutcome)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "find_open_record",
		Description: "Look up the open defect record for a (case id, environment, target) identity on each enabled backend. Read-only.",
	}, s.handleFindOpenRecord)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "locate_evidence",
		Description: "Resolve the newest screenshot, video, and trace artifact paths for a test display name.",
	}, s.handleLocateEvidence)
}

// --- Tool input/output types ---

type reportOutcomeInput struct {
	Test          string   `json:"test" jsonschema:"full test display name including the parametrization token"`
	CaseID        string   `json:"case_id" jsonschema:"documentation-embedded case id, e.g. LG-T002"`
	Environment   string   `json:"environment" jsonschema:"execution environment, e.g. qa"`
	Target        string   `json:"target" jsonschema:"browser/device parametrization token, e.g. chromium-1920x1080"`
	Passed        bool     `json:"passed" jsonschema:"test verdict"`
	FailureDetail string   `json:"failure_detail,omitempty" jsonschema:"rendered failure trace, empty on pass"`
	Steps         []string `json:"steps,omitempty" jsonschema:"ordered step log recorded during the test"`
}

type reportOutcomeOutput struct {
	Backends int    `json:"backends"`
	Status   string `json:"status"`
}

type findOpenRecordInput struct {
	CaseID      string `json:"case_id" jsonschema:"documentation-embedded case id"`
	Environment string `json:"environment" jsonschema:"execution environment"`
	Target      string `json:"target" jsonschema:"browser/device parametrization token"`
}

type openRecordResult struct {
	Backend      string `json:"backend"`
	Found        bool   `json:"found"`
	ExternalID   string `json:"external_id,omitempty"`
	LaneOrStatus string `json:"lane_or_status,omitempty"`
	Error        string `json:"error,omitempty"`
}

type findOpenRecordOutput struct {
	Records []openRecordResult `json:"records"`
}

type locateEvidenceInput struct {
	Test string `json:"test" jsonschema:"full test display name including the parametrization token"`
}

type locateEvidenceOutput struct {
	Screenshot string `json:"screenshot,omitempty"`
	Video      string `json:"video,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleReportOutcome(ctx context.Context, _ *sdkmcp.CallToolRequest, input reportOutcomeInput) (*sdkmcp.CallToolResult, reportOutcomeOutput, error) {
	if input.Test == "" || input.CaseID == "" || input.Environment == "" || input.Target == "" {
		return nil, reportOutcomeOutput{}, fmt.Errorf("test, case_id, environment, and target are required")
	}

	id := report.TestIdentity{CaseID: input.CaseID, Environment: input.Environment, Target: input.Target}
	outcome := report.ExecutionOutcome{
		Passed:        input.Passed,
		FailureDetail: input.FailureDetail,
		Steps:         input.Steps,
	}
	s.dispatcher.Dispatch(ctx, input.Test, id, outcome)

	return nil, reportOutcomeOutput{Backends: len(s.adapters), Status: "dispatched"}, nil
}

func (s *Server) handleFindOpenRecord(ctx context.Context, _ *sdkmcp.CallToolRequest, input findOpenRecordInput) (*sdkmcp.CallToolResult, findOpenRecordOutput, error) {
	if input.CaseID == "" || input.Environment == "" || input.Target == "" {
		return nil, findOpenRecordOutput{}, fmt.Errorf("case_id, environment, and target are required")
	}

	id := report.TestIdentity{CaseID: input.CaseID, Environment: input.Environment, Target: input.Target}
	out := findOpenRecordOutput{}
	for _, adapter := range s.adapters {
		result := openRecordResult{Backend: string(adapter.Backend())}
		rec, err := s.resolver.Resolve(ctx, id, adapter)
		switch {
		case err != nil:
			result.Error = err.Error()
		case rec != nil:
			result.Found = true
			result.ExternalID = rec.ExternalID
			result.LaneOrStatus = rec.LaneOrStatus
		}
		out.Records = append(out.Records, result)
	}
	return nil, out, nil
}

func (s *Server) handleLocateEvidence(_ context.Context, _ *sdkmcp.CallToolRequest, input locateEvidenceInput) (*sdkmcp.CallToolResult, locateEvidenceOutput, error) {
	if input.Test == "" {
		return nil, locateEvidenceOutput{}, fmt.Errorf("test is required")
	}
	set := s.evidence.Locate(input.Test)
	return nil, locateEvidenceOutput{
		Screenshot: set.Screenshot,
		Video:      set.Video,
		Trace:      set.Trace,
	}, nil
}
