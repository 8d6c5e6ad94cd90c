package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/rdf"
	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "shaclreport"
	serverVersion = "0.1.0"

	summaryURI = "shaclreport://dataset/summary"
	sourceURI  = "shaclreport://dataset/source"

	maxScanResults = 50
)

// MCPServer exposes one dataset of a ReportService over MCP.
type MCPServer struct {
	service   *service.ReportService
	datasetID string
	server    *server.MCPServer
}

// NewMCPServer registers the tools and resources for datasetID.
func NewMCPServer(svc *service.ReportService, datasetID string) *MCPServer {
	ms := &MCPServer{
		service:   svc,
		datasetID: datasetID,
	}

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			summaryURI,
			"Dataset Summary",
			mcp.WithResourceDescription("Metadata of the loaded validation report"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleSummary,
	)

	s.AddResource(
		mcp.NewResource(
			sourceURI,
			"Dataset Source",
			mcp.WithResourceDescription("The RDF document the dataset was loaded from"),
			mcp.WithMIMEType("text/turtle"),
		),
		ms.handleSource,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"run_sparql",
			mcp.WithDescription("Run a SPARQL SELECT query (basic graph patterns, FILTER, LIMIT, OFFSET) against the dataset."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The SPARQL query")),
		),
		ms.handleRunSparql,
	)

	s.AddTool(
		mcp.NewTool(
			"validation_report",
			mcp.WithDescription("Build the SHACL validation report: results grouped by focus node plus counts per result path."),
			mcp.WithString("format", mcp.Description("markdown (default), html or json")),
		),
		ms.handleValidationReport,
	)

	s.AddTool(
		mcp.NewTool(
			"list_predicates",
			mcp.WithDescription("List the distinct predicates of the dataset, optionally ranked by similarity to a keyword."),
			mcp.WithString("near", mcp.Description("Keyword or misspelled predicate to rank by")),
			mcp.WithNumber("limit", mcp.Description("Max number of results")),
		),
		ms.handleListPredicates,
	)

	s.AddTool(
		mcp.NewTool(
			"scan_triples",
			mcp.WithDescription("Scan raw triples. Empty fields act as wildcards; IRIs may be given without angle brackets."),
			mcp.WithString("subject", mcp.Description("Subject filter")),
			mcp.WithString("predicate", mcp.Description("Predicate filter")),
			mcp.WithString("object", mcp.Description("Object filter")),
		),
		ms.handleScanTriples,
	)

	ms.server = s
	return ms
}

// Run serves MCP on stdio until the client disconnects.
func (ms *MCPServer) Run(ctx context.Context) error {
	slog.Info("Starting MCP server on Stdio", "dataset", ms.datasetID)
	return server.ServeStdio(ms.server)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	meta, err := ms.service.Dataset(ms.datasetID)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (ms *MCPServer) handleSource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := ms.service.Source(ms.datasetID)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/turtle",
			Text:     string(data),
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleRunSparql(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query argument required"), nil
	}

	res, err := ms.service.Query(ctx, ms.datasetID, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleValidationReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, _ := args["format"].(string)
	if name == "" {
		name = string(render.FormatMarkdown)
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	if err := ms.service.RenderReport(ctx, ms.datasetID, format, &sb); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (ms *MCPServer) handleListPredicates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	near, _ := args["near"].(string)
	limit := 0
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	preds, err := ms.service.Predicates(ms.datasetID, near, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing predicates failed: %v", err)), nil
	}
	if len(preds) == 0 {
		return mcp.NewToolResultText("No predicates found."), nil
	}
	return mcp.NewToolResultText(strings.Join(preds, "\n")), nil
}

func (ms *MCPServer) handleScanTriples(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	s, _ := args["subject"].(string)
	p, _ := args["predicate"].(string)
	o, _ := args["object"].(string)

	var formatted []string
	err := ms.service.ScanTriples(ctx, ms.datasetID, scanTerm(s), scanTerm(p), scanTerm(o), maxScanResults+1,
		func(subject, predicate, object string) {
			formatted = append(formatted, fmt.Sprintf("%s --[%s]--> %s", subject, predicate, object))
		})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}

	if len(formatted) == 0 {
		return mcp.NewToolResultText("No triples found."), nil
	}
	if len(formatted) > maxScanResults {
		formatted = append(formatted[:maxScanResults], "... (truncated)")
	}
	return mcp.NewToolResultText(strings.Join(formatted, "\n")), nil
}

// scanTerm turns a bare IRI into its stored form; encoded terms pass through.
func scanTerm(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := rdf.DecodeTerm(s); err == nil {
		return s
	}
	return rdf.IRI(s).Encode()
}
