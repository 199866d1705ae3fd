package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"onboarder/internal/config"
	"onboarder/internal/document"
	"onboarder/internal/partition"
	"onboarder/internal/store"
	"onboarder/internal/validate"
)

type ValidateConfigInput struct {
	Path string `json:"path" jsonschema:"path to a building configuration file"`
}

type PlanPartitionInput struct {
	Path string `json:"path" jsonschema:"path to an exported building configuration file"`
}

type ListAttemptsInput struct {
	Building   string `json:"building,omitempty" jsonschema:"building code filter, e.g. US-MTV-1600"`
	Outcome    string `json:"outcome,omitempty" jsonschema:"succeeded, failed, or skipped"`
	SourceFile string `json:"source_file,omitempty" jsonschema:"unit file path filter"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of attempts"`
}

type GetSchemaInput struct{}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Entity   string `json:"entity,omitempty"`
}

type ValidateConfigOutput struct {
	Valid  bool          `json:"valid"`
	Issues []IssueOutput `json:"issues"`
}

type UnitOutput struct {
	Category string   `json:"category"`
	Primary  string   `json:"primary"`
	Linked   []string `json:"linked,omitempty"`
}

type PlanPartitionOutput struct {
	Units        []UnitOutput `json:"units"`
	Unclassified []string     `json:"unclassified,omitempty"`
}

type AttemptOutput struct {
	ID           string `json:"id"`
	Building     string `json:"building"`
	SourceFile   string `json:"source_file"`
	ResultFile   string `json:"result_file"`
	Category     string `json:"category,omitempty"`
	Outcome      string `json:"outcome"`
	Operation    string `json:"operation,omitempty"`
	PollAttempts int    `json:"poll_attempts"`
	Error        string `json:"error,omitempty"`
	FinishedAt   string `json:"finished_at"`
}

type ListAttemptsOutput struct {
	Attempts []AttemptOutput `json:"attempts"`
}

type SchemaOutput struct {
	MetadataKey     string   `json:"metadata_key"`
	BuildingType    string   `json:"building_type"`
	LinkStripFields []string `json:"link_strip_fields"`
	Categories      []string `json:"categories"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_config",
		Description: "Check a building configuration file for partitioning errors and warnings",
	}, s.handleValidateConfig)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "plan_partition",
		Description: "Show the submission units a configuration file would be split into, without writing files",
	}, s.handlePlanPartition)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_attempts",
		Description: "List recorded onboarding attempts, newest first",
	}, s.handleListAttempts)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the document conventions in use",
	}, s.handleGetSchema)
}

func (s *Server) handleValidateConfig(ctx context.Context, req *sdk.CallToolRequest, input ValidateConfigInput) (*sdk.CallToolResult, ValidateConfigOutput, error) {
	if input.Path == "" {
		return nil, ValidateConfigOutput{}, fmt.Errorf("path is required")
	}
	report, err := validate.RunFile(input.Path, s.schema)
	if err != nil {
		return nil, ValidateConfigOutput{}, err
	}

	output := ValidateConfigOutput{
		Valid:  !report.HasErrors(),
		Issues: make([]IssueOutput, 0, len(report.Issues)),
	}
	for _, issue := range report.Issues {
		output.Issues = append(output.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Entity:   issue.Entity,
		})
	}
	return nil, output, nil
}

func (s *Server) handlePlanPartition(ctx context.Context, req *sdk.CallToolRequest, input PlanPartitionInput) (*sdk.CallToolResult, PlanPartitionOutput, error) {
	if input.Path == "" {
		return nil, PlanPartitionOutput{}, fmt.Errorf("path is required")
	}
	doc, err := document.ParseFile(input.Path)
	if err != nil {
		return nil, PlanPartitionOutput{}, err
	}

	// warnings are part of the output, not the server log
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := partition.New(s.schema, quiet).Partition(doc)
	if err != nil {
		return nil, PlanPartitionOutput{}, err
	}

	output := PlanPartitionOutput{
		Units:        make([]UnitOutput, 0, len(result.Units())),
		Unclassified: result.Unclassified,
	}
	for _, unit := range result.Units() {
		output.Units = append(output.Units, UnitOutput{
			Category: string(unit.Category),
			Primary:  unit.Primary,
			Linked:   append([]string(nil), unit.Linked...),
		})
	}
	s.logger.Debug("planned partition", "path", input.Path, "units", len(output.Units))
	return nil, output, nil
}

func (s *Server) handleListAttempts(ctx context.Context, req *sdk.CallToolRequest, input ListAttemptsInput) (*sdk.CallToolResult, ListAttemptsOutput, error) {
	if s.history == nil {
		return nil, ListAttemptsOutput{}, fmt.Errorf("no attempt ledger configured")
	}
	outcome, err := store.ParseOutcome(input.Outcome)
	if err != nil {
		return nil, ListAttemptsOutput{}, err
	}
	limit := input.Limit
	if limit == 0 {
		limit = 50
	}
	building := input.Building
	if building != "" {
		code, err := config.ParseBuildingCode(building)
		if err != nil {
			return nil, ListAttemptsOutput{}, err
		}
		building = code.String()
	}

	attempts, err := s.history.ListAttempts(ctx, store.AttemptFilter{
		BuildingCode: building,
		SourceFile:   input.SourceFile,
		Outcome:      outcome,
		Limit:        limit,
	})
	if err != nil {
		return nil, ListAttemptsOutput{}, err
	}

	output := make([]AttemptOutput, 0, len(attempts))
	for _, a := range attempts {
		output = append(output, attemptOutputFromStore(a))
	}
	return nil, ListAttemptsOutput{Attempts: output}, nil
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	categories := make([]string, 0, len(partition.Categories))
	for _, c := range partition.Categories {
		categories = append(categories, string(c))
	}
	return nil, SchemaOutput{
		MetadataKey:     s.schema.MetadataKey,
		BuildingType:    s.schema.BuildingType,
		LinkStripFields: append([]string{}, s.schema.LinkStripFields...),
		Categories:      categories,
	}, nil
}

func attemptOutputFromStore(a store.Attempt) AttemptOutput {
	return AttemptOutput{
		ID:           a.ID,
		Building:     a.BuildingCode,
		SourceFile:   a.SourceFile,
		ResultFile:   a.ResultFile,
		Category:     a.Category,
		Outcome:      string(a.Outcome),
		Operation:    a.Operation,
		PollAttempts: a.PollAttempts,
		Error:        a.Error,
		FinishedAt:   a.FinishedAt.UTC().Format(time.RFC3339),
	}
}
