package provision

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"accessgate/internal/request"
)

// toolRule maps resource keywords to a provisioning tool. Rules are checked
// in order and the first keyword hit wins.
type toolRule struct {
	keywords []string
	tool     string
}

// toolRules is the fixed selection policy. Matching is a case-insensitive
// substring check against the resource description.
var toolRules = []toolRule{
	{keywords: []string{"database", "db", "sql"}, tool: "grant_database_access"},
	{keywords: []string{"aws", "s3", "ec2"}, tool: "grant_aws_access"},
	{keywords: []string{"github", "repo"}, tool: "grant_github_access"},
	{keywords: []string{"jira"}, tool: "grant_jira_access"},
	{keywords: []string{"slack"}, tool: "grant_slack_access"},
}

// genericTool is the fallback when no keyword matches.
const genericTool = "grant_generic_access"

// SelectTool picks the provisioning tool for a resource description. Pure
// function: identical input always selects the same tool.
func SelectTool(resource string) string {
	lower := strings.ToLower(resource)
	for _, rule := range toolRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.tool
			}
		}
	}
	return genericTool
}

// Dispatcher runs the tool selection and the external call, translating
// every failure mode into a Result. It never mutates the request; recording
// the outcome is the workflow's job.
type Dispatcher struct {
	provisioner Provisioner
	logger      *slog.Logger
}

func NewDispatcher(provisioner Provisioner, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{provisioner: provisioner, logger: logger}
}

// Provision invokes the selected tool. The caller bounds the wait through
// ctx; a deadline hit is reported as Detail "timeout".
func (d *Dispatcher) Provision(ctx context.Context, req *request.AccessRequest) Result {
	tool := SelectTool(req.Resource)

	outcome, err := d.provisioner.Invoke(ctx, tool, req)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			detail = "timeout"
		}
		d.logger.WarnContext(ctx, "provisioner invocation failed",
			"request_id", req.ID,
			"tool", tool,
			"error", err.Error(),
		)
		return Result{Tool: tool, Success: false, Detail: detail}
	}
	return Result{Tool: tool, Success: outcome.Success, Detail: outcome.Detail}
}
