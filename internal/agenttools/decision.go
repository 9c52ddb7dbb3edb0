package agenttools

import (
	"context"
	"fmt"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// DecisionTool handles the log_decision MCP tool.
type DecisionTool struct {
	store *hierarchy.Store
}

// NewDecisionTool creates a DecisionTool.
func NewDecisionTool(store *hierarchy.Store) *DecisionTool {
	return &DecisionTool{store: store}
}

// Definition returns the MCP tool definition for log_decision.
func (t *DecisionTool) Definition() mcp.Tool {
	return mcp.NewTool("log_decision",
		mcp.WithDescription(
			"Log a decision so every agent in your tree can see it. Decisions are "+
				"immutable once written and visible tree-wide via get_context(source=decisions). "+
				"Log PROACTIVELY whenever you commit to an approach other agents must honor.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Your own session id"),
		),
		mcp.WithString("decision",
			mcp.Required(),
			mcp.Description("The decision taken (e.g. 'Use JWT for auth tokens')"),
		),
		mcp.WithString("category",
			mcp.Description("Optional category tag (e.g. 'architecture')"),
		),
		mcp.WithString("rationale",
			mcp.Description("Optional reasoning behind the decision"),
		),
	)
}

// Handle processes the log_decision tool call.
func (t *DecisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	decision := req.GetString("decision", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if decision == "" {
		return mcp.NewToolResultError("'decision' is required"), nil
	}

	d, err := t.store.AppendDecision(hierarchy.AppendDecisionParams{
		SessionID: sessionID,
		Decision:  decision,
		Category:  req.GetString("category", ""),
		Rationale: req.GetString("rationale", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to log decision: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Decision #%d logged, visible to the whole tree %s", d.ID, d.RootID,
	)), nil
}
