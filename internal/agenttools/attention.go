package agenttools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthive/hive/internal/attention"
	"github.com/mark3labs/mcp-go/mcp"
)

// AttentionTool handles the attention MCP tool.
type AttentionTool struct {
	agg *attention.Aggregator
}

// NewAttentionTool creates an AttentionTool.
func NewAttentionTool(agg *attention.Aggregator) *AttentionTool {
	return &AttentionTool{agg: agg}
}

// Definition returns the MCP tool definition for attention.
func (t *AttentionTool) Definition() mcp.Tool {
	return mcp.NewTool("attention",
		mcp.WithDescription(
			"List sessions that currently need human or parent attention: blocked "+
				"sessions, sessions waiting past the threshold, and sessions with unresolved "+
				"escalations. Recomputed from the store on every call.",
		),
		mcp.WithString("root_id",
			mcp.Description("Restrict to one tree (omit for all trees)"),
		),
	)
}

// Handle processes the attention tool call.
func (t *AttentionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rootID := req.GetString("root_id", "")

	var entries []attention.Entry
	var err error
	if rootID != "" {
		entries, err = t.agg.TreeSet(rootID)
	} else {
		entries, err = t.agg.Set()
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute attention set: %v", err)), nil
	}

	if len(entries) == 0 {
		return mcp.NewToolResultText("Nothing needs attention."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d session(s) need attention:\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "%s\n  reasons: %s\n", sessionLine(e.Session), strings.Join(e.Reasons, ", "))
		for _, esc := range e.Escalations {
			fmt.Fprintf(&b, "  escalation #%d (%s): %s\n", esc.ID, esc.Type, esc.Summary)
		}
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
