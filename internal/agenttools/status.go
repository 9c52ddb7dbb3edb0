package agenttools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the agent_status MCP tool.
type StatusTool struct {
	store *hierarchy.Store
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(store *hierarchy.Store) *StatusTool {
	return &StatusTool{store: store}
}

// Definition returns the MCP tool definition for agent_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("agent_status",
		mcp.WithDescription(
			"Self-report your session status. Statuses are unverified self-reports: any "+
				"status may follow any other. Use 'working' while active, 'waiting' while "+
				"idle on input, and 'working' again to clear 'blocked' after your escalation "+
				"was resolved. 'delivered' is normally set by the deliver tool.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Your own session id"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("One of: working, waiting, delivered, blocked"),
		),
	)
}

// Handle processes the agent_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	status := req.GetString("status", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if status == "" {
		return mcp.NewToolResultError("'status' is required"), nil
	}

	if err := t.store.UpdateStatus(sessionID, status); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update status: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session %s status set to %q", sessionID, status)), nil
}

// ─── ListAgentsTool ─────────────────────────────────────────────────────────

// ListAgentsTool handles the list_agents MCP tool — the tree view feed.
type ListAgentsTool struct {
	store *hierarchy.Store
}

// NewListAgentsTool creates a ListAgentsTool.
func NewListAgentsTool(store *hierarchy.Store) *ListAgentsTool {
	return &ListAgentsTool{store: store}
}

// Definition returns the MCP tool definition for list_agents.
func (t *ListAgentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_agents",
		mcp.WithDescription(
			"List agent sessions. With session_id, shows that session's subtree in "+
				"breadth-first order; without, shows every tree. Use this to poll the "+
				"status of agents you spawned.",
		),
		mcp.WithString("session_id",
			mcp.Description("Subtree root to list (omit for all trees)"),
		),
	)
}

// Handle processes the list_agents tool call.
func (t *ListAgentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")

	var sessions []hierarchy.Session
	if sessionID != "" {
		subtree, err := t.store.ListDescendants(sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list subtree: %v", err)), nil
		}
		sessions = subtree
	} else {
		roots, err := t.store.ListRoots()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list roots: %v", err)), nil
		}
		for _, root := range roots {
			subtree, err := t.store.ListDescendants(root.ID)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to list subtree: %v", err)), nil
			}
			sessions = append(sessions, subtree...)
		}
	}

	if len(sessions) == 0 {
		return mcp.NewToolResultText("No agent sessions yet. Spawn one with spawn_agent."), nil
	}

	var b strings.Builder
	for _, sess := range sessions {
		b.WriteString(sessionLine(sess))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
