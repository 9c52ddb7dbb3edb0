package agenttools

import (
	"context"
	"fmt"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// EscalateTool handles the escalate MCP tool.
type EscalateTool struct {
	store *hierarchy.Store
}

// NewEscalateTool creates an EscalateTool.
func NewEscalateTool(store *hierarchy.Store) *EscalateTool {
	return &EscalateTool{store: store}
}

// Definition returns the MCP tool definition for escalate.
func (t *EscalateTool) Definition() mcp.Tool {
	return mcp.NewTool("escalate",
		mcp.WithDescription(
			"Raise an escalation toward your parent when you cannot proceed. This sets "+
				"your session status to 'blocked' and puts you in the attention set. Note the "+
				"two-step contract: when the escalation is later resolved your status stays "+
				"'blocked' until you (or the user) call agent_status to clear it.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Your own session id"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("One of: question, decision_needed, blocker, permission"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line summary of what you need"),
		),
		mcp.WithString("context",
			mcp.Description("Optional free-text context for whoever resolves it"),
		),
	)
}

// Handle processes the escalate tool call.
func (t *EscalateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	typ := req.GetString("type", "")
	summary := req.GetString("summary", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	esc, err := t.store.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: sessionID,
		Type:      typ,
		Summary:   summary,
		Context:   req.GetString("context", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to escalate: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Escalation #%d raised (%s). Your session is now blocked; wait for resolution.",
		esc.ID, esc.Type,
	)), nil
}

// ─── ResolveEscalationTool ──────────────────────────────────────────────────

// ResolveEscalationTool handles the resolve_escalation MCP tool. This is the
// user/parent side of the escalation lifecycle — the presentation layer
// writes through the same handlers agents use.
type ResolveEscalationTool struct {
	store *hierarchy.Store
}

// NewResolveEscalationTool creates a ResolveEscalationTool.
func NewResolveEscalationTool(store *hierarchy.Store) *ResolveEscalationTool {
	return &ResolveEscalationTool{store: store}
}

// Definition returns the MCP tool definition for resolve_escalation.
func (t *ResolveEscalationTool) Definition() mcp.Tool {
	return mcp.NewTool("resolve_escalation",
		mcp.WithDescription(
			"Mark an escalation as resolved. Resolving twice is a safe no-op. This does "+
				"NOT unblock the owning session — follow up with agent_status(status=working) "+
				"to clear the 'blocked' state; the two steps are deliberately independent.",
		),
		mcp.WithNumber("escalation_id",
			mcp.Required(),
			mcp.Description("The escalation id to resolve"),
		),
	)
}

// Handle processes the resolve_escalation tool call.
func (t *ResolveEscalationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "escalation_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'escalation_id' is required"), nil
	}

	if err := t.store.ResolveEscalation(int64(id)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve escalation: %v", err)), nil
	}

	esc, err := t.store.GetEscalation(int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read escalation: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Escalation #%d resolved. Session %s is still '%s' — call agent_status to unblock it.",
		esc.ID, esc.SessionID, mustStatus(t.store, esc.SessionID),
	)), nil
}

// mustStatus reads a session's status for display, falling back to "unknown".
func mustStatus(store *hierarchy.Store, sessionID string) string {
	sess, err := store.GetSession(sessionID)
	if err != nil {
		return "unknown"
	}
	return sess.Status
}
