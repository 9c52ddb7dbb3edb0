package agenttools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// DeliverTool handles the deliver MCP tool — the terminal happy-path
// transition for a child session's work.
type DeliverTool struct {
	store *hierarchy.Store
}

// NewDeliverTool creates a DeliverTool.
func NewDeliverTool(store *hierarchy.Store) *DeliverTool {
	return &DeliverTool{store: store}
}

// deliverArtifact is one entry of the artifacts JSON parameter.
type deliverArtifact struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// Definition returns the MCP tool definition for deliver.
func (t *DeliverTool) Definition() mcp.Tool {
	return mcp.NewTool("deliver",
		mcp.WithDescription(
			"Deliver the results of your delegated task to your parent. Records any "+
				"produced artifacts tree-wide, logs the delivery, and sets your status to "+
				"'delivered'. Call this exactly once, when the work is done.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Your own session id"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Kind of result (e.g. code, report, answer)"),
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line summary of what was delivered"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The full result content for the parent"),
		),
		mcp.WithString("artifacts",
			mcp.Description(`Optional JSON array of produced files: [{"path":"src/x.go","description":"..."}]`),
		),
	)
}

// Handle processes the deliver tool call.
func (t *DeliverTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	typ := req.GetString("type", "")
	summary := req.GetString("summary", "")
	content := req.GetString("content", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	var artifacts []deliverArtifact
	if raw := req.GetString("artifacts", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &artifacts); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'artifacts' must be a JSON array of {path, description}: %v", err)), nil
		}
	}

	recorded := 0
	for _, a := range artifacts {
		if strings.TrimSpace(a.Path) == "" {
			continue
		}
		if _, err := t.store.AppendArtifact(hierarchy.AppendArtifactParams{
			SessionID:   sessionID,
			Path:        a.Path,
			Description: a.Description,
		}); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to record artifact %q: %v", a.Path, err)), nil
		}
		recorded++
	}

	// The delivery itself is logged as a tree-wide decision so the parent
	// (and its siblings) can find the result via get_context.
	if _, err := t.store.AppendDecision(hierarchy.AppendDecisionParams{
		SessionID: sessionID,
		Decision:  fmt.Sprintf("Delivered %s: %s", typ, summary),
		Category:  "delivery",
		Rationale: content,
	}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record delivery: %v", err)), nil
	}

	if err := t.store.UpdateStatus(sessionID, hierarchy.StatusDelivered); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to mark session delivered: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Delivered. %d artifact(s) recorded; session %s is now 'delivered'.",
		recorded, sessionID,
	)), nil
}
