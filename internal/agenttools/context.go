package agenttools

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// ContextTool handles the get_context MCP tool.
type ContextTool struct {
	store *hierarchy.Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(store *hierarchy.Store) *ContextTool {
	return &ContextTool{store: store}
}

// Definition returns the MCP tool definition for get_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription(
			"Query coordination context from your session tree. Sources: 'parent' (your "+
				"parent's task/role/status), 'sibling' (other children of your parent), "+
				"'decisions' and 'artifacts' (everything logged anywhere in your tree). "+
				"The query filter is a plain substring match, not semantic search.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Your own session id"),
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("One of: parent, sibling, decisions, artifacts"),
		),
		mcp.WithString("query",
			mcp.Description("Optional substring filter for decisions/artifacts"),
		),
		mcp.WithString("sibling_role",
			mcp.Description("For source=sibling: only siblings with this role"),
		),
	)
}

// Handle processes the get_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	source := req.GetString("source", "")

	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if source == "" {
		return mcp.NewToolResultError("'source' is required"), nil
	}

	query := req.GetString("query", "")

	switch source {
	case "parent":
		return t.parentContext(sessionID)
	case "sibling":
		return t.siblingContext(sessionID, req.GetString("sibling_role", ""))
	case "decisions":
		return t.decisionContext(sessionID, query)
	case "artifacts":
		return t.artifactContext(sessionID, query)
	default:
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown source %q: use parent, sibling, decisions, or artifacts", source,
		)), nil
	}
}

func (t *ContextTool) parentContext(sessionID string) (*mcp.CallToolResult, error) {
	parent, err := t.store.Parent(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve parent: %v", err)), nil
	}
	if parent == nil {
		return mcp.NewToolResultText("You are a root session — there is no parent."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Parent session %s\n", parent.ID)
	fmt.Fprintf(&b, "- status: %s\n", parent.Status)
	if parent.Role != "" {
		fmt.Fprintf(&b, "- role: %s\n", parent.Role)
	}
	fmt.Fprintf(&b, "- task: %s\n", parent.Task)
	return mcp.NewToolResultText(b.String()), nil
}

func (t *ContextTool) siblingContext(sessionID, role string) (*mcp.CallToolResult, error) {
	siblings, err := t.store.Siblings(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve siblings: %v", err)), nil
	}

	var b strings.Builder
	count := 0
	for _, sib := range siblings {
		if role != "" && sib.Role != role {
			continue
		}
		count++
		fmt.Fprintf(&b, "Sibling %s\n- status: %s\n", sib.ID, sib.Status)
		if sib.Role != "" {
			fmt.Fprintf(&b, "- role: %s\n", sib.Role)
		}
		fmt.Fprintf(&b, "- task: %s\n\n", sib.Task)
	}

	if count == 0 {
		if role != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No siblings with role %q.", role)), nil
		}
		return mcp.NewToolResultText("No siblings."), nil
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (t *ContextTool) decisionContext(sessionID, query string) (*mcp.CallToolResult, error) {
	sess, err := t.store.GetSession(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve session: %v", err)), nil
	}

	decisions, err := t.store.TreeDecisions(sess.RootID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list decisions: %v", err)), nil
	}

	var b strings.Builder
	count := 0
	for _, d := range decisions {
		if query != "" && !containsFold(d.Decision, query) &&
			!containsFold(d.Category, query) && !containsFold(d.Rationale, query) {
			continue
		}
		count++
		fmt.Fprintf(&b, "- [%s] %s", d.CreatedAt, d.Decision)
		if d.Category != "" {
			fmt.Fprintf(&b, " (%s)", d.Category)
		}
		if d.Rationale != "" {
			fmt.Fprintf(&b, " — %s", truncate(d.Rationale, 200))
		}
		fmt.Fprintf(&b, " [by %s]\n", d.SessionID)
	}

	if count == 0 {
		return mcp.NewToolResultText("No matching decisions in this tree."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Decisions in tree %s:\n%s", sess.RootID, b.String())), nil
}

func (t *ContextTool) artifactContext(sessionID, query string) (*mcp.CallToolResult, error) {
	sess, err := t.store.GetSession(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve session: %v", err)), nil
	}

	artifacts, err := t.store.TreeArtifacts(sess.RootID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list artifacts: %v", err)), nil
	}

	var b strings.Builder
	count := 0
	for _, a := range artifacts {
		if query != "" && !containsFold(a.Path, query) && !containsFold(a.Description, query) {
			continue
		}
		count++
		fmt.Fprintf(&b, "- [%s] %s", a.CreatedAt, a.Path)
		if a.Description != "" {
			fmt.Fprintf(&b, " — %s", truncate(a.Description, 200))
		}
		fmt.Fprintf(&b, " [by %s]\n", a.SessionID)
	}

	if count == 0 {
		return mcp.NewToolResultText("No matching artifacts in this tree."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Artifacts in tree %s:\n%s", sess.RootID, b.String())), nil
}

// containsFold is a case-insensitive substring match.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
