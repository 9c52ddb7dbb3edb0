package agenttools

import (
	"context"
	"errors"
	"fmt"

	"github.com/agenthive/hive/internal/agent"
	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// SpawnTool handles the spawn_agent MCP tool.
type SpawnTool struct {
	store  *hierarchy.Store
	runner agent.Runner
}

// NewSpawnTool creates a SpawnTool with the given store and runner.
func NewSpawnTool(store *hierarchy.Store, runner agent.Runner) *SpawnTool {
	return &SpawnTool{store: store, runner: runner}
}

// Definition returns the MCP tool definition for spawn_agent.
func (t *SpawnTool) Definition() mcp.Tool {
	return mcp.NewTool("spawn_agent",
		mcp.WithDescription(
			"Spawn a child agent session to delegate a task. Returns the new session id "+
				"immediately — the child runs independently, poll its status with list_agents. "+
				"Nesting is capped: a spawn that would exceed the depth limit fails and you "+
				"should tell the user agents cannot nest further, not retry.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short label for the child session (e.g. 'Build login page')"),
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Full description of the delegated work"),
		),
		mcp.WithString("session_id",
			mcp.Description("Your own session id. Omit to spawn a new root session."),
		),
		mcp.WithString("role",
			mcp.Description("Free-text role label for the child (e.g. 'frontend')"),
		),
		mcp.WithString("agent_type",
			mcp.Description("One of: browser, coding, runner, research, planning, reviewer, general (default: general)"),
		),
		mcp.WithString("model",
			mcp.Description("Optional model hint passed to the execution engine"),
		),
	)
}

// Handle processes the spawn_agent tool call. The session row is created
// first; the agent execution is then handed to the runner fire-and-continue,
// so the call returns as soon as the store write and the launch succeed.
func (t *SpawnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	task := req.GetString("task", "")

	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	sess, err := t.store.CreateSession(hierarchy.CreateSessionParams{
		ParentID:  req.GetString("session_id", ""),
		Title:     title,
		Role:      req.GetString("role", ""),
		Task:      task,
		AgentType: req.GetString("agent_type", ""),
		Model:     req.GetString("model", ""),
	})
	if err != nil {
		if errors.Is(err, hierarchy.ErrDepthExceeded) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"cannot nest agents further: %v — relay this to the user instead of retrying", err,
			)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to spawn agent: %v", err)), nil
	}

	if err := t.runner.Start(ctx, *sess); err != nil {
		// The session row exists but nothing will drive it; mark it
		// blocked so the attention set surfaces the failed launch.
		_ = t.store.UpdateStatus(sess.ID, hierarchy.StatusBlocked)
		return mcp.NewToolResultError(fmt.Sprintf(
			"session %s created but agent launch failed: %v", sess.ID, err,
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Spawned agent session %s (depth %d, root %s). The child runs independently — poll with list_agents.",
		sess.ID, sess.Depth, sess.RootID,
	)), nil
}
