// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools/prompts/resources that depend on them. No
// business logic lives here — only wiring.
package server

import (
	"fmt"

	"github.com/agenthive/hive/internal/agent"
	"github.com/agenthive/hive/internal/agenttools"
	"github.com/agenthive/hive/internal/attention"
	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/agenthive/hive/internal/prompts"
	"github.com/agenthive/hive/internal/resources"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Options configures server construction.
type Options struct {
	// Store config; zero value means hierarchy.DefaultConfig().
	Store hierarchy.Config

	// Runner drives spawned agent executions. Nil means agent.NopRunner —
	// the surrounding runtime is expected to launch executions itself.
	Runner agent.Runner
}

// New creates and configures the MCP server with all tools, prompts, and
// resources registered. This is the single place where all dependencies
// are resolved.
//
// The returned cleanup function closes the hierarchy store's database
// connection and must be called on shutdown (typically via defer).
func New(opts Options) (*server.MCPServer, func(), error) {
	cfg := opts.Store
	if cfg.DataDir == "" {
		cfg = hierarchy.DefaultConfig()
	}

	store, err := hierarchy.New(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("opening hierarchy store: %w", err)
	}
	cleanup := func() { _ = store.Close() }

	runner := opts.Runner
	if runner == nil {
		runner = agent.NopRunner{}
	}

	agg := attention.New(store)

	s := server.NewMCPServer(
		"hive",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register coordination tools ---

	spawnTool := agenttools.NewSpawnTool(store, runner)
	s.AddTool(spawnTool.Definition(), spawnTool.Handle)

	contextTool := agenttools.NewContextTool(store)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	decisionTool := agenttools.NewDecisionTool(store)
	s.AddTool(decisionTool.Definition(), decisionTool.Handle)

	escalateTool := agenttools.NewEscalateTool(store)
	s.AddTool(escalateTool.Definition(), escalateTool.Handle)

	resolveTool := agenttools.NewResolveEscalationTool(store)
	s.AddTool(resolveTool.Definition(), resolveTool.Handle)

	deliverTool := agenttools.NewDeliverTool(store)
	s.AddTool(deliverTool.Definition(), deliverTool.Handle)

	statusTool := agenttools.NewStatusTool(store)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	listTool := agenttools.NewListAgentsTool(store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	attentionTool := agenttools.NewAttentionTool(agg)
	s.AddTool(attentionTool.Definition(), attentionTool.Handle)

	// --- Register prompts ---

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	delegatePrompt := prompts.NewDelegatePrompt()
	s.AddPrompt(delegatePrompt.Definition(), delegatePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store, agg)
	s.AddResource(resourceHandler.AttentionResource(), resourceHandler.HandleAttention)
	s.AddResource(resourceHandler.SessionsResource(), resourceHandler.HandleSessions)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when store init failed.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how
// to coordinate through hive.
func serverInstructions() string {
	return `You have access to hive, a multi-agent session coordination server.

## What hive does

hive tracks a tree of agent sessions. A root session (usually you, in the
user's chat) can spawn child agents to delegate work; children can spawn
grandchildren, down to a fixed depth limit. Every session self-reports a
status — working, waiting, delivered, or blocked — and sessions in the same
tree share an append-only log of decisions and artifacts.

## Your identity

Your session id arrives in the HIVE_SESSION_ID environment variable when
hive launched you. Pass it as session_id on every tool call. If you have no
session id, you are acting for the user: spawn_agent without session_id
creates a new root session.

## Delegating work

1. Call spawn_agent with a title, role, task, and agent_type for each piece
   of work. The call returns the child's session id immediately — the child
   runs independently. Do NOT wait synchronously; poll with list_agents.
2. Nesting is capped. If spawn_agent fails with "cannot nest agents
   further", tell the user — never retry the same spawn.
3. Log the overall plan with log_decision so children can discover it.

## Working as a child

1. At start, call get_context(source=parent) to see what your parent is
   doing and get_context(source=decisions) for tree-wide decisions.
2. Log decisions PROACTIVELY whenever you commit to an approach that other
   agents must honor. Decisions are immutable and visible tree-wide.
3. If you cannot proceed, call escalate. This marks you blocked and puts
   you in the attention set. While blocked, wait — check your escalation
   with list_agents / attention.
4. IMPORTANT two-step contract: when someone resolves your escalation your
   status STAYS blocked. Clearing it is a separate, explicit
   agent_status(status=working) call. Resolution and unblocking are
   independent on purpose so the unblock is always a deliberate decision.
5. When done, call deliver with a summary, content, and any produced
   artifacts. This records the artifacts tree-wide and marks you delivered.

## Statuses

Statuses are unverified self-reports — hive validates the enum, nothing
else. Any status may follow any other. Use working while active and waiting
while idle on input; a session left waiting too long shows up in the
attention set.

## For the user-facing session

- attention answers "what needs review right now": blocked sessions, stale
  waiting sessions, and unresolved escalations.
- resolve_escalation marks an escalation handled. Remember to also unblock
  the owning session with agent_status once the blocker is actually gone.
- Sessions with live children cannot be deleted; finish or delete the
  children first.`
}
