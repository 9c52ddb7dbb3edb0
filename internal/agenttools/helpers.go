// Package agenttools provides the MCP tool handlers agents call to
// coordinate inside a session tree.
//
// Each tool handler follows the same pattern:
//   - A struct with dependencies (hierarchy.Store, agent.Runner) injected
//     via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Handlers are a thin boundary: each wraps one store operation. Store
// errors surface verbatim in the tool result — no retry, no swallowing —
// because the calling agent is expected to reason about the failure and
// relay it to its user.
package agenttools

import (
	"fmt"
	"strings"

	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// sessionLine renders a one-line summary of a session for tool output.
func sessionLine(s hierarchy.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s] %s (%s", strings.Repeat("  ", s.Depth), s.Status, s.ID, s.AgentType)
	if s.Role != "" {
		fmt.Fprintf(&b, ", role=%s", s.Role)
	}
	b.WriteString(")")
	if s.Title != "" {
		fmt.Fprintf(&b, " — %s", s.Title)
	}
	return b.String()
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
