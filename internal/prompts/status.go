package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the hive-status MCP prompt.
// It instructs the AI to read and present the current agent trees.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-status",
		mcp.WithPromptDescription(
			"Check the state of your agent trees. Shows every session, "+
				"its status, and anything that needs your attention.",
		),
	)
}

// Handle processes the hive-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Agent Tree Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `list_agents` and `attention` to check my agent trees.\n\n" +
						"Then:\n" +
						"1. Show me each tree with status per session\n" +
						"2. Highlight blocked sessions and unresolved escalations first\n" +
						"3. For each escalation, tell me what resolving it takes and remind me\n" +
						"   that resolving does not unblock the session by itself\n" +
						"4. Tell me which delivered results I have not reviewed yet",
				),
			},
		},
	}, nil
}
