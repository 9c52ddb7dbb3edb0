package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// DelegatePrompt handles the hive-delegate MCP prompt.
// It walks the AI through splitting work across child agents.
type DelegatePrompt struct{}

// NewDelegatePrompt creates a DelegatePrompt.
func NewDelegatePrompt() *DelegatePrompt {
	return &DelegatePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *DelegatePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-delegate",
		mcp.WithPromptDescription(
			"Delegate the current task across child agents. Guides the split, "+
				"spawns the children, and sets up coordination.",
		),
	)
}

// Handle processes the hive-delegate prompt request.
func (p *DelegatePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Delegate Work to Child Agents",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want to delegate my current task across child agents.\n\n" +
						"1. Split the task into independent pieces with clear roles\n" +
						"2. For each piece, call `spawn_agent` with a title, role, task, and the\n" +
						"   right agent_type — remember nesting is capped, so keep the tree flat\n" +
						"3. Log the split as a decision with `log_decision` so children can see\n" +
						"   the overall plan via get_context(source=decisions)\n" +
						"4. Poll with `list_agents` and check `attention` for blockers\n" +
						"5. When children deliver, collect the results and summarize for me",
				),
			},
		},
	}, nil
}
