// Package resources implements MCP resource handlers for the session tree.
//
// Resources provide read-only data the host UI can consume: the attention
// set for badges and the full session forest for a tree view. They use
// URI-based addressing (hive://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agenthive/hive/internal/attention"
	"github.com/agenthive/hive/internal/hierarchy"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages hive resource endpoints.
type Handler struct {
	store *hierarchy.Store
	agg   *attention.Aggregator
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *hierarchy.Store, agg *attention.Aggregator) *Handler {
	return &Handler{store: store, agg: agg}
}

// AttentionResource returns the MCP resource definition for the attention set.
func (h *Handler) AttentionResource() mcp.Resource {
	return mcp.NewResource(
		"hive://attention",
		"Sessions Needing Attention",
		mcp.WithResourceDescription("Blocked, stale-waiting, and escalated sessions across all trees"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleAttention returns the current attention set as JSON.
func (h *Handler) HandleAttention(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := h.agg.Set()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if entries == nil {
		entries = []attention.Entry{}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling attention set: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// SessionsResource returns the MCP resource definition for the session forest.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		"hive://sessions",
		"Agent Session Trees",
		mcp.WithResourceDescription("All agent sessions with parent/child links, depth, and status"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSessions returns every session as JSON for the tree view.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.store.AllSessions()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if sessions == nil {
		sessions = []hierarchy.Session{}
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
