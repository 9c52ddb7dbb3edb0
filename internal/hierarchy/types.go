// Package hierarchy implements the persistent session tree for hive.
//
// It uses SQLite to store agent sessions with parent/child links, plus the
// append-only decision, artifact and escalation records that sessions in the
// same tree share. Structural invariants (depth cap, root propagation,
// no deletion of nodes with live children) are enforced at write time.
package hierarchy

import "strings"

// Status values a session may self-report. There is no transition table:
// agents self-report and any status may follow any other.
const (
	StatusWorking   = "working"
	StatusWaiting   = "waiting"
	StatusDelivered = "delivered"
	StatusBlocked   = "blocked"
)

// Agent type tags assigned at spawn time.
const (
	AgentBrowser  = "browser"
	AgentCoding   = "coding"
	AgentRunner   = "runner"
	AgentResearch = "research"
	AgentPlanning = "planning"
	AgentReviewer = "reviewer"
	AgentGeneral  = "general"
)

// Escalation types a child may raise toward its parent.
const (
	EscalationQuestion       = "question"
	EscalationDecisionNeeded = "decision_needed"
	EscalationBlocker        = "blocker"
	EscalationPermission     = "permission"
)

// Session is one node in an agent tree. Depth is 0 for a root and
// parent.Depth+1 for children; RootID is computed at creation and never
// mutated afterwards.
type Session struct {
	ID        string  `json:"id"`
	ParentID  *string `json:"parent_id,omitempty"`
	RootID    string  `json:"root_id"`
	Depth     int     `json:"depth"`
	Title     string  `json:"title"`
	Role      string  `json:"role"`
	Task      string  `json:"task"`
	AgentType string  `json:"agent_type"`
	Model     *string `json:"model,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// IsRoot reports whether the session sits at the top of its tree.
func (s Session) IsRoot() bool {
	return s.ParentID == nil
}

// Decision is an append-only fact logged by a session, visible to every
// session sharing the same root. Immutable once written.
type Decision struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	RootID    string `json:"root_id"`
	Decision  string `json:"decision"`
	Category  string `json:"category,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Artifact is an append-only record of a produced output, visible tree-wide.
type Artifact struct {
	ID          int64  `json:"id"`
	SessionID   string `json:"session_id"`
	RootID      string `json:"root_id"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// Escalation is a typed request for attention raised by a child toward its
// parent. Raising one sets the owning session to blocked; resolving one does
// NOT clear that status — unblocking is a separate, explicit UpdateStatus
// call. The two steps are independent on purpose.
type Escalation struct {
	ID         int64   `json:"id"`
	SessionID  string  `json:"session_id"`
	RootID     string  `json:"root_id"`
	Type       string  `json:"type"`
	Summary    string  `json:"summary"`
	Context    string  `json:"context,omitempty"`
	Resolved   bool    `json:"resolved"`
	CreatedAt  string  `json:"created_at"`
	ResolvedAt *string `json:"resolved_at,omitempty"`
}

// CreateSessionParams holds the input for creating a new session.
// An empty ParentID creates a root session at depth 0.
type CreateSessionParams struct {
	ParentID  string `json:"parent_id,omitempty"`
	Title     string `json:"title"`
	Role      string `json:"role"`
	Task      string `json:"task"`
	AgentType string `json:"agent_type"`
	Model     string `json:"model,omitempty"`
}

// AppendDecisionParams holds the input for logging a decision.
type AppendDecisionParams struct {
	SessionID string `json:"session_id"`
	Decision  string `json:"decision"`
	Category  string `json:"category,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

// AppendArtifactParams holds the input for recording a produced artifact.
type AppendArtifactParams struct {
	SessionID   string `json:"session_id"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// RaiseEscalationParams holds the input for raising an escalation.
type RaiseEscalationParams struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	Context   string `json:"context,omitempty"`
}

// ValidStatus reports whether s is a recognized status value.
func ValidStatus(s string) bool {
	switch s {
	case StatusWorking, StatusWaiting, StatusDelivered, StatusBlocked:
		return true
	}
	return false
}

// ValidAgentType reports whether s is a recognized agent type tag.
func ValidAgentType(s string) bool {
	switch s {
	case AgentBrowser, AgentCoding, AgentRunner, AgentResearch,
		AgentPlanning, AgentReviewer, AgentGeneral:
		return true
	}
	return false
}

// ValidEscalationType reports whether s is a recognized escalation type.
func ValidEscalationType(s string) bool {
	switch s {
	case EscalationQuestion, EscalationDecisionNeeded,
		EscalationBlocker, EscalationPermission:
		return true
	}
	return false
}

// normalizeEnum lowercases and trims an enum-ish input before validation,
// so "Blocked" and " blocked " are accepted as "blocked".
func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
