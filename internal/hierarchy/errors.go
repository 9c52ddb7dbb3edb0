package hierarchy

import "errors"

// Error kinds surfaced by the store. They propagate unchanged through the
// tool handlers to the calling agent — none are transient, so nothing
// retries them. Match with errors.Is.
var (
	// ErrParentNotFound means a spawn referenced a parent id that does
	// not resolve to any session.
	ErrParentNotFound = errors.New("parent session not found")

	// ErrSessionNotFound means the given session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDepthExceeded means a spawn would push the tree past MaxDepth.
	// The spawn fails; the depth is never silently clamped.
	ErrDepthExceeded = errors.New("maximum agent nesting depth exceeded")

	// ErrInvalidStatus means a status value outside the recognized enum.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidAgentType means an agent_type outside the recognized enum.
	ErrInvalidAgentType = errors.New("invalid agent type")

	// ErrInvalidEscalationType means an escalation type outside the
	// recognized enum.
	ErrInvalidEscalationType = errors.New("invalid escalation type")

	// ErrEscalationNotFound means the given escalation id is unknown.
	ErrEscalationNotFound = errors.New("escalation not found")

	// ErrHasChildren means a delete targeted a session with live
	// descendants. Deletion never cascades.
	ErrHasChildren = errors.New("session has child sessions")
)
