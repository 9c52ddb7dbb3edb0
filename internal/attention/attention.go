// Package attention computes the set of sessions that need human review.
//
// It is a read model, not a cache: every call recomputes from Hierarchy
// Store reads, so correctness depends only on store read consistency. A
// session qualifies when it is blocked, has sat in waiting longer than the
// configured threshold, or carries an unresolved escalation.
package attention

import (
	"fmt"
	"time"

	"github.com/agenthive/hive/internal/hierarchy"
)

// Reasons a session can land in the attention set.
const (
	ReasonBlocked              = "blocked"
	ReasonWaitingTooLong       = "waiting_too_long"
	ReasonUnresolvedEscalation = "unresolved_escalation"
)

// Entry is one session needing attention, with every reason that applies.
type Entry struct {
	Session     hierarchy.Session      `json:"session"`
	Reasons     []string               `json:"reasons"`
	Escalations []hierarchy.Escalation `json:"escalations,omitempty"`
}

// Aggregator answers "which sessions across all trees need attention right
// now". It holds no state of its own.
type Aggregator struct {
	store *hierarchy.Store
	now   func() time.Time
}

// New creates an Aggregator over the given store.
func New(store *hierarchy.Store) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Set returns the current attention set, in session creation order. One
// O(n) scan over live sessions plus one over open escalations; nothing is
// cached between calls.
func (a *Aggregator) Set() ([]Entry, error) {
	sessions, err := a.store.AllSessions()
	if err != nil {
		return nil, fmt.Errorf("attention: list sessions: %w", err)
	}

	open, err := a.store.UnresolvedEscalations()
	if err != nil {
		return nil, fmt.Errorf("attention: list escalations: %w", err)
	}
	bySession := make(map[string][]hierarchy.Escalation, len(open))
	for _, e := range open {
		bySession[e.SessionID] = append(bySession[e.SessionID], e)
	}

	threshold := a.store.Config().WaitingThreshold
	now := a.now().UTC()

	var entries []Entry
	for _, sess := range sessions {
		var reasons []string

		if sess.Status == hierarchy.StatusBlocked {
			reasons = append(reasons, ReasonBlocked)
		}

		if sess.Status == hierarchy.StatusWaiting && threshold > 0 {
			since, err := hierarchy.ParseTime(sess.UpdatedAt)
			if err == nil && now.Sub(since) > threshold {
				reasons = append(reasons, ReasonWaitingTooLong)
			}
		}

		if len(bySession[sess.ID]) > 0 {
			reasons = append(reasons, ReasonUnresolvedEscalation)
		}

		if len(reasons) > 0 {
			entries = append(entries, Entry{
				Session:     sess,
				Reasons:     reasons,
				Escalations: bySession[sess.ID],
			})
		}
	}

	return entries, nil
}

// TreeSet returns the attention set restricted to one tree.
func (a *Aggregator) TreeSet(rootID string) ([]Entry, error) {
	all, err := a.Set()
	if err != nil {
		return nil, err
	}
	filtered := all[:0:0]
	for _, e := range all {
		if e.Session.RootID == rootID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
