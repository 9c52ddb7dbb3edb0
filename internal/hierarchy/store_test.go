package hierarchy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/agenthive/hive/internal/hierarchy"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *hierarchy.Store {
	t.Helper()
	cfg := hierarchy.Config{
		DataDir:          t.TempDir(),
		MaxDepth:         3,
		WaitingThreshold: 10 * time.Minute,
	}
	s, err := hierarchy.New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mkRoot creates a root session for tests that need a tree to hang things on.
func mkRoot(t *testing.T, s *hierarchy.Store, title string) *hierarchy.Session {
	t.Helper()
	sess, err := s.CreateSession(hierarchy.CreateSessionParams{Title: title, Task: "do " + title})
	if err != nil {
		t.Fatalf("create root %q: %v", title, err)
	}
	return sess
}

// mkChild spawns a child under parentID.
func mkChild(t *testing.T, s *hierarchy.Store, parentID, title string) *hierarchy.Session {
	t.Helper()
	sess, err := s.CreateSession(hierarchy.CreateSessionParams{
		ParentID: parentID,
		Title:    title,
		Task:     "do " + title,
	})
	if err != nil {
		t.Fatalf("create child %q under %s: %v", title, parentID, err)
	}
	return sess
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := hierarchy.Config{DataDir: dir, MaxDepth: 3, WaitingThreshold: 10 * time.Minute}

	s1, err := hierarchy.New(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	root, err := s1.CreateSession(hierarchy.CreateSessionParams{Title: "persists", Task: "t"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	s1.Close()

	s2, err := hierarchy.New(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetSession(root.ID)
	if err != nil {
		t.Fatalf("session not found after reopen: %v", err)
	}
	if got.Title != "persists" {
		t.Errorf("title = %q, want %q", got.Title, "persists")
	}
}

// ─── Sessions ───────────────────────────────────────────────────────────────

func TestCreateSession_Root(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.CreateSession(hierarchy.CreateSessionParams{
		Title: "build the API",
		Role:  "lead",
		Task:  "coordinate the backend work",
	})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	if sess.Depth != 0 {
		t.Errorf("Depth = %d, want 0", sess.Depth)
	}
	if sess.RootID != sess.ID {
		t.Errorf("RootID = %q, want own id %q", sess.RootID, sess.ID)
	}
	if !sess.IsRoot() {
		t.Error("IsRoot() should be true for a root session")
	}
	if sess.Status != hierarchy.StatusWorking {
		t.Errorf("Status = %q, want %q", sess.Status, hierarchy.StatusWorking)
	}
	if sess.AgentType != hierarchy.AgentGeneral {
		t.Errorf("AgentType = %q, want default %q", sess.AgentType, hierarchy.AgentGeneral)
	}
}

func TestCreateSession_ChildInheritsRoot(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")

	if child.Depth != 1 {
		t.Errorf("Depth = %d, want 1", child.Depth)
	}
	if child.RootID != root.ID {
		t.Errorf("RootID = %q, want %q", child.RootID, root.ID)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("ParentID = %v, want %q", child.ParentID, root.ID)
	}
	if child.IsRoot() {
		t.Error("IsRoot() should be false for a child")
	}
}

func TestCreateSession_RootIDPropagatesDown(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	c1 := mkChild(t, s, root.ID, "c1")
	c2 := mkChild(t, s, c1.ID, "c2")
	c3 := mkChild(t, s, c2.ID, "c3")

	for i, sess := range []*hierarchy.Session{c1, c2, c3} {
		if sess.RootID != root.ID {
			t.Errorf("level %d: RootID = %q, want %q", i+1, sess.RootID, root.ID)
		}
		if sess.Depth != i+1 {
			t.Errorf("level %d: Depth = %d, want %d", i+1, sess.Depth, i+1)
		}
	}
}

func TestCreateSession_DepthCapFailsNeverClamps(t *testing.T) {
	s := newTestStore(t) // MaxDepth: 3
	root := mkRoot(t, s, "root")
	c1 := mkChild(t, s, root.ID, "c1")
	c2 := mkChild(t, s, c1.ID, "c2")
	c3 := mkChild(t, s, c2.ID, "c3") // depth 3 == max, still allowed

	_, err := s.CreateSession(hierarchy.CreateSessionParams{
		ParentID: c3.ID, Title: "c4", Task: "too deep",
	})
	if !errors.Is(err, hierarchy.ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}

	// The failed spawn must not have created anything under c3.
	kids, err := s.ListChildren(c3.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 0 {
		t.Errorf("children of c3 = %d, want 0 after rejected spawn", len(kids))
	}
}

func TestCreateSession_ParentNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateSession(hierarchy.CreateSessionParams{
		ParentID: "no-such-parent", Title: "orphan", Task: "t",
	})
	if !errors.Is(err, hierarchy.ErrParentNotFound) {
		t.Errorf("expected ErrParentNotFound, got %v", err)
	}
}

func TestCreateSession_AgentTypeValidation(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.CreateSession(hierarchy.CreateSessionParams{
		Title: "normalized", Task: "t", AgentType: "  Coding  ",
	})
	if err != nil {
		t.Fatalf("normalized agent type rejected: %v", err)
	}
	if sess.AgentType != hierarchy.AgentCoding {
		t.Errorf("AgentType = %q, want %q", sess.AgentType, hierarchy.AgentCoding)
	}

	_, err = s.CreateSession(hierarchy.CreateSessionParams{
		Title: "bad", Task: "t", AgentType: "wizard",
	})
	if !errors.Is(err, hierarchy.ErrInvalidAgentType) {
		t.Errorf("expected ErrInvalidAgentType, got %v", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession("nope")
	if !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	if err := s.UpdateStatus(root.ID, "Waiting"); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	got, _ := s.GetSession(root.ID)
	if got.Status != hierarchy.StatusWaiting {
		t.Errorf("Status = %q, want %q", got.Status, hierarchy.StatusWaiting)
	}

	// Any status may follow any other; no transition table.
	if err := s.UpdateStatus(root.ID, hierarchy.StatusDelivered); err != nil {
		t.Fatalf("delivered after waiting: %v", err)
	}
	if err := s.UpdateStatus(root.ID, hierarchy.StatusWorking); err != nil {
		t.Fatalf("working after delivered: %v", err)
	}
}

func TestUpdateStatus_InvalidEnum(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	err := s.UpdateStatus(root.ID, "sleeping")
	if !errors.Is(err, hierarchy.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	got, _ := s.GetSession(root.ID)
	if got.Status != hierarchy.StatusWorking {
		t.Errorf("status changed by invalid update: %q", got.Status)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateStatus("ghost", hierarchy.StatusWaiting)
	if !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSession_Leaf(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")

	if err := s.DeleteSession(child.ID); err != nil {
		t.Fatalf("delete leaf: %v", err)
	}
	if _, err := s.GetSession(child.ID); !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("deleted session still readable: %v", err)
	}
}

func TestDeleteSession_WithChildrenRejected(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	mkChild(t, s, root.ID, "child")

	err := s.DeleteSession(root.ID)
	if !errors.Is(err, hierarchy.ErrHasChildren) {
		t.Fatalf("expected ErrHasChildren, got %v", err)
	}
	if _, err := s.GetSession(root.ID); err != nil {
		t.Errorf("rejected delete removed the session: %v", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.DeleteSession("ghost")
	if !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListRootsAndChildren(t *testing.T) {
	s := newTestStore(t)
	r1 := mkRoot(t, s, "r1")
	r2 := mkRoot(t, s, "r2")
	a := mkChild(t, s, r1.ID, "a")
	b := mkChild(t, s, r1.ID, "b")

	roots, err := s.ListRoots()
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	for _, r := range roots {
		if r.ID != r1.ID && r.ID != r2.ID {
			t.Errorf("unexpected root %q", r.ID)
		}
	}

	kids, err := s.ListChildren(r1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 2 {
		t.Fatalf("children = %d, want 2", len(kids))
	}
	ids := map[string]bool{kids[0].ID: true, kids[1].ID: true}
	if !ids[a.ID] || !ids[b.ID] {
		t.Errorf("children = %v, want {%s, %s}", ids, a.ID, b.ID)
	}

	kids2, err := s.ListChildren(r2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids2) != 0 {
		t.Errorf("children of r2 = %d, want 0", len(kids2))
	}
}

// ─── Decisions ───────────────────────────────────────────────────────────────

func TestAppendDecision_VisibleTreeWide(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")
	grandchild := mkChild(t, s, child.ID, "grandchild")

	d, err := s.AppendDecision(hierarchy.AppendDecisionParams{
		SessionID: grandchild.ID,
		Decision:  "use sqlite for persistence",
		Category:  "architecture",
		Rationale: "single file, zero ops",
	})
	if err != nil {
		t.Fatalf("AppendDecision error: %v", err)
	}
	if d.RootID != root.ID {
		t.Errorf("RootID = %q, want %q (denormalized from tree)", d.RootID, root.ID)
	}

	// A decision logged at the bottom of the tree is visible from the root.
	all, err := s.TreeDecisions(root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("tree decisions = %d, want 1", len(all))
	}
	if all[0].Decision != "use sqlite for persistence" {
		t.Errorf("decision = %q", all[0].Decision)
	}
	if all[0].SessionID != grandchild.ID {
		t.Errorf("SessionID = %q, want %q", all[0].SessionID, grandchild.ID)
	}
}

func TestAppendDecision_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AppendDecision(hierarchy.AppendDecisionParams{
		SessionID: "ghost", Decision: "x",
	})
	if !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestTreeDecisions_IsolatedPerTree(t *testing.T) {
	s := newTestStore(t)
	r1 := mkRoot(t, s, "r1")
	r2 := mkRoot(t, s, "r2")

	if _, err := s.AppendDecision(hierarchy.AppendDecisionParams{
		SessionID: r1.ID, Decision: "tree one decision",
	}); err != nil {
		t.Fatal(err)
	}

	other, err := s.TreeDecisions(r2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("tree two sees %d decisions, want 0", len(other))
	}
}

func TestTreeDecisions_Ordering(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	for _, d := range []string{"first", "second", "third"} {
		if _, err := s.AppendDecision(hierarchy.AppendDecisionParams{
			SessionID: root.ID, Decision: d,
		}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.TreeDecisions(root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"first", "second", "third"} {
		if all[i].Decision != want {
			t.Errorf("decision[%d] = %q, want %q", i, all[i].Decision, want)
		}
	}
}

// ─── Artifacts ───────────────────────────────────────────────────────────────

func TestAppendArtifact_VisibleTreeWide(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")

	a, err := s.AppendArtifact(hierarchy.AppendArtifactParams{
		SessionID:   child.ID,
		Path:        "internal/api/handler.go",
		Description: "request handler",
	})
	if err != nil {
		t.Fatalf("AppendArtifact error: %v", err)
	}
	if a.RootID != root.ID {
		t.Errorf("RootID = %q, want %q", a.RootID, root.ID)
	}

	all, err := s.TreeArtifacts(root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("tree artifacts = %d, want 1", len(all))
	}
	if all[0].Path != "internal/api/handler.go" {
		t.Errorf("path = %q", all[0].Path)
	}
}

func TestAppendArtifact_UnknownSession(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AppendArtifact(hierarchy.AppendArtifactParams{
		SessionID: "ghost", Path: "x",
	})
	if !errors.Is(err, hierarchy.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

// ─── Escalations ─────────────────────────────────────────────────────────────

func TestRaiseEscalation_BlocksOwner(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")

	e, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: child.ID,
		Type:      hierarchy.EscalationQuestion,
		Summary:   "which auth scheme?",
		Context:   "OAuth vs API keys",
	})
	if err != nil {
		t.Fatalf("RaiseEscalation error: %v", err)
	}
	if e.Resolved {
		t.Error("new escalation should be unresolved")
	}
	if e.RootID != root.ID {
		t.Errorf("RootID = %q, want %q", e.RootID, root.ID)
	}

	got, _ := s.GetSession(child.ID)
	if got.Status != hierarchy.StatusBlocked {
		t.Errorf("owner status = %q, want %q after escalation", got.Status, hierarchy.StatusBlocked)
	}
}

func TestRaiseEscalation_InvalidType(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	_, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: "tantrum", Summary: "x",
	})
	if !errors.Is(err, hierarchy.ErrInvalidEscalationType) {
		t.Errorf("expected ErrInvalidEscalationType, got %v", err)
	}
	// Session must not be blocked by a rejected escalation.
	got, _ := s.GetSession(root.ID)
	if got.Status != hierarchy.StatusWorking {
		t.Errorf("status = %q, want %q", got.Status, hierarchy.StatusWorking)
	}
}

func TestResolveEscalation_DoesNotUnblock(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	e, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: hierarchy.EscalationBlocker, Summary: "stuck",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ResolveEscalation(e.ID); err != nil {
		t.Fatalf("ResolveEscalation error: %v", err)
	}

	resolved, err := s.GetEscalation(e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Resolved {
		t.Error("escalation not marked resolved")
	}
	if resolved.ResolvedAt == nil {
		t.Error("ResolvedAt not set")
	}

	// Resolving answers the question; the session stays blocked until it
	// explicitly reports a new status.
	got, _ := s.GetSession(root.ID)
	if got.Status != hierarchy.StatusBlocked {
		t.Errorf("status = %q, want still %q after resolve", got.Status, hierarchy.StatusBlocked)
	}
}

func TestResolveEscalation_Idempotent(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	e, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: hierarchy.EscalationPermission, Summary: "may I?",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ResolveEscalation(e.ID); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if err := s.ResolveEscalation(e.ID); err != nil {
		t.Errorf("second resolve should be a no-op, got %v", err)
	}
}

func TestResolveEscalation_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.ResolveEscalation(99999)
	if !errors.Is(err, hierarchy.ErrEscalationNotFound) {
		t.Errorf("expected ErrEscalationNotFound, got %v", err)
	}
}

func TestUnresolvedEscalations_FiltersResolved(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")

	e1, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: hierarchy.EscalationQuestion, Summary: "q1",
	})
	if err != nil {
		t.Fatal(err)
	}
	e2, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: hierarchy.EscalationQuestion, Summary: "q2",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.ResolveEscalation(e1.ID); err != nil {
		t.Fatal(err)
	}

	open, err := s.UnresolvedEscalations()
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("unresolved = %d, want 1", len(open))
	}
	if open[0].ID != e2.ID {
		t.Errorf("unresolved id = %d, want %d", open[0].ID, e2.ID)
	}
}

func TestSessionEscalations(t *testing.T) {
	s := newTestStore(t)
	root := mkRoot(t, s, "root")
	child := mkChild(t, s, root.ID, "child")

	if _, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: child.ID, Type: hierarchy.EscalationQuestion, Summary: "mine",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RaiseEscalation(hierarchy.RaiseEscalationParams{
		SessionID: root.ID, Type: hierarchy.EscalationQuestion, Summary: "not mine",
	}); err != nil {
		t.Fatal(err)
	}

	mine, err := s.SessionEscalations(child.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 {
		t.Fatalf("len = %d, want 1", len(mine))
	}
	if mine[0].Summary != "mine" {
		t.Errorf("summary = %q", mine[0].Summary)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func TestParseTime(t *testing.T) {
	got, err := hierarchy.ParseTime("2026-08-30 12:34:56")
	if err != nil {
		t.Fatalf("ParseTime error: %v", err)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if got.Hour() != 12 || got.Minute() != 34 {
		t.Errorf("parsed = %v", got)
	}

	if _, err := hierarchy.ParseTime("not a time"); err == nil {
		t.Error("expected error for garbage input")
	}
}
