package hierarchy

import "fmt"

// ListDescendants returns the subtree rooted at sessionID in breadth-first
// order, starting with the session itself. The result is a snapshot of the
// tree at call time, not a live cursor.
func (s *Store) ListDescendants(sessionID string) ([]Session, error) {
	root, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := []Session{*root}
	queue := []string{root.ID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		children, err := s.ListChildren(current)
		if err != nil {
			return nil, fmt.Errorf("list descendants of %q: %w", sessionID, err)
		}
		for _, child := range children {
			result = append(result, child)
			queue = append(queue, child.ID)
		}
	}

	return result, nil
}

// Parent returns the parent of a session, or nil for a root session.
func (s *Store) Parent(sessionID string) (*Session, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParentID == nil {
		return nil, nil
	}
	return s.GetSession(*sess.ParentID)
}

// Siblings returns the other children of a session's parent, oldest first.
// A root session has no siblings.
func (s *Store) Siblings(sessionID string) ([]Session, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ParentID == nil {
		return nil, nil
	}

	children, err := s.ListChildren(*sess.ParentID)
	if err != nil {
		return nil, err
	}

	siblings := children[:0:0]
	for _, c := range children {
		if c.ID != sess.ID {
			siblings = append(siblings, c)
		}
	}
	return siblings, nil
}
