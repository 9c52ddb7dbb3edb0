// Package agent provides the boundary to the external agent execution
// engine. The hierarchy store never blocks on an agent run: spawn creates
// the session row, hands the session to a Runner, and returns as soon as
// the launch succeeds (fire-and-continue — callers poll status afterwards).
package agent

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"

	"github.com/agenthive/hive/internal/hierarchy"
)

// Runner starts an agent execution for a freshly spawned session.
// Implementations must return once the execution has been handed off;
// they must not wait for the agent to finish.
type Runner interface {
	Start(ctx context.Context, sess hierarchy.Session) error
}

// ExecRunner launches the configured agent command as a detached child
// process, passing the session identity through the environment. The agent
// process is expected to connect back over MCP and self-report via the
// coordination tools.
type ExecRunner struct {
	// Command is the agent executable, e.g. "claude".
	Command string
	// Args are passed before the task description.
	Args []string
	// Dir is the working directory for the child, empty for inherit.
	Dir string
}

// NewExecRunner creates an ExecRunner for the given command line.
func NewExecRunner(command string, args ...string) *ExecRunner {
	return &ExecRunner{Command: command, Args: args}
}

// Start launches the agent process and returns without waiting for it.
// A goroutine reaps the process so it never zombies.
func (r *ExecRunner) Start(ctx context.Context, sess hierarchy.Session) error {
	if r.Command == "" {
		return fmt.Errorf("agent runner: no command configured")
	}

	args := append([]string(nil), r.Args...)
	args = append(args, sess.Task)

	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Dir = r.Dir
	cmd.Env = append(cmd.Environ(),
		"HIVE_SESSION_ID="+sess.ID,
		"HIVE_ROOT_ID="+sess.RootID,
		"HIVE_ROLE="+sess.Role,
		"HIVE_AGENT_TYPE="+sess.AgentType,
	)
	if sess.Model != nil {
		cmd.Env = append(cmd.Env, "HIVE_MODEL="+*sess.Model)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("agent runner: start %q: %w", r.Command, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("WARNING: agent process for session %s exited: %v", sess.ID, err)
		}
	}()

	return nil
}

// NopRunner is a Runner that does nothing. Used when the surrounding
// runtime spawns agent executions itself and hive only does bookkeeping.
type NopRunner struct{}

// Start is a no-op.
func (NopRunner) Start(ctx context.Context, sess hierarchy.Session) error {
	return nil
}

// RecordingRunner captures started sessions for tests.
type RecordingRunner struct {
	mu      sync.Mutex
	Started []hierarchy.Session
	// Err, when set, is returned from Start.
	Err error
}

// Start records the session and returns Err.
func (r *RecordingRunner) Start(ctx context.Context, sess hierarchy.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, sess)
	return r.Err
}

// StartedIDs returns the ids of sessions handed to Start, in order.
func (r *RecordingRunner) StartedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, len(r.Started))
	for i, s := range r.Started {
		ids[i] = s.ID
	}
	return ids
}

var (
	_ Runner = (*ExecRunner)(nil)
	_ Runner = NopRunner{}
	_ Runner = (*RecordingRunner)(nil)
)
