// Hive: Multi-Agent Coordination MCP Server
//
// An MCP server that lets AI coding agents spawn, track, and coordinate
// sub-agents through a shared session hierarchy. Agents delegate work with
// spawn_agent, share decisions and artifacts tree-wide, escalate questions
// to their parent, and report status — while the operator watches the whole
// hive through the attention tool.
//
// Usage:
//
//	hive serve    # Start MCP server (stdio transport)
//	hive update   # Update to the latest version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/agenthive/hive/internal/agent"
	"github.com/agenthive/hive/internal/hierarchy"
	hiveserver "github.com/agenthive/hive/internal/server"
	"github.com/agenthive/hive/internal/updater"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "update":
		runUpdate()
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("hive v%s\n", hiveserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := hiveserver.New(hiveserver.Options{
		Store:  storeConfigFromEnv(),
		Runner: runnerFromEnv(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Background version check — prints to stderr so it doesn't
	// interfere with MCP's stdio transport on stdout.
	go checkForUpdates()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

// storeConfigFromEnv builds the store configuration, applying HIVE_*
// environment overrides on top of the defaults.
func storeConfigFromEnv() hierarchy.Config {
	cfg := hierarchy.DefaultConfig()

	if dir := os.Getenv("HIVE_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if raw := os.Getenv("HIVE_MAX_DEPTH"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.MaxDepth = n
		}
	}
	if raw := os.Getenv("HIVE_WAITING_THRESHOLD"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.WaitingThreshold = d
		}
	}
	return cfg
}

// runnerFromEnv picks the agent runner. HIVE_AGENT_CMD names the command
// (plus any leading arguments) used to launch spawned agents; without it,
// sessions are tracked but no process is started.
func runnerFromEnv() agent.Runner {
	raw := os.Getenv("HIVE_AGENT_CMD")
	if raw == "" {
		return agent.NopRunner{}
	}
	fields := strings.Fields(raw)
	return agent.NewExecRunner(fields[0], fields[1:]...)
}

// checkForUpdates runs a non-blocking version check and prints a notice
// to stderr if an update is available. This runs in a goroutine during
// "serve" and is best-effort — network failures are silently ignored.
func checkForUpdates() {
	result := updater.CheckVersion(hiveserver.Version)
	if result.UpdateAvailable {
		fmt.Fprintf(os.Stderr,
			"\n  📦 Update available: v%s → v%s\n"+
				"     Run: hive update\n"+
				"     Release: %s\n\n",
			result.CurrentVersion, result.LatestVersion, result.ReleaseURL,
		)
	}
}

// runUpdate performs a self-update to the latest version.
func runUpdate() {
	fmt.Fprintf(os.Stderr, "🔍 Checking for updates...\n")

	result := updater.CheckVersion(hiveserver.Version)
	if !result.UpdateAvailable {
		fmt.Fprintf(os.Stderr, "✅ Already at the latest version (v%s)\n", result.CurrentVersion)
		return
	}

	fmt.Fprintf(os.Stderr, "📦 New version available: v%s → v%s\n", result.CurrentVersion, result.LatestVersion)
	fmt.Fprintf(os.Stderr, "⬇️  Downloading...\n")

	if err := updater.SelfUpdate(hiveserver.Version); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Update failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\n   You can download manually from:\n   %s\n", result.ReleaseURL)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✅ Updated to v%s!\n", result.LatestVersion)
	fmt.Fprintf(os.Stderr, "   Restart hive to use the new version.\n")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Hive v%s — Multi-Agent Coordination MCP Server

Usage:
  hive serve    Start the MCP server (stdio transport)
  hive update   Update to the latest version

Environment:
  HIVE_DATA_DIR           Where the session database lives (default ~/.hive)
  HIVE_MAX_DEPTH          Maximum nesting depth for spawned agents (default 3)
  HIVE_WAITING_THRESHOLD  How long 'waiting' is tolerated before the session
                          is flagged for attention, e.g. 15m (default 10m)
  HIVE_AGENT_CMD          Command used to launch spawned agents; when unset,
                          sessions are tracked without starting a process

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "hive": {
        "command": "hive",
        "args": ["serve"]
      }
    }
  }

Learn more: https://github.com/agenthive/hive
`, hiveserver.Version)
}
