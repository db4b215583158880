package mcp

import (
	"context"
	"os"
	"time"

	"bugrelay/internal/logging"
)

// WatchParent monitors for parent process death in a background goroutine.
// MCP servers are spawned by the runner over stdio; when the parent PID
// changes the runner is gone and the server must shut down instead of
// lingering as a zombie.
//
// This must NOT read from stdin — the SDK's StdioTransport owns stdin
// exclusively, and stealing bytes would corrupt the JSON-RPC stream.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					logging.New("mcp").Warn("parent process died, initiating shutdown", "was_pid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
}
