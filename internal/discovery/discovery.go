// Package discovery implements the invocation engine's auto-discovery
// fallback (spec §4.5): scanning well-known external-runtime ports for a
// session whose working directory matches an agent's project path.
package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hyperslack/talkto/internal/opencode"
)

// WellKnownPorts is the scan range for locally running OpenCode-style
// session servers. Kept small and local-first, matching TalkTo's
// single-machine (optionally LAN) scope.
var WellKnownPorts = []int{4096, 4097, 4098, 4099, 4100}

// Match is a discovered (server_url, session_id) pair with the priority
// tier it matched at: 0 = exact, 1 = parent, 2 = child.
type Match struct {
	ServerURL string
	SessionID string
	Priority  int
}

// Discover scans the well-known ports on localhost, asking each for its
// session list, and returns the best match for projectPath by the
// exact > parent > child ordering spec §4.5 specifies. Trailing slashes
// are normalized before comparison.
func Discover(ctx context.Context, projectPath string) (*Match, error) {
	target := normalize(projectPath)

	var best *Match
	for _, port := range WellKnownPorts {
		serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
		client := opencode.New(serverURL)
		sessions, err := client.ListSessions(ctx)
		if err != nil {
			continue
		}
		for _, sess := range sessions {
			dir := normalize(sess.Directory)
			priority, ok := matchPriority(target, dir)
			if !ok {
				continue
			}
			if best == nil || priority < best.Priority {
				best = &Match{ServerURL: serverURL, SessionID: sess.ID, Priority: priority}
			}
		}
	}
	return best, nil
}

func normalize(p string) string {
	if p == "" {
		return p
	}
	return strings.TrimRight(filepath.Clean(p), "/")
}

// matchPriority returns (0, true) for an exact match, (1, true) when dir
// is an ancestor of target (target is a descendant — "parent" in spec
// wording), (2, true) when dir is a descendant of target ("child"), and
// (_, false) otherwise.
func matchPriority(target, dir string) (int, bool) {
	if target == "" || dir == "" {
		return 0, false
	}
	if target == dir {
		return 0, true
	}
	if rel, err := filepath.Rel(dir, target); err == nil && !strings.HasPrefix(rel, "..") {
		return 1, true
	}
	if rel, err := filepath.Rel(target, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return 2, true
	}
	return 0, false
}
