// Package hookcfg holds the pieces of hook registration shared by every
// provider: the callback command builder and the pure replace-or-append
// merge used when writing a tool's hook config.
package hookcfg

import (
	"fmt"
	"strings"
)

// Markers identifying an entry this system previously wrote. Registered
// callbacks always target the loopback ingestion server under /hook/, so
// an entry containing both fragments is ours and is replaced on rewrite.
const (
	hostMarker = "http://127.0.0.1:"
	pathMarker = "/hook/"
)

// NonceHeader is the request header carrying the per-spawn secret.
const NonceHeader = "X-Clubhouse-Nonce"

// CallbackURL builds the ingestion URL for one agent and event category.
// The category doubles as the event hint path segment for tools whose
// payloads omit the event name.
func CallbackURL(endpoint, agentID, category string) string {
	return fmt.Sprintf("%s/hook/%s/%s", strings.TrimSuffix(endpoint, "/"), agentID, category)
}

// CallbackCommand builds the shell command a tool's hook entry runs: POST
// stdin to the ingestion server with the nonce header.
func CallbackCommand(endpoint, agentID, category, nonce string) string {
	return fmt.Sprintf(
		"curl -s -X POST -H 'Content-Type: application/json' -H '%s: %s' --data-binary @- %s",
		NonceHeader, nonce, CallbackURL(endpoint, agentID, category),
	)
}

// CallbackArgv is CallbackCommand as an argv array, for tools whose hook
// entries take command arrays instead of shell strings.
func CallbackArgv(endpoint, agentID, category, nonce string) []string {
	return []string{
		"curl", "-s", "-X", "POST",
		"-H", "Content-Type: application/json",
		"-H", NonceHeader + ": " + nonce,
		"--data-binary", "@-",
		CallbackURL(endpoint, agentID, category),
	}
}

// IsOwnCommand reports whether a hook command string was written by this
// system.
func IsOwnCommand(command string) bool {
	return strings.Contains(command, hostMarker) && strings.Contains(command, pathMarker)
}

// Merge returns existing with every entry recognized by isOwn removed and
// fresh appended. User-authored entries keep their positions. This is the
// whole idempotence guarantee: rewriting a category replaces the stale
// registration instead of accumulating duplicates.
func Merge(existing []any, fresh any, isOwn func(entry any) bool) []any {
	merged := make([]any, 0, len(existing)+1)
	for _, entry := range existing {
		if isOwn(entry) {
			continue
		}
		merged = append(merged, entry)
	}
	return append(merged, fresh)
}
