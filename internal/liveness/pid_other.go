//go:build !unix

package liveness

// pidAlive always reports false on non-unix platforms, where signal-0
// process probing is unavailable; such agents fall back to OS-session
// ghost status.
func pidAlive(pid int) bool {
	return false
}
