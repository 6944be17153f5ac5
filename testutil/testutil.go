// Package testutil holds helpers shared by tests that talk to a real tmux
// server.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os/exec"
	"testing"
)

// RequireTmux skips the test if tmux is not available
func RequireTmux(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not installed")
	}
}

// TmuxSocket returns a fresh socket name for a dedicated tmux server and
// kills that server when the test ends.
func TmuxSocket(t *testing.T) string {
	t.Helper()
	RequireTmux(t)

	socket := "termestra-test-" + RandomString(8)
	t.Cleanup(func() {
		// No server is running when the test never created a session.
		_ = exec.Command("tmux", "-L", socket, "kill-server").Run()
	})
	return socket
}

// RandomString generates a random hex string
func RandomString(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
