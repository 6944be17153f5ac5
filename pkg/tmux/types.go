package tmux

// SessionInfo describes one tmux session as listed by the server.
type SessionInfo struct {
	// ID is tmux's own session id ("$3"). It is stable for the lifetime of
	// the session, unlike the name, and is what new sessions are told apart by.
	ID       string `json:"id"`
	Name     string `json:"name"`
	Windows  int    `json:"windows"`
	Attached bool   `json:"attached"`
}
