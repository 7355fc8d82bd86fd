package usp

// State represents the current state of a Connection.
type State string

const (
	// StateCreated is the initial state: the connection handle exists
	// but no I/O has been issued yet.
	StateCreated State = "Created"

	// StateHandshaking indicates the TLS and WebSocket handshake is in
	// flight on the thread service.
	StateHandshaking State = "Handshaking"

	// StateStreaming indicates the connection is established and audio
	// chunks are accepted for transmission.
	StateStreaming State = "Streaming"

	// StateRedirecting indicates the service answered the handshake
	// with a temporary redirect and a reconnect attempt is in flight.
	StateRedirecting State = "Redirecting"

	// StateClosed indicates the connection was terminated explicitly.
	StateClosed State = "Closed"

	// StateFailed indicates an unrecoverable fault; the fault has been
	// reported through Callbacks.OnError.
	StateFailed State = "Failed"
)

// IsActive returns true if the state allows audio to be accepted.
func (s State) IsActive() bool {
	switch s {
	case StateCreated, StateHandshaking, StateStreaming, StateRedirecting:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the state cannot transition further.
func (s State) IsTerminal() bool {
	switch s {
	case StateClosed, StateFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
