package usp

// Callbacks is the consumer-implemented sink for asynchronous fault
// notification. OnError is invoked at most once per distinct fault
// condition per connection, always on the thread service and never
// concurrently with another callback for the same connection.
//
// Implementations must not block indefinitely inside OnError.
type Callbacks interface {
	OnError(info *ErrorInfo)
}

// ConnectedCallback is an optional extension of Callbacks. When a
// consumer's Callbacks value also implements it, OnConnected is
// invoked once after a successful handshake.
type ConnectedCallback interface {
	OnConnected()
}

// DisconnectedCallback is an optional extension of Callbacks. When
// implemented, OnDisconnected is invoked when the service closes an
// established connection without a fault.
type DisconnectedCallback interface {
	OnDisconnected(reason string)
}

// StateChangeCallback is an optional extension of Callbacks. When
// implemented, OnStateChange is invoked for every connection state
// transition.
type StateChangeCallback interface {
	OnStateChange(oldState, newState State)
}
