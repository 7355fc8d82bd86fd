package usp

// EndpointType selects the service route a connection is established
// against. It influences both the derived endpoint URL and the query
// parameters the service expects.
type EndpointType int

const (
	EndpointTypeSpeech EndpointType = iota
	EndpointTypeTranslation
	EndpointTypeIntent
	EndpointTypeDialog

	numEndpointTypes
)

// String returns the string representation of the endpoint type.
func (t EndpointType) String() string {
	switch t {
	case EndpointTypeSpeech:
		return "Speech"
	case EndpointTypeTranslation:
		return "Translation"
	case EndpointTypeIntent:
		return "Intent"
	case EndpointTypeDialog:
		return "Dialog"
	default:
		return "Unknown"
	}
}

// RecognitionMode is the session hint sent during the handshake. It
// selects the recognition path segment of derived Speech endpoints.
type RecognitionMode int

const (
	RecognitionModeInteractive RecognitionMode = iota
	RecognitionModeConversation
	RecognitionModeDictation

	numRecognitionModes
)

// String returns the string representation of the recognition mode.
func (m RecognitionMode) String() string {
	switch m {
	case RecognitionModeInteractive:
		return "Interactive"
	case RecognitionModeConversation:
		return "Conversation"
	case RecognitionModeDictation:
		return "Dictation"
	default:
		return "Unknown"
	}
}

// pathSegment returns the URL path segment for derived endpoints.
func (m RecognitionMode) pathSegment() string {
	switch m {
	case RecognitionModeConversation:
		return "conversation"
	case RecognitionModeDictation:
		return "dictation"
	default:
		return "interactive"
	}
}

// AuthenticationType indexes the fixed-size authentication slot array.
// Exactly one slot must hold a non-empty credential per connection.
type AuthenticationType int

const (
	AuthenticationTypeSubscriptionKey AuthenticationType = iota
	AuthenticationTypeAuthorizationToken
	AuthenticationTypeDelegationToken

	// NumAuthenticationTypes is the size of the authentication slot
	// array passed to SetAuthentication.
	NumAuthenticationTypes
)

// AuthenticationData is the fixed-size credential mapping consumed by
// Client.SetAuthentication, indexed by AuthenticationType.
type AuthenticationData [NumAuthenticationTypes]string

// MessageType tags a framed message on the wire.
type MessageType uint8

const (
	MessageTypeConfig MessageType = iota
	MessageTypeContext
	MessageTypeAgent
	MessageTypeSpeechEvent
	MessageTypeEvent
	MessageTypeAudio
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageTypeConfig:
		return "Config"
	case MessageTypeContext:
		return "Context"
	case MessageTypeAgent:
		return "Agent"
	case MessageTypeSpeechEvent:
		return "SpeechEvent"
	case MessageTypeEvent:
		return "Event"
	case MessageTypeAudio:
		return "Audio"
	default:
		return "Unknown"
	}
}

// Well-known query parameter names accepted by the service.
const (
	LangQueryParam   = "language"
	FormatQueryParam = "format"
)

// DataChunk is an immutable audio buffer handed to WriteAudio. The
// buffer is shared between the producer and the serialization path
// until transmission completes and must not be mutated after creation.
type DataChunk struct {
	data []byte
}

// NewDataChunk wraps data in a chunk. Ownership of the slice passes to
// the chunk; the caller must not modify it afterwards.
func NewDataChunk(data []byte) *DataChunk {
	return &DataChunk{data: data}
}

// Bytes returns the chunk contents. The returned slice is read-only.
func (c *DataChunk) Bytes() []byte {
	return c.data
}

// Size returns the number of bytes in the chunk.
func (c *DataChunk) Size() int {
	return len(c.data)
}
