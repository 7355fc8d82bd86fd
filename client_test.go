package usp

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testAuth() AuthenticationData {
	var auth AuthenticationData
	auth[AuthenticationTypeSubscriptionKey] = "test"
	return auth
}

// --- Unit tests for State helpers ---

func TestStateIsActive(t *testing.T) {
	active := []State{StateCreated, StateHandshaking, StateStreaming, StateRedirecting}
	inactive := []State{StateClosed, StateFailed}

	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("expected %s to be active", s)
		}
	}
	for _, s := range inactive {
		if s.IsActive() {
			t.Errorf("expected %s to be inactive", s)
		}
	}
}

func TestStateIsTerminal(t *testing.T) {
	terminal := []State{StateClosed, StateFailed}
	nonTerminal := []State{StateCreated, StateHandshaking, StateStreaming, StateRedirecting}

	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

// --- Unit tests for Error types ---

func TestNewErrorWithCause(t *testing.T) {
	cause := NewError(ErrorStatusWebSocketError, "ws fail")
	err := NewErrorWithCause(ErrorStatusConfiguration, "bad endpoint", cause)
	if err.Unwrap() != cause {
		t.Error("Unwrap should return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the cause")
	}
}

func TestIsErrorStatus(t *testing.T) {
	err := NewError(ErrorStatusConfiguration, "test")
	if !IsErrorStatus(err, ErrorStatusConfiguration) {
		t.Error("expected IsErrorStatus to return true")
	}
	if IsErrorStatus(err, ErrorStatusInvalidState) {
		t.Error("expected IsErrorStatus to return false for different status")
	}
	if IsErrorStatus(errors.New("plain"), ErrorStatusConfiguration) {
		t.Error("expected IsErrorStatus to return false for untyped error")
	}
}

func TestErrorInfoAccessors(t *testing.T) {
	info := NewErrorInfo(CancellationErrorConnectionFailure, "Connection failed: refused")
	if info.CancellationCode() != CancellationErrorConnectionFailure {
		t.Errorf("unexpected code %s", info.CancellationCode())
	}
	if info.Details() != "Connection failed: refused" {
		t.Errorf("unexpected details %q", info.Details())
	}
}

// --- Unit tests for request ids ---

func TestNewRequestID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		if len(id) != 32 {
			t.Fatalf("expected 32 character request id, got %q", id)
		}
		if strings.Contains(id, "-") {
			t.Fatalf("request id must not contain dashes: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

// --- Unit tests for endpoint resolution ---

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		wantErr error
	}{
		{"plain ws", "ws://127.0.0.1/mytest", nil},
		{"explicit valid port", "ws://127.0.0.1:12345/mytest", nil},
		{"wss with port path and query", "wss://myserver:50/mydir/myapi?foo=bar", nil},
		{"non-numeric port", "ws://127.0.0.1:abc/mytest", ErrInvalidPort},
		{"port out of range", "ws://127.0.0.1:70000/mytest", ErrInvalidPort},
		{"port zero", "ws://127.0.0.1:0/mytest", ErrInvalidPort},
		{"http scheme", "http://127.0.0.1/mytest", ErrInvalidScheme},
		{"no host", "ws:///mytest", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := resolveEndpoint(tt.rawURL, nil)
			switch {
			case tt.name == "no host":
				if err == nil {
					t.Fatal("expected error for empty host")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if u == nil {
					t.Fatal("expected a parsed URL")
				}
			}
		})
	}
}

func TestResolveEndpointMergesQueryParameters(t *testing.T) {
	c := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", nil).
		SetQueryParameter(LangQueryParam, "en-us").
		SetQueryParameter(FormatQueryParam, "simple").
		SetQueryParameter(FormatQueryParam, "detailed")

	u, err := resolveEndpoint("wss://myserver/myapi?foo=bar", c.queryParams)
	if err != nil {
		t.Fatalf("resolveEndpoint failed: %v", err)
	}

	q := u.Query()
	if q.Get("foo") != "bar" {
		t.Errorf("existing query parameter lost: %v", q)
	}
	if q.Get(LangQueryParam) != "en-us" {
		t.Errorf("expected language=en-us, got %q", q.Get(LangQueryParam))
	}
	if got := q[FormatQueryParam]; len(got) != 1 || got[0] != "detailed" {
		t.Errorf("repeated SetQueryParameter should replace, got %v", got)
	}
}

func TestBuildEndpointURL(t *testing.T) {
	tests := []struct {
		endpointType EndpointType
		mode         RecognitionMode
		want         string
	}{
		{EndpointTypeSpeech, RecognitionModeInteractive,
			"wss://westus.stt.speech.microsoft.com/speech/recognition/interactive/cognitiveservices/v1"},
		{EndpointTypeSpeech, RecognitionModeConversation,
			"wss://westus.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1"},
		{EndpointTypeSpeech, RecognitionModeDictation,
			"wss://westus.stt.speech.microsoft.com/speech/recognition/dictation/cognitiveservices/v1"},
		{EndpointTypeTranslation, RecognitionModeInteractive,
			"wss://westus.s2s.speech.microsoft.com/speech/translation/cognitiveservices/v1"},
	}

	for _, tt := range tests {
		if got := buildEndpointURL("westus", tt.endpointType, tt.mode); got != tt.want {
			t.Errorf("buildEndpointURL(%s, %s) = %q, want %q", tt.endpointType, tt.mode, got, tt.want)
		}
	}
}

// --- Unit tests for the builder ---

type nopCallbacks struct{}

func (nopCallbacks) OnError(*ErrorInfo) {}

func TestConnectRejectsInvalidPort(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	_, err := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", svc).
		SetRegion("westus").
		SetEndpointURL("ws://127.0.0.1:abc/mytest").
		SetAuthentication(testAuth()).
		Connect()

	if err == nil {
		t.Fatal("expected Connect to fail synchronously for a malformed port")
	}
	if !errors.Is(err, ErrInvalidPort) {
		t.Errorf("expected ErrInvalidPort, got %v", err)
	}
	if !strings.Contains(err.Error(), "Port is not valid") {
		t.Errorf("error should identify the port as invalid, got %q", err.Error())
	}
}

func TestConnectRequiresAuthentication(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	_, err := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", svc).
		SetEndpointURL("ws://127.0.0.1:12345/mytest").
		Connect()
	if !errors.Is(err, ErrNoAuthentication) {
		t.Errorf("expected ErrNoAuthentication without credentials, got %v", err)
	}

	var two AuthenticationData
	two[AuthenticationTypeSubscriptionKey] = "key"
	two[AuthenticationTypeAuthorizationToken] = "token"
	_, err = NewClient(nopCallbacks{}, EndpointTypeSpeech, "", svc).
		SetEndpointURL("ws://127.0.0.1:12345/mytest").
		SetAuthentication(two).
		Connect()
	if !errors.Is(err, ErrNoAuthentication) {
		t.Errorf("expected ErrNoAuthentication for two populated slots, got %v", err)
	}
}

func TestConnectConsumesBuilder(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	client := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", svc).
		SetEndpointURL("ws://127.0.0.1:abc/mytest").
		SetAuthentication(testAuth())

	if _, err := client.Connect(); err == nil {
		t.Fatal("expected first Connect to fail on the malformed port")
	}
	if _, err := client.Connect(); !errors.Is(err, ErrClientConsumed) {
		t.Errorf("expected ErrClientConsumed on reuse, got %v", err)
	}
}

func TestSetterRangeChecks(t *testing.T) {
	svc := NewThreadService()
	if err := svc.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer svc.Term()

	_, err := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", svc).
		SetRecognitionMode(RecognitionMode(99)).
		SetEndpointURL("ws://127.0.0.1:12345/mytest").
		SetAuthentication(testAuth()).
		Connect()
	if !IsErrorStatus(err, ErrorStatusConfiguration) {
		t.Errorf("expected configuration error for out-of-range mode, got %v", err)
	}

	_, err = NewClient(nopCallbacks{}, EndpointType(99), "", svc).
		SetEndpointURL("ws://127.0.0.1:12345/mytest").
		SetAuthentication(testAuth()).
		Connect()
	if !IsErrorStatus(err, ErrorStatusConfiguration) {
		t.Errorf("expected configuration error for out-of-range endpoint type, got %v", err)
	}
}

func TestClientDefaults(t *testing.T) {
	c := NewClient(nopCallbacks{}, EndpointTypeSpeech, "", nil)

	if c.connectTimeout != DefaultConnectTimeout {
		t.Errorf("expected default connect timeout, got %v", c.connectTimeout)
	}
	if c.writeTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", c.writeTimeout)
	}
	if c.queueSize != DefaultQueueSize {
		t.Errorf("expected default queue size, got %d", c.queueSize)
	}
	if c.maxRedirects != DefaultMaxRedirects {
		t.Errorf("expected default max redirects, got %d", c.maxRedirects)
	}
	if c.connectionID == "" {
		t.Error("expected a generated connection id")
	}

	c.SetConnectTimeout(3 * time.Second).SetQueueSize(5).SetMaxRedirects(0)
	if c.connectTimeout != 3*time.Second || c.queueSize != 5 || c.maxRedirects != 0 {
		t.Error("tuning setters did not apply")
	}
}
