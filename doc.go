// Package usp implements a streaming client for speech-service
// endpoints that speak the USP WebSocket protocol.
//
// A client builder accumulates endpoint, authentication and query
// configuration, validates it synchronously, and produces a live
// Connection bound to a shared ThreadService. Audio is streamed in
// chunks; each chunk is framed as a length-prefixed binary message and
// queued for asynchronous transmission. Faults (connection failures,
// service redirects, handshake rejections) are normalized into
// cancellation codes and delivered through a consumer-implemented
// Callbacks sink on the thread service.
//
// # Quick Start
//
// Initialize a thread service, connect, and stream audio:
//
//	svc := usp.NewThreadService()
//	svc.Init()
//	defer svc.Term()
//
//	var auth usp.AuthenticationData
//	auth[usp.AuthenticationTypeSubscriptionKey] = "your-subscription-key"
//
//	conn, err := usp.NewClient(callbacks, usp.EndpointTypeSpeech, "", svc).
//	    SetRecognitionMode(usp.RecognitionModeInteractive).
//	    SetRegion("westus").
//	    SetAuthentication(auth).
//	    SetQueryParameter(usp.LangQueryParam, "en-us").
//	    Connect()
//	if err != nil {
//	    // Configuration errors (for example a malformed port) surface
//	    // here, before any network I/O.
//	}
//
//	conn.WriteAudio(usp.NewDataChunk(audioBytes))
//	conn.Close()
//
// # Callbacks
//
// Callbacks is an interface with a single required method:
//
//	type myCallbacks struct{}
//
//	func (myCallbacks) OnError(info *usp.ErrorInfo) {
//	    log.Printf("%s: %s", info.CancellationCode(), info.Details())
//	}
//
// Implementations may additionally satisfy ConnectedCallback,
// DisconnectedCallback and StateChangeCallback to receive the
// corresponding notifications. All callbacks for one connection are
// delivered serialized on the thread service.
//
// # Redirects
//
// A permanent service redirect fails the connection with
// CancellationErrorServiceRedirectPermanent; the caller must
// re-establish against the new endpoint. A temporary redirect is
// reported with CancellationErrorServiceRedirectTemporary and followed
// automatically up to SetMaxRedirects attempts (one by default).
//
// # TLS
//
// wss endpoints never negotiate below TLS 1.2, including when a custom
// TLS configuration is supplied through SetTLSConfig.
package usp
