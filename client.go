package usp

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultConnectTimeout  = 15 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultQueueSize       = 1000
	DefaultMaxRedirects    = 1
	DefaultStreamChunkSize = 8192
)

// NewRequestID returns a fresh request id in the service's wire format
// (a UUID without dashes).
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Client accumulates connection configuration and produces a live
// Connection on Connect. Setters chain; the builder is consumed by
// Connect and must not be reused afterwards. A Client is not safe for
// concurrent use.
type Client struct {
	callbacks    Callbacks
	endpointType EndpointType
	connectionID string
	svc          *ThreadService

	mode        RecognitionMode
	region      string
	endpointURL string
	auth        AuthenticationData
	queryParams url.Values

	connectTimeout time.Duration
	writeTimeout   time.Duration
	queueSize      int
	maxRedirects   int
	tlsConfig      *tls.Config

	consumed bool
	err      error
}

// NewClient creates a builder bound to callbacks and a thread service.
// An empty connectionID is replaced with a fresh one.
func NewClient(callbacks Callbacks, endpointType EndpointType, connectionID string, svc *ThreadService) *Client {
	if connectionID == "" {
		connectionID = NewRequestID()
	}
	c := &Client{
		callbacks:      callbacks,
		connectionID:   connectionID,
		svc:            svc,
		queryParams:    url.Values{},
		connectTimeout: DefaultConnectTimeout,
		writeTimeout:   DefaultWriteTimeout,
		queueSize:      DefaultQueueSize,
		maxRedirects:   DefaultMaxRedirects,
	}
	return c.SetEndpointType(endpointType)
}

// SetRecognitionMode sets the recognition mode used for derived
// endpoints.
func (c *Client) SetRecognitionMode(mode RecognitionMode) *Client {
	if mode < 0 || mode >= numRecognitionModes {
		c.setErr(NewError(ErrorStatusConfiguration, "recognition mode out of range"))
		return c
	}
	c.mode = mode
	return c
}

// SetRegion sets the service region used for derived endpoints.
func (c *Client) SetRegion(region string) *Client {
	c.region = region
	return c
}

// SetEndpointType sets the service route.
func (c *Client) SetEndpointType(endpointType EndpointType) *Client {
	if endpointType < 0 || endpointType >= numEndpointTypes {
		c.setErr(NewError(ErrorStatusConfiguration, "endpoint type out of range"))
		return c
	}
	c.endpointType = endpointType
	return c
}

// SetEndpointURL sets an explicit endpoint URL, overriding the
// region-derived one.
func (c *Client) SetEndpointURL(endpointURL string) *Client {
	c.endpointURL = endpointURL
	return c
}

// SetAuthentication supplies the credential slots. Exactly one slot
// must be non-empty by the time Connect is called.
func (c *Client) SetAuthentication(auth AuthenticationData) *Client {
	c.auth = auth
	return c
}

// SetQueryParameter sets one endpoint query parameter. Setting the
// same key again replaces the previous value.
func (c *Client) SetQueryParameter(key, value string) *Client {
	c.queryParams.Set(key, value)
	return c
}

// SetConnectTimeout bounds the TLS and WebSocket handshake.
func (c *Client) SetConnectTimeout(d time.Duration) *Client {
	if d > 0 {
		c.connectTimeout = d
	}
	return c
}

// SetWriteTimeout bounds each outbound frame write.
func (c *Client) SetWriteTimeout(d time.Duration) *Client {
	if d > 0 {
		c.writeTimeout = d
	}
	return c
}

// SetQueueSize bounds the outbound message queue of the connection.
func (c *Client) SetQueueSize(n int) *Client {
	if n > 0 {
		c.queueSize = n
	}
	return c
}

// SetMaxRedirects caps automatic reconnect attempts after a temporary
// service redirect.
func (c *Client) SetMaxRedirects(n int) *Client {
	if n >= 0 {
		c.maxRedirects = n
	}
	return c
}

// SetTLSConfig supplies a TLS configuration for wss endpoints, for
// example to pin custom roots. The connection still enforces TLS 1.2
// as the minimum negotiated version.
func (c *Client) SetTLSConfig(cfg *tls.Config) *Client {
	c.tlsConfig = cfg
	return c
}

func (c *Client) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Connect validates the configuration and returns a live Connection
// bound to the thread service. Validation is synchronous: a malformed
// endpoint fails here and never reaches the network layer. The TLS and
// WebSocket handshake proceeds asynchronously after Connect returns;
// handshake faults are delivered through Callbacks.OnError.
func (c *Client) Connect() (*Connection, error) {
	if c.consumed {
		return nil, ErrClientConsumed
	}
	c.consumed = true

	if c.err != nil {
		return nil, c.err
	}

	rawURL := c.endpointURL
	if rawURL == "" {
		rawURL = buildEndpointURL(c.region, c.endpointType, c.mode)
	}
	endpoint, err := resolveEndpoint(rawURL, c.queryParams)
	if err != nil {
		return nil, err
	}

	authType, credential, err := c.resolveAuthentication()
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("X-ConnectionId", c.connectionID)
	switch authType {
	case AuthenticationTypeSubscriptionKey:
		headers.Set("Ocp-Apim-Subscription-Key", credential)
	case AuthenticationTypeAuthorizationToken:
		headers.Set("Authorization", "Bearer "+credential)
	case AuthenticationTypeDelegationToken:
		headers.Set("X-Search-DelegationRPSToken", credential)
	}

	conn := newConnection(c.svc, connectionConfig{
		endpoint:       endpoint,
		headers:        headers,
		callbacks:      c.callbacks,
		connectionID:   c.connectionID,
		connectTimeout: c.connectTimeout,
		writeTimeout:   c.writeTimeout,
		queueSize:      c.queueSize,
		maxRedirects:   c.maxRedirects,
		tlsConfig:      c.tlsConfig,
	})
	if err := conn.start(); err != nil {
		return nil, err
	}
	return conn, nil
}

// resolveAuthentication picks the populated credential slot. Exactly
// one non-empty slot is required.
func (c *Client) resolveAuthentication() (AuthenticationType, string, error) {
	found := AuthenticationType(-1)
	for i, credential := range c.auth {
		if credential == "" {
			continue
		}
		if found >= 0 {
			return 0, "", ErrNoAuthentication
		}
		found = AuthenticationType(i)
	}
	if found < 0 {
		return 0, "", ErrNoAuthentication
	}
	return found, c.auth[found], nil
}
