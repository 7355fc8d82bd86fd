package usp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message paths used on the wire.
const (
	audioMessagePath  = "audio"
	configMessagePath = "speech.config"
)

// speechConfigBody is the context payload announced after a successful
// handshake, before any audio.
const speechConfigBody = `{"context":{"system":{"name":"usp-go","version":"1.0.0"}}}`

type connectionConfig struct {
	endpoint       *url.URL
	headers        http.Header
	callbacks      Callbacks
	connectionID   string
	connectTimeout time.Duration
	writeTimeout   time.Duration
	queueSize      int
	maxRedirects   int
	tlsConfig      *tls.Config
}

// Connection is one live session to the service. It owns the transport
// handle and a bounded outbound queue of framed messages. Audio writes
// never block the caller on network I/O; all I/O and callback delivery
// run serialized on the thread service the connection is bound to.
type Connection struct {
	cfg    connectionConfig
	strand *strand

	mu      sync.RWMutex
	state   State
	conn    *websocket.Conn
	pending int
}

func newConnection(svc *ThreadService, cfg connectionConfig) *Connection {
	return &Connection{
		cfg:    cfg,
		strand: newStrand(svc),
		state:  StateCreated,
	}
}

// start schedules the asynchronous handshake. It fails only when the
// thread service is not accepting work.
func (c *Connection) start() error {
	return c.strand.post(c.open)
}

// State returns the current connection state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) setState(newState State) {
	c.mu.Lock()
	oldState := c.state
	if oldState == newState || oldState.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.state = newState
	c.mu.Unlock()

	if cb, ok := c.cfg.callbacks.(StateChangeCallback); ok {
		cb.OnStateChange(oldState, newState)
	}
}

// WriteAudio frames chunk as a binary message with a fresh request id
// and enqueues it for transmission. The call returns after queuing;
// chunk order from a single caller is preserved FIFO. After the
// connection reaches a terminal state the chunk is rejected without
// side effects.
func (c *Connection) WriteAudio(chunk *DataChunk) error {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	if c.pending >= c.cfg.queueSize {
		c.mu.Unlock()
		return ErrQueueLimitExceeded
	}
	c.pending++
	c.mu.Unlock()

	msg, err := NewBinaryMessage(chunk.Size(), audioMessagePath, MessageTypeAudio, NewRequestID())
	if err != nil {
		c.release()
		return err
	}
	copy(msg.Data(), chunk.Bytes())
	frame, _ := msg.Serialize()

	if err := c.strand.post(func() {
		defer c.release()
		c.writeFrame(frame)
	}); err != nil {
		c.release()
		return err
	}
	return nil
}

// WriteStream reads from r and writes audio chunks until EOF.
func (c *Connection) WriteStream(r io.Reader, opts ...WriteStreamOptions) error {
	var opt WriteStreamOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = DefaultStreamChunkSize
	}

	buf := make([]byte, opt.ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if writeErr := c.WriteAudio(NewDataChunk(chunk)); writeErr != nil {
				return writeErr
			}
			if opt.PaceInterval > 0 {
				time.Sleep(opt.PaceInterval)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// WriteStreamOptions tunes WriteStream.
type WriteStreamOptions struct {
	ChunkSize    int
	PaceInterval time.Duration
}

// Close terminates the connection: pending writes already queued are
// drained best-effort, then the transport handle is released. Further
// WriteAudio calls are rejected. Close is idempotent.
func (c *Connection) Close() error {
	if err := c.strand.post(c.doClose); err != nil {
		// Thread service already stopped; release the socket inline.
		c.doClose()
	}
	return nil
}

func (c *Connection) release() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
}

// open runs on the strand: it performs the handshake and, on success,
// announces the speech.config context and starts the read loop.
func (c *Connection) open() {
	c.setState(StateHandshaking)
	c.dial(c.cfg.endpoint.String(), 0)
}

func (c *Connection) dial(endpoint string, attempt int) {
	if c.State().IsTerminal() {
		return
	}

	tlsCfg := c.cfg.tlsConfig.Clone()
	if tlsCfg == nil {
		tlsCfg = &tls.Config{}
	}
	if tlsCfg.MinVersion < tls.VersionTLS12 {
		// Never negotiate below TLS 1.2, even with a caller-supplied
		// TLS configuration.
		tlsCfg.MinVersion = tls.VersionTLS12
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.connectTimeout,
		TLSClientConfig:  tlsCfg,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				tc.SetNoDelay(true)
			}
			return conn, nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.connectTimeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, endpoint, c.cfg.headers)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.handleDialFailure(resp, err, attempt)
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.sendSpeechConfig(conn); err != nil {
		c.fail(CancellationErrorConnectionFailure, fmt.Sprintf("Connection failed: could not send speech.config: %v", err))
		return
	}

	c.setState(StateStreaming)
	if cb, ok := c.cfg.callbacks.(ConnectedCallback); ok {
		cb.OnConnected()
	}

	go c.readLoop(conn)
}

// handleDialFailure normalizes a handshake failure. Redirect responses
// get their dedicated cancellation codes; a temporary redirect is
// retried once per configured attempt against the alternate endpoint
// before escalating. Everything else becomes a connection failure.
func (c *Connection) handleDialFailure(resp *http.Response, err error, attempt int) {
	if resp == nil {
		c.fail(CancellationErrorConnectionFailure, fmt.Sprintf("Connection failed: %v", err))
		return
	}

	code := mapHandshakeStatus(resp.StatusCode)
	location := resp.Header.Get("Location")

	switch code {
	case CancellationErrorServiceRedirectPermanent:
		details := fmt.Sprintf("Connection was redirected permanently (HTTP %d)", resp.StatusCode)
		if location != "" {
			details += " to " + location
		}
		c.fail(code, details)

	case CancellationErrorServiceRedirectTemporary:
		details := fmt.Sprintf("Connection was redirected temporarily (HTTP %d)", resp.StatusCode)
		if location != "" {
			details += " to " + location
		}
		c.notify(NewErrorInfo(code, details))

		if location != "" && attempt < c.cfg.maxRedirects {
			c.setState(StateRedirecting)
			c.dial(location, attempt+1)
			return
		}
		c.fail(CancellationErrorConnectionFailure,
			fmt.Sprintf("Connection failed: temporary redirect not followed (HTTP %d)", resp.StatusCode))

	default:
		c.fail(code, fmt.Sprintf("Connection failed: service returned HTTP %d: %v", resp.StatusCode, err))
	}
}

// sendSpeechConfig sends the speech.config text message (header block,
// blank line, JSON body).
func (c *Connection) sendSpeechConfig(conn *websocket.Conn) error {
	msg := "Path: " + configMessagePath + "\r\n" +
		"X-ConnectionId: " + c.cfg.connectionID + "\r\n" +
		"X-RequestId: " + NewRequestID() + "\r\n" +
		"X-Timestamp: " + time.Now().UTC().Format(time.RFC3339Nano) + "\r\n" +
		"Content-Type: application/json; charset=utf-8\r\n" +
		"\r\n" +
		speechConfigBody

	conn.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// writeFrame runs on the strand. Frames queued behind a failed or
// closed connection are dropped silently.
func (c *Connection) writeFrame(frame []byte) {
	c.mu.RLock()
	state := c.state
	conn := c.conn
	c.mu.RUnlock()

	if state != StateStreaming || conn == nil {
		return
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.fail(CancellationErrorConnectionFailure, fmt.Sprintf("Connection failed: write error: %v", err))
	}
}

// readLoop consumes service messages until the socket drops. Result
// decoding is out of scope for this layer; the loop exists to observe
// the connection health. Faults are handed back to the strand.
func (c *Connection) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			c.strand.post(func() {
				c.handleReadError(err)
			})
			return
		}
	}
}

func (c *Connection) handleReadError(err error) {
	if c.State().IsTerminal() {
		return
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.closeSocket()
		c.setState(StateClosed)
		if cb, ok := c.cfg.callbacks.(DisconnectedCallback); ok {
			cb.OnDisconnected(err.Error())
		}
		return
	}

	c.fail(CancellationErrorConnectionFailure, fmt.Sprintf("Connection failed: %v", err))
}

// fail transitions to Failed and delivers exactly one OnError for the
// fault. It only ever runs on the strand.
func (c *Connection) fail(code CancellationErrorCode, details string) {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.closeSocket()
	c.setState(StateFailed)
	c.notify(NewErrorInfo(code, details))
}

// notify delivers one callback invocation on the strand.
func (c *Connection) notify(info *ErrorInfo) {
	c.cfg.callbacks.OnError(info)
}

func (c *Connection) doClose() {
	c.mu.Lock()
	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	}
	c.closeSocket()
	c.setState(StateClosed)
}

func (c *Connection) closeSocket() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
