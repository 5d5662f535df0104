package testutil

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cory-johannsen/dogfight/internal/protocol"
)

// WSClient is a WebSocket test client speaking the relay's JSON envelopes.
type WSClient struct {
	conn    *websocket.Conn
	t       *testing.T
	nextAck int64
}

// WSURL converts an httptest server URL ("http://...") into its /ws endpoint.
func WSURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// DialWS connects to the given ws:// URL and returns a test client.
//
// Precondition: url must address a listening relay WebSocket endpoint.
// Postcondition: Returns a connected WSClient or fails the test.
func DialWS(t *testing.T, url string, header http.Header) *WSClient {
	t.Helper()
	start := time.Now()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", url, err, time.Since(start))
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})

	t.Logf("ws client connected to %s [%s]", url, time.Since(start))
	return &WSClient{conn: conn, t: t}
}

// Send writes a fire-and-forget event.
func (c *WSClient) Send(event string, data any) {
	c.t.Helper()
	c.write(protocol.Envelope{Event: event, Data: c.marshal(data)})
}

// Request writes an event carrying a fresh ack id and returns that id.
//
// Postcondition: The returned id is unique for this client.
func (c *WSClient) Request(event string, data any) int64 {
	c.t.Helper()
	c.nextAck++
	ack := c.nextAck
	c.write(protocol.Envelope{Event: event, Ack: &ack, Data: c.marshal(data)})
	return ack
}

// SendRaw writes a text frame verbatim.
func (c *WSClient) SendRaw(frame string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		c.t.Fatalf("sending raw frame: %v", err)
	}
}

// ReadUntil reads envelopes until one with the given event name (and, for
// acks, the given ack id when ack is non-zero) arrives, or the timeout elapses.
//
// Postcondition: Returns the matching envelope, or fails the test on timeout.
func (c *WSClient) ReadUntil(event string, ack int64, timeout time.Duration) protocol.Envelope {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	var seen []string
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("reading until %q: saw %v, error: %v", event, seen, err)
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			c.t.Fatalf("decoding frame %q: %v", frame, err)
		}
		seen = append(seen, env.Event)
		if env.Event != event {
			continue
		}
		if ack != 0 && (env.Ack == nil || *env.Ack != ack) {
			continue
		}
		return env
	}
}

// Close closes the underlying connection.
func (c *WSClient) Close() {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

func (c *WSClient) marshal(data any) json.RawMessage {
	c.t.Helper()
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.t.Fatalf("marshalling payload: %v", err)
	}
	return raw
}

func (c *WSClient) write(env protocol.Envelope) {
	c.t.Helper()
	frame, err := json.Marshal(env)
	if err != nil {
		c.t.Fatalf("marshalling envelope: %v", err)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.t.Fatalf("sending %q: %v", env.Event, err)
	}
}
