package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// mockServer speaks the Coinglass streaming protocol for tests: it answers
// auth frames, replies pong to ping, records every client frame and can push
// channel data or kill connections to drive the reconnect machinery.
type mockServer struct {
	server *httptest.Server
	url    string

	mu        sync.Mutex
	conns     map[*websocket.Conn]bool
	frames    []opFrame
	openCount int

	authSuccess bool
	authMessage string
	reject      bool
}

// opFrame is a recorded client frame, decoded just enough to assert on.
type opFrame struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

// argStrings decodes the frame args as the "channel:param" string list used
// by subscribe and unsubscribe frames.
func (f opFrame) argStrings() []string {
	var args []string
	_ = json.Unmarshal(f.Args, &args)
	return args
}

func newMockServer() *mockServer {
	m := &mockServer{
		conns:       make(map[*websocket.Conn]bool),
		authSuccess: true,
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	m.url = "ws" + strings.TrimPrefix(m.server.URL, "http")
	return m
}

func setupMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := newMockServer()
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) URL() string { return m.url }

func (m *mockServer) Close() {
	m.DropConnections()
	m.server.Close()
}

// SetAuthResult configures the auth reply sent for subsequent handshakes.
func (m *mockServer) SetAuthResult(success bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authSuccess = success
	m.authMessage = message
}

// SetReject makes the server refuse websocket upgrades.
func (m *mockServer) SetReject(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}

// OpenCount returns how many websocket connections have been accepted.
func (m *mockServer) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// ConnectionCount returns the number of currently live connections.
func (m *mockServer) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Frames returns a copy of every client frame recorded so far.
func (m *mockServer) Frames() []opFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]opFrame, len(m.frames))
	copy(out, m.frames)
	return out
}

// FramesByOp filters recorded frames by op.
func (m *mockServer) FramesByOp(op string) []opFrame {
	var out []opFrame
	for _, f := range m.Frames() {
		if f.Op == op {
			out = append(out, f)
		}
	}
	return out
}

// ClearFrames forgets recorded frames, typically right before the assertion
// window of interest.
func (m *mockServer) ClearFrames() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
}

// Push sends a channel-data frame to every live connection.
func (m *mockServer) Push(channel string, data any) {
	raw, _ := json.Marshal(map[string]any{"channel": channel, "data": data})
	m.broadcast(raw)
}

// PushRaw sends an arbitrary text frame to every live connection.
func (m *mockServer) PushRaw(raw []byte) {
	m.broadcast(raw)
}

// DropConnections closes every live connection without a close handshake,
// simulating an unexpected disconnect.
func (m *mockServer) DropConnections() {
	m.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	m.conns = make(map[*websocket.Conn]bool)
	m.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (m *mockServer) broadcast(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for c := range m.conns {
		_ = c.WriteMessage(websocket.TextMessage, raw)
	}
}

func (m *mockServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	reject := m.reject
	m.mu.Unlock()
	if reject {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.conns[conn] = true
	m.openCount++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.conns, conn)
		m.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var frame opFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		m.mu.Lock()
		m.frames = append(m.frames, frame)
		success, message := m.authSuccess, m.authMessage
		m.mu.Unlock()

		switch frame.Op {
		case opAuth:
			reply := map[string]any{"op": opAuth, "success": success}
			if message != "" {
				reply["message"] = message
			}
			out, _ := json.Marshal(reply)
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		case opPing:
			out, _ := json.Marshal(map[string]any{"op": opPong})
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}
}
