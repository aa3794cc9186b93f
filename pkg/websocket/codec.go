package websocket

import (
	"encoding/json"
	"fmt"
)

// Wire operations understood by the Coinglass streaming endpoint.
const (
	opAuth        = "auth"
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opPing        = "ping"
	opPong        = "pong"
)

// authArgs carries the API key inside an auth frame.
type authArgs struct {
	APIKey string `json:"apiKey"`
}

// authMessage is the handshake frame sent immediately after the socket opens:
// {"op":"auth","args":[{"apiKey":"<key>"}]}.
type authMessage struct {
	Op   string     `json:"op"`
	Args []authArgs `json:"args"`
}

func newAuthMessage(apiKey string) authMessage {
	return authMessage{Op: opAuth, Args: []authArgs{{APIKey: apiKey}}}
}

// opMessage covers subscribe and unsubscribe frames, whose args are
// "channel:param" strings.
type opMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

func newSubscribeMessage(args []string) opMessage {
	return opMessage{Op: opSubscribe, Args: args}
}

func newUnsubscribeMessage(args []string) opMessage {
	return opMessage{Op: opUnsubscribe, Args: args}
}

// pingMessage is the keepalive frame: {"op":"ping"}.
type pingMessage struct {
	Op string `json:"op"`
}

func newPingMessage() pingMessage {
	return pingMessage{Op: opPing}
}

// channelArgs renders (channel, params) pairs in the wire format the server
// expects, e.g. ("liquidation", ["BTC","ETH"]) -> ["liquidation:BTC","liquidation:ETH"].
func channelArgs(channel string, params []string) []string {
	args := make([]string, 0, len(params))
	for _, p := range params {
		args = append(args, channel+":"+p)
	}
	return args
}

// inboundKind discriminates server frames by shape. Frames that match no
// known shape are classified unknown and dropped by the caller.
type inboundKind int

const (
	kindUnknown inboundKind = iota
	kindPong
	kindAuthResult
	kindChannelData
	kindServerError
)

// inbound is the superset of all server frame shapes. Classification happens
// after decoding via the discriminant fields, so a single pass over the JSON
// is enough.
type inbound struct {
	Op      string          `json:"op"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	Event   string          `json:"event"`
}

func (m *inbound) kind() inboundKind {
	switch {
	case m.Op == opPong:
		return kindPong
	case m.Op == opAuth:
		return kindAuthResult
	case m.Channel != "" && len(m.Data) > 0:
		return kindChannelData
	case m.Event == "error":
		return kindServerError
	default:
		return kindUnknown
	}
}

func (m *inbound) authSuccess() bool {
	return m.Success != nil && *m.Success
}

// decodeInbound parses a raw text frame into an inbound message. A decode
// error means the frame is not valid JSON; the caller logs and drops it.
func decodeInbound(raw []byte) (*inbound, error) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed server frame: %w", err)
	}
	return &msg, nil
}
