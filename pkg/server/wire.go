package server

import (
	"encoding/json"

	"github.com/chrismichaelps/effuse-sub003/pkg/dom"
)

// Frame types on the wire. Server to client: patches, error, pong.
// Client to server: event, ping.
const (
	frameTypePatches = "patches"
	frameTypeError   = "error"
	frameTypePong    = "pong"
	frameTypeEvent   = "event"
	frameTypePing    = "ping"
)

// serverFrame is one JSON message from server to client.
type serverFrame struct {
	Type    string         `json:"type"`
	Seq     uint64         `json:"seq,omitempty"`
	Patches []dom.Mutation `json:"patches,omitempty"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
}

// clientFrame is one JSON message from client to server.
type clientFrame struct {
	Type  string          `json:"type"`
	Node  uint64          `json:"node,omitempty"`
	Event string          `json:"event,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// decodeClientFrame parses a raw websocket message.
func decodeClientFrame(data []byte) (*clientFrame, error) {
	var f clientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// eventValue decodes the frame's value payload into a Go value, or nil
// when absent.
func (f *clientFrame) eventValue() any {
	if len(f.Value) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(f.Value, &v); err != nil {
		return string(f.Value)
	}
	return v
}
