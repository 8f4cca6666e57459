package websocket

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/infrastructure/grpc/rpc"
	"encoding/json"
)

// FrameType names the kind of a frame exchanged on /ws.
type FrameType string

// Requests, client to server. Each one is answered by a frame of the same type
// suffixed with "_result" and carrying the same request id.
const (
	SendMessage       FrameType = "send_message"
	FetchConversation FrameType = "fetch_conversation"
	MarkSeen          FrameType = "mark_seen"
	FetchSidebar      FrameType = "fetch_sidebar"
	OnlineUsers       FrameType = "online_users"
	WhoAmI            FrameType = "whoami"
)

// Events, server to client.
const (
	PresenceChanged FrameType = rpc.EventPresenceChanged
	MessageReceived FrameType = rpc.EventMessageReceived
)

const resultSuffix = "_result"

func (t FrameType) Result() FrameType {
	return t + resultSuffix
}

type Frame struct {
	Type      FrameType       `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     *FrameError     `json:"error,omitempty"`
}

type FrameError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func resultFrame(request Frame, payload any) Frame {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorFrame(request, err)
	}
	return Frame{Type: request.Type.Result(), RequestID: request.RequestID, Payload: raw}
}

func errorFrame(request Frame, err error) Frame {
	return Frame{
		Type:      request.Type.Result(),
		RequestID: request.RequestID,
		Error:     &FrameError{Kind: errors.Kind(err), Message: err.Error()},
	}
}

// eventFrame renders the events a connection forwards to its client.
func eventFrame(evt event.DomainEvent) (Frame, bool) {
	var (
		frameType FrameType
		payload   any
	)
	switch e := evt.(type) {
	case event.PresenceChanged:
		frameType, payload = PresenceChanged, rpc.Presence{Online: e.Online, At: e.At}
	case event.MessageReceived:
		frameType, payload = MessageReceived, rpc.ToMessage(e.Message)
	default:
		return Frame{}, false
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, false
	}
	return Frame{Type: frameType, Payload: raw}, true
}
