package chat

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Event names mirror the wire protocol: clients send "join" and
// "chat message", the server sends "chat history", "chat message"
// and "error".
const (
	EventJoin        = "join"
	EventChatMessage = "chat message"
	EventChatHistory = "chat history"
	EventError       = "error"
)

// Envelope is the frame exchanged over the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type errorPayload struct {
	Error string `json:"error"`
}

var validate = validator.New()

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %q payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func encodeError(msg string) []byte {
	payload, _ := encodeEvent(EventError, errorPayload{Error: msg})
	return payload
}
