package websocket

import "encoding/json"

// Message types exchanged with clients
const (
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypeMessage      = "message"
	TypeError        = "error"
	TypePing         = "ping"
	TypePong         = "pong"
)

// Message is the JSON frame written to and read from clients
type Message struct {
	Type  string          `json:"type"`
	Topic string          `json:"topic,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ErrorData is the payload of an error frame
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encode(typ, topic string, data any) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Message{Type: typ, Topic: topic, Data: raw})
}
