package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const messageVersion = 1

// LedgerMessage is the envelope carried on the wire for a ledger event.
type LedgerMessage struct {
	MessageID string           `json:"messageId"`
	Version   int              `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Event     core.LedgerEvent `json:"event"`
}

func NewLedgerMessage(ev core.LedgerEvent) *LedgerMessage {
	return &LedgerMessage{
		MessageID: uuid.NewString(),
		Version:   messageVersion,
		Timestamp: time.Now().UTC(),
		Event:     ev,
	}
}

func (m *LedgerMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerMessageFromJSON decodes and validates a message body.
func LedgerMessageFromJSON(data []byte) (*LedgerMessage, error) {
	var msg LedgerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != messageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	switch msg.Event.Kind {
	case core.EventPosted, core.EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Event.Kind)
	}
	if msg.Event.TransactionID <= 0 {
		return nil, fmt.Errorf("missing transaction id")
	}
	return &msg, nil
}
