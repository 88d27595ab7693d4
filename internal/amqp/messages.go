package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionRecordedMessage announces that a ledger transaction was
// committed. It carries only identifiers; the worker loads the full
// detail from the database. EventID lets consumers deduplicate
// redelivered messages.
type TransactionRecordedMessage struct {
	EventID       string    `json:"event_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(transactionID int64) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		EventID:       uuid.NewString(),
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
