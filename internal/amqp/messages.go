package amqp

import (
	"encoding/json"
	"time"

	"wydatki/internal/core"
)

// ExpenseRecordedMessage is published after a mutation is reconciled, so
// external consumers (audit journal, notifications) can observe writes
// without touching the spreadsheet.
type ExpenseRecordedMessage struct {
	Category   string    `json:"category"`
	Day        int       `json:"day"`
	Month      string    `json:"month"`
	Mode       core.Mode `json:"mode"`
	Amount     float64   `json:"amount,omitempty"`
	Formula    string    `json:"formula,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func NewExpenseRecordedMessage(req core.WriteRequest, res core.WriteResult) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		Category:   req.Category,
		Day:        req.Day,
		Month:      req.Month,
		Mode:       res.Mode,
		Amount:     res.Amount,
		Formula:    res.Formula,
		RecordedAt: time.Now(),
	}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
