package events

import (
	"encoding/json"
	"time"
)

// AlertEvent is published to Kafka for every dispatched notification so
// downstream consumers (audit trail, webhooks) see the same alerts users do.
type AlertEvent struct {
	MonitorID      string          `json:"monitor_id"`
	Network        string          `json:"network"`
	SafeAddress    string          `json:"safe_address"`
	TxHash         string          `json:"tx_hash"`
	Classification string          `json:"classification"`
	Reasons        []string        `json:"reasons,omitempty"`
	RecipientEmail string          `json:"recipient_email"`
	Outcome        string          `json:"outcome"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}
