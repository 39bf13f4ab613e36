package model

import (
	"encoding/json"
	"time"
)

type TransactionRecord struct {
	TxHash           string          `db:"tx_hash"`
	SafeAddress      string          `db:"safe_address"`
	Network          string          `db:"network"`
	Payload          json.RawMessage `db:"payload"`
	Classification   string          `db:"classification"` // "normal", "suspicious" or "ignored"
	NotificationSent bool            `db:"notification_sent"`
	FirstSeenAt      time.Time       `db:"first_seen_at"`
}
