package model

import (
	"database/sql"
	"time"
)

// Dispatch outcomes. "skipped" covers the no-notifier-configured case and is
// terminal; "failed" leaves the pair eligible for retry up to the ceiling. A
// "pending" row whose claim has gone stale is treated as an abandoned attempt
// and becomes reclaimable.
const (
	OutcomePending = "pending"
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type NotificationDispatch struct {
	MonitorID      string       `db:"monitor_id"`
	TxHash         string       `db:"tx_hash"`
	RecipientEmail string       `db:"recipient_email"`
	Outcome        string       `db:"outcome"`
	Attempts       int          `db:"attempts"`
	ClaimedAt      time.Time    `db:"claimed_at"`
	SentAt         sql.NullTime `db:"sent_at"`
}
