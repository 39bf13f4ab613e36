package api

import (
	"time"
)

// CreateMonitorRequest is the request body for registering a monitor.
type CreateMonitorRequest struct {
	OwnerID           string   `json:"owner_id"`
	Network           string   `json:"network"`
	SafeAddress       string   `json:"safe_address"`
	NotifyEmail       string   `json:"notify_email"`
	AlertAllTxs       bool     `json:"alert_all_txs"`
	ValueThresholdWei string   `json:"value_threshold_wei,omitempty"`
	AllowedRecipients []string `json:"allowed_recipients,omitempty"`
	IgnoredHashes     []string `json:"ignored_hashes,omitempty"`
}

// MonitorResponse represents a monitor in API responses.
type MonitorResponse struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	Network           string    `json:"network"`
	SafeAddress       string    `json:"safe_address"`
	NotifyEmail       string    `json:"notify_email"`
	AlertAllTxs       bool      `json:"alert_all_txs"`
	ValueThresholdWei string    `json:"value_threshold_wei,omitempty"`
	AllowedRecipients []string  `json:"allowed_recipients,omitempty"`
	IgnoredHashes     []string  `json:"ignored_hashes,omitempty"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TransactionResponse represents a recorded transaction in API responses.
type TransactionResponse struct {
	TxHash           string    `json:"tx_hash"`
	Network          string    `json:"network"`
	SafeAddress      string    `json:"safe_address"`
	Classification   string    `json:"classification"`
	NotificationSent bool      `json:"notification_sent"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
}

// DispatchResponse represents the notification dispatch state for one
// (monitor, transaction) pair. SentAt is only set on successful delivery.
type DispatchResponse struct {
	MonitorID      string     `json:"monitor_id"`
	TxHash         string     `json:"tx_hash"`
	RecipientEmail string     `json:"recipient_email"`
	Outcome        string     `json:"outcome"`
	Attempts       int        `json:"attempts"`
	ClaimedAt      time.Time  `json:"claimed_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
