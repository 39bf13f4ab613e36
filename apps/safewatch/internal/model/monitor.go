package model

import (
	"regexp"
	"time"

	"github.com/lib/pq"
)

// safeAddressPattern matches a 0x-prefixed 40-hex-digit address.
var safeAddressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidSafeAddress reports whether s is a well-formed Safe address.
func IsValidSafeAddress(s string) bool {
	return safeAddressPattern.MatchString(s)
}

// Monitor is a user's subscription to one Safe address on one network.
type Monitor struct {
	ID                string         `db:"id"`
	OwnerID           string         `db:"owner_id"`
	Network           string         `db:"network"`
	SafeAddress       string         `db:"safe_address"`
	NotifyEmail       string         `db:"notify_email"`
	AlertAllTxs       bool           `db:"alert_all_txs"`
	ValueThresholdWei string         `db:"value_threshold_wei"` // empty means no threshold
	AllowedRecipients pq.StringArray `db:"allowed_recipients"`
	IgnoredHashes     pq.StringArray `db:"ignored_hashes"`
	Active            bool           `db:"active"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}
