package repository

import (
	"database/sql"
	"fmt"
)

// InitMigration initializes the database. In production, this would use a proper migration
// library like go-migrate
func InitMigration(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS monitors (
			id UUID PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			network VARCHAR(32) NOT NULL,
			safe_address VARCHAR(42) NOT NULL,
			notify_email VARCHAR(254) NOT NULL,
			alert_all_txs BOOLEAN NOT NULL DEFAULT FALSE,
			value_threshold_wei VARCHAR(78) NOT NULL DEFAULT '',
			allowed_recipients TEXT[] NOT NULL DEFAULT '{}',
			ignored_hashes TEXT[] NOT NULL DEFAULT '{}',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(owner_id, network, safe_address)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_monitors_active ON monitors (active)`,
		`CREATE TABLE IF NOT EXISTS transaction_records (
			tx_hash VARCHAR(66) NOT NULL,
			safe_address VARCHAR(42) NOT NULL,
			network VARCHAR(32) NOT NULL,
			payload JSONB NOT NULL,
			classification VARCHAR(20) NOT NULL,
			notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
			first_seen_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (network, safe_address, tx_hash)
		)`,
		`CREATE TABLE IF NOT EXISTS notification_dispatches (
			monitor_id UUID NOT NULL,
			tx_hash VARCHAR(66) NOT NULL,
			recipient_email VARCHAR(254) NOT NULL,
			outcome VARCHAR(20) NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			claimed_at TIMESTAMP NOT NULL DEFAULT NOW(),
			sent_at TIMESTAMP,
			PRIMARY KEY (monitor_id, tx_hash)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}
