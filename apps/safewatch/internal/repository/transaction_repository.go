package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTransactionRepository(db *sql.DB, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

// GetRecordsForSafe returns recorded transactions keyed by hash, with
// classification and notification state. Payloads are not loaded; the diff
// only needs the summary.
func (r *TransactionRepository) GetRecordsForSafe(network, safeAddress string) (map[string]model.TransactionRecord, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, classification, notification_sent, first_seen_at
		FROM transaction_records
		WHERE network = $1 AND safe_address = $2
	`, network, safeAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]model.TransactionRecord)
	for rows.Next() {
		var record model.TransactionRecord
		if err := rows.Scan(&record.TxHash, &record.Classification, &record.NotificationSent, &record.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		record.Network = network
		record.SafeAddress = safeAddress
		records[record.TxHash] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction records: %w", err)
	}

	return records, nil
}

// RecordTransaction persists a transaction record the first time its hash is
// observed. Classification is immutable: a conflicting insert is a no-op.
func (r *TransactionRepository) RecordTransaction(record model.TransactionRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO transaction_records (tx_hash, safe_address, network, payload, classification, notification_sent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (network, safe_address, tx_hash) DO NOTHING
	`, record.TxHash, record.SafeAddress, record.Network, record.Payload, record.Classification, record.NotificationSent)

	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	r.logger.Info("Recorded transaction",
		zap.String("tx_hash", record.TxHash),
		zap.String("network", record.Network),
		zap.String("safe_address", record.SafeAddress),
		zap.String("classification", record.Classification))
	return nil
}

// MarkNotificationSent flips the record's notification flag false -> true.
// This is the only update a transaction record ever receives.
func (r *TransactionRepository) MarkNotificationSent(network, safeAddress, txHash string) error {
	_, err := r.db.Exec(`
		UPDATE transaction_records
		SET notification_sent = TRUE
		WHERE network = $1 AND safe_address = $2 AND tx_hash = $3
	`, network, safeAddress, txHash)

	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// GetTransactionsForSafe returns recorded transactions newest-first, for the
// operator API.
func (r *TransactionRepository) GetTransactionsForSafe(network, safeAddress string, limit int) ([]model.TransactionRecord, error) {
	rows, err := r.db.Query(`
		SELECT tx_hash, safe_address, network, payload, classification, notification_sent, first_seen_at
		FROM transaction_records
		WHERE network = $1 AND safe_address = $2
		ORDER BY first_seen_at DESC
		LIMIT $3
	`, network, safeAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var records []model.TransactionRecord
	for rows.Next() {
		var record model.TransactionRecord
		if err := rows.Scan(&record.TxHash, &record.SafeAddress, &record.Network, &record.Payload,
			&record.Classification, &record.NotificationSent, &record.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction records: %w", err)
	}

	return records, nil
}
