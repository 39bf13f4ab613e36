package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/model"
)

// DispatchRepository enforces the at-most-once notification guarantee. A
// dispatch row is claimed before sending and the outcome is recorded after;
// the claim is a compare-and-swap on the (monitor_id, tx_hash) key so
// overlapping passes can never both send for the same pair.
type DispatchRepository struct {
	db              *sql.DB
	staleClaimAfter time.Duration
	logger          *zap.Logger
}

// NewDispatchRepository creates the repository. staleClaimAfter bounds how
// long a claim may sit at "pending" before it is considered abandoned (the
// claiming process crashed or was killed between claim and outcome) and
// becomes reclaimable.
func NewDispatchRepository(db *sql.DB, staleClaimAfter time.Duration, logger *zap.Logger) *DispatchRepository {
	return &DispatchRepository{db: db, staleClaimAfter: staleClaimAfter, logger: logger}
}

// ClaimDispatch atomically claims the (monitor, tx) pair for sending. It
// succeeds on the first sight of the pair, when a prior attempt failed, or
// when a prior claim went stale without ever recording an outcome; in all
// cases the attempt count must still be below maxAttempts. Reclaiming a stale
// pending row counts the abandoned attempt. Pairs with a successful or
// skipped outcome are never reclaimed.
func (r *DispatchRepository) ClaimDispatch(monitorID, txHash, recipientEmail string, maxAttempts int) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO notification_dispatches (monitor_id, tx_hash, recipient_email, outcome, attempts, claimed_at)
		VALUES ($1, $2, $3, 'pending', 0, NOW())
		ON CONFLICT (monitor_id, tx_hash) DO UPDATE SET
			outcome = 'pending',
			recipient_email = EXCLUDED.recipient_email,
			claimed_at = NOW(),
			attempts = CASE WHEN notification_dispatches.outcome = 'pending'
				THEN notification_dispatches.attempts + 1
				ELSE notification_dispatches.attempts END
		WHERE (notification_dispatches.outcome = 'failed'
			OR (notification_dispatches.outcome = 'pending'
				AND notification_dispatches.claimed_at < NOW() - ($5 * interval '1 second')))
			AND notification_dispatches.attempts < $4
	`, monitorID, txHash, recipientEmail, maxAttempts, r.staleClaimAfter.Seconds())

	if err != nil {
		return false, fmt.Errorf("failed to claim dispatch: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check dispatch claim result: %w", err)
	}

	return affected > 0, nil
}

// RecordOutcome finalizes a claimed dispatch with sent/failed/skipped and
// bumps the attempt counter. sent_at is only stamped on successful delivery.
func (r *DispatchRepository) RecordOutcome(monitorID, txHash, outcome string) error {
	_, err := r.db.Exec(`
		UPDATE notification_dispatches
		SET outcome = $3,
			attempts = attempts + 1,
			sent_at = CASE WHEN $3 = 'sent' THEN NOW() ELSE sent_at END
		WHERE monitor_id = $1 AND tx_hash = $2
	`, monitorID, txHash, outcome)

	if err != nil {
		return fmt.Errorf("failed to record dispatch outcome: %w", err)
	}

	r.logger.Info("Recorded dispatch outcome",
		zap.String("monitor_id", monitorID),
		zap.String("tx_hash", txHash),
		zap.String("outcome", outcome))
	return nil
}

func (r *DispatchRepository) GetDispatch(monitorID, txHash string) (*model.NotificationDispatch, error) {
	var dispatch model.NotificationDispatch
	err := r.db.QueryRow(`
		SELECT monitor_id, tx_hash, recipient_email, outcome, attempts, claimed_at, sent_at
		FROM notification_dispatches
		WHERE monitor_id = $1 AND tx_hash = $2
	`, monitorID, txHash).Scan(&dispatch.MonitorID, &dispatch.TxHash, &dispatch.RecipientEmail,
		&dispatch.Outcome, &dispatch.Attempts, &dispatch.ClaimedAt, &dispatch.SentAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dispatch: %w", err)
	}

	return &dispatch, nil
}
