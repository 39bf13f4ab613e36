package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/model"
)

// ErrDuplicateMonitor indicates a monitor already exists for the same
// (owner, network, safe address) triple.
var ErrDuplicateMonitor = errors.New("monitor already exists for owner, network and safe address")

type MonitorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMonitorRepository(db *sql.DB, logger *zap.Logger) *MonitorRepository {
	return &MonitorRepository{db: db, logger: logger}
}

func (r *MonitorRepository) CreateMonitor(monitor model.Monitor) error {
	result, err := r.db.Exec(`
		INSERT INTO monitors (id, owner_id, network, safe_address, notify_email, alert_all_txs, value_threshold_wei, allowed_recipients, ignored_hashes, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id, network, safe_address) DO NOTHING
	`, monitor.ID, monitor.OwnerID, monitor.Network, monitor.SafeAddress, monitor.NotifyEmail,
		monitor.AlertAllTxs, monitor.ValueThresholdWei, monitor.AllowedRecipients, monitor.IgnoredHashes, monitor.Active)

	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check monitor insert result: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateMonitor
	}

	r.logger.Info("Created monitor",
		zap.String("monitor_id", monitor.ID),
		zap.String("network", monitor.Network),
		zap.String("safe_address", monitor.SafeAddress))
	return nil
}

func (r *MonitorRepository) GetMonitorByID(monitorID string) (*model.Monitor, error) {
	var monitor model.Monitor
	err := r.db.QueryRow(`
		SELECT id, owner_id, network, safe_address, notify_email, alert_all_txs, value_threshold_wei, allowed_recipients, ignored_hashes, active, created_at, updated_at
		FROM monitors
		WHERE id = $1
	`, monitorID).Scan(&monitor.ID, &monitor.OwnerID, &monitor.Network, &monitor.SafeAddress, &monitor.NotifyEmail,
		&monitor.AlertAllTxs, &monitor.ValueThresholdWei, &monitor.AllowedRecipients, &monitor.IgnoredHashes,
		&monitor.Active, &monitor.CreatedAt, &monitor.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get monitor: %w", err)
	}

	return &monitor, nil
}

func (r *MonitorRepository) GetActiveMonitors() ([]model.Monitor, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, network, safe_address, notify_email, alert_all_txs, value_threshold_wei, allowed_recipients, ignored_hashes, active, created_at, updated_at
		FROM monitors
		WHERE active = TRUE
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active monitors: %w", err)
	}
	defer rows.Close()

	var monitors []model.Monitor
	for rows.Next() {
		var monitor model.Monitor
		if err := rows.Scan(&monitor.ID, &monitor.OwnerID, &monitor.Network, &monitor.SafeAddress, &monitor.NotifyEmail,
			&monitor.AlertAllTxs, &monitor.ValueThresholdWei, &monitor.AllowedRecipients, &monitor.IgnoredHashes,
			&monitor.Active, &monitor.CreatedAt, &monitor.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monitor: %w", err)
		}
		monitors = append(monitors, monitor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monitors: %w", err)
	}

	return monitors, nil
}

func (r *MonitorRepository) GetAllMonitors() ([]model.Monitor, error) {
	rows, err := r.db.Query(`
		SELECT id, owner_id, network, safe_address, notify_email, alert_all_txs, value_threshold_wei, allowed_recipients, ignored_hashes, active, created_at, updated_at
		FROM monitors
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get monitors: %w", err)
	}
	defer rows.Close()

	var monitors []model.Monitor
	for rows.Next() {
		var monitor model.Monitor
		if err := rows.Scan(&monitor.ID, &monitor.OwnerID, &monitor.Network, &monitor.SafeAddress, &monitor.NotifyEmail,
			&monitor.AlertAllTxs, &monitor.ValueThresholdWei, &monitor.AllowedRecipients, &monitor.IgnoredHashes,
			&monitor.Active, &monitor.CreatedAt, &monitor.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monitor: %w", err)
		}
		monitors = append(monitors, monitor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monitors: %w", err)
	}

	return monitors, nil
}

// DeactivateMonitor stops future polling for the monitor. Monitors are never
// deleted, only deactivated.
func (r *MonitorRepository) DeactivateMonitor(monitorID string) error {
	result, err := r.db.Exec(`
		UPDATE monitors SET active = FALSE, updated_at = NOW() WHERE id = $1
	`, monitorID)
	if err != nil {
		return fmt.Errorf("failed to deactivate monitor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Info("Deactivated monitor", zap.String("monitor_id", monitorID))
	return nil
}
