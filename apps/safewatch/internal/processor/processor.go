package processor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/classifier"
	"safewatch/apps/safewatch/internal/events"
	"safewatch/apps/safewatch/internal/model"
	"safewatch/apps/safewatch/internal/networks"
	"safewatch/apps/safewatch/internal/notifier"
	"safewatch/apps/safewatch/internal/txindex"
)

// TxIndex fetches transaction pages from an upstream index.
type TxIndex interface {
	FetchTransactions(ctx context.Context, apiBaseURL, safeAddress, cursor string) ([]txindex.Transaction, string, error)
}

// MonitorStore reads monitor subscriptions.
type MonitorStore interface {
	GetActiveMonitors() ([]model.Monitor, error)
	GetMonitorByID(monitorID string) (*model.Monitor, error)
}

// TransactionStore persists observed transactions.
type TransactionStore interface {
	GetRecordsForSafe(network, safeAddress string) (map[string]model.TransactionRecord, error)
	RecordTransaction(record model.TransactionRecord) error
	MarkNotificationSent(network, safeAddress, txHash string) error
}

// DispatchStore enforces at-most-once delivery per (monitor, tx) pair.
type DispatchStore interface {
	ClaimDispatch(monitorID, txHash, recipientEmail string, maxAttempts int) (bool, error)
	RecordOutcome(monitorID, txHash, outcome string) error
}

// AlertPublisher mirrors dispatched alerts to an event stream.
type AlertPublisher interface {
	PublishAlert(event events.AlertEvent) error
}

// Config bounds the processor's concurrency and retry behaviour.
type Config struct {
	MaxConcurrentMonitors int
	FetchTimeout          time.Duration
	MaxNotifyAttempts     int
	// RateLimitCooldown keeps a rate-limited monitor out of at least the next
	// cycle.
	RateLimitCooldown time.Duration
}

// Processor runs the fetch -> diff -> classify -> notify cycle for every
// active monitor. One monitor's failure never blocks the others.
type Processor struct {
	config         Config
	registry       *networks.Registry
	txIndex        TxIndex
	monitors       MonitorStore
	transactions   TransactionStore
	dispatches     DispatchStore
	notify         notifier.Notifier
	alertPublisher AlertPublisher
	logger         *zap.Logger

	mu            sync.Mutex
	cooldownUntil map[string]time.Time
}

func NewProcessor(
	config Config,
	registry *networks.Registry,
	txIndex TxIndex,
	monitors MonitorStore,
	transactions TransactionStore,
	dispatches DispatchStore,
	notify notifier.Notifier,
	alertPublisher AlertPublisher,
	logger *zap.Logger) *Processor {
	if config.MaxConcurrentMonitors < 1 {
		config.MaxConcurrentMonitors = 1
	}
	if config.MaxNotifyAttempts < 1 {
		config.MaxNotifyAttempts = 1
	}

	return &Processor{
		config:         config,
		registry:       registry,
		txIndex:        txIndex,
		monitors:       monitors,
		transactions:   transactions,
		dispatches:     dispatches,
		notify:         notify,
		alertPublisher: alertPublisher,
		logger:         logger,
		cooldownUntil:  make(map[string]time.Time),
	}
}

// RunPass processes every active monitor once, fanning out over a bounded
// worker pool. It always completes a full pass: per-monitor errors are logged
// and isolated.
func (p *Processor) RunPass(ctx context.Context) {
	monitors, err := p.monitors.GetActiveMonitors()
	if err != nil {
		p.logger.Error("Failed to load active monitors", zap.Error(err))
		return
	}

	if len(monitors) == 0 {
		return
	}

	sem := make(chan struct{}, p.config.MaxConcurrentMonitors)
	var wg sync.WaitGroup

	for _, monitor := range monitors {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(monitor model.Monitor) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processMonitor(ctx, monitor)
		}(monitor)
	}

	wg.Wait()
}

// processMonitor runs one monitor's cycle: resolve, fetch, diff, then handle
// new transactions oldest-first.
func (p *Processor) processMonitor(ctx context.Context, monitor model.Monitor) {
	if p.inCooldown(monitor.ID) {
		p.logger.Info("Skipping rate-limited monitor for this cycle", zap.String("monitor_id", monitor.ID))
		return
	}

	network, err := p.registry.Resolve(monitor.Network)
	if err != nil {
		p.logger.Warn("Skipping monitor with unknown network",
			zap.String("monitor_id", monitor.ID),
			zap.String("network", monitor.Network),
			zap.Error(err))
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	fetched, _, err := p.txIndex.FetchTransactions(fetchCtx, network.APIBaseURL, monitor.SafeAddress, "")
	if err != nil {
		switch {
		case errors.Is(err, txindex.ErrUpstreamRateLimited):
			p.setCooldown(monitor.ID)
			p.logger.Warn("Upstream rate limited, backing off monitor",
				zap.String("monitor_id", monitor.ID), zap.Error(err))
		case errors.Is(err, txindex.ErrUpstreamMalformed):
			// Elevated severity: may indicate an upstream API contract change.
			p.logger.Error("Upstream returned malformed response",
				zap.String("monitor_id", monitor.ID), zap.Error(err))
		default:
			p.logger.Warn("Upstream fetch failed, skipping monitor this cycle",
				zap.String("monitor_id", monitor.ID), zap.Error(err))
		}
		return
	}

	existing, err := p.transactions.GetRecordsForSafe(monitor.Network, monitor.SafeAddress)
	if err != nil {
		p.logger.Error("Failed to load transaction records",
			zap.String("monitor_id", monitor.ID), zap.Error(err))
		return
	}

	// The index returns most-recent-first; walk backwards so alerts go out in
	// causal order. Already-notified transactions are done; recorded but
	// unnotified ones stay eligible so failed dispatches get their bounded
	// retries.
	for i := len(fetched) - 1; i >= 0; i-- {
		tx := fetched[i]
		var stored *model.TransactionRecord
		if record, seen := existing[tx.Hash]; seen {
			if record.NotificationSent {
				continue
			}
			stored = &record
		}
		if err := p.handleTransaction(ctx, monitor, network, tx, stored); err != nil {
			p.logger.Error("Failed to handle transaction",
				zap.String("monitor_id", monitor.ID),
				zap.String("tx_hash", tx.Hash),
				zap.Error(err))
		}
	}
}

// handleTransaction persists a first-sighted transaction, classifies it and,
// when warranted, notifies. stored is nil on first sight.
func (p *Processor) handleTransaction(ctx context.Context, monitor model.Monitor, network *networks.Network, tx txindex.Transaction, stored *model.TransactionRecord) error {
	result := classifier.Classify(tx, rulesForMonitor(monitor))

	classification := result.Classification
	if stored == nil {
		record := model.TransactionRecord{
			TxHash:         tx.Hash,
			SafeAddress:    monitor.SafeAddress,
			Network:        monitor.Network,
			Payload:        tx.Raw,
			Classification: string(result.Classification),
		}
		if err := p.transactions.RecordTransaction(record); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
	} else {
		// Classification is immutable once assigned. A different verdict on a
		// later sighting is a data anomaly, not an update.
		classification = classifier.Classification(stored.Classification)
		if classification != result.Classification {
			p.logger.Warn("Classification anomaly on re-sighted transaction",
				zap.String("tx_hash", tx.Hash),
				zap.String("stored", stored.Classification),
				zap.String("recomputed", string(result.Classification)))
		}
		result.Classification = classification
	}

	if classification == classifier.Ignored {
		return nil
	}
	if classification != classifier.Suspicious && !monitor.AlertAllTxs {
		return nil
	}

	claimed, err := p.dispatches.ClaimDispatch(monitor.ID, tx.Hash, monitor.NotifyEmail, p.config.MaxNotifyAttempts)
	if err != nil {
		return fmt.Errorf("failed to claim dispatch: %w", err)
	}
	if !claimed {
		// Duplicate suppressed: an earlier pass already handled this pair.
		p.logger.Debug("Notification already dispatched",
			zap.String("monitor_id", monitor.ID), zap.String("tx_hash", tx.Hash))
		return nil
	}

	outcome := p.dispatchNotification(ctx, monitor, network, tx, result)

	if err := p.dispatches.RecordOutcome(monitor.ID, tx.Hash, outcome); err != nil {
		return fmt.Errorf("failed to record dispatch outcome: %w", err)
	}

	if outcome == model.OutcomeSent {
		if err := p.transactions.MarkNotificationSent(monitor.Network, monitor.SafeAddress, tx.Hash); err != nil {
			p.logger.Error("Failed to flag transaction as notified",
				zap.String("tx_hash", tx.Hash), zap.Error(err))
		}
	}

	p.publishAlertEvent(monitor, tx, result, outcome)
	return nil
}

// dispatchNotification sends the alert and maps the result to a dispatch
// outcome. A missing notifier yields the terminal "skipped" outcome rather
// than an endless retry loop.
func (p *Processor) dispatchNotification(ctx context.Context, monitor model.Monitor, network *networks.Network, tx txindex.Transaction, result classifier.Result) string {
	if p.notify == nil {
		p.logger.Warn("No notifier configured, skipping delivery",
			zap.String("monitor_id", monitor.ID), zap.String("tx_hash", tx.Hash))
		return model.OutcomeSkipped
	}

	notification := notifier.RenderAlert(monitor.NotifyEmail, notifier.AlertContext{
		NetworkDisplayName: network.DisplayName,
		SafeAddress:        monitor.SafeAddress,
		Transaction:        tx,
		Result:             result,
	})

	if err := p.notify.Notify(ctx, notification); err != nil {
		p.logger.Warn("Notification delivery failed",
			zap.String("monitor_id", monitor.ID),
			zap.String("tx_hash", tx.Hash),
			zap.Error(err))
		return model.OutcomeFailed
	}

	return model.OutcomeSent
}

func (p *Processor) publishAlertEvent(monitor model.Monitor, tx txindex.Transaction, result classifier.Result, outcome string) {
	if p.alertPublisher == nil {
		return
	}

	event := events.AlertEvent{
		MonitorID:      monitor.ID,
		Network:        monitor.Network,
		SafeAddress:    monitor.SafeAddress,
		TxHash:         tx.Hash,
		Classification: string(result.Classification),
		Reasons:        result.Reasons,
		RecipientEmail: monitor.NotifyEmail,
		Outcome:        outcome,
		Payload:        tx.Raw,
		Timestamp:      time.Now(),
	}
	if err := p.alertPublisher.PublishAlert(event); err != nil {
		p.logger.Warn("Failed to publish alert event",
			zap.String("monitor_id", monitor.ID),
			zap.String("tx_hash", tx.Hash),
			zap.Error(err))
	}
}

// RunTest sends a synthetic test alert for the monitor, bypassing fetch and
// diff. Test transactions are never recorded.
func (p *Processor) RunTest(ctx context.Context, monitorID string) error {
	monitor, err := p.monitors.GetMonitorByID(monitorID)
	if err != nil {
		return fmt.Errorf("failed to load monitor: %w", err)
	}
	if monitor == nil {
		return fmt.Errorf("monitor %s not found", monitorID)
	}

	network, err := p.registry.Resolve(monitor.Network)
	if err != nil {
		return fmt.Errorf("failed to resolve network for test alert: %w", err)
	}

	tx := txindex.Transaction{
		Hash:   fmt.Sprintf("0xtest%d", time.Now().UnixNano()),
		To:     monitor.SafeAddress,
		Value:  "0",
		IsTest: true,
	}
	result := classifier.Classify(tx, rulesForMonitor(*monitor))

	if p.notify == nil {
		return errors.New("no notifier configured")
	}

	notification := notifier.RenderAlert(monitor.NotifyEmail, notifier.AlertContext{
		NetworkDisplayName: network.DisplayName,
		SafeAddress:        monitor.SafeAddress,
		Transaction:        tx,
		Result:             result,
	})

	if err := p.notify.Notify(ctx, notification); err != nil {
		return fmt.Errorf("test notification failed: %w", err)
	}

	p.logger.Info("Sent test notification",
		zap.String("monitor_id", monitor.ID),
		zap.String("recipient", monitor.NotifyEmail))
	return nil
}

// rulesForMonitor converts a monitor's stored configuration into classifier
// rules.
func rulesForMonitor(monitor model.Monitor) classifier.Rules {
	rules := classifier.Rules{
		AllowedRecipients: monitor.AllowedRecipients,
		IgnoredHashes:     monitor.IgnoredHashes,
	}
	if monitor.ValueThresholdWei != "" {
		if threshold, ok := new(big.Int).SetString(monitor.ValueThresholdWei, 10); ok {
			rules.ValueThresholdWei = threshold
		}
	}
	return rules
}

func (p *Processor) inCooldown(monitorID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().Before(p.cooldownUntil[monitorID])
}

func (p *Processor) setCooldown(monitorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldownUntil[monitorID] = time.Now().Add(p.config.RateLimitCooldown)
}
