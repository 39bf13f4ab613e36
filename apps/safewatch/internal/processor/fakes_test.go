package processor

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"safewatch/apps/safewatch/internal/model"
	"safewatch/apps/safewatch/internal/notifier"
	"safewatch/apps/safewatch/internal/txindex"
)

// In-memory collaborators mirroring the Postgres repositories' semantics.

type fakeIndex struct {
	mu    sync.Mutex
	pages map[string][]txindex.Transaction // keyed by safe address
	errs  map[string]error
	calls map[string]int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		pages: make(map[string][]txindex.Transaction),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeIndex) FetchTransactions(ctx context.Context, apiBaseURL, safeAddress, cursor string) ([]txindex.Transaction, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[safeAddress]++
	if err := f.errs[safeAddress]; err != nil {
		return nil, "", err
	}
	return f.pages[safeAddress], "", nil
}

type fakeMonitorStore struct {
	monitors []model.Monitor
}

func (f *fakeMonitorStore) GetActiveMonitors() ([]model.Monitor, error) {
	var active []model.Monitor
	for _, monitor := range f.monitors {
		if monitor.Active {
			active = append(active, monitor)
		}
	}
	return active, nil
}

func (f *fakeMonitorStore) GetMonitorByID(monitorID string) (*model.Monitor, error) {
	for _, monitor := range f.monitors {
		if monitor.ID == monitorID {
			copied := monitor
			return &copied, nil
		}
	}
	return nil, nil
}

type memTransactionStore struct {
	mu      sync.Mutex
	records map[string]model.TransactionRecord
}

func newMemTransactionStore() *memTransactionStore {
	return &memTransactionStore{records: make(map[string]model.TransactionRecord)}
}

func recordKey(network, safeAddress, txHash string) string {
	return network + "|" + safeAddress + "|" + txHash
}

func (s *memTransactionStore) GetRecordsForSafe(network, safeAddress string) (map[string]model.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]model.TransactionRecord)
	for _, record := range s.records {
		if record.Network == network && record.SafeAddress == safeAddress {
			result[record.TxHash] = record
		}
	}
	return result, nil
}

func (s *memTransactionStore) RecordTransaction(record model.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(record.Network, record.SafeAddress, record.TxHash)
	if _, exists := s.records[key]; exists {
		return nil // classification is immutable
	}
	s.records[key] = record
	return nil
}

func (s *memTransactionStore) MarkNotificationSent(network, safeAddress, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(network, safeAddress, txHash)
	if record, exists := s.records[key]; exists {
		record.NotificationSent = true
		s.records[key] = record
	}
	return nil
}

func (s *memTransactionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type memDispatchStore struct {
	mu              sync.Mutex
	staleClaimAfter time.Duration
	dispatches      map[string]*model.NotificationDispatch
}

func newMemDispatchStore() *memDispatchStore {
	return &memDispatchStore{
		staleClaimAfter: time.Minute,
		dispatches:      make(map[string]*model.NotificationDispatch),
	}
}

func (s *memDispatchStore) ClaimDispatch(monitorID, txHash, recipientEmail string, maxAttempts int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := monitorID + "|" + txHash
	dispatch, exists := s.dispatches[key]
	if !exists {
		s.dispatches[key] = &model.NotificationDispatch{
			MonitorID:      monitorID,
			TxHash:         txHash,
			RecipientEmail: recipientEmail,
			Outcome:        model.OutcomePending,
			ClaimedAt:      time.Now(),
		}
		return true, nil
	}
	staleClaim := dispatch.Outcome == model.OutcomePending &&
		time.Since(dispatch.ClaimedAt) >= s.staleClaimAfter
	if (dispatch.Outcome == model.OutcomeFailed || staleClaim) && dispatch.Attempts < maxAttempts {
		if staleClaim {
			dispatch.Attempts++ // the abandoned attempt counts
		}
		dispatch.Outcome = model.OutcomePending
		dispatch.ClaimedAt = time.Now()
		return true, nil
	}
	return false, nil
}

func (s *memDispatchStore) RecordOutcome(monitorID, txHash, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := monitorID + "|" + txHash
	if dispatch, exists := s.dispatches[key]; exists {
		dispatch.Outcome = outcome
		dispatch.Attempts++
		if outcome == model.OutcomeSent {
			dispatch.SentAt = sql.NullTime{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

func (s *memDispatchStore) seed(dispatch model.NotificationDispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := dispatch
	s.dispatches[dispatch.MonitorID+"|"+dispatch.TxHash] = &copied
}

func (s *memDispatchStore) get(monitorID, txHash string) *model.NotificationDispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dispatch, exists := s.dispatches[monitorID+"|"+txHash]; exists {
		copied := *dispatch
		return &copied
	}
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []notifier.Notification
	failWith error
}

func (f *fakeNotifier) Notify(ctx context.Context, notification notifier.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, notification)
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) sentSubjects() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	subjects := make([]string, 0, len(f.sent))
	for _, notification := range f.sent {
		subjects = append(subjects, notification.Subject)
	}
	return subjects
}
