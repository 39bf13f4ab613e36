package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/model"
	"safewatch/apps/safewatch/internal/networks"
	"safewatch/apps/safewatch/internal/repository"
)

// TestRunner triggers a synthetic end-to-end alert for one monitor.
type TestRunner interface {
	RunTest(ctx context.Context, monitorID string) error
}

// MonitorStore is the monitor persistence surface the API needs.
type MonitorStore interface {
	CreateMonitor(monitor model.Monitor) error
	GetMonitorByID(monitorID string) (*model.Monitor, error)
	GetAllMonitors() ([]model.Monitor, error)
	DeactivateMonitor(monitorID string) error
}

// TransactionStore serves the recorded-transaction view.
type TransactionStore interface {
	GetTransactionsForSafe(network, safeAddress string, limit int) ([]model.TransactionRecord, error)
}

// DispatchStore serves the per-transaction dispatch history.
type DispatchStore interface {
	GetDispatch(monitorID, txHash string) (*model.NotificationDispatch, error)
}

// MonitorHandler handles monitor configuration endpoints
type MonitorHandler struct {
	monitorStore     MonitorStore
	transactionStore TransactionStore
	dispatchStore    DispatchStore
	registry         *networks.Registry
	testRunner       TestRunner
	logger           *zap.Logger
}

func NewMonitorHandler(
	monitorStore MonitorStore,
	transactionStore TransactionStore,
	dispatchStore DispatchStore,
	registry *networks.Registry,
	testRunner TestRunner,
	logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitorStore:     monitorStore,
		transactionStore: transactionStore,
		dispatchStore:    dispatchStore,
		registry:         registry,
		testRunner:       testRunner,
		logger:           logger,
	}
}

// CreateMonitor handles POST /api/monitors
func (h *MonitorHandler) CreateMonitor(w http.ResponseWriter, r *http.Request) {
	var req CreateMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_request_body", "Invalid JSON in request body")
		return
	}

	if req.OwnerID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_owner_id", "Owner id is required")
		return
	}

	if !model.IsValidSafeAddress(req.SafeAddress) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_safe_address", "Safe address must be a 0x-prefixed 40-hex-digit address")
		return
	}

	if !h.registry.Contains(req.Network) {
		h.writeErrorResponse(w, http.StatusBadRequest, "unknown_network", "Network is not supported")
		return
	}

	if req.NotifyEmail == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_notify_email", "Notification email is required")
		return
	}

	monitor := model.Monitor{
		ID:                uuid.New().String(),
		OwnerID:           req.OwnerID,
		Network:           req.Network,
		SafeAddress:       req.SafeAddress,
		NotifyEmail:       req.NotifyEmail,
		AlertAllTxs:       req.AlertAllTxs,
		ValueThresholdWei: req.ValueThresholdWei,
		AllowedRecipients: req.AllowedRecipients,
		IgnoredHashes:     req.IgnoredHashes,
		Active:            true,
	}

	if err := h.monitorStore.CreateMonitor(monitor); err != nil {
		if errors.Is(err, repository.ErrDuplicateMonitor) {
			h.writeErrorResponse(w, http.StatusConflict, "monitor_exists", "A monitor for this owner, network and safe address already exists")
			return
		}
		h.logger.Error("Failed to create monitor", zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to create monitor")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, toMonitorResponse(monitor))
}

// ListMonitors handles GET /api/monitors
func (h *MonitorHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	monitors, err := h.monitorStore.GetAllMonitors()
	if err != nil {
		h.logger.Error("Failed to list monitors", zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to list monitors")
		return
	}

	responses := make([]MonitorResponse, 0, len(monitors))
	for _, monitor := range monitors {
		responses = append(responses, toMonitorResponse(monitor))
	}

	h.writeJSONResponse(w, http.StatusOK, responses)
}

// GetMonitor handles GET /api/monitors/{id}
func (h *MonitorHandler) GetMonitor(w http.ResponseWriter, r *http.Request) {
	monitor := h.loadMonitor(w, r)
	if monitor == nil {
		return
	}
	h.writeJSONResponse(w, http.StatusOK, toMonitorResponse(*monitor))
}

// DeactivateMonitor handles DELETE /api/monitors/{id}. Monitors are
// deactivated, never deleted.
func (h *MonitorHandler) DeactivateMonitor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitorID := vars["id"]

	if err := h.monitorStore.DeactivateMonitor(monitorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.writeErrorResponse(w, http.StatusNotFound, "monitor_not_found", "Monitor not found")
			return
		}
		h.logger.Error("Failed to deactivate monitor", zap.String("monitor_id", monitorID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to deactivate monitor")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TriggerTest handles POST /api/monitors/{id}/test
func (h *MonitorHandler) TriggerTest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	monitorID := vars["id"]

	if err := h.testRunner.RunTest(r.Context(), monitorID); err != nil {
		h.logger.Error("Test notification failed", zap.String("monitor_id", monitorID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "test_notification_failed", err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "sent"})
}

// ListTransactions handles GET /api/monitors/{id}/transactions
func (h *MonitorHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	monitor := h.loadMonitor(w, r)
	if monitor == nil {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	records, err := h.transactionStore.GetTransactionsForSafe(monitor.Network, monitor.SafeAddress, limit)
	if err != nil {
		h.logger.Error("Failed to list transactions", zap.String("monitor_id", monitor.ID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to list transactions")
		return
	}

	responses := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, TransactionResponse{
			TxHash:           record.TxHash,
			Network:          record.Network,
			SafeAddress:      record.SafeAddress,
			Classification:   record.Classification,
			NotificationSent: record.NotificationSent,
			FirstSeenAt:      record.FirstSeenAt,
		})
	}

	h.writeJSONResponse(w, http.StatusOK, responses)
}

// GetDispatch handles GET /api/monitors/{id}/dispatches/{txHash}
func (h *MonitorHandler) GetDispatch(w http.ResponseWriter, r *http.Request) {
	monitor := h.loadMonitor(w, r)
	if monitor == nil {
		return
	}

	txHash := mux.Vars(r)["txHash"]
	dispatch, err := h.dispatchStore.GetDispatch(monitor.ID, txHash)
	if err != nil {
		h.logger.Error("Failed to get dispatch", zap.String("monitor_id", monitor.ID),
			zap.String("tx_hash", txHash), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve dispatch")
		return
	}
	if dispatch == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "dispatch_not_found", "No dispatch recorded for this transaction")
		return
	}

	response := DispatchResponse{
		MonitorID:      dispatch.MonitorID,
		TxHash:         dispatch.TxHash,
		RecipientEmail: dispatch.RecipientEmail,
		Outcome:        dispatch.Outcome,
		Attempts:       dispatch.Attempts,
		ClaimedAt:      dispatch.ClaimedAt,
	}
	if dispatch.SentAt.Valid {
		response.SentAt = &dispatch.SentAt.Time
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// ListNetworks handles GET /api/networks
func (h *MonitorHandler) ListNetworks(w http.ResponseWriter, r *http.Request) {
	supported := h.registry.GetAllAsArray()
	sort.Slice(supported, func(i, j int) bool { return supported[i].ID < supported[j].ID })
	h.writeJSONResponse(w, http.StatusOK, supported)
}

func (h *MonitorHandler) loadMonitor(w http.ResponseWriter, r *http.Request) *model.Monitor {
	vars := mux.Vars(r)
	monitorID := vars["id"]

	monitor, err := h.monitorStore.GetMonitorByID(monitorID)
	if err != nil {
		h.logger.Error("Failed to get monitor", zap.String("monitor_id", monitorID), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve monitor")
		return nil
	}
	if monitor == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "monitor_not_found", "Monitor not found")
		return nil
	}
	return monitor
}

func toMonitorResponse(monitor model.Monitor) MonitorResponse {
	return MonitorResponse{
		ID:                monitor.ID,
		OwnerID:           monitor.OwnerID,
		Network:           monitor.Network,
		SafeAddress:       monitor.SafeAddress,
		NotifyEmail:       monitor.NotifyEmail,
		AlertAllTxs:       monitor.AlertAllTxs,
		ValueThresholdWei: monitor.ValueThresholdWei,
		AllowedRecipients: monitor.AllowedRecipients,
		IgnoredHashes:     monitor.IgnoredHashes,
		Active:            monitor.Active,
		CreatedAt:         monitor.CreatedAt,
		UpdatedAt:         monitor.UpdatedAt,
	}
}

func (h *MonitorHandler) writeJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *MonitorHandler) writeErrorResponse(w http.ResponseWriter, status int, errorCode, message string) {
	h.writeJSONResponse(w, status, ErrorResponse{Error: errorCode, Message: message})
}
