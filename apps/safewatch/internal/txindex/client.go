package txindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Error taxonomy for upstream failures. Unavailable and rate-limited are
// transient; malformed may indicate an API contract change and is logged at
// elevated severity by callers.
var (
	ErrUpstreamUnavailable = errors.New("transaction index unavailable")
	ErrUpstreamRateLimited = errors.New("transaction index rate limited")
	ErrUpstreamMalformed   = errors.New("transaction index returned malformed response")
)

// Client is a typed HTTP client for the Safe transaction-service API.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(requestTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// FetchTransactions fetches one page of transactions for a Safe address,
// most-recent-first as returned by the upstream index. cursor is opaque; pass
// the returned nextCursor to fetch the following page, or "" for the first.
func (c *Client) FetchTransactions(ctx context.Context, apiBaseURL, safeAddress, cursor string) ([]Transaction, string, error) {
	url := cursor
	if url == "" {
		url = fmt.Sprintf("%s/api/v2/safes/%s/all-transactions/", apiBaseURL, safeAddress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, "", fmt.Errorf("%w: %s", ErrUpstreamRateLimited, safeAddress)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("%w: status %d: %s", ErrUpstreamMalformed, resp.StatusCode, string(body))
	}

	var page pagedResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
	}

	transactions := make([]Transaction, 0, len(page.Results))
	for _, raw := range page.Results {
		var wire wireTransaction
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrUpstreamMalformed, err)
		}

		hash := wire.hash()
		if hash == "" {
			return nil, "", fmt.Errorf("%w: entry without transaction hash", ErrUpstreamMalformed)
		}

		tx := Transaction{
			TxType:        wire.TxType,
			Hash:          hash,
			SafeAddress:   wire.Safe,
			To:            wire.To,
			Value:         wire.Value,
			Nonce:         wire.Nonce,
			IsExecuted:    wire.IsExecuted,
			IsSuccessful:  wire.IsSuccessful,
			Confirmations: len(wire.Confirmations),
			Raw:           raw,
		}
		if wire.ExecutionDate != nil {
			tx.ExecutionDate = *wire.ExecutionDate
		}
		if wire.DataDecoded != nil {
			tx.Method = wire.DataDecoded.Method
		}

		transactions = append(transactions, tx)
	}

	nextCursor := ""
	if page.Next != nil {
		nextCursor = *page.Next
	}

	c.logger.Debug("Fetched transactions from index",
		zap.String("safe_address", safeAddress),
		zap.Int("count", len(transactions)),
		zap.Bool("has_next", nextCursor != ""))

	return transactions, nextCursor, nil
}
