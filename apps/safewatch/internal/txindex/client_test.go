package txindex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testSafeAddress = "0x0B8fA6F76eB75ae3a4ca28eb3020DFC4503F2136"

func TestFetchTransactionsParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := fmt.Sprintf("/api/v2/safes/%s/all-transactions/", testSafeAddress)
		if r.URL.Path != wantPath {
			t.Errorf("Unexpected path %s, want %s", r.URL.Path, wantPath)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"count": 2,
			"next": null,
			"previous": null,
			"results": [
				{
					"txType": "MULTISIG_TRANSACTION",
					"safe": "`+testSafeAddress+`",
					"to": "0x1111111111111111111111111111111111111111",
					"value": "1000000000000000000",
					"nonce": 7,
					"safeTxHash": "0xaaa1",
					"isExecuted": true,
					"isSuccessful": true,
					"executionDate": "2024-05-01T10:00:00Z",
					"confirmations": [{}, {}],
					"dataDecoded": {"method": "changeThreshold"}
				},
				{
					"txType": "ETHEREUM_TRANSACTION",
					"safe": "`+testSafeAddress+`",
					"to": "`+testSafeAddress+`",
					"value": "5000",
					"transactionHash": "0xbbb2",
					"executionDate": "2024-04-30T09:00:00Z"
				}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, zap.NewNop())
	transactions, nextCursor, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if err != nil {
		t.Fatalf("FetchTransactions failed: %v", err)
	}

	if nextCursor != "" {
		t.Errorf("Expected empty next cursor, got %q", nextCursor)
	}
	if len(transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(transactions))
	}

	first := transactions[0]
	if first.Hash != "0xaaa1" {
		t.Errorf("First hash = %s, want 0xaaa1", first.Hash)
	}
	if first.Method != "changeThreshold" {
		t.Errorf("First method = %s, want changeThreshold", first.Method)
	}
	if first.Confirmations != 2 {
		t.Errorf("First confirmations = %d, want 2", first.Confirmations)
	}
	if first.Nonce == nil || *first.Nonce != 7 {
		t.Errorf("First nonce = %v, want 7", first.Nonce)
	}

	second := transactions[1]
	if second.Hash != "0xbbb2" {
		t.Errorf("Second hash = %s, want 0xbbb2", second.Hash)
	}
	if second.Method != "" {
		t.Errorf("Second method = %s, want empty", second.Method)
	}
}

func TestFetchTransactionsFollowsCursor(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "1" {
			fmt.Fprint(w, `{"count": 2, "next": null, "previous": null, "results": [
				{"txType": "ETHEREUM_TRANSACTION", "transactionHash": "0xolder", "value": "1"}
			]}`)
			return
		}
		fmt.Fprintf(w, `{"count": 2, "next": "%s/api/v2/safes/%s/all-transactions/?offset=1", "previous": null, "results": [
			{"txType": "ETHEREUM_TRANSACTION", "transactionHash": "0xnewer", "value": "2"}
		]}`, server.URL, testSafeAddress)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, zap.NewNop())

	page1, cursor, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if err != nil {
		t.Fatalf("First page fetch failed: %v", err)
	}
	if cursor == "" {
		t.Fatal("Expected a next cursor on the first page")
	}
	if len(page1) != 1 || page1[0].Hash != "0xnewer" {
		t.Fatalf("Unexpected first page: %+v", page1)
	}

	page2, cursor, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, cursor)
	if err != nil {
		t.Fatalf("Second page fetch failed: %v", err)
	}
	if cursor != "" {
		t.Errorf("Expected no cursor after last page, got %q", cursor)
	}
	if len(page2) != 1 || page2[0].Hash != "0xolder" {
		t.Fatalf("Unexpected second page: %+v", page2)
	}
}

func TestFetchTransactionsRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, zap.NewNop())
	_, _, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if !errors.Is(err, ErrUpstreamRateLimited) {
		t.Errorf("Expected ErrUpstreamRateLimited, got %v", err)
	}
}

func TestFetchTransactionsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": "not-a-list"}`)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, zap.NewNop())
	_, _, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if !errors.Is(err, ErrUpstreamMalformed) {
		t.Errorf("Expected ErrUpstreamMalformed, got %v", err)
	}
}

func TestFetchTransactionsServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(time.Second, zap.NewNop())
	_, _, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetchTransactionsEntryWithoutHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 1, "next": null, "previous": null, "results": [
			{"txType": "MULTISIG_TRANSACTION", "value": "1"}
		]}`)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, zap.NewNop())
	_, _, err := client.FetchTransactions(context.Background(), server.URL, testSafeAddress, "")
	if !errors.Is(err, ErrUpstreamMalformed) {
		t.Errorf("Expected ErrUpstreamMalformed for missing hash, got %v", err)
	}
}
