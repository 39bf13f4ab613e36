package txindex

import (
	"encoding/json"
	"time"
)

// Transaction is the client's normalized view of one entry from the
// transaction index. Raw keeps the upstream payload verbatim for storage.
type Transaction struct {
	TxType        string
	Hash          string
	SafeAddress   string
	To            string
	Value         string // wei, decimal string; empty when upstream omits it
	Nonce         *uint64
	ExecutionDate time.Time
	IsExecuted    bool
	IsSuccessful  *bool
	Confirmations int
	Method        string // decoded contract method name, empty for plain transfers
	IsTest        bool   // set only for synthetic test-mode transactions
	Raw           json.RawMessage
}

// wireTransaction mirrors the upstream all-transactions entry shape. The
// endpoint mixes multisig, module and incoming ethereum transactions, so most
// fields are optional.
type wireTransaction struct {
	TxType          string           `json:"txType"`
	Safe            string           `json:"safe"`
	To              string           `json:"to"`
	Value           string           `json:"value"`
	Nonce           *uint64          `json:"nonce"`
	TxHash          string           `json:"txHash"`
	TransactionHash string           `json:"transactionHash"`
	SafeTxHash      string           `json:"safeTxHash"`
	ExecutionDate   *time.Time       `json:"executionDate"`
	IsExecuted      bool             `json:"isExecuted"`
	IsSuccessful    *bool            `json:"isSuccessful"`
	Confirmations   []json.RawMessage `json:"confirmations"`
	DataDecoded     *struct {
		Method string `json:"method"`
	} `json:"dataDecoded"`
}

// pagedResponse is the upstream pagination envelope.
type pagedResponse struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

// hash picks the identifying hash for the entry. Multisig transactions carry
// a safeTxHash before execution; executed and incoming transactions carry the
// on-chain hash.
func (w *wireTransaction) hash() string {
	if w.TransactionHash != "" {
		return w.TransactionHash
	}
	if w.TxHash != "" {
		return w.TxHash
	}
	return w.SafeTxHash
}
