package classifier

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"safewatch/apps/safewatch/internal/txindex"
)

type Classification string

const (
	Normal     Classification = "normal"
	Suspicious Classification = "suspicious"
	Ignored    Classification = "ignored"
)

// governanceMethods are Safe contract calls that change owners or the signing
// threshold. Any of these is treated as suspicious regardless of value.
var governanceMethods = map[string]bool{
	"addOwnerWithThreshold": true,
	"removeOwner":           true,
	"swapOwner":             true,
	"changeThreshold":       true,
}

// Rules is a monitor's classification configuration.
type Rules struct {
	AllowedRecipients []string
	ValueThresholdWei *big.Int // nil means no value rule
	IgnoredHashes     []string
	// SanctionedAddresses is an optional signal from the sanctions-screening
	// collaborator, folded in as one more suspicion rule.
	SanctionedAddresses []string
}

// Result is a classification plus the rules that fired, for alert bodies.
type Result struct {
	Classification Classification
	Reasons        []string
}

// Classify decides normal/suspicious/ignored for one transaction. Pure and
// total: every transaction shape yields exactly one classification.
func Classify(tx txindex.Transaction, rules Rules) Result {
	for _, hash := range rules.IgnoredHashes {
		if strings.EqualFold(hash, tx.Hash) {
			return Result{Classification: Ignored}
		}
	}

	var reasons []string

	if len(rules.AllowedRecipients) > 0 && tx.To != "" && !containsAddress(rules.AllowedRecipients, tx.To) {
		reasons = append(reasons, fmt.Sprintf("destination %s is not in the allow-list", tx.To))
	}

	if rules.ValueThresholdWei != nil {
		value := parseWei(tx.Value)
		if value.Cmp(rules.ValueThresholdWei) > 0 {
			reasons = append(reasons, fmt.Sprintf("value %s wei exceeds the configured threshold", value.String()))
		}
	}

	if governanceMethods[tx.Method] {
		reasons = append(reasons, fmt.Sprintf("governance-sensitive operation %s", tx.Method))
	}

	if tx.To != "" && containsAddress(rules.SanctionedAddresses, tx.To) {
		reasons = append(reasons, fmt.Sprintf("destination %s is sanctions-flagged", tx.To))
	}

	if len(reasons) > 0 {
		return Result{Classification: Suspicious, Reasons: reasons}
	}

	return Result{Classification: Normal}
}

// containsAddress compares addresses case-insensitively via their canonical
// 20-byte form.
func containsAddress(addresses []string, candidate string) bool {
	target := common.HexToAddress(candidate)
	for _, address := range addresses {
		if common.HexToAddress(address) == target {
			return true
		}
	}
	return false
}

// parseWei reads a decimal wei string, treating empty or unparseable values
// as zero so classification stays total.
func parseWei(value string) *big.Int {
	if value == "" {
		return big.NewInt(0)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return big.NewInt(0)
	}
	return parsed
}
