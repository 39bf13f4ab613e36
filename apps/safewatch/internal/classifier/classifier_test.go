package classifier

import (
	"math/big"
	"strings"
	"testing"

	"safewatch/apps/safewatch/internal/txindex"
)

const (
	allowedRecipient = "0x1111111111111111111111111111111111111111"
	strangeRecipient = "0x2222222222222222222222222222222222222222"
)

func baseRules() Rules {
	return Rules{
		AllowedRecipients: []string{allowedRecipient},
		ValueThresholdWei: big.NewInt(1000000),
	}
}

func TestAllowListedUnderThresholdIsNormal(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: allowedRecipient, Value: "500"}

	result := Classify(tx, baseRules())
	if result.Classification != Normal {
		t.Errorf("Classification = %s, want normal (reasons: %v)", result.Classification, result.Reasons)
	}
	if len(result.Reasons) != 0 {
		t.Errorf("Normal transaction should carry no reasons, got %v", result.Reasons)
	}
}

func TestUnknownRecipientOverThresholdIsSuspicious(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: strangeRecipient, Value: "2000000"}

	result := Classify(tx, baseRules())
	if result.Classification != Suspicious {
		t.Fatalf("Classification = %s, want suspicious", result.Classification)
	}
	if len(result.Reasons) != 2 {
		t.Errorf("Expected 2 reasons (allow-list and threshold), got %v", result.Reasons)
	}
}

func TestAllowListComparisonIsCaseInsensitive(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: strings.ToUpper(allowedRecipient[2:]), Value: "1"}
	tx.To = "0x" + tx.To

	result := Classify(tx, baseRules())
	if result.Classification != Normal {
		t.Errorf("Mixed-case allow-listed address classified %s, want normal", result.Classification)
	}
}

func TestGovernanceMethodIsSuspicious(t *testing.T) {
	for _, method := range []string{"addOwnerWithThreshold", "removeOwner", "swapOwner", "changeThreshold"} {
		tx := txindex.Transaction{Hash: "0xabc", To: allowedRecipient, Value: "0", Method: method}

		result := Classify(tx, baseRules())
		if result.Classification != Suspicious {
			t.Errorf("Method %s classified %s, want suspicious", method, result.Classification)
		}
	}
}

func TestOrdinaryMethodIsNotGovernance(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: allowedRecipient, Value: "1", Method: "transfer"}

	result := Classify(tx, baseRules())
	if result.Classification != Normal {
		t.Errorf("transfer classified %s, want normal", result.Classification)
	}
}

func TestIgnoredHashWinsOverOtherRules(t *testing.T) {
	rules := baseRules()
	rules.IgnoredHashes = []string{"0xDEAD"}

	tx := txindex.Transaction{Hash: "0xdead", To: strangeRecipient, Value: "9000000", Method: "removeOwner"}

	result := Classify(tx, rules)
	if result.Classification != Ignored {
		t.Errorf("Ignored hash classified %s, want ignored", result.Classification)
	}
}

func TestSanctionedDestinationIsSuspicious(t *testing.T) {
	rules := Rules{SanctionedAddresses: []string{strangeRecipient}}
	tx := txindex.Transaction{Hash: "0xabc", To: strangeRecipient, Value: "1"}

	result := Classify(tx, rules)
	if result.Classification != Suspicious {
		t.Errorf("Sanctioned destination classified %s, want suspicious", result.Classification)
	}
}

func TestNoRulesMeansNormal(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: strangeRecipient, Value: "999999999999999999999"}

	result := Classify(tx, Rules{})
	if result.Classification != Normal {
		t.Errorf("Unconfigured rules classified %s, want normal", result.Classification)
	}
}

func TestUnparseableValueTreatedAsZero(t *testing.T) {
	tx := txindex.Transaction{Hash: "0xabc", To: allowedRecipient, Value: "not-a-number"}

	result := Classify(tx, baseRules())
	if result.Classification != Normal {
		t.Errorf("Unparseable value classified %s, want normal", result.Classification)
	}
}
