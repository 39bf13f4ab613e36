package notifier

import (
	"fmt"
	"math/big"
	"strings"

	"safewatch/apps/safewatch/internal/classifier"
	"safewatch/apps/safewatch/internal/txindex"
)

// AlertContext carries what the renderer needs to build an email for one
// classified transaction.
type AlertContext struct {
	NetworkDisplayName string
	SafeAddress        string
	Transaction        txindex.Transaction
	Result             classifier.Result
}

// RenderAlert builds the notification for a classified transaction. Test-mode
// alerts get a [TEST] subject prefix so operators can tell them apart.
func RenderAlert(recipientEmail string, alert AlertContext) Notification {
	label := "New transaction"
	if alert.Result.Classification == classifier.Suspicious {
		label = "Suspicious transaction"
	}

	subject := fmt.Sprintf("%s on %s Safe %s", label, alert.NetworkDisplayName, shortAddress(alert.SafeAddress))
	if alert.Transaction.IsTest {
		subject = "[TEST] " + subject
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Safe: %s", alert.SafeAddress))
	lines = append(lines, fmt.Sprintf("Network: %s", alert.NetworkDisplayName))
	lines = append(lines, fmt.Sprintf("Transaction: %s", alert.Transaction.Hash))
	if alert.Transaction.To != "" {
		lines = append(lines, fmt.Sprintf("Destination: %s", alert.Transaction.To))
	}
	if alert.Transaction.Value != "" {
		lines = append(lines, fmt.Sprintf("Value: %s ETH", formatWeiToEther(alert.Transaction.Value)))
	}
	if alert.Transaction.Method != "" {
		lines = append(lines, fmt.Sprintf("Method: %s", alert.Transaction.Method))
	}
	for _, reason := range alert.Result.Reasons {
		lines = append(lines, fmt.Sprintf("Flagged: %s", reason))
	}

	textBody := strings.Join(lines, "\n")

	var htmlRows strings.Builder
	for _, line := range lines {
		htmlRows.WriteString("<p>" + line + "</p>")
	}

	return Notification{
		RecipientEmail: recipientEmail,
		Subject:        subject,
		HTMLBody:       fmt.Sprintf("<html><body><h3>%s</h3>%s</body></html>", subject, htmlRows.String()),
		TextBody:       textBody,
	}
}

func shortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// formatWeiToEther converts a decimal wei string to an ether string with
// trailing zeros trimmed.
func formatWeiToEther(wei string) string {
	amount, ok := new(big.Int).SetString(wei, 10)
	if !ok {
		return wei
	}

	const decimals = 18
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	wholePart := new(big.Int).Div(amount, divisor)
	remainder := new(big.Int).Mod(amount, divisor)

	if remainder.Cmp(big.NewInt(0)) == 0 {
		return wholePart.String()
	}

	remainderStr := remainder.String()
	for len(remainderStr) < decimals {
		remainderStr = "0" + remainderStr
	}
	remainderStr = strings.TrimRight(remainderStr, "0")
	if remainderStr == "" {
		return wholePart.String()
	}
	return wholePart.String() + "." + remainderStr
}
