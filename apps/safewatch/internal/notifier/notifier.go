package notifier

import (
	"context"
)

// Notification is a fully rendered email ready for delivery.
type Notification struct {
	RecipientEmail string
	Subject        string
	HTMLBody       string
	TextBody       string
}

// Notifier delivers one notification. Implementations must return a
// deterministic success or error so the dispatch record can drive retries.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
