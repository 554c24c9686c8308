// Package mailbox isolates provider-specific mail access behind a small
// gateway interface plus pure decode helpers.
package mailbox

import (
	"context"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/model"
)

// Gateway abstracts the monitored mailbox. Implementations wrap one
// provider account and expose both the pull (polling) and push (history
// cursor) ingestion modes.
type Gateway interface {
	// Ready reports whether the gateway holds working credentials.
	Ready() bool

	// Account returns the monitored mailbox address.
	Account() string

	// ListRecentInbound returns the ids of messages received within the
	// trailing window, addressed to the monitored account. Fails with
	// ErrProviderUnavailable on auth/network error.
	ListRecentInbound(ctx context.Context, window time.Duration) ([]string, error)

	// FetchMessage retrieves full headers and the decoded plain-text
	// body for one message id.
	FetchMessage(ctx context.Context, id string) (*model.InboundMessage, error)

	// ListHistory returns the ids of messages added to the mailbox
	// since the given history cursor. A bounded fetch, not the full
	// recent window.
	ListHistory(ctx context.Context, startHistoryID uint64) ([]string, error)
}
