package mailbox

import "errors"

// ErrProviderUnavailable wraps auth or network failures talking to the
// mail provider. Callers treat it as transient and retry on the next
// scheduled cycle.
var ErrProviderUnavailable = errors.New("mailbox provider unavailable")

// ErrMalformedNotification is returned when a push envelope cannot be
// decoded or lacks required fields. Permanent for that event: it is
// logged and acknowledged, never retried.
var ErrMalformedNotification = errors.New("malformed push notification")

// ErrNotReady is returned when the gateway has no credentials configured.
var ErrNotReady = errors.New("mailbox gateway not ready")
