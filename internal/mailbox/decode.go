package mailbox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// PushNotification is the decoded content of a provider push envelope:
// which account changed and the history cursor to fetch changes from.
type PushNotification struct {
	EmailAddress string
	HistoryID    uint64
}

// pushEnvelope mirrors the Pub/Sub push request body. The interesting
// payload is base64-encoded JSON inside message.data.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodePushNotification decodes a raw push envelope into the account
// address and history cursor it carries. It is a pure function so the
// decode logic stays unit-testable without any network. Failures wrap
// ErrMalformedNotification.
func DecodePushNotification(raw []byte) (*PushNotification, error) {
	var envelope pushEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: parsing envelope: %v", ErrMalformedNotification, err)
	}
	if envelope.Message.Data == "" {
		return nil, fmt.Errorf("%w: envelope has no message data", ErrMalformedNotification)
	}

	data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(envelope.Message.Data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding message data: %v", ErrMalformedNotification, err)
	}

	var payload struct {
		EmailAddress string      `json:"emailAddress"`
		HistoryID    json.Number `json:"historyId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing notification payload: %v", ErrMalformedNotification, err)
	}
	if payload.EmailAddress == "" || payload.HistoryID == "" {
		return nil, fmt.Errorf("%w: missing emailAddress or historyId", ErrMalformedNotification)
	}

	historyID, err := payload.HistoryID.Int64()
	if err != nil || historyID < 0 {
		return nil, fmt.Errorf("%w: invalid historyId %q", ErrMalformedNotification, payload.HistoryID)
	}

	return &PushNotification{
		EmailAddress: payload.EmailAddress,
		HistoryID:    uint64(historyID),
	}, nil
}

// NormalizeBody normalizes line endings, collapses runs of three or more
// blank lines, and trims surrounding whitespace.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	for strings.Contains(body, "\n\n\n") {
		body = strings.ReplaceAll(body, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(body)
}

// CanonicalMessageID strips the angle brackets and surrounding whitespace
// from a Message-ID header value, so ids compare equal regardless of
// which side added the brackets.
func CanonicalMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return id
}

// SplitReferences splits a References header value into its ordered list
// of canonical message ids.
func SplitReferences(header string) []string {
	fields := strings.Fields(header)
	refs := make([]string, 0, len(fields))
	for _, f := range fields {
		if id := CanonicalMessageID(f); id != "" {
			refs = append(refs, id)
		}
	}
	return refs
}
