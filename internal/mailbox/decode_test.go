package mailbox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	gmail "google.golang.org/api/gmail/v1"
)

func pushEnvelopeJSON(t *testing.T, emailAddress string, historyID any) []byte {
	t.Helper()
	payload := fmt.Sprintf(`{"emailAddress":%q,"historyId":%v}`, emailAddress, historyID)
	data := base64.StdEncoding.EncodeToString([]byte(payload))
	return []byte(fmt.Sprintf(`{"message":{"data":%q,"messageId":"pub-1"},"subscription":"projects/p/subscriptions/s"}`, data))
}

func TestDecodePushNotification(t *testing.T) {
	raw := pushEnvelopeJSON(t, "assistant@company.com", 987654)

	n, err := DecodePushNotification(raw)
	if err != nil {
		t.Fatalf("decoding notification: %v", err)
	}
	if n.EmailAddress != "assistant@company.com" {
		t.Errorf("unexpected email address: %q", n.EmailAddress)
	}
	if n.HistoryID != 987654 {
		t.Errorf("unexpected history id: %d", n.HistoryID)
	}
}

func TestDecodePushNotificationStringHistoryID(t *testing.T) {
	// Pub/Sub delivers historyId as a JSON number but some clients
	// re-serialize it as a string.
	n, err := DecodePushNotification(pushEnvelopeJSON(t, "a@b.com", `"42"`))
	if err != nil {
		t.Fatalf("decoding notification: %v", err)
	}
	if n.HistoryID != 42 {
		t.Errorf("unexpected history id: %d", n.HistoryID)
	}
}

func TestDecodePushNotificationMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("nope")},
		{"empty envelope", []byte(`{}`)},
		{"missing data", []byte(`{"message":{"messageId":"x"}}`)},
		{"bad base64", []byte(`{"message":{"data":"!!!"}}`)},
		{"payload not json", []byte(fmt.Sprintf(`{"message":{"data":%q}}`,
			base64.StdEncoding.EncodeToString([]byte("not json"))))},
		{"missing fields", []byte(fmt.Sprintf(`{"message":{"data":%q}}`,
			base64.StdEncoding.EncodeToString([]byte(`{"emailAddress":""}`))))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodePushNotification(tc.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrMalformedNotification) {
				t.Errorf("expected ErrMalformedNotification, got %v", err)
			}
		})
	}
}

func TestCanonicalMessageID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<abc@mail.example.com>", "abc@mail.example.com"},
		{"abc@mail.example.com", "abc@mail.example.com"},
		{"  <abc@x>  ", "abc@x"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := CanonicalMessageID(tc.in); got != tc.want {
			t.Errorf("CanonicalMessageID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitReferences(t *testing.T) {
	refs := SplitReferences("<first@x>\t <second@x>\n<third@x>")
	want := []string{"first@x", "second@x", "third@x"}
	if len(refs) != len(want) {
		t.Fatalf("expected %d references, got %d: %v", len(want), len(refs), refs)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("reference %d: got %q, want %q", i, refs[i], want[i])
		}
	}

	if refs := SplitReferences(""); refs != nil {
		t.Errorf("expected nil for empty header, got %v", refs)
	}
}

func TestNormalizeBody(t *testing.T) {
	got := NormalizeBody("line one\r\nline two\r\n\r\n\r\n\r\nline three\r\n")
	want := "line one\nline two\n\nline three"
	if got != want {
		t.Errorf("NormalizeBody = %q, want %q", got, want)
	}
}

func b64url(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractPlainTextSinglePart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: b64url("just the body")},
	}
	if got := ExtractPlainText(payload); got != "just the body" {
		t.Errorf("unexpected body: %q", got)
	}
}

func TestExtractPlainTextMultipart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<p>html</p>")}},
			{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("plain wins")}},
		},
	}
	if got := ExtractPlainText(payload); got != "plain wins" {
		t.Errorf("unexpected body: %q", got)
	}
}

func TestExtractPlainTextNested(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64url("nested plain")}},
				},
			},
			{MimeType: "application/pdf", Body: &gmail.MessagePartBody{Data: b64url("binary")}},
		},
	}
	if got := ExtractPlainText(payload); got != "nested plain" {
		t.Errorf("unexpected body: %q", got)
	}
}

func TestExtractPlainTextNone(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64url("<p>html only</p>")}},
		},
	}
	if got := ExtractPlainText(payload); got != "" {
		t.Errorf("expected empty body, got %q", got)
	}
}

func TestMessageFromGmail(t *testing.T) {
	msg := &gmail.Message{
		Id: "prov-1",
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Message-ID", Value: "<reply-1@mail.example.com>"},
				{Name: "In-Reply-To", Value: "<task-1@mail.example.com>"},
				{Name: "References", Value: "<root@x> <task-1@mail.example.com>"},
				{Name: "From", Value: "Bob Jones <bob@co.com>"},
				{Name: "Subject", Value: "Re: New Task Assignment"},
			},
			Body: &gmail.MessagePartBody{Data: b64url("Done!\r\n")},
		},
	}

	got := MessageFromGmail(msg)
	if got.MessageID != "reply-1@mail.example.com" {
		t.Errorf("unexpected message id: %q", got.MessageID)
	}
	if got.InReplyTo != "task-1@mail.example.com" {
		t.Errorf("unexpected in-reply-to: %q", got.InReplyTo)
	}
	if len(got.References) != 2 || got.References[1] != "task-1@mail.example.com" {
		t.Errorf("unexpected references: %v", got.References)
	}
	if got.From != "Bob Jones <bob@co.com>" {
		t.Errorf("unexpected from: %q", got.From)
	}
	if got.Body != "Done!" {
		t.Errorf("unexpected body: %q", got.Body)
	}
}
