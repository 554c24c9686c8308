package mailbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/model"
)

// GmailConfig holds the OAuth credentials for the monitored account.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Account      string
	TopicName    string
}

// GmailGateway implements Gateway for one Gmail account, authenticated
// with a refresh token.
type GmailGateway struct {
	svc     *gmail.Service
	account string
	topic   string
	logger  *slog.Logger
}

// NewGmailGateway builds a gateway for the configured account. Missing
// credentials are not an error: the gateway comes back not-ready, and
// the polling scheduler refuses to start until it is reconfigured.
func NewGmailGateway(
	ctx context.Context,
	cfg GmailConfig,
	logger *slog.Logger,
) (*GmailGateway, error) {
	g := &GmailGateway{
		account: cfg.Account,
		topic:   cfg.TopicName,
		logger:  logging.WithComponent(logger, "gmail-gateway"),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		g.logger.Warn("gmail credentials not configured, gateway disabled")
		return g, nil
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailModifyScope,
		},
	}

	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	})

	svc, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	g.svc = svc
	return g, nil
}

// Ready reports whether the gateway holds working credentials.
func (g *GmailGateway) Ready() bool {
	return g.svc != nil
}

// Account returns the monitored mailbox address.
func (g *GmailGateway) Account() string {
	return g.account
}

// ListRecentInbound lists message ids received within the trailing
// window, addressed to the monitored account.
func (g *GmailGateway) ListRecentInbound(
	ctx context.Context,
	window time.Duration,
) ([]string, error) {
	if !g.Ready() {
		return nil, ErrNotReady
	}

	days := int(window / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	query := fmt.Sprintf("to:%s newer_than:%dd", g.account, days)

	resp, err := g.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(50).
		Context(ctx).
		Do()
	if err != nil {
		return nil, providerErr("listing recent messages", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// FetchMessage retrieves one message in full format and decodes its
// headers and plain-text body.
func (g *GmailGateway) FetchMessage(
	ctx context.Context,
	id string,
) (*model.InboundMessage, error) {
	if !g.Ready() {
		return nil, ErrNotReady
	}

	msg, err := g.svc.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, providerErr(fmt.Sprintf("fetching message %s", id), err)
	}

	return MessageFromGmail(msg), nil
}

// ListHistory returns the ids of messages added since the given history
// cursor, bounded to avoid unbounded catch-up fetches.
func (g *GmailGateway) ListHistory(
	ctx context.Context,
	startHistoryID uint64,
) ([]string, error) {
	if !g.Ready() {
		return nil, ErrNotReady
	}

	const maxMessages = 100

	var ids []string
	seen := make(map[string]bool)
	pageToken := ""

	for {
		call := g.svc.Users.History.List("me").
			StartHistoryId(startHistoryID).
			HistoryTypes("messageAdded").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			// A 404 means the cursor expired; the next poll cycle
			// covers the gap.
			if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 404 {
				g.logger.Warn("history cursor expired",
					logging.Uint64("start_history_id", startHistoryID))
			}
			return nil, providerErr("listing history", err)
		}

		for _, record := range resp.History {
			for _, added := range record.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				ids = append(ids, added.Message.Id)
			}
		}

		if resp.NextPageToken == "" || len(ids) >= maxMessages {
			break
		}
		pageToken = resp.NextPageToken
	}

	return ids, nil
}

// Watch registers the Pub/Sub push subscription for the inbox and
// returns the current history cursor.
func (g *GmailGateway) Watch(ctx context.Context) (uint64, error) {
	if !g.Ready() {
		return 0, ErrNotReady
	}
	if g.topic == "" {
		return 0, fmt.Errorf("no pub/sub topic configured")
	}

	resp, err := g.svc.Users.Watch("me", &gmail.WatchRequest{
		TopicName:         g.topic,
		LabelIds:          []string{"INBOX"},
		LabelFilterAction: "include",
	}).Context(ctx).Do()
	if err != nil {
		return 0, providerErr("registering watch", err)
	}

	g.logger.Info("gmail watch registered",
		logging.Uint64("history_id", resp.HistoryId))
	return resp.HistoryId, nil
}

// StopWatch cancels the push subscription.
func (g *GmailGateway) StopWatch(ctx context.Context) error {
	if !g.Ready() {
		return ErrNotReady
	}
	if err := g.svc.Users.Stop("me").Context(ctx).Do(); err != nil {
		return providerErr("stopping watch", err)
	}
	return nil
}

// MessageFromGmail converts a full-format Gmail message into the
// transient InboundMessage the engine consumes.
func MessageFromGmail(msg *gmail.Message) *model.InboundMessage {
	if msg == nil || msg.Payload == nil {
		return &model.InboundMessage{}
	}

	headers := msg.Payload.Headers

	return &model.InboundMessage{
		MessageID:  CanonicalMessageID(headerValue(headers, "Message-ID")),
		InReplyTo:  CanonicalMessageID(headerValue(headers, "In-Reply-To")),
		References: SplitReferences(headerValue(headers, "References")),
		From:       headerValue(headers, "From"),
		Subject:    headerValue(headers, "Subject"),
		Body:       NormalizeBody(ExtractPlainText(msg.Payload)),
	}
}

// ExtractPlainText recursively searches a message payload for the first
// text/plain part and returns its decoded body, or "" if none exists.
func ExtractPlainText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	// Single-part message: the body lives on the payload itself.
	if len(payload.Parts) == 0 {
		if payload.Body != nil && payload.Body.Data != "" {
			return decodeBodyData(payload.Body.Data)
		}
		return ""
	}

	for _, part := range payload.Parts {
		if strings.HasPrefix(part.MimeType, "text/plain") &&
			part.Body != nil && part.Body.Data != "" {
			return decodeBodyData(part.Body.Data)
		}
		if len(part.Parts) > 0 {
			if body := ExtractPlainText(part); body != "" {
				return body
			}
		}
	}

	return ""
}

// decodeBodyData decodes a Gmail body payload. The API uses URL-safe
// base64, with or without padding.
func decodeBodyData(data string) string {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
	} {
		if decoded, err := enc.DecodeString(data); err == nil {
			return string(decoded)
		}
	}
	return ""
}

// headerValue returns the value of the named header, case-insensitively.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func providerErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, op, err)
}
