package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/reconcile"
)

type fakeGateway struct {
	ready    bool
	ids      []string
	listErr  error
	messages map[string]*model.InboundMessage
	fetchErr map[string]error
}

func (g *fakeGateway) Ready() bool     { return g.ready }
func (g *fakeGateway) Account() string { return "assistant@company.com" }

func (g *fakeGateway) ListRecentInbound(context.Context, time.Duration) ([]string, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.ids, nil
}

func (g *fakeGateway) FetchMessage(_ context.Context, id string) (*model.InboundMessage, error) {
	if err := g.fetchErr[id]; err != nil {
		return nil, err
	}
	msg, ok := g.messages[id]
	if !ok {
		return nil, mailbox.ErrProviderUnavailable
	}
	return msg, nil
}

func (g *fakeGateway) ListHistory(context.Context, uint64) ([]string, error) {
	return g.ids, nil
}

type fakeEngine struct {
	mu       gosync.Mutex
	received []model.InboundMessage
	err      error
}

func (e *fakeEngine) Reconcile(_ context.Context, msg model.InboundMessage) (*reconcile.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.received = append(e.received, msg)
	return &reconcile.Outcome{Matched: true}, nil
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.received)
}

func TestStartRequiresReadyGateway(t *testing.T) {
	p := New(&fakeGateway{ready: false}, &fakeEngine{}, 0, logging.NewNop())

	err := p.Start(time.Minute)
	if !errors.Is(err, mailbox.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if p.Status().IsPolling {
		t.Error("poller reported running after failed start")
	}
}

func TestStartAndStop(t *testing.T) {
	gw := &fakeGateway{ready: true}
	p := New(gw, &fakeEngine{}, time.Hour, logging.NewNop())

	if err := p.Start(time.Hour); err != nil {
		t.Fatalf("starting: %v", err)
	}
	if !p.Status().IsPolling {
		t.Error("poller not reported running")
	}

	// Second start is a no-op, not an error.
	if err := p.Start(time.Hour); err != nil {
		t.Fatalf("restarting: %v", err)
	}

	p.Stop()
	if p.Status().IsPolling {
		t.Error("poller still reported running after stop")
	}

	// Stop is idempotent.
	p.Stop()
}

func TestCheckNowProcessesReplies(t *testing.T) {
	gw := &fakeGateway{
		ready: true,
		ids:   []string{"m1", "m2", "m3"},
		messages: map[string]*model.InboundMessage{
			"m1": {MessageID: "a@x", InReplyTo: "task-1@x", From: "bob@co.com", Body: "done"},
			"m2": {MessageID: "b@x", From: "newsletter@spam.com", Body: "weekly digest"},
			"m3": {MessageID: "c@x", References: []string{"task-2@x"}, From: "ann@co.com", Body: "started"},
		},
	}
	engine := &fakeEngine{}
	p := New(gw, engine, time.Hour, logging.NewNop())

	p.CheckNow(context.Background())

	// m2 is not a reply and never reaches the engine.
	if got := engine.count(); got != 2 {
		t.Fatalf("expected 2 reconciled messages, got %d", got)
	}
	if p.Status().LastCheck == nil {
		t.Error("last check timestamp not recorded")
	}
}

func TestCheckNowContinuesPastFetchFailure(t *testing.T) {
	gw := &fakeGateway{
		ready: true,
		ids:   []string{"bad", "good"},
		messages: map[string]*model.InboundMessage{
			"good": {MessageID: "a@x", InReplyTo: "task-1@x", From: "bob@co.com", Body: "done"},
		},
		fetchErr: map[string]error{"bad": mailbox.ErrProviderUnavailable},
	}
	engine := &fakeEngine{}
	p := New(gw, engine, time.Hour, logging.NewNop())

	p.CheckNow(context.Background())

	if got := engine.count(); got != 1 {
		t.Fatalf("expected 1 reconciled message, got %d", got)
	}
}

func TestCheckNowListFailureIsTransient(t *testing.T) {
	gw := &fakeGateway{ready: true, listErr: mailbox.ErrProviderUnavailable}
	engine := &fakeEngine{}
	p := New(gw, engine, time.Hour, logging.NewNop())

	p.CheckNow(context.Background())

	if got := engine.count(); got != 0 {
		t.Fatalf("expected no reconciled messages, got %d", got)
	}
	// The cycle still counts as a check.
	if p.Status().LastCheck == nil {
		t.Error("last check timestamp not recorded")
	}
}

func TestProcessMessageWrapsEngineError(t *testing.T) {
	gw := &fakeGateway{
		ready: true,
		messages: map[string]*model.InboundMessage{
			"m1": {MessageID: "a@x", InReplyTo: "task-1@x", From: "bob@co.com", Body: "done"},
		},
	}
	engine := &fakeEngine{err: errors.New("disk full")}
	p := New(gw, engine, time.Hour, logging.NewNop())

	err := p.ProcessMessage(context.Background(), "m1")
	if err == nil {
		t.Fatal("expected error from engine failure")
	}
}
