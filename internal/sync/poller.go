// Package sync drives the reconciliation engine from the mailbox: a
// recurring polling loop plus the per-message flow shared with the
// webhook ingestion path.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/mailbox"
	"github.com/mkhoa/meeting-assistant/internal/model"
	"github.com/mkhoa/meeting-assistant/internal/reconcile"
)

// checkTimeout is the maximum time allowed for a single check cycle.
const checkTimeout = 30 * time.Second

// defaultInterval is used when Start is given a non-positive interval.
const defaultInterval = 2 * time.Minute

// Engine is the slice of the reconciliation engine the poller needs.
type Engine interface {
	Reconcile(ctx context.Context, msg model.InboundMessage) (*reconcile.Outcome, error)
}

// Status is a snapshot of the poller for the status endpoint.
type Status struct {
	IsPolling    bool       `json:"isPolling"`
	GatewayReady bool       `json:"gatewayReady"`
	LastCheck    *time.Time `json:"lastCheckTimestamp,omitempty"`
}

// Poller periodically checks the mailbox for new replies and hands them
// to the reconciliation engine. It owns its Stopped/Running state, so
// tests can run several independent instances.
type Poller struct {
	gateway mailbox.Gateway
	engine  Engine
	logger  *slog.Logger
	window  time.Duration

	mu        gosync.Mutex
	running   bool
	stopCh    chan struct{}
	lastCheck time.Time
}

// New creates a stopped poller. window is the trailing receive window
// queried on each cycle.
func New(
	gateway mailbox.Gateway,
	engine Engine,
	window time.Duration,
	logger *slog.Logger,
) *Poller {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Poller{
		gateway: gateway,
		engine:  engine,
		window:  window,
		logger:  logging.WithComponent(logger, "poller"),
	}
}

// Start transitions the poller to Running: one immediate check, then one
// every interval until Stop. A no-op when already running. Fails without
// starting when the mailbox gateway has no credentials, since that is a
// configuration error rather than a runtime event.
func (p *Poller) Start(interval time.Duration) error {
	if !p.gateway.Ready() {
		return fmt.Errorf("starting poller: %w", mailbox.ErrNotReady)
	}
	if interval <= 0 {
		interval = defaultInterval
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Info("polling already running")
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	p.logger.Info("polling started", logging.Duration("interval", interval))
	go p.run(interval, stopCh)
	return nil
}

// Stop cancels the recurring check. Idempotent. A check already in
// progress is not interrupted; Stop only prevents future ones.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	p.logger.Info("polling stopped")
}

// CheckNow performs exactly one check cycle, usable whether or not the
// recurring poll is running.
func (p *Poller) CheckNow(ctx context.Context) {
	p.runCycle(ctx)
}

// Status returns a snapshot of the poller state.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		IsPolling:    p.running,
		GatewayReady: p.gateway.Ready(),
	}
	if !p.lastCheck.IsZero() {
		last := p.lastCheck
		st.LastCheck = &last
	}
	return st
}

// run is the polling loop goroutine.
func (p *Poller) run(interval time.Duration, stopCh <-chan struct{}) {
	p.cycleWithTimeout()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.cycleWithTimeout()
		}
	}
}

func (p *Poller) cycleWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	p.runCycle(ctx)
}

// runCycle performs one check: list recent inbound messages, then route
// each through the per-message flow. Per-message failures are logged and
// do not abort the rest of the batch.
func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.lastCheck = time.Now().UTC()
		p.mu.Unlock()
	}()

	ids, err := p.gateway.ListRecentInbound(ctx, p.window)
	if err != nil {
		// Transient: the next scheduled cycle retries.
		p.logger.Error("listing recent inbound messages", logging.Error(err))
		return
	}

	p.logger.Debug("checking recent messages", logging.Int("count", len(ids)))

	for _, id := range ids {
		if err := p.ProcessMessage(ctx, id); err != nil {
			p.logger.Warn("processing message",
				logging.String("message_id", id),
				logging.Error(err))
		}
	}
}

// ProcessMessage fetches one message and, if it is a reply, hands it to
// the reconciliation engine. The webhook ingestion path routes history
// message ids through here as well.
func (p *Poller) ProcessMessage(ctx context.Context, id string) error {
	msg, err := p.gateway.FetchMessage(ctx, id)
	if err != nil {
		return err
	}

	// Only replies can match a task notification.
	if msg.InReplyTo == "" && len(msg.References) == 0 {
		return nil
	}

	if _, err := p.engine.Reconcile(ctx, *msg); err != nil {
		return fmt.Errorf("reconciling message %s: %w", id, err)
	}
	return nil
}
