// Package notify delivers workflow notifications. Dispatch is asynchronous
// and best-effort: a send never blocks a workflow and a delivery failure never
// propagates back into it.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/metrics"
)

// Message is one outbound notification: subject, resolved recipient emails, a
// template id and the context map the template renders from. Rendering and
// transport live behind Sender; this core only hands the message over.
type Message struct {
	Subject  string
	To       []string
	Template string
	Context  map[string]any
}

// Notifier accepts messages for delivery.
type Notifier interface {
	Send(msg Message)
}

// Sender is the delivery provider (SMTP relay, webhook, ...).
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// Dispatcher queues messages onto a buffered channel and delivers them from a
// single background worker. A full queue drops the message with a warning
// rather than blocking the caller.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	timeout time.Duration
	done    chan struct{}
}

func NewDispatcher(sender Sender, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, buffer),
		timeout: 15 * time.Second,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Send(msg Message) {
	if len(msg.To) == 0 {
		return
	}
	select {
	case d.queue <- msg:
		metrics.NotificationsQueued.Inc()
	default:
		slog.Warn("notify: queue full, dropping message", "subject", msg.Subject)
	}
}

// Close stops accepting messages and waits for the worker to drain the queue.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sender.Deliver(ctx, msg); err != nil {
			slog.Warn("notify: delivery failed", "subject", msg.Subject, "recipients", len(msg.To), "err", err)
		}
		cancel()
	}
}

// LogSender writes notifications to the structured log. Stands in for a real
// mail relay in dev and in tests.
type LogSender struct{}

func (LogSender) Deliver(_ context.Context, msg Message) error {
	slog.Info("notification",
		"subject", msg.Subject,
		"template", msg.Template,
		"recipients", len(msg.To))
	return nil
}
