// Package notify fans divergence events out to the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/metrics"
)

// Notifier receives an event after an audit is persisted. Delivery is
// best effort: callers log failures and never retry.
type Notifier interface {
	NotifyDivergence(ctx context.Context, ev models.DivergenceEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev models.DivergenceEvent) error

func (f NotifierFunc) NotifyDivergence(ctx context.Context, ev models.DivergenceEvent) error {
	return f(ctx, ev)
}

// TextSender delivers a free text message, used for scheduled digests.
type TextSender interface {
	SendText(ctx context.Context, to, body string) error
}

type target struct {
	name     string
	notifier Notifier
}

// Dispatcher calls every registered notifier in order. One failing target
// does not stop the others.
type Dispatcher struct {
	targets []target
	metrics *metrics.Registry
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(m *metrics.Registry) *Dispatcher {
	return &Dispatcher{metrics: m}
}

// Add registers a notifier under name.
func (d *Dispatcher) Add(name string, n Notifier) *Dispatcher {
	if n != nil {
		d.targets = append(d.targets, target{name: name, notifier: n})
	}
	return d
}

// Len reports how many targets are registered.
func (d *Dispatcher) Len() int {
	return len(d.targets)
}

// NotifyDivergence returns the joined errors of all failed targets.
func (d *Dispatcher) NotifyDivergence(ctx context.Context, ev models.DivergenceEvent) error {
	var errs []error
	for _, t := range d.targets {
		if err := t.notifier.NotifyDivergence(ctx, ev); err != nil {
			d.metrics.NotifyFailed(t.name)
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes every event to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyDivergence(_ context.Context, ev models.DivergenceEvent) error {
	level := zap.InfoLevel
	if !ev.Divergence.IsZero() {
		level = zap.WarnLevel
	}
	n.logger.Log(level, "audit divergence",
		zap.Uint("audit_id", ev.AuditID),
		zap.String("product_code", ev.ProductCode),
		zap.String("observed", ev.Observed.String()),
		zap.String("reference", ev.Reference.String()),
		zap.String("divergence", ev.Divergence.String()),
		zap.String("status", string(ev.Status)),
		zap.String("audited_by", ev.AuditedBy))
	return nil
}
