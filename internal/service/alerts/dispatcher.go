// Package alerts pushes urgent alerts to the manager at most once per trigger identifier.
package alerts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/reporting"
	"github.com/mamadbah2/meatdesk/pkg/clients/whatsapp"
)

// ErrNoRecipient indicates no manager number is configured for pushed messages.
var ErrNoRecipient = errors.New("no alert recipient configured")

// Dispatch outcomes reported to the Recorder.
const (
	ResultSent      = "sent"
	ResultDuplicate = "duplicate"
	ResultFailed    = "failed"
)

// Deduper claims trigger identifiers so each alert is delivered once.
type Deduper interface {
	Claim(ctx context.Context, triggerID string) (bool, error)
	Release(ctx context.Context, triggerID string) error
}

// Recorder counts dispatch outcomes. metrics.Registry satisfies it.
type Recorder interface {
	AlertDispatched(result string)
}

// Dispatcher delivers alerts and reports over WhatsApp.
type Dispatcher struct {
	dedup       Deduper
	client      whatsapp.Client
	recorder    Recorder
	recipient   string
	minSeverity models.Severity
	logger      *zap.Logger
}

// NewDispatcher wires a dispatcher that pushes CRITICAL and BLOCK alerts to recipient.
func NewDispatcher(dedup Deduper, client whatsapp.Client, recorder Recorder, recipient string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		dedup:       dedup,
		client:      client,
		recorder:    recorder,
		recipient:   recipient,
		minSeverity: models.SeverityCritical,
		logger:      logger,
	}
}

func (d *Dispatcher) record(result string) {
	if d.recorder != nil {
		d.recorder.AlertDispatched(result)
	}
}

// Notify sends a free-form message to the recipient.
func (d *Dispatcher) Notify(ctx context.Context, body string) error {
	if d.recipient == "" {
		return ErrNoRecipient
	}
	if _, err := d.client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{To: d.recipient, Body: body, PreviewURL: true}); err != nil {
		return fmt.Errorf("notify %s: %w", d.recipient, err)
	}
	return nil
}

// Dispatch pushes every urgent alert not delivered before and returns how many were sent.
// A failed send releases its claim so the next sweep retries it.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert) (int, error) {
	if d.recipient == "" {
		return 0, ErrNoRecipient
	}

	var (
		sent int
		errs []error
	)
	for _, a := range alerts {
		if a.Severity.Rank() > d.minSeverity.Rank() {
			continue
		}

		claimed, err := d.dedup.Claim(ctx, a.TriggerID)
		if err != nil {
			d.record(ResultFailed)
			errs = append(errs, fmt.Errorf("claim %s: %w", a.TriggerID, err))
			continue
		}
		if !claimed {
			d.record(ResultDuplicate)
			d.logger.Debug("alert already delivered", zap.String("trigger_id", a.TriggerID))
			continue
		}

		if err := d.Notify(ctx, reporting.FormatAlerts([]models.Alert{a})); err != nil {
			d.record(ResultFailed)
			if relErr := d.dedup.Release(ctx, a.TriggerID); relErr != nil {
				d.logger.Warn("failed to release alert claim", zap.String("trigger_id", a.TriggerID), zap.Error(relErr))
			}
			errs = append(errs, err)
			continue
		}

		d.record(ResultSent)
		d.logger.Info("alert pushed", zap.String("trigger_id", a.TriggerID), zap.String("severity", string(a.Severity)))
		sent++
	}

	return sent, errors.Join(errs...)
}
