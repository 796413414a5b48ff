package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/pkg/clients/whatsapp"
)

// WhatsApp alerts the manager about non-zero divergences and delivers the
// daily digest.
type WhatsApp struct {
	client    whatsapp.Client
	managerID string
	loc       *time.Location
	logger    *zap.Logger
}

func NewWhatsApp(client whatsapp.Client, managerID string, loc *time.Location, logger *zap.Logger) *WhatsApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WhatsApp{client: client, managerID: managerID, loc: loc, logger: logger}
}

// NotifyDivergence skips zero divergences.
func (w *WhatsApp) NotifyDivergence(ctx context.Context, ev models.DivergenceEvent) error {
	if ev.Divergence.IsZero() {
		return nil
	}
	return w.SendText(ctx, w.managerID, FormatDivergence(ev, w.loc))
}

// SendText delivers body to the given recipient.
func (w *WhatsApp) SendText(ctx context.Context, to, body string) error {
	resp, err := w.client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{To: to, Body: body})
	if err != nil {
		return err
	}
	if len(resp.Messages) > 0 {
		w.logger.Debug("whatsapp message accepted", zap.String("message_id", resp.Messages[0].ID))
	}
	return nil
}

// FormatDivergence renders the alert text.
func FormatDivergence(ev models.DivergenceEvent, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("⚠️ Divergência na auditoria #")
	fmt.Fprintf(&b, "%d\n", ev.AuditID)

	b.WriteString("Produto: ")
	b.WriteString(ev.ProductCode)
	if ev.Description != "" {
		b.WriteString(" - ")
		b.WriteString(ev.Description)
	}
	b.WriteString("\n")

	sign := ""
	if ev.Divergence.IsPositive() {
		sign = "+"
	}
	fmt.Fprintf(&b, "Recebido: %s | Sistema: %s | Divergência: %s%s\n",
		ev.Observed.String(), ev.Reference.String(), sign, ev.Divergence.String())
	fmt.Fprintf(&b, "Status: %s | Auditor: %s | %s",
		ev.Status, ev.AuditedBy, ev.AuditedAt.In(loc).Format("02/01/2006 15:04"))
	return b.String()
}
