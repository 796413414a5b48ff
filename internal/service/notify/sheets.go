package notify

import (
	"context"
	"time"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sheets"
)

// SheetMirror appends every audit to a shared Google Sheet.
type SheetMirror struct {
	repo       sheets.Repository
	sheetRange string
	loc        *time.Location
}

func NewSheetMirror(repo sheets.Repository, sheetRange string, loc *time.Location) *SheetMirror {
	if sheetRange == "" {
		sheetRange = sheets.AuditRange
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SheetMirror{repo: repo, sheetRange: sheetRange, loc: loc}
}

func (m *SheetMirror) NotifyDivergence(ctx context.Context, ev models.DivergenceEvent) error {
	return m.repo.WriteRow(ctx, m.sheetRange, []interface{}{
		ev.AuditedAt.In(m.loc).Format("2006-01-02 15:04:05"),
		ev.AuditID,
		ev.ProductCode,
		ev.Description,
		ev.Observed.String(),
		ev.Reference.String(),
		ev.Divergence.String(),
		string(ev.Status),
		ev.AuditedBy,
	})
}
