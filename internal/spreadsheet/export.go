package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/recebimento/internal/domain/models"
)

const (
	// AuditsFilename is the download name of the audit report.
	AuditsFilename = "auditorias_recebimento.xlsx"
	// ReceptionsFilename is the download name of the reception report.
	ReceptionsFilename = "relatorio_recebimentos.xlsx"
	// ContentType is the xlsx MIME type.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	auditSheet     = "Auditorias"
	receptionSheet = "Recebimentos"
	timeLayout     = time.RFC3339Nano
)

var (
	auditHeader = []string{
		"id", "product_code", "reception_id", "mode", "observed_quantity", "reference_quantity",
		"divergence", "audited_at", "audited_by", "note", "status",
	}
	receptionHeader = []string{
		"id", "product_code", "quantity", "received_at", "submitted_by", "note", "condition",
	}
)

// WriteAudits renders audits, one row per record in ledger field order.
// Timestamps are written in loc.
func WriteAudits(records []models.AuditRecord, loc *time.Location) ([]byte, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		var receptionID any = ""
		if r.ReceptionID != nil {
			receptionID = *r.ReceptionID
		}
		rows = append(rows, []any{
			r.ID,
			r.ProductCode,
			receptionID,
			string(r.Mode),
			quantityCell(r.ObservedQuantity),
			quantityCell(r.ReferenceQuantity),
			quantityCell(r.Divergence),
			r.AuditedAt.In(location(loc)).Format(timeLayout),
			r.AuditedBy,
			r.Note,
			string(r.Status),
		})
	}
	return writeSheet(auditSheet, auditHeader, rows)
}

// WriteReceptions renders receptions, one row per record in ledger field
// order. Evidence photos are not exported.
func WriteReceptions(records []models.ReceptionRecord, loc *time.Location) ([]byte, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			r.ID,
			r.ProductCode,
			quantityCell(r.Quantity),
			r.ReceivedAt.In(location(loc)).Format(timeLayout),
			r.SubmittedBy,
			r.Note,
			string(r.Condition),
		})
	}
	return writeSheet(receptionSheet, receptionHeader, rows)
}

// quantityCell writes a number when float64 holds qty exactly and text
// otherwise, so wide decimal(20,4) values survive ReadAudits/ReadReceptions.
func quantityCell(qty decimal.Decimal) any {
	f := qty.InexactFloat64()
	if decimal.NewFromFloat(f).Equal(qty) {
		return f
	}
	return qty.String()
}

func writeSheet(sheet string, header []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return nil, fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, anchor, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadAudits parses a file produced by WriteAudits.
func ReadAudits(r io.Reader) ([]models.AuditRecord, error) {
	rows, err := readSheet(r, auditSheet, auditHeader)
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditRecord, 0, len(rows))
	for i, row := range rows {
		p := rowParser{row: row, line: i + 2}
		rec := models.AuditRecord{
			ID:                p.asUint(0),
			ProductCode:       p.text(1),
			Mode:              models.AuditMode(p.text(3)),
			ObservedQuantity:  p.asDecimal(4),
			ReferenceQuantity: p.asDecimal(5),
			Divergence:        p.asDecimal(6),
			AuditedAt:         p.asTime(7),
			AuditedBy:         p.text(8),
			Note:              p.text(9),
			Status:            models.AuditStatus(p.text(10)),
		}
		if p.text(2) != "" {
			id := p.asUint(2)
			rec.ReceptionID = &id
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadReceptions parses a file produced by WriteReceptions.
func ReadReceptions(r io.Reader) ([]models.ReceptionRecord, error) {
	rows, err := readSheet(r, receptionSheet, receptionHeader)
	if err != nil {
		return nil, err
	}

	out := make([]models.ReceptionRecord, 0, len(rows))
	for i, row := range rows {
		p := rowParser{row: row, line: i + 2}
		rec := models.ReceptionRecord{
			ID:          p.asUint(0),
			ProductCode: p.text(1),
			Quantity:    p.asDecimal(2),
			ReceivedAt:  p.asTime(3),
			SubmittedBy: p.text(4),
			Note:        p.text(5),
			Condition:   models.Condition(p.text(6)),
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, rec)
	}
	return out, nil
}

func readSheet(r io.Reader, sheet string, header []string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open spreadsheet: %v", models.ErrValidation, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read sheet %s: %v", models.ErrValidation, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", models.ErrValidation, sheet)
	}
	if strings.Join(rows[0], ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("%w: unexpected header in sheet %s", models.ErrValidation, sheet)
	}
	return rows[1:], nil
}

// rowParser keeps the first conversion error so row decoding reads linearly.
type rowParser struct {
	row  []string
	line int
	err  error
}

func (p *rowParser) text(i int) string {
	if i < len(p.row) {
		return p.row[i]
	}
	return ""
}

func (p *rowParser) fail(i int, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: row %d column %d: %v", models.ErrValidation, p.line, i+1, err)
	}
}

func (p *rowParser) asUint(i int) uint {
	v, err := strconv.ParseUint(p.text(i), 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return uint(v)
}

func (p *rowParser) asDecimal(i int) decimal.Decimal {
	v, err := decimal.NewFromString(p.text(i))
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *rowParser) asTime(i int) time.Time {
	v, err := time.Parse(timeLayout, p.text(i))
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
