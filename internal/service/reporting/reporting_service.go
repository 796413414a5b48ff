package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/spreadsheet"
)

const dateLayout = "2006-01-02"

// Service exposes ledger queries, spreadsheet exports and the daily digest.
type Service struct {
	store  *sqlstore.Store
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. Calendar days are
// interpreted in loc.
func NewService(store *sqlstore.Store, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger, now: time.Now}
}

// Location returns the reporting timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// QueryAudits lists audits whose timestamp falls in the filter's days,
// oldest first.
func (s *Service) QueryAudits(ctx context.Context, sess models.Session, filter models.ReportFilter) ([]models.AuditRecord, error) {
	if err := models.RequireRole(sess, models.RoleAuditor); err != nil {
		return nil, err
	}

	q, err := s.auditQuery(filter)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryAudits(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	return records, nil
}

// QueryReceptions lists receptions whose timestamp falls in the filter's
// days, oldest first. Status filters do not apply to receptions.
func (s *Service) QueryReceptions(ctx context.Context, sess models.Session, filter models.ReportFilter) ([]models.ReceptionRecord, error) {
	if err := models.RequireRole(sess, models.RoleAdmin); err != nil {
		return nil, err
	}

	rng, err := s.dayRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	records, err := s.store.QueryReceptions(ctx, sqlstore.ReceptionQuery{
		Range:       rng,
		SubmittedBy: strings.TrimSpace(filter.Submitter),
	})
	if err != nil {
		return nil, fmt.Errorf("query receptions: %w", err)
	}
	return records, nil
}

// ExportAudits renders QueryAudits as an xlsx file.
func (s *Service) ExportAudits(ctx context.Context, sess models.Session, filter models.ReportFilter) ([]byte, error) {
	records, err := s.QueryAudits(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.WriteAudits(records, s.loc)
	if err != nil {
		return nil, fmt.Errorf("export audits: %w", err)
	}
	s.logger.Info("audits exported", zap.Int("rows", len(records)), zap.String("by", sess.UserID))
	return data, nil
}

// ExportReceptions renders QueryReceptions as an xlsx file.
func (s *Service) ExportReceptions(ctx context.Context, sess models.Session, filter models.ReportFilter) ([]byte, error) {
	records, err := s.QueryReceptions(ctx, sess, filter)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.WriteReceptions(records, s.loc)
	if err != nil {
		return nil, fmt.Errorf("export receptions: %w", err)
	}
	s.logger.Info("receptions exported", zap.Int("rows", len(records)), zap.String("by", sess.UserID))
	return data, nil
}

func (s *Service) auditQuery(filter models.ReportFilter) (sqlstore.AuditQuery, error) {
	rng, err := s.dayRange(filter.From, filter.To)
	if err != nil {
		return sqlstore.AuditQuery{}, err
	}

	q := sqlstore.AuditQuery{
		Range:      rng,
		Unresolved: filter.Unresolved,
		AuditedBy:  strings.TrimSpace(filter.Submitter),
	}
	if filter.Status != "" {
		status, err := models.ParseAuditStatus(string(filter.Status))
		if err != nil {
			return sqlstore.AuditQuery{}, err
		}
		q.Status = status
	}
	return q, nil
}

// dayRange turns inclusive calendar days into a half-open instant range.
// Only the year, month and day of from and to are used.
func (s *Service) dayRange(from, to time.Time) (sqlstore.TimeRange, error) {
	var rng sqlstore.TimeRange
	if !from.IsZero() {
		rng.Start = startOfDay(from, s.loc)
	}
	if !to.IsZero() {
		rng.End = startOfDay(to, s.loc).AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !rng.Start.Before(rng.End) {
		return sqlstore.TimeRange{}, fmt.Errorf("%w: date range starts %s after it ends %s",
			models.ErrValidation, from.Format(dateLayout), to.Format(dateLayout))
	}
	return rng, nil
}

func startOfDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate reads a YYYY-MM-DD day in the reporting timezone. An empty
// value yields the zero time.
func (s *Service) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil || len(value) != len(dateLayout) {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrValidation, value)
	}
	return day, nil
}

// DailyDigest aggregates the activity of the calendar day containing day.
func (s *Service) DailyDigest(ctx context.Context, day time.Time) (models.DailyDigest, error) {
	day = day.In(s.loc)
	rng, err := s.dayRange(day, day)
	if err != nil {
		return models.DailyDigest{}, err
	}

	receptions, err := s.store.QueryReceptions(ctx, sqlstore.ReceptionQuery{Range: rng})
	if err != nil {
		return models.DailyDigest{}, fmt.Errorf("load receptions for digest: %w", err)
	}
	audits, err := s.store.QueryAudits(ctx, sqlstore.AuditQuery{Range: rng})
	if err != nil {
		return models.DailyDigest{}, fmt.Errorf("load audits for digest: %w", err)
	}
	backlog, err := s.store.CountUnresolved(ctx)
	if err != nil {
		return models.DailyDigest{}, fmt.Errorf("count backlog for digest: %w", err)
	}

	digest := models.DailyDigest{
		Date:             rng.Start,
		Receptions:       len(receptions),
		Audits:           len(audits),
		NetDivergence:    decimal.Zero,
		LargestDeviation: decimal.Zero,
		PendingBacklog:   int(backlog),
		CreatedAt:        s.now().UTC(),
	}
	for _, a := range audits {
		switch a.Status {
		case models.StatusOpen:
			digest.Open++
		case models.StatusInTreatment:
			digest.InTreatment++
		case models.StatusResolved:
			digest.Resolved++
		}
		digest.NetDivergence = digest.NetDivergence.Add(a.Divergence)
		if a.Divergence.Abs().GreaterThan(digest.LargestDeviation.Abs()) {
			digest.LargestDeviation = a.Divergence
			digest.LargestProduct = a.ProductCode
		}
	}

	s.logger.Debug("daily digest computed",
		zap.String("date", digest.Date.Format(dateLayout)),
		zap.Int("receptions", digest.Receptions),
		zap.Int("audits", digest.Audits))
	return digest, nil
}

// FormatDigest renders a digest as a short chat message.
func FormatDigest(d models.DailyDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Resumo FLV %s\n", d.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "Recebimentos: %d\n", d.Receptions)
	if d.Audits == 0 {
		b.WriteString("Auditorias: nenhuma hoje.\n")
	} else {
		fmt.Fprintf(&b, "Auditorias: %d (abertas %d, em tratamento %d, resolvidas %d)\n",
			d.Audits, d.Open, d.InTreatment, d.Resolved)
		fmt.Fprintf(&b, "Divergência líquida: %s\n", d.NetDivergence.String())
		if d.LargestProduct != "" {
			fmt.Fprintf(&b, "Maior divergência: %s (%s)\n", d.LargestProduct, d.LargestDeviation.String())
		}
	}
	fmt.Fprintf(&b, "Pendências em aberto: %d", d.PendingBacklog)
	return b.String()
}
