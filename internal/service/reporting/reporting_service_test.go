package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore/sqlstoretest"
	"github.com/mamadbah2/recebimento/internal/spreadsheet"
)

var (
	brt     = time.FixedZone("BRT", -3*60*60)
	alice   = models.Session{UserID: "alice", Role: models.RoleReceiver}
	bob     = models.Session{UserID: "bob", Role: models.RoleAuditor}
	manager = models.Session{UserID: "gestor", Role: models.RoleAdmin}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, brt)
}

func seed(t *testing.T) (*Service, *sqlstore.Store) {
	t.Helper()
	store := sqlstoretest.Open(t)
	ctx := context.Background()

	receptions := []models.ReceptionRecord{
		// 2024-01-01 22:00 BRT
		{ProductCode: "001", Quantity: decimal.RequireFromString("20"), ReceivedAt: time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), SubmittedBy: "alice", Condition: models.ConditionGood},
		// 2024-01-02 09:00 BRT
		{ProductCode: "002", Quantity: decimal.RequireFromString("7.5"), ReceivedAt: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), SubmittedBy: "carol", Condition: models.ConditionGood},
		// 2024-01-03 09:00 BRT
		{ProductCode: "001", Quantity: decimal.RequireFromString("3"), ReceivedAt: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), SubmittedBy: "alice", Condition: models.ConditionBad},
	}
	for i := range receptions {
		if err := store.CreateReception(ctx, &receptions[i]); err != nil {
			t.Fatalf("seed reception: %v", err)
		}
	}

	audits := []models.AuditRecord{
		{ProductCode: "001", Mode: models.ModeConsolidated, ObservedQuantity: decimal.NewFromInt(20), ReferenceQuantity: decimal.NewFromInt(18), Divergence: decimal.NewFromInt(2),
			AuditedAt: time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC), AuditedBy: "bob", Status: models.StatusOpen},
		{ProductCode: "002", Mode: models.ModeConsolidated, ObservedQuantity: decimal.RequireFromString("7.5"), ReferenceQuantity: decimal.RequireFromString("7.5"), Divergence: decimal.Zero,
			AuditedAt: time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC), AuditedBy: "dave", Status: models.StatusResolved},
		{ProductCode: "003", Mode: models.ModeConsolidated, ObservedQuantity: decimal.NewFromInt(1), ReferenceQuantity: decimal.NewFromInt(6), Divergence: decimal.NewFromInt(-5),
			AuditedAt: time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC), AuditedBy: "bob", Status: models.StatusInTreatment},
	}
	for i := range audits {
		if err := store.CreateAudit(ctx, &audits[i]); err != nil {
			t.Fatalf("seed audit: %v", err)
		}
	}

	return NewService(store, brt, nil), store
}

func TestInvertedRangeIsRejected(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()
	filter := models.ReportFilter{From: day(2024, 1, 2), To: day(2024, 1, 1)}

	if _, err := svc.QueryAudits(ctx, bob, filter); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("QueryAudits() error = %v, want ErrValidation", err)
	}
	if _, err := svc.QueryReceptions(ctx, manager, filter); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("QueryReceptions() error = %v, want ErrValidation", err)
	}
	if _, err := svc.ExportAudits(ctx, bob, filter); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("ExportAudits() error = %v, want ErrValidation", err)
	}
}

func TestQueryAuditsInclusiveDays(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter models.ReportFilter
		want   []string
	}{
		{name: "first day only", filter: models.ReportFilter{From: day(2024, 1, 1), To: day(2024, 1, 1)}, want: []string{"001"}},
		{name: "second day only", filter: models.ReportFilter{From: day(2024, 1, 2), To: day(2024, 1, 2)}, want: []string{"002", "003"}},
		{name: "open bounds", filter: models.ReportFilter{}, want: []string{"001", "002", "003"}},
		{name: "open start", filter: models.ReportFilter{To: day(2024, 1, 1)}, want: []string{"001"}},
		{name: "unresolved", filter: models.ReportFilter{Unresolved: true}, want: []string{"001", "003"}},
		{name: "status", filter: models.ReportFilter{Status: "in treatment"}, want: []string{"003"}},
		{name: "auditor", filter: models.ReportFilter{Submitter: "bob"}, want: []string{"001", "003"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.QueryAudits(ctx, bob, tt.filter)
			if err != nil {
				t.Fatalf("QueryAudits() error = %v", err)
			}
			codes := make([]string, 0, len(got))
			for _, a := range got {
				codes = append(codes, a.ProductCode)
			}
			if strings.Join(codes, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("QueryAudits() = %v, want %v", codes, tt.want)
			}
		})
	}
}

func TestQueryReceptions(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()

	got, err := svc.QueryReceptions(ctx, manager, models.ReportFilter{From: day(2024, 1, 1), To: day(2024, 1, 2), Submitter: "alice"})
	if err != nil {
		t.Fatalf("QueryReceptions() error = %v", err)
	}
	if len(got) != 1 || !got[0].Quantity.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("QueryReceptions() = %+v", got)
	}

	if _, err := svc.QueryReceptions(ctx, bob, models.ReportFilter{}); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("QueryReceptions(auditor) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.QueryAudits(ctx, alice, models.ReportFilter{}); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("QueryAudits(receiver) error = %v, want ErrForbidden", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	svc, _ := seed(t)
	ctx := context.Background()
	filter := models.ReportFilter{From: day(2024, 1, 1), To: day(2024, 1, 3)}

	want, err := svc.QueryAudits(ctx, bob, filter)
	if err != nil {
		t.Fatalf("QueryAudits() error = %v", err)
	}
	data, err := svc.ExportAudits(ctx, bob, filter)
	if err != nil {
		t.Fatalf("ExportAudits() error = %v", err)
	}
	got, err := spreadsheet.ReadAudits(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadAudits() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].ProductCode != want[i].ProductCode || got[i].Status != want[i].Status ||
			!got[i].Divergence.Equal(want[i].Divergence) || !got[i].AuditedAt.Equal(want[i].AuditedAt) {
			t.Fatalf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	wantReceptions, err := svc.QueryReceptions(ctx, manager, filter)
	if err != nil {
		t.Fatalf("QueryReceptions() error = %v", err)
	}
	data, err = svc.ExportReceptions(ctx, manager, filter)
	if err != nil {
		t.Fatalf("ExportReceptions() error = %v", err)
	}
	gotReceptions, err := spreadsheet.ReadReceptions(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadReceptions() error = %v", err)
	}
	if len(gotReceptions) != len(wantReceptions) {
		t.Fatalf("reception rows = %d, want %d", len(gotReceptions), len(wantReceptions))
	}
	for i := range wantReceptions {
		if gotReceptions[i].ID != wantReceptions[i].ID || !gotReceptions[i].Quantity.Equal(wantReceptions[i].Quantity) ||
			gotReceptions[i].Condition != wantReceptions[i].Condition {
			t.Fatalf("reception row %d = %+v, want %+v", i, gotReceptions[i], wantReceptions[i])
		}
	}
}

func TestDailyDigest(t *testing.T) {
	svc, _ := seed(t)
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) }

	digest, err := svc.DailyDigest(context.Background(), time.Date(2024, 1, 2, 18, 0, 0, 0, brt))
	if err != nil {
		t.Fatalf("DailyDigest() error = %v", err)
	}
	if digest.Receptions != 1 || digest.Audits != 2 {
		t.Fatalf("digest counts = %+v", digest)
	}
	if digest.Resolved != 1 || digest.InTreatment != 1 || digest.Open != 0 {
		t.Fatalf("digest statuses = %+v", digest)
	}
	if !digest.NetDivergence.Equal(decimal.NewFromInt(-5)) || digest.LargestProduct != "003" {
		t.Fatalf("digest divergence = %+v", digest)
	}
	if digest.PendingBacklog != 2 {
		t.Fatalf("PendingBacklog = %d, want 2", digest.PendingBacklog)
	}

	text := FormatDigest(digest)
	for _, want := range []string{"02/01/2024", "Recebimentos: 1", "resolvidas 1", "003 (-5)", "Pendências em aberto: 2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("FormatDigest() missing %q in %q", want, text)
		}
	}
}

func TestParseDate(t *testing.T) {
	svc := NewService(nil, brt, nil)

	got, err := svc.ParseDate("2024-01-02")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if !got.Equal(day(2024, 1, 2)) {
		t.Fatalf("ParseDate() = %s", got)
	}
	if zero, err := svc.ParseDate(""); err != nil || !zero.IsZero() {
		t.Fatalf("ParseDate(empty) = %s, %v", zero, err)
	}
	for _, bad := range []string{"02/01/2024", "2024-01-01garbage", "2024-01-01T10:00:00Z", "2024-1-2"} {
		if _, err := svc.ParseDate(bad); !errors.Is(err, models.ErrValidation) {
			t.Fatalf("ParseDate(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}
