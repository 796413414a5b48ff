package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore/sqlstoretest"
)

func TestProductCreateAndLookup(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()

	want := models.Product{Code: "001", Description: "Banana", Section: "FLV"}
	if err := store.CreateProduct(ctx, want); err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	got, err := store.GetProduct(ctx, "001")
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if got != want {
		t.Fatalf("GetProduct() = %+v, want %+v", got, want)
	}

	if _, err := store.GetProduct(ctx, "999"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetProduct(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestReplaceProducts(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()

	if err := store.CreateProduct(ctx, models.Product{Code: "old", Description: "Old"}); err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	err := store.Transaction(ctx, func(tx *sqlstore.Store) error {
		return tx.ReplaceProducts(ctx, []models.Product{
			{Code: "001", Description: "Banana", Section: "FLV"},
			{Code: "002", Description: "Maçã", Section: "FLV"},
		})
	})
	if err != nil {
		t.Fatalf("ReplaceProducts() error = %v", err)
	}

	n, err := store.CountProducts(ctx)
	if err != nil {
		t.Fatalf("CountProducts() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CountProducts() = %d, want 2", n)
	}
	if _, err := store.GetProduct(ctx, "old"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("old product should be gone, err = %v", err)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Transaction(ctx, func(tx *sqlstore.Store) error {
		if err := tx.CreateProduct(ctx, models.Product{Code: "001", Description: "Banana"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v", err)
	}
	if _, err := store.GetProduct(ctx, "001"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("product should have been rolled back, err = %v", err)
	}
}

func TestReceptionLedger(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, qty := range []string{"10.25", "5.50", "3"} {
		rec := &models.ReceptionRecord{
			ProductCode: "001",
			Quantity:    decimal.RequireFromString(qty),
			ReceivedAt:  base.Add(time.Duration(i) * time.Hour),
			SubmittedBy: "alice",
			Condition:   models.ConditionGood,
		}
		if err := store.CreateReception(ctx, rec); err != nil {
			t.Fatalf("CreateReception() error = %v", err)
		}
	}
	other := &models.ReceptionRecord{ProductCode: "002", Quantity: decimal.NewFromInt(7), ReceivedAt: base, SubmittedBy: "bob", Condition: models.ConditionGood}
	if err := store.CreateReception(ctx, other); err != nil {
		t.Fatalf("CreateReception() error = %v", err)
	}

	sum, n, err := store.SumReceptions(ctx, "001")
	if err != nil {
		t.Fatalf("SumReceptions() error = %v", err)
	}
	if n != 3 || !sum.Equal(decimal.RequireFromString("18.75")) {
		t.Fatalf("SumReceptions() = %s/%d, want 18.75/3", sum, n)
	}

	latest, err := store.LatestReception(ctx, "001")
	if err != nil {
		t.Fatalf("LatestReception() error = %v", err)
	}
	if !latest.Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("LatestReception() quantity = %s", latest.Quantity)
	}

	recent, err := store.RecentReceptions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentReceptions() error = %v", err)
	}
	if len(recent) != 2 || !recent[0].ReceivedAt.After(recent[1].ReceivedAt) {
		t.Fatalf("RecentReceptions() should be newest first: %+v", recent)
	}

	totals, err := store.ReceptionTotals(ctx)
	if err != nil {
		t.Fatalf("ReceptionTotals() error = %v", err)
	}
	if len(totals) != 2 || totals[0].ProductCode != "001" || totals[0].Receptions != 3 {
		t.Fatalf("ReceptionTotals() = %+v", totals)
	}

	filtered, err := store.QueryReceptions(ctx, sqlstore.ReceptionQuery{
		Range:       sqlstore.TimeRange{Start: base.Add(30 * time.Minute), End: base.Add(3 * time.Hour)},
		SubmittedBy: "alice",
	})
	if err != nil {
		t.Fatalf("QueryReceptions() error = %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("QueryReceptions() len = %d, want 2", len(filtered))
	}

	if err := store.DeleteReception(ctx, other.ID); err != nil {
		t.Fatalf("DeleteReception() error = %v", err)
	}
	if err := store.DeleteReception(ctx, other.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("second DeleteReception() error = %v, want ErrNotFound", err)
	}
}

func TestAuditLedger(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	open := &models.AuditRecord{
		ProductCode:       "001",
		Mode:              models.ModeConsolidated,
		ObservedQuantity:  decimal.NewFromInt(20),
		ReferenceQuantity: decimal.NewFromInt(18),
		Divergence:        decimal.NewFromInt(2),
		AuditedAt:         now,
		AuditedBy:         "bob",
		Status:            models.StatusOpen,
	}
	resolved := &models.AuditRecord{
		ProductCode:       "002",
		Mode:              models.ModeConsolidated,
		ObservedQuantity:  decimal.NewFromInt(5),
		ReferenceQuantity: decimal.NewFromInt(5),
		Divergence:        decimal.Zero,
		AuditedAt:         now.Add(time.Minute),
		AuditedBy:         "carol",
		Status:            models.StatusResolved,
	}
	for _, rec := range []*models.AuditRecord{open, resolved} {
		if err := store.CreateAudit(ctx, rec); err != nil {
			t.Fatalf("CreateAudit() error = %v", err)
		}
	}

	unresolved, err := store.QueryAudits(ctx, sqlstore.AuditQuery{Unresolved: true})
	if err != nil {
		t.Fatalf("QueryAudits() error = %v", err)
	}
	if len(unresolved) != 1 || unresolved[0].ID != open.ID {
		t.Fatalf("QueryAudits(unresolved) = %+v", unresolved)
	}

	if err := store.UpdateAuditStatus(ctx, open.ID, models.StatusInTreatment); err != nil {
		t.Fatalf("UpdateAuditStatus() error = %v", err)
	}
	got, err := store.GetAudit(ctx, open.ID)
	if err != nil {
		t.Fatalf("GetAudit() error = %v", err)
	}
	if got.Status != models.StatusInTreatment || !got.Divergence.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("GetAudit() = %+v", got)
	}

	n, err := store.CountUnresolved(ctx)
	if err != nil {
		t.Fatalf("CountUnresolved() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("CountUnresolved() = %d, want 1", n)
	}
}

func TestSaveUserUpserts(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()

	user := models.User{ID: "conf1", DisplayName: "Conferente 1", Role: models.RoleReceiver, PasswordHash: "x"}
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser() error = %v", err)
	}
	user.Role = models.RoleAuditor
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser(update) error = %v", err)
	}

	got, err := store.GetUser(ctx, "conf1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Role != models.RoleAuditor {
		t.Fatalf("GetUser() role = %s", got.Role)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("ListUsers() len = %d", len(users))
	}

	if err := store.DeleteUser(ctx, "conf1"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := store.GetUser(ctx, "conf1"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetUser(deleted) error = %v", err)
	}
}

func TestDecimalsRoundTripOnSQLite(t *testing.T) {
	store := sqlstoretest.Open(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	quantities := []string{"9999999999999999.9999", "1234567890123.4567", "0.0001"}
	for i, raw := range quantities {
		rec := models.ReceptionRecord{
			ProductCode: "001",
			Quantity:    decimal.RequireFromString(raw),
			ReceivedAt:  at.Add(time.Duration(i) * time.Minute),
			SubmittedBy: "alice",
			Condition:   models.ConditionGood,
		}
		if err := store.CreateReception(ctx, &rec); err != nil {
			t.Fatalf("CreateReception(%s) error = %v", raw, err)
		}
		got, err := store.GetReception(ctx, rec.ID)
		if err != nil {
			t.Fatalf("GetReception() error = %v", err)
		}
		if !got.Quantity.Equal(rec.Quantity) {
			t.Fatalf("quantity %s read back as %s", raw, got.Quantity)
		}
	}

	total, n, err := store.SumReceptions(ctx, "001")
	if err != nil {
		t.Fatalf("SumReceptions() error = %v", err)
	}
	if want := decimal.RequireFromString("10001234567890123.4567"); n != 3 || !total.Equal(want) {
		t.Fatalf("SumReceptions() = %s (%d), want %s", total, n, want)
	}
}
