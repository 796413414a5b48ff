package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore/sqlstoretest"
)

var (
	admin    = models.Session{UserID: "gestor", Role: models.RoleAdmin}
	receiver = models.Session{UserID: "alice", Role: models.RoleReceiver}
	auditor  = models.Session{UserID: "bob", Role: models.RoleAuditor}
)

func TestCreateThenLookup(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, " 001 ", "Banana", "FLV")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, sess := range []models.Session{admin, receiver, auditor} {
		got, err := svc.Lookup(ctx, sess, "001")
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", sess.Role, err)
		}
		if got != created {
			t.Fatalf("Lookup(%s) = %+v, want %+v", sess.Role, got, created)
		}
	}
}

func TestCreateDuplicate(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, "001", "Banana", "FLV"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, admin, "001", "Banana prata", "FLV"); !errors.Is(err, models.ErrDuplicateCode) {
		t.Fatalf("second Create() error = %v, want ErrDuplicateCode", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		code        string
		description string
	}{
		{name: "missing code", code: "  ", description: "Banana"},
		{name: "missing description", code: "001", description: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, admin, tt.code, tt.description, "FLV"); !errors.Is(err, models.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRoleChecks(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, receiver, "001", "Banana", "FLV"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("Create(receiver) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.ReplaceAll(ctx, auditor, nil); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("ReplaceAll(auditor) error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Lookup(ctx, models.Session{}, "001"); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("Lookup(anonymous) error = %v, want ErrUnauthorized", err)
	}
}

func TestReplaceAllSkipsMalformedRows(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, "999", "Old", "FLV"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := svc.ReplaceAll(ctx, admin, []models.CatalogRow{
		{Code: "001", Description: "Banana", Section: "FLV"},
		{Code: "002", Description: "", Section: "FLV"},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("Imported = %d, want 1", res.Imported)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Row != 2 || res.Warnings[0].Code != "002" {
		t.Fatalf("Warnings = %+v, want one warning for row 2", res.Warnings)
	}

	if _, err := svc.Lookup(ctx, admin, "001"); err != nil {
		t.Fatalf("Lookup(001) error = %v", err)
	}
	if _, err := svc.Lookup(ctx, admin, "002"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Lookup(002) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Lookup(ctx, admin, "999"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Lookup(999) error = %v, want ErrNotFound after replace", err)
	}
}

func TestReplaceAllDuplicateKeepsFirst(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	res, err := svc.ReplaceAll(ctx, admin, []models.CatalogRow{
		{Code: "001", Description: "Banana", Section: "FLV"},
		{Code: "", Description: "Sem código"},
		{Code: "001", Description: "Banana nanica", Section: "FLV"},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if res.Imported != 1 || len(res.Warnings) != 2 {
		t.Fatalf("ReplaceAll() = %+v", res)
	}

	got, err := svc.Lookup(ctx, admin, "001")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Description != "Banana" {
		t.Fatalf("Lookup() description = %q, want first row", got.Description)
	}
}

func TestImportSpreadsheet(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	rows := [][]any{
		{"codigo", "descricao", "secao"},
		{"001", "Banana", "FLV"},
		{"002", "", "FLV"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	res, err := svc.Import(ctx, admin, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Imported != 1 || len(res.Warnings) != 1 || res.Warnings[0].Row != 2 {
		t.Fatalf("Import() = %+v", res)
	}
	if _, err := svc.Lookup(ctx, admin, "002"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("Lookup(002) error = %v, want ErrNotFound", err)
	}
}

func TestImportMissingColumnKeepsCatalog(t *testing.T) {
	svc := NewService(sqlstoretest.Open(t), nil, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin, "001", "Banana", "FLV"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	header := []any{"codigo", "descricao"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("set row: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	if _, err := svc.Import(ctx, admin, bytes.NewReader(buf.Bytes())); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Import() error = %v, want ErrValidation", err)
	}
	if _, err := svc.Lookup(ctx, admin, "001"); err != nil {
		t.Fatalf("catalog should be untouched, Lookup() error = %v", err)
	}
}
