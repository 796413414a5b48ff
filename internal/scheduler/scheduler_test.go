package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/recebimento/internal/config"
	"github.com/mamadbah2/recebimento/internal/domain/models"
	"github.com/mamadbah2/recebimento/internal/repository/mongodb"
	"github.com/mamadbah2/recebimento/internal/repository/sqlstore/sqlstoretest"
	"github.com/mamadbah2/recebimento/internal/service/notify"
	"github.com/mamadbah2/recebimento/internal/service/reporting"
)

type memoryArchive struct {
	saved []models.DailyDigest
	err   error
}

func (m *memoryArchive) SaveDailyDigest(_ context.Context, d models.DailyDigest) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, d)
	return nil
}

type memorySender struct {
	to, body string
}

func (m *memorySender) SendText(_ context.Context, to, body string) error {
	m.to, m.body = to, body
	return nil
}

func newScheduler(t *testing.T, archive *memoryArchive, sender *memorySender) *Scheduler {
	t.Helper()
	store := sqlstoretest.Open(t)
	at := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	rec := models.ReceptionRecord{ProductCode: "001", Quantity: decimal.NewFromInt(3), ReceivedAt: at, SubmittedBy: "alice", Condition: models.ConditionGood}
	if err := store.CreateReception(context.Background(), &rec); err != nil {
		t.Fatalf("seed reception: %v", err)
	}

	cfg := config.Config{
		Reporting: config.ReportingConfig{CronSchedule: "0 20 * * *"},
		WhatsApp:  config.WhatsAppConfig{ManagerID: "5511999999999"},
	}
	svc := reporting.NewService(store, time.UTC, nil)
	var (
		repo mongodb.Repository
		out  notify.TextSender
	)
	if archive != nil {
		repo = archive
	}
	if sender != nil {
		out = sender
	}
	s := NewScheduler(cfg, svc, repo, out, nil)
	s.now = func() time.Time { return at.Add(5 * time.Hour) }
	return s
}

func TestRunDailyDigest(t *testing.T) {
	archive := &memoryArchive{}
	sender := &memorySender{}
	s := newScheduler(t, archive, sender)

	if err := s.RunDailyDigest(context.Background()); err != nil {
		t.Fatalf("RunDailyDigest() error = %v", err)
	}
	if len(archive.saved) != 1 || archive.saved[0].Receptions != 1 {
		t.Fatalf("archived = %+v", archive.saved)
	}
	if sender.to != "5511999999999" || !strings.Contains(sender.body, "05/03/2024") {
		t.Fatalf("sent to %q: %q", sender.to, sender.body)
	}
}

func TestRunDailyDigestStillSendsWhenArchiveFails(t *testing.T) {
	boom := errors.New("mongo down")
	sender := &memorySender{}
	s := newScheduler(t, &memoryArchive{err: boom}, sender)

	err := s.RunDailyDigest(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("RunDailyDigest() error = %v, want %v", err, boom)
	}
	if sender.body == "" {
		t.Fatalf("digest should still be sent")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := newScheduler(t, nil, nil)
	s.schedule = "every day"
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("Start() should reject an invalid schedule")
	}
}
