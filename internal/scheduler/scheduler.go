package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/recebimento/internal/config"
	"github.com/mamadbah2/recebimento/internal/repository/mongodb"
	"github.com/mamadbah2/recebimento/internal/service/notify"
	"github.com/mamadbah2/recebimento/internal/service/reporting"
)

const digestTimeout = 2 * time.Minute

// Scheduler runs the end-of-day digest.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	archive      mongodb.Repository
	sender       notify.TextSender
	schedule     string
	managerID    string
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler instance. archive and sender are
// optional; the digest is always logged.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, archive mongodb.Repository, sender notify.TextSender, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field cron expressions, evaluated in the reporting timezone.
	c := cron.New(cron.WithLocation(reportingSvc.Location()))

	return &Scheduler{
		cron:         c,
		reportingSvc: reportingSvc,
		archive:      archive,
		sender:       sender,
		schedule:     cfg.Reporting.CronSchedule,
		managerID:    cfg.WhatsApp.ManagerID,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	if err := s.RunDailyDigest(ctx); err != nil {
		s.logger.Error("daily digest failed", zap.Error(err))
	}
}

// RunDailyDigest computes today's digest, archives it and sends it to the
// manager. Archive and delivery failures are reported together after both
// were attempted.
func (s *Scheduler) RunDailyDigest(ctx context.Context) error {
	s.logger.Info("generating daily digest")

	digest, err := s.reportingSvc.DailyDigest(ctx, s.now())
	if err != nil {
		return fmt.Errorf("compute digest: %w", err)
	}

	text := reporting.FormatDigest(digest)
	s.logger.Info("daily digest",
		zap.Time("date", digest.Date),
		zap.Int("receptions", digest.Receptions),
		zap.Int("audits", digest.Audits),
		zap.Int("pending_backlog", digest.PendingBacklog),
		zap.String("net_divergence", digest.NetDivergence.String()))

	var errs []error
	if s.archive != nil {
		if err := s.archive.SaveDailyDigest(ctx, digest); err != nil {
			errs = append(errs, fmt.Errorf("archive digest: %w", err))
		}
	}
	if s.sender != nil && s.managerID != "" {
		if err := s.sender.SendText(ctx, s.managerID, text); err != nil {
			errs = append(errs, fmt.Errorf("send digest: %w", err))
		} else {
			s.logger.Info("daily digest sent successfully")
		}
	}
	return errors.Join(errs...)
}
