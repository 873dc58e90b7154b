package scheduler

import (
	"context"

	"github.com/robfig/cron"

	"github.com/zerozero/labforge/internal/domain/entity"
	"github.com/zerozero/labforge/internal/domain/repository"
	"github.com/zerozero/labforge/internal/infrastructure/kube"
	"github.com/zerozero/labforge/pkg/config"
	"github.com/zerozero/labforge/pkg/logger"
	"github.com/zerozero/labforge/pkg/metrics"
)

// ExpirySweeper periodically tears down labs that have outlived their
// duration. One lab failing to clean up never blocks the rest of a sweep.
type ExpirySweeper struct {
	labs         repository.LabRepository
	orchestrator kube.Orchestrator
	schedule     string
	cron         *cron.Cron
	log          logger.Logger
}

// NewExpirySweeper creates the sweeper; call Start to begin sweeping
func NewExpirySweeper(
	labs repository.LabRepository,
	orchestrator kube.Orchestrator,
	cfg *config.Config,
	log logger.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		labs:         labs,
		orchestrator: orchestrator,
		schedule:     cfg.Setup.SweepSchedule,
		log:          log,
	}
}

// Start schedules recurring sweeps and kicks off an immediate one so
// labs that expired while the server was down get cleaned up promptly.
func (s *ExpirySweeper) Start() error {
	s.cron = cron.New()
	if err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()

	go s.Sweep(context.Background())

	s.log.Info("Expiry sweeper started", logger.String("schedule", s.schedule))
	return nil
}

// Stop halts the sweep schedule. An in-flight sweep finishes on its own.
func (s *ExpirySweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep finds expired labs, tears down their pods, and marks them
// EXPIRED. Returns the number of labs cleaned up.
func (s *ExpirySweeper) Sweep(ctx context.Context) int {
	expired, err := s.labs.FindExpired(ctx)
	if err != nil {
		s.log.Error("Failed to find expired labs", logger.Error(err))
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return 0
	}

	if len(expired) == 0 {
		s.log.Debug("No expired labs to clean up")
		metrics.SweepsTotal.WithLabelValues("success").Inc()
		return 0
	}

	cleaned := 0
	for _, lab := range expired {
		if err := s.orchestrator.DeletePod(ctx, lab.PodName); err != nil {
			s.log.Error("Failed to tear down expired lab, will retry next sweep",
				logger.String("lab_id", lab.ID),
				logger.Error(err),
			)
			continue
		}

		lab.Status = entity.LabStatusExpired
		if _, err := s.labs.Save(ctx, lab); err != nil {
			s.log.Error("Failed to mark lab expired",
				logger.String("lab_id", lab.ID),
				logger.Error(err),
			)
			continue
		}

		metrics.LabsExpired.Inc()
		cleaned++
		s.log.Info("Expired lab cleaned up", logger.String("lab_id", lab.ID))
	}

	metrics.SweepsTotal.WithLabelValues("success").Inc()
	s.log.Info("Expiry sweep complete",
		logger.Int("expired", len(expired)),
		logger.Int("cleaned", cleaned),
	)
	return cleaned
}
