package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SlotGenerator дополняет календари по активным еженедельным шаблонам
type SlotGenerator interface {
	GenerateForAll(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	generator SlotGenerator
	interval  time.Duration
	logger    *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(generator SlotGenerator, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		generator: generator,
		interval:  interval,
		logger:    logger,
	}
}

// Run генерирует слоты сразу и затем по таймеру, пока ctx не отменён
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.generateSlots(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.generateSlots(ctx)
		case <-ctx.Done():
			s.logger.Info("Slot generation task stopped")
			return nil
		}
	}
}

func (s *Scheduler) generateSlots(ctx context.Context) {
	s.logger.Info("Starting automatic slot generation")

	if err := s.generator.GenerateForAll(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed successfully")
}
