package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// DefaultSyncInterval задаёт период фоновой синхронизации заказов.
const DefaultSyncInterval = 10 * time.Second

// OrderSyncer загружает заказы из API заказов.
type OrderSyncer interface {
	SyncOrders(ctx context.Context) (int, error)
}

// OrderSync периодически синхронизирует локальную копию заказов с API.
type OrderSync struct {
	syncer    OrderSyncer
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	scheduler gocron.Scheduler
}

// NewOrderSync создаёт фоновую задачу синхронизации.
func NewOrderSync(syncer OrderSyncer, interval time.Duration, logger *zap.Logger) (*OrderSync, error) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &OrderSync{
		syncer:    syncer,
		interval:  interval,
		timeout:   interval,
		logger:    logger,
		scheduler: scheduler,
	}, nil
}

// Start запускает синхронизацию. Первый запуск выполняется сразу.
func (s *OrderSync) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.run),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	return nil
}

// Stop останавливает синхронизацию и ждёт завершения текущего запуска.
func (s *OrderSync) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *OrderSync) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.syncer.SyncOrders(ctx)
	if err != nil {
		s.logger.Warn("order sync failed", zap.Error(err))
		return
	}
	s.logger.Debug("orders synced", zap.Int("count", n))
}
