package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"fulfillment-backend/internal/config"
	"fulfillment-backend/internal/shared"
	"fulfillment-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	workerCfg config.WorkerConfig
}

func NewScheduler(redis config.RedisConfig, workerCfg config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redis.Host, Password: redis.Password, DB: redis.DB},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		workerCfg: workerCfg,
	}
}

// RegisterJobs registers every periodic task.
func (s *Scheduler) RegisterJobs() error {
	return s.registerStaleReservationScan()
}

// registerStaleReservationScan runs the detector on STALE_SCAN_CRON.
// The payload carries the window so a config change applies on restart.
func (s *Scheduler) registerStaleReservationScan() error {
	payload, err := json.Marshal(shared.StaleScanPayload{
		OlderThanHours: int(s.workerCfg.StaleReservationAge / time.Hour),
		Limit:          s.workerCfg.StaleScanLimit,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeStaleReservationScan, payload)

	_, err = s.scheduler.Register(
		s.workerCfg.StaleScanCron,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
		asynq.Unique(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register StaleReservationScan job", err)
		return err
	}

	logger.Info("Registered StaleReservationScan", map[string]interface{}{
		"cron":      s.workerCfg.StaleScanCron,
		"age_hours": int(s.workerCfg.StaleReservationAge / time.Hour),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
