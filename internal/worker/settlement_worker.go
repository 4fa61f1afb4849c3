// Package worker runs the periodic settlement sweep.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tradeperk/rebate-engine/internal/service"
	"github.com/tradeperk/rebate-engine/pkg/logger"
)

const lockKey = "rebate:settlement:lock"

// releaseScript deletes the lock only if this instance still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// SettlementWorker triggers SettleDueRebates on a cron schedule, guarded
// by a redis lock so only one instance sweeps at a time.
type SettlementWorker struct {
	cron        *cron.Cron
	redis       *redis.Client
	settlements *service.SettlementService
	spec        string
	lockTTL     time.Duration
	instanceID  string
}

// NewSettlementWorker creates a settlement worker.
func NewSettlementWorker(rdb *redis.Client, settlements *service.SettlementService, spec string, lockTTL time.Duration) *SettlementWorker {
	return &SettlementWorker{
		cron:        cron.New(),
		redis:       rdb,
		settlements: settlements,
		spec:        spec,
		lockTTL:     lockTTL,
		instanceID:  uuid.NewString(),
	}
}

// Start registers the cron entry and begins scheduling.
func (w *SettlementWorker) Start() error {
	if _, err := w.cron.AddFunc(w.spec, w.run); err != nil {
		return err
	}
	w.cron.Start()
	logger.Info("settlement worker started", zap.String("spec", w.spec))
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (w *SettlementWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *SettlementWorker) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.lockTTL)
	defer cancel()

	ok, err := w.redis.SetNX(ctx, lockKey, w.instanceID, w.lockTTL).Result()
	if err != nil {
		logger.Error("acquire settlement lock failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := releaseScript.Run(ctx, w.redis, []string{lockKey}, w.instanceID).Err(); err != nil && err != redis.Nil {
			logger.Warn("release settlement lock failed", zap.Error(err))
		}
	}()

	if _, err := w.settlements.SettleDueRebates(ctx, time.Now()); err != nil {
		logger.Error("settlement sweep failed", zap.Error(err))
	}
}
