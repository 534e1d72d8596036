package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/lock"
	customError "github.com/segyhp/claimant-engine/pkg/errors"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// LockedJob runs a job only while holding its named lock, so across all instances at most one
// run happens at a time.
type LockedJob struct {
	name    string
	job     Job
	locker  lock.Locker
	minHold time.Duration
	maxHold time.Duration
	logger  *zap.Logger
}

func NewLockedJob(name string, job Job, locker lock.Locker, minHold, maxHold time.Duration, logger *zap.Logger) *LockedJob {
	return &LockedJob{
		name:    name,
		job:     job,
		locker:  locker,
		minHold: minHold,
		maxHold: maxHold,
		logger:  logger.Named("scheduler").With(zap.String("job", name)),
	}
}

// Run satisfies cron.Job.
func (j *LockedJob) Run() {
	_ = j.RunContext(context.Background())
}

// RunContext runs the job bounded by the lock's maximum hold. A lock held elsewhere is not an
// error: the run is skipped.
func (j *LockedJob) RunContext(ctx context.Context) error {
	lease, err := j.locker.Acquire(ctx, j.name, j.minHold, j.maxHold)
	if errors.Is(err, customError.ErrLockNotAcquired) {
		j.logger.Debug("lock held elsewhere, skipping run")
		return nil
	}
	if err != nil {
		j.logger.Error("failed to acquire lock", zap.Error(err))
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			j.logger.Warn("failed to release lock", zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, j.maxHold)
	defer cancel()

	start := time.Now()
	if err := j.job(runCtx); err != nil {
		j.logger.Error("scheduled job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	j.logger.Info("scheduled job finished", zap.Duration("duration", time.Since(start)))
	return nil
}

// New builds a cron runner with seconds-precision specs that logs through zap, recovers from
// panics and skips a tick while the previous run is still going.
func New(location *time.Location, logger *zap.Logger) *cron.Cron {
	cronLogger := NewCronLogger(logger)
	return cron.New(
		cron.WithSeconds(),
		cron.WithLocation(location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

// NewCronLogger adapts a zap logger to cron.Logger.
func NewCronLogger(logger *zap.Logger) cron.Logger {
	return &cronLogger{sugar: logger.Named("cron").Sugar()}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
