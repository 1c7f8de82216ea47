package tasks

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
)

// usageDedupWindow collapses bursts of deliveries for one integration into
// a single LastUsedAt write.
const usageDedupWindow = time.Minute

// ValidateSchedule checks a standard five field cron expression or an
// asynq "@every" descriptor.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// NextRun returns the next activation of spec after from.
func NextRun(spec string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}

func IntegrationUsedOptions(integrationID string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryMin),
		asynq.Timeout(TimeoutShort),
		asynq.TaskID(fmt.Sprintf("%s:%s:%d", TaskTypeIntegrationUsed, integrationID, time.Now().Truncate(usageDedupWindow).Unix())),
		asynq.Retention(usageDedupWindow),
	}
}

func IntegrityOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutLong),
	}
}
