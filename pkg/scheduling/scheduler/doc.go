/*
Package scheduler re-runs jobs on cron schedules.

It wraps github.com/robfig/cron/v3 with named jobs, per-job run counters and
structured logging. A job still running when its next tick arrives is
skipped, so a slow pipeline run never overlaps with itself.

Basic Usage:

	s := scheduler.New(scheduler.Config{Logger: logger})
	runner := pipeline.NewRunner("chain.conf")

	err := s.Schedule("nightly", "0 2 * * *", scheduler.JobFunc(func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}))

	s.Start(ctx)
	defer func() { <-s.Stop() }()

Expressions:

Five fields (minute, hour, day of month, month, day of week) or one of the
descriptors @yearly, @monthly, @weekly, @daily, @hourly and "@every <duration>".
ValidateExpression checks an expression without scheduling anything.

Stopping:

Stop cancels the context handed to runs in progress and returns a channel
that is closed once they have all returned.
*/
package scheduler
