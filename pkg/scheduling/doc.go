/*
Package scheduling runs chains on a timetable.

  - scheduler: cron expressions mapped to jobs, with overlapping runs
    skipped and failures reported through a callback

A nightly run of a chain:

	s := scheduler.New(scheduler.Config{Logger: logger})
	err := s.Schedule("nightly", "0 2 * * *", scheduler.JobFunc(func(ctx context.Context) error {
		_, err := runner.Run(ctx)
		return err
	}))
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer func() { <-s.Stop() }()
*/
package scheduling
