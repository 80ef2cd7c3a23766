package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vnykmshr/chunkflow/internal/logging"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// Job is one unit of scheduled work, typically a pipeline run.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Config holds scheduler configuration.
type Config struct {
	// Location evaluates expressions. Default: time.Local
	Location *time.Location

	Logger *zap.Logger

	// OnError is called after a job returned an error.
	OnError func(id string, err error)
}

// Entry describes one scheduled job.
type Entry struct {
	ID         string
	Expression string
	Next       time.Time
	Prev       time.Time
	Runs       int64
	Failures   int64
}

type entry struct {
	id     string
	expr   string
	sched  cron.Schedule
	cronID cron.EntryID

	runs     atomic.Int64
	failures atomic.Int64
}

// Scheduler re-runs jobs on cron schedules. A job whose previous run is
// still in progress is skipped, never run concurrently with itself.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	logger   *zap.Logger
	onError  func(id string, err error)

	mu      sync.Mutex
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New creates a stopped scheduler.
func New(config Config) *Scheduler {
	logger := logging.OrNop(config.Logger)
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{l: logger.Sugar()}

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(standardParser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		location: loc,
		logger:   logger,
		onError:  config.OnError,
		entries:  make(map[string]*entry),
	}
}

// Schedule adds job under id, to run whenever expr fires.
func (s *Scheduler) Schedule(id, expr string, job Job) error {
	sched, err := standardParser.Parse(expr)
	if err != nil {
		return cferrors.NewValidationError("scheduler", "schedule", expr, err.Error()).
			WithHint(`use five fields or a descriptor such as "@hourly" or "@every 10m"`)
	}
	return s.schedule(id, expr, sched, job)
}

func (s *Scheduler) schedule(id, expr string, sched cron.Schedule, job Job) error {
	if id == "" {
		return errors.New("job ID cannot be empty")
	}
	if job == nil {
		return errors.New("job cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("job %s already scheduled", id)
	}

	e := &entry{id: id, expr: expr, sched: sched}
	e.cronID = s.cron.Schedule(sched, cron.FuncJob(func() { s.run(e, job) }))
	s.entries[id] = e
	s.logger.Info("job scheduled", zap.String("job", id), zap.String("schedule", expr),
		zap.Time("next", s.next(e)))
	return nil
}

func (s *Scheduler) run(e *entry, job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	err := job.Run(ctx)
	e.runs.Add(1)
	if err != nil {
		e.failures.Add(1)
		s.logger.Error("scheduled run failed", zap.String("job", e.id),
			zap.Duration("duration", time.Since(start)), zap.Error(err))
		if s.onError != nil {
			s.onError(e.id, err)
		}
		return
	}
	s.logger.Info("scheduled run finished", zap.String("job", e.id), zap.Duration("duration", time.Since(start)))
}

// Cancel removes the job. A run in progress is not interrupted.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.entries[id]
	if !exists {
		return false
	}
	s.cron.Remove(e.cronID)
	delete(s.entries, id)
	return true
}

// Next returns the next time the job fires.
func (s *Scheduler) Next(id string) (time.Time, error) {
	s.mu.Lock()
	e, exists := s.entries[id]
	s.mu.Unlock()
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", id)
	}
	return s.next(e), nil
}

// next reports when e fires. cron only computes entry times once started,
// so a stopped scheduler asks the schedule directly.
func (s *Scheduler) next(e *entry) time.Time {
	if next := s.cron.Entry(e.cronID).Next; !next.IsZero() {
		return next
	}
	return e.sched.Next(time.Now().In(s.location))
}

// List returns every scheduled job sorted by id.
func (s *Scheduler) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		ce := s.cron.Entry(e.cronID)
		list = append(list, Entry{
			ID:         e.id,
			Expression: e.expr,
			Next:       s.next(e),
			Prev:       ce.Prev,
			Runs:       e.runs.Load(),
			Failures:   e.failures.Load(),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Start begins firing jobs. Runs receive a context derived from ctx that
// is canceled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()
	return nil
}

// Stop stops firing jobs and cancels runs in progress. The returned
// channel is closed once every run has returned.
func (s *Scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.running = false
		s.cancel()
	}
	s.mu.Unlock()
	return s.cron.Stop().Done()
}
