package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/chunkflow/internal/testutil"
	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// every fires at a fixed sub-second interval, which cron descriptors
// cannot express.
type every time.Duration

func (e every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(e))
}

func stop(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Stop():
	case <-time.After(testutil.TestTimeout):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_RunsRepeatedly(t *testing.T) {
	s := New(Config{})
	var runs int32
	err := s.schedule("count", "every 10ms", every(10*time.Millisecond), JobFunc(func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.AssertEventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 })
	stop(t, s)

	list := s.List()
	testutil.AssertEqual(t, len(list), 1)
	if list[0].Runs < 3 {
		t.Errorf("Runs = %d, want at least 3", list[0].Runs)
	}
	testutil.AssertEqual(t, list[0].Failures, int64(0))
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s := New(Config{})
	var (
		active, maxActive, runs int32
		release                 = make(chan struct{})
	)
	job := JobFunc(func(ctx context.Context) error {
		n := atomic.AddInt32(&active, 1)
		defer atomic.AddInt32(&active, -1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		atomic.AddInt32(&runs, 1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	testutil.AssertNoError(t, s.schedule("slow", "every 5ms", every(5*time.Millisecond), job))
	testutil.AssertNoError(t, s.Start(context.Background()))

	testutil.AssertEventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 })
	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, atomic.LoadInt32(&runs), int32(1))

	close(release)
	stop(t, s)
	testutil.AssertEqual(t, atomic.LoadInt32(&maxActive), int32(1))
}

func TestScheduler_OnError(t *testing.T) {
	boom := errors.New("boom")
	failed := testutil.NewCallbackTracker()
	s := New(Config{OnError: func(id string, err error) {
		if id == "bad" && errors.Is(err, boom) {
			failed.Mark(id)
		}
	}})
	testutil.AssertNoError(t, s.schedule("bad", "every 10ms", every(10*time.Millisecond), JobFunc(func(context.Context) error {
		return boom
	})))
	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.AssertEventually(t, failed.Called)
	stop(t, s)

	if s.List()[0].Failures < 1 {
		t.Error("failure not counted")
	}
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	s := New(Config{})
	var started, canceled atomic.Bool
	testutil.AssertNoError(t, s.schedule("long", "every 5ms", every(5*time.Millisecond), JobFunc(func(ctx context.Context) error {
		started.Store(true)
		<-ctx.Done()
		canceled.Store(true)
		return ctx.Err()
	})))
	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.AssertEventually(t, started.Load)

	stop(t, s)
	testutil.AssertEqual(t, canceled.Load(), true)
}

func TestScheduler_Management(t *testing.T) {
	s := New(Config{})
	noop := JobFunc(func(context.Context) error { return nil })

	testutil.AssertNoError(t, s.Schedule("b", "@hourly", noop))
	testutil.AssertNoError(t, s.Schedule("a", "*/5 * * * *", noop))
	testutil.AssertError(t, s.Schedule("a", "@daily", noop))
	testutil.AssertError(t, s.Schedule("", "@daily", noop))
	testutil.AssertError(t, s.Schedule("c", "@daily", nil))

	err := s.Schedule("c", "not a schedule", noop)
	testutil.AssertEqual(t, cferrors.KindOf(err), cferrors.KindConfigSemantic)

	list := s.List()
	testutil.AssertEqual(t, len(list), 2)
	testutil.AssertEqual(t, list[0].ID, "a")
	testutil.AssertEqual(t, list[1].Expression, "@hourly")

	next, err := s.Next("b")
	testutil.AssertNoError(t, err)
	if !next.After(time.Now()) {
		t.Errorf("Next = %v, want a future time", next)
	}
	_, err = s.Next("missing")
	testutil.AssertError(t, err)

	testutil.AssertEqual(t, s.Cancel("a"), true)
	testutil.AssertEqual(t, s.Cancel("a"), false)
	testutil.AssertEqual(t, len(s.List()), 1)

	testutil.AssertNoError(t, s.Start(context.Background()))
	testutil.AssertError(t, s.Start(context.Background()))
	stop(t, s)
}

func TestScheduler_NextBeforeStart(t *testing.T) {
	s := New(Config{Location: time.UTC})
	noop := JobFunc(func(context.Context) error { return nil })
	testutil.AssertNoError(t, s.Schedule("yearly", "0 0 1 1 *", noop))

	want := time.Date(time.Now().UTC().Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	next, err := s.Next("yearly")
	testutil.AssertNoError(t, err)
	if !next.Equal(want) {
		t.Errorf("Next = %v, want %v", next, want)
	}
	list := s.List()
	testutil.AssertEqual(t, len(list), 1)
	if !list[0].Next.Equal(want) {
		t.Errorf("List()[0].Next = %v, want %v", list[0].Next, want)
	}

	testutil.AssertNoError(t, s.Start(context.Background()))
	defer stop(t, s)
	testutil.AssertEventually(t, func() bool {
		next, err := s.Next("yearly")
		return err == nil && next.Equal(want)
	})
}

func TestValidateExpression(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 2 * * *", false},
		{"@every 10m", false},
		{"@weekly", false},
		{"0 0 2 * * *", true}, // seconds are not accepted
		{"", true},
		{"61 * * * *", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateExpression(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExpression(%q) = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}
