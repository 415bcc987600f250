package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func record(order *[]StageName, name StageName) Stage {
	return func(_ context.Context, _ *State) error {
		*order = append(*order, name)
		return nil
	}
}

func failing(err error) Stage {
	return func(_ context.Context, _ *State) error { return err }
}

func TestRunner_RunsAllStagesInOrder(t *testing.T) {
	var ran []StageName
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: record(&ran, "a")},
		{Name: "b", Fn: record(&ran, "b"), After: []StageName{"a"}},
		{Name: "c", Fn: record(&ran, "c"), After: []StageName{"b"}},
	})
	require.NoError(t, err)

	r := NewRunner(g, nil, nil)
	st := NewState(map[string]any{"name": "x"})
	require.NoError(t, r.Run(context.Background(), st))

	require.Equal(t, []StageName{"a", "b", "c"}, ran)
	require.Equal(t, StatusCompleted, r.Status("a"))
	require.Equal(t, StatusCompleted, r.Status("c"))
	require.Equal(t, OutcomeSuccess, st.Report.Outcome)
	require.False(t, st.Report.End.IsZero())
}

func TestRunner_HaltsOnFirstFailure(t *testing.T) {
	var ran []StageName
	boom := errors.New("boom")
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: record(&ran, "a")},
		{Name: "b", Fn: failing(boom), After: []StageName{"a"}},
		{Name: "c", Fn: record(&ran, "c"), After: []StageName{"b"}},
	})
	require.NoError(t, err)

	r := NewRunner(g, nil, nil)
	st := NewState(nil)
	err = r.Run(context.Background(), st)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageName("b"), se.Stage)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.ErrorIs(t, err, boom)

	// c never ran.
	require.Equal(t, []StageName{"a"}, ran)
	require.Equal(t, StatusCompleted, r.Status("a"))
	require.Equal(t, StatusFailed, r.Status("b"))
	require.Equal(t, StatusNotRun, r.Status("c"))

	require.Equal(t, OutcomeFailed, st.Report.Outcome)
	require.Len(t, st.Report.Errors, 1)
}

func TestRunner_CanceledContext(t *testing.T) {
	g, err := NewGraph([]StageDef{{Name: "a", Fn: noop}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(g, nil, nil)
	st := NewState(nil)
	err = r.Run(ctx, st)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, OutcomeCanceled, st.Report.Outcome)
}

func TestRunner_CancellationDuringStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: func(c context.Context, _ *State) error {
			cancel()
			return c.Err()
		}},
	})
	require.NoError(t, err)
	defer cancel()

	r := NewRunner(g, nil, nil)
	st := NewState(nil)
	err = r.Run(ctx, st)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
}

func TestRunner_ObserverSeesLifecycle(t *testing.T) {
	obs := &capturingObserver{}
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: noop},
		{Name: "b", Fn: noop, After: []StageName{"a"}},
	})
	require.NoError(t, err)

	r := NewRunner(g, nil, obs)
	st := NewState(nil)
	require.NoError(t, r.Run(context.Background(), st))

	require.Equal(t, []StageName{"a", "b"}, obs.started)
	require.Equal(t, []StageName{"a", "b"}, obs.completed)
	require.NotNil(t, obs.report)
	require.Equal(t, OutcomeSuccess, obs.report.Outcome)
}

func TestRunner_WarningsCopiedToReport(t *testing.T) {
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: func(_ context.Context, st *State) error {
			st.Warn("something odd")
			return nil
		}},
	})
	require.NoError(t, err)

	st := NewState(nil)
	require.NoError(t, NewRunner(g, nil, nil).Run(context.Background(), st))
	require.Equal(t, []string{"something odd"}, st.Report.Warnings)
}

// Watch mode can trigger a new generation while a slow one is still in
// flight; overlapping Run calls on one Runner must serialize, not race on
// the shared status map.
func TestRunner_ConcurrentRunsSerialized(t *testing.T) {
	var active, maxActive atomic.Int32
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: func(_ context.Context, _ *State) error {
			n := active.Add(1)
			for {
				prev := maxActive.Load()
				if n <= prev || maxActive.CompareAndSwap(prev, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			return nil
		}},
		{Name: "b", Fn: noop, After: []StageName{"a"}},
	})
	require.NoError(t, err)

	r := NewRunner(g, nil, nil)
	errs := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Run(context.Background(), NewState(nil))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), maxActive.Load())
	require.Equal(t, StatusCompleted, r.Status("a"))
	require.Equal(t, StatusCompleted, r.Status("b"))
}

// Status may be polled from another goroutine while a run is in flight.
func TestRunner_StatusReadableDuringRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	g, err := NewGraph([]StageDef{
		{Name: "a", Fn: func(_ context.Context, _ *State) error {
			close(started)
			<-release
			return nil
		}},
	})
	require.NoError(t, err)

	r := NewRunner(g, nil, nil)
	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), NewState(nil)) }()

	<-started
	require.Equal(t, StatusRunning, r.Status("a"))
	close(release)
	require.NoError(t, <-done)
	require.Equal(t, StatusCompleted, r.Status("a"))
}

type capturingObserver struct {
	started   []StageName
	completed []StageName
	report    *RunReport
}

func (o *capturingObserver) OnStageStart(_ string, stage StageName) {
	o.started = append(o.started, stage)
}

func (o *capturingObserver) OnStageComplete(_ string, stage StageName, _ time.Duration, _ StageResult) {
	o.completed = append(o.completed, stage)
}

func (o *capturingObserver) OnRunComplete(report *RunReport) { o.report = report }
