package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagecraft/internal/metrics"
)

// Runner executes a stage graph strictly sequentially in topological order,
// recording timing and stopping on the first error. State is owned by the
// runner for the duration of a run. A Runner is safe for concurrent use:
// overlapping Run calls are serialized, one run at a time.
type Runner struct {
	graph    *Graph
	recorder metrics.Recorder
	observer RunObserver

	runMu sync.Mutex // serializes Run

	statusMu sync.RWMutex
	statuses map[StageName]StageStatus
}

// NewRunner creates a runner over a built graph. Recorder and observer are
// optional; nil values are replaced with no-ops.
func NewRunner(g *Graph, recorder metrics.Recorder, observer RunObserver) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Runner{graph: g, recorder: recorder, observer: observer}
}

// Status returns the lifecycle status of a stage after (or during) a run.
func (r *Runner) Status(stage StageName) StageStatus {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	if r.statuses == nil {
		return StatusNotRun
	}
	if s, ok := r.statuses[stage]; ok {
		return s
	}
	return StatusNotRun
}

func (r *Runner) setStatus(stage StageName, s StageStatus) {
	r.statusMu.Lock()
	r.statuses[stage] = s
	r.statusMu.Unlock()
}

// Run threads the state through every stage in topological order. On a stage
// error it halts, records which stage failed and why, and returns a single
// *StageError wrapping the cause. The state is never reported as final after
// a failure.
func (r *Runner) Run(ctx context.Context, st *State) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if st.Report == nil {
		st.Report = NewRunReport(st.RunID)
	}
	r.statusMu.Lock()
	r.statuses = make(map[StageName]StageStatus, r.graph.Len())
	for _, name := range r.graph.Order() {
		r.statuses[name] = StatusNotRun
	}
	r.statusMu.Unlock()

	for _, name := range r.graph.Order() {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(name, ctx.Err())
			r.setStatus(name, StatusFailed)
			r.finishFailed(st, name, se, StageResultCanceled)
			return se
		default:
		}

		def, _ := r.graph.Stage(name)
		r.setStatus(name, StatusRunning)
		r.observer.OnStageStart(st.RunID, name)
		slog.Debug("Stage starting", "run", st.RunID, "stage", name)

		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)
		st.Report.StageDurations[string(name)] = dur

		if err != nil {
			se := NewFatalStageError(name, err)
			result := StageResultFatal
			if ctx.Err() != nil {
				se = NewCanceledStageError(name, err)
				result = StageResultCanceled
			}
			r.setStatus(name, StatusFailed)
			slog.Error("Stage failed", "run", st.RunID, "stage", name, "duration", dur, "error", err)
			r.observer.OnStageComplete(st.RunID, name, dur, result)
			r.finishFailed(st, name, se, result)
			return se
		}

		r.setStatus(name, StatusCompleted)
		st.Report.RecordStageResult(name, StageResultSuccess, r.recorder)
		r.observer.OnStageComplete(st.RunID, name, dur, StageResultSuccess)
		slog.Debug("Stage completed", "run", st.RunID, "stage", name, "duration", dur)
	}

	st.Report.Warnings = st.Warnings
	st.Report.Finish()
	st.Report.DeriveOutcome()
	r.observer.OnRunComplete(st.Report)
	return nil
}

func (r *Runner) finishFailed(st *State, stage StageName, se *StageError, result StageResult) {
	st.Report.Errors = append(st.Report.Errors, se)
	st.Report.Warnings = st.Warnings
	st.Report.RecordStageResult(stage, result, r.recorder)
	st.Report.Finish()
	st.Report.DeriveOutcome()
	r.observer.OnRunComplete(st.Report)
}
