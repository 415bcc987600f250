package pipeline

import (
	"time"

	"git.home.luguber.info/inful/pagecraft/internal/metrics"
)

// RunObserver receives callbacks around stage execution and run lifecycle.
// It intentionally abstracts away the metrics.Recorder so future observers
// (run store, event publishing, tracing) can hook in without changing stage
// code.
type RunObserver interface {
	OnStageStart(runID string, stage StageName)
	OnStageComplete(runID string, stage StageName, duration time.Duration, result StageResult)
	OnRunComplete(report *RunReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ string, _ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ string, _ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnRunComplete(_ *RunReport)                                            {}

// RecorderObserver adapts metrics.Recorder into a RunObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ string, _ StageName) {}

func (r RecorderObserver) OnStageComplete(_ string, stage StageName, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnRunComplete(report *RunReport) {
	if r.Recorder != nil {
		r.Recorder.ObserveRunDuration(report.End.Sub(report.Start))
		r.Recorder.IncRunOutcome(string(report.Outcome))
	}
}

// MultiObserver fans callbacks out to several observers in order.
type MultiObserver []RunObserver

func (m MultiObserver) OnStageStart(runID string, stage StageName) {
	for _, o := range m {
		o.OnStageStart(runID, stage)
	}
}

func (m MultiObserver) OnStageComplete(runID string, stage StageName, d time.Duration, res StageResult) {
	for _, o := range m {
		o.OnStageComplete(runID, stage, d, res)
	}
}

func (m MultiObserver) OnRunComplete(report *RunReport) {
	for _, o := range m {
		o.OnRunComplete(report)
	}
}
