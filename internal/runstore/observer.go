package runstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
)

// Observer records pipeline lifecycle events into a Store. Persistence
// failures are logged, never propagated: observability must not fail a run.
type Observer struct {
	store Store
}

// NewObserver wraps a store as a pipeline.RunObserver.
func NewObserver(store Store) *Observer {
	return &Observer{store: store}
}

func (o *Observer) OnStageStart(runID string, stage pipeline.StageName) {
	o.append(Event{
		RunID: runID,
		Type:  EventStageStarted,
		Stage: string(stage),
	})
}

func (o *Observer) OnStageComplete(runID string, stage pipeline.StageName, d time.Duration, result pipeline.StageResult) {
	o.append(Event{
		RunID:      runID,
		Type:       EventStageCompleted,
		Stage:      string(stage),
		Result:     string(result),
		DurationMS: d.Milliseconds(),
	})
}

func (o *Observer) OnRunComplete(report *pipeline.RunReport) {
	data, err := json.Marshal(report.SanitizedCopy())
	if err != nil {
		slog.Warn("Run store: marshal run report failed", "run", report.RunID, "error", err)
		data = nil
	}
	o.append(Event{
		RunID:      report.RunID,
		Type:       EventRunCompleted,
		Result:     string(report.Outcome),
		DurationMS: report.End.Sub(report.Start).Milliseconds(),
		Report:     data,
	})
}

func (o *Observer) append(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.store.Append(ctx, e); err != nil {
		slog.Warn("Run store: append event failed", "run", e.RunID, "type", string(e.Type), "error", err)
	}
}
