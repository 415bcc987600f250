// Package events publishes pipeline run events to NATS for downstream
// consumers (dashboards, notification hooks).
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
)

// Publisher forwards run lifecycle events to a NATS subject. It implements
// pipeline.RunObserver; publish failures are logged and dropped so event
// delivery can never fail a run.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to NATS and returns a publisher for the subject.
func NewPublisher(url, subject string) (*Publisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("events subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("pagecraft"),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

type stageEvent struct {
	Event      string `json:"event"`
	RunID      string `json:"run_id"`
	Stage      string `json:"stage,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Result     string `json:"result,omitempty"`
}

func (p *Publisher) OnStageStart(runID string, stage pipeline.StageName) {
	p.publish(stageEvent{Event: "stage_started", RunID: runID, Stage: string(stage)})
}

func (p *Publisher) OnStageComplete(runID string, stage pipeline.StageName, d time.Duration, result pipeline.StageResult) {
	p.publish(stageEvent{
		Event:      "stage_completed",
		RunID:      runID,
		Stage:      string(stage),
		DurationMS: d.Milliseconds(),
		Result:     string(result),
	})
}

func (p *Publisher) OnRunComplete(report *pipeline.RunReport) {
	p.publish(struct {
		Event  string                          `json:"event"`
		Report *pipeline.RunReportSerializable `json:"report"`
	}{Event: "run_completed", Report: report.SanitizedCopy()})
}

func (p *Publisher) publish(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("Event publisher: marshal failed", "error", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Event publisher: publish failed", "subject", p.subject, "error", err)
	}
}
