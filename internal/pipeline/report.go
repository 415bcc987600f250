package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/pagecraft/internal/metrics"
)

// RunOutcome is the typed enumeration of final run result states.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// RunReport captures timing and outcome information about one generation run.
type RunReport struct {
	SchemaVersion  int
	RunID          string
	Product        string
	Start          time.Time
	End            time.Time
	StageDurations map[string]time.Duration
	StageResults   map[StageName]StageResult
	Errors         []error
	Warnings       []string
	Questions      int
	Categories     int
	Pages          []string
	LLMCalls       int
	Retries        int
	Outcome        RunOutcome
}

// NewRunReport constructs a report for the given run ID.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		SchemaVersion:  1,
		RunID:          runID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// Finish sets the end time of the report.
func (r *RunReport) Finish() { r.End = time.Now() }

// RecordStageResult updates report counters and emits metrics (if recorder non-nil).
func (r *RunReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if r.StageResults == nil {
		r.StageResults = make(map[StageName]StageResult)
	}
	r.StageResults[stage] = res
	if recorder == nil {
		return
	}
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultFatal:
		recorder.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	}
}

// DeriveOutcome sets the Outcome field based on recorded errors.
func (r *RunReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *RunReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("run=%s product=%q duration=%s stages=%d questions=%d pages=%d llm_calls=%d retries=%d errors=%d outcome=%s",
		r.RunID, r.Product, dur.Truncate(time.Millisecond), len(r.StageDurations), r.Questions, len(r.Pages), r.LLMCalls, r.Retries, len(r.Errors), string(r.Outcome))
}

// Persist writes the report atomically into the provided root directory.
func (r *RunReport) Persist(root string) error {
	if r.End.IsZero() {
		r.Finish()
		r.DeriveOutcome()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.SanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "run-report.json")
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}

// SanitizedCopy returns a copy with error fields converted to strings for
// JSON friendliness.
func (r *RunReport) SanitizedCopy() *RunReportSerializable {
	results := make(map[string]string, len(r.StageResults))
	for k, v := range r.StageResults {
		results[string(k)] = string(v)
	}
	if r.StageDurations == nil {
		r.StageDurations = map[string]time.Duration{}
	}
	s := &RunReportSerializable{
		SchemaVersion:  r.SchemaVersion,
		RunID:          r.RunID,
		Product:        r.Product,
		Start:          r.Start,
		End:            r.End,
		StageDurations: r.StageDurations,
		StageResults:   results,
		Errors:         make([]string, len(r.Errors)),
		Warnings:       r.Warnings,
		Questions:      r.Questions,
		Categories:     r.Categories,
		Pages:          r.Pages,
		LLMCalls:       r.LLMCalls,
		Retries:        r.Retries,
		Outcome:        string(r.Outcome),
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	return s
}

// RunReportSerializable mirrors RunReport but with string errors for JSON output.
type RunReportSerializable struct {
	SchemaVersion  int                      `json:"schema_version"`
	RunID          string                   `json:"run_id"`
	Product        string                   `json:"product"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	StageResults   map[string]string        `json:"stage_results"`
	Errors         []string                 `json:"errors"`
	Warnings       []string                 `json:"warnings,omitempty"`
	Questions      int                      `json:"questions"`
	Categories     int                      `json:"categories"`
	Pages          []string                 `json:"pages,omitempty"`
	LLMCalls       int                      `json:"llm_calls"`
	Retries        int                      `json:"retries"`
	Outcome        string                   `json:"outcome"`
}
