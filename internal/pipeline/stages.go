// Package pipeline implements the fixed-topology stage graph engine: stage
// definitions with declared dependencies, a build-time topological order with
// cycle detection, and a strictly sequential runner threading the shared
// state through each stage.
package pipeline

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in the generation run.
type Stage func(ctx context.Context, st *State) error

// StageName is a strongly-typed identifier for a pipeline stage.
type StageName string

// Canonical stage names.
const (
	StageParseProduct StageName = "parse_product"
	StageQuestions    StageName = "generate_questions"
	StageCompetitor   StageName = "synthesize_competitor"
	StageBlocks       StageName = "build_blocks"
	StageAssembleFAQ  StageName = "assemble_faq"
	StageAssembleProd StageName = "assemble_product"
	StageAssembleComp StageName = "assemble_comparison"
	StageWriteOutput  StageName = "write_output"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Run must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failed stage and the
// underlying cause. It is the single error the runner propagates; no partial
// state is reported as final.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewCanceledStageError creates a stage error for context cancellation.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageStatus tracks where a stage is in its lifecycle during a run.
type StageStatus string

const (
	StatusNotRun    StageStatus = "not-run"
	StatusRunning   StageStatus = "running"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
)

// StageDef declares a stage: its name, executing function, and the stages
// that must complete before it runs.
type StageDef struct {
	Name  StageName
	Fn    Stage
	After []StageName
}
