// Package stages implements the fixed set of pipeline stages and their
// dependency edges: schema validation, the two language-model generation
// stages, content-block construction, page assembly, and output.
package stages

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/pagecraft/internal/llm"
	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// Thresholds for question generation; the minimum contract, not a target.
const (
	DefaultMinQuestions  = 15
	DefaultMinCategories = 5
)

// ErrInsufficientOutput reports that the question stage under-produced even
// after its single bounded retry.
var ErrInsufficientOutput = errors.New("generation under-produced")

// ErrSchemaMismatch reports that a generation response could not be coerced
// into the expected record shape.
var ErrSchemaMismatch = errors.New("generation output does not match expected schema")

// PageWriter is the external filesystem collaborator. It receives only
// fully-validated, complete pages; file naming and write-safety are its
// responsibility.
type PageWriter interface {
	WritePages(ctx context.Context, p *product.Record, pageSet map[pages.Type]*pages.Page) error
}

// Deps carries the collaborators the stages need.
type Deps struct {
	LLM           llm.Client
	Prompts       *llm.PromptSet
	Writer        PageWriter
	MinQuestions  int
	MinCategories int
}

func (d Deps) minQuestions() int {
	if d.MinQuestions > 0 {
		return d.MinQuestions
	}
	return DefaultMinQuestions
}

func (d Deps) minCategories() int {
	if d.MinCategories > 0 {
		return d.MinCategories
	}
	return DefaultMinCategories
}

// Definitions returns the fixed stage topology. The declared edges form the
// DAG the engine orders; there is no dynamic branching.
func Definitions(d Deps) []pipeline.StageDef {
	return []pipeline.StageDef{
		{Name: pipeline.StageParseProduct, Fn: stageParseProduct},
		{Name: pipeline.StageQuestions, Fn: d.stageGenerateQuestions,
			After: []pipeline.StageName{pipeline.StageParseProduct}},
		{Name: pipeline.StageCompetitor, Fn: d.stageSynthesizeCompetitor,
			After: []pipeline.StageName{pipeline.StageParseProduct}},
		{Name: pipeline.StageBlocks, Fn: stageBuildBlocks,
			After: []pipeline.StageName{pipeline.StageQuestions, pipeline.StageCompetitor}},
		{Name: pipeline.StageAssembleFAQ, Fn: stageAssembleFAQ,
			After: []pipeline.StageName{pipeline.StageBlocks}},
		{Name: pipeline.StageAssembleProd, Fn: stageAssembleProduct,
			After: []pipeline.StageName{pipeline.StageBlocks}},
		{Name: pipeline.StageAssembleComp, Fn: stageAssembleComparison,
			After: []pipeline.StageName{pipeline.StageBlocks}},
		{Name: pipeline.StageWriteOutput, Fn: d.stageWriteOutput,
			After: []pipeline.StageName{
				pipeline.StageAssembleFAQ,
				pipeline.StageAssembleProd,
				pipeline.StageAssembleComp,
			}},
	}
}
