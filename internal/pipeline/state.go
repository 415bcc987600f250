package pipeline

import (
	"github.com/google/uuid"

	"git.home.luguber.info/inful/pagecraft/internal/blocks"
	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// State is the shared mutable envelope threaded through every stage of one
// run. The runner owns it exclusively for the duration of the run; execution
// is single-threaded, so no locking is needed.
//
// Write ownership is a documented contract: each stage appends only to its
// reserved fields and never overwrites data written by an earlier stage.
//
//	parse_product          -> Product
//	generate_questions     -> Questions, Retries
//	synthesize_competitor  -> Competitor
//	build_blocks           -> Blocks
//	assemble_*             -> Pages[<own type>]
//	write_output           -> (none; hands Pages to the writer)
//
// Any stage may append to Warnings.
type State struct {
	RunID string

	// Raw is the untrusted input payload supplied at run start.
	Raw map[string]any

	// Product is the canonical validated record. Set once by parse_product.
	Product *product.Record

	// Questions maps category to generated questions in generation order.
	Questions map[product.QuestionCategory][]product.Question

	// Competitor is the synthesized second product used for comparison.
	Competitor *product.Record

	// Blocks is the shared content-block set built by build_blocks.
	Blocks *blocks.Set

	// Pages maps page type to its assembled page.
	Pages map[pages.Type]*pages.Page

	// Warnings accumulates non-fatal observations across stages.
	Warnings []string

	// Report collects timing and outcome information for the run.
	Report *RunReport
}

// NewState creates the state envelope for one run over a raw product payload.
func NewState(raw map[string]any) *State {
	return &State{
		RunID:     uuid.NewString(),
		Raw:       raw,
		Questions: make(map[product.QuestionCategory][]product.Question),
		Blocks:    blocks.NewSet(),
		Pages:     make(map[pages.Type]*pages.Page),
	}
}

// QuestionCount returns the total number of generated questions.
func (s *State) QuestionCount() int {
	n := 0
	for _, qs := range s.Questions {
		n += len(qs)
	}
	return n
}

// CategoryCount returns the number of distinct non-empty question categories.
func (s *State) CategoryCount() int {
	n := 0
	for _, qs := range s.Questions {
		if len(qs) > 0 {
			n++
		}
	}
	return n
}

// Warn appends a non-fatal observation to the run log.
func (s *State) Warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
