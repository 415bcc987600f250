package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pagecraft/internal/blocks"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
)

// stageBuildBlocks runs every content-block transform over the validated
// state and registers the results in the shared block set. Owns:
// State.Blocks.
func stageBuildBlocks(_ context.Context, st *pipeline.State) error {
	builders := []func() (blocks.Block, error){
		func() (blocks.Block, error) { return blocks.Intro(st.Product) },
		func() (blocks.Block, error) { return blocks.AttributeTable(st.Product) },
		func() (blocks.Block, error) { return blocks.HighlightList(st.Product) },
		func() (blocks.Block, error) { return blocks.PriceSummary(st.Product) },
		func() (blocks.Block, error) { return blocks.QuestionList(st.Product, st.Questions) },
		func() (blocks.Block, error) { return blocks.CategorySummary(st.Questions) },
		func() (blocks.Block, error) { return blocks.ComparisonMatrix(st.Product, st.Competitor) },
	}

	for _, build := range builders {
		b, err := build()
		if err != nil {
			return err
		}
		if err := st.Blocks.Add(b); err != nil {
			return err
		}
	}

	slog.Debug("Content blocks built", "run", st.RunID, "blocks", st.Blocks.Len())
	return nil
}
