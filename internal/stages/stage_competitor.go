package stages

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagecraft/internal/llm"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// stageSynthesizeCompetitor asks the collaborator for a fictional competing
// product and coerces the response through the same schema validation as the
// input record. A shape failure surfaces ErrSchemaMismatch; there is no retry
// for malformed structure. Owns: State.Competitor.
func (d Deps) stageSynthesizeCompetitor(ctx context.Context, st *pipeline.State) error {
	tpl, err := d.Prompts.Load("competitor", "")
	if err != nil {
		return err
	}
	system, user, err := tpl.Render(d.promptData(st.Product))
	if err != nil {
		return err
	}

	st.Report.LLMCalls++
	raw, err := d.LLM.Complete(ctx, llm.Request{Op: "competitor", System: system, User: user})
	if err != nil {
		return err
	}

	var payload map[string]any
	if err := llm.DecodeStrict(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	competitor, err := product.Parse(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}

	st.Competitor = competitor
	slog.Info("Competitor synthesized",
		"run", st.RunID, "competitor", competitor.Name, "price", competitor.Price)
	return nil
}
