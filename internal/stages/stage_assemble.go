package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"git.home.luguber.info/inful/pagecraft/internal/blocks"
	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
)

// The assembly stages each own exactly one entry of State.Pages. Template
// association is static; a missing required block is an upstream topology
// bug surfaced as *pages.IncompleteError, never skipped.

func stageAssembleFAQ(_ context.Context, st *pipeline.State) error {
	page, err := pages.Assemble(pages.TypeFAQ,
		fmt.Sprintf("%s — Frequently Asked Questions", st.Product.Name),
		st.Blocks,
		map[string]string{
			"product":    st.Product.Name,
			"questions":  strconv.Itoa(st.QuestionCount()),
			"categories": strconv.Itoa(st.CategoryCount()),
		})
	if err != nil {
		return err
	}
	st.Pages[pages.TypeFAQ] = page
	logPageAssembled(st, page)
	return nil
}

func stageAssembleProduct(_ context.Context, st *pipeline.State) error {
	page, err := pages.Assemble(pages.TypeProduct,
		st.Product.Name,
		st.Blocks,
		map[string]string{
			"product":  st.Product.Name,
			"category": st.Product.Category,
			"price":    st.Product.FormatPrice(),
		})
	if err != nil {
		return err
	}
	st.Pages[pages.TypeProduct] = page
	logPageAssembled(st, page)
	return nil
}

func stageAssembleComparison(_ context.Context, st *pipeline.State) error {
	page, err := pages.Assemble(pages.TypeComparison,
		fmt.Sprintf("%s vs %s", st.Product.Name, st.Competitor.Name),
		st.Blocks,
		map[string]string{
			"product_a":      st.Product.Name,
			"product_b":      st.Competitor.Name,
			"recommendation": recommend(st),
		})
	if err != nil {
		return err
	}
	st.Pages[pages.TypeComparison] = page
	logPageAssembled(st, page)
	return nil
}

// recommend derives a verdict from the comparison matrix: the product winning
// more feature rows, with ties going to the cheaper one.
func recommend(st *pipeline.State) string {
	matrix, ok := st.Blocks.Get(blocks.BlockMatrix)
	if !ok {
		return ""
	}
	wins := map[string]int{}
	for _, row := range matrix.Comparison {
		if row.Winner != "" {
			wins[row.Winner]++
		}
	}
	a, b := st.Product, st.Competitor
	switch {
	case wins[a.Name] > wins[b.Name]:
		return fmt.Sprintf("%s leads on %d of %d compared features.", a.Name, wins[a.Name], len(matrix.Comparison))
	case wins[b.Name] > wins[a.Name]:
		return fmt.Sprintf("%s leads on %d of %d compared features.", b.Name, wins[b.Name], len(matrix.Comparison))
	case a.Price < b.Price:
		return fmt.Sprintf("Evenly matched; %s is the cheaper option at $%s.", a.Name, a.FormatPrice())
	case b.Price < a.Price:
		return fmt.Sprintf("Evenly matched; %s is the cheaper option at $%s.", b.Name, b.FormatPrice())
	default:
		return "Evenly matched at the same price point."
	}
}

func logPageAssembled(st *pipeline.State, page *pages.Page) {
	slog.Debug("Page assembled", "run", st.RunID, "page", page.Type, "blocks", len(page.Blocks))
}
