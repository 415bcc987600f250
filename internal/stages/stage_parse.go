package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// stageParseProduct validates the raw payload into the canonical record.
// Owns: State.Product.
func stageParseProduct(_ context.Context, st *pipeline.State) error {
	rec, err := product.Parse(st.Raw)
	if err != nil {
		return err
	}
	st.Product = rec
	st.Report.Product = rec.Name
	slog.Info("Product validated", "run", st.RunID, "product", rec.Name, "category", rec.Category, "price", rec.Price)
	return nil
}
