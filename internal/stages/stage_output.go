package stages

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
)

// stageWriteOutput hands the completed page map to the filesystem
// collaborator. It verifies completeness one final time so the writer only
// ever receives fully-assembled pages.
func (d Deps) stageWriteOutput(ctx context.Context, st *pipeline.State) error {
	for _, pt := range pages.Types {
		page, ok := st.Pages[pt]
		if !ok || page == nil {
			return &pages.IncompleteError{Page: pt, Block: "", Reason: "was never assembled"}
		}
		st.Report.Pages = append(st.Report.Pages, string(pt))
	}

	if d.Writer == nil {
		return fmt.Errorf("no page writer configured")
	}
	if err := d.Writer.WritePages(ctx, st.Product, st.Pages); err != nil {
		return err
	}

	slog.Info("Pages written", "run", st.RunID, "pages", len(st.Pages))
	return nil
}
