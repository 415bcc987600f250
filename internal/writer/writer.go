// Package writer is the filesystem collaborator: it owns file naming and
// write-safety for the final page artifacts. The pipeline core only hands it
// fully-validated, complete pages.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// fileNames maps page types to their artifact names, matching the fixed
// three-page output contract.
var fileNames = map[pages.Type]string{
	pages.TypeFAQ:        "faq.json",
	pages.TypeProduct:    "product.json",
	pages.TypeComparison: "comparison.json",
}

// Writer persists pages as JSON documents (and optional HTML previews) under
// a per-product directory.
type Writer struct {
	dir     string
	pretty  bool
	preview bool
}

// New creates a writer rooted at dir.
func New(dir string, pretty, preview bool) *Writer {
	return &Writer{dir: dir, pretty: pretty, preview: preview}
}

// OutputDirFor returns the directory pages for p are written into.
func (w *Writer) OutputDirFor(p *product.Record) string {
	return filepath.Join(w.dir, Slugify(p.Name))
}

// WritePages writes one JSON document per page, atomically (temp file +
// rename), in fixed page-type order.
func (w *Writer) WritePages(ctx context.Context, p *product.Record, pageSet map[pages.Type]*pages.Page) error {
	outDir := w.OutputDirFor(p)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	for _, pt := range pages.Types {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, ok := pageSet[pt]
		if !ok {
			return fmt.Errorf("page %s missing from completed set", pt)
		}

		data, err := w.marshal(page)
		if err != nil {
			return fmt.Errorf("marshal page %s: %w", pt, err)
		}
		path := filepath.Join(outDir, fileNames[pt])
		if err := writeAtomic(path, data); err != nil {
			return fmt.Errorf("write page %s: %w", pt, err)
		}
		slog.Info("Page persisted", "page", pt, "path", path)

		if w.preview {
			if err := w.writePreview(outDir, page); err != nil {
				return fmt.Errorf("write preview for %s: %w", pt, err)
			}
		}
	}
	return nil
}

func (w *Writer) marshal(page *pages.Page) ([]byte, error) {
	if w.pretty {
		return json.MarshalIndent(page, "", "  ")
	}
	return json.Marshal(page)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Slugify converts a product name into a safe directory name: diacritics
// stripped, lowercased, non-alphanumerics collapsed into single hyphens.
func Slugify(name string) string {
	folded := stripDiacritics(name)
	var sb strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(sb.String(), "-")
	if slug == "" {
		return "product"
	}
	return slug
}
