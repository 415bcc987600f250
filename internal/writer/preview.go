package writer

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagecraft/internal/blocks"
	"git.home.luguber.info/inful/pagecraft/internal/pages"
)

// writePreview renders the page to Markdown, converts it to HTML with
// goldmark, sanity-checks the result, and writes it beside the JSON artifact.
func (w *Writer) writePreview(outDir string, page *pages.Page) error {
	md := renderMarkdown(page)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("render preview html: %w", err)
	}

	if err := verifyPreview(buf.Bytes()); err != nil {
		return err
	}

	name := strings.TrimSuffix(fileNames[page.Type], ".json") + ".html"
	return writeAtomic(filepath.Join(outDir, name), buf.Bytes())
}

// renderMarkdown flattens a page into Markdown, one section per block.
func renderMarkdown(page *pages.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", page.Title)

	for _, b := range page.Blocks {
		switch b.Type {
		case blocks.TypeText:
			sb.WriteString(b.Text + "\n\n")
		case blocks.TypeBulletList:
			for _, item := range b.Items {
				fmt.Fprintf(&sb, "- %s\n", item)
			}
			sb.WriteString("\n")
		case blocks.TypeKVTable:
			sb.WriteString("| | |\n|---|---|\n")
			for _, row := range b.Rows {
				fmt.Fprintf(&sb, "| %s | %s |\n", row.Key, row.Value)
			}
			sb.WriteString("\n")
		case blocks.TypeQAList:
			for _, qa := range b.QA {
				fmt.Fprintf(&sb, "### %s\n\n%s\n\n", qa.Question, qa.Answer)
			}
		case blocks.TypeComparisonRows:
			sb.WriteString("| Feature | A | B | Winner |\n|---|---|---|---|\n")
			for _, row := range b.Comparison {
				fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", row.Feature, row.A, row.B, row.Winner)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// verifyPreview parses the rendered HTML and requires at least one heading,
// catching a silently empty render.
func verifyPreview(data []byte) error {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("preview html does not parse: %w", err)
	}
	if countHeadings(doc) == 0 {
		return fmt.Errorf("preview html has no headings")
	}
	return nil
}

func countHeadings(n *html.Node) int {
	count := 0
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			count++
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countHeadings(c)
	}
	return count
}
