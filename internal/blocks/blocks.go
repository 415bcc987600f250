// Package blocks builds reusable typed content fragments from validated
// product data. All transforms are pure: identical input yields identical
// output, no external calls, no randomness. A construction failure always
// signals an upstream stage ordering bug, not user error.
package blocks

import (
	"fmt"
)

// Type identifies the payload shape of a content block.
type Type string

const (
	TypeText           Type = "text"
	TypeBulletList     Type = "bullet_list"
	TypeKVTable        Type = "kv_table"
	TypeQAList         Type = "qa_list"
	TypeComparisonRows Type = "comparison_rows"
)

// Canonical block names. A block name is unique within a run; pages reference
// blocks by name so the same block can appear on several pages.
const (
	BlockIntro      = "intro"
	BlockAttributes = "attributes"
	BlockHighlights = "highlights"
	BlockPrice      = "price"
	BlockQuestions  = "questions"
	BlockCategories = "categories"
	BlockMatrix     = "matrix"
)

// KV is a single row of a kv_table block.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// QAEntry is a single entry of a qa_list block.
type QAEntry struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ComparisonRow is one feature row of a comparison_rows block. Winner is the
// product name favored for the feature, or empty when neither wins.
type ComparisonRow struct {
	Feature string `json:"feature"`
	A       string `json:"product_a"`
	B       string `json:"product_b"`
	Winner  string `json:"winner,omitempty"`
}

// Block is a named, typed content fragment. Exactly one payload field is
// populated, determined by Type.
type Block struct {
	Name string `json:"name"`
	Type Type   `json:"type"`

	Text       string            `json:"text,omitempty"`
	Items      []string          `json:"items,omitempty"`
	Rows       []KV              `json:"rows,omitempty"`
	QA         []QAEntry         `json:"qa,omitempty"`
	Comparison []ComparisonRow   `json:"comparison,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ConstructionError reports that a transform was invoked without its required
// input data. This indicates a pipeline ordering defect.
type ConstructionError struct {
	Block   string
	Missing string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct block %q: missing %s", e.Block, e.Missing)
}

// Set is an ordered, name-keyed collection of blocks owned by the shared
// pipeline state. Names are unique; a duplicate Add is an ordering defect.
type Set struct {
	order []string
	byKey map[string]Block
}

// NewSet creates an empty block set.
func NewSet() *Set {
	return &Set{byKey: make(map[string]Block)}
}

// Add inserts a block, failing on duplicate names.
func (s *Set) Add(b Block) error {
	if _, exists := s.byKey[b.Name]; exists {
		return fmt.Errorf("block %q already present", b.Name)
	}
	s.order = append(s.order, b.Name)
	s.byKey[b.Name] = b
	return nil
}

// Get returns the named block and whether it exists.
func (s *Set) Get(name string) (Block, bool) {
	b, ok := s.byKey[name]
	return b, ok
}

// Names returns block names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of blocks in the set.
func (s *Set) Len() int { return len(s.order) }
