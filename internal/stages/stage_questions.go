package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/pagecraft/internal/llm"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// questionsPayload is the expected response shape for question generation.
type questionsPayload struct {
	Questions []struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	} `json:"questions"`
}

// stageGenerateQuestions asks the collaborator for categorized questions and
// validates the response against the minimum thresholds. Under-production
// triggers exactly one retry with a clarified prompt before surfacing
// ErrInsufficientOutput. Owns: State.Questions.
func (d Deps) stageGenerateQuestions(ctx context.Context, st *pipeline.State) error {
	data := d.promptData(st.Product)

	questions, err := d.requestQuestions(ctx, st, "initial", data)
	if err != nil {
		return err
	}

	if !d.sufficient(questions) {
		slog.Warn("Question generation under-produced, retrying once",
			"run", st.RunID, "questions", countQuestions(questions), "categories", len(questions))
		st.Report.Retries++

		questions, err = d.requestQuestions(ctx, st, "retry", data)
		if err != nil {
			return err
		}
		if !d.sufficient(questions) {
			return fmt.Errorf("%w: got %d questions across %d categories, need %d across %d",
				ErrInsufficientOutput, countQuestions(questions), len(questions), d.minQuestions(), d.minCategories())
		}
	}

	st.Questions = questions
	st.Report.Questions = st.QuestionCount()
	st.Report.Categories = st.CategoryCount()
	slog.Info("Questions generated",
		"run", st.RunID, "questions", st.Report.Questions, "categories", st.Report.Categories)
	return nil
}

func (d Deps) requestQuestions(ctx context.Context, st *pipeline.State, promptKey string, data map[string]any) (map[product.QuestionCategory][]product.Question, error) {
	tpl, err := d.Prompts.Load("questions", promptKey)
	if err != nil {
		return nil, err
	}
	system, user, err := tpl.Render(data)
	if err != nil {
		return nil, err
	}

	st.Report.LLMCalls++
	raw, err := d.LLM.Complete(ctx, llm.Request{Op: "questions", System: system, User: user})
	if err != nil {
		return nil, err
	}

	var payload questionsPayload
	if err := llm.DecodeStrict(raw, &payload); err != nil {
		return nil, fmt.Errorf("question response: %w", err)
	}

	out := make(map[product.QuestionCategory][]product.Question)
	for _, q := range payload.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			st.Warn("question generation: dropped entry with empty text")
			continue
		}
		cat := product.QuestionCategory(strings.TrimSpace(q.Category))
		if !product.ValidCategory(cat) {
			st.Warn(fmt.Sprintf("question generation: dropped entry with unknown category %q", q.Category))
			continue
		}
		out[cat] = append(out[cat], product.Question{Category: cat, Text: text})
	}
	return out, nil
}

func (d Deps) sufficient(questions map[product.QuestionCategory][]product.Question) bool {
	return countQuestions(questions) >= d.minQuestions() && len(questions) >= d.minCategories()
}

func countQuestions(questions map[product.QuestionCategory][]product.Question) int {
	n := 0
	for _, qs := range questions {
		n += len(qs)
	}
	return n
}
