package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecraft/internal/llm"
	"git.home.luguber.info/inful/pagecraft/internal/pages"
	"git.home.luguber.info/inful/pagecraft/internal/pipeline"
	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// scriptedClient returns canned responses keyed by operation, in call order.
type scriptedClient struct {
	responses map[string][]string
	calls     map[string]int
	errs      map[string]error
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		responses: make(map[string][]string),
		calls:     make(map[string]int),
		errs:      make(map[string]error),
	}
}

func (c *scriptedClient) script(op string, responses ...string) {
	c.responses[op] = append(c.responses[op], responses...)
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (string, error) {
	n := c.calls[req.Op]
	c.calls[req.Op] = n + 1
	if err := c.errs[req.Op]; err != nil {
		return "", err
	}
	queue := c.responses[req.Op]
	if n >= len(queue) {
		return "", fmt.Errorf("no scripted response for op %q call %d", req.Op, n)
	}
	return queue[n], nil
}

// questionsJSON fabricates a response with count questions spread over the
// first nCats canonical categories.
func questionsJSON(t *testing.T, count, nCats int) string {
	t.Helper()
	type q struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	}
	var qs []q
	for i := 0; i < count; i++ {
		cat := product.QuestionCategories[i%nCats]
		qs = append(qs, q{Category: string(cat), Text: fmt.Sprintf("Question number %d?", i+1)})
	}
	data, err := json.Marshal(map[string]any{"questions": qs})
	require.NoError(t, err)
	return string(data)
}

const competitorJSON = `{
	"name": "LumiDerm Radiance Serum",
	"description": "A fictional radiance serum for comparison.",
	"category": "Skincare",
	"price": 29.99,
	"attributes": {"skin_type": "Sensitive", "texture": "Gel"}
}`

func testState(t *testing.T) *pipeline.State {
	t.Helper()
	st := pipeline.NewState(map[string]any{
		"name":        "GlowBoost Vitamin C Serum",
		"description": "A brightening face serum with 15% vitamin C.",
		"category":    "Skincare",
		"price":       24.99,
		"attributes": map[string]any{
			"key_ingredients": "Vitamin C, Hyaluronic Acid",
			"volume":          "30ml",
		},
	})
	st.Report = pipeline.NewRunReport(st.RunID)
	require.NoError(t, stageParseProduct(context.Background(), st))
	return st
}

type memoryWriter struct {
	written map[pages.Type]*pages.Page
	product *product.Record
}

func (w *memoryWriter) WritePages(_ context.Context, p *product.Record, pageSet map[pages.Type]*pages.Page) error {
	w.product = p
	w.written = pageSet
	return nil
}

func testDeps(client llm.Client, w PageWriter) Deps {
	return Deps{LLM: client, Prompts: llm.NewPromptSet(""), Writer: w}
}

func TestStageParseProduct(t *testing.T) {
	st := testState(t)
	require.NotNil(t, st.Product)
	require.Equal(t, "GlowBoost Vitamin C Serum", st.Product.Name)
	require.Equal(t, st.Product.Name, st.Report.Product)
}

func TestStageParseProduct_InvalidPayload(t *testing.T) {
	st := pipeline.NewState(map[string]any{"name": "x"})
	st.Report = pipeline.NewRunReport(st.RunID)
	err := stageParseProduct(context.Background(), st)
	var verr *product.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestGenerateQuestions_SufficientFirstTry(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", questionsJSON(t, 20, 6))
	d := testDeps(client, nil)
	st := testState(t)

	require.NoError(t, d.stageGenerateQuestions(context.Background(), st))
	require.Equal(t, 20, st.QuestionCount())
	require.GreaterOrEqual(t, st.CategoryCount(), 5)
	require.Equal(t, 1, client.calls["questions"])
	require.Equal(t, 0, st.Report.Retries)
	require.Equal(t, 1, st.Report.LLMCalls)
}

func TestGenerateQuestions_RetryRecovers(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", questionsJSON(t, 3, 2), questionsJSON(t, 16, 5))
	d := testDeps(client, nil)
	st := testState(t)

	require.NoError(t, d.stageGenerateQuestions(context.Background(), st))
	require.Equal(t, 16, st.QuestionCount())
	require.Equal(t, 2, client.calls["questions"])
	require.Equal(t, 1, st.Report.Retries)
	require.Equal(t, 2, st.Report.LLMCalls)
}

func TestGenerateQuestions_ExactlyOneRetryThenFails(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", questionsJSON(t, 3, 2), questionsJSON(t, 4, 2))
	d := testDeps(client, nil)
	st := testState(t)

	err := d.stageGenerateQuestions(context.Background(), st)
	require.ErrorIs(t, err, ErrInsufficientOutput)
	require.Equal(t, 2, client.calls["questions"])
	require.Equal(t, 1, st.Report.Retries)
}

func TestGenerateQuestions_DropsInvalidEntries(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", `{"questions": [
		{"category": "Informational", "text": "Valid question?"},
		{"category": "Bogus", "text": "Unknown category?"},
		{"category": "Safety", "text": "  "}
	]}`, questionsJSON(t, 15, 5))
	d := testDeps(client, nil)
	st := testState(t)

	require.NoError(t, d.stageGenerateQuestions(context.Background(), st))
	require.Len(t, st.Warnings, 2)
}

func TestGenerateQuestions_MalformedJSON(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", "not json at all")
	d := testDeps(client, nil)
	st := testState(t)

	err := d.stageGenerateQuestions(context.Background(), st)
	require.Error(t, err)
	require.Equal(t, 1, client.calls["questions"])
}

func TestSynthesizeCompetitor(t *testing.T) {
	client := newScriptedClient()
	client.script("competitor", competitorJSON)
	d := testDeps(client, nil)
	st := testState(t)

	require.NoError(t, d.stageSynthesizeCompetitor(context.Background(), st))
	require.NotNil(t, st.Competitor)
	require.Equal(t, "LumiDerm Radiance Serum", st.Competitor.Name)
	require.Equal(t, 29.99, st.Competitor.Price)
}

func TestSynthesizeCompetitor_SchemaMismatch(t *testing.T) {
	client := newScriptedClient()
	client.script("competitor", `{"name": "Nameless", "price": "free"}`)
	d := testDeps(client, nil)
	st := testState(t)

	err := d.stageSynthesizeCompetitor(context.Background(), st)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestSynthesizeCompetitor_NonObjectResponse(t *testing.T) {
	client := newScriptedClient()
	client.script("competitor", `["not", "an", "object"]`)
	d := testDeps(client, nil)
	st := testState(t)

	err := d.stageSynthesizeCompetitor(context.Background(), st)
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestDefinitions_BuildValidGraph(t *testing.T) {
	d := testDeps(newScriptedClient(), &memoryWriter{})
	g, err := pipeline.NewGraph(Definitions(d))
	require.NoError(t, err)
	require.Equal(t, 8, g.Len())

	order := g.Order()
	require.Equal(t, pipeline.StageParseProduct, order[0])
	require.Equal(t, pipeline.StageWriteOutput, order[len(order)-1])

	pos := make(map[pipeline.StageName]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	require.Less(t, pos[pipeline.StageQuestions], pos[pipeline.StageBlocks])
	require.Less(t, pos[pipeline.StageCompetitor], pos[pipeline.StageBlocks])
	require.Less(t, pos[pipeline.StageBlocks], pos[pipeline.StageAssembleFAQ])
}

func TestFullPipeline_EndToEnd(t *testing.T) {
	client := newScriptedClient()
	client.script("questions", questionsJSON(t, 15, 5))
	client.script("competitor", competitorJSON)
	w := &memoryWriter{}
	d := testDeps(client, w)

	g, err := pipeline.NewGraph(Definitions(d))
	require.NoError(t, err)

	st := pipeline.NewState(map[string]any{
		"name":        "GlowBoost Vitamin C Serum",
		"description": "A brightening face serum with 15% vitamin C.",
		"category":    "Skincare",
		"price":       24.99,
		"attributes": map[string]any{
			"key_ingredients": "Vitamin C, Hyaluronic Acid",
			"volume":          "30ml",
		},
	})
	runner := pipeline.NewRunner(g, nil, nil)
	require.NoError(t, runner.Run(context.Background(), st))

	// All three pages assembled and handed to the writer.
	require.Len(t, w.written, 3)
	for _, pt := range pages.Types {
		require.Contains(t, w.written, pt)
	}
	require.Equal(t, "GlowBoost Vitamin C Serum", w.product.Name)

	require.Equal(t, pipeline.OutcomeSuccess, st.Report.Outcome)
	require.Equal(t, 15, st.Report.Questions)
	require.Equal(t, 5, st.Report.Categories)
	require.Equal(t, 2, st.Report.LLMCalls)
	require.Equal(t, 0, st.Report.Retries)
	require.Empty(t, st.Warnings)
	require.Equal(t, []string{"FAQ", "Product", "Comparison"}, st.Report.Pages)

	faq := w.written[pages.TypeFAQ]
	require.Equal(t, "GlowBoost Vitamin C Serum — Frequently Asked Questions", faq.Title)
	require.Len(t, faq.Blocks, 3)

	comparison := w.written[pages.TypeComparison]
	require.Equal(t, "GlowBoost Vitamin C Serum vs LumiDerm Radiance Serum", comparison.Title)
	require.NotEmpty(t, comparison.Metadata["recommendation"])
}

func TestFullPipeline_HaltsWhenLLMFails(t *testing.T) {
	client := newScriptedClient()
	client.errs["questions"] = fmt.Errorf("service unavailable")
	client.script("competitor", competitorJSON)
	w := &memoryWriter{}
	d := testDeps(client, w)

	g, err := pipeline.NewGraph(Definitions(d))
	require.NoError(t, err)

	st := pipeline.NewState(map[string]any{
		"name":        "GlowBoost Vitamin C Serum",
		"description": "A brightening face serum.",
		"category":    "Skincare",
		"price":       24.99,
	})
	runner := pipeline.NewRunner(g, nil, nil)
	err = runner.Run(context.Background(), st)

	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, pipeline.StageQuestions, se.Stage)
	require.Equal(t, pipeline.OutcomeFailed, st.Report.Outcome)

	// Nothing downstream ran; the writer never received pages.
	require.Nil(t, w.written)
	require.Equal(t, pipeline.StatusNotRun, runner.Status(pipeline.StageBlocks))
	require.Equal(t, pipeline.StatusNotRun, runner.Status(pipeline.StageWriteOutput))
}

func TestStageWriteOutput_MissingPage(t *testing.T) {
	d := testDeps(newScriptedClient(), &memoryWriter{})
	st := testState(t)
	st.Pages[pages.TypeFAQ] = &pages.Page{Type: pages.TypeFAQ}

	err := d.stageWriteOutput(context.Background(), st)
	var ierr *pages.IncompleteError
	require.ErrorAs(t, err, &ierr)
	require.Equal(t, pages.TypeProduct, ierr.Page)
}
