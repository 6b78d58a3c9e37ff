package bench

import (
	"fmt"
	"strings"

	"finamqa/pkg/llm"
)

const promptText = `You are an expert on the Finam TradeAPI. Translate the user's question about trading into exactly one HTTP request against the API.

Available endpoints:
{{- range .Catalog}}
- {{.Method}} {{.Path}} - {{.Description}}
{{- end}}

Bars timeframes: {{.Timeframes}}.

Reply with a single line of the form:
METHOD PATH
where METHOD is one of GET, POST, PUT, DELETE, PATCH and PATH starts with /. Substitute concrete symbols and account ids from the question into the path. Do not add explanations.

{{range .Examples -}}
Question: {{.Question}}
Answer: {{.Method}} {{.Path}}

{{end -}}
Question: {{.Question}}
Answer:`

// PromptBuilder renders the few-shot prompt. It holds no mutable state, so a
// single builder is safe for concurrent use.
type PromptBuilder struct {
	tpl      *llm.PromptTemplate
	maxBytes int
}

// NewPromptBuilder constructs a builder. maxBytes bounds the rendered prompt
// size; zero disables the bound.
func NewPromptBuilder(maxBytes int) (*PromptBuilder, error) {
	tpl, err := llm.NewPromptTemplate("fewshot", promptText, nil)
	if err != nil {
		return nil, err
	}
	return &PromptBuilder{tpl: tpl, maxBytes: maxBytes}, nil
}

type promptData struct {
	Catalog    []Endpoint
	Timeframes string
	Examples   []Example
	Question   string
}

// Build renders the prompt for one question. The same examples and question
// always produce the same bytes. A prompt over the size bound fails with
// ErrPromptTooLarge; prompts are never truncated.
func (b *PromptBuilder) Build(examples []Example, question string) (string, error) {
	out, err := b.tpl.Render(promptData{
		Catalog:    Catalog,
		Timeframes: strings.Join(Timeframes, ", "),
		Examples:   examples,
		Question:   question,
	})
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	if b.maxBytes > 0 && len(out) > b.maxBytes {
		return "", fmt.Errorf("%w: %d bytes over bound %d", ErrPromptTooLarge, len(out), b.maxBytes)
	}
	return out, nil
}

// Digest returns the sha256 digest of the underlying template text.
func (b *PromptBuilder) Digest() string {
	return b.tpl.Digest()
}
