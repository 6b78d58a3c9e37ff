package llm

// ModelPricing holds OpenRouter prices in USD per 1M tokens.
type ModelPricing struct {
	Prompt     float64
	Completion float64
}

// Prices mirror https://openrouter.ai/models for the models used in runs.
// Unknown models fall back to the gpt-4o-mini rate.
var modelPricing = map[string]ModelPricing{
	"openai/gpt-4o-mini":        {Prompt: 0.15, Completion: 0.60},
	"openai/gpt-4o":             {Prompt: 2.50, Completion: 10.00},
	"openai/gpt-3.5-turbo":      {Prompt: 0.50, Completion: 1.50},
	"anthropic/claude-3-sonnet": {Prompt: 3.00, Completion: 15.00},
	"anthropic/claude-3-haiku":  {Prompt: 0.25, Completion: 1.25},
}

var fallbackPricing = ModelPricing{Prompt: 0.15, Completion: 0.60}

// PricingFor returns the pricing entry for a fully qualified model ID.
func PricingFor(model string) ModelPricing {
	if p, ok := modelPricing[model]; ok {
		return p
	}
	return fallbackPricing
}

// CostFor converts a usage record into billed dollars for the given model.
func CostFor(model string, usage Usage) float64 {
	p := PricingFor(model)
	promptCost := float64(usage.PromptTokens) / 1_000_000 * p.Prompt
	completionCost := float64(usage.CompletionTokens) / 1_000_000 * p.Completion
	return promptCost + completionCost
}

// PromptCostFor prices prompt tokens alone. Used to bill attempts that were
// transmitted but failed before a completion came back.
func PromptCostFor(model string, promptTokens int) float64 {
	p := PricingFor(model)
	return float64(promptTokens) / 1_000_000 * p.Prompt
}
