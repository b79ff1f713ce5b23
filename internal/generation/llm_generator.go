package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/waypoint/internal/llm"
)

// LLMGenerator is a Generator that prompts a language model directly.
type LLMGenerator struct {
	client llm.LLMClient
}

// NewLLMGenerator creates a Generator backed by client.
func NewLLMGenerator(client llm.LLMClient) *LLMGenerator {
	return &LLMGenerator{client: client}
}

// Available reports whether the model server answers.
func (g *LLMGenerator) Available(ctx context.Context) bool {
	return g.client.Available(ctx)
}

func (g *LLMGenerator) GenerateWeek(ctx context.Context, req Request) (string, error) {
	return g.generate(ctx, OpWeek, llm.GenerateRequest{
		Task:         llm.TaskWeek,
		SystemPrompt: weekSystemPrompt,
		UserPrompt:   weekUserPrompt(req),
	})
}

func (g *LLMGenerator) GeneratePlan(ctx context.Context, req Request) (string, error) {
	return g.generate(ctx, OpPlan, llm.GenerateRequest{
		Task:         llm.TaskPlan,
		SystemPrompt: planSystemPrompt,
		UserPrompt:   planUserPrompt(req),
	})
}

func (g *LLMGenerator) generate(ctx context.Context, op string, req llm.GenerateRequest) (string, error) {
	resp, err := g.client.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Op: op, Err: err}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", &GenerationError{Op: op, Err: errors.New("model returned an empty response")}
	}
	return resp.Text, nil
}
