// Package llm holds the narrative model providers. The rest of the system
// only sees the Provider interface; which backend answers is a config choice.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Provider is the contract every model backend implements. Options carry
// backend-specific knobs (model, response_format, api_key).
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	Name() string
}

// JSONMode is the conventional options entry that asks a backend for a JSON
// object response.
func JSONMode() map[string]interface{} {
	return map[string]interface{}{
		"response_format": map[string]interface{}{"type": "json_object"},
	}
}

// WithModel wraps a provider so every request carries a fixed model name.
// An explicit "model" entry in the per-call options still wins.
func WithModel(p Provider, model string) Provider {
	if model == "" {
		return p
	}
	return &modelOverride{Provider: p, model: model}
}

type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	merged := make(map[string]interface{}, len(options)+1)
	for k, v := range options {
		merged[k] = v
	}
	if _, ok := merged["model"]; !ok {
		merged["model"] = m.model
	}
	return m.Provider.GenerateResponse(ctx, prompt, systemPrompt, merged)
}

// StaticProvider replays scripted responses in order. Tests use it to drive
// the classifier and synthesizer without a network.
type StaticProvider struct {
	Responses []string
	Err       error

	mu    sync.Mutex
	calls int
}

var _ Provider = (*StaticProvider)(nil)

func (p *StaticProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Responses) == 0 {
		return "", fmt.Errorf("STATIC_PROVIDER_EMPTY: no scripted responses")
	}
	i := p.calls
	if i >= len(p.Responses) {
		i = len(p.Responses) - 1
	}
	p.calls++
	return p.Responses[i], nil
}

func (p *StaticProvider) Name() string { return "static" }

// Calls reports how many times the provider was invoked.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
