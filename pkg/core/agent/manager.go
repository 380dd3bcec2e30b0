// Package agent maps named roles (classifier, executive) to configured model
// providers.
package agent

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"

	"finsight/pkg/core/llm"
)

type Config struct {
	ActiveProvider string                `yaml:"active_provider"`
	Roles          map[string]RoleConfig `yaml:"roles"`
}

type RoleConfig struct {
	Provider    string `yaml:"provider"` // optional override
	Model       string `yaml:"model"`
	Description string `yaml:"description"`
}

// LoadConfig reads the provider config file. A missing file falls back to
// gemini as the single active provider.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{ActiveProvider: "gemini"}, nil
		}
		return Config{}, fmt.Errorf("CONFIG_READ_ERROR: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("CONFIG_PARSE_ERROR: %v", err)
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = "gemini"
	}
	return cfg, nil
}

type Manager struct {
	config    Config
	providers map[string]llm.Provider
	log       zerolog.Logger
}

func NewManager(config Config, log zerolog.Logger) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":   &llm.GeminiProvider{},
			"openai":   &llm.OpenAICompatProvider{},
			"deepseek": &llm.OpenAICompatProvider{BaseURL: "https://api.deepseek.com", APIKeyEnv: "DEEPSEEK_API_KEY", Model: "deepseek-chat"},
		},
		log: log,
	}
}

// Register adds or replaces a named provider. Tests register scripted ones.
func (m *Manager) Register(name string, p llm.Provider) {
	m.providers[name] = p
}

// ProviderFor resolves a role to its provider: role override first, then the
// global active provider. A role-level model name is baked into the returned
// provider's request options.
func (m *Manager) ProviderFor(role string) llm.Provider {
	p := m.baseProvider(role)
	if model := m.ModelFor(role); model != "" {
		return llm.WithModel(p, model)
	}
	return p
}

func (m *Manager) baseProvider(role string) llm.Provider {
	if rc, ok := m.config.Roles[role]; ok && rc.Provider != "" {
		if p, ok := m.providers[rc.Provider]; ok {
			return p
		}
		m.log.Warn().Str("role", role).Str("provider", rc.Provider).Msg("role provider not registered, using active")
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["gemini"]
}

// ModelFor returns the configured model name for a role, empty when the
// provider default applies.
func (m *Manager) ModelFor(role string) string {
	if rc, ok := m.config.Roles[role]; ok {
		return rc.Model
	}
	return ""
}
