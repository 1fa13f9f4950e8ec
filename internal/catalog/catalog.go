// Package catalog holds the compiled-in default model configurations and the
// static provider knowledge used when no adapter registry is available.
package catalog

import (
	"net/http"
	"sort"
	"sync"

	"llmconf/internal/models"
	"llmconf/internal/provider"
	claudeProvider "llmconf/internal/provider/claude"
	compatibleProvider "llmconf/internal/provider/compatible"
	geminiProvider "llmconf/internal/provider/gemini"
	openaiProvider "llmconf/internal/provider/openai"
)

// FallbackProviderID is used when an entry does not name its provider.
const FallbackProviderID = openaiProvider.ProviderID

type entry struct {
	key     string
	name    string
	adapter provider.Adapter
	modelID string
}

type catalog struct {
	defaults  map[string]models.TextModelConfig
	providers map[string]models.TextProvider
	params    map[string][]models.ParameterDefinition
}

var (
	once  sync.Once
	built catalog
)

func load() catalog {
	once.Do(func() {
		built = build()
	})
	return built
}

func build() catalog {
	// Static adapters never dial out, the client is only held for dynamic listing.
	client := &http.Client{}

	openAI, err := openaiProvider.New(client)
	if err != nil {
		panic(err)
	}
	adapters := []provider.Adapter{openAI, claudeProvider.New(), geminiProvider.New()}
	for _, vendor := range compatibleProvider.Vendors() {
		a, err := compatibleProvider.New(vendor, client)
		if err != nil {
			panic(err)
		}
		adapters = append(adapters, a)
	}

	byID := make(map[string]provider.Adapter, len(adapters))
	c := catalog{
		defaults:  make(map[string]models.TextModelConfig),
		providers: make(map[string]models.TextProvider),
		params:    make(map[string][]models.ParameterDefinition),
	}
	for _, a := range adapters {
		p := a.Provider()
		byID[p.ID] = a
		c.providers[p.ID] = p
		c.params[p.ID] = a.BuildDefaultModel("").ParameterDefinitions
	}

	entries := []entry{
		{key: "openai", name: "OpenAI", adapter: byID["openai"], modelID: "gpt-4o-mini"},
		{key: "anthropic", name: "Anthropic", adapter: byID["anthropic"], modelID: "claude-sonnet-4-20250514"},
		{key: "gemini", name: "Gemini", adapter: byID["gemini"], modelID: "gemini-2.5-flash"},
		{key: "deepseek", name: "DeepSeek", adapter: byID["deepseek"], modelID: "deepseek-chat"},
		{key: "siliconflow", name: "SiliconFlow", adapter: byID["siliconflow"], modelID: "Qwen/Qwen3-8B"},
		{key: "zhipu", name: "Zhipu AI", adapter: byID["zhipu"], modelID: "glm-4-flash"},
		{key: "custom", name: "Custom API", adapter: byID["custom"], modelID: "custom-model"},
	}
	for _, e := range entries {
		p := e.adapter.Provider()
		m := provider.FindModel(e.adapter, e.modelID)
		c.defaults[e.key] = models.TextModelConfig{
			ID:           e.key,
			Name:         e.name,
			ProviderMeta: &p,
			ModelMeta:    &m,
			ConnectionConfig: models.ConnectionConfig{
				models.ConnAPIKey:  "",
				models.ConnBaseURL: p.DefaultBaseURL,
			},
			ParamOverrides: map[string]any{},
		}
	}
	return c
}

// Defaults returns a fresh deep copy of every default configuration.
func Defaults() map[string]models.TextModelConfig {
	c := load()
	out := make(map[string]models.TextModelConfig, len(c.defaults))
	for k, v := range c.defaults {
		out[k] = v.Clone()
	}
	return out
}

// Default returns a deep copy of the default configuration for key.
func Default(key string) (models.TextModelConfig, bool) {
	cfg, ok := load().defaults[key]
	if !ok {
		return models.TextModelConfig{}, false
	}
	return cfg.Clone(), true
}

// IsDefault reports whether key names a built-in configuration.
func IsDefault(key string) bool {
	_, ok := load().defaults[key]
	return ok
}

// Keys returns the sorted default keys.
func Keys() []string {
	c := load()
	keys := make([]string, 0, len(c.defaults))
	for k := range c.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Provider returns static metadata for providerID.
func Provider(providerID string) (models.TextProvider, bool) {
	p, ok := load().providers[providerID]
	if !ok {
		return models.TextProvider{}, false
	}
	return *p.Clone(), true
}

// ParameterDefinitions returns the static parameter definitions for
// providerID, falling back to the OpenAI set for unknown providers.
func ParameterDefinitions(providerID string) []models.ParameterDefinition {
	c := load()
	if providerID == "" {
		providerID = FallbackProviderID
	}
	defs, ok := c.params[providerID]
	if !ok {
		defs = c.params[FallbackProviderID]
	}
	m := models.TextModel{ParameterDefinitions: defs}
	return m.Clone().ParameterDefinitions
}
