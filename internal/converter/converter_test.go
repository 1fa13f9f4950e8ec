package converter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmconf/internal/models"
	"llmconf/internal/provider/factory"
)

const legacyJSON = `{"name":"Mine","baseURL":"https://x/v1","apiKey":"k","defaultModel":"m1","enabled":true,"provider":"custom","llmParams":{"temperature":0.2}}`

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		shape      Shape
		enabledSet bool
		present    bool
	}{
		{"text", `{"id":"a","name":"A","enabled":false,"providerMeta":{"id":"openai"},"modelMeta":{"id":"gpt"},"connectionConfig":{}}`, ShapeText, true, true},
		{"legacy", legacyJSON, ShapeLegacy, true, true},
		{"legacy without enabled", `{"name":"x","baseURL":"u","defaultModel":"m"}`, ShapeLegacy, false, true},
		{"unknown object", `{"garbage":true}`, ShapeUnknown, false, true},
		{"string", `"hello"`, ShapeUnknown, false, true},
		{"null", `null`, ShapeUnknown, false, false},
		{"text with bad params", `{"providerMeta":{},"modelMeta":{},"paramOverrides":[1]}`, ShapeUnknown, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Classify(json.RawMessage(tt.raw))
			assert.Equal(t, tt.shape, entry.Shape)
			assert.Equal(t, tt.enabledSet, entry.EnabledSet)
			assert.Equal(t, tt.present, entry.Present())
		})
	}
}

func TestPredicates(t *testing.T) {
	text := map[string]any{"providerMeta": map[string]any{}, "modelMeta": map[string]any{}, "baseURL": "u", "defaultModel": "m"}
	assert.True(t, IsTextModelConfig(text))
	assert.False(t, IsLegacyConfig(text))

	legacy := map[string]any{"baseURL": "u", "defaultModel": "m"}
	assert.False(t, IsTextModelConfig(legacy))
	assert.True(t, IsLegacyConfig(legacy))

	assert.False(t, IsTextModelConfig(map[string]any{"providerMeta": "openai", "modelMeta": map[string]any{}}))
	assert.False(t, IsLegacyConfig(map[string]any{"baseURL": 1, "defaultModel": "m"}))
	assert.False(t, IsLegacyConfig(nil))
}

func TestConvertLegacy(t *testing.T) {
	var legacy models.LegacyConfig
	require.NoError(t, json.Unmarshal([]byte(legacyJSON), &legacy))

	cfg := ConvertLegacy("mine", legacy)

	assert.Equal(t, "mine", cfg.ID)
	assert.Equal(t, "Mine", cfg.Name)
	assert.True(t, cfg.Enabled)
	require.NotNil(t, cfg.ProviderMeta)
	assert.Equal(t, "custom", cfg.ProviderMeta.ID)
	require.NotNil(t, cfg.ModelMeta)
	assert.Equal(t, "m1", cfg.ModelMeta.ID)
	assert.Equal(t, "custom", cfg.ModelMeta.ProviderID)
	assert.NotEmpty(t, cfg.ModelMeta.ParameterDefinitions)
	assert.Equal(t, "k", cfg.ConnectionConfig.APIKey())
	assert.Equal(t, "https://x/v1", cfg.ConnectionConfig.BaseURL())
	assert.Equal(t, map[string]any{"temperature": 0.2}, cfg.ParamOverrides)
}

func TestConvertLegacy_ProviderResolution(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		legacy   models.LegacyConfig
		provider string
		model    string
	}{
		{"explicit provider", "x", models.LegacyConfig{Provider: "DeepSeek", DefaultModel: "deepseek-chat"}, "deepseek", "deepseek-chat"},
		{"key names provider", "gemini", models.LegacyConfig{DefaultModel: "gemini-2.5-flash"}, "gemini", "gemini-2.5-flash"},
		{"fallback custom", "mine", models.LegacyConfig{DefaultModel: "m"}, "custom", "m"},
		{"model from list", "mine", models.LegacyConfig{Models: []string{"first", "second"}}, "custom", "first"},
		{"unknown provider kept", "mine", models.LegacyConfig{Provider: "acme", Name: "Acme", BaseURL: "https://acme"}, "acme", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConvertLegacy(tt.key, tt.legacy)
			assert.Equal(t, tt.provider, cfg.ProviderMeta.ID)
			assert.Equal(t, tt.model, cfg.ModelMeta.ID)
			assert.Equal(t, tt.key, cfg.ID)
		})
	}
}

func TestConvertLegacy_DoesNotAliasInput(t *testing.T) {
	legacy := models.LegacyConfig{DefaultModel: "m", LLMParams: map[string]any{"a": 1.0}}
	cfg := ConvertLegacy("k", legacy)
	cfg.ParamOverrides["a"] = 2.0
	assert.Equal(t, 1.0, legacy.LLMParams["a"])
}

func TestConvertLegacyWithRegistry(t *testing.T) {
	registry, err := factory.NewRegistry()
	require.NoError(t, err)

	legacy := models.LegacyConfig{
		Name:         "DeepSeek",
		BaseURL:      "https://api.deepseek.com/v1",
		DefaultModel: "deepseek-reasoner",
		Provider:     "deepseek",
	}

	cfg, err := ConvertLegacyWithRegistry(context.Background(), "deepseek", legacy, registry)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.ID)
	assert.True(t, cfg.ModelMeta.Capabilities.SupportsReasoning)
	assert.Equal(t, 64000, cfg.ModelMeta.Capabilities.MaxContextLength)
}

type failingRegistry struct{}

func (failingRegistry) LookupModel(context.Context, string, string) (models.TextProvider, models.TextModel, error) {
	return models.TextProvider{}, models.TextModel{}, errors.New("registry offline")
}

func TestConvertLegacyWithRegistry_Errors(t *testing.T) {
	legacy := models.LegacyConfig{DefaultModel: "m"}

	_, err := ConvertLegacyWithRegistry(context.Background(), "k", legacy, failingRegistry{})
	assert.ErrorContains(t, err, "registry offline")

	_, err = ConvertLegacyWithRegistry(context.Background(), "k", legacy, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	registry, err := factory.NewRegistry()
	require.NoError(t, err)
	_, err = ConvertLegacyWithRegistry(ctx, "k", legacy, registry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUpgrade(t *testing.T) {
	text := Classify(json.RawMessage(`{"id":"a","name":"A","enabled":true,"providerMeta":{"id":"openai"},"modelMeta":{"id":"gpt"},"connectionConfig":{},"paramOverrides":{"a":1},"customParamOverrides":{"a":5,"b":2}}`))
	cfg := text.Upgrade("a")
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, cfg.ParamOverrides)
	assert.Nil(t, cfg.CustomParamOverrides)

	legacy := Classify(json.RawMessage(legacyJSON))
	assert.Equal(t, "m1", legacy.Upgrade("mine").ModelMeta.ID)

	partial := Classify(json.RawMessage(`{"name":"Half","baseURL":42,"apiKey":"k"}`))
	require.Equal(t, ShapeUnknown, partial.Shape)
	upgraded := partial.Upgrade("half")
	assert.Equal(t, "Half", upgraded.Name)
	assert.Equal(t, "k", upgraded.ConnectionConfig.APIKey())

	junk := Classify(json.RawMessage(`"junk"`))
	assert.Equal(t, "junk", junk.Upgrade("junk").ID)
}
