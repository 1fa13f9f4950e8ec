package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Keys(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "custom", "deepseek", "gemini", "openai", "siliconflow", "zhipu"}, Keys())
	assert.Len(t, Defaults(), len(Keys()))
}

func TestDefaults_Shape(t *testing.T) {
	for key, cfg := range Defaults() {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, key, cfg.ID)
			assert.NotEmpty(t, cfg.Name)
			assert.False(t, cfg.Enabled)
			require.NotNil(t, cfg.ProviderMeta)
			require.NotNil(t, cfg.ModelMeta)
			assert.Equal(t, cfg.ProviderMeta.ID, cfg.ModelMeta.ProviderID)
			require.NotNil(t, cfg.ConnectionConfig)
			assert.Equal(t, cfg.ProviderMeta.DefaultBaseURL, cfg.ConnectionConfig.BaseURL())
		})
	}
}

func TestDefaults_FreshCopies(t *testing.T) {
	first := Defaults()
	first["openai"].ConnectionConfig["apiKey"] = "mutated"
	first["openai"].ModelMeta.Name = "mutated"

	second := Defaults()
	assert.Equal(t, "", second["openai"].ConnectionConfig.APIKey())
	assert.NotEqual(t, "mutated", second["openai"].ModelMeta.Name)

	single, ok := Default("openai")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", single.ModelMeta.ID)
}

func TestDefault_Unknown(t *testing.T) {
	_, ok := Default("nope")
	assert.False(t, ok)
	assert.False(t, IsDefault("nope"))
	assert.True(t, IsDefault("deepseek"))
}

func TestProvider(t *testing.T) {
	p, ok := Provider("deepseek")
	require.True(t, ok)
	assert.Equal(t, "https://api.deepseek.com/v1", p.DefaultBaseURL)

	_, ok = Provider("nope")
	assert.False(t, ok)
}

func TestParameterDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		first    string
		count    int
	}{
		{"openai", "openai", "temperature", 5},
		{"anthropic", "anthropic", "temperature", 5},
		{"gemini", "gemini", "temperature", 5},
		{"empty falls back", "", "temperature", 5},
		{"unknown falls back", "nope", "temperature", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := ParameterDefinitions(tt.provider)
			require.Len(t, defs, tt.count)
			assert.Equal(t, tt.first, defs[0].Name)
		})
	}

	defs := ParameterDefinitions("anthropic")
	defs[0].Name = "mutated"
	assert.Equal(t, "temperature", ParameterDefinitions("anthropic")[0].Name)
}
