package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() TextModelConfig {
	maxTemp := 2.0
	return TextModelConfig{
		ID:      "openai",
		Name:    "OpenAI",
		Enabled: true,
		ProviderMeta: &TextProvider{
			ID:   "openai",
			Name: "OpenAI",
			ConnectionSchema: &ConnectionSchema{
				Required:   []string{"apiKey"},
				FieldTypes: map[string]string{"apiKey": "string"},
			},
		},
		ModelMeta: &TextModel{
			ID:         "gpt-4o",
			ProviderID: "openai",
			ParameterDefinitions: []ParameterDefinition{
				{Name: "temperature", Type: ParamNumber, Max: &maxTemp},
			},
			DefaultParameterValues: map[string]any{"temperature": 1.0},
		},
		ConnectionConfig: ConnectionConfig{"apiKey": "sk-1", "baseURL": "https://api.openai.com/v1/"},
		ParamOverrides:   map[string]any{"temperature": 0.5, "stop": []any{"a"}},
	}
}

func TestClone_Independent(t *testing.T) {
	orig := sampleConfig()
	cp := orig.Clone()

	cp.ProviderMeta.Name = "changed"
	cp.ProviderMeta.ConnectionSchema.Required[0] = "changed"
	cp.ModelMeta.ParameterDefinitions[0].Name = "changed"
	*cp.ModelMeta.ParameterDefinitions[0].Max = 9
	cp.ModelMeta.DefaultParameterValues["temperature"] = 9.0
	cp.ConnectionConfig["apiKey"] = "changed"
	cp.ParamOverrides["stop"].([]any)[0] = "changed"

	assert.Equal(t, "OpenAI", orig.ProviderMeta.Name)
	assert.Equal(t, "apiKey", orig.ProviderMeta.ConnectionSchema.Required[0])
	assert.Equal(t, "temperature", orig.ModelMeta.ParameterDefinitions[0].Name)
	assert.Equal(t, 2.0, *orig.ModelMeta.ParameterDefinitions[0].Max)
	assert.Equal(t, 1.0, orig.ModelMeta.DefaultParameterValues["temperature"])
	assert.Equal(t, "sk-1", orig.ConnectionConfig.APIKey())
	assert.Equal(t, "a", orig.ParamOverrides["stop"].([]any)[0])
}

func TestClone_PreservesNilConnection(t *testing.T) {
	cfg := TextModelConfig{ID: "x"}
	assert.Nil(t, cfg.Clone().ConnectionConfig)
}

func TestConnectionConfig_Accessors(t *testing.T) {
	cfg := sampleConfig()
	assert.Equal(t, "sk-1", cfg.ConnectionConfig.APIKey())
	assert.Equal(t, "https://api.openai.com/v1", cfg.ConnectionConfig.BaseURL())

	var empty ConnectionConfig
	assert.Empty(t, empty.APIKey())
	assert.Empty(t, ConnectionConfig{"apiKey": 42}.APIKey())
}

func TestConnectionConfig_Merge(t *testing.T) {
	base := ConnectionConfig{"apiKey": "a", "timeout": 30.0}
	merged := base.Merge(ConnectionConfig{"apiKey": "b", "organization": "org"})

	assert.Equal(t, ConnectionConfig{"apiKey": "b", "timeout": 30.0, "organization": "org"}, merged)
	assert.Equal(t, "a", base.APIKey())

	var nilBase ConnectionConfig
	require.NotNil(t, nilBase.Merge(nil))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]any
		custom   map[string]any
		expected map[string]any
	}{
		{"no custom", map[string]any{"a": 1.0}, nil, map[string]any{"a": 1.0}},
		{"custom only", nil, map[string]any{"b": 2.0}, map[string]any{"b": 2.0}},
		{"params win", map[string]any{"a": 1.0}, map[string]any{"a": 5.0, "b": 2.0}, map[string]any{"a": 1.0, "b": 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := TextModelConfig{ParamOverrides: tt.params, CustomParamOverrides: tt.custom}.Normalize()
			assert.Equal(t, tt.expected, cfg.ParamOverrides)
			assert.Nil(t, cfg.CustomParamOverrides)
		})
	}
}

func TestPatch_Significant(t *testing.T) {
	name := "n"
	yes, no := true, false

	tests := []struct {
		name     string
		patch    Patch
		expected bool
	}{
		{"empty", Patch{}, false},
		{"disable", Patch{Enabled: &no}, false},
		{"enable", Patch{Enabled: &yes}, true},
		{"name", Patch{Name: &name}, true},
		{"empty connection", Patch{ConnectionConfig: ConnectionConfig{}}, true},
		{"params", Patch{ParamOverrides: map[string]any{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.patch.Significant())
		})
	}
}

func TestFindParameter(t *testing.T) {
	cfg := sampleConfig()
	def, ok := cfg.ModelMeta.FindParameter("temperature")
	require.True(t, ok)
	assert.Equal(t, ParamNumber, def.Type)

	_, ok = cfg.ModelMeta.FindParameter("missing")
	assert.False(t, ok)
}

func TestParameterDefinition_JSON(t *testing.T) {
	maxTemp := 2.0
	def := ParameterDefinition{Name: "temperature", Type: ParamNumber, Description: "Sampling temperature", Default: 1.0, Max: &maxTemp}

	data, err := json.Marshal(def)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"temperature","type":"number","description":"Sampling temperature","default":1,"max":2}`, string(data))

	m := TextModel{ID: "m", ParameterDefinitions: []ParameterDefinition{{Name: "stop", Type: ParamString, Default: []any{"a"}}}}
	clone := m.Clone()
	clone.ParameterDefinitions[0].Default.([]any)[0] = "b"
	assert.Equal(t, []any{"a"}, m.ParameterDefinitions[0].Default)
}
