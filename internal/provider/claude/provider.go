package claude

import (
	"llmconf/internal/models"
	"llmconf/internal/provider"
)

const (
	ProviderID     = "anthropic"
	DefaultBaseURL = "https://api.anthropic.com"
)

var staticModels = []struct {
	id, name string
}{
	{"claude-opus-4-20250514", "Claude Opus 4"},
	{"claude-sonnet-4-20250514", "Claude Sonnet 4"},
	{"claude-3-7-sonnet-latest", "Claude 3.7 Sonnet"},
	{"claude-3-5-haiku-latest", "Claude 3.5 Haiku"},
}

// Adapter implements provider.Adapter for the Anthropic Messages API.
type Adapter struct {
	provider models.TextProvider
	params   []models.ParameterDefinition
}

// Parameters returns the Anthropic parameter definitions.
func Parameters() []models.ParameterDefinition {
	return []models.ParameterDefinition{
		provider.NumberParam("temperature", "Sampling temperature", provider.Bound(0), provider.Bound(1), 1.0),
		provider.NumberParam("top_p", "Nucleus sampling probability mass", provider.Bound(0), provider.Bound(1), nil),
		provider.IntegerParam("top_k", "Sample only from the top K tokens", provider.Bound(1), nil, nil),
		provider.IntegerParam("max_tokens", "Maximum number of tokens to generate", provider.Bound(1), nil, 4096.0),
		provider.IntegerParam("thinking_budget_tokens", "Token budget for extended thinking", provider.Bound(1024), nil, nil),
	}
}

// New creates the Anthropic adapter.
func New() *Adapter {
	return &Adapter{
		provider: models.TextProvider{
			ID:                    ProviderID,
			Name:                  "Anthropic",
			Description:           "Anthropic Claude models",
			RequiresAPIKey:        true,
			DefaultBaseURL:        DefaultBaseURL,
			SupportsDynamicModels: false,
			ConnectionSchema: &models.ConnectionSchema{
				Required:   []string{"apiKey"},
				Optional:   []string{"baseURL", "timeout"},
				FieldTypes: map[string]string{"apiKey": "string", "baseURL": "string", "timeout": "number"},
			},
		},
		params: Parameters(),
	}
}

// Provider returns the vendor metadata.
func (a *Adapter) Provider() models.TextProvider {
	return *a.provider.Clone()
}

// Models returns the static model list.
func (a *Adapter) Models() []models.TextModel {
	out := make([]models.TextModel, 0, len(staticModels))
	for _, m := range staticModels {
		model := a.BuildDefaultModel(m.id)
		model.Name = m.name
		model.Capabilities.MaxContextLength = 200000
		out = append(out, model)
	}
	return out
}

// BuildDefaultModel describes a model id that is not in the static list.
func (a *Adapter) BuildDefaultModel(modelID string) models.TextModel {
	m := models.TextModel{
		ID:         modelID,
		Name:       modelID,
		ProviderID: ProviderID,
		Capabilities: models.Capabilities{
			SupportsTools: true,
		},
		ParameterDefinitions:   a.params,
		DefaultParameterValues: provider.ParameterDefaults(a.params),
	}
	return *m.Clone()
}
