package gemini

import (
	"llmconf/internal/models"
	"llmconf/internal/provider"
)

const (
	ProviderID     = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
)

// Adapter implements provider.Adapter for Google Gemini.
type Adapter struct {
	provider models.TextProvider
	params   []models.ParameterDefinition
}

// Parameters returns the Gemini generation config definitions.
func Parameters() []models.ParameterDefinition {
	return []models.ParameterDefinition{
		provider.NumberParam("temperature", "Sampling temperature", provider.Bound(0), provider.Bound(2), nil),
		provider.NumberParam("topP", "Nucleus sampling probability mass", provider.Bound(0), provider.Bound(1), nil),
		provider.IntegerParam("maxOutputTokens", "Maximum number of tokens to generate", provider.Bound(1), nil, nil),
		provider.IntegerParam("thinkingBudget", "Token budget for model thinking", provider.Bound(0), provider.Bound(8192), nil),
		provider.BooleanParam("includeThoughts", "Return thought summaries with the response", false),
	}
}

// New creates the Gemini adapter.
func New() *Adapter {
	return &Adapter{
		provider: models.TextProvider{
			ID:                    ProviderID,
			Name:                  "Google Gemini",
			Description:           "Google Gemini models",
			RequiresAPIKey:        true,
			DefaultBaseURL:        DefaultBaseURL,
			SupportsDynamicModels: false,
			ConnectionSchema: &models.ConnectionSchema{
				Required:   []string{"apiKey"},
				Optional:   []string{"baseURL"},
				FieldTypes: map[string]string{"apiKey": "string", "baseURL": "string"},
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
	m := a.BuildDefaultModel("gemini-2.5-flash")
	m.Name = "Gemini 2.5 Flash"
	m.Capabilities.SupportsTools = true
	m.Capabilities.SupportsReasoning = true
	m.Capabilities.MaxContextLength = 1000000
	return []models.TextModel{m}
}

// BuildDefaultModel describes a model id that is not in the static list.
func (a *Adapter) BuildDefaultModel(modelID string) models.TextModel {
	m := models.TextModel{
		ID:                     modelID,
		Name:                   modelID,
		ProviderID:             ProviderID,
		ParameterDefinitions:   a.params,
		DefaultParameterValues: provider.ParameterDefaults(a.params),
	}
	return *m.Clone()
}
