package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"llmconf/internal/models"
	"llmconf/internal/provider"
)

const (
	ProviderID     = "openai"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// ModelSpec is the static description of one model.
type ModelSpec struct {
	ID          string
	Name        string
	Description string
	Tools       bool
	Reasoning   bool
	Context     int
}

// Options configures an OpenAI-compatible adapter.
type Options struct {
	Provider models.TextProvider
	Models   []ModelSpec
	Params   []models.ParameterDefinition
}

// Adapter implements provider.Adapter for OpenAI-compatible APIs.
type Adapter struct {
	provider models.TextProvider
	models   []models.TextModel
	params   []models.ParameterDefinition
	client   *http.Client
}

// Parameters returns the OpenAI chat parameter definitions.
func Parameters() []models.ParameterDefinition {
	return []models.ParameterDefinition{
		provider.NumberParam("temperature", "Sampling temperature", provider.Bound(0), provider.Bound(2), 1.0),
		provider.NumberParam("top_p", "Nucleus sampling probability mass", provider.Bound(0), provider.Bound(1), 1.0),
		provider.IntegerParam("max_tokens", "Maximum number of tokens to generate", provider.Bound(1), nil, nil),
		provider.NumberParam("presence_penalty", "Penalty for tokens already present in the text", provider.Bound(-2), provider.Bound(2), 0.0),
		provider.NumberParam("frequency_penalty", "Penalty proportional to token frequency", provider.Bound(-2), provider.Bound(2), 0.0),
	}
}

// Connection returns the connection schema shared by OpenAI-compatible vendors.
func Connection(optional ...string) *models.ConnectionSchema {
	fieldTypes := map[string]string{"apiKey": "string"}
	for _, field := range optional {
		if field == "timeout" {
			fieldTypes[field] = "number"
			continue
		}
		fieldTypes[field] = "string"
	}
	return &models.ConnectionSchema{
		Required:   []string{"apiKey"},
		Optional:   optional,
		FieldTypes: fieldTypes,
	}
}

// New creates the OpenAI adapter.
func New(client *http.Client) (*Adapter, error) {
	return NewWithOptions(Options{
		Provider: models.TextProvider{
			ID:                    ProviderID,
			Name:                  "OpenAI",
			Description:           "OpenAI GPT models",
			RequiresAPIKey:        true,
			DefaultBaseURL:        DefaultBaseURL,
			SupportsDynamicModels: true,
			ConnectionSchema:      Connection("baseURL", "organization", "timeout"),
		},
		Models: []ModelSpec{
			{ID: "gpt-4o", Name: "GPT-4o", Tools: true, Context: 128000},
			{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Tools: true, Context: 128000},
			{ID: "o1", Name: "o1", Reasoning: true, Context: 200000},
			{ID: "o1-mini", Name: "o1 Mini", Reasoning: true, Context: 128000},
			{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Tools: true, Context: 128000},
			{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Tools: true, Context: 16385},
		},
	}, client)
}

// NewWithOptions creates an adapter for an OpenAI-compatible vendor.
func NewWithOptions(opts Options, client *http.Client) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	if opts.Provider.ID == "" {
		return nil, errors.New("provider id must not be empty")
	}

	params := opts.Params
	if params == nil {
		params = Parameters()
	}

	a := &Adapter{
		provider: opts.Provider,
		params:   params,
		client:   client,
	}
	for _, spec := range opts.Models {
		a.models = append(a.models, a.buildModel(spec))
	}
	return a, nil
}

func (a *Adapter) buildModel(spec ModelSpec) models.TextModel {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	m := models.TextModel{
		ID:          spec.ID,
		Name:        name,
		Description: spec.Description,
		ProviderID:  a.provider.ID,
		Capabilities: models.Capabilities{
			SupportsTools:     spec.Tools,
			SupportsReasoning: spec.Reasoning,
			MaxContextLength:  spec.Context,
		},
		ParameterDefinitions:   a.params,
		DefaultParameterValues: provider.ParameterDefaults(a.params),
	}
	return *m.Clone()
}

// Provider returns the vendor metadata.
func (a *Adapter) Provider() models.TextProvider {
	return *a.provider.Clone()
}

// Models returns the static model list.
func (a *Adapter) Models() []models.TextModel {
	out := make([]models.TextModel, len(a.models))
	for i := range a.models {
		out[i] = *a.models[i].Clone()
	}
	return out
}

// BuildDefaultModel describes a model id that is not in the static list.
func (a *Adapter) BuildDefaultModel(modelID string) models.TextModel {
	return a.buildModel(ModelSpec{ID: modelID})
}

// ListModels queries the vendor's /models endpoint.
func (a *Adapter) ListModels(ctx context.Context, conn models.ConnectionConfig) ([]models.TextModel, error) {
	if !a.provider.SupportsDynamicModels {
		return nil, fmt.Errorf("provider %s: %w", a.provider.ID, provider.ErrUnsupportedOperation)
	}

	cfg := goopenai.DefaultConfig(conn.APIKey())
	cfg.BaseURL = conn.BaseURL()
	if cfg.BaseURL == "" {
		cfg.BaseURL = a.provider.DefaultBaseURL
	}
	cfg.HTTPClient = a.client
	if org, ok := conn["organization"].(string); ok {
		cfg.OrgID = org
	}

	list, err := goopenai.NewClientWithConfig(cfg).ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s models: %w", a.provider.ID, err)
	}

	out := make([]models.TextModel, 0, len(list.Models))
	for _, m := range list.Models {
		out = append(out, provider.FindModel(a, m.ID))
	}
	return out, nil
}
