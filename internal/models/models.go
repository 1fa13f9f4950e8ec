package models

// ConnectionSchema declares which connection fields a provider needs.
type ConnectionSchema struct {
	Required   []string          `json:"required"`
	Optional   []string          `json:"optional"`
	FieldTypes map[string]string `json:"fieldTypes,omitempty"`
}

// TextProvider describes an LLM vendor.
type TextProvider struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Description           string            `json:"description,omitempty"`
	RequiresAPIKey        bool              `json:"requiresApiKey"`
	DefaultBaseURL        string            `json:"defaultBaseURL"`
	SupportsDynamicModels bool              `json:"supportsDynamicModels"`
	ConnectionSchema      *ConnectionSchema `json:"connectionSchema,omitempty"`
}

// Capabilities lists optional model features.
type Capabilities struct {
	SupportsTools     bool `json:"supportsTools"`
	SupportsReasoning bool `json:"supportsReasoning,omitempty"`
	MaxContextLength  int  `json:"maxContextLength,omitempty"`
}

// ParameterDefinition declares a tunable model parameter. Min and Max are
// inclusive.
type ParameterDefinition struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Step        *float64 `json:"step,omitempty"`
	Unit        string   `json:"unit,omitempty"`

	// UI translation keys.
	LabelKey       string `json:"labelKey,omitempty"`
	DescriptionKey string `json:"descriptionKey,omitempty"`
}

// Parameter value types.
const (
	ParamNumber  = "number"
	ParamInteger = "integer"
	ParamString  = "string"
	ParamBoolean = "boolean"
)

// TextModel describes a concrete model of a provider.
type TextModel struct {
	ID                     string                `json:"id"`
	Name                   string                `json:"name"`
	Description            string                `json:"description,omitempty"`
	ProviderID             string                `json:"providerId"`
	Capabilities           Capabilities          `json:"capabilities"`
	ParameterDefinitions   []ParameterDefinition `json:"parameterDefinitions"`
	DefaultParameterValues map[string]any        `json:"defaultParameterValues,omitempty"`
}

// FindParameter returns the definition for name, if declared.
func (m TextModel) FindParameter(name string) (ParameterDefinition, bool) {
	for _, def := range m.ParameterDefinitions {
		if def.Name == name {
			return def, true
		}
	}
	return ParameterDefinition{}, false
}

// TextModelConfig is a persisted model configuration entry.
type TextModelConfig struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Enabled          bool             `json:"enabled"`
	ProviderMeta     *TextProvider    `json:"providerMeta"`
	ModelMeta        *TextModel       `json:"modelMeta"`
	ConnectionConfig ConnectionConfig `json:"connectionConfig"`
	ParamOverrides   map[string]any   `json:"paramOverrides,omitempty"`

	// Deprecated: merged into ParamOverrides; only read from old data.
	CustomParamOverrides map[string]any `json:"customParamOverrides,omitempty"`
}

// ProviderID returns the provider id or an empty string.
func (c TextModelConfig) ProviderID() string {
	if c.ProviderMeta == nil {
		return ""
	}
	return c.ProviderMeta.ID
}

// LegacyConfig is the flat configuration shape written by older releases.
type LegacyConfig struct {
	Name           string         `json:"name"`
	BaseURL        string         `json:"baseURL"`
	APIKey         string         `json:"apiKey,omitempty"`
	Models         []string       `json:"models,omitempty"`
	DefaultModel   string         `json:"defaultModel"`
	Enabled        bool           `json:"enabled"`
	Provider       string         `json:"provider,omitempty"`
	UseVercelProxy bool           `json:"useVercelProxy,omitempty"`
	LLMParams      map[string]any `json:"llmParams,omitempty"`
}

// Patch is a partial update of a TextModelConfig. Nil fields are left untouched.
type Patch struct {
	ID               *string          `json:"id,omitempty"`
	Name             *string          `json:"name,omitempty"`
	Enabled          *bool            `json:"enabled,omitempty"`
	ProviderMeta     *TextProvider    `json:"providerMeta,omitempty"`
	ModelMeta        *TextModel       `json:"modelMeta,omitempty"`
	ConnectionConfig ConnectionConfig `json:"connectionConfig,omitempty"`
	ParamOverrides   map[string]any   `json:"paramOverrides,omitempty"`
}

// Significant reports whether the patch touches a field that requires
// re-validation of the resulting entry. Setting enabled to false does not.
func (p Patch) Significant() bool {
	return p.Name != nil ||
		p.ProviderMeta != nil ||
		p.ModelMeta != nil ||
		p.ConnectionConfig != nil ||
		p.ParamOverrides != nil ||
		(p.Enabled != nil && *p.Enabled)
}
