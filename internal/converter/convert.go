package converter

import (
	"context"
	"fmt"
	"strings"

	"llmconf/internal/catalog"
	"llmconf/internal/models"
	"llmconf/internal/provider"
)

const customProviderID = "custom"

// Registry resolves provider and model metadata.
type Registry interface {
	LookupModel(ctx context.Context, providerID, modelID string) (models.TextProvider, models.TextModel, error)
}

// ConvertLegacy converts a legacy entry using only compiled-in knowledge. It
// never fails.
func ConvertLegacy(key string, legacy models.LegacyConfig) models.TextModelConfig {
	providerID := ResolveProviderID(key, legacy)

	p, ok := catalog.Provider(providerID)
	if !ok {
		p = models.TextProvider{
			ID:             providerID,
			Name:           firstNonEmpty(legacy.Name, providerID),
			RequiresAPIKey: true,
			DefaultBaseURL: legacy.BaseURL,
		}
	}

	modelID := legacyModelID(legacy)
	defs := catalog.ParameterDefinitions(providerID)
	m := models.TextModel{
		ID:                     modelID,
		Name:                   modelID,
		ProviderID:             p.ID,
		ParameterDefinitions:   defs,
		DefaultParameterValues: provider.ParameterDefaults(defs),
	}

	return assemble(key, legacy, p, m)
}

// ConvertLegacyWithRegistry converts a legacy entry with metadata from the
// adapter registry. Callers fall back to ConvertLegacy on error.
func ConvertLegacyWithRegistry(ctx context.Context, key string, legacy models.LegacyConfig, registry Registry) (models.TextModelConfig, error) {
	if registry == nil {
		return models.TextModelConfig{}, fmt.Errorf("convert %s: registry must not be nil", key)
	}
	if err := ctx.Err(); err != nil {
		return models.TextModelConfig{}, err
	}

	providerID := ResolveProviderID(key, legacy)
	p, m, err := registry.LookupModel(ctx, providerID, legacyModelID(legacy))
	if err != nil {
		return models.TextModelConfig{}, fmt.Errorf("convert %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return models.TextModelConfig{}, err
	}

	return assemble(key, legacy, p, m), nil
}

func assemble(key string, legacy models.LegacyConfig, p models.TextProvider, m models.TextModel) models.TextModelConfig {
	return models.TextModelConfig{
		ID:           key,
		Name:         firstNonEmpty(legacy.Name, key),
		Enabled:      legacy.Enabled,
		ProviderMeta: p.Clone(),
		ModelMeta:    m.Clone(),
		ConnectionConfig: models.ConnectionConfig{
			models.ConnAPIKey:  legacy.APIKey,
			models.ConnBaseURL: legacy.BaseURL,
		},
		ParamOverrides: models.CloneMap(legacy.LLMParams),
	}
}

// ResolveProviderID picks the provider for a legacy entry: its provider
// field, else the entry key when that names a known provider, else custom.
func ResolveProviderID(key string, legacy models.LegacyConfig) string {
	if id := strings.ToLower(strings.TrimSpace(legacy.Provider)); id != "" {
		return id
	}
	if _, ok := catalog.Provider(key); ok {
		return key
	}
	return customProviderID
}

func legacyModelID(legacy models.LegacyConfig) string {
	if legacy.DefaultModel != "" {
		return legacy.DefaultModel
	}
	if len(legacy.Models) > 0 {
		return legacy.Models[0]
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
