package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"llmconf/internal/models"
	"llmconf/internal/provider"
)

// ErrUnknownModel indicates no configuration is stored under the key.
var ErrUnknownModel = errors.New("unknown model")

// ErrModelDisabled indicates the configuration exists but is disabled.
var ErrModelDisabled = errors.New("model is disabled")

// ErrDiscovery indicates the vendor could not list its models.
var ErrDiscovery = errors.New("model discovery failed")

// ModelSource reads stored model configurations.
type ModelSource interface {
	GetModel(ctx context.Context, key string) (models.TextModelConfig, bool, error)
}

// Target is everything a client needs to call the configured model.
type Target struct {
	Key        string         `json:"key"`
	ProviderID string         `json:"providerId"`
	ModelID    string         `json:"modelId"`
	BaseURL    string         `json:"baseURL"`
	APIKey     string         `json:"apiKey"`
	Params     map[string]any `json:"params"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Masked returns a copy of t safe to print.
func (t Target) Masked() Target {
	t.APIKey = MaskKey(t.APIKey)
	return t
}

// MaskKey keeps the first three and last four characters of a secret and
// elides the rest. Secrets of eight characters or fewer are fully starred.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}

// Router resolves model configuration keys into call targets.
type Router struct {
	models   ModelSource
	registry *provider.Registry
}

// New constructs a router backed by the provided model source and registry.
func New(src ModelSource, registry *provider.Registry) *Router {
	return &Router{
		models:   src,
		registry: registry,
	}
}

// Resolve returns the call target of the enabled configuration under key.
// Parameters are the model defaults overlaid with the user's overrides.
func (r *Router) Resolve(ctx context.Context, key string) (Target, error) {
	cfg, err := r.lookup(ctx, key)
	if err != nil {
		return Target{}, err
	}
	if !cfg.Enabled {
		return Target{}, fmt.Errorf("%w: %s", ErrModelDisabled, key)
	}

	var defaults map[string]any
	target := Target{
		Key:        key,
		ProviderID: cfg.ProviderID(),
		BaseURL:    cfg.ConnectionConfig.BaseURL(),
		APIKey:     cfg.ConnectionConfig.APIKey(),
	}
	if cfg.ModelMeta != nil {
		target.ModelID = cfg.ModelMeta.ID
		defaults = cfg.ModelMeta.DefaultParameterValues
	}
	if target.BaseURL == "" && cfg.ProviderMeta != nil {
		target.BaseURL = strings.TrimRight(cfg.ProviderMeta.DefaultBaseURL, "/")
	}
	target.Params = models.MergeMaps(defaults, cfg.ParamOverrides)

	extra := cloneOptions(cfg.ConnectionConfig)
	delete(extra, models.ConnAPIKey)
	delete(extra, models.ConnBaseURL)
	if len(extra) > 0 {
		target.Extra = extra
	}
	return target, nil
}

// Discover lists the models available for the provider of key, asking the
// vendor when its adapter supports dynamic listing.
func (r *Router) Discover(ctx context.Context, key string) ([]models.TextModel, error) {
	cfg, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if r.registry == nil {
		return nil, fmt.Errorf("discover %s: %w", key, provider.ErrUnsupportedOperation)
	}

	adapter, err := r.registry.Lookup(ctx, cfg.ProviderID())
	if err != nil {
		return nil, err
	}

	lister, ok := adapter.(provider.DynamicLister)
	if !ok || !adapter.Provider().SupportsDynamicModels {
		return adapter.Models(), nil
	}

	list, err := lister.ListModels(ctx, cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: provider %s: %w", ErrDiscovery, cfg.ProviderID(), err)
	}
	return list, nil
}

func (r *Router) lookup(ctx context.Context, key string) (models.TextModelConfig, error) {
	cfg, ok, err := r.models.GetModel(ctx, key)
	if err != nil {
		return models.TextModelConfig{}, err
	}
	if !ok {
		return models.TextModelConfig{}, fmt.Errorf("%w: %s", ErrUnknownModel, key)
	}
	return cfg, nil
}

func cloneOptions(options map[string]any) map[string]any {
	if len(options) == 0 {
		return nil
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = v
	}
	return out
}
