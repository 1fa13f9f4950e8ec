// Package hostenv seeds provider credentials from the process environment
// into the stored model map.
package hostenv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog"

	"llmconf/internal/catalog"
	"llmconf/internal/converter"
	"llmconf/internal/models"
	"llmconf/internal/storage"
)

var errNothingToSync = errors.New("nothing to sync")

// Vars are the host-provided connection values.
type Vars struct {
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey   string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	DeepSeekAPIKey    string `env:"DEEPSEEK_API_KEY"`
	SiliconFlowAPIKey string `env:"SILICONFLOW_API_KEY"`
	ZhipuAPIKey       string `env:"ZHIPU_API_KEY"`
	CustomAPIKey      string `env:"CUSTOM_API_KEY"`
	CustomBaseURL     string `env:"CUSTOM_API_BASE_URL"`
	CustomModel       string `env:"CUSTOM_API_MODEL"`
}

type connValues struct {
	apiKey  string
	baseURL string
	model   string
}

// Load reads Vars from the process environment.
func Load() (Vars, error) {
	var v Vars
	if err := env.Parse(&v); err != nil {
		return Vars{}, fmt.Errorf("parse host environment: %w", err)
	}
	return v, nil
}

// LoadFrom reads Vars from the given environment map.
func LoadFrom(environ map[string]string) (Vars, error) {
	var v Vars
	if err := env.ParseWithOptions(&v, env.Options{Environment: environ}); err != nil {
		return Vars{}, fmt.Errorf("parse host environment: %w", err)
	}
	return v, nil
}

func (v Vars) byKey() map[string]connValues {
	out := make(map[string]connValues)
	add := func(key string, c connValues) {
		if c != (connValues{}) {
			out[key] = c
		}
	}
	add("openai", connValues{apiKey: v.OpenAIAPIKey})
	add("anthropic", connValues{apiKey: v.AnthropicAPIKey})
	add("gemini", connValues{apiKey: v.GeminiAPIKey})
	add("deepseek", connValues{apiKey: v.DeepSeekAPIKey})
	add("siliconflow", connValues{apiKey: v.SiliconFlowAPIKey})
	add("zhipu", connValues{apiKey: v.ZhipuAPIKey})
	add("custom", connValues{apiKey: v.CustomAPIKey, baseURL: v.CustomBaseURL, model: v.CustomModel})
	return out
}

// Syncer fills empty connection fields of built-in entries from Vars.
// Values the user already stored are never overwritten.
type Syncer struct {
	vars Vars
	log  zerolog.Logger
}

// NewSyncer constructs a Syncer.
func NewSyncer(vars Vars, log zerolog.Logger) *Syncer {
	return &Syncer{vars: vars, log: log.With().Str("component", "hostenv").Logger()}
}

// Sync applies the host values to the map stored under key in one update.
// Legacy and unreadable data is left for the manager to reconcile.
func (s *Syncer) Sync(ctx context.Context, store storage.Store, key string) error {
	values := s.vars.byKey()
	if len(values) == 0 {
		return nil
	}

	var synced []string
	err := store.UpdateData(ctx, key, func(current string, exists bool) (string, error) {
		synced = synced[:0]
		stored := make(map[string]json.RawMessage)
		if exists {
			if err := json.Unmarshal([]byte(current), &stored); err != nil || stored == nil {
				return "", errNothingToSync
			}
		}

		for modelKey, v := range values {
			entry := converter.Classify(stored[modelKey])

			var cfg models.TextModelConfig
			switch {
			case !entry.Present():
				def, ok := catalog.Default(modelKey)
				if !ok {
					continue
				}
				cfg = def
			case entry.Shape == converter.ShapeText:
				cfg = entry.Text.Clone()
			default:
				continue
			}

			if !apply(&cfg, v) {
				continue
			}
			data, err := json.Marshal(cfg)
			if err != nil {
				return "", fmt.Errorf("encode model %s: %w", modelKey, err)
			}
			stored[modelKey] = data
			synced = append(synced, modelKey)
		}

		if len(synced) == 0 {
			return "", errNothingToSync
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("encode models: %w", err)
		}
		return string(data), nil
	})
	if errors.Is(err, errNothingToSync) {
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info().Strs("models", synced).Msg("seeded connection values from host environment")
	return nil
}

func apply(cfg *models.TextModelConfig, v connValues) bool {
	changed := false
	if cfg.ConnectionConfig == nil {
		cfg.ConnectionConfig = models.ConnectionConfig{}
	}

	if v.apiKey != "" && cfg.ConnectionConfig.APIKey() == "" {
		cfg.ConnectionConfig[models.ConnAPIKey] = v.apiKey
		changed = true
	}

	if v.baseURL != "" {
		current := cfg.ConnectionConfig.BaseURL()
		providerDefault := ""
		if cfg.ProviderMeta != nil {
			providerDefault = cfg.ProviderMeta.DefaultBaseURL
		}
		if current == "" || current == providerDefault {
			if current != v.baseURL {
				cfg.ConnectionConfig[models.ConnBaseURL] = v.baseURL
				changed = true
			}
		}
	}

	if v.model != "" && cfg.ModelMeta != nil && cfg.ModelMeta.ID != v.model {
		if def, ok := catalog.Default(cfg.ID); ok && def.ModelMeta != nil && def.ModelMeta.ID == cfg.ModelMeta.ID {
			cfg.ModelMeta.ID = v.model
			cfg.ModelMeta.Name = v.model
			changed = true
		}
	}
	return changed
}
