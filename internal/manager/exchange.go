package manager

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"llmconf/internal/converter"
	apperrors "llmconf/internal/errors"
	"llmconf/internal/models"
	"llmconf/internal/validation"
)

// ErrNotArray is the cause of an import whose payload is not a JSON array.
var ErrNotArray = errors.New("data must be an array of model configurations")

// ImportFailure records one skipped import item.
type ImportFailure struct {
	Index   int    `json:"index"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarises an import. Failures never fail the import itself.
type ImportResult struct {
	Total    int             `json:"total"`
	Added    int             `json:"added"`
	Updated  int             `json:"updated"`
	Failures []ImportFailure `json:"failures"`
}

// ExportData returns every configuration in the structured shape.
func (m *Manager) ExportData(ctx context.Context) ([]models.TextModelConfig, error) {
	all, err := m.GetAllModels(ctx)
	if err != nil {
		return nil, apperrors.WrapImportExport(err, DataType, "Failed to export model data")
	}
	return all, nil
}

// ImportData adds or updates every item of data independently. Only a payload
// that is not an array fails as a whole.
func (m *Manager) ImportData(ctx context.Context, data json.RawMessage) (ImportResult, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return ImportResult{}, apperrors.WrapImportExport(ErrNotArray, DataType, "Invalid model data format")
	}
	if err := m.EnsureInitialized(ctx); err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Total: len(items), Failures: []ImportFailure{}}
	for i, raw := range items {
		key, added, err := m.importItem(ctx, raw)
		if err != nil {
			m.log.Warn().Err(err).Int("index", i).Str("key", key).Msg("skipping model import")
			result.Failures = append(result.Failures, ImportFailure{Index: i, Key: key, Message: err.Error()})
			continue
		}
		if added {
			result.Added++
		} else {
			result.Updated++
		}
	}

	if len(result.Failures) > 0 {
		m.log.Warn().Int("failed", len(result.Failures)).Int("total", result.Total).Msg("model import finished with failures")
	} else {
		m.log.Info().Int("total", result.Total).Msg("model import finished")
	}
	return result, nil
}

// importItem stores one item and reports its key and whether it was new.
func (m *Manager) importItem(ctx context.Context, raw json.RawMessage) (string, bool, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return "", false, errors.New("item must be an object")
	}

	var (
		key string
		cfg models.TextModelConfig
	)
	_, enabledSet := obj["enabled"].(bool)

	if converter.IsTextModelConfig(obj) {
		key, _ = obj["id"].(string)
		if problems := validation.CheckImportShape(obj); len(problems) > 0 {
			return key, false, apperrors.Invalid(problems)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return key, false, apperrors.Invalid([]string{err.Error()})
		}
		cfg = cfg.Normalize()
	} else {
		key, _ = obj["key"].(string)
		if strings.TrimSpace(key) == "" {
			return "", false, errors.New("missing key field")
		}
		var legacy models.LegacyConfig
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return key, false, apperrors.Invalid([]string{err.Error()})
		}
		cfg = converter.ConvertLegacy(key, legacy)
	}

	existing, exists, err := m.GetModel(ctx, key)
	if err != nil {
		return key, false, err
	}
	if !exists {
		return key, true, m.AddModel(ctx, key, cfg)
	}

	enabled := cfg.Enabled
	if !enabledSet {
		enabled = existing.Enabled
	}
	return key, false, m.UpdateModel(ctx, key, patchFrom(cfg, enabled))
}

// ValidateData reports whether data is an array whose every item has a
// recognised shape.
func (m *Manager) ValidateData(data json.RawMessage) bool {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return false
	}
	for _, obj := range items {
		var problems []string
		if converter.IsTextModelConfig(obj) {
			problems = validation.CheckTextShape(obj)
		} else {
			problems = validation.CheckLegacyShape(obj)
		}
		if len(problems) > 0 {
			return false
		}
	}
	return true
}

func patchFrom(cfg models.TextModelConfig, enabled bool) models.Patch {
	return models.Patch{
		ID:               &cfg.ID,
		Name:             &cfg.Name,
		Enabled:          &enabled,
		ProviderMeta:     cfg.ProviderMeta,
		ModelMeta:        cfg.ModelMeta,
		ConnectionConfig: cfg.ConnectionConfig,
		ParamOverrides:   cfg.ParamOverrides,
	}
}
