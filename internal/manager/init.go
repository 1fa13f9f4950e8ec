package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"llmconf/internal/catalog"
	"llmconf/internal/converter"
	"llmconf/internal/models"
)

// initialize reconciles the stored map with the defaults. It never fails:
// any unrecoverable error falls back to persisting the default set.
func (m *Manager) initialize(ctx context.Context) {
	if m.host != nil {
		if err := m.host.Sync(ctx, m.store, m.key); err != nil {
			m.log.Warn().Err(err).Msg("host environment sync failed")
		}
	}

	err := m.store.UpdateData(ctx, m.key, func(current string, exists bool) (string, error) {
		next, changed, err := m.reconcile(ctx, current, exists)
		if err != nil {
			return "", err
		}
		if !changed {
			return "", errUnchanged
		}
		return next, nil
	})
	switch {
	case err == nil:
		m.log.Info().Msg("model configuration initialized")
		return
	case errors.Is(err, errUnchanged):
		m.log.Debug().Msg("model configuration up to date")
		return
	}

	m.log.Error().Err(err).Msg("model initialization failed, writing defaults")
	data, encErr := json.Marshal(encodeDefaults())
	if encErr != nil {
		m.log.Error().Err(encErr).Msg("encode defaults")
		return
	}
	if setErr := m.store.SetItem(ctx, m.key, string(data)); setErr != nil {
		m.log.Error().Err(setErr).Msg("persist defaults")
	}
}

// reconcile returns the next persisted map and whether it differs from the
// current one.
func (m *Manager) reconcile(ctx context.Context, current string, exists bool) (string, bool, error) {
	if !exists {
		m.log.Info().Msg("no stored models, seeding defaults")
		data, err := json.Marshal(encodeDefaults())
		return string(data), true, err
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal([]byte(current), &stored); err != nil || stored == nil {
		m.log.Warn().Err(err).Msg("stored models are unreadable, replacing with defaults")
		data, err := json.Marshal(encodeDefaults())
		return string(data), true, err
	}

	defaults := catalog.Defaults()
	changed := false
	for _, key := range catalog.Keys() {
		def := defaults[key]
		entry := converter.Classify(stored[key])

		var (
			next     models.TextModelConfig
			previous []byte
		)
		switch {
		case !entry.Present():
			m.log.Info().Str("key", key).Msg("adding missing default model")
			next = def
		case entry.Shape == converter.ShapeText:
			next = mergeWithDefault(def, *entry.Text, entry.EnabledSet)
			previous, _ = json.Marshal(entry.Text)
		case entry.Shape == converter.ShapeLegacy:
			m.log.Info().Str("key", key).Msg("converting legacy model configuration")
			next = m.convertLegacy(ctx, key, *entry.Legacy)
		default:
			m.log.Warn().Str("key", key).Msg("unrecognised model configuration, restoring default")
			next = def
		}

		encoded, err := json.Marshal(next)
		if err != nil {
			return "", false, fmt.Errorf("encode model %s: %w", key, err)
		}
		if previous != nil && bytes.Equal(previous, encoded) {
			continue
		}
		stored[key] = encoded
		changed = true
	}

	if !changed {
		return current, false, nil
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", false, fmt.Errorf("encode models: %w", err)
	}
	return string(data), true, nil
}

// mergeWithDefault refreshes a stored built-in from its default while keeping
// the user's enabled flag, connection values and parameter overrides.
func mergeWithDefault(def, stored models.TextModelConfig, enabledSet bool) models.TextModelConfig {
	out := def.Clone()
	if enabledSet {
		out.Enabled = stored.Enabled
	}
	out.ConnectionConfig = def.ConnectionConfig.Merge(stored.ConnectionConfig)
	out.ParamOverrides = models.MergeMaps(def.ParamOverrides, stored.Normalize().ParamOverrides)
	return out
}
