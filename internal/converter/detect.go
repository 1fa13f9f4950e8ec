package converter

import (
	"bytes"
	"encoding/json"
	"errors"

	"llmconf/internal/models"
)

// Shape is the detected schema version of a stored entry.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeText
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Entry is a stored configuration classified once at the storage boundary.
type Entry struct {
	Shape  Shape
	Text   *models.TextModelConfig
	Legacy *models.LegacyConfig
	// EnabledSet reports whether the raw entry carried an "enabled" field.
	EnabledSet bool
	Raw        json.RawMessage
}

// Present reports whether the entry holds a value. JSON null counts as absent.
func (e Entry) Present() bool {
	trimmed := bytes.TrimSpace(e.Raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Classify decodes raw and detects its shape structurally.
func Classify(raw json.RawMessage) Entry {
	entry := Entry{Shape: ShapeUnknown, Raw: raw}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return entry
	}
	_, entry.EnabledSet = obj["enabled"].(bool)

	switch {
	case IsTextModelConfig(obj):
		var cfg models.TextModelConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return entry
		}
		entry.Shape = ShapeText
		entry.Text = &cfg
	case IsLegacyConfig(obj):
		var legacy models.LegacyConfig
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return entry
		}
		entry.Shape = ShapeLegacy
		entry.Legacy = &legacy
	}
	return entry
}

// IsTextModelConfig reports whether obj carries the structured metadata blocks.
func IsTextModelConfig(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	_, hasProvider := obj["providerMeta"].(map[string]any)
	_, hasModel := obj["modelMeta"].(map[string]any)
	return hasProvider && hasModel
}

// IsLegacyConfig reports whether obj has the flat legacy layout.
func IsLegacyConfig(obj map[string]any) bool {
	if obj == nil || IsTextModelConfig(obj) {
		return false
	}
	_, hasBaseURL := obj["baseURL"].(string)
	_, hasDefaultModel := obj["defaultModel"].(string)
	return hasBaseURL && hasDefaultModel
}

// decodeLenient fills as many legacy fields from raw as type-check.
func decodeLenient(raw json.RawMessage) models.LegacyConfig {
	var legacy models.LegacyConfig
	if err := json.Unmarshal(raw, &legacy); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return models.LegacyConfig{}
		}
	}
	return legacy
}

// Upgrade returns the entry in the structured shape without persisting it.
// Unknown shapes are converted best effort from whatever legacy fields decode.
func (e Entry) Upgrade(key string) models.TextModelConfig {
	switch e.Shape {
	case ShapeText:
		return e.Text.Clone().Normalize()
	case ShapeLegacy:
		return ConvertLegacy(key, *e.Legacy)
	default:
		return ConvertLegacy(key, decodeLenient(e.Raw))
	}
}
