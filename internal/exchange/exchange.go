// Package exchange encodes and decodes model export documents as JSON or YAML.
// Documents are always a list of entries; YAML documents use the JSON field
// names so both formats import the same way.
package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"llmconf/internal/models"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat indicates an unknown document format name.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ParseFormat parses a format name. An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes cfgs to w.
func Encode(w io.Writer, format Format, cfgs []models.TextModelConfig) error {
	if cfgs == nil {
		cfgs = []models.TextModelConfig{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfgs); err != nil {
			return fmt.Errorf("encode json document: %w", err)
		}
		return nil
	case FormatYAML:
		// Round-trip through JSON so YAML keys match the JSON field names.
		data, err := json.Marshal(cfgs)
		if err != nil {
			return fmt.Errorf("encode yaml document: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode yaml document: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml document: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Decode returns data as JSON, ready for import. The payload shape is not
// checked here.
func Decode(data []byte, format Format) (json.RawMessage, error) {
	switch format {
	case FormatJSON:
		if !json.Valid(data) {
			return nil, errors.New("decode json document: invalid JSON")
		}
		return json.RawMessage(bytes.TrimSpace(data)), nil
	case FormatYAML:
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return nil, fmt.Errorf("decode yaml document: %w", err)
		}
		out, err := json.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("decode yaml document: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
