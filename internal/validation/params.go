package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"llmconf/internal/models"
)

// ParamError describes one offending parameter override.
type ParamError struct {
	Name    string
	Message string
}

func (e ParamError) String() string {
	return fmt.Sprintf("Parameter %s: %s", e.Name, e.Message)
}

// ValidateParams checks overrides against defs. Unknown names are accepted
// as custom parameters unless strict is set. Errors are ordered by name.
func ValidateParams(overrides map[string]any, defs []models.ParameterDefinition, strict bool) []ParamError {
	if len(overrides) == 0 {
		return nil
	}

	known := models.TextModel{ParameterDefinitions: defs}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []ParamError
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ParamError{Name: strconv.Quote(name), Message: "name must not be empty"})
			continue
		}

		def, ok := known.FindParameter(name)
		if !ok {
			if strict {
				errs = append(errs, ParamError{Name: name, Message: "unknown parameter"})
			}
			continue
		}

		if msg := checkValue(def, overrides[name]); msg != "" {
			errs = append(errs, ParamError{Name: name, Message: msg})
		}
	}
	return errs
}

func checkValue(def models.ParameterDefinition, value any) string {
	switch def.Type {
	case models.ParamNumber, models.ParamInteger:
		f, ok := toFloat(value)
		if !ok {
			return "must be a number"
		}
		if def.Type == models.ParamInteger && f != math.Trunc(f) {
			return "must be an integer"
		}
		if def.Min != nil && f < *def.Min {
			return fmt.Sprintf("must be >= %s", formatFloat(*def.Min))
		}
		if def.Max != nil && f > *def.Max {
			return fmt.Sprintf("must be <= %s", formatFloat(*def.Max))
		}
	case models.ParamString:
		if _, ok := value.(string); !ok {
			return "must be a string"
		}
	case models.ParamBoolean:
		if _, ok := value.(bool); !ok {
			return "must be a boolean"
		}
	}
	return ""
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
