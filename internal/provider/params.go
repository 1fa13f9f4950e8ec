package provider

import "llmconf/internal/models"

// Bound is a helper for inline min/max values.
func Bound(v float64) *float64 {
	return &v
}

// NumberParam declares a floating point parameter with an optional range.
func NumberParam(name, description string, min, max *float64, def any) models.ParameterDefinition {
	return models.ParameterDefinition{
		Name:           name,
		Type:           models.ParamNumber,
		Description:    description,
		Default:        def,
		Min:            min,
		Max:            max,
		LabelKey:       "params." + name + ".label",
		DescriptionKey: "params." + name + ".description",
	}
}

// IntegerParam declares an integer parameter with an optional range.
func IntegerParam(name, description string, min, max *float64, def any) models.ParameterDefinition {
	p := NumberParam(name, description, min, max, def)
	p.Type = models.ParamInteger
	p.Step = Bound(1)
	return p
}

// BooleanParam declares a boolean parameter.
func BooleanParam(name, description string, def any) models.ParameterDefinition {
	return models.ParameterDefinition{
		Name:           name,
		Type:           models.ParamBoolean,
		Description:    description,
		Default:        def,
		LabelKey:       "params." + name + ".label",
		DescriptionKey: "params." + name + ".description",
	}
}

// ParameterDefaults collects the non-nil default values of defs.
func ParameterDefaults(defs []models.ParameterDefinition) map[string]any {
	out := make(map[string]any)
	for _, def := range defs {
		if def.Default != nil {
			out[def.Name] = def.Default
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
