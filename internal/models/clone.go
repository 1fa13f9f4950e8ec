package models

// CloneValue deep-copies JSON-like values (maps, slices, scalars).
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case ConnectionConfig:
		return ConnectionConfig(CloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// CloneMap deep-copies m, preserving nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Clone returns a deep copy of the provider.
func (p *TextProvider) Clone() *TextProvider {
	if p == nil {
		return nil
	}
	out := *p
	if p.ConnectionSchema != nil {
		schema := ConnectionSchema{
			Required: append([]string(nil), p.ConnectionSchema.Required...),
			Optional: append([]string(nil), p.ConnectionSchema.Optional...),
		}
		if p.ConnectionSchema.FieldTypes != nil {
			schema.FieldTypes = make(map[string]string, len(p.ConnectionSchema.FieldTypes))
			for k, v := range p.ConnectionSchema.FieldTypes {
				schema.FieldTypes[k] = v
			}
		}
		out.ConnectionSchema = &schema
	}
	return &out
}

// Clone returns a deep copy of the model.
func (m *TextModel) Clone() *TextModel {
	if m == nil {
		return nil
	}
	out := *m
	if m.ParameterDefinitions != nil {
		out.ParameterDefinitions = make([]ParameterDefinition, len(m.ParameterDefinitions))
		for i, def := range m.ParameterDefinitions {
			def.Default = CloneValue(def.Default)
			def.Min = cloneFloat(def.Min)
			def.Max = cloneFloat(def.Max)
			def.Step = cloneFloat(def.Step)
			out.ParameterDefinitions[i] = def
		}
	}
	out.DefaultParameterValues = CloneMap(m.DefaultParameterValues)
	return &out
}

// Clone returns a deep copy of the configuration.
func (c TextModelConfig) Clone() TextModelConfig {
	out := c
	out.ProviderMeta = c.ProviderMeta.Clone()
	out.ModelMeta = c.ModelMeta.Clone()
	if c.ConnectionConfig != nil {
		out.ConnectionConfig = ConnectionConfig(CloneMap(c.ConnectionConfig))
	}
	out.ParamOverrides = CloneMap(c.ParamOverrides)
	out.CustomParamOverrides = CloneMap(c.CustomParamOverrides)
	return out
}

// Normalize folds the deprecated CustomParamOverrides into ParamOverrides.
// Keys already present in ParamOverrides win.
func (c TextModelConfig) Normalize() TextModelConfig {
	if len(c.CustomParamOverrides) == 0 {
		c.CustomParamOverrides = nil
		return c
	}
	merged := CloneMap(c.CustomParamOverrides)
	for k, v := range c.ParamOverrides {
		merged[k] = CloneValue(v)
	}
	c.ParamOverrides = merged
	c.CustomParamOverrides = nil
	return c
}
