package models

import "strings"

// Connection config keys with dedicated accessors.
const (
	ConnAPIKey  = "apiKey"
	ConnBaseURL = "baseURL"
)

// ConnectionConfig holds connection settings. A nil map means the entry has
// no connection configuration at all; extra vendor keys are preserved.
type ConnectionConfig map[string]any

// APIKey returns the configured API key, if any.
func (c ConnectionConfig) APIKey() string {
	return c.stringValue(ConnAPIKey)
}

// BaseURL returns the configured base URL without a trailing slash.
func (c ConnectionConfig) BaseURL() string {
	return strings.TrimRight(c.stringValue(ConnBaseURL), "/")
}

func (c ConnectionConfig) stringValue(key string) string {
	if c == nil {
		return ""
	}
	s, _ := c[key].(string)
	return s
}

// Merge returns a copy of c with the keys of overlay applied on top.
func (c ConnectionConfig) Merge(overlay ConnectionConfig) ConnectionConfig {
	return ConnectionConfig(MergeMaps(c, overlay))
}

// MergeMaps shallow-merges overlay onto a deep copy of base. The result is
// never nil.
func MergeMaps(base, overlay map[string]any) map[string]any {
	out := CloneMap(base)
	if out == nil {
		out = make(map[string]any, len(overlay))
	}
	for k, v := range overlay {
		out[k] = CloneValue(v)
	}
	return out
}
