package validation

import (
	"fmt"
	"strings"
)

// CheckTextShape checks the JSON types of a structured entry before it is
// decoded. It returns one message per offending field.
func CheckTextShape(obj map[string]any) []string {
	return checkTextShape(obj, true)
}

// CheckImportShape is CheckTextShape for imported entries, which may omit
// "enabled" to keep the stored flag.
func CheckImportShape(obj map[string]any) []string {
	return checkTextShape(obj, false)
}

func checkTextShape(obj map[string]any, requireEnabled bool) []string {
	if obj == nil {
		return []string{"entry must be an object"}
	}

	var problems []string
	problems = appendTyped(problems, obj, "id", isString, "string")
	problems = appendTyped(problems, obj, "name", isString, "string")
	if _, ok := obj["enabled"]; ok || requireEnabled {
		problems = appendTyped(problems, obj, "enabled", isBool, "boolean")
	}
	problems = appendTyped(problems, obj, "providerMeta", isObject, "object")
	problems = appendTyped(problems, obj, "modelMeta", isObject, "object")
	problems = appendTyped(problems, obj, "connectionConfig", isObject, "object")
	if v, ok := obj["paramOverrides"]; ok && v != nil && !isObject(v) {
		problems = append(problems, MsgParamsNotObject)
	}
	return problems
}

// CheckLegacyShape checks the JSON types of a legacy entry that carries its
// own storage key.
func CheckLegacyShape(obj map[string]any) []string {
	if obj == nil {
		return []string{"entry must be an object"}
	}

	var problems []string
	for _, field := range []string{"key", "name", "baseURL", "defaultModel", "provider"} {
		problems = appendTyped(problems, obj, field, isString, "string")
	}
	problems = appendTyped(problems, obj, "enabled", isBool, "boolean")
	if key, ok := obj["key"].(string); ok && strings.TrimSpace(key) == "" {
		problems = append(problems, "key must not be empty")
	}
	return problems
}

func appendTyped(problems []string, obj map[string]any, field string, check func(any) bool, kind string) []string {
	v, ok := obj[field]
	if !ok {
		return append(problems, fmt.Sprintf("missing field %s", field))
	}
	if !check(v) {
		return append(problems, fmt.Sprintf("field %s must be of type %s", field, kind))
	}
	return problems
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}
