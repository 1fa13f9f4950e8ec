package validation

import (
	"llmconf/internal/catalog"
	apperrors "llmconf/internal/errors"
	"llmconf/internal/models"
)

// Validation problem messages.
const (
	MsgMissingID         = "Missing configuration id"
	MsgMissingName       = "Missing model name (name)"
	MsgInvalidProvider   = "Missing or invalid provider metadata (providerMeta)"
	MsgInvalidModel      = "Missing or invalid model metadata (modelMeta)"
	MsgMissingConnection = "Missing connection configuration (connectionConfig)"
	MsgParamsNotObject   = "paramOverrides must be an object"
)

// Option tunes ValidateTextModelConfig.
type Option func(*options)

type options struct {
	strictParams bool
}

// WithStrictParams rejects parameter overrides the model does not declare.
func WithStrictParams() Option {
	return func(o *options) {
		o.strictParams = true
	}
}

// Problems lists every rule cfg violates, in a stable order.
func Problems(cfg models.TextModelConfig, opts ...Option) []string {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var problems []string
	if cfg.ID == "" {
		problems = append(problems, MsgMissingID)
	}
	if cfg.Name == "" {
		problems = append(problems, MsgMissingName)
	}
	if cfg.ProviderMeta == nil || cfg.ProviderMeta.ID == "" {
		problems = append(problems, MsgInvalidProvider)
	}
	if cfg.ModelMeta == nil || cfg.ModelMeta.ID == "" {
		problems = append(problems, MsgInvalidModel)
	}
	if cfg.ConnectionConfig == nil {
		problems = append(problems, MsgMissingConnection)
	}

	normalized := cfg.Normalize()
	for _, pe := range ValidateParams(normalized.ParamOverrides, definitionsFor(cfg), o.strictParams) {
		problems = append(problems, pe.String())
	}
	return problems
}

// ValidateTextModelConfig returns a *errors.ConfigError aggregating every
// problem, or nil when cfg is valid.
func ValidateTextModelConfig(cfg models.TextModelConfig, opts ...Option) error {
	problems := Problems(cfg, opts...)
	if len(problems) == 0 {
		return nil
	}
	return apperrors.Invalid(problems)
}

func definitionsFor(cfg models.TextModelConfig) []models.ParameterDefinition {
	if cfg.ModelMeta != nil && len(cfg.ModelMeta.ParameterDefinitions) > 0 {
		return cfg.ModelMeta.ParameterDefinitions
	}
	return catalog.ParameterDefinitions(cfg.ProviderID())
}
