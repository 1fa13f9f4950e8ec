// Package manager owns the persisted model configuration map: it reconciles
// stored entries with the compiled-in defaults, upgrades legacy entries and
// validates every mutation before it is written.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llmconf/internal/catalog"
	"llmconf/internal/converter"
	apperrors "llmconf/internal/errors"
	"llmconf/internal/logger"
	"llmconf/internal/models"
	"llmconf/internal/storage"
	"llmconf/internal/validation"
)

const (
	// StorageKey is the store key holding the model map.
	StorageKey = "models"
	// DataType names the data set in import/export errors.
	DataType = "models"

	defaultRegistryTimeout = 3 * time.Second
)

var errUnchanged = errors.New("unchanged")

// HostSyncer copies host-provided connection values into the store before
// the manager reads it.
type HostSyncer interface {
	Sync(ctx context.Context, store storage.Store, key string) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithRegistry enables registry-backed legacy conversion.
func WithRegistry(r converter.Registry) Option {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithRegistryTimeout bounds each registry-backed conversion.
func WithRegistryTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.registryTimeout = d
		}
	}
}

// WithHostSyncer runs h before the first read of the store.
func WithHostSyncer(h HostSyncer) Option {
	return func(m *Manager) {
		m.host = h
	}
}

// WithStorageKey overrides StorageKey.
func WithStorageKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithStrictParams rejects parameter overrides the entry's model does not
// declare.
func WithStrictParams() Option {
	return func(m *Manager) {
		m.validateOpts = append(m.validateOpts, validation.WithStrictParams())
	}
}

// Manager is the model configuration manager. Initialization starts on
// construction; every public method waits for it.
type Manager struct {
	store           storage.Store
	registry        converter.Registry
	host            HostSyncer
	key             string
	registryTimeout time.Duration
	validateOpts    []validation.Option
	log             zerolog.Logger

	initOnce sync.Once
	done     chan struct{}
}

// New constructs a manager over store and starts initialization.
func New(store storage.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}

	m := &Manager{
		store:           store,
		key:             StorageKey,
		registryTimeout: defaultRegistryTimeout,
		log:             logger.Component("model-manager"),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.start()
	return m, nil
}

func (m *Manager) start() {
	m.initOnce.Do(func() {
		go func() {
			defer close(m.done)
			m.initialize(context.Background())
		}()
	})
}

// EnsureInitialized blocks until initialization has finished or ctx ends.
func (m *Manager) EnsureInitialized(ctx context.Context) error {
	m.start()
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsInitialized reports whether a model map has been persisted.
func (m *Manager) IsInitialized(ctx context.Context) (bool, error) {
	if err := m.EnsureInitialized(ctx); err != nil {
		return false, err
	}
	_, ok, err := m.store.GetItem(ctx, m.key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", m.key, err)
	}
	return ok, nil
}

// DataType returns the import/export data set name.
func (m *Manager) DataType() string {
	return DataType
}

// GetAllModels returns every configuration sorted by key. Legacy entries are
// upgraded in the result only.
func (m *Manager) GetAllModels(ctx context.Context) ([]models.TextModelConfig, error) {
	if err := m.EnsureInitialized(ctx); err != nil {
		return nil, err
	}

	stored, err := m.read(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.TextModelConfig, 0, len(stored))
	for _, key := range sortedKeys(stored) {
		entry := converter.Classify(stored[key])
		if !entry.Present() {
			continue
		}
		out = append(out, entry.Upgrade(key))
	}
	return out, nil
}

// GetModel returns the configuration stored under key.
func (m *Manager) GetModel(ctx context.Context, key string) (models.TextModelConfig, bool, error) {
	if err := m.EnsureInitialized(ctx); err != nil {
		return models.TextModelConfig{}, false, err
	}

	stored, err := m.read(ctx)
	if err != nil {
		return models.TextModelConfig{}, false, err
	}

	entry := converter.Classify(stored[key])
	if !entry.Present() {
		return models.TextModelConfig{}, false, nil
	}
	return entry.Upgrade(key), true, nil
}

// GetEnabledModels returns the enabled configurations sorted by key.
func (m *Manager) GetEnabledModels(ctx context.Context) ([]models.TextModelConfig, error) {
	all, err := m.GetAllModels(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make([]models.TextModelConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	return enabled, nil
}

// AddModel validates cfg and stores it under key. The key must be new.
func (m *Manager) AddModel(ctx context.Context, key string, cfg models.TextModelConfig) error {
	if err := m.EnsureInitialized(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return apperrors.Invalid([]string{"Missing model key"})
	}
	if err := m.validate(cfg); err != nil {
		return err
	}

	cfg = cfg.Clone().Normalize()
	err := m.mutate(ctx, func(stored map[string]json.RawMessage) error {
		if converter.Classify(stored[key]).Present() {
			return apperrors.Duplicate(key)
		}
		return put(stored, key, cfg)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("key", key).Msg("model added")
	return nil
}

// UpdateModel applies patch to the entry under key. A built-in key that is
// not stored yet is seeded from its default. connectionConfig and
// paramOverrides are merged key by key; a null value removes the key.
func (m *Manager) UpdateModel(ctx context.Context, key string, patch models.Patch) error {
	if err := m.EnsureInitialized(ctx); err != nil {
		return err
	}

	err := m.mutate(ctx, func(stored map[string]json.RawMessage) error {
		base, err := m.current(ctx, stored, key, apperrors.NotFound)
		if err != nil {
			return err
		}

		next := applyPatch(base, patch)
		if patch.Significant() {
			if err := m.validate(next); err != nil {
				return err
			}
		}
		return put(stored, key, next)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("key", key).Msg("model updated")
	return nil
}

// DeleteModel removes the entry under key.
func (m *Manager) DeleteModel(ctx context.Context, key string) error {
	if err := m.EnsureInitialized(ctx); err != nil {
		return err
	}

	err := m.mutate(ctx, func(stored map[string]json.RawMessage) error {
		if !converter.Classify(stored[key]).Present() {
			return apperrors.NotFound(key)
		}
		delete(stored, key)
		return nil
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("key", key).Msg("model deleted")
	return nil
}

// EnableModel validates and enables the entry under key.
func (m *Manager) EnableModel(ctx context.Context, key string) error {
	return m.setEnabled(ctx, key, true)
}

// DisableModel disables the entry under key without validating it.
func (m *Manager) DisableModel(ctx context.Context, key string) error {
	return m.setEnabled(ctx, key, false)
}

func (m *Manager) setEnabled(ctx context.Context, key string, enabled bool) error {
	if err := m.EnsureInitialized(ctx); err != nil {
		return err
	}

	err := m.mutate(ctx, func(stored map[string]json.RawMessage) error {
		cfg, err := m.current(ctx, stored, key, apperrors.Unknown)
		if err != nil {
			return err
		}

		cfg.Enabled = enabled
		if enabled {
			if err := m.validate(cfg); err != nil {
				return err
			}
		}
		return put(stored, key, cfg)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("key", key).Bool("enabled", enabled).Msg("model toggled")
	return nil
}

// current returns the entry under key in the structured shape, seeding
// built-in keys from their default. Legacy entries go through the registry.
func (m *Manager) current(ctx context.Context, stored map[string]json.RawMessage, key string, missing func(string) *apperrors.ConfigError) (models.TextModelConfig, error) {
	entry := converter.Classify(stored[key])
	if entry.Present() {
		if entry.Shape == converter.ShapeLegacy {
			return m.convertLegacy(ctx, key, *entry.Legacy), nil
		}
		return entry.Upgrade(key), nil
	}

	if !catalog.IsDefault(key) {
		return models.TextModelConfig{}, missing(key)
	}
	def, _ := catalog.Default(key)
	return def, nil
}

func (m *Manager) validate(cfg models.TextModelConfig) error {
	return validation.ValidateTextModelConfig(cfg, m.validateOpts...)
}

// read returns the stored map, or the defaults when nothing usable is stored.
func (m *Manager) read(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, ok, err := m.store.GetItem(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.key, err)
	}
	return m.decode(raw, ok), nil
}

func (m *Manager) decode(raw string, exists bool) map[string]json.RawMessage {
	if exists {
		var stored map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &stored); err == nil && stored != nil {
			return stored
		}
		m.log.Warn().Str("key", m.key).Msg("stored models are unreadable, using defaults")
	}
	return encodeDefaults()
}

// mutate runs fn over the stored map inside one atomic store update.
func (m *Manager) mutate(ctx context.Context, fn func(stored map[string]json.RawMessage) error) error {
	return m.store.UpdateData(ctx, m.key, func(current string, exists bool) (string, error) {
		stored := m.decode(current, exists)
		if err := fn(stored); err != nil {
			return "", err
		}
		data, err := json.Marshal(stored)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", m.key, err)
		}
		return string(data), nil
	})
}

func (m *Manager) convertLegacy(ctx context.Context, key string, legacy models.LegacyConfig) models.TextModelConfig {
	if m.registry != nil {
		rctx, cancel := context.WithTimeout(ctx, m.registryTimeout)
		defer cancel()

		cfg, err := converter.ConvertLegacyWithRegistry(rctx, key, legacy, m.registry)
		if err == nil {
			return cfg
		}
		m.log.Warn().Err(err).Str("key", key).Msg("registry conversion failed, using static conversion")
	}
	return converter.ConvertLegacy(key, legacy)
}

func applyPatch(base models.TextModelConfig, p models.Patch) models.TextModelConfig {
	out := base.Clone()
	if p.ID != nil {
		out.ID = *p.ID
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.ProviderMeta != nil {
		out.ProviderMeta = p.ProviderMeta.Clone()
	}
	if p.ModelMeta != nil {
		out.ModelMeta = p.ModelMeta.Clone()
	}
	if p.ConnectionConfig != nil {
		out.ConnectionConfig = models.ConnectionConfig(mergeDropNull(base.ConnectionConfig, p.ConnectionConfig))
	}
	if p.ParamOverrides != nil {
		out.ParamOverrides = mergeDropNull(base.ParamOverrides, p.ParamOverrides)
	}
	return out
}

func mergeDropNull(base, overlay map[string]any) map[string]any {
	out := models.MergeMaps(base, overlay)
	for k, v := range overlay {
		if v == nil {
			delete(out, k)
		}
	}
	return out
}

func put(stored map[string]json.RawMessage, key string, cfg models.TextModelConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode model %s: %w", key, err)
	}
	stored[key] = data
	return nil
}

func encodeDefaults() map[string]json.RawMessage {
	defaults := catalog.Defaults()
	out := make(map[string]json.RawMessage, len(defaults))
	for key, cfg := range defaults {
		// Defaults are plain data and always encode.
		_ = put(out, key, cfg)
	}
	return out
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
