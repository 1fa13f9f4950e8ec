package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"llmconf/internal/models"
)

// ErrUnknownProvider indicates the requested provider is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// ErrDuplicateProvider indicates an attempt to register the same provider twice.
var ErrDuplicateProvider = errors.New("provider already registered")

// ErrUnsupportedOperation indicates the adapter cannot fulfill the requested action.
var ErrUnsupportedOperation = errors.New("unsupported provider operation")

// Adapter exposes the static metadata of an LLM vendor.
type Adapter interface {
	Provider() models.TextProvider
	Models() []models.TextModel
	BuildDefaultModel(modelID string) models.TextModel
}

// DynamicLister is implemented by adapters that can query the vendor for its
// current model list.
type DynamicLister interface {
	ListModels(ctx context.Context, conn models.ConnectionConfig) ([]models.TextModel, error)
}

// Registry maintains a mapping of provider IDs to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry constructs an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds the adapter under its provider id.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return errors.New("adapter must not be nil")
	}

	id := a.Provider().ID
	if id == "" {
		return errors.New("adapter provider id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, id)
	}
	r.adapters[id] = a
	return nil
}

// Lookup returns the adapter registered for providerID.
func (r *Registry) Lookup(ctx context.Context, providerID string) (Adapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerID)
	}
	return a, nil
}

// Providers returns the metadata of every registered provider, sorted by id.
func (r *Registry) Providers() []models.TextProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.TextProvider, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Provider())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupModel returns the provider and model metadata for modelID, falling
// back to the adapter's default model when the id is not in its static list.
func (r *Registry) LookupModel(ctx context.Context, providerID, modelID string) (models.TextProvider, models.TextModel, error) {
	a, err := r.Lookup(ctx, providerID)
	if err != nil {
		return models.TextProvider{}, models.TextModel{}, err
	}
	return a.Provider(), FindModel(a, modelID), nil
}

// FindModel returns the static model with modelID or the adapter's default.
func FindModel(a Adapter, modelID string) models.TextModel {
	for _, m := range a.Models() {
		if m.ID == modelID {
			return m
		}
	}
	return a.BuildDefaultModel(modelID)
}
