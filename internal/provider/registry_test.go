package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmconf/internal/models"
)

type stubAdapter struct {
	id     string
	models []models.TextModel
}

func (s stubAdapter) Provider() models.TextProvider {
	return models.TextProvider{ID: s.id, Name: s.id}
}

func (s stubAdapter) Models() []models.TextModel {
	return s.models
}

func (s stubAdapter) BuildDefaultModel(modelID string) models.TextModel {
	return models.TextModel{ID: modelID, Name: "default", ProviderID: s.id}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{id: "acme"}))

	a, err := r.Lookup(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", a.Provider().ID)

	_, err = r.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{id: "acme"}))

	assert.ErrorIs(t, r.Register(stubAdapter{id: "acme"}), ErrDuplicateProvider)
	assert.Error(t, r.Register(stubAdapter{}))
	assert.Error(t, r.Register(nil))
}

func TestRegistry_LookupCancelled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{id: "acme"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Lookup(ctx, "acme")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry_LookupModel(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{
		id:     "acme",
		models: []models.TextModel{{ID: "m1", Name: "Model One", ProviderID: "acme"}},
	}))

	p, m, err := r.LookupModel(context.Background(), "acme", "m1")
	require.NoError(t, err)
	assert.Equal(t, "acme", p.ID)
	assert.Equal(t, "Model One", m.Name)

	_, m, err = r.LookupModel(context.Background(), "acme", "m2")
	require.NoError(t, err)
	assert.Equal(t, "m2", m.ID)
	assert.Equal(t, "default", m.Name)
}

func TestRegistry_ProvidersSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubAdapter{id: "zeta"}))
	require.NoError(t, r.Register(stubAdapter{id: "alpha"}))

	providers := r.Providers()
	require.Len(t, providers, 2)
	assert.Equal(t, "alpha", providers[0].ID)
	assert.Equal(t, "zeta", providers[1].ID)
}

func TestParameterDefaults(t *testing.T) {
	defs := []models.ParameterDefinition{
		NumberParam("temperature", "Sampling temperature", Bound(0), Bound(2), 1.0),
		IntegerParam("max_tokens", "Maximum number of tokens to generate", Bound(1), nil, nil),
		BooleanParam("stream", "Stream partial responses", false),
	}
	assert.Equal(t, map[string]any{"temperature": 1.0, "stream": false}, ParameterDefaults(defs))
	assert.Equal(t, models.ParamInteger, defs[1].Type)
	assert.Nil(t, ParameterDefaults(nil))
}
