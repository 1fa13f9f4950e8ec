package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmconf/internal/models"
	"llmconf/internal/provider"
)

func TestNew_StaticMetadata(t *testing.T) {
	a, err := New(&http.Client{})
	require.NoError(t, err)

	p := a.Provider()
	assert.Equal(t, ProviderID, p.ID)
	assert.Equal(t, DefaultBaseURL, p.DefaultBaseURL)
	assert.Equal(t, []string{"apiKey"}, p.ConnectionSchema.Required)
	assert.Equal(t, []string{"baseURL", "organization", "timeout"}, p.ConnectionSchema.Optional)

	list := a.Models()
	require.Len(t, list, 6)
	assert.Equal(t, map[string]any{
		"temperature":       1.0,
		"top_p":             1.0,
		"presence_penalty":  0.0,
		"frequency_penalty": 0.0,
	}, list[0].DefaultParameterValues)
}

func TestModels_ReturnsCopies(t *testing.T) {
	a, err := New(&http.Client{})
	require.NoError(t, err)

	list := a.Models()
	list[0].Name = "mutated"
	list[0].ParameterDefinitions[0].Name = "mutated"

	again := a.Models()
	assert.Equal(t, "GPT-4o", again[0].Name)
	assert.Equal(t, "temperature", again[0].ParameterDefinitions[0].Name)
}

func TestNewWithOptions_Errors(t *testing.T) {
	_, err := NewWithOptions(Options{Provider: models.TextProvider{ID: "x"}}, nil)
	assert.Error(t, err)

	_, err = NewWithOptions(Options{}, &http.Client{})
	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"ft:custom","object":"model"}]}`))
	}))
	defer srv.Close()

	a, err := New(srv.Client())
	require.NoError(t, err)

	list, err := a.ListModels(context.Background(), models.ConnectionConfig{
		"apiKey":  "sk-test",
		"baseURL": srv.URL + "/v1",
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "GPT-4o", list[0].Name)
	assert.Equal(t, "ft:custom", list[1].ID)
	assert.Equal(t, ProviderID, list[1].ProviderID)
}

func TestListModels_Unsupported(t *testing.T) {
	a, err := NewWithOptions(Options{Provider: models.TextProvider{ID: "static"}}, &http.Client{})
	require.NoError(t, err)

	_, err = a.ListModels(context.Background(), nil)
	assert.ErrorIs(t, err, provider.ErrUnsupportedOperation)
}
