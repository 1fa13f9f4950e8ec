package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmconf/internal/catalog"
	"llmconf/internal/models"
	"llmconf/internal/provider"
	claudeProvider "llmconf/internal/provider/claude"
	openaiProvider "llmconf/internal/provider/openai"
)

type mapSource map[string]models.TextModelConfig

func (m mapSource) GetModel(_ context.Context, key string) (models.TextModelConfig, bool, error) {
	cfg, ok := m[key]
	return cfg, ok, nil
}

func enabledDefault(t *testing.T, key string) models.TextModelConfig {
	t.Helper()
	cfg, ok := catalog.Default(key)
	require.True(t, ok)
	cfg.Enabled = true
	return cfg
}

func TestResolve(t *testing.T) {
	openai := enabledDefault(t, "openai")
	openai.ConnectionConfig["apiKey"] = "sk-abcdef123456"
	openai.ConnectionConfig["organization"] = "org-1"
	openai.ParamOverrides = map[string]any{"temperature": 0.2, "max_tokens": 512.0}

	custom := enabledDefault(t, "custom")
	custom.ConnectionConfig["baseURL"] = ""

	src := mapSource{
		"openai":   openai,
		"custom":   custom,
		"disabled": func() models.TextModelConfig { c, _ := catalog.Default("gemini"); return c }(),
	}
	r := New(src, nil)

	target, err := r.Resolve(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", target.ProviderID)
	assert.Equal(t, "gpt-4o-mini", target.ModelID)
	assert.Equal(t, openaiProvider.DefaultBaseURL, target.BaseURL)
	assert.Equal(t, "sk-abcdef123456", target.APIKey)
	assert.Equal(t, 0.2, target.Params["temperature"])
	assert.Equal(t, 1.0, target.Params["top_p"])
	assert.Equal(t, 512.0, target.Params["max_tokens"])
	assert.Equal(t, map[string]any{"organization": "org-1"}, target.Extra)
	assert.Equal(t, "sk-...3456", target.Masked().APIKey)

	target, err = r.Resolve(context.Background(), "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", target.ProviderID)
	assert.Nil(t, target.Extra)

	_, err = r.Resolve(context.Background(), "disabled")
	assert.ErrorIs(t, err, ErrModelDisabled)

	_, err = r.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "*****", MaskKey("short"))
	assert.Equal(t, "sk-...wxyz", MaskKey("sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "********", MaskKey("abcdefgh"))
	assert.Equal(t, "abc...fghi", MaskKey("abcdefghi"))
}

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"}]}`))
	}))
	defer srv.Close()

	registry := provider.NewRegistry()
	openaiAdapter, err := openaiProvider.New(srv.Client())
	require.NoError(t, err)
	require.NoError(t, registry.Register(openaiAdapter))
	require.NoError(t, registry.Register(claudeProvider.New()))

	openai := enabledDefault(t, "openai")
	openai.ConnectionConfig["baseURL"] = srv.URL + "/v1"
	src := mapSource{
		"openai":    openai,
		"anthropic": enabledDefault(t, "anthropic"),
		"gemini":    enabledDefault(t, "gemini"),
	}
	r := New(src, registry)

	list, err := r.Discover(context.Background(), "openai")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gpt-4o", list[0].ID)

	list, err = r.Discover(context.Background(), "anthropic")
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	_, err = r.Discover(context.Background(), "gemini")
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)

	_, err = New(src, nil).Discover(context.Background(), "openai")
	assert.ErrorIs(t, err, provider.ErrUnsupportedOperation)
}

func TestDiscover_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	registry := provider.NewRegistry()
	openaiAdapter, err := openaiProvider.New(srv.Client())
	require.NoError(t, err)
	require.NoError(t, registry.Register(openaiAdapter))

	openai := enabledDefault(t, "openai")
	openai.ConnectionConfig["baseURL"] = srv.URL + "/v1"

	_, err = New(mapSource{"openai": openai}, registry).Discover(context.Background(), "openai")
	assert.ErrorIs(t, err, ErrDiscovery)
}
