package factory

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"llmconf/internal/provider"
	claudeProvider "llmconf/internal/provider/claude"
	compatibleProvider "llmconf/internal/provider/compatible"
	geminiProvider "llmconf/internal/provider/gemini"
	openaiProvider "llmconf/internal/provider/openai"
)

const (
	defaultHTTPTimeout     = 30 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// NewRegistry returns a registry holding every built-in adapter.
func NewRegistry() (*provider.Registry, error) {
	registry := provider.NewRegistry()
	if err := RegisterBuiltinAdapters(registry, newHTTPClient(defaultHTTPTimeout)); err != nil {
		return nil, err
	}
	return registry, nil
}

// RegisterBuiltinAdapters constructs the built-in adapters and stores them in the registry.
func RegisterBuiltinAdapters(registry *provider.Registry, client *http.Client) error {
	if registry == nil {
		return errors.New("registry must not be nil")
	}
	if client == nil {
		return errors.New("http client must not be nil")
	}

	openAIAdapter, err := openaiProvider.New(client)
	if err != nil {
		return fmt.Errorf("initialise openai adapter: %w", err)
	}
	if err := registry.Register(openAIAdapter); err != nil {
		return fmt.Errorf("register openai adapter: %w", err)
	}

	if err := registry.Register(claudeProvider.New()); err != nil {
		return fmt.Errorf("register anthropic adapter: %w", err)
	}

	if err := registry.Register(geminiProvider.New()); err != nil {
		return fmt.Errorf("register gemini adapter: %w", err)
	}

	for _, vendor := range compatibleProvider.Vendors() {
		adapter, err := compatibleProvider.New(vendor, client)
		if err != nil {
			return fmt.Errorf("initialise %s adapter: %w", vendor.ID, err)
		}
		if err := registry.Register(adapter); err != nil {
			return fmt.Errorf("register %s adapter: %w", vendor.ID, err)
		}
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
