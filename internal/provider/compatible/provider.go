package compatible

import (
	"fmt"
	"net/http"

	"llmconf/internal/models"
	openaiProvider "llmconf/internal/provider/openai"
)

// Vendor describes an OpenAI-compatible vendor.
type Vendor struct {
	ID             string
	Name           string
	Description    string
	DefaultBaseURL string
	RequiresAPIKey bool
	Dynamic        bool
	Models         []openaiProvider.ModelSpec
}

// Vendors returns the built-in OpenAI-compatible vendors.
func Vendors() []Vendor {
	return []Vendor{
		{
			ID:             "deepseek",
			Name:           "DeepSeek",
			Description:    "DeepSeek chat and reasoning models",
			DefaultBaseURL: "https://api.deepseek.com/v1",
			RequiresAPIKey: true,
			Dynamic:        true,
			Models: []openaiProvider.ModelSpec{
				{ID: "deepseek-chat", Name: "DeepSeek Chat", Tools: true, Context: 64000},
				{ID: "deepseek-reasoner", Name: "DeepSeek Reasoner", Reasoning: true, Context: 64000},
			},
		},
		{
			ID:             "siliconflow",
			Name:           "SiliconFlow",
			Description:    "SiliconFlow hosted open models",
			DefaultBaseURL: "https://api.siliconflow.cn/v1",
			RequiresAPIKey: true,
			Dynamic:        true,
			Models: []openaiProvider.ModelSpec{
				{ID: "Qwen/Qwen3-8B", Name: "Qwen3-8B", Context: 8192},
			},
		},
		{
			ID:             "zhipu",
			Name:           "Zhipu AI",
			Description:    "Zhipu GLM models",
			DefaultBaseURL: "https://open.bigmodel.cn/api/paas/v4",
			RequiresAPIKey: true,
			Dynamic:        false,
			Models: []openaiProvider.ModelSpec{
				{ID: "glm-4-flash", Name: "GLM-4 Flash", Tools: true, Context: 128000},
			},
		},
		{
			ID:             "custom",
			Name:           "Custom",
			Description:    "Any OpenAI-compatible endpoint",
			RequiresAPIKey: false,
			Dynamic:        true,
		},
	}
}

// New builds an adapter for v that delegates to the OpenAI adapter.
func New(v Vendor, client *http.Client) (*openaiProvider.Adapter, error) {
	a, err := openaiProvider.NewWithOptions(openaiProvider.Options{
		Provider: models.TextProvider{
			ID:                    v.ID,
			Name:                  v.Name,
			Description:           v.Description,
			RequiresAPIKey:        v.RequiresAPIKey,
			DefaultBaseURL:        v.DefaultBaseURL,
			SupportsDynamicModels: v.Dynamic,
			ConnectionSchema:      openaiProvider.Connection("baseURL", "timeout"),
		},
		Models: v.Models,
	}, client)
	if err != nil {
		return nil, fmt.Errorf("vendor %s: %w", v.ID, err)
	}
	return a, nil
}
