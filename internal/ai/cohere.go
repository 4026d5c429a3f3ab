package ai

import "github.com/tidwall/gjson"

const cohereEndpoint = "https://api.cohere.ai/v1/generate"

// Cohere — generate-формат: промпт и список генераций в ответе.
type Cohere struct{}

func (Cohere) Name() string { return "cohere" }

func (Cohere) Models() []string {
	return []string{
		"command-r-plus-04-2024",
		"command-r-08-2024",
		"command",
		"command-light",
		"command-nightly",
	}
}

func (Cohere) BuildRequest(req Request) (*TransportRequest, error) {
	body := struct {
		Prompt      string  `json:"prompt"`
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}{
		Prompt:      req.Prompt,
		Model:       req.Model,
		MaxTokens:   maxOutputTokens,
		Temperature: req.Temperature,
	}
	return marshalRequest(cohereEndpoint, req.APIKey, body)
}

func (Cohere) Normalize(body []byte) (string, error) {
	text := gjson.GetBytes(body, "generations.0.text")
	if !text.Exists() {
		return "", errUnexpectedEnvelope
	}
	return text.String(), nil
}
