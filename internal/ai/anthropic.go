package ai

import "github.com/tidwall/gjson"

const anthropicEndpoint = "https://api.anthropic.com/v1/complete"

// Anthropic — completion-формат: сырой промпт без списка сообщений.
type Anthropic struct{}

func (Anthropic) Name() string { return "anthropic" }

func (Anthropic) Models() []string {
	return []string{
		"claude-3.5-sonnet-20241022",
		"claude-3.5-haiku-20241022",
		"claude-3-opus-20240229",
		"claude-3-sonnet-20240229",
		"claude-3-haiku-20240307",
	}
}

func (Anthropic) BuildRequest(req Request) (*TransportRequest, error) {
	body := struct {
		Prompt            string  `json:"prompt"`
		Model             string  `json:"model"`
		MaxTokensToSample int     `json:"max_tokens_to_sample"`
		Temperature       float64 `json:"temperature"`
	}{
		Prompt:            req.Prompt,
		Model:             req.Model,
		MaxTokensToSample: maxOutputTokens,
		Temperature:       req.Temperature,
	}
	return marshalRequest(anthropicEndpoint, req.APIKey, body)
}

func (Anthropic) Normalize(body []byte) (string, error) {
	completion := gjson.GetBytes(body, "completion")
	if !completion.Exists() {
		return "", errUnexpectedEnvelope
	}
	return completion.String(), nil
}
