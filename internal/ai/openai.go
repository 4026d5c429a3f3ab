package ai

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	// Vision-модель: при наличии вложения запрос уходит по отдельной ветке
	openAIVisionModel = "gpt-4-vision-preview"
)

// OpenAI — чат-формат: messages со списком реплик.
type OpenAI struct{}

func (OpenAI) Name() string { return "openai" }

func (OpenAI) Models() []string {
	return []string{
		"gpt-4o",
		"gpt-4-turbo",
		"gpt-4",
		"gpt-3.5-turbo",
		"dall-e-3",
		"dall-e-2",
		openAIVisionModel,
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func (p OpenAI) BuildRequest(req Request) (*TransportRequest, error) {
	if req.Model == openAIVisionModel && len(req.Attachment) > 0 {
		// Vision-ветка: вложение уходит inline как data URL, температура не
		// передаётся, вместо неё фиксированный лимит токенов
		dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(req.Attachment))
		body := struct {
			Model     string          `json:"model"`
			Messages  []openAIMessage `json:"messages"`
			MaxTokens int             `json:"max_tokens"`
		}{
			Model: openAIVisionModel,
			Messages: []openAIMessage{{
				Role: "user",
				Content: []any{
					map[string]any{"type": "text", "text": req.Prompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			}},
			MaxTokens: maxOutputTokens,
		}
		return marshalRequest(openAIEndpoint, req.APIKey, body)
	}

	body := struct {
		Model       string          `json:"model"`
		Messages    []openAIMessage `json:"messages"`
		Temperature float64         `json:"temperature"`
	}{
		Model:       req.Model,
		Messages:    []openAIMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	}
	return marshalRequest(openAIEndpoint, req.APIKey, body)
}

func (OpenAI) Normalize(body []byte) (string, error) {
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", errUnexpectedEnvelope
	}
	return content.String(), nil
}
