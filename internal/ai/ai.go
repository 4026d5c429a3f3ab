package ai

import (
	"encoding/json"
)

// Kind вид результата обращения к провайдеру.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindError Kind = "error"
)

// Request — универсальный вход шлюза. Создаётся заново на каждое действие
// «отправить» и используется ровно один раз.
type Request struct {
	Provider    string
	Model       string
	APIKey      string  // ключ выбранного провайдера; пустой ключ отсекается до сетевого вызова
	Prompt      string  // уже склеенный промпт (системный + префикс + ввод)
	Temperature float64 // 0.0–1.0
	Attachment  []byte  // опциональный файл из UI; потребляется только vision-веткой
}

// Result — универсальный выход шлюза. Для Kind=image Content содержит
// JSON-директиву генерации, для Kind=error — сообщение для пользователя.
type Result struct {
	Kind    Kind
	Content string
}

// TransportRequest — провайдер-специфичный исходящий запрос:
// конечная точка, заголовки и готовое JSON-тело.
type TransportRequest struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Provider — один вариант закрытого набора текстовых провайдеров.
// Каждый вариант сам формирует свой запрос и извлекает текст из своего
// конверта ответа; добавление провайдера — это добавление варианта.
type Provider interface {
	Name() string
	// Models возвращает модели провайдера в порядке показа; первая — модель по умолчанию.
	Models() []string
	BuildRequest(req Request) (*TransportRequest, error)
	// Normalize извлекает единственное текстовое поле из успешного ответа.
	Normalize(body []byte) (string, error)
}

// Лимит выходных токенов для веток с фиксированным размером ответа
// (Anthropic, Cohere и vision-ветка OpenAI).
const maxOutputTokens = 300

// marshalRequest собирает TransportRequest с bearer-авторизацией.
// Никакая другая схема аутентификации провайдерами не поддерживается.
func marshalRequest(url, apiKey string, body any) (*TransportRequest, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &TransportRequest{
		URL: url,
		Headers: map[string]string{
			"Authorization": "Bearer " + apiKey,
			"Content-Type":  "application/json",
		},
		Body: raw,
	}, nil
}
