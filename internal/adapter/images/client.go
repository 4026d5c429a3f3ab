package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const defaultEndpoint = "https://api.openai.com/v1/images/generations"

const maxResponseBody = 1 << 20

// Client выполняет генерацию изображения по готовой JSON-директиве.
// Директива отправляется на endpoint как есть, без переупаковки.
type Client struct {
	http     *http.Client
	endpoint string
	logger   *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Client {
	return &Client{http: http.DefaultClient, endpoint: defaultEndpoint, logger: logger}
}

// Generate выполняет один синхронный вызов и возвращает URL первого результата.
// Повторов нет: любой сбой возвращается ошибкой с сообщением сервера,
// если оно есть, иначе с описанием транспортной ошибки.
func (c *Client) Generate(ctx context.Context, apiKey string, directive string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", errors.New("image generation: empty API key")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(directive))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
			return "", errors.New(msg.String())
		}
		return "", fmt.Errorf("image generation failed: status %d", resp.StatusCode)
	}

	url := gjson.GetBytes(body, "data.0.url")
	if !url.Exists() || url.String() == "" {
		return "", errors.New("image generation response has no url")
	}
	c.logger.Infow("Изображение сгенерировано", "duration", time.Since(start).String())
	return url.String(), nil
}
