package completion

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"MultiProviderChat/internal/ai"

	"go.uber.org/zap"
)

// Лимит на чтение тела ответа: конверты провайдеров маленькие,
// мегабайта хватает с запасом.
const maxResponseBody = 1 << 20

// Client выполняет собранные провайдерами HTTP-запросы.
// Своих таймаутов не навязывает, действуют дефолты транспорта.
type Client struct {
	http   *http.Client
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Client {
	return &Client{http: http.DefaultClient, logger: logger}
}

// Do отправляет запрос и возвращает статус и тело как есть.
// Ошибка возвращается только для сбоя транспорта; HTTP-статусы ошибок
// отдаются вызывающему на классификацию вместе с телом.
func (c *Client) Do(ctx context.Context, req *ai.TransportRequest) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return 0, nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Errorw("Ошибка запроса к провайдеру", "url", req.URL, "error", err)
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	c.logger.Infow("Ответ провайдера получен",
		"url", req.URL,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)
	return resp.StatusCode, body, nil
}
