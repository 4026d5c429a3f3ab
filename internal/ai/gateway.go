package ai

import (
	"context"
	"fmt"
	"strings"

	"MultiProviderChat/internal/service/imagereq"

	"go.uber.org/zap"
)

// Transport выполняет собранный провайдером запрос.
// Реализация — internal/adapter/completion.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (status int, body []byte, err error)
}

// Gateway — диспетчер «универсальный запрос → провайдер → нормализованный результат».
type Gateway struct {
	transport Transport
	logger    *zap.SugaredLogger
}

func NewGateway(transport Transport, logger *zap.SugaredLogger) *Gateway {
	return &Gateway{transport: transport, logger: logger}
}

// Complete выполняет полный конвейер одного обращения: предполётные проверки,
// сборка запроса, транспорт, классификация ошибки либо нормализация ответа и
// поиск встроенной директивы изображения. Любой сбой превращается в Result
// вида error; метод никогда не возвращает ошибок и не паникует.
func (g *Gateway) Complete(ctx context.Context, req Request) Result {
	provider, ok := Lookup(req.Provider)
	if !ok {
		return Result{Kind: KindError, Content: fmt.Sprintf("Unsupported provider: %s", req.Provider)}
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return missingKeyResult(req.Provider)
	}

	treq, err := provider.BuildRequest(req)
	if err != nil {
		g.logger.Errorw("Не удалось собрать запрос провайдера", "provider", req.Provider, "error", err)
		return Result{Kind: KindError, Content: err.Error()}
	}

	status, body, err := g.transport.Do(ctx, treq)
	if err != nil || status < 200 || status >= 300 {
		return classify(req.Provider, status, body, err)
	}

	text, err := provider.Normalize(body)
	if err != nil {
		g.logger.Warnw("Неожиданный конверт ответа", "provider", req.Provider, "error", err)
		return Result{Kind: KindError, Content: "Unknown error occurred"}
	}

	// Ответ может содержать встроенную директиву генерации изображения;
	// некорректная директива — видимая ошибка, а не откат к тексту
	directive, found, err := imagereq.Extract(text)
	if err != nil {
		return Result{Kind: KindError, Content: err.Error()}
	}
	if found {
		return Result{Kind: KindImage, Content: directive}
	}
	return Result{Kind: KindText, Content: text}
}
