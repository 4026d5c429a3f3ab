package ai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// classify переводит транспортный сбой в результат вида error.
// Не паникует и всегда возвращает готовое пользовательское сообщение.
func classify(provider string, status int, body []byte, err error) Result {
	// Сетевая ошибка без структурированного ответа (обрыв, таймаут)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "API call failed"
		}
		return Result{Kind: KindError, Content: msg}
	}

	// Отдельная формулировка для отвергнутого ключа: ключ есть, но он неверный.
	// Не совпадает с предполётной проверкой отсутствующего ключа.
	if status == http.StatusUnauthorized {
		return Result{
			Kind:    KindError,
			Content: fmt.Sprintf("Invalid %s API key. Please check your API key in the configuration panel.", strings.ToUpper(provider)),
		}
	}

	// Провайдеры кладут своё сообщение в error.message
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
		return Result{Kind: KindError, Content: msg.String()}
	}
	return Result{Kind: KindError, Content: fmt.Sprintf("Request failed with status code %d", status)}
}

// missingKeyResult — предполётный отказ: ключ провайдера не задан,
// сетевой вызов не выполняется.
func missingKeyResult(provider string) Result {
	return Result{
		Kind:    KindError,
		Content: fmt.Sprintf("Please provide a valid %s API key in the configuration panel.", strings.ToUpper(provider)),
	}
}
