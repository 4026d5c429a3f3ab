package ai

import "errors"

// errUnexpectedEnvelope — конверт успешного ответа не содержит ожидаемого поля.
var errUnexpectedEnvelope = errors.New("unexpected response envelope")

// registry — закрытый набор провайдеров в фиксированном порядке.
// Порядок определяет показ в UI и провайдера по умолчанию.
var registry = []Provider{OpenAI{}, Anthropic{}, Cohere{}}

// Lookup возвращает провайдера по идентификатору.
func Lookup(name string) (Provider, bool) {
	for _, p := range registry {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Names возвращает идентификаторы провайдеров в порядке каталога.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, p := range registry {
		names = append(names, p.Name())
	}
	return names
}

// CatalogEntry — провайдер и его модели для отдачи в UI.
type CatalogEntry struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
}

// Catalog возвращает полный каталог «провайдер → модели».
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(registry))
	for _, p := range registry {
		entries = append(entries, CatalogEntry{Provider: p.Name(), Models: p.Models()})
	}
	return entries
}

// DefaultModel возвращает первую модель провайдера из каталога.
// Смена провайдера обязана заново выводить модель через эту функцию.
func DefaultModel(provider string) (string, bool) {
	p, ok := Lookup(provider)
	if !ok {
		return "", false
	}
	models := p.Models()
	if len(models) == 0 {
		return "", false
	}
	return models[0], true
}
