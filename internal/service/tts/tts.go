package tts

import "context"

// Synthesizer абстракция озвучки. Метод синтезирует и воспроизводит речь,
// контент не возвращает. apiKey передаётся на каждый вызов: ключ может
// смениться через конфигурационную панель в любой момент.
type Synthesizer interface {
	Speak(ctx context.Context, text string, apiKey string) error
}
