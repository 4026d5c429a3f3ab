package config

import (
	"flag"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode    bool    `env:"DEBUG_MODE"`    // Режим дебага
	SystemPrompt string  `env:"SYSTEM_PROMPT"` // Системный промпт, подставляется первым в каждый запрос
	PrefixPrompt string  `env:"PREFIX_PROMPT"` // Пользовательский промпт-префикс, вставляется между системным промптом и вводом
	Provider     string  `env:"PROVIDER"`      // Провайдер по умолчанию: openai|anthropic|cohere
	Model        string  `env:"MODEL"`         // Модель по умолчанию; пусто — первая модель провайдера из каталога
	Temperature  float64 `env:"TEMPERATURE"`   // Температура сэмплирования 0.0–1.0

	// APIServer — HTTP/WebSocket поверхность для UI
	APIServer APIServerConfig

	// Keys — ключи провайдеров; пустой ключ означает, что провайдер недоступен
	Keys KeysConfig

	// TTS — озвучка ответов через OpenAI audio API
	TTS TTSConfig
}

// APIServerConfig конфигурация HTTP-сервера для UI.
type APIServerConfig struct {
	BindAddr string `env:"API_BIND_ADDR"` // Адрес слушателя, напр. 127.0.0.1:8080
}

// KeysConfig ключи провайдеров. Ключи читаются из .env/ENV и никогда не логируются.
type KeysConfig struct {
	OpenAI    string `env:"OPENAI_API_KEY"`
	Anthropic string `env:"ANTHROPIC_API_KEY"`
	Cohere    string `env:"COHERE_API_KEY"`
}

// Map возвращает ключи в виде отображения «провайдер → ключ».
func (k KeysConfig) Map() map[string]string {
	return map[string]string{
		"openai":    k.OpenAI,
		"anthropic": k.Anthropic,
		"cohere":    k.Cohere,
	}
}

// TTSConfig конфигурация синтеза речи.
type TTSConfig struct {
	Enabled bool   `env:"TTS_ENABLED"` // Озвучивать ли ответы по запросу UI
	Model   string `env:"TTS_MODEL"`   // Модель синтеза, по умолчанию tts-1
	Voice   string `env:"TTS_VOICE"`   // Голос, по умолчанию alloy
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:    false,
		SystemPrompt: "You are a helpful AI assistant.",
		PrefixPrompt: "",
		Provider:     "openai",
		Model:        "", // пусто — первая модель провайдера
		Temperature:  0.7,
		APIServer: APIServerConfig{
			BindAddr: "127.0.0.1:8080",
		},
		TTS: TTSConfig{
			Enabled: true,
			Model:   "tts-1",
			Voice:   "alloy",
		},
	}
}

// NewConfig загружает конфигурацию приложения.
func NewConfig() *Config {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	_ = env.Parse(cfg)

	flag.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	flag.StringVar(&cfg.SystemPrompt, "system-prompt", cfg.SystemPrompt, "системный промпт для каждого запроса")
	flag.StringVar(&cfg.PrefixPrompt, "prefix-prompt", cfg.PrefixPrompt, "промпт-префикс между системным промптом и вводом пользователя")
	flag.StringVar(&cfg.Provider, "provider", cfg.Provider, "провайдер по умолчанию: openai|anthropic|cohere")
	flag.StringVar(&cfg.Model, "model", cfg.Model, "модель по умолчанию; пусто — первая модель провайдера")
	flag.Float64Var(&cfg.Temperature, "temperature", cfg.Temperature, "температура сэмплирования, 0.0–1.0")
	flag.StringVar(&cfg.APIServer.BindAddr, "api-bind-addr", cfg.APIServer.BindAddr, "адрес API сервера (напр. 127.0.0.1:8080)")
	flag.BoolVar(&cfg.TTS.Enabled, "tts-enabled", cfg.TTS.Enabled, "включить озвучку ответов (OpenAI audio API)")
	flag.StringVar(&cfg.TTS.Model, "tts-model", cfg.TTS.Model, "модель синтеза речи (напр. tts-1)")
	flag.StringVar(&cfg.TTS.Voice, "tts-voice", cfg.TTS.Voice, "голос синтеза речи (напр. alloy)")
	flag.Parse()

	// Температура вне диапазона — ошибка конфигурации, приводим к ближайшей границе
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.Temperature > 1 {
		cfg.Temperature = 1
	}

	return cfg
}
