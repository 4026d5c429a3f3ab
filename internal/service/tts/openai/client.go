package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"MultiProviderChat/internal/config"
	"MultiProviderChat/internal/service/tts/player"

	"go.uber.org/zap"
)

const endpoint = "https://api.openai.com/v1/audio/speech"

// Client синтезирует речь через OpenAI audio API и воспроизводит результат.
type Client struct {
	http     *http.Client
	player   player.Player
	cfg      config.TTSConfig
	logger   *zap.SugaredLogger
	speaking atomic.Bool
}

func New(p player.Player, cfg config.TTSConfig, logger *zap.SugaredLogger) *Client {
	if cfg.Model == "" {
		cfg.Model = "tts-1"
	}
	if cfg.Voice == "" {
		cfg.Voice = "alloy"
	}
	return &Client{http: http.DefaultClient, player: p, cfg: cfg, logger: logger}
}

// Speak синтезирует и проигрывает текст. Пока идёт воспроизведение,
// повторные вызовы молча пропускаются.
func (c *Client) Speak(ctx context.Context, text string, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("speech: empty OpenAI API key")
	}
	if !c.speaking.CompareAndSwap(false, true) {
		return nil
	}
	defer c.speaking.Store(false)

	body, err := json.Marshal(struct {
		Model string `json:"model"`
		Input string `json:"input"`
		Voice string `json:"voice"`
	}{
		Model: c.cfg.Model,
		Input: text,
		Voice: c.cfg.Voice,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("Speech generation failed")
	}

	c.logger.Infow("Воспроизведение речи", "model", c.cfg.Model, "voice", c.cfg.Voice)
	return c.player.Play("mp3", resp.Body)
}
