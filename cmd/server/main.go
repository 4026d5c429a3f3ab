package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MultiProviderChat/internal/adapter/completion"
	"MultiProviderChat/internal/adapter/images"
	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/app/sender"
	"MultiProviderChat/internal/config"
	"MultiProviderChat/internal/service/api"
	"MultiProviderChat/internal/service/conversation"
	"MultiProviderChat/internal/service/tts"
	ttsopenai "MultiProviderChat/internal/service/tts/openai"
	"MultiProviderChat/internal/service/tts/player"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	sugar.Infow("Starting app",
		"DebugMode", cfg.DebugMode,
		"Provider", cfg.Provider,
		"BindAddr", cfg.APIServer.BindAddr,
	)

	store := conversation.NewStore()
	gateway := ai.NewGateway(completion.New(sugar), sugar)
	snd := sender.New(store, gateway, images.New(sugar), sugar)

	// Озвучка опциональна: без неё сервер просто отвечает 501 на /api/speak
	var speech tts.Synthesizer
	if cfg.TTS.Enabled {
		speech = ttsopenai.New(player.New(), cfg.TTS, sugar)
	}

	srv := api.NewServer(cfg, store, snd, speech, sugar)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		sugar.Errorw("failed to start API server", "error", err)
		return
	}

	// Graceful shutdown on Ctrl+C / SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	if err := srv.Stop(context.Background()); err != nil {
		sugar.Warnw("shutdown error", "error", err)
	}
	sugar.Infow("server stopped")
}
