package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"MultiProviderChat/internal/adapter/completion"
	"MultiProviderChat/internal/adapter/images"
	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/app/sender"
	"MultiProviderChat/internal/config"
	"MultiProviderChat/internal/service/conversation"

	"go.uber.org/zap"
)

// Консольный чат: один диалог, ввод строками, ответы и ошибки печатаются
// по мере добавления в хранилище.
func main() {
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	store := conversation.NewStore()
	gateway := ai.NewGateway(completion.New(sugar), sugar)
	snd := sender.New(store, gateway, images.New(sugar), sugar)

	conversationID, _ := store.IDAt(0)
	model := cfg.Model
	if model == "" {
		model, _ = ai.DefaultModel(cfg.Provider)
	}

	events := store.Subscribe()
	defer store.Unsubscribe(events)
	go func() {
		for ev := range events {
			if ev.Turn.Role == conversation.RoleUser {
				continue
			}
			fmt.Printf("[%s/%s] %s\n", ev.Turn.Role, ev.Turn.Kind, ev.Turn.Content)
		}
	}()

	ctx := context.Background()
	keys := cfg.Keys.Map()
	fmt.Printf("Чат с %s (%s). Пустая строка — выход.\n", cfg.Provider, model)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if text == "" {
			break
		}
		snd.Send(ctx, sender.Params{
			ConversationID: conversationID,
			Provider:       cfg.Provider,
			Model:          model,
			APIKey:         keys[cfg.Provider],
			ImageAPIKey:    keys["openai"],
			SystemPrompt:   cfg.SystemPrompt,
			PrefixPrompt:   cfg.PrefixPrompt,
			Temperature:    cfg.Temperature,
			Text:           text,
		})
	}
}
