package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/app/sender"
	"MultiProviderChat/internal/config"
	"MultiProviderChat/internal/service/conversation"
	"MultiProviderChat/internal/service/tts"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TurnSender — оркестратор действия «отправить» (internal/app/sender).
type TurnSender interface {
	Send(ctx context.Context, p sender.Params) bool
	Generating() bool
}

// Server — HTTP/WebSocket поверхность для UI: отправка реплик, настройки
// провайдера и ключей, управление списком диалогов, озвучка.
// Сам ничего не решает — вся логика в sender и store.
type Server struct {
	cfg    config.APIServerConfig
	store  *conversation.Store
	sender TurnSender
	speech tts.Synthesizer // nil, если озвучка выключена
	logger *zap.SugaredLogger

	srv      *http.Server
	upgrader websocket.Upgrader
	running  atomic.Bool

	// Настройки, которыми владеет UI: текущий провайдер/модель/температура,
	// ключи и одноразовое вложение следующей отправки.
	mu           sync.Mutex
	provider     string
	model        string
	temperature  float64
	systemPrompt string
	prefixPrompt string
	keys         map[string]string
	attachment   []byte
}

func NewServer(cfg *config.Config, store *conversation.Store, ts TurnSender, speech tts.Synthesizer, logger *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:          cfg.APIServer,
		store:        store,
		sender:       ts,
		speech:       speech,
		logger:       logger,
		provider:     cfg.Provider,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
		prefixPrompt: cfg.PrefixPrompt,
		keys:         cfg.Keys.Map(),
	}
	if s.cfg.BindAddr == "" {
		s.cfg.BindAddr = "127.0.0.1:8080"
	}
	if _, ok := ai.Lookup(s.provider); !ok {
		s.provider = ai.Names()[0]
	}
	// Модель всегда выводится из каталога, если не задана явно
	if s.model == "" {
		s.model, _ = ai.DefaultModel(s.provider)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/conversations", s.handleConversations)
	mux.HandleFunc("/api/conversations/rename", s.handleRename)
	mux.HandleFunc("/api/conversations/delete", s.handleDelete)
	mux.HandleFunc("/api/keys", s.handleKeys)
	mux.HandleFunc("/api/provider", s.handleProvider)
	mux.HandleFunc("/api/model", s.handleModel)
	mux.HandleFunc("/api/temperature", s.handleTemperature)
	mux.HandleFunc("/api/prompts", s.handlePrompts)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/attachment", s.handleAttachment)
	mux.HandleFunc("/api/send", s.handleSend)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/speak", s.handleSpeak)
	mux.HandleFunc("/ws", s.handleWS)

	s.srv = &http.Server{
		Addr:              s.cfg.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		s.logger.Infow("API server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("API server stopped with error", "error", err)
		} else {
			s.logger.Infow("API server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("api server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *Server) Addr() string { return s.cfg.BindAddr }
