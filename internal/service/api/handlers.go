package api

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"

	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/app/sender"
)

// Лимит вложения: UI шлёт картинки, десятка мегабайт достаточно.
const maxAttachmentSize = 10 << 20

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, ai.Catalog())
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.List())
	case http.MethodPost:
		writeJSON(w, http.StatusCreated, s.store.New())
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Index int    `json:"index"`
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, ok := s.store.IDAt(req.Index)
	if !ok {
		http.Error(w, "conversation index out of range", http.StatusNotFound)
		return
	}
	if err := s.store.Rename(id, req.Title); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, ok := s.store.IDAt(req.Index)
	if !ok {
		http.Error(w, "conversation index out of range", http.StatusNotFound)
		return
	}
	if err := s.store.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Provider string `json:"provider"`
		Key      string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := ai.Lookup(req.Provider); !ok {
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.keys[req.Provider] = req.Key
	s.mu.Unlock()
	// Само значение ключа в лог не попадает
	s.logger.Infow("Ключ провайдера обновлён", "provider", req.Provider)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProvider(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Provider string `json:"provider"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	model, ok := ai.DefaultModel(req.Provider)
	if !ok {
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return
	}
	// Смена провайдера всегда заново выводит модель из каталога:
	// модель прежнего провайдера не должна пережить переключение
	s.mu.Lock()
	s.provider = req.Provider
	s.model = model
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"provider": req.Provider, "model": model})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Model string `json:"model"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	provider := s.provider
	s.mu.Unlock()
	p, _ := ai.Lookup(provider)
	if !slices.Contains(p.Models(), req.Model) {
		http.Error(w, "model not in current provider catalog", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.model = req.Model
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Value float64 `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	// Допустимы значения 0.0–1.0 с шагом 0.1
	scaled := req.Value * 10
	if req.Value < 0 || req.Value > 1 || math.Abs(scaled-math.Round(scaled)) > 1e-9 {
		http.Error(w, "temperature must be between 0.0 and 1.0 in steps of 0.1", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.temperature = req.Value
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrompts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		SystemPrompt *string `json:"system_prompt"`
		PrefixPrompt *string `json:"prefix_prompt"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	if req.SystemPrompt != nil {
		s.systemPrompt = *req.SystemPrompt
	}
	if req.PrefixPrompt != nil {
		s.prefixPrompt = *req.PrefixPrompt
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	resp := struct {
		Provider    string  `json:"provider"`
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Attachment  bool    `json:"attachment"`
	}{s.provider, s.model, s.temperature, len(s.attachment) > 0}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAttachmentSize+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	if len(data) > maxAttachmentSize {
		http.Error(w, "attachment too large", http.StatusRequestEntityTooLarge)
		return
	}
	s.mu.Lock()
	s.attachment = data
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Conversation int    `json:"conversation"`
		Text         string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	// Адресат фиксируется на старте отправки: смена активного диалога в UI
	// после этого момента на результат не влияет
	conversationID, ok := s.store.IDAt(req.Conversation)
	if !ok {
		http.Error(w, "conversation index out of range", http.StatusNotFound)
		return
	}

	// Снимок настроек и одноразовое вложение
	s.mu.Lock()
	params := sender.Params{
		ConversationID: conversationID,
		Provider:       s.provider,
		Model:          s.model,
		APIKey:         s.keys[s.provider],
		ImageAPIKey:    s.keys["openai"],
		SystemPrompt:   s.systemPrompt,
		PrefixPrompt:   s.prefixPrompt,
		Temperature:    s.temperature,
		Text:           req.Text,
		Attachment:     s.attachment,
	}
	s.attachment = nil
	s.mu.Unlock()

	if strings.TrimSpace(params.Text) == "" && len(params.Attachment) == 0 {
		writeJSON(w, http.StatusOK, map[string]bool{"accepted": false})
		return
	}

	// Пользовательская реплика появится через WebSocket раньше, чем завершится
	// сетевой вызов; сам HTTP-запрос не ждёт завершения конвейера
	go s.sender.Send(context.WithoutCancel(r.Context()), params)
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"generating": s.sender.Generating()})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.speech == nil {
		http.Error(w, "speech synthesis is disabled", http.StatusNotImplemented)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.mu.Lock()
	apiKey := s.keys["openai"]
	s.mu.Unlock()

	go func() {
		if err := s.speech.Speak(context.WithoutCancel(r.Context()), req.Text, apiKey); err != nil {
			s.logger.Warnw("Озвучка не удалась", "error", err)
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

// handleWS транслирует новые реплики подписчику до разрыва соединения.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}
	events := s.store.Subscribe()
	defer s.store.Unsubscribe(events)
	defer conn.Close()

	// Читающая горутина нужна только чтобы заметить закрытие со стороны клиента
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
