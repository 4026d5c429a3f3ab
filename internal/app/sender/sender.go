package sender

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/service/conversation"

	"go.uber.org/zap"
)

// Completer — конвейер обращения к провайдеру (internal/ai.Gateway).
type Completer interface {
	Complete(ctx context.Context, req ai.Request) ai.Result
}

// ImageGenerator — клиент генерации изображений (internal/adapter/images).
type ImageGenerator interface {
	Generate(ctx context.Context, apiKey string, directive string) (string, error)
}

// Params — параметры одного действия «отправить». Снимаются с настроек UI
// в момент отправки и дальше не меняются.
type Params struct {
	ConversationID string
	Provider       string
	Model          string
	APIKey         string // ключ выбранного провайдера
	ImageAPIKey    string // ключ OpenAI: генерация изображений всегда идёт через него
	SystemPrompt   string
	PrefixPrompt   string
	Temperature    float64
	Text           string
	Attachment     []byte // одноразовое вложение; вызывающий сбрасывает его после Send
}

// Sender проводит действие «отправить» от пользовательского ввода до
// финальной реплики. Каждая ветка завершается ровно одной новой репликой
// в диалоге, зафиксированном на старте; повторов нет.
type Sender struct {
	store     *conversation.Store
	completer Completer
	images    ImageGenerator
	logger    *zap.SugaredLogger

	generating atomic.Bool // индикатор «генерируется изображение»

	mu    sync.Mutex
	locks map[string]*sync.Mutex // сериализация отправок в пределах диалога
}

func New(store *conversation.Store, completer Completer, images ImageGenerator, logger *zap.SugaredLogger) *Sender {
	return &Sender{
		store:     store,
		completer: completer,
		images:    images,
		logger:    logger,
		locks:     map[string]*sync.Mutex{},
	}
}

// Send выполняет полный сценарий отправки. Возвращает false, если действие
// не состоялось (пустой ввод без вложения или неизвестный диалог); во всех
// остальных случаях диалог получает пользовательскую реплику и ровно одну
// завершающую. Ошибки конвейера не покидают метод.
func (s *Sender) Send(ctx context.Context, p Params) bool {
	if strings.TrimSpace(p.Text) == "" && len(p.Attachment) == 0 {
		return false
	}

	// Отправки в один диалог идут строго по очереди; разные диалоги независимы
	lock := s.convLock(p.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	// Оптимистичное добавление: пользовательская реплика видна до сетевого вызова
	userTurn := conversation.NewTurn(conversation.RoleUser, p.Text, conversation.KindText)
	if err := s.store.Append(p.ConversationID, userTurn); err != nil {
		s.logger.Warnw("Диалог не найден", "conversation", p.ConversationID, "error", err)
		return false
	}

	prompt := strings.Join([]string{p.SystemPrompt, p.PrefixPrompt, p.Text}, "\n\n")
	result := s.completer.Complete(ctx, ai.Request{
		Provider:    p.Provider,
		Model:       p.Model,
		APIKey:      p.APIKey,
		Prompt:      prompt,
		Temperature: p.Temperature,
		Attachment:  p.Attachment,
	})

	switch result.Kind {
	case ai.KindImage:
		s.resolveImage(ctx, p, result.Content)
	case ai.KindError:
		s.append(p.ConversationID, conversation.NewTurn(conversation.RoleSystem, result.Content, conversation.KindError))
	default:
		s.append(p.ConversationID, conversation.NewTurn(conversation.RoleAssistant, result.Content, conversation.KindText))
	}
	return true
}

// Generating сообщает, идёт ли сейчас генерация изображения.
func (s *Sender) Generating() bool { return s.generating.Load() }

// resolveImage выполняет ветку генерации изображения: индикатор на время
// вызова, затем реплика-изображение либо реплика-ошибка.
func (s *Sender) resolveImage(ctx context.Context, p Params, directive string) {
	s.generating.Store(true)
	defer s.generating.Store(false)

	url, err := s.images.Generate(ctx, p.ImageAPIKey, directive)
	if err != nil {
		s.logger.Warnw("Генерация изображения не удалась", "error", err)
		s.append(p.ConversationID, conversation.NewTurn(conversation.RoleSystem, err.Error(), conversation.KindError))
		return
	}
	s.append(p.ConversationID, conversation.NewTurn(conversation.RoleAssistant, url, conversation.KindImage))
}

func (s *Sender) append(conversationID string, turn conversation.Turn) {
	if err := s.store.Append(conversationID, turn); err != nil {
		// Диалог удалили, пока шёл сетевой вызов; реплику девать некуда
		s.logger.Warnw("Не удалось добавить реплику", "conversation", conversationID, "error", err)
	}
}

func (s *Sender) convLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
