package sender

import (
	"context"
	"errors"
	"testing"

	"MultiProviderChat/internal/ai"
	"MultiProviderChat/internal/service/conversation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCompleter struct {
	result     ai.Result
	calls      int
	lastPrompt string
	// generatingDuringComplete проверяется из теста индикатора
	onComplete func()
}

func (s *stubCompleter) Complete(_ context.Context, req ai.Request) ai.Result {
	s.calls++
	s.lastPrompt = req.Prompt
	if s.onComplete != nil {
		s.onComplete()
	}
	return s.result
}

type stubImages struct {
	url      string
	err      error
	calls    int
	lastKey  string
	lastBody string
	observed func(generating bool)
}

func (s *stubImages) Generate(_ context.Context, apiKey string, directive string) (string, error) {
	s.calls++
	s.lastKey = apiKey
	s.lastBody = directive
	if s.observed != nil {
		s.observed(true)
	}
	return s.url, s.err
}

func newTestSender(completer Completer, images ImageGenerator) (*Sender, *conversation.Store, string) {
	store := conversation.NewStore()
	id, _ := store.IDAt(0)
	return New(store, completer, images, zap.NewNop().Sugar()), store, id
}

func baseParams(conversationID string) Params {
	return Params{
		ConversationID: conversationID,
		Provider:       "openai",
		Model:          "gpt-4o",
		APIKey:         "sk-test",
		ImageAPIKey:    "sk-test",
		SystemPrompt:   "You are a helpful AI assistant.",
		PrefixPrompt:   "",
		Temperature:    0.7,
		Text:           "hello",
	}
}

func TestSendEmptyInputIsNoOp(t *testing.T) {
	completer := &stubCompleter{}
	s, store, id := newTestSender(completer, &stubImages{})

	p := baseParams(id)
	p.Text = "   \n\t "
	ok := s.Send(context.Background(), p)

	assert.False(t, ok)
	assert.Zero(t, completer.calls)
	c, _ := store.Get(id)
	assert.Empty(t, c.Turns, "диалог не должен измениться")
}

func TestSendAttachmentOnlyIsNotNoOp(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindText, Content: "ok"}}
	s, store, id := newTestSender(completer, &stubImages{})

	p := baseParams(id)
	p.Text = ""
	p.Attachment = []byte{1, 2, 3}
	require.True(t, s.Send(context.Background(), p))

	c, _ := store.Get(id)
	assert.Len(t, c.Turns, 2)
}

func TestSendTextBranch(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindText, Content: "stubbed reply"}}
	s, store, id := newTestSender(completer, &stubImages{})

	require.True(t, s.Send(context.Background(), baseParams(id)))

	c, _ := store.Get(id)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, conversation.RoleUser, c.Turns[0].Role)
	assert.Equal(t, "hello", c.Turns[0].Content)
	assert.Equal(t, conversation.RoleAssistant, c.Turns[1].Role)
	assert.Equal(t, conversation.KindText, c.Turns[1].Kind)
	assert.Equal(t, "stubbed reply", c.Turns[1].Content)
}

func TestSendConcatenatesPrompts(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindText, Content: "ok"}}
	s, _, id := newTestSender(completer, &stubImages{})

	p := baseParams(id)
	p.SystemPrompt = "SYS"
	p.PrefixPrompt = "PREFIX"
	p.Text = "INPUT"
	s.Send(context.Background(), p)

	assert.Equal(t, "SYS\n\nPREFIX\n\nINPUT", completer.lastPrompt)
}

func TestSendErrorBranchAppendsSystemTurn(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindError, Content: "Please provide a valid OPENAI API key in the configuration panel."}}
	s, store, id := newTestSender(completer, &stubImages{})

	require.True(t, s.Send(context.Background(), baseParams(id)))

	c, _ := store.Get(id)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, conversation.RoleSystem, c.Turns[1].Role)
	assert.Equal(t, conversation.KindError, c.Turns[1].Kind)
	assert.Contains(t, c.Turns[1].Content, "OPENAI")
}

func TestSendImageBranchSuccess(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindImage, Content: `{"prompt":"a cat"}`}}
	images := &stubImages{url: "https://img.example/cat.png"}
	s, store, id := newTestSender(completer, images)

	require.True(t, s.Send(context.Background(), baseParams(id)))

	c, _ := store.Get(id)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, conversation.RoleAssistant, c.Turns[1].Role)
	assert.Equal(t, conversation.KindImage, c.Turns[1].Kind)
	assert.Equal(t, "https://img.example/cat.png", c.Turns[1].Content)
	assert.Equal(t, `{"prompt":"a cat"}`, images.lastBody)
	assert.Equal(t, "sk-test", images.lastKey)
	assert.False(t, s.Generating(), "индикатор снят после завершения")
}

func TestSendImageBranchFailure(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindImage, Content: `{"prompt":"a cat"}`}}
	images := &stubImages{err: errors.New("billing hard limit reached")}
	s, store, id := newTestSender(completer, images)

	require.True(t, s.Send(context.Background(), baseParams(id)))

	c, _ := store.Get(id)
	require.Len(t, c.Turns, 2)
	assert.Equal(t, conversation.RoleSystem, c.Turns[1].Role)
	assert.Equal(t, conversation.KindError, c.Turns[1].Kind)
	assert.Equal(t, "billing hard limit reached", c.Turns[1].Content)
	assert.False(t, s.Generating())
}

func TestGeneratingIndicatorVisibleDuringImageCall(t *testing.T) {
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindImage, Content: `{}`}}
	images := &stubImages{url: "https://img.example/x.png"}
	s, _, id := newTestSender(completer, images)

	var seen bool
	images.observed = func(bool) { seen = s.Generating() }
	s.Send(context.Background(), baseParams(id))

	assert.True(t, seen, "индикатор должен быть виден во время генерации")
}

func TestSendTargetsConversationCapturedAtStart(t *testing.T) {
	// Завершение приходит после того, как «активным» стал другой диалог;
	// реплика всё равно уходит в диалог, зафиксированный на старте
	completer := &stubCompleter{result: ai.Result{Kind: ai.KindText, Content: "late reply"}}
	s, store, firstID := newTestSender(completer, &stubImages{})
	second := store.New()

	completer.onComplete = func() {
		// Пользователь «переключился» на второй диалог во время сетевого вызова
		require.NoError(t, store.Append(second.ID, conversation.NewTurn(conversation.RoleUser, "другой диалог", conversation.KindText)))
	}
	s.Send(context.Background(), baseParams(firstID))

	first, _ := store.Get(firstID)
	require.Len(t, first.Turns, 2)
	assert.Equal(t, "late reply", first.Turns[1].Content)

	other, _ := store.Get(second.ID)
	require.Len(t, other.Turns, 1)
	assert.Equal(t, "другой диалог", other.Turns[0].Content)
}

func TestSendUnknownConversation(t *testing.T) {
	completer := &stubCompleter{}
	s, _, _ := newTestSender(completer, &stubImages{})

	p := baseParams("missing")
	ok := s.Send(context.Background(), p)

	assert.False(t, ok)
	assert.Zero(t, completer.calls)
}
