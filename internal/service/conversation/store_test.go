package conversation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreSeedsOneConversation(t *testing.T) {
	s := NewStore()
	require.Equal(t, 1, s.Len())
	list := s.List()
	assert.Empty(t, list[0].Title)
	assert.Empty(t, list[0].Turns)
}

func TestNewAssignsSequentialTitles(t *testing.T) {
	s := NewStore()
	c2 := s.New()
	c3 := s.New()
	assert.Equal(t, "Conversation 2", c2.Title)
	assert.Equal(t, "Conversation 3", c3.Title)
	assert.Equal(t, 3, s.Len())
}

func TestAppendKeepsOrder(t *testing.T) {
	s := NewStore()
	id, ok := s.IDAt(0)
	require.True(t, ok)

	require.NoError(t, s.Append(id, NewTurn(RoleUser, "первый", KindText)))
	require.NoError(t, s.Append(id, NewTurn(RoleAssistant, "второй", KindText)))
	require.NoError(t, s.Append(id, NewTurn(RoleSystem, "третий", KindError)))

	c, ok := s.Get(id)
	require.True(t, ok)
	require.Len(t, c.Turns, 3)
	assert.Equal(t, "первый", c.Turns[0].Content)
	assert.Equal(t, "второй", c.Turns[1].Content)
	assert.Equal(t, "третий", c.Turns[2].Content)
	// Порядок создания монотонный
	assert.False(t, c.Turns[1].CreatedAt.Before(c.Turns[0].CreatedAt))
}

func TestAppendUnknownConversation(t *testing.T) {
	s := NewStore()
	err := s.Append("missing", NewTurn(RoleUser, "x", KindText))
	require.Error(t, err)
}

func TestErrorTurnIsAlwaysSystem(t *testing.T) {
	turn := NewTurn(RoleAssistant, "boom", KindError)
	assert.Equal(t, RoleSystem, turn.Role)
	assert.Equal(t, KindError, turn.Kind)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	id, _ := s.IDAt(0)
	require.NoError(t, s.Append(id, NewTurn(RoleUser, "оригинал", KindText)))

	c, _ := s.Get(id)
	c.Turns[0].Content = "подмена"
	c.Title = "другое"

	fresh, _ := s.Get(id)
	assert.Equal(t, "оригинал", fresh.Turns[0].Content)
	assert.Empty(t, fresh.Title)
}

func TestRenameAndDelete(t *testing.T) {
	s := NewStore()
	second := s.New()

	require.NoError(t, s.Rename(second.ID, "Заметки"))
	c, _ := s.Get(second.ID)
	assert.Equal(t, "Заметки", c.Title)

	require.NoError(t, s.Delete(second.ID))
	_, ok := s.Get(second.ID)
	assert.False(t, ok)
}

func TestDeleteLastConversationRefused(t *testing.T) {
	s := NewStore()
	id, _ := s.IDAt(0)
	require.Error(t, s.Delete(id))
	assert.Equal(t, 1, s.Len())
}

func TestSubscribeReceivesAppends(t *testing.T) {
	s := NewStore()
	id, _ := s.IDAt(0)
	events := s.Subscribe()
	defer s.Unsubscribe(events)

	turn := NewTurn(RoleAssistant, "hello", KindText)
	require.NoError(t, s.Append(id, turn))

	ev := <-events
	assert.Equal(t, id, ev.ConversationID)
	assert.Equal(t, turn.ID, ev.Turn.ID)
	assert.Equal(t, "hello", ev.Turn.Content)
}

func TestSlowSubscriberDoesNotBlockAppend(t *testing.T) {
	s := NewStore()
	id, _ := s.IDAt(0)
	events := s.Subscribe()
	defer s.Unsubscribe(events)

	// Забиваем буфер подписчика с запасом; Append не должен повиснуть
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Append(id, NewTurn(RoleUser, "msg", KindText)))
	}
	c, _ := s.Get(id)
	assert.Len(t, c.Turns, 100)
}

// Отписка во время потока добавлений не должна ронять процесс:
// закрытие канала и отправка в него сериализуются одним мьютексом.
func TestUnsubscribeDuringAppendDoesNotPanic(t *testing.T) {
	s := NewStore()
	id, _ := s.IDAt(0)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = s.Append(id, NewTurn(RoleAssistant, "tick", KindText))
			}
		}
	}()

	for i := 0; i < 200; i++ {
		events := s.Subscribe()
		s.Unsubscribe(events)
	}
	close(stop)
	wg.Wait()
}

func TestUnsubscribeTwiceIsNoop(t *testing.T) {
	s := NewStore()
	events := s.Subscribe()
	s.Unsubscribe(events)
	assert.NotPanics(t, func() { s.Unsubscribe(events) })
}
