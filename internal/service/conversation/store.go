package conversation

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Conversation — упорядоченная последовательность реплик с изменяемым заголовком.
// Порядок реплик равен порядку добавления; store никогда не переставляет
// и не удаляет реплики.
type Conversation struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Turns []Turn `json:"turns"`
}

// Event — уведомление подписчикам о новой реплике.
type Event struct {
	ConversationID string `json:"conversation_id"`
	Turn           Turn   `json:"turn"`
}

// Store хранит упорядоченный набор диалогов в памяти.
// Все операции потокобезопасны. Append — единственный способ изменить
// содержимое диалога; заголовок и само существование диалога меняются
// отдельными операциями уровня коллаборатора.
type Store struct {
	mu            sync.Mutex
	conversations []*Conversation
	subscribers   []chan Event
}

// NewStore создаёт хранилище с одним пустым диалогом без заголовка.
func NewStore() *Store {
	s := &Store{}
	s.conversations = append(s.conversations, &Conversation{ID: uuid.NewString()})
	return s
}

// New создаёт диалог с автоматическим заголовком и возвращает его копию.
func (s *Store) New() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Conversation{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Conversation %d", len(s.conversations)+1),
	}
	s.conversations = append(s.conversations, c)
	return snapshot(c)
}

// List возвращает копии всех диалогов в порядке создания.
func (s *Store) List() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, snapshot(c))
	}
	return out
}

// Get возвращает копию диалога по идентификатору.
func (s *Store) Get(id string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return Conversation{}, false
	}
	return snapshot(c), true
}

// IDAt возвращает идентификатор диалога по индексу.
// UI адресует диалоги индексами; идентификатор фиксируется в момент отправки,
// поэтому смена активного диалога не влияет на адресата реплики.
func (s *Store) IDAt(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.conversations) {
		return "", false
	}
	return s.conversations[index].ID, true
}

// Len возвращает количество диалогов.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// Append добавляет реплику в конец диалога и уведомляет подписчиков.
func (s *Store) Append(id string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return fmt.Errorf("conversation not found: %s", id)
	}
	c.Turns = append(c.Turns, turn)

	// Отправка идёт под мьютексом: Unsubscribe закрывает канал под тем же
	// мьютексом, поэтому отправка в закрытый канал невозможна.
	// Отстающий подписчик пропускает событие, но не блокирует добавление.
	ev := Event{ConversationID: id, Turn: turn}
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Rename меняет заголовок диалога. Заголовок не зависит от содержимого.
func (s *Store) Rename(id string, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(id)
	if c == nil {
		return fmt.Errorf("conversation not found: %s", id)
	}
	c.Title = title
	return nil
}

// Delete удаляет диалог. Последний диалог удалить нельзя:
// UI всегда показывает хотя бы один.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conversations) <= 1 {
		return fmt.Errorf("cannot delete the last conversation")
	}
	for i, c := range s.conversations {
		if c.ID == id {
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("conversation not found: %s", id)
}

// Subscribe возвращает канал событий о новых репликах.
func (s *Store) Subscribe() chan Event {
	ch := make(chan Event, 32)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// Unsubscribe отписывает канал и закрывает его.
// Закрытие происходит под мьютексом, чтобы не пересечься с отправкой в Append.
func (s *Store) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

func (s *Store) find(id string) *Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// snapshot копирует диалог вместе со срезом реплик, чтобы вызывающий
// не мог изменить внутреннее состояние.
func snapshot(c *Conversation) Conversation {
	turns := make([]Turn, len(c.Turns))
	copy(turns, c.Turns)
	return Conversation{ID: c.ID, Title: c.Title, Turns: turns}
}
