package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Role автор реплики.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind вид содержимого реплики.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindError Kind = "error"
)

// Turn — одна реплика диалога: пользовательский ввод, ответ ассистента,
// URL сгенерированного изображения или системная ошибка.
// После создания реплика не изменяется.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn создаёт реплику с новым идентификатором.
// Инвариант: реплика-ошибка всегда системная.
func NewTurn(role Role, content string, kind Kind) Turn {
	if kind == KindError {
		role = RoleSystem
	}
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
}
