package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	// TelegramChatID привязанный чат для уведомлений (0 - не привязан)
	TelegramChatID int64     `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
