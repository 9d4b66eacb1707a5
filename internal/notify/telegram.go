package notify

import (
	"context"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatLookup отдаёт пользователя с привязанным телеграм-чатом
type ChatLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TelegramNotifier шлёт события текстом в привязанный чат пользователя.
// Пользователи без привязки молча пропускаются
type TelegramNotifier struct {
	bot    *bot.Bot
	users  ChatLookup
	logger *zap.Logger
}

func NewTelegramNotifier(token string, users ChatLookup, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{
		bot:    b,
		users:  users,
		logger: logger,
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, userID uuid.UUID, event Event) {
	user, err := t.users.GetByID(ctx, userID)
	if err != nil {
		t.logger.Warn("Failed to resolve user for telegram notification",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return
	}

	if user == nil || user.TelegramChatID == 0 {
		return
	}

	_, err = t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: user.TelegramChatID,
		Text:   event.Message,
	})
	if err != nil {
		t.logger.Warn("Failed to deliver telegram notification",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("event", event.Name),
		)
	}
}
