package notify

import (
	"context"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/google/uuid"
)

const (
	EventNewSwapRequest = "newSwapRequest"
	EventSwapResponse   = "swapResponse"
)

// Event уведомление, адресованное одному пользователю
type Event struct {
	Name    string             `json:"event"`
	Message string             `json:"message"`
	Request *model.SwapRequest `json:"request,omitempty"`
}

// Notifier доставляет события best-effort: без подтверждений, без
// повторов, ошибки доставки никогда не возвращаются вызывающему
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event Event)
}

// Fanout рассылает событие во все каналы доставки независимо
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, userID uuid.UUID, event Event) {
	for _, n := range f {
		n.Notify(ctx, userID, event)
	}
}

// Discard заглушка для конфигураций без каналов доставки
type Discard struct{}

func (Discard) Notify(ctx context.Context, userID uuid.UUID, event Event) {}
