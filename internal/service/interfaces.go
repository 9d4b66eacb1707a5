package service

import (
	"context"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/google/uuid"
)

// Интерфейсы хранилища. Реализации в internal/repository, в тестах
// подменяются in-memory фейками

type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error)
	ListSwappable(ctx context.Context, excludingOwnerID uuid.UUID) ([]*model.Slot, error)
	// UpdateStatus - условная запись: прежний статус обязан совпасть,
	// иначе apperr.ErrConcurrentUpdate
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error
	// Delete удаляет слот при условии что он всё ещё BUSY
	Delete(ctx context.Context, id uuid.UUID) error
}

type SwapStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	ListPendingByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*model.SwapRequest, error)
	ListPendingByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error)
	ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error)
	CountInvolving(ctx context.Context, userID uuid.UUID, status model.SwapStatus) (int64, error)

	// Атомарные операции координатора: каждая выполняет все записи по
	// заявке и обоим слотам или ни одной
	OpenSwap(ctx context.Context, req *model.SwapRequest) error
	AcceptSwap(ctx context.Context, req *model.SwapRequest) error
	RejectSwap(ctx context.Context, req *model.SwapRequest) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	LinkTelegramChat(ctx context.Context, userID uuid.UUID, chatID int64) error
}

// StatsCache необязательный кэш статистики (реализация в internal/cache)
type StatsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.SwapStats, error)
	Set(ctx context.Context, userID uuid.UUID, stats *model.SwapStats) error
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}
