package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotService реестр слотов: владеет записями Slot и их статусной машиной.
// Переходы в/из SWAP_PENDING делает только координатор (SwapService)
type SlotService struct {
	slotRepo SlotStore
	logger   *zap.Logger
}

func NewSlotService(slotRepo SlotStore, logger *zap.Logger) *SlotService {
	return &SlotService{
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// CreateSlot создаёт слот. Новый слот всегда BUSY
func (s *SlotService) CreateSlot(ctx context.Context, ownerID uuid.UUID, title string, startTime, endTime time.Time) (*model.Slot, error) {
	if title == "" {
		return nil, apperr.ErrTitleRequired
	}

	if !startTime.Before(endTime) {
		return nil, apperr.ErrInvalidTimeRange
	}

	slot := &model.Slot{
		OwnerID:   ownerID,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    model.SlotStatusBusy,
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Time("start_time", startTime),
	)

	return slot, nil
}

// ListUserSlots получает слоты пользователя, отсортированные по началу
func (s *SlotService) ListUserSlots(ctx context.Context, userID uuid.UUID) ([]*model.Slot, error) {
	return s.slotRepo.ListByOwner(ctx, userID)
}

// ListSwappableSlots получает чужие слоты, доступные для обмена
func (s *SlotService) ListSwappableSlots(ctx context.Context, excludingUserID uuid.UUID) ([]*model.Slot, error) {
	return s.slotRepo.ListSwappable(ctx, excludingUserID)
}

// SetStatus переключает BUSY <-> SWAPPABLE по запросу владельца.
// Слот под открытым обменом (SWAP_PENDING) трогать нельзя
func (s *SlotService) SetStatus(ctx context.Context, slotID, actingUserID uuid.UUID, status model.SlotStatus) (*model.Slot, error) {
	if status != model.SlotStatusBusy && status != model.SlotStatusSwappable {
		return nil, apperr.ErrInvalidStatus
	}

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if slot == nil {
		return nil, apperr.ErrSlotNotFound
	}

	if slot.OwnerID != actingUserID {
		return nil, apperr.ErrNotSlotOwner
	}

	if slot.Status == model.SlotStatusSwapPending {
		return nil, apperr.ErrSlotPending
	}

	// Условие на прочитанный статус закрывает гонку с параллельным
	// открытием обмена: если координатор успел раньше, вернётся Conflict
	if err := s.slotRepo.UpdateStatus(ctx, slotID, slot.Status, status); err != nil {
		return nil, err
	}

	slot.Status = status

	s.logger.Info("Slot status changed",
		zap.String("slot_id", slotID.String()),
		zap.String("status", string(status)),
	)

	return slot, nil
}

// DeleteSlot удаляет слот владельца. Разрешено только из BUSY: слот под
// обменом недоступен, а выставленный (SWAPPABLE) нужно сначала снять
func (s *SlotService) DeleteSlot(ctx context.Context, slotID, actingUserID uuid.UUID) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	if slot == nil {
		return apperr.ErrSlotNotFound
	}

	if slot.OwnerID != actingUserID {
		return apperr.ErrNotSlotOwner
	}

	if slot.Status != model.SlotStatusBusy {
		return apperr.ErrSlotNotDeletable
	}

	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.String("owner_id", actingUserID.String()),
	)

	return nil
}
