package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SwapService координатор обменов: проверяет предусловия по паре слотов
// и заявке, выполняет атомарные переходы и шлёт уведомления.
// Уведомления best-effort и отвязаны от результата операции
type SwapService struct {
	slotRepo   SlotStore
	swapRepo   SwapStore
	userRepo   UserStore
	notifier   notify.Notifier
	statsCache StatsCache
	logger     *zap.Logger
}

// NewSwapService создаёт координатор. statsCache может быть nil -
// статистика тогда считается напрямую из базы
func NewSwapService(
	slotRepo SlotStore,
	swapRepo SwapStore,
	userRepo UserStore,
	notifier notify.Notifier,
	statsCache StatsCache,
	logger *zap.Logger,
) *SwapService {
	return &SwapService{
		slotRepo:   slotRepo,
		swapRepo:   swapRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		statsCache: statsCache,
		logger:     logger,
	}
}

// SwapLists входящие/исходящие PENDING заявки и завершённая история
type SwapLists struct {
	Incoming []*model.SwapRequest `json:"incoming"`
	Outgoing []*model.SwapRequest `json:"outgoing"`
	History  []*model.SwapRequest `json:"history"`
}

// OpenSwap открывает обмен между слотом заявителя и чужим слотом.
// Предусловия проверяются по порядку, первый отказ выигрывает.
// Проверка SWAPPABLE здесь - только допуск: настоящую гонку двух
// параллельных открытий закрывают условные записи внутри OpenSwap
func (s *SwapService) OpenSwap(ctx context.Context, requesterID, mySlotID, theirSlotID uuid.UUID) (*model.SwapRequest, error) {
	mySlot, err := s.slotRepo.GetByID(ctx, mySlotID)
	if err != nil {
		return nil, err
	}

	theirSlot, err := s.slotRepo.GetByID(ctx, theirSlotID)
	if err != nil {
		return nil, err
	}

	if mySlot == nil || theirSlot == nil {
		return nil, apperr.ErrSlotsNotFound
	}

	// Отсекает и подмену чужого слота под видом своего, и обмен с самим собой
	if mySlot.OwnerID != requesterID || theirSlot.OwnerID == requesterID {
		return nil, apperr.ErrInvalidOwnership
	}

	if mySlot.Status != model.SlotStatusSwappable || theirSlot.Status != model.SlotStatusSwappable {
		return nil, apperr.ErrNotSwappable
	}

	req := &model.SwapRequest{
		RequesterID:     requesterID,
		ReceiverID:      theirSlot.OwnerID,
		RequesterSlotID: mySlotID,
		ReceiverSlotID:  theirSlotID,
		Status:          model.SwapStatusPending,
	}

	if err := s.swapRepo.OpenSwap(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("Swap request opened",
		zap.String("request_id", req.ID.String()),
		zap.String("requester_id", requesterID.String()),
		zap.String("receiver_id", req.ReceiverID.String()),
	)

	s.notifyAsync(ctx, req.ReceiverID, notify.Event{
		Name:    notify.EventNewSwapRequest,
		Message: fmt.Sprintf("You have a new swap request from %s!", s.userName(ctx, requesterID)),
		Request: req,
	})

	return req, nil
}

// RespondSwap принимает или отклоняет заявку от имени получателя.
// Возвращает заявку в терминальном статусе и сообщение для клиента
func (s *SwapService) RespondSwap(ctx context.Context, actingUserID, requestID uuid.UUID, accept bool) (*model.SwapRequest, string, error) {
	req, err := s.swapRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}

	if req == nil {
		return nil, "", apperr.ErrSwapNotFound
	}

	if req.ReceiverID != actingUserID {
		return nil, "", apperr.ErrNotReceiver
	}

	if req.Status != model.SwapStatusPending {
		return nil, "", apperr.ErrAlreadyActioned
	}

	// Слоты PENDING заявки удалить нельзя (SWAP_PENDING), но проверяем
	// на случай записи мимо координатора
	requesterSlot, err := s.slotRepo.GetByID(ctx, req.RequesterSlotID)
	if err != nil {
		return nil, "", err
	}

	receiverSlot, err := s.slotRepo.GetByID(ctx, req.ReceiverSlotID)
	if err != nil {
		return nil, "", err
	}

	if requesterSlot == nil || receiverSlot == nil {
		return nil, "", apperr.ErrSwapSlotsGone
	}

	var message string
	if accept {
		if err := s.swapRepo.AcceptSwap(ctx, req); err != nil {
			return nil, "", err
		}
		req.Status = model.SwapStatusAccepted
		message = "Swap accepted!"
	} else {
		if err := s.swapRepo.RejectSwap(ctx, req); err != nil {
			return nil, "", err
		}
		req.Status = model.SwapStatusRejected
		message = "Swap rejected"
	}

	s.logger.Info("Swap request resolved",
		zap.String("request_id", requestID.String()),
		zap.String("status", string(req.Status)),
	)

	s.invalidateStats(ctx, req.RequesterID, req.ReceiverID)

	requesterMessage := fmt.Sprintf("Your swap request for %s was rejected.", requesterSlot.Title)
	if accept {
		requesterMessage = fmt.Sprintf("Your swap request for %s was accepted!", requesterSlot.Title)
	}

	s.notifyAsync(ctx, req.RequesterID, notify.Event{
		Name:    notify.EventSwapResponse,
		Message: requesterMessage,
	})

	return req, message, nil
}

// ListMySwaps собирает заявки пользователя для экрана запросов
func (s *SwapService) ListMySwaps(ctx context.Context, userID uuid.UUID) (*SwapLists, error) {
	incoming, err := s.swapRepo.ListPendingByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}

	outgoing, err := s.swapRepo.ListPendingByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.swapRepo.ListHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SwapLists{
		Incoming: incoming,
		Outgoing: outgoing,
		History:  history,
	}, nil
}

// Stats считает завершённые и отклонённые обмены пользователя.
// Кэш необязательный: его отказ не ломает запрос
func (s *SwapService) Stats(ctx context.Context, userID uuid.UUID) (*model.SwapStats, error) {
	if s.statsCache != nil {
		cached, err := s.statsCache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("Stats cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	completed, err := s.swapRepo.CountInvolving(ctx, userID, model.SwapStatusAccepted)
	if err != nil {
		return nil, err
	}

	rejected, err := s.swapRepo.CountInvolving(ctx, userID, model.SwapStatusRejected)
	if err != nil {
		return nil, err
	}

	stats := &model.SwapStats{
		Completed: completed,
		Rejected:  rejected,
	}

	if s.statsCache != nil {
		if err := s.statsCache.Set(ctx, userID, stats); err != nil {
			s.logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *SwapService) invalidateStats(ctx context.Context, userIDs ...uuid.UUID) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx, userIDs...); err != nil {
		s.logger.Warn("Stats cache invalidation failed", zap.Error(err))
	}
}

// notifyAsync отправляет уведомление не блокируя ответ и не наследуя
// отмену контекста запроса
func (s *SwapService) notifyAsync(ctx context.Context, userID uuid.UUID, event notify.Event) {
	go s.notifier.Notify(context.WithoutCancel(ctx), userID, event)
}

func (s *SwapService) userName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		return "another user"
	}
	return user.Name
}
