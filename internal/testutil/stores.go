// Package testutil содержит in-memory реализации хранилищ для тестов.
// Условные записи ведут себя как SQL-варианты: несовпадение ожидаемого
// статуса даёт ту же ошибку что и UPDATE с нулём затронутых строк
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/notify"
	"github.com/google/uuid"
)

// MemStores общее in-memory хранилище: один мьютекс на всё, как одна
// база - атомарные операции координатора выполняются под ним целиком
type MemStores struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.Slot
	swaps map[uuid.UUID]*model.SwapRequest
	users map[uuid.UUID]*model.User
}

func NewMemStores() *MemStores {
	return &MemStores{
		slots: make(map[uuid.UUID]*model.Slot),
		swaps: make(map[uuid.UUID]*model.SwapRequest),
		users: make(map[uuid.UUID]*model.User),
	}
}

func copySlot(s *model.Slot) *model.Slot {
	c := *s
	return &c
}

func copySwap(r *model.SwapRequest) *model.SwapRequest {
	c := *r
	c.RequesterSlot = nil
	c.ReceiverSlot = nil
	return &c
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

// --- SlotStore ---

func (m *MemStores) Create(ctx context.Context, slot *model.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	m.slots[slot.ID] = copySlot(slot)
	return nil
}

func (m *MemStores) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[id]
	if !ok {
		return nil, nil
	}
	return copySlot(slot), nil
}

func (m *MemStores) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []*model.Slot
	for _, s := range m.slots {
		if s.OwnerID == ownerID {
			slots = append(slots, copySlot(s))
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func (m *MemStores) ListSwappable(ctx context.Context, excludingOwnerID uuid.UUID) ([]*model.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var slots []*model.Slot
	for _, s := range m.slots {
		if s.Status == model.SlotStatusSwappable && s.OwnerID != excludingOwnerID {
			slots = append(slots, copySlot(s))
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

func (m *MemStores) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateStatusLocked(id, from, to)
}

func (m *MemStores) updateStatusLocked(id uuid.UUID, from, to model.SlotStatus) error {
	slot, ok := m.slots[id]
	if !ok || slot.Status != from {
		return apperr.ErrConcurrentUpdate
	}
	slot.Status = to
	return nil
}

func (m *MemStores) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.slots[id]
	if !ok || slot.Status != model.SlotStatusBusy {
		return apperr.ErrConcurrentUpdate
	}
	delete(m.slots, id)
	return nil
}

// --- SwapStore ---

func (m *MemStores) GetSwapByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.swaps[id]
	if !ok {
		return nil, nil
	}
	return copySwap(req), nil
}

func (m *MemStores) OpenSwap(ctx context.Context, req *model.SwapRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.updateStatusLocked(req.RequesterSlotID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
		return err
	}
	if err := m.updateStatusLocked(req.ReceiverSlotID, model.SlotStatusSwappable, model.SlotStatusSwapPending); err != nil {
		// откат первой записи, как это делает rollback транзакции
		m.slots[req.RequesterSlotID].Status = model.SlotStatusSwappable
		return err
	}

	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	m.swaps[req.ID] = copySwap(req)
	return nil
}

func (m *MemStores) AcceptSwap(ctx context.Context, req *model.SwapRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.swaps[req.ID]
	if !ok || stored.Status != model.SwapStatusPending {
		return apperr.ErrAlreadyActioned
	}

	requesterSlot, ok1 := m.slots[req.RequesterSlotID]
	receiverSlot, ok2 := m.slots[req.ReceiverSlotID]
	if !ok1 || !ok2 ||
		requesterSlot.Status != model.SlotStatusSwapPending ||
		receiverSlot.Status != model.SlotStatusSwapPending {
		return apperr.ErrPartialSwapApplied
	}

	stored.Status = model.SwapStatusAccepted
	requesterSlot.OwnerID = req.ReceiverID
	receiverSlot.OwnerID = req.RequesterID
	requesterSlot.Status = model.SlotStatusBusy
	receiverSlot.Status = model.SlotStatusBusy
	return nil
}

func (m *MemStores) RejectSwap(ctx context.Context, req *model.SwapRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.swaps[req.ID]
	if !ok || stored.Status != model.SwapStatusPending {
		return apperr.ErrAlreadyActioned
	}

	requesterSlot, ok1 := m.slots[req.RequesterSlotID]
	receiverSlot, ok2 := m.slots[req.ReceiverSlotID]
	if !ok1 || !ok2 ||
		requesterSlot.Status != model.SlotStatusSwapPending ||
		receiverSlot.Status != model.SlotStatusSwapPending {
		return apperr.ErrPartialSwapApplied
	}

	stored.Status = model.SwapStatusRejected
	requesterSlot.Status = model.SlotStatusSwappable
	receiverSlot.Status = model.SlotStatusSwappable
	return nil
}

func (m *MemStores) ListPendingByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*model.SwapRequest, error) {
	return m.listSwaps(func(r *model.SwapRequest) bool {
		return r.ReceiverID == receiverID && r.Status == model.SwapStatusPending
	}), nil
}

func (m *MemStores) ListPendingByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error) {
	return m.listSwaps(func(r *model.SwapRequest) bool {
		return r.RequesterID == requesterID && r.Status == model.SwapStatusPending
	}), nil
}

func (m *MemStores) ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return m.listSwaps(func(r *model.SwapRequest) bool {
		return (r.RequesterID == userID || r.ReceiverID == userID) && r.Status.IsTerminal()
	}), nil
}

func (m *MemStores) listSwaps(match func(*model.SwapRequest) bool) []*model.SwapRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var requests []*model.SwapRequest
	for _, r := range m.swaps {
		if match(r) {
			requests = append(requests, copySwap(r))
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return requests
}

func (m *MemStores) CountInvolving(ctx context.Context, userID uuid.UUID, status model.SwapStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.swaps {
		if (r.RequesterID == userID || r.ReceiverID == userID) && r.Status == status {
			count++
		}
	}
	return count, nil
}

// --- UserStore ---

func (m *MemStores) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *MemStores) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *MemStores) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

func (m *MemStores) LinkTelegramChat(ctx context.Context, userID uuid.UUID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.TelegramChatID = chatID
	return nil
}

// Slots адаптер под service.SlotStore
func (m *MemStores) Slots() *SlotStoreAdapter { return &SlotStoreAdapter{m} }

// Swaps адаптер под service.SwapStore
func (m *MemStores) Swaps() *SwapStoreAdapter { return &SwapStoreAdapter{m} }

// Users адаптер под service.UserStore
func (m *MemStores) Users() *UserStoreAdapter { return &UserStoreAdapter{m} }

// Адаптеры разводят одноимённые методы разных интерфейсов (GetByID и
// Create есть и у слотов, и у пользователей)

type SlotStoreAdapter struct{ m *MemStores }

func (a *SlotStoreAdapter) Create(ctx context.Context, slot *model.Slot) error {
	return a.m.Create(ctx, slot)
}
func (a *SlotStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return a.m.GetByID(ctx, id)
}
func (a *SlotStoreAdapter) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Slot, error) {
	return a.m.ListByOwner(ctx, ownerID)
}
func (a *SlotStoreAdapter) ListSwappable(ctx context.Context, excludingOwnerID uuid.UUID) ([]*model.Slot, error) {
	return a.m.ListSwappable(ctx, excludingOwnerID)
}
func (a *SlotStoreAdapter) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	return a.m.UpdateStatus(ctx, id, from, to)
}
func (a *SlotStoreAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.m.Delete(ctx, id)
}

type SwapStoreAdapter struct{ m *MemStores }

func (a *SwapStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	return a.m.GetSwapByID(ctx, id)
}
func (a *SwapStoreAdapter) ListPendingByReceiver(ctx context.Context, receiverID uuid.UUID) ([]*model.SwapRequest, error) {
	return a.m.ListPendingByReceiver(ctx, receiverID)
}
func (a *SwapStoreAdapter) ListPendingByRequester(ctx context.Context, requesterID uuid.UUID) ([]*model.SwapRequest, error) {
	return a.m.ListPendingByRequester(ctx, requesterID)
}
func (a *SwapStoreAdapter) ListHistory(ctx context.Context, userID uuid.UUID) ([]*model.SwapRequest, error) {
	return a.m.ListHistory(ctx, userID)
}
func (a *SwapStoreAdapter) CountInvolving(ctx context.Context, userID uuid.UUID, status model.SwapStatus) (int64, error) {
	return a.m.CountInvolving(ctx, userID, status)
}
func (a *SwapStoreAdapter) OpenSwap(ctx context.Context, req *model.SwapRequest) error {
	return a.m.OpenSwap(ctx, req)
}
func (a *SwapStoreAdapter) AcceptSwap(ctx context.Context, req *model.SwapRequest) error {
	return a.m.AcceptSwap(ctx, req)
}
func (a *SwapStoreAdapter) RejectSwap(ctx context.Context, req *model.SwapRequest) error {
	return a.m.RejectSwap(ctx, req)
}

type UserStoreAdapter struct{ m *MemStores }

func (a *UserStoreAdapter) Create(ctx context.Context, user *model.User) error {
	return a.m.CreateUser(ctx, user)
}
func (a *UserStoreAdapter) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return a.m.GetUserByEmail(ctx, email)
}
func (a *UserStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return a.m.GetUserByID(ctx, id)
}
func (a *UserStoreAdapter) LinkTelegramChat(ctx context.Context, userID uuid.UUID, chatID int64) error {
	return a.m.LinkTelegramChat(ctx, userID, chatID)
}

// Notification зафиксированное событие
type Notification struct {
	UserID uuid.UUID
	Event  notify.Event
}

// RecordingNotifier пишет уведомления в канал для проверок в тестах
type RecordingNotifier struct {
	Ch chan Notification
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{Ch: make(chan Notification, 16)}
}

func (n *RecordingNotifier) Notify(ctx context.Context, userID uuid.UUID, event notify.Event) {
	n.Ch <- Notification{UserID: userID, Event: event}
}
