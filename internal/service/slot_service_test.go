package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/service"
	"github.com/Freeeeeet/slotswapper/internal/testutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newSlotService() (*testutil.MemStores, *service.SlotService) {
	stores := testutil.NewMemStores()
	return stores, service.NewSlotService(stores.Slots(), zap.NewNop())
}

func TestCreateSlot(t *testing.T) {
	_, svc := newSlotService()
	ctx := context.Background()
	owner := uuid.New()
	start := time.Now().Add(time.Hour)

	slot, err := svc.CreateSlot(ctx, owner, "standup", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	if slot.Status != model.SlotStatusBusy {
		t.Errorf("new slot must start BUSY, got %s", slot.Status)
	}
	if slot.OwnerID != owner {
		t.Errorf("expected owner %s, got %s", owner, slot.OwnerID)
	}
	if slot.ID == uuid.Nil {
		t.Error("expected slot to get an id")
	}
}

func TestCreateSlotValidation(t *testing.T) {
	_, svc := newSlotService()
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		title string
		start time.Time
		end   time.Time
	}{
		{"start equals end", "x", now, now},
		{"start after end", "x", now.Add(time.Hour), now},
		{"empty title", "", now, now.Add(time.Hour)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSlot(ctx, uuid.New(), tc.title, tc.start, tc.end)
			if apperr.KindOf(err) != apperr.KindInvalidInput {
				t.Errorf("expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestSetStatus(t *testing.T) {
	stores, svc := newSlotService()
	ctx := context.Background()
	owner := uuid.New()

	slot, err := svc.CreateSlot(ctx, owner, "shift", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	updated, err := svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusSwappable)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if updated.Status != model.SlotStatusSwappable {
		t.Errorf("expected SWAPPABLE, got %s", updated.Status)
	}

	// И обратно
	updated, err = svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusBusy)
	if err != nil {
		t.Fatalf("SetStatus back to BUSY failed: %v", err)
	}
	if updated.Status != model.SlotStatusBusy {
		t.Errorf("expected BUSY, got %s", updated.Status)
	}

	stored, _ := stores.GetByID(ctx, slot.ID)
	if stored.Status != model.SlotStatusBusy {
		t.Errorf("expected persisted BUSY, got %s", stored.Status)
	}
}

func TestSetStatusRules(t *testing.T) {
	stores, svc := newSlotService()
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	slot, err := svc.CreateSlot(ctx, owner, "shift", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	if _, err := svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusSwapPending); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("owner must not set SWAP_PENDING directly, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, slot.ID, stranger, model.SlotStatusSwappable); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected Unauthorized for non-owner, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, uuid.New(), owner, model.SlotStatusSwappable); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected NotFound for unknown slot, got %v", err)
	}

	// Слот под обменом недоступен владельцу
	if err := stores.UpdateStatus(ctx, slot.ID, model.SlotStatusBusy, model.SlotStatusSwapPending); err != nil {
		t.Fatalf("failed to park slot: %v", err)
	}
	if _, err := svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusBusy); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected InvalidState for pending slot, got %v", err)
	}
}

func TestDeleteSlot(t *testing.T) {
	stores, svc := newSlotService()
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	slot, err := svc.CreateSlot(ctx, owner, "shift", time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	if err := svc.DeleteSlot(ctx, slot.ID, stranger); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected Unauthorized for non-owner, got %v", err)
	}

	// Выставленный слот удалить нельзя, сначала надо снять с обмена
	if _, err := svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusSwappable); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := svc.DeleteSlot(ctx, slot.ID, owner); apperr.KindOf(err) != apperr.KindInvalidState {
		t.Errorf("expected InvalidState for swappable slot, got %v", err)
	}

	if _, err := svc.SetStatus(ctx, slot.ID, owner, model.SlotStatusBusy); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := svc.DeleteSlot(ctx, slot.ID, owner); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}

	stored, _ := stores.GetByID(ctx, slot.ID)
	if stored != nil {
		t.Error("expected slot to be gone")
	}

	if err := svc.DeleteSlot(ctx, slot.ID, owner); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected NotFound for deleted slot, got %v", err)
	}
}

func TestListSwappableExcludesCaller(t *testing.T) {
	stores, svc := newSlotService()
	ctx := context.Background()
	u1 := uuid.New()
	u2 := uuid.New()

	mine := &model.Slot{OwnerID: u1, Title: "mine", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour), Status: model.SlotStatusSwappable}
	theirs := &model.Slot{OwnerID: u2, Title: "theirs", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour), Status: model.SlotStatusSwappable}
	busy := &model.Slot{OwnerID: u2, Title: "busy", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour), Status: model.SlotStatusBusy}
	for _, s := range []*model.Slot{mine, theirs, busy} {
		if err := stores.Create(ctx, s); err != nil {
			t.Fatalf("failed to seed slot: %v", err)
		}
	}

	slots, err := svc.ListSwappableSlots(ctx, u1)
	if err != nil {
		t.Fatalf("ListSwappableSlots failed: %v", err)
	}

	if len(slots) != 1 || slots[0].ID != theirs.ID {
		t.Errorf("expected only the other user's swappable slot, got %+v", slots)
	}
}
