package model

import (
	"time"

	"github.com/google/uuid"
)

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// IsTerminal — ACCEPTED и REJECTED финальные, из них переходов нет
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

// SwapRequest представляет предложение об обмене двух слотов
type SwapRequest struct {
	ID              uuid.UUID  `json:"id"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	ReceiverID      uuid.UUID  `json:"receiver_id"`
	RequesterSlotID uuid.UUID  `json:"requester_slot_id"`
	ReceiverSlotID  uuid.UUID  `json:"receiver_slot_id"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`

	// Дополнительные поля для API (заполняются JOIN-ами, не из таблицы)
	RequesterName string `json:"requester_name,omitempty"`
	ReceiverName  string `json:"receiver_name,omitempty"`
	RequesterSlot *Slot  `json:"requester_slot,omitempty"`
	ReceiverSlot  *Slot  `json:"receiver_slot,omitempty"`
}

// SwapStats статистика обменов пользователя
type SwapStats struct {
	Completed int64 `json:"completed"`
	Rejected  int64 `json:"rejected"`
}
