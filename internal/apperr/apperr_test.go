package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Freeeeeet/slotswapper/internal/apperr"
)

func TestKindOf(t *testing.T) {
	if got := apperr.KindOf(apperr.ErrSlotNotFound); got != apperr.KindNotFound {
		t.Errorf("expected KindNotFound, got %s", got)
	}
	if got := apperr.KindOf(errors.New("plain")); got != apperr.KindUnknown {
		t.Errorf("expected KindUnknown for plain error, got %s", got)
	}
	if got := apperr.KindOf(nil); got != apperr.KindUnknown {
		t.Errorf("expected KindUnknown for nil, got %s", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("open swap: %w", apperr.ErrConcurrentUpdate)

	if got := apperr.KindOf(wrapped); got != apperr.KindConflict {
		t.Errorf("expected KindConflict through wrap, got %s", got)
	}
	if !errors.Is(wrapped, apperr.ErrConcurrentUpdate) {
		t.Error("expected errors.Is to match the sentinel through wrap")
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := apperr.New(apperr.KindConflict, "custom conflict message")

	if !errors.Is(err, apperr.ErrConcurrentUpdate) {
		t.Error("expected errors with the same kind to match")
	}
	if errors.Is(err, apperr.ErrSlotNotFound) {
		t.Error("expected errors with different kinds not to match")
	}
}
