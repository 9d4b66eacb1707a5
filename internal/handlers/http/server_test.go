package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpapi "github.com/Freeeeeet/slotswapper/internal/handlers/http"
	"github.com/Freeeeeet/slotswapper/internal/handlers/ws"
	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/notify"
	"github.com/Freeeeeet/slotswapper/internal/service"
	"github.com/Freeeeeet/slotswapper/internal/testutil"
	"go.uber.org/zap"
)

type apiFixture struct {
	ts *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	stores := testutil.NewMemStores()

	authService := service.NewAuthService(stores.Users(), "test-secret", logger)
	slotService := service.NewSlotService(stores.Slots(), logger)
	swapService := service.NewSwapService(stores.Slots(), stores.Swaps(), stores.Users(), notify.Discard{}, nil, logger)
	hub := ws.NewHub(authService, logger)

	server := httpapi.NewServer(":0", authService, slotService, swapService, hub, logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &apiFixture{ts: ts}
}

// do выполняет JSON-запрос, при token != "" с авторизацией
func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, data
}

func (f *apiFixture) signup(t *testing.T, name string) string {
	t.Helper()
	resp, data := f.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "s3cret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", resp.StatusCode, data)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("failed to decode signup response: %v", err)
	}
	return body.Token
}

func (f *apiFixture) createSlot(t *testing.T, token, title string) *model.Slot {
	t.Helper()
	start := time.Now().Add(time.Hour).UTC()
	resp, data := f.do(t, http.MethodPost, "/api/events", token, map[string]any{
		"title":      title,
		"start_time": start,
		"end_time":   start.Add(time.Hour),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create slot returned %d: %s", resp.StatusCode, data)
	}

	var slot model.Slot
	if err := json.Unmarshal(data, &slot); err != nil {
		t.Fatalf("failed to decode slot: %v", err)
	}
	return &slot
}

func (f *apiFixture) setSwappable(t *testing.T, token string, slot *model.Slot) {
	t.Helper()
	resp, data := f.do(t, http.MethodPut, fmt.Sprintf("/api/events/%s/status", slot.ID), token, map[string]string{
		"status": "SWAPPABLE",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status returned %d: %s", resp.StatusCode, data)
	}
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/events", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, "/api/events", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestSlotLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup(t, "alice")

	slot := f.createSlot(t, token, "standup")
	if slot.Status != model.SlotStatusBusy {
		t.Errorf("expected new slot BUSY, got %s", slot.Status)
	}

	resp, data := f.do(t, http.MethodGet, "/api/events", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d", resp.StatusCode)
	}
	var slots []*model.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		t.Fatalf("failed to decode slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}

	f.setSwappable(t, token, slot)

	// Выставленный слот удалить нельзя
	resp, _ = f.do(t, http.MethodDelete, "/api/events/"+slot.ID.String(), token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 deleting swappable slot, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/events/%s/status", slot.ID), token, map[string]string{"status": "BUSY"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status returned %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodDelete, "/api/events/"+slot.ID.String(), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 deleting busy slot, got %d", resp.StatusCode)
	}
}

func TestInvalidTimeRangeRejected(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup(t, "alice")

	start := time.Now().Add(time.Hour).UTC()
	resp, _ := f.do(t, http.MethodPost, "/api/events", token, map[string]any{
		"title":      "broken",
		"start_time": start,
		"end_time":   start.Add(-time.Hour),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for inverted time range, got %d", resp.StatusCode)
	}
}

func TestSwapFlow(t *testing.T) {
	f := newAPIFixture(t)
	aliceToken := f.signup(t, "alice")
	bobToken := f.signup(t, "bob")

	aliceSlot := f.createSlot(t, aliceToken, "alice shift")
	bobSlot := f.createSlot(t, bobToken, "bob shift")
	f.setSwappable(t, aliceToken, aliceSlot)
	f.setSwappable(t, bobToken, bobSlot)

	// Алисе виден только слот Боба
	resp, data := f.do(t, http.MethodGet, "/api/swap/swappable-slots", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swappable-slots returned %d", resp.StatusCode)
	}
	var available []*model.Slot
	if err := json.Unmarshal(data, &available); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(available) != 1 || available[0].ID != bobSlot.ID {
		t.Fatalf("expected only bob's slot, got %+v", available)
	}

	resp, data = f.do(t, http.MethodPost, "/api/swap/swap-request", aliceToken, map[string]string{
		"my_slot_id":    aliceSlot.ID.String(),
		"their_slot_id": bobSlot.ID.String(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("swap-request returned %d: %s", resp.StatusCode, data)
	}
	var req model.SwapRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	// Повторная заявка на те же слоты - они уже SWAP_PENDING
	resp, _ = f.do(t, http.MethodPost, "/api/swap/swap-request", aliceToken, map[string]string{
		"my_slot_id":    aliceSlot.ID.String(),
		"their_slot_id": bobSlot.ID.String(),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 reopening same slots, got %d", resp.StatusCode)
	}

	// Ответить может только получатель
	resp, _ = f.do(t, http.MethodPost, "/api/swap/swap-response/"+req.ID.String(), aliceToken, map[string]bool{"accept": true})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for requester responding, got %d", resp.StatusCode)
	}

	resp, data = f.do(t, http.MethodPost, "/api/swap/swap-response/"+req.ID.String(), bobToken, map[string]bool{"accept": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("swap-response returned %d: %s", resp.StatusCode, data)
	}
	var result struct {
		Status  model.SwapStatus `json:"status"`
		Message string           `json:"message"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Status != model.SwapStatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", result.Status)
	}

	// Повторный ответ - заявка уже обработана
	resp, _ = f.do(t, http.MethodPost, "/api/swap/swap-response/"+req.ID.String(), bobToken, map[string]bool{"accept": false})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for double response, got %d", resp.StatusCode)
	}

	// Слоты поменяли владельцев: у Алисы теперь слот Боба
	resp, data = f.do(t, http.MethodGet, "/api/events", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list returned %d", resp.StatusCode)
	}
	var aliceSlots []*model.Slot
	if err := json.Unmarshal(data, &aliceSlots); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(aliceSlots) != 1 || aliceSlots[0].ID != bobSlot.ID {
		t.Errorf("expected alice to own bob's old slot, got %+v", aliceSlots)
	}
	if aliceSlots[0].Status != model.SlotStatusBusy {
		t.Errorf("expected swapped slot BUSY, got %s", aliceSlots[0].Status)
	}

	// Статистика после одного принятого обмена
	resp, data = f.do(t, http.MethodGet, "/api/swap/my-stats", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my-stats returned %d", resp.StatusCode)
	}
	var stats model.SwapStats
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Completed != 1 || stats.Rejected != 0 {
		t.Errorf("expected stats {1 0}, got {%d %d}", stats.Completed, stats.Rejected)
	}
}

func TestOpenSwapUnknownSlots(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signup(t, "alice")

	resp, _ := f.do(t, http.MethodPost, "/api/swap/swap-request", token, map[string]string{
		"my_slot_id":    "00000000-0000-0000-0000-000000000001",
		"their_slot_id": "00000000-0000-0000-0000-000000000002",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown slots, got %d", resp.StatusCode)
	}
}

func TestMyRequestsLists(t *testing.T) {
	f := newAPIFixture(t)
	aliceToken := f.signup(t, "alice")
	bobToken := f.signup(t, "bob")

	aliceSlot := f.createSlot(t, aliceToken, "alice shift")
	bobSlot := f.createSlot(t, bobToken, "bob shift")
	f.setSwappable(t, aliceToken, aliceSlot)
	f.setSwappable(t, bobToken, bobSlot)

	resp, data := f.do(t, http.MethodPost, "/api/swap/swap-request", aliceToken, map[string]string{
		"my_slot_id":    aliceSlot.ID.String(),
		"their_slot_id": bobSlot.ID.String(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("swap-request returned %d: %s", resp.StatusCode, data)
	}

	resp, data = f.do(t, http.MethodGet, "/api/swap/my-requests", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my-requests returned %d", resp.StatusCode)
	}
	var lists struct {
		Incoming []*model.SwapRequest `json:"incoming"`
		Outgoing []*model.SwapRequest `json:"outgoing"`
		History  []*model.SwapRequest `json:"history"`
	}
	if err := json.Unmarshal(data, &lists); err != nil {
		t.Fatalf("failed to decode lists: %v", err)
	}
	if len(lists.Incoming) != 1 || len(lists.Outgoing) != 0 || len(lists.History) != 0 {
		t.Errorf("expected one incoming request for bob, got %+v", lists)
	}
}
