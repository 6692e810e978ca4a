package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/cartsync"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/pricing"
)

// --- helpers ---

func newTestCartHandler(t *testing.T) *CartHandler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	storage := cart.NewRedisStorage(client)
	manager := cart.NewManager(storage)
	hub := cartsync.NewHub(client, storage)
	t.Cleanup(hub.Close)

	pricer := pricing.NewEngine(pricing.DefaultConfig(), pricing.DefaultTable())
	return NewCartHandler(manager, hub, pricer, 5*time.Second)
}

func withSession(r *http.Request, sessionID string) *http.Request {
	ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
	return r.WithContext(ctx)
}

func withModelID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("model_id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func addItem(t *testing.T, h *CartHandler, session string, body AddItemRequestDTO) CartResponseDTO {
	t.Helper()

	payload, _ := json.Marshal(body)
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(payload)), session)

	h.AddItem(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

// --- AddItem tests ---

func TestAddItem_Success(t *testing.T) {
	handler := newTestCartHandler(t)

	response := addItem(t, handler, "session-1", AddItemRequestDTO{
		ModelID:   "runner-x",
		Size:      "42",
		Name:      "Runner X",
		UnitPrice: 12500,
		Quantity:  2,
	})

	if len(response.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(response.Lines))
	}
	if response.Lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", response.Lines[0].Quantity)
	}
	if response.ItemCount != 2 {
		t.Errorf("expected item_count 2, got %d", response.ItemCount)
	}
}

func TestAddItem_MergesSameVariant(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 1})
	response := addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 3})

	if len(response.Lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(response.Lines))
	}
	if response.ItemCount != 4 {
		t.Errorf("expected item_count 4, got %d", response.ItemCount)
	}
}

func TestAddItem_InvalidBody(t *testing.T) {
	handler := newTestCartHandler(t)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewBufferString("{not json")), "session-1")

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_MissingRequiredFields(t *testing.T) {
	handler := newTestCartHandler(t)

	payload, _ := json.Marshal(AddItemRequestDTO{ModelID: "runner-x", UnitPrice: 12500})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(payload)), "session-1")

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "invalid_item" {
		t.Errorf("expected code 'invalid_item', got '%s'", response.Code)
	}
}

func TestAddItem_NonPositivePrice(t *testing.T) {
	handler := newTestCartHandler(t)

	payload, _ := json.Marshal(AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 0, Quantity: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(payload)), "session-1")

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestAddItem_MissingSession(t *testing.T) {
	handler := newTestCartHandler(t)

	payload, _ := json.Marshal(AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 1})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/v1/cart/items", bytes.NewReader(payload))

	handler.AddItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

// --- GetCart tests ---

func TestGetCart_EmptyIsArray(t *testing.T) {
	handler := newTestCartHandler(t)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/cart", nil), "session-1")

	handler.GetCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var raw struct {
		Lines json.RawMessage `json:"lines"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw.Lines) != "[]" {
		t.Errorf("expected lines to be '[]', got '%s'", string(raw.Lines))
	}
}

func TestGetCart_SessionsAreIsolated(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 1})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/cart", nil), "session-2")

	handler.GetCart(recorder, request)

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Lines) != 0 {
		t.Errorf("expected empty cart for other session, got %d lines", len(response.Lines))
	}
}

// --- UpdateQuantity tests ---

func TestUpdateQuantity_RemovesAtZero(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 1})

	payload, _ := json.Marshal(UpdateQuantityRequestDTO{ModelID: "runner-x", Size: "42", Delta: -1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("PATCH", "/api/v1/cart/items", bytes.NewReader(payload)), "session-1")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Lines) != 0 {
		t.Errorf("expected line removed, got %d lines", len(response.Lines))
	}
}

func TestUpdateQuantity_UnknownLineIsNoOp(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 2})

	payload, _ := json.Marshal(UpdateQuantityRequestDTO{ModelID: "ghost", Size: "40", Delta: 1})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("PATCH", "/api/v1/cart/items", bytes.NewReader(payload)), "session-1")

	handler.UpdateQuantity(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ItemCount != 2 {
		t.Errorf("expected item_count 2, got %d", response.ItemCount)
	}
}

// --- RemoveItem tests ---

func TestRemoveItem_Success(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 1})
	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "trail-pro", Size: "43", UnitPrice: 15000, Quantity: 1})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/api/v1/cart/items/runner-x?size=42", nil), "session-1")
	request = withModelID(request, "runner-x")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Lines) != 1 {
		t.Fatalf("expected 1 line left, got %d", len(response.Lines))
	}
	if response.Lines[0].ModelID != "trail-pro" {
		t.Errorf("expected 'trail-pro' to remain, got '%s'", response.Lines[0].ModelID)
	}
}

func TestRemoveItem_MissingSize(t *testing.T) {
	handler := newTestCartHandler(t)

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/api/v1/cart/items/runner-x", nil), "session-1")
	request = withModelID(request, "runner-x")

	handler.RemoveItem(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

// --- ClearCart tests ---

func TestClearCart_Success(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 2})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("DELETE", "/api/v1/cart", nil), "session-1")

	handler.ClearCart(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response CartResponseDTO
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.ItemCount != 0 {
		t.Errorf("expected empty cart, got item_count %d", response.ItemCount)
	}
}

// --- GetPricing tests ---

func TestGetPricing_WithPromo(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 10000, Quantity: 2})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/cart/pricing?promo=WELCOME10", nil), "session-1")

	handler.GetPricing(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response struct {
		Subtotal int64 `json:"subtotal"`
		Discount int64 `json:"discount"`
		Delivery int64 `json:"delivery"`
		Total    int64 `json:"total"`
	}
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Subtotal != 20000 {
		t.Errorf("expected subtotal 20000, got %d", response.Subtotal)
	}
	if response.Discount != 2000 {
		t.Errorf("expected discount 2000, got %d", response.Discount)
	}
	if response.Delivery != 5000 {
		t.Errorf("expected delivery 5000, got %d", response.Delivery)
	}
	if response.Total != 23000 {
		t.Errorf("expected total 23000, got %d", response.Total)
	}
}

// --- GetCount tests ---

func TestGetCount_ReflectsCart(t *testing.T) {
	handler := newTestCartHandler(t)

	addItem(t, handler, "session-1", AddItemRequestDTO{ModelID: "runner-x", Size: "42", UnitPrice: 12500, Quantity: 3})

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/cart/count", nil), "session-1")

	handler.GetCount(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, recorder.Code)
	}

	var response map[string]int
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["count"] != 3 {
		t.Errorf("expected count 3, got %d", response["count"])
	}
}
