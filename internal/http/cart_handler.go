package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/cartsync"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/pricing"
)

type CartHandler struct {
	manager *cart.Manager
	hub     *cartsync.Hub
	pricer  *pricing.Engine
	timeout time.Duration
}

func NewCartHandler(manager *cart.Manager, hub *cartsync.Hub, pricer *pricing.Engine, timeout time.Duration) *CartHandler {
	return &CartHandler{
		manager: manager,
		hub:     hub,
		pricer:  pricer,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ModelID   string `json:"model_id"`
	Size      string `json:"size"`
	Variant   string `json:"variant"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	ModelID string `json:"model_id"`
	Size    string `json:"size"`
	Variant string `json:"variant"`
	Delta   int    `json:"delta"`
}

type CartResponseDTO struct {
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
}

func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return nil, false
	}

	store, err := h.manager.Get(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "failed to load cart")
		return nil, false
	}
	return store, true
}

func cartResponse(store *cart.Store) CartResponseDTO {
	snap := store.Snapshot()
	lines := snap.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponseDTO{Lines: lines, ItemCount: snap.ItemCount()}
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ModelID == "" || req.Size == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "model_id and size are required")
		return
	}
	if req.UnitPrice <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must be positive")
		return
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	err := store.Add(ctx, domain.CartLine{
		ModelID:   req.ModelID,
		Size:      req.Size,
		Variant:   req.Variant,
		Category:  req.Category,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		ImageURL:  req.ImageURL,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_write_failed", "failed to persist cart")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(store))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ModelID == "" || req.Size == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "model_id and size are required")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	key := domain.LineKey{ModelID: req.ModelID, Size: req.Size, Variant: req.Variant}
	if err := store.UpdateQuantity(ctx, key, req.Delta); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_write_failed", "failed to persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	modelID := chi.URLParam(r, "model_id")
	size := r.URL.Query().Get("size")
	if modelID == "" || size == "" {
		respondError(w, http.StatusBadRequest, "invalid_item", "model_id and size are required")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	key := domain.LineKey{ModelID: modelID, Size: size, Variant: r.URL.Query().Get("variant")}
	if err := store.Remove(ctx, key); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_write_failed", "failed to persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := store.Clear(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_write_failed", "failed to persist cart")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store))
}

// GetPricing previews the priced cart without submitting. Unknown promo
// codes are inert, so this never fails on shopper input.
func (h *CartHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	result := h.pricer.Compute(store.Snapshot(), r.URL.Query().Get("promo"))
	respondJSON(w, http.StatusOK, result)
}

// GetCount serves the badge count kept in sync across surfaces by the
// session's syncer.
func (h *CartHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	syncer := h.hub.For(store)
	respondJSON(w, http.StatusOK, map[string]int{"count": syncer.Count()})
}
