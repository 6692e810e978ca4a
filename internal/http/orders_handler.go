package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/repository"
)

// OrderReader serves the order-detail view the handoff message links to.
type OrderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, []domain.OrderItem, error)
}

type OrdersHandler struct {
	reader  OrderReader
	timeout time.Duration
}

func NewOrdersHandler(reader OrderReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{reader: reader, timeout: timeout}
}

type OrderResponseDTO struct {
	Order *domain.Order      `json:"order"`
	Items []domain.OrderItem `json:"items"`
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id must be a UUID")
		return
	}

	order, items, err := h.reader.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order_not_found", "no such order")
			return
		}
		respondError(w, http.StatusInternalServerError, "order_lookup_failed", "failed to load order")
		return
	}

	if items == nil {
		items = []domain.OrderItem{}
	}
	respondJSON(w, http.StatusOK, OrderResponseDTO{Order: order, Items: items})
}
