package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/cart"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/checkout"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/notify"
	"github.com/yoogoworkspace/boot-snap-shopper/internal/pricing"
)

// OrderSubmitter is the checkout service surface, narrowed for testing.
type OrderSubmitter interface {
	Submit(ctx context.Context, cartStore checkout.CartStore, pricing domain.PricingResult) (*checkout.Submission, error)
}

type CheckoutHandler struct {
	manager   *cart.Manager
	pricer    *pricing.Engine
	submitter OrderSubmitter
	timeout   time.Duration
}

func NewCheckoutHandler(manager *cart.Manager, pricer *pricing.Engine, submitter OrderSubmitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		manager:   manager,
		pricer:    pricer,
		submitter: submitter,
		timeout:   timeout,
	}
}

type CheckoutRequestDTO struct {
	PromoCode string `json:"promo_code"`
}

func (h *CheckoutHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	sessionID := getSessionID(ctx)
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	store, err := h.manager.Get(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "failed to load cart")
		return
	}

	priced := h.pricer.Compute(store.Snapshot(), req.PromoCode)

	submission, err := h.submitter.Submit(ctx, store, priced)
	if err != nil {
		handleSubmitError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, submission)
}

func handleSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", "your cart is empty")
	case errors.Is(err, notify.ErrNoChannelAvailable):
		respondError(w, http.StatusServiceUnavailable, "no_channel_available", "no operator channel is available right now")
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "submission_in_progress", "your order is already being submitted")
	default:
		respondError(w, http.StatusInternalServerError, "order_failed", "failed to create order")
	}
}
