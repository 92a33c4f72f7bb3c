package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/api/respond"
	"github.com/brainpal/brainpal-backend/internal/api/validate"
	"github.com/brainpal/brainpal-backend/internal/model"
	"github.com/brainpal/brainpal-backend/internal/services"
)

type BillingHandler struct {
	billing *services.BillingService
	users   *services.UserService
	// webhookSecret signs provider callbacks. Empty disables verification,
	// which is tolerable only outside production.
	webhookSecret string
	log           zerolog.Logger
}

func NewBillingHandler(billing *services.BillingService, users *services.UserService, webhookSecret string, log zerolog.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, users: users, webhookSecret: webhookSecret, log: log}
}

// GetCredits GET /api/billing/credits
func (h *BillingHandler) GetCredits(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	state, err := h.billing.State(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, state)
}

// Subscribe POST /api/billing/subscribe
func (h *BillingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		Plan          model.Plan `json:"plan"`
		TransactionID string     `json:"transactionId"`
		PaymentMethod string     `json:"paymentMethod"`
		Amount        float64    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Subscribe(req.Plan, req.TransactionID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	state, err := h.billing.Subscribe(r.Context(), u.UserID, req.Plan, services.PaymentInfo{
		TransactionID: req.TransactionID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, state)
}

// PurchaseCredits POST /api/billing/credits
func (h *BillingHandler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	var req struct {
		PackageSize   string  `json:"packageSize"`
		TransactionID string  `json:"transactionId"`
		PaymentMethod string  `json:"paymentMethod"`
		Amount        float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.PurchaseCredits(req.PackageSize, req.TransactionID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	state, err := h.billing.PurchaseCredits(r.Context(), u.UserID, req.PackageSize, services.PaymentInfo{
		TransactionID: req.TransactionID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, state)
}

// Cancel POST /api/billing/cancel
func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	res, err := h.billing.Cancel(r.Context(), u.UserID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, res)
}

// History GET /api/billing/history?limit=
func (h *BillingHandler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := actorUser(w, r, h.users)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	history, err := h.billing.History(r.Context(), u.UserID, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": history, "count": len(history)})
}

// webhookEvent is the normalized payment-provider callback. Both provider
// integrations post the same shape after their own verification step.
type webhookEvent struct {
	Type          string  `json:"type"` // "subscription" or "purchase"
	UserID        string  `json:"userId"`
	Plan          string  `json:"plan"`
	PackageSize   string  `json:"packageSize"`
	TransactionID string  `json:"transactionId"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"`
}

// Webhook POST /api/billing/webhook. No bearer auth; authenticity comes from
// the HMAC signature over the raw body. Replays of a transaction id are
// answered 200 so the provider stops retrying.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respond.WriteBadRequest(w, "unreadable body")
		return
	}

	if h.webhookSecret == "" {
		h.log.Warn().Msg("webhook signature verification is DISABLED; set the webhook secret in production")
	} else if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		respond.WriteError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if ev.UserID == "" || ev.TransactionID == "" {
		respond.WriteBadRequest(w, "userId and transactionId are required")
		return
	}

	payment := services.PaymentInfo{
		TransactionID: ev.TransactionID,
		PaymentMethod: ev.PaymentMethod,
		Amount:        ev.Amount,
	}
	var state *services.BillingState
	switch ev.Type {
	case "subscription":
		state, err = h.billing.Subscribe(r.Context(), ev.UserID, model.Plan(ev.Plan), payment)
	case "purchase":
		state, err = h.billing.PurchaseCredits(r.Context(), ev.UserID, ev.PackageSize, payment)
	default:
		respond.WriteBadRequest(w, "type must be subscription or purchase")
		return
	}
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"received": true, "state": state})
}

func (h *BillingHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
