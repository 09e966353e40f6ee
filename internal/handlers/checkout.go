package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopfront/internal/models"
)

type checkoutResponse struct {
	TransactionID string          `json:"transaction_id"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
}

// Checkout handles POST /api/checkout. Prices are taken from the
// submission as is; they are not checked against the catalog.
func (a *API) Checkout(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if err := readJSON(w, r, &order); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if order.Currency == "" {
		order.Currency = models.DefaultCurrency
	}
	if msg := validateOrder(&order); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	order.TransactionID = uuid.NewString()
	order.ReceivedAt = time.Now().UTC()
	if order.Timestamp.IsZero() {
		order.Timestamp = order.ReceivedAt
	}

	if a.orders != nil {
		if err := a.orders.Publish(r.Context(), &order); err != nil {
			slog.Error("publish order", "transaction_id", order.TransactionID, "error", err)
			writeError(w, http.StatusServiceUnavailable, "order could not be queued")
			return
		}
	}

	slog.Info("order accepted",
		"transaction_id", order.TransactionID,
		"lines", len(order.Items),
		"total", order.Total.String(),
		"currency", order.Currency,
	)
	writeJSON(w, http.StatusOK, checkoutResponse{
		TransactionID: order.TransactionID,
		Total:         order.Total,
		Currency:      order.Currency,
	})
}
