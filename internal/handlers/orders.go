package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/tommy2310DK/Aspect4/internal/errors"
	"github.com/tommy2310DK/Aspect4/internal/logging"
	"github.com/tommy2310DK/Aspect4/internal/models"
	"github.com/tommy2310DK/Aspect4/internal/service"
	"github.com/tommy2310DK/Aspect4/internal/validator"
)

type OrdersHandler struct {
	svc       *service.OrderService
	validator *validator.RequestValidator
}

func NewOrdersHandler(svc *service.OrderService) *OrdersHandler {
	return &OrdersHandler{
		svc:       svc,
		validator: validator.NewRequestValidator(),
	}
}

// GetOrders serves GET /orders: parse and validate the query, run the
// reconciliation pipeline, answer with the report JSON.
func (h *OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Worst case is limit orders times four backend calls with retries.
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	q, err := parseQuery(r)
	if err != nil {
		zap.L().Error("Invalid query parameter", zap.Error(err))
		writeError(w, err)
		return
	}

	window, appErr := h.validator.ValidateQuery(q, time.Now())
	if appErr != nil {
		zap.L().Error("Request validation failed",
			zap.Error(appErr),
			zap.String("customer_number", q.CustomerNumber),
		)
		writeError(w, appErr)
		return
	}

	ctx = logging.WithCustomerNumber(ctx, q.CustomerNumber)

	zap.L().Info("Processing order query",
		zap.String("customer_number", q.CustomerNumber),
		zap.String("order_number", q.OrderNumber),
		zap.String("order_status", q.OrderStatus),
		zap.Int("limit", q.Limit),
		zap.Int("min_date", window.MinDate),
		zap.Int("max_date", window.MaxDate),
	)

	report, rerr := h.svc.HandleOrderQuery(ctx, q, window)
	if rerr != nil {
		zap.L().Error("Reconciliation failed", zap.Error(rerr))
		writeError(w, rerr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)

	zap.L().Info("Order query completed",
		zap.Int("total_orders_fetched", report.TotalOrdersFetched),
		zap.Int("orders_with_lines", report.OrdersWithLines),
		zap.Int("orders_without_lines", report.OrdersWithoutLines),
	)
}

func parseQuery(r *http.Request) (*models.OrderQuery, error) {
	values := r.URL.Query()
	q := &models.OrderQuery{
		CustomerNumber: values.Get("customer_number"),
		OrderNumber:    values.Get("order_number"),
		StartDate:      values.Get("start_date"),
		EndDate:        values.Get("end_date"),
		OrderStatus:    values.Get("order_status"),
	}

	var err error
	if q.Days, err = intParam(values.Get("days"), "days"); err != nil {
		return nil, err
	}
	if q.Limit, err = intParam(values.Get("limit"), "limit"); err != nil {
		return nil, err
	}
	return q, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ErrValidation(name+" must be an integer", err)
	}
	return v, nil
}

// writeError answers with the error's message and detail text. The wrapped
// internal error stays in the logs only.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	body := appErr.Message
	if appErr.Details != "" {
		body += ": " + appErr.Details
	}
	http.Error(w, body, appErr.StatusCode)
}
