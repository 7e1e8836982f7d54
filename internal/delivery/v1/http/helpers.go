package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

// maxMoneyCents ограничивает цену: 1 млрд в основных единицах валюты.
const maxMoneyCents = 1_000_000_000 * 100

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// ToHTTPResponse сопоставляет вид ошибки статусу и тексту ответа.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidRequest):
		return http.StatusBadRequest, e.Message(err, e.ErrInvalidRequest)
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusBadRequest, e.Message(err, e.ErrProductNotFound)
	case errors.Is(err, e.ErrInsufficientStock):
		return http.StatusBadRequest, e.Message(err, e.ErrInsufficientStock)
	case errors.Is(err, e.ErrStockViolation):
		return http.StatusBadRequest, e.ErrStockViolation.Error()
	case errors.Is(err, e.ErrSaleNotFound):
		return http.StatusNotFound, e.Message(err, e.ErrSaleNotFound)
	case errors.Is(err, e.ErrReceiptNotFound):
		return http.StatusNotFound, e.Message(err, e.ErrReceiptNotFound)
	case errors.Is(err, e.ErrStorageFailure):
		return http.StatusInternalServerError, e.ErrStorageFailure.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	writeErrorStatus(w, code, msg)
}

func writeErrorStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса ограниченного размера в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return e.WithDetail(e.ErrInvalidRequest, "malformed JSON body: %v", err)
	}

	return nil
}

// parseMoneyToCents переводит число вида 599.99 или 600 в копейки.
// Отрицательные значения, больше двух знаков после точки и слишком большие суммы отклоняются.
func parseMoneyToCents(field string, n json.Number) (int64, error) {
	if n == "" {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s is required", field)
	}

	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s must be a number", field)
	}
	if d.IsNegative() {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s must not be negative", field)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s must have at most 2 decimal places", field)
	}

	cents := d.Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(maxMoneyCents)) {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s is too large", field)
	}

	return cents.IntPart(), nil
}

// formatCents отдаёт копейки числом JSON в основных единицах: 150000 -> 1500, 49999 -> 499.99.
func formatCents(cents int64) json.Number {
	return json.Number(decimal.New(cents, -2).String())
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.WithDetail(e.ErrInvalidRequest, "%s must be a positive integer", name)
	}

	return id, nil
}

func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, e.WithDetail(e.ErrInvalidRequest, "limit must be an integer")
	}

	return limit, nil
}

// writeErrorLogged пишет ошибку в ответ; серверные ошибки логируются с причиной, клиентские предупреждением.
func writeErrorLogged(w http.ResponseWriter, log logger.Logger, op string, err error) {
	code, msg := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%s", op)
	} else {
		log.Warnf("%s: %d %s", op, code, msg)
	}

	writeErrorStatus(w, code, msg)
}
