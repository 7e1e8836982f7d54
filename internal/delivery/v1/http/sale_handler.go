package http

import (
	"net/http"

	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
)

const idempotencyKeyHeader = "Idempotency-Key"

type SaleHandler struct {
	saleUsecase   usecase.SaleUC
	reportUsecase usecase.ReportUC
	recentLimit   int
	logger        logger.Logger
}

func NewSaleHandler(saleUsecase usecase.SaleUC, reportUsecase usecase.ReportUC, recentLimit int, logger logger.Logger) *SaleHandler {
	return &SaleHandler{
		saleUsecase:   saleUsecase,
		reportUsecase: reportUsecase,
		recentLimit:   recentLimit,
		logger:        logger,
	}
}

// submitSale
//
//	@Summary		Проведение продажи
//	@Description	Атомарно списывает остатки и фиксирует продажу. Повтор с тем же Idempotency-Key возвращает ранее проведённую продажу.
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			Idempotency-Key	header		string				false	"Ключ идемпотентности"
//	@Param			request			body		SubmitSaleRequest	true	"Покупатель и строки продажи"
//	@Success		201				{object}	SubmitSaleResponse	"Продажа проведена"
//	@Success		200				{object}	SubmitSaleResponse	"Повтор по ключу идемпотентности"
//	@Failure		400				{object}	ErrorResponse		"Ошибка валидации, товар не найден или не хватает остатка"
//	@Failure		500				{object}	ErrorResponse		"Ошибка хранилища"
//	@Router			/sales [post]
func (h *SaleHandler) submitSale(w http.ResponseWriter, r *http.Request) {
	const op = "http.submitSale"

	var req SubmitSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	res, err := h.saleUsecase.SubmitSale(r.Context(), req.toUsecase(r.Header.Get(idempotencyKeyHeader)))
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}

	WriteSuccess(w, status, toSubmitSaleResponse(res.Sale))
}

// listRecentSales
//
//	@Summary		История продаж
//	@Description	Последние продажи, новые первыми
//	@Tags			sales
//	@Produce		json
//	@Param			limit	query		int				false	"Сколько продаж вернуть"
//	@Success		200		{array}		SaleResponse
//	@Failure		400		{object}	ErrorResponse	"Некорректный limit"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/sales [get]
func (h *SaleHandler) listRecentSales(w http.ResponseWriter, r *http.Request) {
	const op = "http.listRecentSales"

	limit, err := parseLimit(r, h.recentLimit)
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	sales, err := h.saleUsecase.ListRecentSales(r.Context(), limit)
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrSaleResponse(sales))
}

// getSale
//
//	@Summary		Продажа по ID
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		int	true	"ID продажи"
//	@Success		200	{object}	SaleResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse	"Продажа не найдена"
//	@Router			/sales/{id} [get]
func (h *SaleHandler) getSale(w http.ResponseWriter, r *http.Request) {
	const op = "http.getSale"

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	sale, err := h.saleUsecase.GetSale(r.Context(), id)
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSaleResponse(sale))
}

// getReceipt
//
//	@Summary		Чек продажи
//	@Description	Отдаёт архивный чек из объектного хранилища
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		int	true	"ID продажи"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		404	{object}	ErrorResponse	"Чек не найден"
//	@Router			/sales/{id}/receipt [get]
func (h *SaleHandler) getReceipt(w http.ResponseWriter, r *http.Request) {
	const op = "http.getReceipt"

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	data, err := h.saleUsecase.GetReceipt(r.Context(), id)
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// getSalesSummary
//
//	@Summary		Сводка продаж
//	@Description	Выручка и число заказов за сегодня и последние 7 дней (UTC), средний чек за неделю
//	@Tags			sales
//	@Produce		json
//	@Success		200	{object}	SalesSummaryResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/sales/summary [get]
func (h *SaleHandler) getSalesSummary(w http.ResponseWriter, r *http.Request) {
	const op = "http.getSalesSummary"

	summary, err := h.reportUsecase.GetSalesSummary(r.Context())
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toSalesSummaryResponse(summary))
}
