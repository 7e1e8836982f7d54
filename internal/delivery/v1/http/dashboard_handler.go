package http

import (
	"net/http"

	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
)

type DashboardHandler struct {
	reportUsecase usecase.ReportUC
	logger        logger.Logger
}

func NewDashboardHandler(reportUsecase usecase.ReportUC, logger logger.Logger) *DashboardHandler {
	return &DashboardHandler{reportUsecase: reportUsecase, logger: logger}
}

// getDashboardSummary
//
//	@Summary		Сводка дашборда
//	@Description	Число товаров, товары на пороге дозаказа, выручка и прибыль за всё время
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	DashboardSummaryResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/dashboard/summary [get]
func (h *DashboardHandler) getDashboardSummary(w http.ResponseWriter, r *http.Request) {
	const op = "http.getDashboardSummary"

	summary, err := h.reportUsecase.GetDashboardSummary(r.Context())
	if err != nil {
		writeErrorLogged(w, h.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toDashboardSummaryResponse(summary))
}
