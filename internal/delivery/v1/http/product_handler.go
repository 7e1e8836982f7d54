package http

import (
	"errors"
	"net/http"

	"github.com/DRSN-tech/inventory-backend/internal/usecase"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// createProduct
//
//	@Summary		Регистрация нового товара
//	@Description	Создаёт товар каталога. Если порог дозаказа не передан, используется 5.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResponse			"Успешное создание"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	const op = "http.createProduct"

	var body CreateProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	req, err := body.toUsecase()
	if err != nil {
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// listProducts
//
//	@Summary	Список товаров
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		ProductResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	const op = "http.listProducts"

	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrProductResponse(products))
}

// getProduct
//
//	@Summary	Товар по ID
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse	"Товар не найден"
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	const op = "http.getProduct"

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	product, err := p.productUsecase.GetProduct(r.Context(), id)
	if err != nil {
		// Вне продажи отсутствующий товар означает 404, а не ошибка запроса
		if errors.Is(err, e.ErrProductNotFound) {
			p.logger.Warnf("%s: product %d not found", op, id)
			writeErrorStatus(w, http.StatusNotFound, e.ErrProductNotFound.Error())
			return
		}
		writeErrorLogged(w, p.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}
