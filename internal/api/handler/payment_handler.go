package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type PaymentHandler struct {
	paymentService service.IPaymentService
}

func NewPaymentHandler(paymentService service.IPaymentService) *PaymentHandler {
	if paymentService == nil {
		panic("paymentService cannot be nil")
	}
	return &PaymentHandler{paymentService: paymentService}
}

// CreateIntent POST /payment/create-intent，Idempotency-Key 會轉交給金流
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateIntentDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	intent, err := h.paymentService.CreateIntent(r.Context(), util.GetUserIDFromContext(r.Context()), *req.Amount, r.Header.Get(constants.IdempotencyKeyHeader))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, dto.CreateIntentResponse{ClientSecret: intent.ClientSecret})
}
