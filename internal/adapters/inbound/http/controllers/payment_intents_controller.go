package controllers

import (
	"log"
	"net/http"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
)

type PaymentIntentsController struct {
	createUseCase portsin.CreatePaymentIntentUseCase
	getUseCase    portsin.GetPaymentIntentUseCase
	cancelUseCase portsin.CancelPaymentIntentUseCase
	logger        *log.Logger
}

type createPaymentIntentPayload struct {
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	Chain            string `json:"chain"`
	ExpiresInSeconds *int64 `json:"expires_in_seconds,omitempty"`
}

func NewPaymentIntentsController(
	createUseCase portsin.CreatePaymentIntentUseCase,
	getUseCase portsin.GetPaymentIntentUseCase,
	cancelUseCase portsin.CancelPaymentIntentUseCase,
	logger *log.Logger,
) *PaymentIntentsController {
	return &PaymentIntentsController{
		createUseCase: createUseCase,
		getUseCase:    getUseCase,
		cancelUseCase: cancelUseCase,
		logger:        logger,
	}
}

func (c *PaymentIntentsController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	payload := createPaymentIntentPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	merchantID := pathParam(r, "merchantID")
	resource, appErr := c.createUseCase.Execute(r.Context(), dto.CreatePaymentIntentCommand{
		MerchantID:       merchantID,
		Amount:           payload.Amount,
		Currency:         payload.Currency,
		Chain:            payload.Chain,
		ExpiresInSeconds: payload.ExpiresInSeconds,
		Now:              time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	w.Header().Set("Location", "/v1/merchants/"+merchantID+"/payment-intents/"+resource.ID)
	writeJSON(w, http.StatusCreated, resource)
}

func (c *PaymentIntentsController) GetPaymentIntent(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.getUseCase.Execute(r.Context(), dto.GetPaymentIntentQuery{
		MerchantID: pathParam(r, "merchantID"),
		ID:         pathParam(r, "intentID"),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *PaymentIntentsController) CancelPaymentIntent(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.cancelUseCase.Execute(r.Context(), dto.CancelPaymentIntentCommand{
		MerchantID: pathParam(r, "merchantID"),
		ID:         pathParam(r, "intentID"),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}
