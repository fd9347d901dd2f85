package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

type PayoutsUseCases struct {
	Create   portsin.CreatePayoutUseCase
	Get      portsin.GetPayoutUseCase
	List     portsin.ListPayoutsUseCase
	Approve  portsin.ApprovePayoutUseCase
	Reject   portsin.RejectPayoutUseCase
	Generate portsin.GeneratePayoutTransactionUseCase
	Submit   portsin.SubmitSignedPayoutUseCase
	Cancel   portsin.CancelPayoutUseCase
}

type PayoutsController struct {
	useCases PayoutsUseCases
	logger   *log.Logger
}

type createPayoutPayload struct {
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Chain              string `json:"chain"`
	DestinationID      string `json:"destination_id,omitempty"`
	DestinationAddress string `json:"destination_address,omitempty"`
}

type reviewPayoutPayload struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type submitSignedPayoutPayload struct {
	SignedTransaction string `json:"signed_transaction"`
}

func NewPayoutsController(useCases PayoutsUseCases, logger *log.Logger) *PayoutsController {
	return &PayoutsController{useCases: useCases, logger: logger}
}

func (c *PayoutsController) CreatePayout(w http.ResponseWriter, r *http.Request) {
	payload := createPayoutPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	merchantID := pathParam(r, "merchantID")
	output, appErr := c.useCases.Create.Execute(r.Context(), dto.CreatePayoutCommand{
		MerchantID:         merchantID,
		Amount:             payload.Amount,
		Currency:           payload.Currency,
		Chain:              payload.Chain,
		DestinationID:      payload.DestinationID,
		DestinationAddress: payload.DestinationAddress,
		Now:                time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	w.Header().Set("Location", "/v1/merchants/"+merchantID+"/payouts/"+output.Payout.ID)
	writeJSON(w, http.StatusCreated, output)
}

func (c *PayoutsController) ListPayouts(w http.ResponseWriter, r *http.Request) {
	limit, appErr := parseLimit(r)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.useCases.List.Execute(r.Context(), dto.ListPayoutsQuery{
		MerchantID: pathParam(r, "merchantID"),
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		Limit:      limit,
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *PayoutsController) GetPayout(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.useCases.Get.Execute(r.Context(), dto.GetPayoutQuery{
		MerchantID: pathParam(r, "merchantID"),
		ID:         pathParam(r, "payoutID"),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *PayoutsController) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, c.useCases.Approve)
}

func (c *PayoutsController) RejectPayout(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, c.useCases.Reject)
}

type reviewUseCase interface {
	Execute(ctx context.Context, command dto.ReviewPayoutCommand) (dto.PayoutResource, *apperrors.AppError)
}

// review serves approve and reject; the actor comes from the upstream authorization layer.
func (c *PayoutsController) review(w http.ResponseWriter, r *http.Request, useCase reviewUseCase) {
	payload := reviewPayoutPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, true); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := useCase.Execute(r.Context(), dto.ReviewPayoutCommand{
		MerchantID: pathParam(r, "merchantID"),
		PayoutID:   pathParam(r, "payoutID"),
		ActorID:    strings.TrimSpace(r.Header.Get(headerActorID)),
		ActorRole:  strings.TrimSpace(r.Header.Get(headerActorRole)),
		Notes:      strings.TrimSpace(payload.Notes),
		Reason:     strings.TrimSpace(payload.Reason),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *PayoutsController) GenerateTransaction(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.useCases.Generate.Execute(r.Context(), dto.GeneratePayoutTransactionCommand{
		MerchantID: pathParam(r, "merchantID"),
		PayoutID:   pathParam(r, "payoutID"),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *PayoutsController) SubmitSignedTransaction(w http.ResponseWriter, r *http.Request) {
	payload := submitSignedPayoutPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := c.useCases.Submit.Execute(r.Context(), dto.SubmitSignedPayoutCommand{
		MerchantID:        pathParam(r, "merchantID"),
		PayoutID:          pathParam(r, "payoutID"),
		SignedTransaction: strings.TrimSpace(payload.SignedTransaction),
		Now:               time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	// Broadcast but not yet confirmed; the confirmation sweep settles it.
	if resource.Status == valueobjects.PayoutStatusProcessing.String() {
		writeJSON(w, http.StatusAccepted, resource)
		return
	}
	writeJSON(w, http.StatusOK, resource)
}

func (c *PayoutsController) CancelPayout(w http.ResponseWriter, r *http.Request) {
	resource, appErr := c.useCases.Cancel.Execute(r.Context(), dto.CancelPayoutCommand{
		MerchantID: pathParam(r, "merchantID"),
		PayoutID:   pathParam(r, "payoutID"),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}
