package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
)

type WebhookOutboxController struct {
	listFailedUseCase portsin.ListFailedWebhookEventsUseCase
	requeueUseCase    portsin.RequeueWebhookEventUseCase
	logger            *log.Logger
}

func NewWebhookOutboxController(
	listFailedUseCase portsin.ListFailedWebhookEventsUseCase,
	requeueUseCase portsin.RequeueWebhookEventUseCase,
	logger *log.Logger,
) *WebhookOutboxController {
	return &WebhookOutboxController{
		listFailedUseCase: listFailedUseCase,
		requeueUseCase:    requeueUseCase,
		logger:            logger,
	}
}

func (c *WebhookOutboxController) ListFailed(w http.ResponseWriter, r *http.Request) {
	limit, appErr := parseLimit(r)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.listFailedUseCase.Execute(r.Context(), dto.ListFailedWebhookEventsQuery{
		MerchantID: pathParam(r, "merchantID"),
		Limit:      limit,
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookOutboxController) Requeue(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.requeueUseCase.Execute(r.Context(), dto.RequeueWebhookEventCommand{
		MerchantID: pathParam(r, "merchantID"),
		EventID:    pathParam(r, "eventID"),
		OperatorID: strings.TrimSpace(r.Header.Get(headerActorID)),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
