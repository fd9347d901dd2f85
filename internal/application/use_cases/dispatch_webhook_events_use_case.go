package use_cases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	portsout "stablesettle/internal/application/ports/out"
	"stablesettle/internal/domain/policies"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

const webhookURLNotConfigured = "webhook_url_not_configured"

type dispatchWebhookEventsUseCase struct {
	repository portsout.WebhookOutboxRepository
	gateway    portsout.WebhookEventGateway
	clock      Clock
}

func NewDispatchWebhookEventsUseCase(
	repository portsout.WebhookOutboxRepository,
	gateway portsout.WebhookEventGateway,
	clock Clock,
) portsin.DispatchWebhookEventsUseCase {
	return &dispatchWebhookEventsUseCase{
		repository: repository,
		gateway:    gateway,
		clock:      clock,
	}
}

func (u *dispatchWebhookEventsUseCase) Execute(
	ctx context.Context,
	command dto.DispatchWebhookEventsCommand,
) (dto.DispatchWebhookEventsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.DispatchWebhookEventsOutput{}, missingDependency("webhook_outbox_repository_missing", "webhook outbox repository is required")
	}
	if u.gateway == nil {
		return dto.DispatchWebhookEventsOutput{}, missingDependency("webhook_event_gateway_missing", "webhook event gateway is required")
	}
	if command.BatchSize <= 0 {
		return dto.DispatchWebhookEventsOutput{}, apperrors.NewValidation(
			"dispatch_webhook_batch_size_invalid",
			"dispatch webhook batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}
	workerID := strings.TrimSpace(command.WorkerID)
	if workerID == "" {
		return dto.DispatchWebhookEventsOutput{}, apperrors.NewValidation(
			"dispatch_webhook_worker_id_invalid",
			"dispatch webhook worker id is required",
			nil,
		)
	}
	if command.LeaseDuration <= 0 {
		return dto.DispatchWebhookEventsOutput{}, apperrors.NewValidation(
			"dispatch_webhook_lease_duration_invalid",
			"dispatch webhook lease duration must be greater than zero",
			map[string]any{"lease_duration": command.LeaseDuration.String()},
		)
	}
	heartbeatInterval, appErr := webhookLeaseHeartbeatInterval(command.LeaseDuration)
	if appErr != nil {
		return dto.DispatchWebhookEventsOutput{}, appErr
	}

	startedAt := time.Now()
	now := resolveNow(u.clock, command.Now)
	events, appErr := u.repository.ClaimDueForDispatch(
		ctx,
		now,
		command.BatchSize,
		workerID,
		now.Add(command.LeaseDuration),
	)
	if appErr != nil {
		return dto.DispatchWebhookEventsOutput{}, appErr
	}

	output := dto.DispatchWebhookEventsOutput{Claimed: len(events)}
	for _, event := range events {
		if event.DestinationURL == nil || strings.TrimSpace(*event.DestinationURL) == "" {
			updated, markErr := u.repository.MarkFailed(ctx, dto.WebhookDeliveryResult{
				ID:         event.ID,
				LeaseOwner: workerID,
				Attempts:   event.Attempts,
				LastError:  webhookURLNotConfigured,
				Now:        now,
			})
			if markErr != nil {
				return output, markErr
			}
			if updated {
				output.Unconfigured++
			} else {
				output.Skipped++
			}
			continue
		}

		sendOutput, sendErr, heartbeatErr := u.sendWithHeartbeat(ctx, event, workerID, command.LeaseDuration, heartbeatInterval)
		countWebhookResponse(&output, sendOutput.StatusCode, sendErr)

		var statusCode *int
		if sendOutput.StatusCode > 0 {
			code := sendOutput.StatusCode
			statusCode = &code
		}

		if sendErr == nil && sendOutput.StatusCode >= 200 && sendOutput.StatusCode <= 299 {
			updated, markErr := u.repository.MarkDelivered(ctx, dto.WebhookDeliveryResult{
				ID:                 event.ID,
				LeaseOwner:         workerID,
				Attempts:           event.Attempts + 1,
				ResponseStatusCode: statusCode,
				Now:                now,
			})
			if markErr != nil {
				return output, markErr
			}
			if updated {
				output.Delivered++
			} else {
				output.Skipped++
			}
			if heartbeatErr != nil {
				return output, heartbeatErr
			}
			continue
		}

		attempts := event.Attempts + 1
		result := dto.WebhookDeliveryResult{
			ID:                 event.ID,
			LeaseOwner:         workerID,
			Attempts:           attempts,
			ResponseStatusCode: statusCode,
			LastError:          webhookDispatchErrorMessage(sendErr, sendOutput.StatusCode),
			Now:                now,
		}
		maxAttempts := event.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = policies.DefaultWebhookMaxAttempts
		}

		var updated bool
		var markErr *apperrors.AppError
		if attempts >= maxAttempts {
			updated, markErr = u.repository.MarkFailed(ctx, result)
			if updated {
				output.Failed++
			}
		} else {
			result.NextRetryAt = now.Add(policies.WebhookRetryDelay(attempts))
			updated, markErr = u.repository.MarkRetry(ctx, result)
			if updated {
				output.Retried++
			}
		}
		if markErr != nil {
			return output, markErr
		}
		if !updated {
			output.Skipped++
		}
		if heartbeatErr != nil {
			return output, heartbeatErr
		}
	}

	output.LatencyMS = time.Since(startedAt).Milliseconds()
	return output, nil
}

func (u *dispatchWebhookEventsUseCase) sendWithHeartbeat(
	ctx context.Context,
	event dto.ClaimedWebhookEvent,
	workerID string,
	leaseDuration time.Duration,
	heartbeatInterval time.Duration,
) (dto.SendWebhookEventOutput, *apperrors.AppError, *apperrors.AppError) {
	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	heartbeatErrCh := make(chan *apperrors.AppError, 1)
	heartbeatDoneCh := make(chan struct{})
	go func() {
		defer close(heartbeatDoneCh)
		u.runLeaseHeartbeat(heartbeatCtx, event.ID, workerID, leaseDuration, heartbeatInterval, heartbeatErrCh)
	}()

	secret := ""
	if event.SigningSecret != nil {
		secret = *event.SigningSecret
	}
	sendOutput, sendErr := u.gateway.SendWebhookEvent(ctx, dto.SendWebhookEventInput{
		EventID:        event.ID,
		EventType:      event.EventType,
		DestinationURL: strings.TrimSpace(*event.DestinationURL),
		SigningSecret:  secret,
		Payload:        event.Payload,
	})
	stopHeartbeat()
	<-heartbeatDoneCh

	return sendOutput, sendErr, drainWebhookHeartbeatError(heartbeatErrCh)
}

func (u *dispatchWebhookEventsUseCase) runLeaseHeartbeat(
	ctx context.Context,
	eventID string,
	workerID string,
	leaseDuration time.Duration,
	interval time.Duration,
	errorCh chan<- *apperrors.AppError,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tickAt := <-ticker.C:
			if appErr := u.renewWebhookLease(ctx, eventID, workerID, leaseDuration, tickAt.UTC()); appErr != nil {
				reportWebhookHeartbeatError(errorCh, appErr)
				return
			}
		}
	}
}

func (u *dispatchWebhookEventsUseCase) renewWebhookLease(
	ctx context.Context,
	eventID string,
	workerID string,
	leaseDuration time.Duration,
	updatedAt time.Time,
) *apperrors.AppError {
	renewed, renewErr := u.repository.RenewLease(ctx, eventID, workerID, updatedAt.Add(leaseDuration), updatedAt)
	if renewErr != nil {
		// The send was cancelled along with the heartbeat context.
		if ctx.Err() != nil {
			return nil
		}
		return apperrors.NewInternal(
			"dispatch_webhook_lease_renew_failed",
			"failed to renew webhook event lease",
			map[string]any{"event_id": eventID, "worker_id": workerID, "error": renewErr.Message},
		)
	}
	if !renewed {
		return apperrors.NewInternal(
			"dispatch_webhook_lease_lost",
			"webhook event lease ownership was lost during dispatch",
			map[string]any{"event_id": eventID, "worker_id": workerID},
		)
	}
	return nil
}

func webhookLeaseHeartbeatInterval(leaseDuration time.Duration) (time.Duration, *apperrors.AppError) {
	interval := leaseDuration / 3
	if interval <= 0 || interval >= leaseDuration {
		return 0, apperrors.NewValidation(
			"dispatch_webhook_lease_heartbeat_interval_invalid",
			"dispatch webhook lease duration is too small for heartbeat interval",
			map[string]any{"lease_duration": leaseDuration.String()},
		)
	}
	return interval, nil
}

func reportWebhookHeartbeatError(errorCh chan<- *apperrors.AppError, appErr *apperrors.AppError) {
	select {
	case errorCh <- appErr:
	default:
	}
}

func drainWebhookHeartbeatError(errorCh <-chan *apperrors.AppError) *apperrors.AppError {
	select {
	case appErr := <-errorCh:
		return appErr
	default:
		return nil
	}
}

func countWebhookResponse(output *dto.DispatchWebhookEventsOutput, statusCode int, sendErr *apperrors.AppError) {
	switch {
	case statusCode >= 200 && statusCode <= 299:
		output.HTTP2xxCount++
	case statusCode >= 400 && statusCode <= 499:
		output.HTTP4xxCount++
	case statusCode >= 500:
		output.HTTP5xxCount++
	case sendErr != nil:
		output.NetworkErrorCount++
	}
}

func webhookDispatchErrorMessage(appErr *apperrors.AppError, statusCode int) string {
	if statusCode > 0 && (statusCode < 200 || statusCode > 299) {
		return fmt.Sprintf("webhook endpoint returned status %d", statusCode)
	}
	if appErr != nil {
		if message := strings.TrimSpace(appErr.Message); message != "" {
			return message
		}
		if code := strings.TrimSpace(appErr.Code); code != "" {
			return code
		}
	}
	return "webhook dispatch failed"
}
