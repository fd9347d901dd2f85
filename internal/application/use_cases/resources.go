package use_cases

import (
	"strings"

	"stablesettle/internal/application/dto"
	"stablesettle/internal/domain/entities"
	valueobjects "stablesettle/internal/domain/value_objects"
	apperrors "stablesettle/internal/shared_kernel/errors"
)

func requireMerchantID(raw string) (string, *apperrors.AppError) {
	merchantID := strings.TrimSpace(raw)
	if merchantID == "" {
		return "", apperrors.NewValidation(
			"merchant_id_required",
			"merchant id is required",
			map[string]any{"field": "merchant_id"},
		)
	}
	return merchantID, nil
}

func requireField(field string, raw string) (string, *apperrors.AppError) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", apperrors.NewValidation(
			"invalid_request",
			field+" is required",
			map[string]any{"field": field},
		)
	}
	return value, nil
}

func missingDependency(code string, message string) *apperrors.AppError {
	return apperrors.NewInternal(code, message, nil)
}

func toPaymentIntentResource(intent entities.PaymentIntent) dto.PaymentIntentResource {
	return dto.PaymentIntentResource{
		ID:                intent.ID,
		MerchantID:        intent.MerchantID,
		Amount:            intent.Amount.String(),
		Currency:          intent.Currency.String(),
		Chain:             intent.Chain.String(),
		ExpectedTokenMint: valueobjects.FormatAddressForResponse(intent.Chain, intent.ExpectedTokenMint),
		TokenDecimals:     intent.TokenDecimals,
		PaymentAddress:    valueobjects.FormatAddressForResponse(intent.Chain, intent.PaymentAddress),
		Status:            intent.Status.String(),
		TxSignature:       intent.TxSignature,
		Confirmations:     intent.Confirmations,
		FailureReason:     intent.FailureReason,
		ExpiresAt:         intent.ExpiresAt,
		ConfirmedAt:       intent.ConfirmedAt,
		CreatedAt:         intent.CreatedAt,
	}
}

func toPayoutResource(payout entities.Payout) dto.PayoutResource {
	return dto.PayoutResource{
		ID:                   payout.ID,
		MerchantID:           payout.MerchantID,
		Amount:               payout.Amount.String(),
		FeeAmount:            payout.FeeAmount.String(),
		NetAmount:            payout.NetAmount.String(),
		Currency:             payout.Currency.String(),
		Chain:                payout.Chain.String(),
		DestinationID:        payout.DestinationID,
		DestinationAddress:   valueobjects.FormatAddressForResponse(payout.Chain, payout.DestinationAddress),
		Status:               payout.Status.String(),
		RequiresApproval:     payout.RequiresApproval,
		UnsignedTransaction:  payout.UnsignedTransaction,
		SourceWalletAddress:  payout.SourceWalletAddress,
		TransactionExpiresAt: payout.TransactionExpiresAt,
		TxSignature:          payout.TxSignature,
		ErrorMessage:         payout.ErrorMessage,
		RejectionReason:      payout.RejectionReason,
		CreatedAt:            payout.CreatedAt,
		UpdatedAt:            payout.UpdatedAt,
	}
}

func toWalletResource(wallet entities.MerchantWallet) dto.WalletResource {
	return dto.WalletResource{
		ID:            wallet.ID,
		MerchantID:    wallet.MerchantID,
		Chain:         wallet.Chain.String(),
		Address:       valueobjects.FormatAddressForResponse(wallet.Chain, wallet.Address),
		ProofVerified: wallet.ProofVerified,
		VerifiedAt:    wallet.VerifiedAt,
		CreatedAt:     wallet.CreatedAt,
	}
}

func toDestinationResource(destination entities.SavedDestination) dto.DestinationResource {
	return dto.DestinationResource{
		ID:         destination.ID,
		MerchantID: destination.MerchantID,
		Chain:      destination.Chain.String(),
		Address:    valueobjects.FormatAddressForResponse(destination.Chain, destination.Address),
		Label:      destination.Label,
		CreatedAt:  destination.CreatedAt,
	}
}

func stringPtr(value string) *string {
	return &value
}
