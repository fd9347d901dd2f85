package controllers

import (
	"log"
	"net/http"
	"time"

	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
)

type MerchantsUseCases struct {
	RegisterWallet    portsin.RegisterWalletUseCase
	IssueChallenge    portsin.IssueWalletChallengeUseCase
	VerifyProof       portsin.VerifyWalletProofUseCase
	CreateDestination portsin.CreateDestinationUseCase
	ListDestinations  portsin.ListDestinationsUseCase
	GetBalances       portsin.GetBalancesUseCase
	ConfigureWebhook  portsin.ConfigureMerchantWebhookUseCase
}

// MerchantsController serves the merchant's wallets, saved destinations, balances and
// webhook endpoint.
type MerchantsController struct {
	useCases MerchantsUseCases
	logger   *log.Logger
}

type registerWalletPayload struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

type verifyWalletProofPayload struct {
	Signature string `json:"signature"`
}

type createDestinationPayload struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
	Label   string `json:"label,omitempty"`
}

type configureWebhookPayload struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

func NewMerchantsController(useCases MerchantsUseCases, logger *log.Logger) *MerchantsController {
	return &MerchantsController{useCases: useCases, logger: logger}
}

func (c *MerchantsController) RegisterWallet(w http.ResponseWriter, r *http.Request) {
	payload := registerWalletPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := c.useCases.RegisterWallet.Execute(r.Context(), dto.RegisterWalletCommand{
		MerchantID: pathParam(r, "merchantID"),
		Chain:      payload.Chain,
		Address:    payload.Address,
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusCreated, resource)
}

func (c *MerchantsController) IssueWalletChallenge(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCases.IssueChallenge.Execute(r.Context(), dto.IssueWalletChallengeCommand{
		MerchantID: pathParam(r, "merchantID"),
		WalletID:   pathParam(r, "walletID"),
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *MerchantsController) VerifyWalletProof(w http.ResponseWriter, r *http.Request) {
	payload := verifyWalletProofPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := c.useCases.VerifyProof.Execute(r.Context(), dto.VerifyWalletProofCommand{
		MerchantID: pathParam(r, "merchantID"),
		WalletID:   pathParam(r, "walletID"),
		Signature:  payload.Signature,
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, resource)
}

func (c *MerchantsController) CreateDestination(w http.ResponseWriter, r *http.Request) {
	payload := createDestinationPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	resource, appErr := c.useCases.CreateDestination.Execute(r.Context(), dto.CreateDestinationCommand{
		MerchantID: pathParam(r, "merchantID"),
		Chain:      payload.Chain,
		Address:    payload.Address,
		Label:      payload.Label,
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusCreated, resource)
}

func (c *MerchantsController) ListDestinations(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCases.ListDestinations.Execute(r.Context(), dto.ListDestinationsQuery{
		MerchantID: pathParam(r, "merchantID"),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *MerchantsController) GetBalances(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCases.GetBalances.Execute(r.Context(), dto.GetBalancesQuery{
		MerchantID: pathParam(r, "merchantID"),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *MerchantsController) ConfigureWebhook(w http.ResponseWriter, r *http.Request) {
	payload := configureWebhookPayload{}
	if appErr := decodeJSONBody(r.Body, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.useCases.ConfigureWebhook.Execute(r.Context(), dto.ConfigureMerchantWebhookCommand{
		MerchantID: pathParam(r, "merchantID"),
		URL:        payload.URL,
		Secret:     payload.Secret,
		Now:        time.Now().UTC(),
	})
	if appErr != nil {
		failRequest(c.logger, w, r, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
