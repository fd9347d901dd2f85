package router

import (
	"net/http"

	"stablesettle/internal/adapters/inbound/http/controllers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Dependencies struct {
	HealthController         *controllers.HealthController
	SwaggerController        *controllers.SwaggerController
	AssetsController         *controllers.AssetsController
	PaymentIntentsController *controllers.PaymentIntentsController
	PayoutsController        *controllers.PayoutsController
	MerchantsController      *controllers.MerchantsController
	WebhookOutboxController  *controllers.WebhookOutboxController
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", deps.HealthController.GetHealth)
	r.Get("/livez", deps.HealthController.GetLiveness)
	r.Get("/swagger", deps.SwaggerController.RedirectToIndex)
	r.Get("/swagger/openapi.yaml", deps.SwaggerController.GetOpenAPISpec)
	r.Get("/swagger/*", deps.SwaggerController.ServeUI)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/assets", deps.AssetsController.ListAssets)

		r.Route("/merchants/{merchantID}", func(r chi.Router) {
			r.Put("/webhook", deps.MerchantsController.ConfigureWebhook)
			r.Get("/balances", deps.MerchantsController.GetBalances)

			r.Post("/wallets", deps.MerchantsController.RegisterWallet)
			r.Post("/wallets/{walletID}/challenge", deps.MerchantsController.IssueWalletChallenge)
			r.Post("/wallets/{walletID}/verify", deps.MerchantsController.VerifyWalletProof)

			r.Post("/destinations", deps.MerchantsController.CreateDestination)
			r.Get("/destinations", deps.MerchantsController.ListDestinations)

			r.Post("/payment-intents", deps.PaymentIntentsController.CreatePaymentIntent)
			r.Get("/payment-intents/{intentID}", deps.PaymentIntentsController.GetPaymentIntent)
			r.Post("/payment-intents/{intentID}/cancel", deps.PaymentIntentsController.CancelPaymentIntent)

			r.Post("/payouts", deps.PayoutsController.CreatePayout)
			r.Get("/payouts", deps.PayoutsController.ListPayouts)
			r.Get("/payouts/{payoutID}", deps.PayoutsController.GetPayout)
			r.Post("/payouts/{payoutID}/approve", deps.PayoutsController.ApprovePayout)
			r.Post("/payouts/{payoutID}/reject", deps.PayoutsController.RejectPayout)
			r.Post("/payouts/{payoutID}/transaction", deps.PayoutsController.GenerateTransaction)
			r.Post("/payouts/{payoutID}/submit", deps.PayoutsController.SubmitSignedTransaction)
			r.Post("/payouts/{payoutID}/cancel", deps.PayoutsController.CancelPayout)

			r.Get("/webhook-events/failed", deps.WebhookOutboxController.ListFailed)
			r.Post("/webhook-events/{eventID}/requeue", deps.WebhookOutboxController.Requeue)
		})
	})

	return r
}
