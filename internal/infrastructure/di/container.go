package di

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	"stablesettle/internal/adapters/inbound/http/controllers"
	httpRouter "stablesettle/internal/adapters/inbound/http/router"
	"stablesettle/internal/adapters/outbound/chainreader"
	"stablesettle/internal/adapters/outbound/chainreader/evmrpc"
	"stablesettle/internal/adapters/outbound/chainreader/solanarpc"
	"stablesettle/internal/adapters/outbound/docs"
	"stablesettle/internal/adapters/outbound/persistence/postgresql"
	postgresqladdresspool "stablesettle/internal/adapters/outbound/persistence/postgresql/addresspool"
	postgresqlmerchant "stablesettle/internal/adapters/outbound/persistence/postgresql/merchant"
	postgresqlpaymentintent "stablesettle/internal/adapters/outbound/persistence/postgresql/paymentintent"
	postgresqlpayout "stablesettle/internal/adapters/outbound/persistence/postgresql/payout"
	postgresqlshared "stablesettle/internal/adapters/outbound/persistence/postgresql/shared"
	postgresqlwebhookoutbox "stablesettle/internal/adapters/outbound/persistence/postgresql/webhookoutbox"
	"stablesettle/internal/adapters/outbound/tokenregistry"
	"stablesettle/internal/adapters/outbound/wallet/allocator"
	"stablesettle/internal/adapters/outbound/walletproof"
	webhookhttp "stablesettle/internal/adapters/outbound/webhook/http"
	"stablesettle/internal/application/dto"
	portsin "stablesettle/internal/application/ports/in"
	"stablesettle/internal/application/use_cases"
	valueobjects "stablesettle/internal/domain/value_objects"
	"stablesettle/internal/infrastructure/config"
	"stablesettle/internal/infrastructure/httpserver"
	"stablesettle/internal/infrastructure/reconciler"
	"stablesettle/internal/infrastructure/webhook"
)

type Container struct {
	Database                     *sql.DB
	Server                       *httpserver.Server
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	AddressPool                  *postgresqladdresspool.Repository

	MonitorWorker      *reconciler.Worker
	FinalizerWorker    *reconciler.Worker
	IntentExpiryWorker *reconciler.Worker
	PayoutExpiryWorker *reconciler.Worker
	// PayoutConfirmationWorker settles processing payouts whose submit request did
	// not see the chain outcome.
	PayoutConfirmationWorker *reconciler.Worker
	WebhookWorker            *webhook.Worker
}

func Build(cfg config.Config, logger *log.Logger) (Container, error) {
	databasePool, err := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, postgresqlshared.DefaultPoolOptions(), logger)
	if err != nil {
		return Container{}, fmt.Errorf("open database pool: %w", err)
	}

	tokens, err := buildTokenRegistry(cfg)
	if err != nil {
		databasePool.Close()
		return Container{}, fmt.Errorf("build token registry: %w", err)
	}

	clock := use_cases.NewSystemClock()
	ids := use_cases.NewUUIDGenerator()
	events := use_cases.NewWebhookEventFactory(ids, cfg.WebhookMaxAttempts)

	persistenceGateway := postgresql.NewPersistenceBootstrapGateway(
		databasePool,
		cfg.DatabaseURL,
		cfg.DatabaseTarget,
		cfg.MigrationsPath,
		logger,
	)
	initializePersistenceUseCase := use_cases.NewInitializePersistenceUseCase(persistenceGateway, logger)

	paymentIntentRepository := postgresqlpaymentintent.NewRepository(databasePool, logger)
	addressPoolRepository := postgresqladdresspool.NewRepository(databasePool)
	payoutRepository := postgresqlpayout.NewRepository(databasePool, logger)
	balanceReadModel := postgresqlpayout.NewBalanceReadModel(databasePool)
	walletRepository := postgresqlmerchant.NewWalletRepository(databasePool)
	destinationRepository := postgresqlmerchant.NewDestinationRepository(databasePool)
	merchantRepository := postgresqlmerchant.NewWebhookConfigRepository(databasePool)
	webhookOutboxRepository := postgresqlwebhookoutbox.NewRepository(databasePool)

	chains := buildChainRouter(cfg, tokens, logger)
	addressAllocator, err := buildAddressAllocator(cfg, addressPoolRepository, logger)
	if err != nil {
		databasePool.Close()
		return Container{}, fmt.Errorf("build payment address allocator: %w", err)
	}

	webhookGateway := webhookhttp.NewGateway(webhookhttp.Config{Timeout: cfg.WebhookRequestTimeout})
	proofVerifier := walletproof.NewVerifier()

	// HTTP use cases.
	healthUseCase := use_cases.NewGetHealthUseCase(persistenceGateway)
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath))
	listAssetsUseCase := use_cases.NewListAssetsUseCase(tokens)

	createPaymentIntentUseCase := use_cases.NewCreatePaymentIntentUseCase(paymentIntentRepository, addressAllocator, tokens, clock, ids)
	getPaymentIntentUseCase := use_cases.NewGetPaymentIntentUseCase(paymentIntentRepository)
	cancelPaymentIntentUseCase := use_cases.NewCancelPaymentIntentUseCase(paymentIntentRepository, events, clock)

	payoutsUseCases := controllers.PayoutsUseCases{
		Create: use_cases.NewCreatePayoutUseCase(
			payoutRepository,
			balanceReadModel,
			destinationRepository,
			walletRepository,
			tokens,
			chains,
			clock,
			ids,
		),
		Get:  use_cases.NewGetPayoutUseCase(payoutRepository),
		List: use_cases.NewListPayoutsUseCase(payoutRepository),
		Approve: use_cases.NewApprovePayoutUseCase(
			payoutRepository,
			walletRepository,
			tokens,
			chains,
			events,
			cfg.PayoutApproverRoles,
			clock,
			logger,
		),
		Reject:   use_cases.NewRejectPayoutUseCase(payoutRepository, events, cfg.PayoutApproverRoles, clock),
		Generate: use_cases.NewGeneratePayoutTransactionUseCase(payoutRepository, walletRepository, tokens, chains, clock),
		Submit: use_cases.NewSubmitSignedPayoutUseCase(
			payoutRepository,
			chains,
			chains,
			events,
			ids,
			clock,
			cfg.PayoutConfirmationTimeout,
			logger,
		),
		Cancel: use_cases.NewCancelPayoutUseCase(payoutRepository, events, clock),
	}

	merchantsUseCases := controllers.MerchantsUseCases{
		RegisterWallet:    use_cases.NewRegisterWalletUseCase(walletRepository, clock, ids),
		IssueChallenge:    use_cases.NewIssueWalletChallengeUseCase(walletRepository, nil, clock),
		VerifyProof:       use_cases.NewVerifyWalletProofUseCase(walletRepository, proofVerifier, clock),
		CreateDestination: use_cases.NewCreateDestinationUseCase(destinationRepository, clock, ids),
		ListDestinations:  use_cases.NewListDestinationsUseCase(destinationRepository),
		GetBalances:       use_cases.NewGetBalancesUseCase(balanceReadModel),
		ConfigureWebhook:  use_cases.NewConfigureMerchantWebhookUseCase(merchantRepository, clock),
	}

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:  controllers.NewHealthController(healthUseCase, logger),
		SwaggerController: controllers.NewSwaggerController(openAPIUseCase, logger),
		AssetsController:  controllers.NewAssetsController(listAssetsUseCase, logger),
		PaymentIntentsController: controllers.NewPaymentIntentsController(
			createPaymentIntentUseCase,
			getPaymentIntentUseCase,
			cancelPaymentIntentUseCase,
			logger,
		),
		PayoutsController:   controllers.NewPayoutsController(payoutsUseCases, logger),
		MerchantsController: controllers.NewMerchantsController(merchantsUseCases, logger),
		WebhookOutboxController: controllers.NewWebhookOutboxController(
			use_cases.NewListFailedWebhookEventsUseCase(webhookOutboxRepository),
			use_cases.NewRequeueWebhookEventUseCase(webhookOutboxRepository, clock),
			logger,
		),
	})
	server := httpserver.New(cfg.Address(), router, logger)

	// Background jobs.
	monitorWorker := reconciler.NewMonitorWorker(
		true,
		cfg.MonitorInterval,
		cfg.WorkerID,
		reconciler.MonitorSettings{
			BatchSize:           cfg.SettlementBatchSize,
			TransferLookupLimit: cfg.TransferLookupLimit,
			ChainCallTimeout:    cfg.ChainCallTimeout,
		},
		use_cases.NewMonitorSettlementsUseCase(paymentIntentRepository, chains, clock),
		logger,
	)
	finalizerWorker := reconciler.NewFinalizerWorker(
		true,
		cfg.FinalizerInterval,
		cfg.WorkerID,
		reconciler.FinalizerSettings{
			BatchSize:             cfg.SettlementBatchSize,
			FinalityConfirmations: cfg.FinalityConfirmations,
			ChainCallTimeout:      cfg.ChainCallTimeout,
		},
		use_cases.NewFinalizeSettlementsUseCase(paymentIntentRepository, paymentIntentRepository, chains, events, ids, clock),
		logger,
	)
	intentExpiryWorker := reconciler.NewIntentExpiryWorker(
		true,
		cfg.IntentExpiryInterval,
		cfg.WorkerID,
		cfg.SettlementBatchSize,
		use_cases.NewExpirePaymentIntentsUseCase(paymentIntentRepository, events, clock),
		logger,
	)
	payoutExpiryWorker := reconciler.NewPayoutExpiryWorker(
		true,
		cfg.PayoutExpiryInterval,
		cfg.WorkerID,
		cfg.SettlementBatchSize,
		use_cases.NewExpirePayoutTransactionsUseCase(payoutRepository, events, clock),
		logger,
	)
	payoutConfirmationWorker := reconciler.NewPayoutConfirmationWorker(
		true,
		cfg.PayoutConfirmInterval,
		cfg.WorkerID,
		reconciler.PayoutConfirmationSettings{
			BatchSize:        cfg.SettlementBatchSize,
			MinAge:           cfg.PayoutConfirmMinAge,
			ChainCallTimeout: cfg.ChainCallTimeout,
		},
		use_cases.NewConfirmPayoutsUseCase(payoutRepository, chains, chains, events, ids, clock, logger),
		logger,
	)
	webhookWorker := webhook.NewWorker(
		true,
		cfg.WebhookDispatchInterval,
		cfg.WebhookDispatchBatchSize,
		cfg.WorkerID,
		cfg.WebhookLeaseDuration,
		use_cases.NewDispatchWebhookEventsUseCase(webhookOutboxRepository, webhookGateway, clock),
		logger,
	)

	return Container{
		Database:                     databasePool,
		Server:                       server,
		InitializePersistenceUseCase: initializePersistenceUseCase,
		AddressPool:                  addressPoolRepository,
		MonitorWorker:                monitorWorker,
		FinalizerWorker:              finalizerWorker,
		IntentExpiryWorker:           intentExpiryWorker,
		PayoutExpiryWorker:           payoutExpiryWorker,
		PayoutConfirmationWorker:     payoutConfirmationWorker,
		WebhookWorker:                webhookWorker,
	}, nil
}

func (c Container) Close() error {
	if c.Database == nil {
		return nil
	}
	return c.Database.Close()
}

// buildTokenRegistry drops tokens of chains that have no RPC endpoint so the asset list
// only advertises what the service can settle.
func buildTokenRegistry(cfg config.Config) (*tokenregistry.Registry, error) {
	entries := tokenregistry.Defaults()
	if len(cfg.Tokens) > 0 {
		entries = make([]dto.TokenInfo, 0, len(cfg.Tokens))
		for _, token := range cfg.Tokens {
			entries = append(entries, dto.TokenInfo{
				Chain:    token.Chain,
				Currency: token.Currency,
				TokenID:  token.TokenID,
				Decimals: token.Decimals,
			})
		}
	}

	enabled := make([]dto.TokenInfo, 0, len(entries))
	for _, entry := range entries {
		chain := strings.ToLower(strings.TrimSpace(entry.Chain))
		if chain == valueobjects.ChainEthereum.String() && !cfg.EVMEnabled() {
			continue
		}
		if chain == valueobjects.ChainSolana.String() && len(cfg.SolanaRPCURLs) == 0 {
			continue
		}
		enabled = append(enabled, entry)
	}

	registry, appErr := tokenregistry.New(enabled)
	if appErr != nil {
		return nil, appErr
	}
	return registry, nil
}

func buildChainRouter(cfg config.Config, tokens *tokenregistry.Registry, logger *log.Logger) *chainreader.Router {
	router := chainreader.NewRouter(chainreader.DefaultInclusionPollInterval, logger)

	solanaTokens := tokens.ForChain(valueobjects.ChainSolana.String())
	for _, rpcURL := range cfg.SolanaRPCURLs {
		router.Register(valueobjects.ChainSolana.String(), solanarpc.NewEndpoint(solanarpc.Config{
			RPCURL:      rpcURL,
			Tokens:      solanaTokens,
			CallTimeout: cfg.ChainCallTimeout,
		}))
	}

	evmTokens := tokens.ForChain(valueobjects.ChainEthereum.String())
	for _, rpcURL := range cfg.EVMRPCURLs {
		router.Register(valueobjects.ChainEthereum.String(), evmrpc.NewEndpoint(evmrpc.Config{
			Chain:             valueobjects.ChainEthereum.String(),
			RPCURL:            rpcURL,
			ChainID:           cfg.EVMChainID,
			LogLookbackBlocks: cfg.EVMLogLookbackBlocks,
			Tokens:            evmTokens,
			CallTimeout:       cfg.ChainCallTimeout,
		}))
	}

	if logger != nil {
		logger.Printf(
			"chain endpoints registered solana_endpoints=%d evm_endpoints=%d evm_chain_id=%d",
			len(cfg.SolanaRPCURLs),
			len(cfg.EVMRPCURLs),
			cfg.EVMChainID,
		)
	}
	return router
}

func buildAddressAllocator(
	cfg config.Config,
	pool *postgresqladdresspool.Repository,
	logger *log.Logger,
) (*allocator.Router, error) {
	router := allocator.NewRouter()
	router.Register(valueobjects.ChainSolana.String(), allocator.NewPoolAllocator(pool))

	if !cfg.EVMEnabled() {
		return router, nil
	}
	if strings.TrimSpace(cfg.EVMPaymentXPub) == "" {
		if logger != nil {
			logger.Printf("EVM_PAYMENT_XPUB not set; ethereum payment intents are unavailable")
		}
		return router, nil
	}

	hdAllocator, appErr := allocator.NewHDAllocator(cfg.EVMPaymentXPub, pool, logger)
	if appErr != nil {
		return nil, appErr
	}
	router.Register(valueobjects.ChainEthereum.String(), hdAllocator)
	return router, nil
}
