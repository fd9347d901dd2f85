package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"

	defaultSolanaRPCURL          = "https://api.mainnet-beta.solana.com"
	defaultEVMChainID            = int64(1)
	defaultEVMLogLookbackBlocks  = uint64(5000)
	defaultFinalityConfirmations = int64(32)

	defaultMonitorInterval          = 30 * time.Second
	defaultFinalizerInterval        = 60 * time.Second
	defaultIntentExpiryInterval     = 5 * time.Minute
	defaultPayoutExpiryInterval     = 30 * time.Second
	defaultPayoutConfirmInterval    = 30 * time.Second
	defaultPayoutConfirmMinAge      = 2 * time.Minute
	defaultSettlementBatchSize      = 100
	defaultChainCallTimeout         = 10 * time.Second
	defaultTransferLookupLimit      = 20
	defaultPayoutConfirmTimeout     = 60 * time.Second
	defaultPayoutApproverRoles      = "admin,finance"
	defaultWebhookDispatchInterval  = 15 * time.Second
	defaultWebhookDispatchBatchSize = 50
	defaultWebhookMaxAttempts       = 5
	defaultWebhookRequestTimeout    = 10 * time.Second
	defaultWebhookLeaseDuration     = 30 * time.Second
	fallbackWorkerID                = "stablesettle-worker"
)

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type TokenConfig struct {
	Chain    string `yaml:"chain"`
	Currency string `yaml:"currency"`
	TokenID  string `yaml:"token_id"`
	Decimals int    `yaml:"decimals"`
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string

	SolanaRPCURLs        []string
	EVMRPCURLs           []string
	EVMChainID           int64
	EVMPaymentXPub       string
	EVMLogLookbackBlocks uint64
	// Tokens overrides the built-in registry when non-empty.
	Tokens []TokenConfig

	FinalityConfirmations     int64
	MonitorInterval           time.Duration
	FinalizerInterval         time.Duration
	IntentExpiryInterval      time.Duration
	PayoutExpiryInterval      time.Duration
	PayoutConfirmInterval     time.Duration
	PayoutConfirmMinAge       time.Duration
	SettlementBatchSize       int
	ChainCallTimeout          time.Duration
	TransferLookupLimit       int
	PayoutConfirmationTimeout time.Duration
	PayoutApproverRoles       []string

	WebhookDispatchInterval  time.Duration
	WebhookDispatchBatchSize int
	WebhookMaxAttempts       int
	WebhookRequestTimeout    time.Duration
	WebhookLeaseDuration     time.Duration
	WorkerID                 string
}

// fileConfig is the optional CONFIG_FILE document.
type fileConfig struct {
	Chains struct {
		Solana struct {
			RPCURLs []string `yaml:"rpc_urls"`
		} `yaml:"solana"`
		Ethereum struct {
			RPCURLs           []string `yaml:"rpc_urls"`
			ChainID           int64    `yaml:"chain_id"`
			PaymentXPub       string   `yaml:"payment_xpub"`
			LogLookbackBlocks uint64   `yaml:"log_lookback_blocks"`
		} `yaml:"ethereum"`
	} `yaml:"chains"`
	Tokens []TokenConfig `yaml:"tokens"`
}

func LoadConfig() (Config, *ConfigError) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_DATABASE_URL_REQUIRED",
			Message: "DATABASE_URL is required",
		}
	}

	databaseTarget, parseErr := parseDatabaseTarget(databaseURL)
	if parseErr != nil {
		return Config{}, parseErr
	}

	file, fileErr := loadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if fileErr != nil {
		return Config{}, fileErr
	}

	cfg := Config{
		Port:                     envOr("PORT", defaultPort),
		OpenAPISpecPath:          envOr("OPENAPI_SPEC_PATH", defaultOpenAPISpec),
		ShutdownTimeout:          defaultShutdownTimeout,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           defaultMigrationsPath,
		SolanaRPCURLs:            []string{defaultSolanaRPCURL},
		EVMChainID:               defaultEVMChainID,
		EVMLogLookbackBlocks:     defaultEVMLogLookbackBlocks,
		Tokens:                   file.Tokens,
	}

	if urls := cleanList(file.Chains.Solana.RPCURLs); len(urls) > 0 {
		cfg.SolanaRPCURLs = urls
	}
	cfg.EVMRPCURLs = cleanList(file.Chains.Ethereum.RPCURLs)
	if file.Chains.Ethereum.ChainID != 0 {
		cfg.EVMChainID = file.Chains.Ethereum.ChainID
	}
	cfg.EVMPaymentXPub = strings.TrimSpace(file.Chains.Ethereum.PaymentXPub)
	if file.Chains.Ethereum.LogLookbackBlocks != 0 {
		cfg.EVMLogLookbackBlocks = file.Chains.Ethereum.LogLookbackBlocks
	}

	if raw, ok := lookupEnv("SOLANA_RPC_URLS"); ok {
		urls := splitList(raw)
		if len(urls) == 0 {
			return Config{}, &ConfigError{
				Code:    "CONFIG_SOLANA_RPC_URLS_EMPTY",
				Message: "SOLANA_RPC_URLS must list at least one URL",
			}
		}
		cfg.SolanaRPCURLs = urls
	}
	if raw, ok := lookupEnv("EVM_RPC_URLS"); ok {
		cfg.EVMRPCURLs = splitList(raw)
	}
	if raw, ok := lookupEnv("EVM_PAYMENT_XPUB"); ok {
		cfg.EVMPaymentXPub = raw
	}

	for _, rawURL := range append(append([]string{}, cfg.SolanaRPCURLs...), cfg.EVMRPCURLs...) {
		if cfgErr := validateRPCURL(rawURL); cfgErr != nil {
			return Config{}, cfgErr
		}
	}

	var cfgErr *ConfigError
	if cfg.EVMChainID, cfgErr = positiveInt64("EVM_CHAIN_ID", cfg.EVMChainID); cfgErr != nil {
		return Config{}, cfgErr
	}
	lookback, cfgErr := positiveInt64("EVM_LOG_LOOKBACK_BLOCKS", int64(cfg.EVMLogLookbackBlocks))
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	cfg.EVMLogLookbackBlocks = uint64(lookback)
	if cfg.FinalityConfirmations, cfgErr = positiveInt64("SETTLEMENT_FINALITY_CONFIRMATIONS", defaultFinalityConfirmations); cfgErr != nil {
		return Config{}, cfgErr
	}

	durations := []struct {
		env      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"SETTLEMENT_MONITOR_INTERVAL", defaultMonitorInterval, &cfg.MonitorInterval},
		{"SETTLEMENT_FINALIZER_INTERVAL", defaultFinalizerInterval, &cfg.FinalizerInterval},
		{"INTENT_EXPIRY_SWEEP_INTERVAL", defaultIntentExpiryInterval, &cfg.IntentExpiryInterval},
		{"PAYOUT_EXPIRY_SWEEP_INTERVAL", defaultPayoutExpiryInterval, &cfg.PayoutExpiryInterval},
		{"PAYOUT_CONFIRMATION_SWEEP_INTERVAL", defaultPayoutConfirmInterval, &cfg.PayoutConfirmInterval},
		{"PAYOUT_CONFIRMATION_MIN_AGE", defaultPayoutConfirmMinAge, &cfg.PayoutConfirmMinAge},
		{"CHAIN_CALL_TIMEOUT", defaultChainCallTimeout, &cfg.ChainCallTimeout},
		{"PAYOUT_CONFIRMATION_TIMEOUT", defaultPayoutConfirmTimeout, &cfg.PayoutConfirmationTimeout},
		{"WEBHOOK_DISPATCH_INTERVAL", defaultWebhookDispatchInterval, &cfg.WebhookDispatchInterval},
		{"WEBHOOK_REQUEST_TIMEOUT", defaultWebhookRequestTimeout, &cfg.WebhookRequestTimeout},
		{"WEBHOOK_LEASE_DURATION", defaultWebhookLeaseDuration, &cfg.WebhookLeaseDuration},
	}
	for _, d := range durations {
		value, cfgErr := positiveDuration(d.env, d.fallback)
		if cfgErr != nil {
			return Config{}, cfgErr
		}
		*d.target = value
	}

	ints := []struct {
		env      string
		fallback int
		target   *int
	}{
		{"SETTLEMENT_BATCH_SIZE", defaultSettlementBatchSize, &cfg.SettlementBatchSize},
		{"CHAIN_TRANSFER_LOOKUP_LIMIT", defaultTransferLookupLimit, &cfg.TransferLookupLimit},
		{"WEBHOOK_DISPATCH_BATCH_SIZE", defaultWebhookDispatchBatchSize, &cfg.WebhookDispatchBatchSize},
		{"WEBHOOK_MAX_ATTEMPTS", defaultWebhookMaxAttempts, &cfg.WebhookMaxAttempts},
	}
	for _, i := range ints {
		value, cfgErr := positiveInt64(i.env, int64(i.fallback))
		if cfgErr != nil {
			return Config{}, cfgErr
		}
		*i.target = int(value)
	}

	cfg.PayoutApproverRoles = splitList(envOr("PAYOUT_APPROVER_ROLES", defaultPayoutApproverRoles))
	for idx, role := range cfg.PayoutApproverRoles {
		cfg.PayoutApproverRoles[idx] = strings.ToLower(role)
	}
	if len(cfg.PayoutApproverRoles) == 0 {
		return Config{}, &ConfigError{
			Code:    "CONFIG_PAYOUT_APPROVER_ROLES_EMPTY",
			Message: "PAYOUT_APPROVER_ROLES must list at least one role",
		}
	}

	cfg.WorkerID = strings.TrimSpace(os.Getenv("WORKER_ID"))
	if cfg.WorkerID == "" {
		cfg.WorkerID = defaultWorkerID()
	}

	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

// EVMEnabled reports whether ethereum settlement is configured.
func (c Config) EVMEnabled() bool {
	return len(c.EVMRPCURLs) > 0
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

func loadFile(path string) (fileConfig, *ConfigError) {
	if path == "" {
		return fileConfig{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		code := "CONFIG_FILE_READ_FAILED"
		if errors.Is(err, os.ErrNotExist) {
			code = "CONFIG_FILE_NOT_FOUND"
		}
		return fileConfig{}, &ConfigError{
			Code:     code,
			Message:  "CONFIG_FILE could not be read",
			Metadata: map[string]string{"path": path},
		}
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fileConfig{}, &ConfigError{
			Code:     "CONFIG_FILE_INVALID",
			Message:  "CONFIG_FILE must be valid YAML",
			Metadata: map[string]string{"path": path, "error": err.Error()},
		}
	}

	for idx, token := range file.Tokens {
		if strings.TrimSpace(token.Chain) == "" || strings.TrimSpace(token.Currency) == "" || strings.TrimSpace(token.TokenID) == "" {
			return fileConfig{}, &ConfigError{
				Code:     "CONFIG_TOKEN_INVALID",
				Message:  "tokens entries require chain, currency and token_id",
				Metadata: map[string]string{"index": strconv.Itoa(idx)},
			}
		}
	}

	return file, nil
}

func validateRPCURL(raw string) *ConfigError {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &ConfigError{
			Code:     "CONFIG_RPC_URL_INVALID",
			Message:  "RPC URLs must be absolute http or https URLs",
			Metadata: map[string]string{"url": raw},
		}
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, true
}

func envOr(name string, fallback string) string {
	if raw := strings.TrimSpace(os.Getenv(name)); raw != "" {
		return raw
	}
	return fallback
}

func positiveDuration(name string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + name + "_INVALID",
			Message:  fmt.Sprintf("%s must be a positive duration", name),
			Metadata: map[string]string{"value": raw},
		}
	}
	return value, nil
}

func positiveInt64(name string, fallback int64) (int64, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + name + "_INVALID",
			Message:  fmt.Sprintf("%s must be a positive integer", name),
			Metadata: map[string]string{"value": raw},
		}
	}
	return value, nil
}

func splitList(raw string) []string {
	return cleanList(strings.Split(raw, ","))
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil || strings.TrimSpace(hostname) == "" {
		return fallbackWorkerID
	}
	return hostname
}
