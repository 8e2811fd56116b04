package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or a .env file loaded by cmd/api).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Call    CallConfig
	Payment PaymentConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// AdminUserIDs are granted the admin role at login and refresh.
	AdminUserIDs []string
}

// CallConfig tunes the simulated call lifecycle.
type CallConfig struct {
	RingDelayMin time.Duration
	RingDelayMax time.Duration
	PaywallAfter time.Duration
	// OutboxSize bounds the per-user command queue the device polls.
	OutboxSize int
	// SeatIdleTimeout is how long an idle user's machine is kept in memory.
	SeatIdleTimeout time.Duration
}

// PaymentConfig is the merchant profile handed to the payment gateway.
// MerchantSalt is a secret; never log it.
type PaymentConfig struct {
	MerchantKey     string
	MerchantSalt    string
	Environment     string // "0" production, "1" test
	SuccessURL      string
	FailureURL      string
	ProductInfo     string
	MerchantName    string
	MerchantLogo    string
	PrimaryColor    string
	SecondaryColor  string
	WalletURN       string
	ResponseTimeout time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	{
		n, err := optionalInt("REDIS_DB")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.DB = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL = mustDuration("JWT_REFRESH_TTL")
	c.Auth.AdminUserIDs = csv("AUTH_ADMIN_USER_IDS")

	c.Call.RingDelayMin = mustDuration("CALL_RING_DELAY_MIN")
	c.Call.RingDelayMax = mustDuration("CALL_RING_DELAY_MAX")
	c.Call.PaywallAfter = mustDuration("CALL_PAYWALL_AFTER")
	c.Call.SeatIdleTimeout = mustDuration("CALL_SEAT_IDLE_TIMEOUT")
	{
		n, err := optionalInt("CALL_OUTBOX_SIZE")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Call.OutboxSize = n
	}

	c.Payment.MerchantKey = strings.TrimSpace(os.Getenv("PAYMENT_MERCHANT_KEY"))
	c.Payment.MerchantSalt = os.Getenv("PAYMENT_MERCHANT_SALT")
	c.Payment.Environment = strings.TrimSpace(os.Getenv("PAYMENT_ENVIRONMENT"))
	c.Payment.SuccessURL = strings.TrimSpace(os.Getenv("PAYMENT_SUCCESS_URL"))
	c.Payment.FailureURL = strings.TrimSpace(os.Getenv("PAYMENT_FAILURE_URL"))
	c.Payment.ProductInfo = strings.TrimSpace(os.Getenv("PAYMENT_PRODUCT_INFO"))
	c.Payment.MerchantName = strings.TrimSpace(os.Getenv("PAYMENT_MERCHANT_NAME"))
	c.Payment.MerchantLogo = strings.TrimSpace(os.Getenv("PAYMENT_MERCHANT_LOGO"))
	c.Payment.PrimaryColor = strings.TrimSpace(os.Getenv("PAYMENT_PRIMARY_COLOR"))
	c.Payment.SecondaryColor = strings.TrimSpace(os.Getenv("PAYMENT_SECONDARY_COLOR"))
	c.Payment.WalletURN = strings.TrimSpace(os.Getenv("PAYMENT_WALLET_URN"))
	c.Payment.ResponseTimeout = mustDuration("PAYMENT_RESPONSE_TIMEOUT")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Call.RingDelayMin <= 0 && c.Call.RingDelayMax <= 0 {
		c.Call.RingDelayMin = 10 * time.Second
		c.Call.RingDelayMax = 20 * time.Second
	}
	if c.Call.RingDelayMin <= 0 || c.Call.RingDelayMax < c.Call.RingDelayMin {
		errs = append(errs, errors.New("CALL_RING_DELAY_MIN must be > 0 and <= CALL_RING_DELAY_MAX"))
	}
	if c.Call.PaywallAfter <= 0 {
		c.Call.PaywallAfter = 10 * time.Second
	}
	if c.Call.OutboxSize <= 0 {
		c.Call.OutboxSize = 32
	}
	if c.Call.SeatIdleTimeout <= 0 {
		c.Call.SeatIdleTimeout = 30 * time.Minute
	}

	if c.Payment.MerchantKey == "" {
		errs = append(errs, errors.New("PAYMENT_MERCHANT_KEY is required"))
	}
	if c.Payment.MerchantSalt == "" {
		errs = append(errs, errors.New("PAYMENT_MERCHANT_SALT is required"))
	}
	if c.Payment.Environment == "" {
		if c.IsProduction() {
			c.Payment.Environment = "0"
		} else {
			c.Payment.Environment = "1"
		}
	}
	if c.Payment.Environment != "0" && c.Payment.Environment != "1" {
		errs = append(errs, fmt.Errorf("PAYMENT_ENVIRONMENT must be 0 or 1, got %q", c.Payment.Environment))
	}
	if c.Payment.SuccessURL == "" || c.Payment.FailureURL == "" {
		errs = append(errs, errors.New("PAYMENT_SUCCESS_URL and PAYMENT_FAILURE_URL are required"))
	}
	if c.Payment.ProductInfo == "" {
		c.Payment.ProductInfo = "Coins"
	}
	if c.Payment.MerchantName == "" {
		c.Payment.MerchantName = "Companion"
	}
	if c.Payment.PrimaryColor == "" {
		c.Payment.PrimaryColor = "#4c31ae"
	}
	if c.Payment.SecondaryColor == "" {
		c.Payment.SecondaryColor = "#ffffff"
	}
	if c.Payment.WalletURN == "" {
		c.Payment.WalletURN = "100000"
	}
	if c.Payment.ResponseTimeout <= 0 {
		c.Payment.ResponseTimeout = 10 * time.Second
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func csv(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
