package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/segyhp/claimant-engine/pkg/utils"
)

// Backdate policies for vouchers owed after a birth is matched to a pregnancy.
const (
	BackdatePolicyMissedPeriods = "missed-periods"
	BackdatePolicyNone          = "none"
)

// MemoryDatabaseURL selects the in-memory store instead of Postgres.
const MemoryDatabaseURL = "memory://"

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:",squash"`
	Redis        RedisConfig        `mapstructure:",squash"`
	Scheduler    SchedulerConfig    `mapstructure:",squash"`
	Messaging    MessagingConfig    `mapstructure:",squash"`
	Entitlement  EntitlementConfig  `mapstructure:",squash"`
	PaymentCycle PaymentCycleConfig `mapstructure:",squash"`
	Clients      ClientsConfig      `mapstructure:",squash"`
	Logging      LoggingConfig      `mapstructure:",squash"`
	Health       HealthConfig       `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	MessageProcessorCron string `mapstructure:"MESSAGE_PROCESSOR_CRON"`
	PaymentCycleCron     string `mapstructure:"PAYMENT_CYCLE_CRON"`
	MinLockTime          string `mapstructure:"SCHEDULER_MIN_LOCK_TIME"`
	MaxLockTime          string `mapstructure:"SCHEDULER_MAX_LOCK_TIME"`
	Timezone             string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type MessagingConfig struct {
	BatchSize     int     `mapstructure:"MESSAGE_BATCH_SIZE"`
	RetryDelay    string  `mapstructure:"MESSAGE_RETRY_DELAY"`
	RatePerSecond float64 `mapstructure:"MESSAGE_RATE_PER_SECOND"`
}

type EntitlementConfig struct {
	VoucherValue                         string `mapstructure:"VOUCHER_VALUE"`
	VouchersPerChildUnderOne             int    `mapstructure:"VOUCHERS_PER_CHILD_UNDER_ONE"`
	VouchersPerChildBetweenOneAndFour    int    `mapstructure:"VOUCHERS_PER_CHILD_BETWEEN_ONE_AND_FOUR"`
	VouchersPerPregnancy                 int    `mapstructure:"VOUCHERS_PER_PREGNANCY"`
	NumberOfCalculationPeriods           int    `mapstructure:"NUMBER_OF_CALCULATION_PERIODS"`
	EntitlementCalculationDurationInDays int    `mapstructure:"ENTITLEMENT_CALCULATION_DURATION_IN_DAYS"`
	WeeksBeforeDueDate                   int    `mapstructure:"WEEKS_BEFORE_DUE_DATE"`
	WeeksAfterDueDate                    int    `mapstructure:"WEEKS_AFTER_DUE_DATE"`
	PregnancyGracePeriodInDays           int    `mapstructure:"PREGNANCY_GRACE_PERIOD_IN_DAYS"`
	BackdatePolicy                       string `mapstructure:"ENTITLEMENT_BACKDATE_POLICY"`
}

type PaymentCycleConfig struct {
	CycleDurationInDays              int `mapstructure:"PAYMENT_CYCLE_DURATION_IN_DAYS"`
	PendingExpiryCycleDurationInDays int `mapstructure:"PENDING_EXPIRY_CYCLE_DURATION_IN_DAYS"`
}

type ClientsConfig struct {
	EligibilityBaseURI string `mapstructure:"ELIGIBILITY_BASE_URI"`
	CardBaseURI        string `mapstructure:"CARD_BASE_URI"`
	ReportingBaseURI   string `mapstructure:"REPORTING_BASE_URI"`
	EmailBaseURI       string `mapstructure:"EMAIL_BASE_URI"`
	Timeout            string `mapstructure:"CLIENT_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// .env files are optional; real environment variables win over them
	_ = godotenv.Load(".env")
	_ = godotenv.Load("deployments/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")

	v.SetDefault("DATABASE_URL", MemoryDatabaseURL)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MESSAGE_PROCESSOR_CRON", "0 */1 * * * *")
	v.SetDefault("PAYMENT_CYCLE_CRON", "0 0 2 * * *")
	v.SetDefault("SCHEDULER_MIN_LOCK_TIME", "10s")
	v.SetDefault("SCHEDULER_MAX_LOCK_TIME", "30m")
	v.SetDefault("SCHEDULER_TIMEZONE", "Europe/London")

	v.SetDefault("MESSAGE_BATCH_SIZE", 100)
	v.SetDefault("MESSAGE_RETRY_DELAY", "5m")
	v.SetDefault("MESSAGE_RATE_PER_SECOND", 0)

	v.SetDefault("VOUCHER_VALUE", "3.10")
	v.SetDefault("VOUCHERS_PER_CHILD_UNDER_ONE", 2)
	v.SetDefault("VOUCHERS_PER_CHILD_BETWEEN_ONE_AND_FOUR", 1)
	v.SetDefault("VOUCHERS_PER_PREGNANCY", 1)
	v.SetDefault("NUMBER_OF_CALCULATION_PERIODS", 4)
	v.SetDefault("ENTITLEMENT_CALCULATION_DURATION_IN_DAYS", 7)
	v.SetDefault("WEEKS_BEFORE_DUE_DATE", 16)
	v.SetDefault("WEEKS_AFTER_DUE_DATE", 8)
	v.SetDefault("PREGNANCY_GRACE_PERIOD_IN_DAYS", 84)
	v.SetDefault("ENTITLEMENT_BACKDATE_POLICY", BackdatePolicyMissedPeriods)

	v.SetDefault("PAYMENT_CYCLE_DURATION_IN_DAYS", 28)
	v.SetDefault("PENDING_EXPIRY_CYCLE_DURATION_IN_DAYS", 7)

	v.SetDefault("ELIGIBILITY_BASE_URI", "http://localhost:8100")
	v.SetDefault("CARD_BASE_URI", "http://localhost:8140")
	v.SetDefault("REPORTING_BASE_URI", "http://localhost:8150")
	v.SetDefault("EMAIL_BASE_URI", "http://localhost:8160")
	v.SetDefault("CLIENT_TIMEOUT", "10s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Messaging.BatchSize <= 0 {
		return fmt.Errorf("MESSAGE_BATCH_SIZE must be greater than 0")
	}

	if c.Messaging.RatePerSecond < 0 {
		return fmt.Errorf("MESSAGE_RATE_PER_SECOND must not be negative")
	}

	if err := c.Entitlement.Validate(); err != nil {
		return err
	}

	if c.PaymentCycle.CycleDurationInDays <= 0 {
		return fmt.Errorf("PAYMENT_CYCLE_DURATION_IN_DAYS must be greater than 0")
	}

	if c.PaymentCycle.PendingExpiryCycleDurationInDays <= 0 || c.PaymentCycle.PendingExpiryCycleDurationInDays > c.PaymentCycle.CycleDurationInDays {
		return fmt.Errorf("PENDING_EXPIRY_CYCLE_DURATION_IN_DAYS must be between 1 and PAYMENT_CYCLE_DURATION_IN_DAYS")
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"SCHEDULER_MIN_LOCK_TIME":    c.Scheduler.MinLockTime,
		"SCHEDULER_MAX_LOCK_TIME":    c.Scheduler.MaxLockTime,
		"MESSAGE_RETRY_DELAY":        c.Messaging.RetryDelay,
		"CLIENT_TIMEOUT":             c.Clients.Timeout,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if c.GetMinLockTime() > c.GetMaxLockTime() {
		return fmt.Errorf("SCHEDULER_MIN_LOCK_TIME must not exceed SCHEDULER_MAX_LOCK_TIME")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	return nil
}

// Validate checks the entitlement settings
func (e EntitlementConfig) Validate() error {
	value, err := utils.DecimalFromString(e.VoucherValue)
	if err != nil {
		return fmt.Errorf("VOUCHER_VALUE must be a valid decimal: %w", err)
	}
	if !value.IsPositive() {
		return fmt.Errorf("VOUCHER_VALUE must be greater than 0")
	}

	if e.VouchersPerChildUnderOne < 0 || e.VouchersPerChildBetweenOneAndFour < 0 || e.VouchersPerPregnancy < 0 {
		return fmt.Errorf("vouchers per band must not be negative")
	}

	if e.NumberOfCalculationPeriods <= 0 {
		return fmt.Errorf("NUMBER_OF_CALCULATION_PERIODS must be greater than 0")
	}

	if e.EntitlementCalculationDurationInDays <= 0 {
		return fmt.Errorf("ENTITLEMENT_CALCULATION_DURATION_IN_DAYS must be greater than 0")
	}

	if e.WeeksBeforeDueDate < 0 || e.WeeksAfterDueDate < 0 || e.PregnancyGracePeriodInDays < 0 {
		return fmt.Errorf("pregnancy windows must not be negative")
	}

	switch strings.ToLower(e.BackdatePolicy) {
	case BackdatePolicyMissedPeriods, BackdatePolicyNone:
	default:
		return fmt.Errorf("ENTITLEMENT_BACKDATE_POLICY must be one of %q, %q", BackdatePolicyMissedPeriods, BackdatePolicyNone)
	}

	return nil
}

// VoucherValueInPence returns the value of a single voucher in pence
func (e EntitlementConfig) VoucherValueInPence() int {
	value, _ := utils.DecimalFromString(e.VoucherValue)
	return int(utils.PenceFromPounds(value))
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// UsesMemoryStore reports whether the in-memory store replaces Postgres
func (c *Config) UsesMemoryStore() bool {
	return c.Database.URL == MemoryDatabaseURL
}

func (c *Config) GetReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout)
}

func (c *Config) GetWriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout)
}

func (c *Config) GetConnMaxLifetime() time.Duration {
	return mustDuration(c.Database.ConnMaxLifetime)
}

// GetMinLockTime returns how long a scheduler lock is held at minimum
func (c *Config) GetMinLockTime() time.Duration {
	return mustDuration(c.Scheduler.MinLockTime)
}

// GetMaxLockTime returns how long a scheduler lock is held at most
func (c *Config) GetMaxLockTime() time.Duration {
	return mustDuration(c.Scheduler.MaxLockTime)
}

// GetSchedulerLocation returns the timezone cron expressions are evaluated in
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetRetryDelay returns how long a failed message waits before it is fetched again
func (c *Config) GetRetryDelay() time.Duration {
	return mustDuration(c.Messaging.RetryDelay)
}

// GetClientTimeout returns the timeout for outbound HTTP calls
func (c *Config) GetClientTimeout() time.Duration {
	return mustDuration(c.Clients.Timeout)
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	return mustDuration(c.Health.Timeout)
}

func mustDuration(value string) time.Duration {
	duration, _ := time.ParseDuration(value)
	return duration
}
