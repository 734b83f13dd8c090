package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Backend   BackendConfig
	Document  DocumentConfig
	Inline    InlineConfig
	Printing  PrintingConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	SwaggerEnabled   bool // serve /swagger outside production
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// BackendConfig holds the school REST backend connection settings
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	AuthType   string // none, bearer, api_key
	Token      string
	APIKey     string
	APIKeyName string
	UserAgent  string
	SendPath   string // multipart upload endpoint for emailed documents
}

// DocumentConfig holds letter rendering settings
type DocumentConfig struct {
	CurrencySymbol string
	Folder         string // folder name sent with emailed documents
	FileType       string
	SchoolName     string
}

// InlineConfig holds signature image inlining settings
type InlineConfig struct {
	Concurrency     int
	Timeout         time.Duration
	MaxImageBytes   int64
	FallbackEnabled bool
}

// PrintingConfig holds PDF pipeline settings
type PrintingConfig struct {
	Mode            string // snapshot or print
	RemoteURL       string // DevTools websocket of an external Chrome; empty launches one
	Headless        bool
	NoSandbox       bool
	DisableGPU      bool
	RenderTimeout   time.Duration
	ImageTimeout    time.Duration
	SettleDelay     time.Duration
	ScaleFactor     float64
	ViewportWidth   int
	PaperSize       string
	MarginTop       float64
	MarginRight     float64
	MarginBottom    float64
	MarginLeft      float64
	PrintBackground bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig holds signature cache settings
type CacheConfig struct {
	Driver          string // redis or memory
	TTL             time.Duration
	CleanupInterval time.Duration
	KeyPrefix       string
}

// StorageConfig holds S3-compatible storage settings for s3:// signature URLs
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration

	LogsEnabled bool   // export zap records over OTLP
	LogsLevel   string // minimum exported level

	DBTracing          bool // otelgorm spans for the document job store
	DBLogFullSQL       bool // keep bound values in db.statement (development only)
	SlowQueryThreshold time.Duration
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string // cpu, alloc_space, inuse_space, goroutines, mutex_count, ...
	SpanProfiles      bool     // label CPU samples with span IDs, requires telemetry
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DOCGEN_ prefix (e.g., DOCGEN_BACKEND_BASE_URL)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DOCGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit default so that an
	// absent key is not read as false.
	v.SetDefault("printing.headless", true)
	v.SetDefault("printing.disable_gpu", true)
	v.SetDefault("printing.print_background", true)
	v.SetDefault("inline.fallback_enabled", true)
	v.SetDefault("http.swagger_enabled", true)
	v.SetDefault("telemetry.db_tracing", true)
	v.SetDefault("profiling.span_profiles", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			SwaggerEnabled:   v.GetBool("http.swagger_enabled"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Backend: BackendConfig{
			BaseURL:    v.GetString("backend.base_url"),
			Timeout:    v.GetDuration("backend.timeout"),
			AuthType:   v.GetString("backend.auth_type"),
			Token:      v.GetString("backend.token"),
			APIKey:     v.GetString("backend.api_key"),
			APIKeyName: v.GetString("backend.api_key_name"),
			UserAgent:  v.GetString("backend.user_agent"),
			SendPath:   v.GetString("backend.send_path"),
		},
		Document: DocumentConfig{
			CurrencySymbol: v.GetString("document.currency_symbol"),
			Folder:         v.GetString("document.folder"),
			FileType:       v.GetString("document.file_type"),
			SchoolName:     v.GetString("document.school_name"),
		},
		Inline: InlineConfig{
			Concurrency:     v.GetInt("inline.concurrency"),
			Timeout:         v.GetDuration("inline.timeout"),
			MaxImageBytes:   v.GetInt64("inline.max_image_bytes"),
			FallbackEnabled: v.GetBool("inline.fallback_enabled"),
		},
		Printing: PrintingConfig{
			Mode:            v.GetString("printing.mode"),
			RemoteURL:       v.GetString("printing.remote_url"),
			Headless:        v.GetBool("printing.headless"),
			NoSandbox:       v.GetBool("printing.no_sandbox"),
			DisableGPU:      v.GetBool("printing.disable_gpu"),
			RenderTimeout:   v.GetDuration("printing.render_timeout"),
			ImageTimeout:    v.GetDuration("printing.image_timeout"),
			SettleDelay:     v.GetDuration("printing.settle_delay"),
			ScaleFactor:     v.GetFloat64("printing.scale_factor"),
			ViewportWidth:   v.GetInt("printing.viewport_width"),
			PaperSize:       v.GetString("printing.paper_size"),
			MarginTop:       v.GetFloat64("printing.margin_top"),
			MarginRight:     v.GetFloat64("printing.margin_right"),
			MarginBottom:    v.GetFloat64("printing.margin_bottom"),
			MarginLeft:      v.GetFloat64("printing.margin_left"),
			PrintBackground: v.GetBool("printing.print_background"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Driver:          v.GetString("cache.driver"),
			TTL:             v.GetDuration("cache.ttl"),
			CleanupInterval: v.GetDuration("cache.cleanup_interval"),
			KeyPrefix:       v.GetString("cache.key_prefix"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),

			LogsEnabled: v.GetBool("telemetry.logs_enabled"),
			LogsLevel:   v.GetString("telemetry.logs_level"),

			DBTracing:          v.GetBool("telemetry.db_tracing"),
			DBLogFullSQL:       v.GetBool("telemetry.db_log_full_sql"),
			SlowQueryThreshold: v.GetDuration("telemetry.slow_query_threshold"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "campus-docgen"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// generation waits on image loads and a browser capture
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:5000/api"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.AuthType == "" {
		cfg.Backend.AuthType = "bearer"
	}
	if cfg.Backend.APIKeyName == "" {
		cfg.Backend.APIKeyName = "X-API-Key"
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = "campus-docgen/1.0"
	}
	if cfg.Backend.SendPath == "" {
		cfg.Backend.SendPath = "/documents/send"
	}

	if cfg.Document.CurrencySymbol == "" {
		cfg.Document.CurrencySymbol = "€"
	}
	if cfg.Document.Folder == "" {
		cfg.Document.Folder = "StudentDocuments"
	}
	if cfg.Document.FileType == "" {
		cfg.Document.FileType = "pdf"
	}

	if cfg.Inline.Concurrency == 0 {
		cfg.Inline.Concurrency = 4
	}
	if cfg.Inline.Timeout == 0 {
		cfg.Inline.Timeout = 10 * time.Second
	}
	if cfg.Inline.MaxImageBytes == 0 {
		cfg.Inline.MaxImageBytes = 5 << 20 // 5MB
	}

	if cfg.Printing.Mode == "" {
		cfg.Printing.Mode = "snapshot"
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 45 * time.Second
	}
	if cfg.Printing.ImageTimeout == 0 {
		cfg.Printing.ImageTimeout = 10 * time.Second
	}
	if cfg.Printing.SettleDelay == 0 {
		cfg.Printing.SettleDelay = 150 * time.Millisecond
	}
	if cfg.Printing.ScaleFactor == 0 {
		cfg.Printing.ScaleFactor = 2
	}
	if cfg.Printing.ViewportWidth == 0 {
		cfg.Printing.ViewportWidth = 794 // A4 width at 96 dpi
	}
	if cfg.Printing.PaperSize == "" {
		cfg.Printing.PaperSize = "A4"
	}
	if cfg.Printing.MarginTop == 0 && cfg.Printing.MarginRight == 0 &&
		cfg.Printing.MarginBottom == 0 && cfg.Printing.MarginLeft == 0 {
		cfg.Printing.MarginTop = 10
		cfg.Printing.MarginRight = 10
		cfg.Printing.MarginBottom = 10
		cfg.Printing.MarginLeft = 10
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 2 * time.Hour
	}
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = 5 * time.Minute
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "docgen:signature:"
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "docgen"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "docgen.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "campus-docgen"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
	if cfg.Telemetry.SlowQueryThreshold == 0 {
		cfg.Telemetry.SlowQueryThreshold = 200 * time.Millisecond
	}

	if cfg.Profiling.ServerAddress == "" {
		cfg.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url is invalid: %w", err)
	}
	switch c.Backend.AuthType {
	case "none", "bearer", "api_key":
	default:
		return fmt.Errorf("backend.auth_type must be one of none, bearer, api_key, got %q", c.Backend.AuthType)
	}

	switch c.Printing.Mode {
	case "snapshot", "print":
	default:
		return fmt.Errorf("printing.mode must be snapshot or print, got %q", c.Printing.Mode)
	}
	if c.Printing.ScaleFactor < 1 || c.Printing.ScaleFactor > 4 {
		return fmt.Errorf("printing.scale_factor must be between 1 and 4, got %f", c.Printing.ScaleFactor)
	}
	if c.Printing.PaperSize != "A4" && c.Printing.PaperSize != "A5" {
		return fmt.Errorf("printing.paper_size must be A4 or A5, got %q", c.Printing.PaperSize)
	}

	if c.Inline.Concurrency < 1 {
		return fmt.Errorf("inline.concurrency must be positive")
	}

	switch c.Cache.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Driver == "postgres" && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Printing.NoSandbox {
			return fmt.Errorf("printing.no_sandbox must be false in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	switch c.Telemetry.LogsLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logs_level must be one of debug, info, warn, error, got %q", c.Telemetry.LogsLevel)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
