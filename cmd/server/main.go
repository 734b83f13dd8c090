package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	docapp "github.com/campus/docgen/internal/application/document"
	"github.com/campus/docgen/internal/domain/document"
	"github.com/campus/docgen/internal/infrastructure/backend"
	"github.com/campus/docgen/internal/infrastructure/cache"
	"github.com/campus/docgen/internal/infrastructure/config"
	"github.com/campus/docgen/internal/infrastructure/inline"
	"github.com/campus/docgen/internal/infrastructure/logger"
	"github.com/campus/docgen/internal/infrastructure/persistence"
	"github.com/campus/docgen/internal/infrastructure/printing"
	"github.com/campus/docgen/internal/infrastructure/storage"
	"github.com/campus/docgen/internal/infrastructure/telemetry"
	"github.com/campus/docgen/internal/interfaces/http/handler"
	"github.com/campus/docgen/internal/interfaces/http/middleware"
	"github.com/campus/docgen/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Campus Document Service API
//	@version		1.0
//	@description	Student letters hydrated from templates, rendered to PDF, downloaded or emailed

//	@contact.name	Campus Platform Team

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token forwarded to the school backend. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting document service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	logsLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogsLevel)
	if err != nil {
		log.Fatal("Invalid telemetry logs level", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             logsLevel,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	defer func() {
		if err := lp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down OTEL logs", zap.Error(err))
		}
	}()
	log = lp.Bridge(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	metrics, err := telemetry.NewDocumentMetrics(tp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to create document metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThreshold,
		DBName:          cfg.Database.DBName,
		TracerProvider:  tp.TracerProvider(),
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	jobRepo := persistence.NewGormDocumentJobRepository(db.DB)

	// School backend
	backendClient, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		AuthType:   cfg.Backend.AuthType,
		Token:      cfg.Backend.Token,
		APIKey:     cfg.Backend.APIKey,
		APIKeyName: cfg.Backend.APIKeyName,
		UserAgent:  cfg.Backend.UserAgent,
		SendPath:   cfg.Backend.SendPath,
	}, backend.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create school backend client", zap.Error(err))
	}

	// Signature inlining
	inlineOpts := []inline.Option{inline.WithLogger(log)}
	if cfg.Storage.Enabled {
		objects, err := storage.NewS3ObjectStorage(ctx, storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		}, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create object storage", zap.Error(err))
		}
		inlineOpts = append(inlineOpts, inline.WithObjectStorage(objects))
	}
	inliner := inline.New(backendClient, inline.Config{
		Concurrency:     cfg.Inline.Concurrency,
		Timeout:         cfg.Inline.Timeout,
		MaxImageBytes:   cfg.Inline.MaxImageBytes,
		FallbackEnabled: cfg.Inline.FallbackEnabled,
	}, inlineOpts...)

	signatureCache, err := cache.NewSignatureCacheFactory(cache.FactoryConfig{
		Driver: cfg.Cache.Driver,
		Redis: cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		KeyPrefix:       cfg.Cache.KeyPrefix,
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	},
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create()
	if err != nil {
		log.Fatal("Failed to create signature cache", zap.Error(err))
	}
	defer func() {
		if err := signatureCache.Close(); err != nil {
			log.Error("Error closing signature cache", zap.Error(err))
		}
	}()

	// PDF pipeline
	renderer := printing.NewRenderer(printing.Config{
		Mode:            cfg.Printing.Mode,
		RemoteURL:       cfg.Printing.RemoteURL,
		Headless:        cfg.Printing.Headless,
		NoSandbox:       cfg.Printing.NoSandbox,
		DisableGPU:      cfg.Printing.DisableGPU,
		RenderTimeout:   cfg.Printing.RenderTimeout,
		ImageTimeout:    cfg.Printing.ImageTimeout,
		SettleDelay:     cfg.Printing.SettleDelay,
		ScaleFactor:     cfg.Printing.ScaleFactor,
		ViewportWidth:   cfg.Printing.ViewportWidth,
		PrintBackground: cfg.Printing.PrintBackground,
	}, log)
	defer func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing renderer", zap.Error(err))
		}
	}()

	margins, err := document.NewMargins(
		cfg.Printing.MarginTop, cfg.Printing.MarginRight,
		cfg.Printing.MarginBottom, cfg.Printing.MarginLeft,
	)
	if err != nil {
		log.Fatal("Invalid page margins", zap.Error(err))
	}

	documentService := docapp.NewDocumentService(
		backendClient, inliner, signatureCache, renderer, jobRepo,
		docapp.Config{
			SchoolName: cfg.Document.SchoolName,
			Folder:     cfg.Document.Folder,
			FileType:   cfg.Document.FileType,
			Mode:       cfg.Printing.Mode,
			PaperSize:  document.PaperSize(cfg.Printing.PaperSize),
			Margins:    margins,
			PageWidth:  cfg.Printing.ViewportWidth,
		},
		docapp.WithLogger(log),
		docapp.WithMetrics(metrics),
		docapp.WithResolver(document.NewResolver(document.WithCurrencySymbol(cfg.Document.CurrencySymbol))),
	)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(logger.Recovery(log), middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})...)
	engine.Use(
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.ForwardToken(),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version,
		handler.WithHealthCheck("database", func(context.Context) error { return db.Ping() }),
	)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine)
	r.Register(handler.SystemRoutes(systemHandler))
	for _, group := range handler.DocumentRoutes(handler.NewDocumentHandler(documentService)) {
		r.Register(group)
	}
	r.Setup()

	if cfg.HTTP.SwaggerEnabled && cfg.App.Env != "production" {
		handler.RegisterSwagger(engine, r.BasePath())
	}

	for _, route := range r.Routes() {
		log.Debug("Route registered",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("description", route.Description),
		)
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
