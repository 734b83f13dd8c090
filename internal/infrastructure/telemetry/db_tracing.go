package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "docgen:query_start"

// DBTracingConfig holds configuration for document job store tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // keep bound values in db.statement (development only)
	SlowQueryThresh time.Duration // Default: 200ms
	DBName          string
	TracerProvider  trace.TracerProvider // nil uses the global provider
}

// DBTracingPlugin registers otelgorm and tags slow statements on its spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the otelgorm plugin and the slow statement callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.config.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.config.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("docgen_timing:before_create", markQueryStart),
		cb.Create().After("gorm:create").Register("docgen_timing:after_create", p.afterQuery),
		cb.Query().Before("gorm:query").Register("docgen_timing:before_query", markQueryStart),
		cb.Query().After("gorm:query").Register("docgen_timing:after_query", p.afterQuery),
		cb.Update().Before("gorm:update").Register("docgen_timing:before_update", markQueryStart),
		cb.Update().After("gorm:update").Register("docgen_timing:after_update", p.afterQuery),
		cb.Delete().Before("gorm:delete").Register("docgen_timing:before_delete", markQueryStart),
		cb.Delete().After("gorm:delete").Register("docgen_timing:after_delete", p.afterQuery),
		cb.Row().Before("gorm:row").Register("docgen_timing:before_row", markQueryStart),
		cb.Row().After("gorm:row").Register("docgen_timing:after_row", p.afterQuery),
		cb.Raw().Before("gorm:raw").Register("docgen_timing:before_raw", markQueryStart),
		cb.Raw().After("gorm:raw").Register("docgen_timing:after_raw", p.afterQuery),
	); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_name", p.config.DBName),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	slow := elapsed >= p.config.SlowQueryThresh

	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.Bool("db.slow_query", slow),
		)
	}

	if slow {
		p.logger.Warn("Slow document job query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", p.config.SlowQueryThresh),
			zap.String("trace_id", GetTraceID(ctx)),
		)
	}
}
