package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	queryStartKey     = "telemetry:query_start"
	slowQueryDuration = 200 * time.Millisecond
)

// dbDurationBuckets are histogram boundaries in seconds
var dbDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// DBOptions selects which database instrumentation is installed
type DBOptions struct {
	Tracing    bool
	LogFullSQL bool
	Meter      metric.Meter
}

// InstrumentDB attaches otelgorm spans, query latency metrics and connection
// pool gauges to db. A nil Meter skips metrics.
func InstrumentDB(db *gorm.DB, opts DBOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Tracing {
		pluginOpts := []otelgorm.Option{otelgorm.WithDBName("postgres")}
		if !opts.LogFullSQL {
			pluginOpts = append(pluginOpts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(pluginOpts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}
	if opts.Meter != nil {
		if err := registerQueryMetrics(db, opts.Meter); err != nil {
			return err
		}
		if err := registerPoolGauges(db, opts.Meter); err != nil {
			return err
		}
	}
	logger.Info("Database instrumentation installed",
		zap.Bool("tracing", opts.Tracing),
		zap.Bool("metrics", opts.Meter != nil),
	)
	return nil
}

func registerQueryMetrics(db *gorm.DB, meter metric.Meter) error {
	duration, err := meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(dbDurationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create query histogram: %w", err)
	}
	slow, err := meter.Int64Counter("db_slow_query_total",
		metric.WithDescription("Queries slower than 200ms"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create slow query counter: %w", err)
	}

	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			elapsed := time.Since(start)
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			attrs := metric.WithAttributes(
				attribute.String("db.operation", op),
				attribute.String("db.table", tx.Statement.Table),
				attribute.Bool("error", tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound)),
			)
			duration.Record(ctx, elapsed.Seconds(), attrs)
			if elapsed >= slowQueryDuration {
				slow.Add(ctx, 1, attrs)
			}
		}
	}

	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("telemetry:before_create", before),
		cb.Create().After("gorm:create").Register("telemetry:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("telemetry:before_query", before),
		cb.Query().After("gorm:query").Register("telemetry:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", before),
		cb.Update().After("gorm:update").Register("telemetry:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", before),
		cb.Row().After("gorm:row").Register("telemetry:after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after("raw")),
	); err != nil {
		return fmt.Errorf("failed to register query callbacks: %w", err)
	}
	return nil
}

// registerPoolGauges reports sql.DB pool stats on every collection cycle
func registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(attribute.String("state", "in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(attribute.String("state", "idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxConns, waits)
	return err
}
