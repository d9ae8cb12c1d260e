package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	drepo "RetScan/internal/domain/repository"
	dservice "RetScan/internal/domain/service"
	"RetScan/internal/handler/api"
	internalrepo "RetScan/internal/repository"
	icache "RetScan/internal/service/cache"
	"RetScan/internal/services/marketdata"
	"RetScan/internal/usecase"
	pkgcache "RetScan/pkg/cache"
	pkgch "RetScan/pkg/clickhouse"
	"RetScan/pkg/config"
	pkgkafka "RetScan/pkg/kafka"
	applogger "RetScan/pkg/logger"
	"RetScan/pkg/metrics"
	"RetScan/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideClickHouseClient creates a ClickHouse client and initializes schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS retscan",
		`CREATE TABLE IF NOT EXISTS retscan.daily_bars (
            date Date, ticker String,
            open Float64, high Float64, low Float64, close Float64,
            adj_close Float64, volume Float64
        ) ENGINE=ReplacingMergeTree ORDER BY (ticker, date)`,
		`CREATE TABLE IF NOT EXISTS retscan.anomaly_flags (
            run_id String, ticker String, date Date, idx UInt32,
            return Float64, volatility Float64, volume_z Float64,
            sliding UInt8, robust UInt8
        ) ENGINE=MergeTree ORDER BY (ticker, date, run_id)`,
		`CREATE TABLE IF NOT EXISTS retscan.calibration_runs (
            run_id String, ticker String,
            threshold Float64, rate Float64, reason String,
            trials UInt32, trace String
        ) ENGINE=MergeTree ORDER BY (ticker, run_id)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(ch *pkgch.Client, l *applogger.Logger) drepo.BarStore {
	s := internalrepo.NewCHBarStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideResultStore creates the ClickHouse result store.
func ProvideResultStore(ch *pkgch.Client, l *applogger.Logger) drepo.ResultStore {
	s := internalrepo.NewCHResultStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideAnomalyPublisher creates the Kafka anomaly-event publisher.
func ProvideAnomalyPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.AnomalyTopic)
}

// ProvideLockCache creates the cache used for scan locking: Redis when
// configured, otherwise in-process memory.
func ProvideLockCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	// Locks stay in Redis; the memory layer only serves reads.
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideBytesCache creates the byte cache for HTTP read endpoints.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideBarSource creates the external market-data client.
func ProvideBarSource(cfg *config.Config) drepo.BarSource {
	timeout := cfg.MarketData.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return marketdata.New(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, timeout)
}

// ProvideSeriesSource creates the series source: CSV dataset files when a
// dataset directory is configured, stored bars otherwise.
func ProvideSeriesSource(cfg *config.Config, bars drepo.BarStore) dservice.SeriesSource {
	if cfg.Detector.DatasetDir != "" {
		return usecase.NewCSVSeriesSource(cfg.Detector.DatasetDir)
	}
	return usecase.NewBarSeriesSource(bars)
}

// ProvideScanUseCase creates the detection pipeline use case.
func ProvideScanUseCase(
	source dservice.SeriesSource,
	results drepo.ResultStore,
	pub drepo.Publisher,
	m drepo.Metrics,
	c pkgcache.Service,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(source, results, pub, m, c, l)
}

// ProvideClusterUseCase creates the clustering use case.
func ProvideClusterUseCase(source dservice.SeriesSource) *usecase.ClusterUseCase {
	return usecase.NewClusterUseCase(source)
}

// ProvideIngestUseCase creates the bar-ingestion use case.
func ProvideIngestUseCase(
	src drepo.BarSource,
	store drepo.BarStore,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.IngestUseCase {
	return usecase.NewIngestUseCase(src, store, m, l)
}

// ProvideScanRequestHandler registers the handler for the scan-request topic.
func ProvideScanRequestHandler(
	scans *usecase.ScanUseCase,
	m drepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ScanRequestHandler {
	return usecase.NewScanRequestHandler(cfg.Kafka.RequestsTopic, scans, m, l)
}

// ProvideDetectionHandler creates the HTTP handler with its caches wired.
func ProvideDetectionHandler(
	l *applogger.Logger,
	scans *usecase.ScanUseCase,
	clusters *usecase.ClusterUseCase,
	results drepo.ResultStore,
	bc icache.BytesCache,
	ingest *usecase.IngestUseCase,
	cfg *config.Config,
) *api.DetectionHandler {
	h := api.NewDetectionHandler(l, scans, clusters, results)
	h.SetCache(bc)
	if cfg.MarketData.APIKey != "" {
		h.SetIngest(ingest, cfg.MarketData.Tickers)
	}
	return h
}

// logPublisher adapts the Kafka producer to the log collector's sink.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	consumer *pkgkafka.Consumer,
	kh *usecase.ScanRequestHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	pub drepo.Publisher,
	handler *api.DetectionHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.LoggingHook{Logger: l})
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "retscan.logs",
		Publisher:      logPublisher{p: producer},
	})
	app := server.New(cfg, l, consumer, kh, chClient, pub)
	app.SetHTTPHandler(handler)
	return app
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}
