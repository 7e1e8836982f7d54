package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/DRSN-tech/inventory-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

type Config struct {
	Http   *HTTPConfig
	Grpc   *GRPCConfig
	Db     *PGDBCfg
	Redis  *RedisCfg
	Minio  *MinIOCfg
	Kafka  *KafkaCfg
	Outbox *OutboxCfg
	Sales  *SalesCfg
}

type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration // таймаут обработки одного запроса, включая транзакцию
	SwaggerURL     string
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
	SummaryTTL  time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для архива чеков
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	UploadTimeout     time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type OutboxCfg struct {
	BatchSize    int
	PollInterval time.Duration
}

type SalesCfg struct {
	RecentLimit int // сколько продаж отдаётся в истории по умолчанию
	MaxLimit    int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Переменные из .env подхватываются, если файл существует; окружение имеет приоритет.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to read .env file: %v", err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	outbox, err := loadOutboxCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sales, err := loadSalesCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:   http,
		Grpc:   loadGRPCConfig(),
		Db:     db,
		Redis:  redis,
		Minio:  minio,
		Kafka:  kafka,
		Outbox: outbox,
		Sales:  sales,
	}, nil
}

// LoggerConfig читает настройки логгера. Вызывается до Load, поэтому без ошибок.
func LoggerConfig() *logger.Config {
	disableCaller, _ := strconv.ParseBool(getEnvOrDefault("LOG_DISABLE_CALLER", "false"))
	disableStacktrace, _ := strconv.ParseBool(getEnvOrDefault("LOG_DISABLE_STACKTRACE", "true"))

	return &logger.Config{
		Level:             getEnvOrDefault("LOG_LEVEL", "info"),
		Encoding:          getEnvOrDefault("LOG_ENCODING", "json"),
		DisableCaller:     disableCaller,
		DisableStacktrace: disableStacktrace,
	}
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	brokers := make([]string, 0)
	for _, b := range strings.Split(brokerStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	topic := getEnv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadOutboxCfg() (*OutboxCfg, error) {
	const (
		defaultBatchSize    = 10
		defaultPollInterval = 15 * time.Second
	)

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}

	pollInterval, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		return nil, e.Wrap("OUTBOX_POLL_INTERVAL", err)
	}

	return &OutboxCfg{
		BatchSize:    batchSize,
		PollInterval: pollInterval,
	}, nil
}

func loadSalesCfg() (*SalesCfg, error) {
	const (
		defaultRecentLimit = 50
		defaultMaxLimit    = 200
	)

	recent, err := parseIntEnv("SALES_RECENT_LIMIT", defaultRecentLimit)
	if err != nil {
		return nil, e.Wrap("SALES_RECENT_LIMIT", err)
	}

	maxLimit, err := parseIntEnv("SALES_MAX_LIMIT", defaultMaxLimit)
	if err != nil {
		return nil, e.Wrap("SALES_MAX_LIMIT", err)
	}

	if recent <= 0 || maxLimit < recent {
		return nil, e.Wrap("SALES_RECENT_LIMIT", e.ErrIncorrectEnvVariable)
	}

	return &SalesCfg{RecentLimit: recent, MaxLimit: maxLimit}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL        = false
		defaultEndpoint      = "minio:9000"
		defaultUploadTimeout = 10 * time.Second
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	uploadTimeout, err := parseDurationEnv("MINIO_UPLOAD_TIMEOUT", defaultUploadTimeout)
	if err != nil {
		log.Errorf(err, "invalid MINIO_UPLOAD_TIMEOUT")
		return nil, err
	}

	bucket := getEnv("BUCKET_NAME")
	if bucket == "" {
		err := fmt.Errorf("BUCKET_NAME is required")
		log.Errorf(err, "missing BUCKET_NAME")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		UploadTimeout:     uploadTimeout,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort           = "8080"
		defaultReadTimeout    = 5 * time.Second
		defaultWriteTimeout   = 10 * time.Second
		defaultIdleTimeout    = 60 * time.Second
		defaultRequestTimeout = 8 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	requestTimeout, err := parseDurationEnv("HTTP_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_REQUEST_TIMEOUT")
		return nil, err
	}

	return &HTTPConfig{
		Port:           port,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		RequestTimeout: requestTimeout,
		SwaggerURL:     getEnvOrDefault("SWAGGER_URL", "http://localhost:"+port+"/swagger/doc.json"),
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMaxConns       = 10
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	maxConns, err := parseIntEnv("POSTGRES_MAX_CONNS", defaultMaxConns)
	if err != nil || maxConns <= 0 {
		log.Errorf(e.ErrIncorrectEnvVariable, "invalid POSTGRES_MAX_CONNS")
		return nil, e.Wrap("POSTGRES_MAX_CONNS", e.ErrIncorrectEnvVariable)
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MaxConns:       int32(maxConns),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
		defaultSummaryTTL   = 30 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	summaryTTL, err := parseDurationEnv("SUMMARY_TTL", defaultSummaryTTL)
	if err != nil {
		log.Errorf(err, "invalid SUMMARY_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     max(readTimeout, writeTimeout),
		ProductTTL:  productTTL,
		SummaryTTL:  summaryTTL,
	}, nil
}

// DSN собирает строку подключения к PostgreSQL.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
