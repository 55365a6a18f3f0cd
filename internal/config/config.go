package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vaultheim/crucible/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Storage drivers. Memory keeps everything in process and is meant for dev
// and tests; postgres is the production driver.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	StorageDriver                string
	DBURL                        string
	DBDisablePreparedBinary      bool
	CORSAllowedOrigins           []string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	PprofEnabled                 bool
	PprofAddr                    string
	AccountBaseURL               string
	AccountIntrospectPath        string
	AccountTimeout               time.Duration
	CatalogEnabled               bool
	CatalogBaseURL               string
	CatalogToken                 string
	CatalogTimeout               time.Duration
	CatalogMaxRetries            int
	CatalogPageSize              int
	CatalogCacheTTL              time.Duration
	CatalogCircuitEnabled        bool
	CatalogCircuitFailureCount   int
	CatalogCircuitOpenTimeout    time.Duration
	CatalogCircuitHalfOpenMaxReq int
	SweepEnabled                 bool
	SweepInterval                time.Duration
	SweepMaxAge                  time.Duration
	SweepWorkers                 int
	InternalJobToken             string
	UptraceEnabled               bool
	UptraceDSN                   string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	LogLevel                     logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	storageDriver, err := parseStorageDriver(getEnv("STORAGE_DRIVER", StorageMemory))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	catalogEnabled, err := strconv.ParseBool(getEnv("CATALOG_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_ENABLED: %w", err)
	}
	catalogTimeout, err := time.ParseDuration(getEnv("CATALOG_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_TIMEOUT: %w", err)
	}
	if catalogTimeout <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT must be > 0")
	}
	catalogMaxRetries, err := getEnvAsInt("CATALOG_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_MAX_RETRIES: %w", err)
	}
	if catalogMaxRetries < 0 {
		return Config{}, fmt.Errorf("CATALOG_MAX_RETRIES must be >= 0")
	}
	catalogPageSize, err := getEnvAsInt("CATALOG_PAGE_SIZE", 200)
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_PAGE_SIZE: %w", err)
	}
	if catalogPageSize < 1 {
		return Config{}, fmt.Errorf("CATALOG_PAGE_SIZE must be >= 1")
	}
	catalogCacheTTL, err := time.ParseDuration(getEnv("CATALOG_CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CACHE_TTL: %w", err)
	}
	if catalogCacheTTL <= 0 {
		return Config{}, fmt.Errorf("CATALOG_CACHE_TTL must be > 0")
	}
	catalogCircuitEnabled, err := strconv.ParseBool(getEnv("CATALOG_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CIRCUIT_ENABLED: %w", err)
	}
	catalogCircuitFailureCount, err := getEnvAsInt("CATALOG_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if catalogCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("CATALOG_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	catalogCircuitOpenTimeout, err := time.ParseDuration(getEnv("CATALOG_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if catalogCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("CATALOG_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	catalogCircuitHalfOpenMaxReq, err := getEnvAsInt("CATALOG_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if catalogCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("CATALOG_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	sweepEnabled, err := strconv.ParseBool(getEnv("SWEEP_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_ENABLED: %w", err)
	}
	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
	}
	if sweepInterval <= 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	sweepMaxAge, err := time.ParseDuration(getEnv("SWEEP_MAX_AGE", "24h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_MAX_AGE: %w", err)
	}
	if sweepMaxAge <= 0 {
		return Config{}, fmt.Errorf("SWEEP_MAX_AGE must be > 0")
	}
	sweepWorkers, err := getEnvAsInt("SWEEP_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_WORKERS: %w", err)
	}
	if sweepWorkers < 1 {
		return Config{}, fmt.Errorf("SWEEP_WORKERS must be >= 1")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	accountTimeout, err := time.ParseDuration(getEnv("ACCOUNT_TIMEOUT", "3s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ACCOUNT_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "crucible-api"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":8080"),
		StorageDriver:                storageDriver,
		DBURL:                        strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary:      dbDisablePreparedBinary,
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                  readTimeout,
		WriteTimeout:                 writeTimeout,
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		AccountBaseURL:               getEnv("ACCOUNT_BASE_URL", "http://localhost:8081"),
		AccountIntrospectPath:        getEnv("ACCOUNT_INTROSPECT_PATH", "/v1/auth/introspect"),
		AccountTimeout:               accountTimeout,
		CatalogEnabled:               catalogEnabled,
		CatalogBaseURL:               strings.TrimSpace(getEnv("CATALOG_BASE_URL", "https://decksofkeyforge.com/public-api/v1")),
		CatalogToken:                 strings.TrimSpace(getEnv("CATALOG_TOKEN", "")),
		CatalogTimeout:               catalogTimeout,
		CatalogMaxRetries:            catalogMaxRetries,
		CatalogPageSize:              catalogPageSize,
		CatalogCacheTTL:              catalogCacheTTL,
		CatalogCircuitEnabled:        catalogCircuitEnabled,
		CatalogCircuitFailureCount:   catalogCircuitFailureCount,
		CatalogCircuitOpenTimeout:    catalogCircuitOpenTimeout,
		CatalogCircuitHalfOpenMaxReq: catalogCircuitHalfOpenMaxReq,
		SweepEnabled:                 sweepEnabled,
		SweepInterval:                sweepInterval,
		SweepMaxAge:                  sweepMaxAge,
		SweepWorkers:                 sweepWorkers,
		InternalJobToken:             strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		LogLevel:                     parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.StorageDriver == StoragePostgres && strings.TrimSpace(cfg.DBURL) == "" {
		return Config{}, fmt.Errorf("DB_URL is required when STORAGE_DRIVER=postgres")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseStorageDriver(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case StorageMemory, StoragePostgres:
		return value, nil
	default:
		return "", fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", v, StorageMemory, StoragePostgres)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}
