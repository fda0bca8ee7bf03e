// Пакет config — загрузка и валидация конфигурации maker-checker BFF
// из переменных окружения с префиксом MCB_.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// ServiceName — имя сервиса в health-ответах и метриках зависимостей.
const ServiceName = "maker-checker-bff"

// Config содержит все параметры конфигурации maker-checker BFF.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Разрешённые CORS origins админского UI
	CORSOrigins []string

	// --- Ядро ---

	// Базовый URL REST API ядра (например, https://core.bank.lan/fineract-provider/api/v1)
	CoreURL string
	// Таймаут одного запроса к ядру
	CoreTimeout time.Duration
	// Путь к CA-сертификату ядра (опционально)
	CoreCACertPath string
	// Не проверять TLS-сертификат ядра (только для стендов)
	CoreInsecureSkipVerify bool
	// Путь health endpoint ядра относительно корня сервера
	CoreHealthPath string
	// Заголовок тенанта
	TenantHeader string
	// Тенант по умолчанию, если заголовок не передан (опционально)
	DefaultTenant string

	// --- Circuit breaker ---

	// Доля ошибок, при которой breaker размыкается
	BreakerFailureRatio float64
	// Минимум запросов в окне до оценки доли ошибок
	BreakerMinRequests uint32
	// Время в разомкнутом состоянии до пробных запросов
	BreakerOpenTimeout time.Duration

	// --- JWT ---

	// URL JWKS endpoint IdP
	JWTJWKSURL string
	// Ожидаемый issuer (пустой — не проверять)
	JWTIssuer string
	// Путь к CA-сертификату IdP (опционально)
	JWTCACertPath string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления ключей JWKS
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение часов при проверке exp/nbf
	JWTLeeway time.Duration

	// --- Маппинг групп → ролей ---

	RoleAdminGroups   []string
	RoleCheckerGroups []string
	RoleMakerGroups   []string

	// --- Зависимости ---

	// Группа сервиса в метриках topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Таймаут проверок readiness
	ReadinessTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MCB_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("MCB_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("MCB_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MCB_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// MCB_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("MCB_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("MCB_LOG_LEVEL: %w", err)
	}

	// MCB_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MCB_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MCB_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	if cfg.HTTPReadTimeout, err = getEnvDuration("MCB_HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_HTTP_READ_TIMEOUT: %w", err)
	}
	if cfg.HTTPWriteTimeout, err = getEnvDuration("MCB_HTTP_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_HTTP_WRITE_TIMEOUT: %w", err)
	}
	if cfg.HTTPIdleTimeout, err = getEnvDuration("MCB_HTTP_IDLE_TIMEOUT", 120*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// MCB_CORS_ORIGINS — origins админского UI (пусто — CORS выключен)
	cfg.CORSOrigins = parseCSV(getEnvDefault("MCB_CORS_ORIGINS", ""))

	// --- Ядро ---

	// MCB_CORE_URL — обязательный
	cfg.CoreURL, err = getEnvRequired("MCB_CORE_URL")
	if err != nil {
		return nil, err
	}
	cfg.CoreURL = strings.TrimRight(cfg.CoreURL, "/")
	if u, perr := url.Parse(cfg.CoreURL); perr != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("MCB_CORE_URL: некорректный URL %q", cfg.CoreURL)
	}

	// MCB_CORE_TIMEOUT — таймаут запроса к ядру (по умолчанию 30s)
	if cfg.CoreTimeout, err = getEnvDuration("MCB_CORE_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_CORE_TIMEOUT: %w", err)
	}

	cfg.CoreCACertPath = getEnvDefault("MCB_CORE_CA_CERT_PATH", "")

	if cfg.CoreInsecureSkipVerify, err = getEnvBool("MCB_CORE_INSECURE_SKIP_VERIFY", false); err != nil {
		return nil, fmt.Errorf("MCB_CORE_INSECURE_SKIP_VERIFY: %w", err)
	}

	// MCB_CORE_HEALTH_PATH — health endpoint ядра (по умолчанию /actuator/health)
	cfg.CoreHealthPath = getEnvDefault("MCB_CORE_HEALTH_PATH", "/actuator/health")

	cfg.TenantHeader = getEnvDefault("MCB_TENANT_HEADER", "Fineract-Platform-TenantId")
	cfg.DefaultTenant = getEnvDefault("MCB_DEFAULT_TENANT", "")

	// --- Circuit breaker ---

	if cfg.BreakerFailureRatio, err = getEnvFloat("MCB_BREAKER_FAILURE_RATIO", 0.5); err != nil {
		return nil, fmt.Errorf("MCB_BREAKER_FAILURE_RATIO: %w", err)
	}
	if cfg.BreakerFailureRatio <= 0 || cfg.BreakerFailureRatio > 1 {
		return nil, fmt.Errorf("MCB_BREAKER_FAILURE_RATIO: значение %v вне диапазона (0, 1]", cfg.BreakerFailureRatio)
	}

	minRequests, err := getEnvInt("MCB_BREAKER_MIN_REQUESTS", 10)
	if err != nil {
		return nil, fmt.Errorf("MCB_BREAKER_MIN_REQUESTS: %w", err)
	}
	if minRequests < 1 {
		return nil, fmt.Errorf("MCB_BREAKER_MIN_REQUESTS: значение %d должно быть положительным", minRequests)
	}
	cfg.BreakerMinRequests = uint32(minRequests) //nolint:gosec // G115: проверено выше

	if cfg.BreakerOpenTimeout, err = getEnvDuration("MCB_BREAKER_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_BREAKER_OPEN_TIMEOUT: %w", err)
	}

	// --- JWT ---

	// MCB_JWT_JWKS_URL — обязательный
	cfg.JWTJWKSURL, err = getEnvRequired("MCB_JWT_JWKS_URL")
	if err != nil {
		return nil, err
	}
	cfg.JWTIssuer = getEnvDefault("MCB_JWT_ISSUER", "")
	cfg.JWTCACertPath = getEnvDefault("MCB_JWT_CA_CERT_PATH", "")

	if cfg.JWKSClientTimeout, err = getEnvDuration("MCB_JWKS_CLIENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_JWKS_CLIENT_TIMEOUT: %w", err)
	}
	if cfg.JWKSRefreshInterval, err = getEnvDuration("MCB_JWKS_REFRESH_INTERVAL", 15*time.Minute); err != nil {
		return nil, fmt.Errorf("MCB_JWKS_REFRESH_INTERVAL: %w", err)
	}
	if cfg.JWTLeeway, err = getEnvDuration("MCB_JWT_LEEWAY", 5*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_JWT_LEEWAY: %w", err)
	}

	// --- Маппинг групп → ролей ---

	cfg.RoleAdminGroups = parseCSV(getEnvDefault("MCB_ROLE_ADMIN_GROUPS", "mc-admins"))
	cfg.RoleCheckerGroups = parseCSV(getEnvDefault("MCB_ROLE_CHECKER_GROUPS", "mc-checkers"))
	cfg.RoleMakerGroups = parseCSV(getEnvDefault("MCB_ROLE_MAKER_GROUPS", "mc-makers"))

	// --- Зависимости ---

	cfg.DephealthGroup = getEnvDefault("MCB_DEPHEALTH_GROUP", "corebank-admin")
	if cfg.DephealthCheckInterval, err = getEnvDuration("MCB_DEPHEALTH_CHECK_INTERVAL", 15*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	if cfg.ReadinessTimeout, err = getEnvDuration("MCB_READINESS_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_READINESS_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// MCB_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	if cfg.ShutdownTimeout, err = getEnvDuration("MCB_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("MCB_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvFloat возвращает дробное значение переменной окружения или значение по умолчанию.
func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное число: %q", val)
	}
	return f, nil
}

// getEnvBool возвращает логическое значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное логическое значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
