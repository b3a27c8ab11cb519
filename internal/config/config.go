package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server      ServerConfig
	AI          AIConfig
	Negotiation NegotiationConfig
	History     HistoryConfig
	CORS        CORSConfig
	Log         LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	negotiation, err := loadNegotiationConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		AI:          ai,
		Negotiation: negotiation,
		History:     history,
		CORS:        loadCORSConfig(),
		Log:         logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	MaxAttempts  int
	RetryDelay   time.Duration
	HistoryLimit int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	attempts, err := parseIntEnv("AI_MAX_ATTEMPTS", 3, 1)
	if err != nil {
		return AIConfig{}, err
	}

	delayMs, err := parseIntEnv("AI_RETRY_DELAY_MS", 500, 1)
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit, err := parseIntEnv("AI_HISTORY_LIMIT", 5, 1)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		MaxAttempts:  attempts,
		RetryDelay:   time.Duration(delayMs) * time.Millisecond,
		HistoryLimit: historyLimit,
	}, nil
}

// NegotiationConfig 描述谈判引擎的业务参数。
type NegotiationConfig struct {
	TotalDebt      int
	PaymentBaseURL string
	AdapterTimeout time.Duration
	Reclassify     bool
	Greeting       string
}

const defaultGreetingTemplate = "Hello! Our records show that you currently owe $%d. Are you able to resolve this debt today?"

// DefaultGreeting 返回会话开场白。
func DefaultGreeting(totalDebt int) string {
	return fmt.Sprintf(defaultGreetingTemplate, totalDebt)
}

func loadNegotiationConfig() (NegotiationConfig, error) {
	totalDebt, err := parseIntEnv("TOTAL_DEBT", 2400, 1)
	if err != nil {
		return NegotiationConfig{}, err
	}

	timeoutMs, err := parseIntEnv("ADAPTER_TIMEOUT_MS", 20000, 0)
	if err != nil {
		return NegotiationConfig{}, err
	}

	reclassify, err := parseBoolEnv("NEGOTIATION_RECLASSIFY", false)
	if err != nil {
		return NegotiationConfig{}, err
	}

	return NegotiationConfig{
		TotalDebt:      totalDebt,
		PaymentBaseURL: getEnvOrDefault("PAYMENT_URL_BASE", "https://collectwise.com"),
		AdapterTimeout: time.Duration(timeoutMs) * time.Millisecond,
		Reclassify:     reclassify,
		Greeting:       getEnvOrDefault("OPENING_GREETING", DefaultGreeting(totalDebt)),
	}, nil
}

// History drivers.
const (
	HistoryDriverFile   = "file"
	HistoryDriverSQLite = "sqlite"
	HistoryDriverMemory = "memory"
)

// HistoryConfig 描述对话记录的持久化方式。
type HistoryConfig struct {
	Driver   string
	FilePath string
	DBPath   string
}

func loadHistoryConfig() (HistoryConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("HISTORY_DRIVER", HistoryDriverFile))
	switch driver {
	case HistoryDriverFile, HistoryDriverSQLite, HistoryDriverMemory:
	default:
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_DRIVER value %q: want file, sqlite or memory", driver)
	}

	return HistoryConfig{
		Driver:   driver,
		FilePath: getEnvOrDefault("HISTORY_FILE_PATH", "data/history.json"),
		DBPath:   getEnvOrDefault("HISTORY_DB_PATH", "data/history.db"),
	}, nil
}

// CORSConfig 描述允许的前端来源。
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("FRONTEND_ORIGIN", "*")
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORSConfig{AllowedOrigins: origins}
}

// LogConfig 描述结构化事件日志的级别与格式。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() (LogConfig, error) {
	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q", level)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{Level: level, Format: format}, nil
}

// NewLogger builds the zerolog logger for engine events.
func (c LogConfig) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseIntEnv 读取整数配置，缺省时返回 defaultValue，低于 minValue 视为错误。
func parseIntEnv(key string, defaultValue, minValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < minValue {
		return 0, fmt.Errorf("invalid %s value %d: must be >= %d", key, *val, minValue)
	}
	return *val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
