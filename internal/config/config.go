package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Cache        CacheConfig
	Auth         AuthConfig
	LLM          LLMConfig
	Cloudinary   CloudinaryConfig
	Logging      LoggingConfig
	RateLimit    RateLimitConfig
	Gamification GamificationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
	MaxHeaderBytes  int
	ServerName      string
	AllowedOrigins  []string
	SwaggerUsername string
	SwaggerPassword string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	ConnectTimeout      time.Duration
	SlowQueryThreshold  time.Duration
	EnableQueryLogging  bool
	HealthCheckInterval time.Duration
	MigrationsPath      string
	MaxRetryAttempts    int
}

// CacheConfig selects and tunes the cache provider.
type CacheConfig struct {
	Provider        string // memory, redis
	RedisURL        string
	DefaultTTL      time.Duration
	DashboardTTL    time.Duration
	LeaderboardTTL  time.Duration
	MaxKeys         int
	CleanupInterval time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret          string
	JWTExpiry          time.Duration
	BCryptCost         int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// LLMConfig configures the OpenAI-compatible text generation endpoint (Groq by default).
// The generator is considered configured only when APIKey is non-empty.
type LLMConfig struct {
	APIKey                  string
	BaseURL                 string
	Model                   string
	Timeout                 time.Duration
	ReformulateTemperature  float64
	ChatTemperature         float64
	ChatMaxTokens           int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// CloudinaryConfig holds avatar upload configuration
type CloudinaryConfig struct {
	CloudName      string
	APIKey         string
	APISecret      string
	Folder         string
	MaxFileSize    int64
	AllowedFormats []string
	MaxRetries     int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// RateLimitConfig is the per-user fixed window applied to analyze, reformulate and chat.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// GamificationConfig holds the progression constants.
type GamificationConfig struct {
	DetectionPoints int
	ChallengeTarget int
	ChallengeReward int
	RandomSeed      int64 // 0 means seed from the clock
}

// ===============================
// LOADER
// ===============================

// Load reads .env.<GO_ENV> (or .env) outside production and builds the configuration from the environment.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		Server:       loadServerConfig(env),
		Database:     loadDatabaseConfig(env),
		Cache:        loadCacheConfig(),
		Auth:         loadAuthConfig(),
		LLM:          loadLLMConfig(),
		Cloudinary:   loadCloudinaryConfig(),
		Logging:      loadLoggingConfig(env),
		RateLimit:    loadRateLimitConfig(),
		Gamification: loadGamificationConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadServerConfig(env string) ServerConfig {
	config := ServerConfig{
		Port:            getEnv("PORT", "3000"),
		Environment:     env,
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1MB
		ServerName:      getEnv("SERVER_NAME", "Hack Speech"),
		AllowedOrigins:  getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		SwaggerUsername: getEnv("SWAGGER_USERNAME", ""),
		SwaggerPassword: getEnv("SWAGGER_PASSWORD", ""),
	}

	if env == "development" {
		config.GracefulTimeout = getDurationEnv("GRACEFUL_TIMEOUT", 10*time.Second)
	}

	return config
}

func loadDatabaseConfig(env string) DatabaseConfig {
	var defaultMaxOpen, defaultMaxIdle int
	var defaultConnLifetime time.Duration

	switch env {
	case "production":
		defaultMaxOpen = 50
		defaultMaxIdle = 20
		defaultConnLifetime = 15 * time.Minute
	case "staging":
		defaultMaxOpen = 25
		defaultMaxIdle = 10
		defaultConnLifetime = 10 * time.Minute
	default: // development
		defaultMaxOpen = 10
		defaultMaxIdle = 5
		defaultConnLifetime = 5 * time.Minute
	}

	return DatabaseConfig{
		URL:                 os.Getenv("DATABASE_URL"),
		MaxOpenConns:        getIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpen),
		MaxIdleConns:        getIntEnv("DB_MAX_IDLE_CONNS", defaultMaxIdle),
		ConnMaxLifetime:     getDurationEnv("DB_CONN_MAX_LIFETIME", defaultConnLifetime),
		ConnMaxIdleTime:     getDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:      getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		SlowQueryThreshold:  getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		EnableQueryLogging:  getBoolEnv("DB_ENABLE_QUERY_LOGGING", env == "development"),
		HealthCheckInterval: getDurationEnv("DB_HEALTH_CHECK_INTERVAL", 30*time.Second),
		MigrationsPath:      getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		MaxRetryAttempts:    getIntEnv("DB_MAX_RETRY_ATTEMPTS", 5),
	}
}

func loadCacheConfig() CacheConfig {
	redisURL := getEnv("REDIS_URL", "")
	provider := "memory"
	if redisURL != "" {
		provider = "redis"
	}

	return CacheConfig{
		Provider:        getEnv("CACHE_PROVIDER", provider),
		RedisURL:        redisURL,
		DefaultTTL:      getDurationEnv("CACHE_DEFAULT_TTL", 5*time.Minute),
		DashboardTTL:    getDurationEnv("CACHE_DASHBOARD_TTL", 1*time.Minute),
		LeaderboardTTL:  getDurationEnv("CACHE_LEADERBOARD_TTL", 30*time.Second),
		MaxKeys:         getIntEnv("CACHE_MAX_KEYS", 10000),
		CleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiry:          getDurationEnv("JWT_EXPIRY", 30*24*time.Hour),
		BCryptCost:         getIntEnv("BCRYPT_COST", 12),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}
}

func loadLLMConfig() LLMConfig {
	return LLMConfig{
		APIKey:                  getEnv("API_CHAT", ""),
		BaseURL:                 getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:                   getEnv("LLM_MODEL", "openai/gpt-oss-20b"),
		Timeout:                 getDurationEnv("LLM_TIMEOUT", 10*time.Second),
		ReformulateTemperature:  getFloat64Env("LLM_REFORMULATE_TEMPERATURE", 0.6),
		ChatTemperature:         getFloat64Env("LLM_CHAT_TEMPERATURE", 0.7),
		ChatMaxTokens:           getIntEnv("LLM_CHAT_MAX_TOKENS", 500),
		CircuitBreakerThreshold: getIntEnv("LLM_CIRCUIT_BREAKER_THRESHOLD", 5),
		CircuitBreakerTimeout:   getDurationEnv("LLM_CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
	}
}

func loadCloudinaryConfig() CloudinaryConfig {
	return CloudinaryConfig{
		CloudName:      os.Getenv("CLOUDINARY_CLOUD_NAME"),
		APIKey:         os.Getenv("CLOUDINARY_API_KEY"),
		APISecret:      os.Getenv("CLOUDINARY_API_SECRET"),
		Folder:         getEnv("CLOUDINARY_FOLDER", "hackspeech/avatars"),
		MaxFileSize:    getInt64Env("CLOUDINARY_MAX_FILE_SIZE", 5*1024*1024), // 5MB
		AllowedFormats: getListEnv("CLOUDINARY_ALLOWED_FORMATS", []string{"image/jpeg", "image/png", "image/webp", "image/gif"}),
		MaxRetries:     getIntEnv("CLOUDINARY_MAX_RETRIES", 3),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
		RequestsPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
	}
}

func loadGamificationConfig() GamificationConfig {
	return GamificationConfig{
		DetectionPoints: getIntEnv("DETECTION_POINTS", 15),
		ChallengeTarget: getIntEnv("CHALLENGE_TARGET", 10),
		ChallengeReward: getIntEnv("CHALLENGE_REWARD", 100),
		RandomSeed:      getInt64Env("RANDOM_SEED", 0),
	}
}

// ===============================
// VALIDATION
// ===============================

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.Auth.Validate(c.IsProduction()); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.Gamification.Validate(); err != nil {
		return fmt.Errorf("gamification config: %w", err)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}

	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}

	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}

	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}

	if d.ConnMaxLifetime <= 0 {
		return fmt.Errorf("ConnMaxLifetime must be positive")
	}

	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}

	return nil
}

func (c *CacheConfig) Validate() error {
	switch c.Provider {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER=redis")
		}
	default:
		return fmt.Errorf("unsupported cache provider: %s", c.Provider)
	}

	if c.DefaultTTL <= 0 {
		return fmt.Errorf("DefaultTTL must be positive")
	}

	return nil
}

func (a *AuthConfig) Validate(production bool) error {
	if a.JWTSecret == "" {
		if production {
			return fmt.Errorf("JWT_SECRET must be set for production")
		}
		a.JWTSecret = "dev-jwt-secret-change-me"
	}

	if a.BCryptCost < 4 || a.BCryptCost > 31 {
		return fmt.Errorf("BCryptCost must be between 4 and 31")
	}

	if a.JWTExpiry <= 0 {
		return fmt.Errorf("JWTExpiry must be positive")
	}

	return nil
}

func (l *LLMConfig) Validate() error {
	if _, err := url.ParseRequestURI(l.BaseURL); err != nil {
		return fmt.Errorf("invalid LLM_BASE_URL: %w", err)
	}

	if l.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if l.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}

	return nil
}

func (g *GamificationConfig) Validate() error {
	if g.DetectionPoints < 0 {
		return fmt.Errorf("DETECTION_POINTS cannot be negative")
	}

	if g.ChallengeTarget <= 0 {
		return fmt.Errorf("CHALLENGE_TARGET must be positive")
	}

	if g.ChallengeReward < 0 {
		return fmt.Errorf("CHALLENGE_REWARD cannot be negative")
	}

	return nil
}

// Configured reports whether the Groq key is present.
func (l LLMConfig) Configured() bool {
	return l.APIKey != ""
}

// Configured reports whether all Cloudinary credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloat64Env(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
