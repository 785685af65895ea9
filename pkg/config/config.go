// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingToken is returned by Load when DISCORD_BOT_TOKEN is not set.
var ErrMissingToken = errors.New("DISCORD_BOT_TOKEN is not defined in environment variables")

// Store backends accepted in DB_BACKEND.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"
	BackendRedis = "redis"
)

// DefaultWhitelist is used when FILTER_WHITELIST is not set. A whitelisted
// word exempts the whole message, so only words that embed a flagged
// substring belong here.
const DefaultWhitelist = "class,assistant,pass,bass,scunthorpe"

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken     string
	OwnerID      string
	LogChannelID string

	// Record store
	StoreBackend string
	StorePath    string

	// MongoDB
	MongoDBURL string
	DBName     string

	// Redis
	RedisAddr string
	RedisKey  string

	// MQTT
	MQTTEnabled  bool
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port            string
	APIToken        string
	WebAllowedHosts string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook      string
	LogsWebhook       string
	LogsWebServerHook string

	// Commands
	CommandCooldown time.Duration

	// Filter
	FilterWhitelist []string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgErr  error
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgErr = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		OwnerID:      getEnv("BOT_OWNER_ID", ""),
		LogChannelID: getEnv("LOG_CHANNEL_ID", "1445792025088884756"),

		// Record store
		StoreBackend: strings.ToLower(getEnv("DB_BACKEND", BackendFile)),
		StorePath:    getEnv("DB_PATH", "db.json"),

		// MongoDB
		MongoDBURL: getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:     getEnv("dbName", "PancyMod"),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisKey:  getEnv("REDIS_KEY", "pancymod:db"),

		// MQTT
		MQTTEnabled:  getBool("MQTT_Enabled", false),
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:            getEnv("PORT", "3000"),
		APIToken:        getEnv("API_TOKEN", ""),
		WebAllowedHosts: getEnv("WEB_ALLOWED_HOSTS", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook:      getEnv("errorWebhook", ""),
		LogsWebhook:       getEnv("logsWebhook", ""),
		LogsWebServerHook: getEnv("logsWebServerWebhook", ""),

		// Commands
		CommandCooldown: time.Duration(getInt("COMMAND_COOLDOWN_MS", 5000)) * time.Millisecond,

		// Filter
		FilterWhitelist: splitList(getEnv("FILTER_WHITELIST", DefaultWhitelist)),
	}

	if cfg.BotToken == "" {
		cfgErr = ErrMissingToken
	}
}

// Load initializes the configuration from environment variables.
// The returned config is usable even when the error is ErrMissingToken.
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, cfgErr
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
