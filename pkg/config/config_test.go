package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "test-token")
	t.Setenv("BOT_OWNER_ID", "42")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")

	// Reset global config
	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.OwnerID != "42" {
		t.Errorf("OwnerID = %v, want %v", config.OwnerID, "42")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")
	resetForTesting()

	config, err := Load()
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Load() error = %v, want %v", err, ErrMissingToken)
	}
	if config == nil {
		t.Fatal("Load() should still return the parsed config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}

	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("enviroment", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	t.Setenv("enviroment", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}
}

func TestGet(t *testing.T) {
	resetForTesting()

	// Get should create a new config if none exists
	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	// Get should return the same config on subsequent calls
	config2 := Get()
	if config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{
		"LOG_CHANNEL_ID", "DB_BACKEND", "DB_PATH", "mongodbUrl", "dbName",
		"REDIS_ADDR", "REDIS_KEY", "MQTT_Enabled", "MQTT_Host", "MQTT_Port",
		"PORT", "enviroment", "COMMAND_COOLDOWN_MS", "FILTER_WHITELIST",
	} {
		t.Setenv(key, "")
	}

	resetForTesting()
	config, _ := Load()

	if config.LogChannelID != "1445792025088884756" {
		t.Errorf("LogChannelID default = %v", config.LogChannelID)
	}

	if config.StoreBackend != BackendFile || config.StorePath != "db.json" {
		t.Errorf("store default = %v %v", config.StoreBackend, config.StorePath)
	}

	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}

	if config.DBName != "PancyMod" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "PancyMod")
	}

	if config.RedisAddr != "localhost:6379" || config.RedisKey != "pancymod:db" {
		t.Errorf("redis default = %v %v", config.RedisAddr, config.RedisKey)
	}

	if config.MQTTEnabled {
		t.Error("MQTTEnabled should default to false")
	}

	if config.MQTTHost != "localhost" {
		t.Errorf("MQTTHost default = %v, want %v", config.MQTTHost, "localhost")
	}

	if config.MQTTPort != "1883" {
		t.Errorf("MQTTPort default = %v, want %v", config.MQTTPort, "1883")
	}

	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}

	if config.Environment != "dev" {
		t.Errorf("Environment default = %v, want %v", config.Environment, "dev")
	}

	if config.CommandCooldown != 5*time.Second {
		t.Errorf("CommandCooldown default = %v, want %v", config.CommandCooldown, 5*time.Second)
	}

	if len(config.FilterWhitelist) != 5 || config.FilterWhitelist[0] != "class" {
		t.Errorf("FilterWhitelist default = %v", config.FilterWhitelist)
	}
	for _, w := range config.FilterWhitelist {
		if w == "hello" {
			t.Error("FilterWhitelist default should not exempt greetings")
		}
	}
}

func TestParsedValues(t *testing.T) {
	t.Setenv("MQTT_Enabled", "true")
	t.Setenv("COMMAND_COOLDOWN_MS", "1500")
	t.Setenv("FILTER_WHITELIST", " class , ,pass")
	t.Setenv("DB_BACKEND", "Redis")

	resetForTesting()
	config, _ := Load()

	if !config.MQTTEnabled {
		t.Error("MQTTEnabled should be true")
	}
	if config.CommandCooldown != 1500*time.Millisecond {
		t.Errorf("CommandCooldown = %v", config.CommandCooldown)
	}
	if len(config.FilterWhitelist) != 2 || config.FilterWhitelist[1] != "pass" {
		t.Errorf("FilterWhitelist = %v", config.FilterWhitelist)
	}
	if config.StoreBackend != BackendRedis {
		t.Errorf("StoreBackend = %v", config.StoreBackend)
	}
}
