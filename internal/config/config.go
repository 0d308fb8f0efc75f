package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DBURL        string `mapstructure:"DB_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	MQTTBroker   string `mapstructure:"MQTT_BROKER"`
	MQTTClientID string `mapstructure:"MQTT_CLIENT_ID"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	MDNSName     string `mapstructure:"MDNS_NAME"`
	HTTPPort     int    `mapstructure:"HTTP_PORT"`

	// Core tuning knobs, all in seconds
	FreshnessWindowSecs int `mapstructure:"FRESHNESS_WINDOW_SECS"`
	DebounceSecs        int `mapstructure:"DEBOUNCE_SECS"`
	TimerTickSecs       int `mapstructure:"TIMER_TICK_SECS"`
	EngineTickSecs      int `mapstructure:"ENGINE_TICK_SECS"`
	IngestQueueSize     int `mapstructure:"INGEST_QUEUE_SIZE"`
}

// LoadConfig reads configuration from file, .env, or env vars
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		println("Error loading .env file: ", err)
	}

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("MQTT_CLIENT_ID", "homehub-core")
	viper.SetDefault("MDNS_NAME", "homehub.local")
	viper.SetDefault("HTTP_PORT", 5069)
	viper.SetDefault("FRESHNESS_WINDOW_SECS", 10)
	viper.SetDefault("DEBOUNCE_SECS", 60)
	viper.SetDefault("TIMER_TICK_SECS", 20)
	viper.SetDefault("ENGINE_TICK_SECS", 30)
	viper.SetDefault("INGEST_QUEUE_SIZE", 256)

	cfg := &Config{
		DBURL:               viper.GetString("DB_URL"),
		RedisAddr:           viper.GetString("REDIS_ADDR"),
		MQTTBroker:          viper.GetString("MQTT_BROKER"),
		MQTTClientID:        viper.GetString("MQTT_CLIENT_ID"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		MDNSName:            viper.GetString("MDNS_NAME"),
		HTTPPort:            viper.GetInt("HTTP_PORT"),
		FreshnessWindowSecs: viper.GetInt("FRESHNESS_WINDOW_SECS"),
		DebounceSecs:        viper.GetInt("DEBOUNCE_SECS"),
		TimerTickSecs:       viper.GetInt("TIMER_TICK_SECS"),
		EngineTickSecs:      viper.GetInt("ENGINE_TICK_SECS"),
		IngestQueueSize:     viper.GetInt("INGEST_QUEUE_SIZE"),
	}
	return cfg, nil
}
