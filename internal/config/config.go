package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the INGAT service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	CanvasBaseURL     string
	CanvasToken       string
	Timezone          string
	TickInterval      time.Duration
	ReminderTolerance time.Duration
	WeeklyHour        int
	WeeklyMinute      int
	DigestCacheTTL    time.Duration
	DialogueTimeout   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("INGAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "INGAT API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "file:data/ingat.db")
	v.SetDefault("canvas.base_url", "https://canvas.instructure.com/api/v1")
	v.SetDefault("tick.interval", "1m")
	v.SetDefault("weekly.hour", 9)
	v.SetDefault("weekly.minute", 0)
	v.SetDefault("digest.cache_ttl", "5m")
	v.SetDefault("dialogue.timeout", "120s")

	tick, err := time.ParseDuration(v.GetString("tick.interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid tick interval: %w", err)
	}
	if tick <= 0 {
		tick = time.Minute
	}

	ttl, err := time.ParseDuration(v.GetString("digest.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid digest cache ttl: %w", err)
	}

	dialogueTimeout, err := time.ParseDuration(v.GetString("dialogue.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dialogue timeout: %w", err)
	}

	cfg := Config{
		AppName:       v.GetString("app.name"),
		AppEnv:        v.GetString("app.env"),
		AppPort:       v.GetString("app.port"),
		DatabaseURL:   v.GetString("database.url"),
		RedisURL:      v.GetString("redis.url"),
		NATSURL:       v.GetString("nats.url"),
		JWTSecret:     v.GetString("jwt.secret"),
		CanvasBaseURL: v.GetString("canvas.base_url"),
		CanvasToken:   v.GetString("canvas.token"),
		Timezone:      v.GetString("timezone"),
		TickInterval:  tick,
		// The tolerance window tracks the tick cadence so exactly one tick
		// observes each threshold crossing.
		ReminderTolerance: tick,
		WeeklyHour:        v.GetInt("weekly.hour"),
		WeeklyMinute:      v.GetInt("weekly.minute"),
		DigestCacheTTL:    ttl,
		DialogueTimeout:   dialogueTimeout,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.WeeklyHour < 0 || cfg.WeeklyHour > 23 || cfg.WeeklyMinute < 0 || cfg.WeeklyMinute > 59 {
		return Config{}, fmt.Errorf("weekly notification time out of range")
	}

	return cfg, nil
}
