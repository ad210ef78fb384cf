package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// tokenSecretPath is where a Docker secret with the bot token is mounted.
var tokenSecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string
	ChatID        int64
	Location      *time.Location

	StateDir     string
	DataDir      string
	StateFile    string
	LogFile      string
	StoreBackend string
	DBPath       string

	QuestionnaireMode string
	FollowupDelay     time.Duration
	RequestTimeout    time.Duration
	PollInterval      time.Duration

	LogLevel  string
	LogFormat string
}

// SetDefaults registers every key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("telegram_chat_id", 0)
	v.SetDefault("timezone", "Europe/Helsinki")
	v.SetDefault("state_dir", "state")
	v.SetDefault("data_dir", "data")
	v.SetDefault("state_file", "")
	v.SetDefault("log_file", "")
	v.SetDefault("store_backend", BackendFiles)
	v.SetDefault("db_path", "")
	v.SetDefault("questionnaire_mode", "stepwise")
	v.SetDefault("followup_delay", time.Hour)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("poll_interval", time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		TelegramToken:     getBotToken(v),
		ChatID:            v.GetInt64("telegram_chat_id"),
		StateDir:          strings.TrimSpace(v.GetString("state_dir")),
		DataDir:           strings.TrimSpace(v.GetString("data_dir")),
		StateFile:         strings.TrimSpace(v.GetString("state_file")),
		LogFile:           strings.TrimSpace(v.GetString("log_file")),
		StoreBackend:      strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
		DBPath:            strings.TrimSpace(v.GetString("db_path")),
		QuestionnaireMode: strings.ToLower(strings.TrimSpace(v.GetString("questionnaire_mode"))),
		FollowupDelay:     v.GetDuration("followup_delay"),
		RequestTimeout:    v.GetDuration("request_timeout"),
		PollInterval:      v.GetDuration("poll_interval"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}

	tz := strings.TrimSpace(v.GetString("timezone"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("timezone %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.StateDir == "" {
		return cfg, errors.New("state_dir is empty")
	}
	if cfg.DataDir == "" {
		return cfg, errors.New("data_dir is empty")
	}
	if cfg.StateFile == "" {
		cfg.StateFile = filepath.Join(cfg.StateDir, "last_update_id.txt")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "mood_log.csv")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.StateDir, "moodbot.db")
	}

	switch cfg.StoreBackend {
	case BackendFiles, BackendSQLite:
	default:
		return cfg, fmt.Errorf("unknown store_backend %q (want %s or %s)", cfg.StoreBackend, BackendFiles, BackendSQLite)
	}
	for key, d := range map[string]time.Duration{
		"followup_delay":  cfg.FollowupDelay,
		"request_timeout": cfg.RequestTimeout,
		"poll_interval":   cfg.PollInterval,
	} {
		if d <= 0 {
			return cfg, fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	return cfg, nil
}

// RequireTelegram fails when the credentials needed to talk to the bot API are missing.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("bot token not found: neither docker secret nor TELEGRAM_BOT_TOKEN is set")
	}
	if c.ChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is not set")
	}
	return nil
}

// getBotToken prefers the Docker secret and falls back to the environment.
func getBotToken(v *viper.Viper) string {
	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(v.GetString("telegram_bot_token"))
}
