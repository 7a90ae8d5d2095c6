package config

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Port           int    `mapstructure:"port"`
	ConnectTimeout int    `mapstructure:"connect_timeout"`
	Executable     string `mapstructure:"executable"`
}

type StorageConfig struct {
	Type   string `mapstructure:"type"`
	Prefix string `mapstructure:"prefix"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// Google Cloud Storage and Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// Azure Blob Storage, Bucket is the container name
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`

	// Local directory
	LocalPath string `mapstructure:"local_path"`
}

type SlackConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	Channel        string `mapstructure:"channel"`
	Emoji          string `mapstructure:"emoji"`
	BotName        string `mapstructure:"bot_name"`
	SuccessMessage string `mapstructure:"success_message"`
	FailureMessage string `mapstructure:"failure_message"`
}

type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

type BackupConfig struct {
	TempDir     string `mapstructure:"temp_dir"`
	KeepLocal   bool   `mapstructure:"keep_local"`
	FailOnError bool   `mapstructure:"fail_on_error"`
	Schedule    string `mapstructure:"schedule"`
}

const (
	StorageS3     = "s3"
	StorageGCS    = "gcs"
	StorageAzure  = "azure"
	StorageGDrive = "gdrive"
	StorageLocal  = "local"
)

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"app.name":                 "APP_NAME",
	"app.log_level":            "LOG_LEVEL",
	"app.log_file":             "LOG_FILE",
	"database.host":            "PG_HOST",
	"database.name":            "PG_DATABASE",
	"database.user":            "PG_USER",
	"database.password":        "PG_PASSWORD",
	"database.port":            "PG_PORT",
	"database.connect_timeout": "PGCONNECT_TIMEOUT",
	"database.executable":      "PGDUMP_EXECUTABLE",
	"storage.type":             "STORAGE_TYPE",
	"storage.prefix":           "S3_BUCKET_PATH",
	"storage.region":           "S3_REGION",
	"storage.bucket":           "S3_BUCKET_NAME",
	"storage.endpoint":         "S3_ENDPOINT",
	"storage.access_key":       "S3_ACCESS_KEY",
	"storage.secret_key":       "S3_SECRET_KEY",
	"storage.credentials_file": "STORAGE_CREDENTIALS_FILE",
	"storage.folder_id":        "GDRIVE_FOLDER_ID",
	"storage.account_name":     "AZURE_STORAGE_ACCOUNT",
	"storage.account_key":      "AZURE_STORAGE_KEY",
	"storage.local_path":       "STORAGE_LOCAL_PATH",
	"slack.webhook_url":        "SLACK_WEBHOOK",
	"slack.channel":            "SLACK_CHANNEL",
	"slack.emoji":              "SLACK_EMOJI",
	"slack.bot_name":           "SLACK_BOT_NAME",
	"slack.success_message":    "SLACK_SUCCESS_MSG",
	"slack.failure_message":    "SLACK_FAILURE_MSG",
	"telegram.bot_token":       "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":         "TELEGRAM_CHAT_ID",
	"telegram.api_endpoint":    "TELEGRAM_API_ENDPOINT",
	"backup.temp_dir":          "BACKUP_TEMP_DIR",
	"backup.keep_local":        "BACKUP_KEEP_LOCAL",
	"backup.fail_on_error":     "BACKUP_FAIL_ON_ERROR",
	"backup.schedule":          "BACKUP_SCHEDULE",
}

// Load reads the optional YAML file at path and overlays environment variables.
// An empty path means environment only.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "pgshelf")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("database.connect_timeout", 5)
	v.SetDefault("database.executable", "/usr/bin/pg_dump")
	v.SetDefault("storage.type", StorageS3)
	v.SetDefault("storage.region", "us-west-1")
	v.SetDefault("slack.bot_name", "backup_bot")
	v.SetDefault("slack.success_message", "Backup was successful")
	v.SetDefault("slack.failure_message", "Backup failed")
	v.SetDefault("backup.temp_dir", os.TempDir())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate rejects settings that would stop a cycle before anything can be
// reported. Missing hosts, buckets or credentials are left to fail at run time
// so the failure reaches the chat channel.
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StorageS3, StorageGCS, StorageAzure, StorageGDrive, StorageLocal:
	default:
		return fmt.Errorf("storage.type %q is not supported", c.Storage.Type)
	}

	if c.Database.Port < 0 {
		return fmt.Errorf("database.port must not be negative")
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("database.connect_timeout must not be negative")
	}
	if c.Backup.TempDir == "" {
		return fmt.Errorf("backup.temp_dir is required")
	}

	if c.Backup.Schedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup.schedule: %w", err)
		}
	}

	return nil
}

func (c Config) SlackEnabled() bool {
	return c.Slack.WebhookURL != ""
}

func (c Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
