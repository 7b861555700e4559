package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
)

type TransportKind string

const (
	TransportLog      TransportKind = "log"
	TransportGmail    TransportKind = "gmail"
	TransportTelegram TransportKind = "telegram"
)

type StateBackend string

const (
	BackendFile   StateBackend = "file"
	BackendSQLite StateBackend = "sqlite"
)

type Config struct {
	// Layout
	WorkingDir string `env:"XOXO_WORKING_DIR" envDefault:"."`
	UsersDir   string `env:"XOXO_USERS_DIR"`

	// Delivery
	Cadence      string        `env:"XOXO_CADENCE" envDefault:"everyday"`
	PollInterval time.Duration `env:"XOXO_POLL_INTERVAL" envDefault:"10m"`
	NoteExt      string        `env:"XOXO_NOTE_EXT" envDefault:".txt"`

	// State
	StateBackend StateBackend `env:"XOXO_STATE_BACKEND" envDefault:"file"`
	SQLitePath   string       `env:"XOXO_SQLITE_PATH" envDefault:"data/xoxo.db"`

	// Journal and reports
	JournalPath    string `env:"XOXO_JOURNAL_PATH" envDefault:"logs/deliveries.jsonl"`
	ReportSchedule string `env:"XOXO_REPORT_SCHEDULE" envDefault:"0 21 * * *"`

	// Transport
	Transport    TransportKind `env:"XOXO_TRANSPORT" envDefault:"log"`
	Subject      string        `env:"XOXO_SUBJECT" envDefault:"Your daily candy"`
	TemplatePath string        `env:"XOXO_TEMPLATE_PATH"`

	// Gmail
	GmailCredentialsJSON     string `env:"GMAIL_CREDENTIALS_JSON"`
	GmailCredentialsJSONPath string `env:"GMAIL_CREDENTIALS_JSON_PATH"`
	GmailRefreshToken        string `env:"GMAIL_REFRESH_TOKEN"`
	GmailSender              string `env:"GMAIL_SENDER"`

	// Telegram
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// New parses the environment and resolves paths relative to WorkingDir.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	wd, err := filepath.Abs(c.WorkingDir)
	if err != nil {
		return fmt.Errorf("resolve working dir: %w", err)
	}
	c.WorkingDir = wd
	if c.UsersDir == "" {
		c.UsersDir = "users"
	}
	c.UsersDir = c.inWorkingDir(c.UsersDir)
	c.SQLitePath = c.inWorkingDir(c.SQLitePath)
	c.JournalPath = c.inWorkingDir(c.JournalPath)
	if c.TemplatePath != "" {
		c.TemplatePath = c.inWorkingDir(c.TemplatePath)
	}
	return c.validate()
}

func (c *Config) inWorkingDir(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkingDir, p)
}

func (c *Config) validate() error {
	if c.PollInterval < time.Second {
		return fmt.Errorf("XOXO_POLL_INTERVAL must be at least 1s, got %s", c.PollInterval)
	}
	switch c.StateBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown state backend: %s", c.StateBackend)
	}
	switch c.Transport {
	case TransportLog:
	case TransportGmail:
		if c.GmailCredentialsJSON == "" && c.GmailCredentialsJSONPath == "" {
			return fmt.Errorf("either GMAIL_CREDENTIALS_JSON or GMAIL_CREDENTIALS_JSON_PATH is required for the gmail transport")
		}
	case TransportTelegram:
		if c.TelegramBotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required for the telegram transport")
		}
	default:
		return fmt.Errorf("unknown transport: %s", c.Transport)
	}
	return nil
}

// GmailCredentials returns the inline credentials or reads them from the path.
func (c *Config) GmailCredentials() (string, error) {
	if c.GmailCredentialsJSON != "" {
		return c.GmailCredentialsJSON, nil
	}
	data, err := os.ReadFile(c.GmailCredentialsJSONPath)
	if err != nil {
		return "", fmt.Errorf("read gmail credentials: %w", err)
	}
	return string(data), nil
}
