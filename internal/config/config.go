// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/CampusCourts/internal/timegrid"
)

var validSports = map[string]bool{
	"BASKETBALL": true,
	"TENNIS":     true,
	"FOOTBALL":   true,
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Filename     string `yaml:"filename"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type BookingConfig struct {
	Timezone           string `yaml:"timezone"`
	OpenHour           int    `yaml:"open_hour"`
	CloseHour          int    `yaml:"close_hour"`
	GranularityMinutes int    `yaml:"granularity_minutes"`
	AllowedDurations   []int  `yaml:"allowed_durations"`
	DefaultSlotMinutes int    `yaml:"default_slot_minutes"`
	PastGuardSeconds   int    `yaml:"past_guard_seconds"`
}

type CourtSeed struct {
	Name     string `yaml:"name"`
	Sport    string `yaml:"sport"`
	Location string `yaml:"location"`
}

type SESConfig struct {
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type AMQPConfig struct {
	URL      string `yaml:"-"` // Loaded from environment
	Exchange string `yaml:"exchange"`
}

type NotificationsConfig struct {
	Driver string     `yaml:"driver"` // none, ses, amqp or ses+amqp
	SES    SESConfig  `yaml:"ses"`
	AMQP   AMQPConfig `yaml:"amqp"`
}

type Config struct {
	App struct {
		Name            string `yaml:"name"`
		Environment     string `yaml:"environment"`
		Port            int    `yaml:"port"`
		BaseURL         string `yaml:"base_url"`
		ShutdownSeconds int    `yaml:"shutdown_seconds"`
		TrustProxy      bool   `yaml:"trust_proxy"` // Honor X-Forwarded-For from a private proxy
		SecretKey       string `yaml:"-"`           // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking BookingConfig `yaml:"booking"`

	Catalog struct {
		Courts []CourtSeed `yaml:"courts"`
	} `yaml:"catalog"`

	Notifications NotificationsConfig `yaml:"notifications"`

	Scheduler struct {
		ReminderCron        string `yaml:"reminder_cron"`
		ReminderHoursBefore int    `yaml:"reminder_hours_before"`
	} `yaml:"scheduler"`

	RateLimit struct {
		ReserveAttempts      int `yaml:"reserve_attempts"`
		ReserveWindowSeconds int `yaml:"reserve_window_seconds"`
	} `yaml:"rate_limit"`

	Features struct {
		EnableReminders bool `yaml:"enable_reminders"`
		EnableDebug     bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Notifications.SES.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Notifications.SES.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.Notifications.AMQP.URL = os.Getenv("AMQP_URL")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and fills defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.ShutdownSeconds == 0 {
		c.App.ShutdownSeconds = 30
	}
	b := &c.Booking
	if b.Timezone == "" {
		b.Timezone = "UTC"
	}
	if b.OpenHour == 0 && b.CloseHour == 0 {
		b.OpenHour, b.CloseHour = 8, 22
	}
	if b.GranularityMinutes == 0 {
		b.GranularityMinutes = 30
	}
	if len(b.AllowedDurations) == 0 {
		b.AllowedDurations = []int{30, 60, 90, 120}
	}
	if b.DefaultSlotMinutes == 0 {
		b.DefaultSlotMinutes = 60
	}
	if b.PastGuardSeconds == 0 {
		b.PastGuardSeconds = 60
	}
	if c.Notifications.Driver == "" {
		c.Notifications.Driver = "none"
	}
	if c.Notifications.AMQP.Exchange == "" {
		c.Notifications.AMQP.Exchange = "campus.reservations"
	}
	if c.Scheduler.ReminderCron == "" {
		c.Scheduler.ReminderCron = "*/15 * * * *"
	}
	if c.Scheduler.ReminderHoursBefore == 0 {
		c.Scheduler.ReminderHoursBefore = 2
	}
	if c.RateLimit.ReserveAttempts == 0 {
		c.RateLimit.ReserveAttempts = 10
	}
	if c.RateLimit.ReserveWindowSeconds == 0 {
		c.RateLimit.ReserveWindowSeconds = 60
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.SecretKey == "" && c.App.Environment != "development" {
		return fmt.Errorf("APP_SECRET_KEY is required outside development")
	}

	switch c.Database.Driver {
	case "":
		return fmt.Errorf("database driver is required")
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	grid, err := c.Grid()
	if err != nil {
		return fmt.Errorf("booking: %w", err)
	}
	for _, minutes := range c.Booking.AllowedDurations {
		if err := grid.ValidateSlotSize(time.Duration(minutes) * time.Minute); err != nil {
			return fmt.Errorf("booking: allowed duration %d: %w", minutes, err)
		}
	}
	if err := grid.ValidateSlotSize(time.Duration(c.Booking.DefaultSlotMinutes) * time.Minute); err != nil {
		return fmt.Errorf("booking: default slot minutes: %w", err)
	}
	if c.Booking.PastGuardSeconds < 0 {
		return fmt.Errorf("booking: past guard must not be negative")
	}

	seen := make(map[string]bool, len(c.Catalog.Courts))
	for _, court := range c.Catalog.Courts {
		if strings.TrimSpace(court.Name) == "" {
			return fmt.Errorf("catalog: court name is required")
		}
		if !validSports[court.Sport] {
			return fmt.Errorf("catalog: court %q has unsupported sport %q", court.Name, court.Sport)
		}
		key := court.Sport + "/" + court.Name
		if seen[key] {
			return fmt.Errorf("catalog: duplicate court %q for %s", court.Name, court.Sport)
		}
		seen[key] = true
	}

	for _, driver := range c.NotificationDrivers() {
		switch driver {
		case "ses":
			if c.Notifications.SES.Region == "" || c.Notifications.SES.Sender == "" {
				return fmt.Errorf("notifications: ses requires region and sender")
			}
		case "amqp":
			if c.Notifications.AMQP.URL == "" {
				return fmt.Errorf("notifications: AMQP_URL is required for amqp")
			}
		default:
			return fmt.Errorf("notifications: unsupported driver %q", driver)
		}
	}

	if _, err := c.ReminderWindow(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.Scheduler.ReminderHoursBefore < 0 {
		return fmt.Errorf("scheduler: reminder hours must not be negative")
	}
	if c.RateLimit.ReserveAttempts < 0 || c.RateLimit.ReserveWindowSeconds < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}

	return nil
}

// ReminderWindow returns the period of the reminder cron. Every sweep covers
// exactly one period, so schedules whose firings are not evenly spaced are
// rejected.
func (c *Config) ReminderWindow() (time.Duration, error) {
	schedule, err := cron.ParseStandard(c.Scheduler.ReminderCron)
	if err != nil {
		return 0, fmt.Errorf("invalid reminder cron %q: %w", c.Scheduler.ReminderCron, err)
	}

	first := schedule.Next(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	prev := schedule.Next(first)
	if first.IsZero() || prev.IsZero() {
		return 0, fmt.Errorf("reminder cron %q never fires", c.Scheduler.ReminderCron)
	}
	period := prev.Sub(first)
	// A year covers month and weekday irregularities; the firing cap keeps
	// minute-level schedules cheap.
	for fired := 0; fired < 10000 && prev.Sub(first) < 366*24*time.Hour; fired++ {
		next := schedule.Next(prev)
		if next.Sub(prev) != period {
			return 0, fmt.Errorf("reminder cron %q must fire at a fixed interval", c.Scheduler.ReminderCron)
		}
		prev = next
	}
	return period, nil
}

// Grid builds the venue time grid from the booking section.
func (c *Config) Grid() (timegrid.Grid, error) {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return timegrid.Grid{}, fmt.Errorf("unknown timezone %q: %w", c.Booking.Timezone, err)
	}
	return timegrid.New(
		c.Booking.OpenHour,
		c.Booking.CloseHour,
		time.Duration(c.Booking.GranularityMinutes)*time.Minute,
		loc,
	)
}

// NotificationDrivers splits the notifications driver setting. "none" yields
// an empty list.
func (c *Config) NotificationDrivers() []string {
	raw := strings.TrimSpace(c.Notifications.Driver)
	if raw == "" || raw == "none" {
		return nil
	}
	var drivers []string
	for _, part := range strings.Split(raw, "+") {
		if part = strings.TrimSpace(part); part != "" {
			drivers = append(drivers, part)
		}
	}
	return drivers
}

// ShutdownTimeout is the grace period for in-flight requests on shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.App.ShutdownSeconds) * time.Second
}
