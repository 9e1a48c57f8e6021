package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "UTC"
	defaultTimeOfDay = "08:00"

	configPathEnv    = "NEWSAGENT_CONFIG"
	topicsEnv        = "NEWSAGENT_TOPICS"
	timeEnv          = "NEWSAGENT_TIME"
	timezoneEnv      = "NEWSAGENT_TIMEZONE"
	openAIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	smtpServerEnv    = "SMTP_SERVER"
	smtpPortEnv      = "SMTP_PORT"
	emailAddressEnv  = "EMAIL_ADDRESS"
	emailPasswordEnv = "EMAIL_PASSWORD"
	toEmailEnv       = "TO_EMAIL"
	openalexMailEnv  = "OPENALEX_MAILTO"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Schedule ScheduleConfig `yaml:"schedule"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	OpenAlex OpenAlexConfig `yaml:"openalex"`
	Topics   []string       `yaml:"topics"`
	Feeds    []FeedConfig   `yaml:"feeds"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScheduleConfig defines the daily trigger: wall-clock time plus timezone.
type ScheduleConfig struct {
	TimeOfDay string         `yaml:"timeOfDay"`
	Timezone  string         `yaml:"timezone"`
	location  *time.Location `yaml:"-"`
}

// Location resolves the schedule timezone string to a time.Location.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// OpenAIConfig defines how to contact the text-generation service.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// SMTPConfig wires all data required to deliver the newsletter.
type SMTPConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
}

// OpenAlexConfig describes the academic-metadata API integration.
type OpenAlexConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Mailto  string `yaml:"mailto"`
	PerPage int    `yaml:"perPage"`
}

// FeedConfig describes a single feed source.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads .env and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(topicsEnv); v != "" {
		c.Topics = SplitTopics(v)
	}

	if v := os.Getenv(timeEnv); v != "" {
		c.Schedule.TimeOfDay = v
	}
	if v := os.Getenv(timezoneEnv); v != "" {
		c.Schedule.Timezone = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(smtpServerEnv); v != "" {
		c.SMTP.Server = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = port
		}
	}
	if v := os.Getenv(emailAddressEnv); v != "" {
		c.SMTP.Address = v
	}
	if v := os.Getenv(emailPasswordEnv); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv(toEmailEnv); v != "" {
		c.SMTP.To = v
	}

	if v := os.Getenv(openalexMailEnv); v != "" {
		c.OpenAlex.Mailto = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Schedule.location = loc
}

// SplitTopics turns a comma-separated topic string into a trimmed list.
func SplitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	topics := make([]string, 0, len(parts))
	for _, part := range parts {
		if topic := strings.TrimSpace(part); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Schedule.TimeOfDay != "" {
		base.Schedule.TimeOfDay = override.Schedule.TimeOfDay
	}
	if override.Schedule.Timezone != "" {
		base.Schedule.Timezone = override.Schedule.Timezone
	}

	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}

	if override.SMTP.Server != "" {
		base.SMTP.Server = override.SMTP.Server
	}
	if override.SMTP.Port != 0 {
		base.SMTP.Port = override.SMTP.Port
	}
	if override.SMTP.Address != "" {
		base.SMTP.Address = override.SMTP.Address
	}
	if override.SMTP.Password != "" {
		base.SMTP.Password = override.SMTP.Password
	}
	if override.SMTP.To != "" {
		base.SMTP.To = override.SMTP.To
	}

	if override.OpenAlex.BaseURL != "" {
		base.OpenAlex.BaseURL = override.OpenAlex.BaseURL
	}
	if override.OpenAlex.Mailto != "" {
		base.OpenAlex.Mailto = override.OpenAlex.Mailto
	}
	if override.OpenAlex.PerPage != 0 {
		base.OpenAlex.PerPage = override.OpenAlex.PerPage
	}

	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}
	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Schedule: ScheduleConfig{
			TimeOfDay: defaultTimeOfDay,
			Timezone:  defaultTimezone,
			location:  tz,
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o-mini"},
		SMTP:   SMTPConfig{Server: "smtp.gmail.com", Port: 587},
		OpenAlex: OpenAlexConfig{
			BaseURL: "https://api.openalex.org",
			PerPage: 10,
		},
		Feeds: []FeedConfig{
			{Name: "O'Reilly Radar", URL: "https://feeds.feedburner.com/oreilly/radar"},
			{Name: "TechCrunch", URL: "https://techcrunch.com/feed/"},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index"},
			{Name: "Wired", URL: "https://www.wired.com/feed/rss"},
			{Name: "VentureBeat", URL: "https://feeds.feedburner.com/venturebeat/SZYF"},
		},
	}
}
