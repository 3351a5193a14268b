package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type MongoConfig struct {
	Host       string `yaml:"host"`
	DBName     string `yaml:"dbname"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	AuthSource string `yaml:"authSource"`
}

type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentialsFile"`
	BasePath        string `yaml:"basePath"` // object prefix, e.g. marketing/stock_discussion
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Duration accepts Go duration strings ("500ms", "1s") in yaml.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type ScrapeConfig struct {
	Timezone          string   `yaml:"timezone"`
	RequestDelay      Duration `yaml:"requestDelay"`
	MaxRetries        int      `yaml:"maxRetries"`
	DetailWorkers     int      `yaml:"detailWorkers"`
	BrowserSwitchPage int      `yaml:"browserSwitchPage"` // board page after which rod takes over
}

type Config struct {
	Mongo  MongoConfig  `yaml:"mongo"`
	GCS    GCSConfig    `yaml:"gcs"`
	Server ServerConfig `yaml:"server"`
	Scrape ScrapeConfig `yaml:"scrape"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.GCS.BasePath == "" {
		c.GCS.BasePath = "marketing/stock_discussion"
	}
	if c.Scrape.Timezone == "" {
		c.Scrape.Timezone = "Asia/Seoul"
	}
	if c.Scrape.RequestDelay <= 0 {
		c.Scrape.RequestDelay = Duration(time.Second)
	}
	if c.Scrape.MaxRetries <= 0 {
		c.Scrape.MaxRetries = 3
	}
	if c.Scrape.DetailWorkers <= 0 {
		c.Scrape.DetailWorkers = 10
	}
	if c.Scrape.BrowserSwitchPage <= 0 {
		c.Scrape.BrowserSwitchPage = 100
	}
}

// Location resolves the configured scrape timezone, falling back to a
// fixed UTC+9 zone when the tz database is unavailable.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scrape.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*3600), fmt.Errorf("config: load timezone %q: %w", c.Scrape.Timezone, err)
	}
	return loc, nil
}
