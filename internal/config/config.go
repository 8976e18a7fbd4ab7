// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Crawler   CrawlerConfig     `mapstructure:"crawler"`
	HTTP      HTTPConfig        `mapstructure:"http"`
	Headless  HeadlessConfig    `mapstructure:"headless"`
	Sheets    SheetsConfig      `mapstructure:"sheets"`
	Snapshots SnapshotsConfig   `mapstructure:"snapshots"`
	DB        DBConfig          `mapstructure:"db"`
	PubSub    PubSubConfig      `mapstructure:"pubsub"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Selectors crawler.Selectors `mapstructure:"selectors"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs the crawl pipeline.
type CrawlerConfig struct {
	BaseURL            string   `mapstructure:"base_url"`
	Concurrency        int      `mapstructure:"concurrency"`
	QueueDepth         int      `mapstructure:"queue_depth"`
	StaggerSeconds     int      `mapstructure:"stagger_seconds"`
	PageDelaySeconds   int      `mapstructure:"page_delay_seconds"`
	EntityDelaySeconds int      `mapstructure:"entity_delay_seconds"`
	MaxPages           int      `mapstructure:"max_pages"`
	StrictDedup        bool     `mapstructure:"strict_dedup"`
	UserAgents         []string `mapstructure:"user_agents"`
	PerHostRPS         float64  `mapstructure:"per_host_rps"`
}

// HTTPConfig configures the plain HTTP fetcher.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the browser-automation subsystem.
type HeadlessConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	NavTimeoutSeconds     int  `mapstructure:"nav_timeout_seconds"`
	DismissTimeoutSeconds int  `mapstructure:"dismiss_timeout_seconds"`
}

// SheetsConfig controls the Google Sheets backend. Sharing is off by
// default; granting anyone-with-the-link write access is a decision
// the operator has to make explicitly.
type SheetsConfig struct {
	Provider        string `mapstructure:"provider"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TitlePrefix     string `mapstructure:"title_prefix"`
	ShareEmail      string `mapstructure:"share_email"`
	ShareAnyone     bool   `mapstructure:"share_anyone"`
}

// SnapshotsConfig selects the raw-HTML snapshot store.
type SnapshotsConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig selects the job store backend.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// PubSubConfig holds metadata for appended-record notifications.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BIZDIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Selectors = mergeSelectors(cfg.Selectors)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.base_url", "https://infocom.vn/")
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.queue_depth", 16)
	v.SetDefault("crawler.stagger_seconds", 5)
	v.SetDefault("crawler.page_delay_seconds", 5)
	v.SetDefault("crawler.entity_delay_seconds", 2)
	v.SetDefault("crawler.max_pages", 200)
	v.SetDefault("crawler.strict_dedup", false)
	v.SetDefault("crawler.per_host_rps", 1.0)
	v.SetDefault("crawler.user_agents", defaultUserAgents)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.dismiss_timeout_seconds", 10)
	v.SetDefault("sheets.provider", "sheets")
	v.SetDefault("sheets.credentials_file", "cre.json")
	v.SetDefault("sheets.title_prefix", "Thông tin doanh nghiệp ")
	v.SetDefault("sheets.share_anyone", false)
	v.SetDefault("snapshots.provider", "noop")
	v.SetDefault("snapshots.prefix", "pages")
	v.SetDefault("db.provider", "memory")
	v.SetDefault("pubsub.provider", "noop")
	v.SetDefault("logging.development", true)
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/93.0.4577.63 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/94.0.4606.61 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.69 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/97.0.4692.71 Safari/537.36",
}

// mergeSelectors fills unset selector fields with the site defaults so
// a partial override in config does not blank the rest of the schema.
func mergeSelectors(s crawler.Selectors) crawler.Selectors {
	def := crawler.DefaultSelectors()
	fill := func(dst *string, d string) {
		if *dst == "" {
			*dst = d
		}
	}
	fill(&s.DistrictList, def.DistrictList)
	fill(&s.ListingSection, def.ListingSection)
	fill(&s.StubHeading, def.StubHeading)
	fill(&s.StubAnchor, def.StubAnchor)
	fill(&s.NextPageLink, def.NextPageLink)
	fill(&s.NextPageGlyph, def.NextPageGlyph)
	fill(&s.NamePrefix, def.NamePrefix)
	fill(&s.DismissButton, def.DismissButton)
	fill(&s.ReviewList, def.ReviewList)
	fill(&s.PhoneItem, def.PhoneItem)
	fill(&s.InfoTable, def.InfoTable)
	fill(&s.BusinessContainer, def.BusinessContainer)
	fill(&s.BusinessTitle, def.BusinessTitle)
	fill(&s.CodeLabel, def.CodeLabel)
	fill(&s.RepresentativeRow, def.RepresentativeRow)
	fill(&s.EstablishedRow, def.EstablishedRow)
	return s
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url must be set")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if len(c.Crawler.UserAgents) == 0 {
		return fmt.Errorf("crawler.user_agents must not be empty")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Snapshots.Provider == "local" && c.Snapshots.BaseDir == "" {
		return fmt.Errorf("snapshots.base_dir must be set when snapshots.provider is local")
	}
	if c.Snapshots.Provider == "gcs" && c.Snapshots.GCSBucket == "" {
		return fmt.Errorf("snapshots.gcs_bucket must be set when snapshots.provider is gcs")
	}
	if c.PubSub.Provider == "pubsub" && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub.provider is pubsub")
	}
	return nil
}

// PageDelay returns the fixed delay applied between listing pages.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Crawler.PageDelaySeconds) * time.Second
}

// EntityDelay returns the fixed delay applied between appended entities.
func (c Config) EntityDelay() time.Duration {
	return time.Duration(c.Crawler.EntityDelaySeconds) * time.Second
}

// Stagger returns the delay between district runner launches.
func (c Config) Stagger() time.Duration {
	return time.Duration(c.Crawler.StaggerSeconds) * time.Second
}

// HTTPTimeout returns the plain-fetch timeout.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
