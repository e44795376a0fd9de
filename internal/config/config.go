// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Site        SiteConfig        `mapstructure:"site" yaml:"site"`
	Timing      TimingConfig      `mapstructure:"timing" yaml:"timing"`
	Screenshots ScreenshotsConfig `mapstructure:"screenshots" yaml:"screenshots"`
	// Run gets its marching orders from CLI flags, not the config file.
	Run RunConfig `mapstructure:"run" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driven by the run.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// ExecPath overrides chromedp's Chrome discovery when set.
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
	Args         []string `mapstructure:"args" yaml:"args"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	Debug        bool     `mapstructure:"debug" yaml:"debug"`
	// Stealth hides navigator.webdriver and friends from page scripts.
	Stealth   bool   `mapstructure:"stealth" yaml:"stealth"`
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	Locale    string `mapstructure:"locale" yaml:"locale"`
}

// SiteConfig pins the upstream page layout the run depends on.
type SiteConfig struct {
	GroupURL          string `mapstructure:"group_url" yaml:"group_url"`
	InvitationURLHint string `mapstructure:"invitation_url_hint" yaml:"invitation_url_hint"`
	EntryID           string `mapstructure:"entry_id" yaml:"entry_id"`
	// SecureURLTemplate is formatted with EntryID to build the direct invitation URL.
	SecureURLTemplate string   `mapstructure:"secure_url_template" yaml:"secure_url_template"`
	CardTitles        []string `mapstructure:"card_titles" yaml:"card_titles"`
}

// SecureURL returns the direct invitation URL for the configured entry.
func (s SiteConfig) SecureURL() string {
	return fmt.Sprintf(s.SecureURLTemplate, s.EntryID)
}

// TimingConfig collects every wall-clock wait used by the run.
type TimingConfig struct {
	Wait              time.Duration `mapstructure:"wait" yaml:"wait"`
	Short             time.Duration `mapstructure:"short" yaml:"short"`
	ModalProbe        time.Duration `mapstructure:"modal_probe" yaml:"modal_probe"`
	PageSettle        time.Duration `mapstructure:"page_settle" yaml:"page_settle"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollMax           time.Duration `mapstructure:"poll_max" yaml:"poll_max"`
	ExpandSettle      time.Duration `mapstructure:"expand_settle" yaml:"expand_settle"`
	ToggleSettle      time.Duration `mapstructure:"toggle_settle" yaml:"toggle_settle"`
	PostSaveSettle    time.Duration `mapstructure:"post_save_settle" yaml:"post_save_settle"`
	ExitGrace         time.Duration `mapstructure:"exit_grace" yaml:"exit_grace"`
	StartOnlyGrace    time.Duration `mapstructure:"start_only_grace" yaml:"start_only_grace"`
	ShowMoreMaxClicks int           `mapstructure:"show_more_max_clicks" yaml:"show_more_max_clicks"`
}

// ScreenshotsConfig controls where the audit recorder writes.
type ScreenshotsConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// RunConfig carries the per-invocation CLI switches.
type RunConfig struct {
	Headless    bool   `mapstructure:"headless"`
	DryRun      bool   `mapstructure:"dry_run"`
	ShotsSubdir string `mapstructure:"shots_subdir"`
	StartOnly   bool   `mapstructure:"start_only"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "autosign")
	v.SetDefault("logger.log_file", "autosign.log")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.window_width", 1400)
	v.SetDefault("browser.window_height", 1800)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.stealth", true)

	// -- Site --
	v.SetDefault("site.group_url", "https://signup.com/group/581591834043")
	v.SetDefault("site.invitation_url_hint", "signup.com/client/invitation2")
	v.SetDefault("site.entry_id", "9140767160102")
	v.SetDefault("site.secure_url_template", "https://signup.com/client/invitation2/secure/%s/false")
	v.SetDefault("site.card_titles", []string{"Parent Duties", "Parent Duty", "Parent Duties Week"})

	// -- Timing --
	v.SetDefault("timing.wait", "20s")
	v.SetDefault("timing.short", "5s")
	v.SetDefault("timing.modal_probe", "3s")
	v.SetDefault("timing.page_settle", "2s")
	v.SetDefault("timing.poll_interval", "30s")
	v.SetDefault("timing.poll_max", "30m")
	v.SetDefault("timing.expand_settle", "600ms")
	v.SetDefault("timing.toggle_settle", "300ms")
	v.SetDefault("timing.post_save_settle", "2s")
	v.SetDefault("timing.exit_grace", "5s")
	v.SetDefault("timing.start_only_grace", "3s")
	v.SetDefault("timing.show_more_max_clicks", 0)

	// -- Screenshots --
	v.SetDefault("screenshots.base_dir", "./screenshots")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The --headless flag only ever turns headless mode on.
	if cfg.Run.Headless {
		cfg.Browser.Headless = true
	}

	baseDir, err := homedir.Expand(cfg.Screenshots.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve screenshots.base_dir '%s': %w", cfg.Screenshots.BaseDir, err)
	}
	cfg.Screenshots.BaseDir = baseDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site configuration invalid: %w", err)
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing configuration invalid: %w", err)
	}
	if c.Screenshots.BaseDir == "" {
		return fmt.Errorf("screenshots.base_dir must not be empty")
	}
	if strings.ContainsAny(c.Run.ShotsSubdir, `/\`) || c.Run.ShotsSubdir == ".." {
		return fmt.Errorf("shots subdir must be a single directory name, got %q", c.Run.ShotsSubdir)
	}
	return nil
}

// Validate checks the site settings.
func (s *SiteConfig) Validate() error {
	if s.GroupURL == "" {
		return fmt.Errorf("group_url is required")
	}
	if s.InvitationURLHint == "" {
		return fmt.Errorf("invitation_url_hint is required")
	}
	if s.EntryID == "" {
		return fmt.Errorf("entry_id is required")
	}
	if strings.Count(s.SecureURLTemplate, "%s") != 1 {
		return fmt.Errorf("secure_url_template must contain exactly one %%s placeholder")
	}
	return nil
}

// Validate checks the TimingConfig settings.
func (t *TimingConfig) Validate() error {
	if t.Wait <= 0 || t.Short <= 0 {
		return fmt.Errorf("wait and short must be positive durations")
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if t.PollMax < t.PollInterval {
		return fmt.Errorf("poll_max must be at least poll_interval")
	}
	if t.ShowMoreMaxClicks < 0 {
		return fmt.Errorf("show_more_max_clicks must not be negative")
	}
	return nil
}
