package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"intelstack/internal/domain"
)

const (
	DefaultScanPattern       = "*.user.js"
	DefaultCommunityIndexURL = "https://lucka-me.github.io/iitc-community-plugins-index/"
	DefaultCommunityRawURL   = "https://raw.githubusercontent.com"
	DefaultCommunityRepo     = "IITC-CE/Community-plugins"
	DefaultCommunityBranch   = "master"
)

// Config holds user settings
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	Channel        string        `yaml:"channel"`
	BaseURL        string        `yaml:"base_url"`
	ExternalFolder string        `yaml:"external_folder,omitempty"`
	ScanPattern    string        `yaml:"scan_pattern"`
	HTTPTimeout    time.Duration `yaml:"http_timeout,omitempty"`
	CheckSyntax    bool          `yaml:"check_syntax"`
	KeepGoing      bool          `yaml:"keep_going"`
	ScriptsEnabled bool          `yaml:"scripts_enabled"`
	Editor         string        `yaml:"editor,omitempty"`
	Community      Community     `yaml:"community"`
}

// Community locates the community plugin index
type Community struct {
	IndexURL string `yaml:"index_url"`
	RawURL   string `yaml:"raw_url"`
	Repo     string `yaml:"repo"`
	Branch   string `yaml:"branch"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		Channel:        string(domain.ChannelRelease),
		BaseURL:        domain.DefaultBuildURL,
		ScanPattern:    DefaultScanPattern,
		ScriptsEnabled: true,
		Community: Community{
			IndexURL: DefaultCommunityIndexURL,
			RawURL:   DefaultCommunityRawURL,
			Repo:     DefaultCommunityRepo,
			Branch:   DefaultCommunityBranch,
		},
	}
}

// BuildChannel returns the configured channel, falling back to release
func (c *Config) BuildChannel() domain.Channel {
	return domain.ParseChannel(c.Channel)
}

// Remote returns the distribution site layout for the configured channel
func (c *Config) Remote() domain.Remote {
	return domain.NewRemote(c.BaseURL, c.BuildChannel())
}

// CatalogPath returns the path of the catalog database
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// ScriptsDir returns the directory holding downloaded scripts
func (c *Config) ScriptsDir() string {
	return filepath.Join(c.DataDir, "scripts")
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME
func DefaultPath() string {
	if env := os.Getenv("INTELSTACK_CONFIG"); env != "" {
		return env
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "intelstack", "config.yaml")
}

func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "intelstack")
}

// Load reads the config file at path, applying defaults for missing fields
// and environment overrides on top. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	if cfg.DataDir, err = expandHome(cfg.DataDir); err != nil {
		return nil, err
	}
	if cfg.ExternalFolder, err = expandHome(cfg.ExternalFolder); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if env := os.Getenv("INTELSTACK_DATA_DIR"); env != "" {
		c.DataDir = env
	}
	if env := os.Getenv("INTELSTACK_CHANNEL"); env != "" {
		c.Channel = env
	}
	if env := os.Getenv("INTELSTACK_EXTERNAL_FOLDER"); env != "" {
		c.ExternalFolder = env
	}
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	c.Channel = string(c.BuildChannel())
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.ScanPattern == "" {
		c.ScanPattern = d.ScanPattern
	}
	if c.Community.IndexURL == "" {
		c.Community.IndexURL = d.Community.IndexURL
	}
	if c.Community.RawURL == "" {
		c.Community.RawURL = d.Community.RawURL
	}
	if c.Community.Repo == "" {
		c.Community.Repo = d.Community.Repo
	}
	if c.Community.Branch == "" {
		c.Community.Branch = d.Community.Branch
	}
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// Save writes the config to path, creating parent directories
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Store is a config bound to its file. It persists changes made by the
// engine, such as clearing an external folder that no longer exists.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  *Config
}

// NewStore binds cfg to the file at path
func NewStore(path string, cfg *Config) *Store {
	return &Store{path: path, cfg: cfg}
}

// Config returns the bound configuration
func (s *Store) Config() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// ExternalFolderPath returns the configured external folder, if any
func (s *Store) ExternalFolderPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ExternalFolder
}

// SetExternalFolder updates and persists the external folder location
func (s *Store) SetExternalFolder(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expanded, err := expandHome(path)
	if err != nil {
		return err
	}
	s.cfg.ExternalFolder = expanded
	return Save(s.path, s.cfg)
}

// ClearExternalFolder forgets the external folder location
func (s *Store) ClearExternalFolder() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ExternalFolder = ""
	return Save(s.path, s.cfg)
}
