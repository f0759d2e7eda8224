package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Scraper ScraperSettings `json:"scraper"`
	OMDB    OMDBSettings    `json:"omdb"`
	Log     LogConfig       `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ScraperSettings controls the IMDb page fetcher and extraction strategies.
type ScraperSettings struct {
	BaseURL           string `json:"baseUrl"`
	UserAgent         string `json:"userAgent"`
	AcceptLanguage    string `json:"acceptLanguage"`
	ConnectTimeoutSec int    `json:"connectTimeoutSec"`
	ReadTimeoutSec    int    `json:"readTimeoutSec"`
	AnchorWindowBytes int    `json:"anchorWindowBytes"` // markup span inspected after an episode anchor
	ListingBlockSize  int    `json:"listingBlockSize"`  // episodes per paginated AJAX block
	BatchMaxParallel  int    `json:"batchMaxParallel"`  // concurrent lookups for the batch endpoint
}

// OMDBSettings configures the fallback episode identifier resolver.
// An empty API key disables the resolver without error.
type OMDBSettings struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
}

// LogConfig represents log file rotation configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first startup.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 8001},
		Scraper: ScraperSettings{
			BaseURL:           "https://www.imdb.com",
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			AcceptLanguage:    "en-US,en;q=0.9",
			ConnectTimeoutSec: 4,
			ReadTimeoutSec:    8,
			AnchorWindowBytes: 2000,
			ListingBlockSize:  50,
			BatchMaxParallel:  4,
		},
		OMDB: OMDBSettings{APIKey: "", BaseURL: "https://www.omdbapi.com"},
		Log:  LogConfig{File: "", MaxSize: 25, MaxAge: 14, MaxBackups: 3, Compress: true},
	}
}

// Manager loads and persists Settings at a fixed path.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir makes sure the directory containing the config file exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
// The OMDB_API_KEY environment variable, when set, overrides the stored key.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	var s Settings
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		s = DefaultSettings()
		if err := m.Save(s); err != nil {
			return Settings{}, err
		}
	} else {
		f, err := os.Open(m.path)
		if err != nil {
			return Settings{}, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&s); err != nil {
			return Settings{}, err
		}
	}

	// Fill gaps left by hand-edited or older config files.
	defaults := DefaultSettings()
	if strings.TrimSpace(s.Scraper.BaseURL) == "" {
		s.Scraper.BaseURL = defaults.Scraper.BaseURL
	}
	if strings.TrimSpace(s.Scraper.UserAgent) == "" {
		s.Scraper.UserAgent = defaults.Scraper.UserAgent
	}
	if strings.TrimSpace(s.Scraper.AcceptLanguage) == "" {
		s.Scraper.AcceptLanguage = defaults.Scraper.AcceptLanguage
	}
	if s.Scraper.ConnectTimeoutSec <= 0 {
		s.Scraper.ConnectTimeoutSec = defaults.Scraper.ConnectTimeoutSec
	}
	if s.Scraper.ReadTimeoutSec <= 0 {
		s.Scraper.ReadTimeoutSec = defaults.Scraper.ReadTimeoutSec
	}
	if s.Scraper.AnchorWindowBytes <= 0 {
		s.Scraper.AnchorWindowBytes = defaults.Scraper.AnchorWindowBytes
	}
	if s.Scraper.ListingBlockSize <= 0 {
		s.Scraper.ListingBlockSize = defaults.Scraper.ListingBlockSize
	}
	if s.Scraper.BatchMaxParallel <= 0 {
		s.Scraper.BatchMaxParallel = defaults.Scraper.BatchMaxParallel
	}
	if strings.TrimSpace(s.OMDB.BaseURL) == "" {
		s.OMDB.BaseURL = defaults.OMDB.BaseURL
	}

	if key := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); key != "" {
		s.OMDB.APIKey = key
	}
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
