package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	ServerPort int           `json:"server_port" yaml:"server_port"`
	LogLevel   string        `json:"log_level" yaml:"log_level"`
	Capture    CaptureConfig `json:"capture" yaml:"capture"`
}

// CaptureConfig tunes the capture pipeline. Deadlines are in
// milliseconds and bound the asynchronous steps of a streamed capture.
type CaptureConfig struct {
	ContentDeadlineMS     int  `json:"content_deadline_ms" yaml:"content_deadline_ms"`
	StreamStartDeadlineMS int  `json:"stream_start_deadline_ms" yaml:"stream_start_deadline_ms"`
	FrameDeadlineMS       int  `json:"frame_deadline_ms" yaml:"frame_deadline_ms"`
	ExcludeSelf           bool `json:"exclude_self" yaml:"exclude_self"`
}

// ContentDeadline returns the shareable content deadline as a Duration
func (c CaptureConfig) ContentDeadline() time.Duration {
	return time.Duration(c.ContentDeadlineMS) * time.Millisecond
}

// StreamStartDeadline returns the stream start deadline as a Duration
func (c CaptureConfig) StreamStartDeadline() time.Duration {
	return time.Duration(c.StreamStartDeadlineMS) * time.Millisecond
}

// FrameDeadline returns the frame delivery deadline as a Duration
func (c CaptureConfig) FrameDeadline() time.Duration {
	return time.Duration(c.FrameDeadlineMS) * time.Millisecond
}

// Manager handles configuration
type Manager struct {
	configPath string
	config     *Config
	mu         sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configFile string) (*Manager, error) {
	// Set default configuration path
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", "screengrab")
	defaultConfigPath := filepath.Join(configDir, "config.yaml")

	// Use provided config file or default
	actualConfigPath := defaultConfigPath
	if configFile != "" {
		actualConfigPath = configFile
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(actualConfigPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: actualConfigPath,
	}

	// Try to read config file
	if err := m.load(); err != nil {
		if os.IsNotExist(err) {
			// Config file not found, create it with defaults
			logger.WithComponent("config").Info().
				Str("path", m.configPath).
				Msg("Config file not found, creating new config")
			m.config = m.getDefaults()
			if err := m.Save(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.WithComponent("config").Info().
		Str("path", m.configPath).
		Msg("Config loaded")

	return m, nil
}

// getDefaults returns default configuration
func (m *Manager) getDefaults() *Config {
	return &Config{
		ServerPort: 8080,
		LogLevel:   "info",
		Capture: CaptureConfig{
			ContentDeadlineMS:     500,
			StreamStartDeadlineMS: 500,
			FrameDeadlineMS:       500,
			ExcludeSelf:           false,
		},
	}
}

// load reads the configuration from disk
func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	// Fill in unset deadlines with defaults
	defaults := m.getDefaults()
	if cfg.ServerPort == 0 {
		cfg.ServerPort = defaults.ServerPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Capture.ContentDeadlineMS <= 0 {
		cfg.Capture.ContentDeadlineMS = defaults.Capture.ContentDeadlineMS
	}
	if cfg.Capture.StreamStartDeadlineMS <= 0 {
		cfg.Capture.StreamStartDeadlineMS = defaults.Capture.StreamStartDeadlineMS
	}
	if cfg.Capture.FrameDeadlineMS <= 0 {
		cfg.Capture.FrameDeadlineMS = defaults.Capture.FrameDeadlineMS
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()

	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// Set replaces the current configuration
func (m *Manager) Set(cfg Config) {
	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
}

// Path returns the config file location
func (m *Manager) Path() string {
	return m.configPath
}
