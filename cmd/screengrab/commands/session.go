package commands

import (
	"fmt"

	screengrab "github.com/bryanchriswhite/ScreenGrab"
	"github.com/bryanchriswhite/ScreenGrab/internal/config"
	"github.com/bryanchriswhite/ScreenGrab/internal/logger"
	"github.com/spf13/viper"
)

// openSession loads configuration, sets up logging and connects to the
// display system. Callers own the returned session.
func openSession() (*screengrab.Session, *config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := configMgr.Get()
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			cfg.LogLevel = level
		}
	}
	logger.Init(cfg.LogLevel, true)

	opts := []screengrab.Option{
		screengrab.WithDeadlines(
			cfg.Capture.ContentDeadline(),
			cfg.Capture.StreamStartDeadline(),
			cfg.Capture.FrameDeadline(),
		),
	}
	if cfg.Capture.ExcludeSelf {
		opts = append(opts, screengrab.WithExcludeSelf())
	}

	session, err := screengrab.Open(opts...)
	if err != nil {
		return nil, nil, err
	}
	return session, configMgr, nil
}
