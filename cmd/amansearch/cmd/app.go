package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/amansearch/internal/config"
	"github.com/Aman-CERP/amansearch/internal/engine"
	"github.com/Aman-CERP/amansearch/internal/logging"
	"github.com/Aman-CERP/amansearch/internal/registry"
)

// app is the composition root for one command invocation.
type app struct {
	root     string
	cfg      *config.Config
	logger   *slog.Logger
	engine   *engine.Bleve
	registry *registry.Registry

	// logCleanup releases the log file opened by logging.Setup, if any.
	logCleanup func()
}

// loadConfig finds the application root and loads its configuration.
func loadConfig(flags *rootFlags) (string, *config.Config, error) {
	root, err := config.FindAppRoot(flags.appDir)
	if err != nil {
		return "", nil, err
	}

	var cfg *config.Config
	if flags.configPath != "" {
		path := flags.configPath
		if !filepath.IsAbs(path) {
			path, _ = filepath.Abs(path)
		}
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

// openApp builds the engine and registry for the configured application.
func openApp(flags *rootFlags) (*app, error) {
	root, cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	logCleanup := func() {}
	if !flags.debug {
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		logger, logCleanup, err = logging.Setup(logCfg)
		if err != nil {
			return nil, err
		}
	}

	eng := engine.NewBleve(engine.WithLogger(logger))
	reg, err := registry.NewFromConfig(cfg, root, eng, logger)
	if err != nil {
		_ = eng.Close()
		logCleanup()
		return nil, err
	}

	return &app{root: root, cfg: cfg, logger: logger, engine: eng, registry: reg, logCleanup: logCleanup}, nil
}

// Close closes the registry, which syncs written indexes, then the engine,
// and finally releases the logger.
func (a *app) Close() error {
	err := errors.Join(a.registry.Close(), a.engine.Close())
	if a.logCleanup != nil {
		a.logCleanup()
	}
	return err
}

// closeApp closes a and folds its error into err.
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close indexes: %w", cerr)
	}
}
