package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openpatterns/opf/internal/logging"
	"github.com/openpatterns/opf/pkg/opf/metrics"
	"github.com/openpatterns/opf/pkg/opf/store"
	"github.com/openpatterns/opf/pkg/opf/store/memstore"
	"github.com/openpatterns/opf/pkg/opf/store/sqlite"
)

// Loader loads the configuration file and constructs components
type Loader struct {
	ConfigPath string

	// ArchivePath overrides archive.path when set
	ArchivePath string
	// Level overrides log.level when set
	Level string
}

// Components holds all constructed components
type Components struct {
	Config  *Config
	Logger  *zap.Logger
	Store   store.Store
	Metrics *metrics.Metrics
}

// Load reads the configuration and returns initialized components. Without
// an archive path the store is in memory.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg, err := Load(l.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if l.ArchivePath != "" {
		cfg.Archive.Path = l.ArchivePath
	}
	if l.Level != "" {
		cfg.Log.Level = l.Level
	}

	comp := &Components{Config: cfg}

	comp.Logger, err = logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if cfg.Archive.Path != "" {
		comp.Store, err = sqlite.OpenSQLite(ctx, cfg.Archive.Path)
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", cfg.Archive.Path, err)
		}
		comp.Logger.Debug("archive opened", zap.String("path", cfg.Archive.Path))
	} else {
		comp.Store = memstore.New()
	}

	comp.Metrics = metrics.New()

	return comp, nil
}

// Close releases the store and flushes the logger
func (c *Components) Close() error {
	var err error
	if c.Store != nil {
		err = c.Store.Close()
	}
	if c.Logger != nil {
		// Sync on stderr reports EINVAL on some platforms
		_ = c.Logger.Sync()
	}
	return err
}
